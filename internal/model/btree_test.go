package model

import "testing"

func TestBTreeNodeIsLeafWhenEverySubNodeAddressIsZero(t *testing.T) {
	n := BTreeNode{}
	if !n.IsLeaf() {
		t.Error("a node with no sub-node addresses set should be a leaf")
	}
}

func TestBTreeNodeIsNotLeafWithOneNonZeroAddress(t *testing.T) {
	n := BTreeNode{}
	n.SubNodeAddresses[5] = 1024
	if n.IsLeaf() {
		t.Error("a node with a non-zero sub-node address should not be a leaf")
	}
}
