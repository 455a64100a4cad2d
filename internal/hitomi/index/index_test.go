package index

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildNodeBytes(t *testing.T, keys [][]byte, offsets []int64, lengths []int32, subAddrs [17]int64) []byte {
	t.Helper()

	var buf bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatalf("failed to build test node bytes: %s", err)
		}
	}

	write(int32(len(keys)))
	for _, k := range keys {
		write(int32(len(k)))
		buf.Write(k)
	}

	write(int32(len(offsets)))
	for i := range offsets {
		write(offsets[i])
		write(lengths[i])
	}

	for _, a := range subAddrs {
		write(a)
	}

	return buf.Bytes()
}

func TestDecodeNodeRoundTripsLeaf(t *testing.T) {
	keys := [][]byte{{0xAA, 0xBB, 0xCC, 0xDD}}
	data := buildNodeBytes(t, keys, []int64{1024}, []int32{256}, [17]int64{})

	node, err := decodeNode(data)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if len(node.Keys) != 1 || !bytes.Equal(node.Keys[0], keys[0]) {
		t.Errorf("got keys %v, want %v", node.Keys, keys)
	}
	if len(node.Datas) != 1 || node.Datas[0].Offset != 1024 || node.Datas[0].Length != 256 {
		t.Errorf("got datas %+v, want offset=1024 length=256", node.Datas)
	}
	if !node.IsLeaf() {
		t.Error("node with all-zero sub-node addresses should be a leaf")
	}
}

func TestDecodeNodeRejectsOutOfRangeKeySize(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, int32(1))  // number_of_keys
	binary.Write(&buf, binary.BigEndian, int32(33)) // key_size: over the 32 max

	if _, err := decodeNode(buf.Bytes()); err == nil {
		t.Fatal("expected an error for a key_size over 32")
	}
}

func TestDecodeNodeInternalIsNotLeaf(t *testing.T) {
	var subAddrs [17]int64
	subAddrs[3] = 512

	data := buildNodeBytes(t, nil, nil, nil, subAddrs)
	node, err := decodeNode(data)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if node.IsLeaf() {
		t.Error("node with a non-zero sub-node address should not be a leaf")
	}
}
