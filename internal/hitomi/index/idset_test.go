package index

import "testing"

func TestIDSetAddPreservesInsertionOrderAndDedupes(t *testing.T) {
	s := NewIDSet()
	s.Add(3)
	s.Add(1)
	s.Add(3)
	s.Add(2)

	got := s.Slice()
	want := []int32{3, 1, 2}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if !s.Contains(1) || s.Contains(99) {
		t.Errorf("Contains gave wrong answer")
	}
}

func TestIDSetIntersectOrdersBySelf(t *testing.T) {
	a := NewIDSet()
	for _, id := range []int32{5, 3, 1, 2} {
		a.Add(id)
	}
	b := NewIDSet()
	for _, id := range []int32{1, 2, 99} {
		b.Add(id)
	}

	got := a.Intersect(b).Slice()
	want := []int32{1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestIDSetSubtractRemovesMembersOfOther(t *testing.T) {
	a := NewIDSet()
	for _, id := range []int32{1, 2, 3} {
		a.Add(id)
	}
	b := NewIDSet()
	b.Add(2)

	got := a.Subtract(b).Slice()
	want := []int32{1, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}
