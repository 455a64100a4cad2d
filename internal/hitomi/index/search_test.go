package index

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// failingDoer fails every request, simulating a transient network/decode
// error on an individual term lookup.
type failingDoer struct{}

func (failingDoer) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("simulated transient failure")
}

func TestSearchDegradesFailedTermToEmptySetInsteadOfAborting(t *testing.T) {
	c := New(failingDoer{})

	result, err := c.Search(context.Background(), "some_tag", false)
	if err != nil {
		t.Fatalf("expected Search to degrade a failed term lookup rather than error, got: %s", err)
	}
	if result == nil {
		t.Fatal("expected a non-nil (possibly empty) result set")
	}
	if result.Len() != 0 {
		t.Errorf("got %d ids, want 0 since every lookup failed", result.Len())
	}
}

func TestTokenizeStripsLeadingQuestionMarkAndLowercases(t *testing.T) {
	got := Tokenize("?Artist_Name -Excluded_Tag")
	want := []Term{
		{Text: "artist name", Negative: false},
		{Text: "excluded tag", Negative: true},
	}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("term %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTokenizeSkipsEmptyTermFromBareDash(t *testing.T) {
	got := Tokenize("- real_term")
	want := []Term{{Text: "real term", Negative: false}}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got[0] != want[0] {
		t.Errorf("got %+v, want %+v", got[0], want[0])
	}
}

func TestLocateKeyExactAndInsertionPoint(t *testing.T) {
	keys := [][]byte{{1}, {3}, {5}}

	there, where := locateKey([]byte{3}, keys)
	if !there || where != 1 {
		t.Errorf("exact match: got (there=%v, where=%d), want (true, 1)", there, where)
	}

	there, where = locateKey([]byte{4}, keys)
	if there || where != 2 {
		t.Errorf("insertion point: got (there=%v, where=%d), want (false, 2)", there, where)
	}

	there, where = locateKey([]byte{9}, keys)
	if there || where != len(keys) {
		t.Errorf("past the end: got (there=%v, where=%d), want (false, %d)", there, where, len(keys))
	}
}

func TestCompareArraysLexicographic(t *testing.T) {
	cases := []struct {
		a, b []byte
		want int
	}{
		{[]byte{1, 2}, []byte{1, 2}, 0},
		{[]byte{1, 2}, []byte{1, 3}, -1},
		{[]byte{2, 0}, []byte{1, 9}, 1},
	}

	for _, c := range cases {
		if got := compareArrays(c.a, c.b); got != c.want {
			t.Errorf("compareArrays(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
