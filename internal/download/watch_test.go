package download

import "testing"

func TestWatchGetReturnsLatestSetValue(t *testing.T) {
	w := newWatch(1)
	if got := w.Get(); got != 1 {
		t.Fatalf("Get() = %d, want 1", got)
	}

	w.Set(2)
	if got := w.Get(); got != 2 {
		t.Errorf("Get() = %d, want 2", got)
	}
}

func TestWatchChangedClosesOnSet(t *testing.T) {
	w := newWatch("a")

	_, changed := w.Changed()
	select {
	case <-changed:
		t.Fatal("changed channel closed before any Set call")
	default:
	}

	w.Set("b")

	select {
	case <-changed:
	default:
		t.Fatal("changed channel did not close after Set")
	}
}

func TestWatchChangedReturnsFreshChannelAfterSet(t *testing.T) {
	w := newWatch(0)

	_, first := w.Changed()
	w.Set(1)
	_, second := w.Changed()

	select {
	case <-second:
		t.Fatal("freshly-obtained changed channel should not be closed yet")
	default:
	}

	w.Set(2)
	select {
	case <-first:
	default:
		t.Fatal("first channel should have closed on the first Set")
	}
	select {
	case <-second:
	default:
		t.Fatal("second channel should have closed on the second Set")
	}
}
