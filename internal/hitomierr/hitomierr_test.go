package hitomierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestChainRendersWrappedMessage(t *testing.T) {
	err := fmt.Errorf("fetch gallery 5: %w", fmt.Errorf("read body: %w", ErrNetwork))
	got := Chain(err)
	want := "fetch gallery 5: read body: network error"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestChainNilIsEmptyString(t *testing.T) {
	if got := Chain(nil); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestErrorsIsRecoversSentinelThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create task for comic 1: %w", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to find ErrNotFound through the wrap chain")
	}
	if errors.Is(err, ErrDecode) {
		t.Error("did not expect errors.Is to match an unrelated sentinel")
	}
}
