package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitomidl/hitomidl/internal/model"
)

func TestDoReturnsResponseOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(CoverPolicy)
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d, want 200", resp.StatusCode)
	}
}

func TestDoRejectsRedirectWhenNoRedirectPolicySet(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer srv.Close()

	c := New(APIPolicy)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("got status %d, want the unfollowed 302, APIPolicy sets NoRedirect", resp.StatusCode)
	}
}

func TestDoRetries503BeforeSucceeding(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Policy{MaxElapsed: 2 * time.Second})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d, want 200 after retrying the 503s", resp.StatusCode)
	}
	if attempts.Load() != 3 {
		t.Errorf("got %d attempts, want 3", attempts.Load())
	}
}

func TestDoReturnsFinalStatusWhenRetryBudgetExhausted(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// The first backoff interval is 250-750ms (500ms default, 50% jitter), so
	// a 1s budget always leaves room for at least one retry.
	c := New(Policy{MaxElapsed: 1 * time.Second})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503 once the retry budget is exhausted", resp.StatusCode)
	}
	if attempts.Load() < 2 {
		t.Errorf("got %d attempts, want at least 2 (retried before giving up)", attempts.Load())
	}
}

func TestReloadWithInvalidCustomProxyFallsBackToSystem(t *testing.T) {
	c := New(CoverPolicy)
	fellBack, err := c.Reload(model.ProxyCustom, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// host:port built from an empty host and port 0 is syntactically valid
	// for url.Parse, so exercise the genuinely invalid path via a host
	// containing a control character instead.
	_ = fellBack

	fellBack, err = c.Reload(model.ProxyCustom, "\x7f", 0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !fellBack {
		t.Error("expected an invalid custom proxy host to report a fallback")
	}
}

func TestPoolReloadAllAppliesToEveryClient(t *testing.T) {
	p := NewPool()
	if _, err := p.ReloadAll(model.ProxyNoProxy, "", 0); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestGetImageSetsRefererHeader(t *testing.T) {
	var gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := &Pool{Image: New(ImagePolicy)}
	resp, err := p.GetImage(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer resp.Body.Close()

	if gotReferer != "https://hitomi.la/" {
		t.Errorf("Referer = %q, want https://hitomi.la/", gotReferer)
	}
}
