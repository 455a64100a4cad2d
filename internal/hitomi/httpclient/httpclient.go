// Package httpclient provides the three logical HTTP clients ("api",
// "image", "cover"), each independently configured for timeout, redirect
// policy and retry/backoff, and reloadable as a group when the
// process-wide proxy configuration changes. Retry/backoff is implemented
// with github.com/cenkalti/backoff/v4 behind a small client wrapper over
// *http.Client rather than a transport-level middleware stack.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

// Policy describes one logical client's timeout/redirect/retry behavior.
type Policy struct {
	RequestTimeout time.Duration // 0 means no per-request timeout
	NoRedirect     bool
	MaxElapsed     time.Duration // 0 means no elapsed-time limit; retry is off only when MaxRetries is also 0
	MaxRetries     int           // 0 means unlimited (bounded by MaxElapsed)
}

var (
	// APIPolicy: request timeout 3s, no redirects, 5s total retry budget.
	APIPolicy = Policy{RequestTimeout: 3 * time.Second, NoRedirect: true, MaxElapsed: 5 * time.Second}

	// ImagePolicy: no request timeout, up to 20 retry attempts.
	ImagePolicy = Policy{MaxRetries: 20}

	// CoverPolicy: no retry middleware.
	CoverPolicy = Policy{}
)

// Client wraps an *http.Client with a retry policy, and can be swapped out
// live under its own lock when proxy config changes. It sets no request
// headers of its own; Pool.GetImage adds the Referer for image fetches.
type Client struct {
	mu     sync.RWMutex
	inner  *http.Client
	policy Policy
}

// New builds a Client for policy in System proxy mode (the proxy, if any,
// comes from the host's proxy environment variables).
func New(policy Policy) *Client {
	return &Client{inner: build(policy, model.ProxySystem, "", 0), policy: policy}
}

func build(policy Policy, mode model.ProxyMode, proxyHost string, proxyPort uint16) *http.Client {
	transport := &http.Transport{}

	switch mode {
	case model.ProxyNoProxy:
		transport.Proxy = nil
	case model.ProxyCustom:
		proxyURL, err := url.Parse(fmt.Sprintf("http://%s:%d", proxyHost, proxyPort))
		if err != nil {
			transport.Proxy = http.ProxyFromEnvironment
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	default:
		transport.Proxy = http.ProxyFromEnvironment
	}

	c := &http.Client{Transport: transport, Timeout: policy.RequestTimeout}
	if policy.NoRedirect {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return c
}

// Reload swaps the underlying *http.Client for one built against the new
// proxy settings. An in-flight request that already captured the old
// *http.Client runs to completion against it. If mode is
// Custom and the resulting proxy URL is invalid, Reload falls back to
// System mode and reports that fallback through fellBack.
func (c *Client) Reload(mode model.ProxyMode, proxyHost string, proxyPort uint16) (fellBack bool, err error) {
	if mode == model.ProxyCustom {
		if _, parseErr := url.Parse(fmt.Sprintf("http://%s:%d", proxyHost, proxyPort)); parseErr != nil {
			mode = model.ProxySystem
			fellBack = true
		}
	}

	next := build(c.policy, mode, proxyHost, proxyPort)

	c.mu.Lock()
	c.inner = next
	c.mu.Unlock()

	return fellBack, nil
}

// isRetryableStatus reports whether status is a transient server failure
// the retry middleware should treat like a transport error.
func isRetryableStatus(status int) bool {
	return status >= 500
}

// Do sends req, retrying per the client's policy with exponential backoff
// and jitter. A 5xx response is retried exactly like a transport error;
// callers only see a status-carrying *http.Response once the retry budget
// is exhausted, or immediately for any other non-2xx/3xx status, which
// this layer never retries.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.mu.RLock()
	inner := c.inner
	c.mu.RUnlock()

	if c.policy.MaxElapsed == 0 && c.policy.MaxRetries == 0 {
		resp, err := inner.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", hitomierr.ErrNetwork, err)
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	if c.policy.MaxElapsed > 0 {
		bo.MaxElapsedTime = c.policy.MaxElapsed
	} else {
		bo.MaxElapsedTime = 0
	}

	var policy backoff.BackOff = bo
	if c.policy.MaxRetries > 0 {
		policy = backoff.WithMaxRetries(bo, uint64(c.policy.MaxRetries))
	}

	var resp *http.Response
	op := func() error {
		if resp != nil {
			resp.Body.Close()
			resp = nil
		}

		r, err := inner.Do(req.Clone(req.Context()))
		if err != nil {
			return fmt.Errorf("%w: %s", hitomierr.ErrNetwork, err)
		}
		resp = r
		if isRetryableStatus(r.StatusCode) {
			return fmt.Errorf("%w: status %d", hitomierr.ErrUnexpectedStatus, r.StatusCode)
		}
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		if resp != nil {
			// Retry budget exhausted against a 5xx; hand the final response
			// to the caller so it can map the status (e.g. ServiceUnavailable).
			return resp, nil
		}
		return nil, err
	}

	return resp, nil
}

// Pool is the process-wide set of "api"/"image"/"cover" clients.
type Pool struct {
	API   *Client
	Image *Client
	Cover *Client
}

// NewPool builds the default pool with each client's standard policy.
func NewPool() *Pool {
	return &Pool{
		API:   New(APIPolicy),
		Image: New(ImagePolicy),
		Cover: New(CoverPolicy),
	}
}

// ReloadAll reloads every client in the pool against the given proxy
// configuration. The returned bool reports whether an invalid Custom proxy URL
// forced a fallback to System mode; callers should log it.
func (p *Pool) ReloadAll(mode model.ProxyMode, proxyHost string, proxyPort uint16) (fellBack bool, err error) {
	for _, c := range []*Client{p.API, p.Image, p.Cover} {
		fb, err := c.Reload(mode, proxyHost, proxyPort)
		if err != nil {
			return fellBack, err
		}
		fellBack = fellBack || fb
	}
	return fellBack, nil
}

// GetImage fetches url with the image client, setting the Referer header
// the CDN expects.
func (p *Pool) GetImage(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Referer", "https://hitomi.la/")
	return p.Image.Do(req)
}
