// Package gg implements the GG routing table: a process-wide,
// lazily-refreshed cache of the subdomain-bucket/path-prefix values scraped
// out of a remote JavaScript file, plus the pure URL-synthesis functions
// that consume it.
package gg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
)

const (
	ggScriptURL = "https://ltn.gold-usergeneratedcontent.net/gg.js"
	ttl         = 60 * time.Second
)

var (
	reDefault = regexp.MustCompile(`var\s+o\s*=\s*(\d+)`)
	reBreak   = regexp.MustCompile(`o\s*=\s*(\d+)\s*;\s*break;`)
	reCase    = regexp.MustCompile(`case\s+(\d+)\s*:`)
	reB       = regexp.MustCompile(`b:\s*'([^']*)'`)
	reSubdom  = regexp.MustCompile(`/[0-9a-f]{61}([0-9a-f]{2})([0-9a-f])`)
	reHost    = regexp.MustCompile(`//..?\.(?:gold-usergeneratedcontent\.net|hitomi\.la)/`)
)

// Doer is the subset of *http.Client the table needs; satisfied directly by
// *http.Client and by the "api" client in internal/hitomi/httpclient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Table is the process-wide GG cache. Construct with New: the zero value
// has no client to fetch gg.js with. Callers should hold onto a single
// shared *Table for the process.
type Table struct {
	mu            sync.Mutex
	client        Doer
	lastRetrieval time.Time
	mDefault      int
	mMap          map[int]int
	b             string
}

// New constructs a Table using client to fetch gg.js.
func New(client Doer) *Table {
	return &Table{client: client}
}

// ensureFresh refreshes the table if the cache is older than the 60s TTL.
func (t *Table) ensureFresh(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lastRetrieval.IsZero() && time.Since(t.lastRetrieval) < ttl {
		return nil
	}

	return t.refreshLocked(ctx)
}

// Refresh forces an unconditional re-scrape of gg.js. Concurrent callers of
// any GG method are serialized by the table's mutex, so they observe the
// same post-refresh state.
func (t *Table) Refresh(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refreshLocked(ctx)
}

func (t *Table) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ggScriptURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to build gg.js request: %s", hitomierr.ErrNetwork, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch gg.js: %s", hitomierr.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: gg.js returned status %d", hitomierr.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read gg.js body: %s", hitomierr.ErrNetwork, err)
	}

	mDefault, mMap, b, err := parseGG(string(body))
	if err != nil {
		return err
	}

	t.mDefault = mDefault
	t.mMap = mMap
	t.b = b
	t.lastRetrieval = time.Now()

	return nil
}

// parseGG extracts m_default, m_map and b from the raw gg.js text.
func parseGG(src string) (mDefault int, mMap map[int]int, b string, err error) {
	dm := reDefault.FindStringSubmatch(src)
	if dm == nil {
		return 0, nil, "", fmt.Errorf("%w: could not find default bucket assignment in gg.js", hitomierr.ErrDecode)
	}
	mDefault, err = strconv.Atoi(dm[1])
	if err != nil {
		return 0, nil, "", fmt.Errorf("%w: invalid default bucket value %q: %s", hitomierr.ErrDecode, dm[1], err)
	}

	bm := reB.FindStringSubmatch(src)
	if bm == nil {
		return 0, nil, "", fmt.Errorf("%w: could not find path prefix in gg.js", hitomierr.ErrDecode)
	}
	b = bm[1]

	mMap = map[int]int{}

	breaks := reBreak.FindAllStringSubmatchIndex(src, -1)
	cases := reCase.FindAllStringSubmatchIndex(src, -1)

	prevEnd := 0
	for _, br := range breaks {
		o, convErr := strconv.Atoi(src[br[2]:br[3]])
		if convErr != nil {
			return 0, nil, "", fmt.Errorf("%w: invalid bucket value in gg.js: %s", hitomierr.ErrDecode, convErr)
		}

		blockStart, blockEnd := prevEnd, br[1]
		for _, c := range cases {
			if c[0] < blockStart || c[0] >= blockEnd {
				continue
			}
			k, convErr := strconv.Atoi(src[c[2]:c[3]])
			if convErr != nil {
				continue
			}
			mMap[k] = o
		}

		prevEnd = br[1]
	}

	return mDefault, mMap, b, nil
}

// m returns m_map[g] if present, else m_default.
func (t *Table) m(g int) int {
	if v, ok := t.mMap[g]; ok {
		return v
	}
	return t.mDefault
}

// B returns the scraped path prefix, refreshing the cache first if stale.
func (t *Table) B(ctx context.Context) (string, error) {
	if err := t.ensureFresh(ctx); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.b, nil
}

// s takes the last three hex characters of hash (as "XYZ"), forms the
// integer parse_hex("ZXY"), and returns its decimal string
// representation.
func s(hash string) (string, error) {
	if len(hash) < 3 {
		return "", fmt.Errorf("%w: hash %q too short", hitomierr.ErrDecode, hash)
	}
	tail := hash[len(hash)-3:]
	x, y, z := tail[0:1], tail[1:2], tail[2:3]
	n, err := strconv.ParseInt(z+x+y, 16, 64)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse hash suffix %q: %s", hitomierr.ErrDecode, tail, err)
	}
	return strconv.FormatInt(n, 10), nil
}

// FullPathFromHash implements full_path_from_hash(hash) = "{b}{s(hash)}/{hash}".
func (t *Table) FullPathFromHash(ctx context.Context, hash string) (string, error) {
	prefix, err := t.B(ctx)
	if err != nil {
		return "", err
	}
	suffix, err := s(hash)
	if err != nil {
		return "", err
	}
	return prefix + suffix + "/" + hash, nil
}

// RealFullPathFromHash implements real_full_path_from_hash(hash): last three
// hex chars XYZ -> path "Z/XY/{hash}".
func RealFullPathFromHash(hash string) (string, error) {
	if len(hash) < 3 {
		return "", fmt.Errorf("%w: hash %q too short", hitomierr.ErrDecode, hash)
	}
	tail := hash[len(hash)-3:]
	x, y, z := tail[0:1], tail[1:2], tail[2:3]
	return z + "/" + x + y + "/" + hash, nil
}

// Subdomain derives the CDN subdomain for rawURL. base and dir use ""
// to mean absent.
func (t *Table) Subdomain(ctx context.Context, rawURL, base, dir string) (string, error) {
	if base == "" && dir == "" {
		return "", nil
	}

	if err := t.ensureFresh(ctx); err != nil {
		return "", err
	}

	retval := ""
	if base == "" {
		switch dir {
		case "webp":
			retval = "w"
		case "avif":
			retval = "a"
		}
	}

	m := reSubdom.FindStringSubmatch(rawURL)
	if m == nil {
		return "", nil
	}
	hexpair1, hex1 := m[1], m[2]

	g, err := strconv.ParseInt(hex1+hexpair1, 16, 64)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse subdomain seed from %q: %s", hitomierr.ErrDecode, rawURL, err)
	}

	t.mu.Lock()
	mResult := t.m(int(g))
	t.mu.Unlock()

	if base == "" {
		return retval + strconv.Itoa(1+mResult), nil
	}

	c := rune(97 + mResult)
	return string(c) + base, nil
}

// RewriteURL substitutes the CDN host pattern in rawURL with the
// computed subdomain.
func (t *Table) RewriteURL(ctx context.Context, rawURL, base, dir string) (string, error) {
	subdomain, err := t.Subdomain(ctx, rawURL, base, dir)
	if err != nil {
		return "", err
	}
	if subdomain == "" {
		return rawURL, nil
	}
	return reHost.ReplaceAllString(rawURL, "//"+subdomain+".gold-usergeneratedcontent.net/"), nil
}

// ImageURLFromHash builds the full CDN URL for one file's hash. When
// base == "tn" (thumbnail), the
// real (non-bucketed) path is used; otherwise the bucketed path is used,
// with the dir segment omitted when dir is "webp" or "avif".
func (t *Table) ImageURLFromHash(ctx context.Context, hash, dir, ext, base string) (string, error) {
	var rawURL string

	if base == "tn" {
		real, err := RealFullPathFromHash(hash)
		if err != nil {
			return "", err
		}
		rawURL = fmt.Sprintf("https://a.gold-usergeneratedcontent.net/%s/%s.%s", dir, real, ext)
	} else {
		full, err := t.FullPathFromHash(ctx, hash)
		if err != nil {
			return "", err
		}
		if dir == "webp" || dir == "avif" {
			rawURL = fmt.Sprintf("https://a.gold-usergeneratedcontent.net/%s.%s", full, ext)
		} else {
			rawURL = fmt.Sprintf("https://a.gold-usergeneratedcontent.net/%s/%s.%s", dir, full, ext)
		}
	}

	return t.RewriteURL(ctx, rawURL, base, dir)
}

// ImageURL is the downloader's convenience entrypoint: passes dir =
// "webp"/"avif" with no base or ext override.
func (t *Table) ImageURL(ctx context.Context, hash string, dir string) (string, error) {
	return t.ImageURLFromHash(ctx, hash, dir, dir, "")
}

// CoverURL synthesizes a thumbnail URL with dir="webpbigtn", ext="webp",
// base="tn".
func (t *Table) CoverURL(ctx context.Context, hash string) (string, error) {
	return t.ImageURLFromHash(ctx, hash, "webpbigtn", "webp", "tn")
}

