// Package hitomierr centralizes the sentinel errors named in the error
// taxonomy: network/service/decode/filesystem/config errors plus the
// domain-specific EmptyGallery, NotFound and TemplateError cases.
//
// Callers wrap a sentinel with context using fmt.Errorf("...: %w", err) at
// each layer boundary, producing the "outermost -> ... -> root cause" chain
// the command surface reports back to the UI. Use errors.Is against the
// sentinels below to recover the taxonomy from a wrapped chain.
package hitomierr

import "errors"

var (
	// ErrNetwork covers DNS/TCP/TLS/HTTP failures that survived the retry
	// middleware's budget.
	ErrNetwork = errors.New("network error")

	// ErrServiceUnavailable is a 503 from the image CDN after retries.
	ErrServiceUnavailable = errors.New("service unavailable, try again later")

	// ErrUnexpectedStatus is any other non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrDecode covers JSON parse failures, gg.js scrape regex misses, and
	// B-tree wire-format violations.
	ErrDecode = errors.New("decode error")

	// ErrFilesystem covers read/create/write/rename failures.
	ErrFilesystem = errors.New("filesystem error")

	// ErrConfig covers a missing or unresolvable app data directory.
	ErrConfig = errors.New("config error")

	// ErrEmptyGallery is returned when a gallery's file list is empty.
	ErrEmptyGallery = errors.New("gallery has no files")

	// ErrNotFound is returned by pause/resume/cancel when the task id is
	// unknown to the manager.
	ErrNotFound = errors.New("task not found")

	// ErrTemplate is returned when a dir-name template fails to render.
	ErrTemplate = errors.New("directory name template error")
)

// Chain renders the human-readable "outermost: ... -> rootCause"
// message chain. Go's %w-wrapped errors
// already print this way via Error(), so Chain is just a documented alias
// used at command-surface boundaries that need the string form explicitly.
func Chain(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
