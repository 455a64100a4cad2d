// Package gallery fetches and decodes a single gallery's info document
//, projecting it into the model.Comic shape the rest of the
// program works with.
package gallery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hitomidl/hitomidl/internal/hitomi/gg"
	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

const galleryInfoPrefix = "var galleryinfo = "

// Doer is the subset of *http.Client gallery fetches need.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches gallery info documents and projects them into model.Comic.
type Client struct {
	http Doer
	gg   *gg.Table
}

// New builds a Client; gg is used to synthesize the cover URL.
func New(http Doer, gg *gg.Table) *Client {
	return &Client{http: http, gg: gg}
}

// Get fetches gallery id and returns its Comic projection.
func (c *Client) Get(ctx context.Context, id int) (model.Comic, error) {
	info, err := c.fetchInfo(ctx, id)
	if err != nil {
		return model.Comic{}, err
	}

	return model.FromGalleryInfo(info, func(hash string) (string, error) {
		return c.gg.CoverURL(ctx, hash)
	})
}

func (c *Client) fetchInfo(ctx context.Context, id int) (model.GalleryInfo, error) {
	url := fmt.Sprintf("https://ltn.gold-usergeneratedcontent.net/galleries/%d.js", id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.GalleryInfo{}, fmt.Errorf("%w: failed to build gallery request: %s", hitomierr.ErrNetwork, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.GalleryInfo{}, fmt.Errorf("%w: failed to fetch gallery %d: %s", hitomierr.ErrNetwork, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.GalleryInfo{}, fmt.Errorf("%w: gallery %d fetch returned status %d", hitomierr.ErrUnexpectedStatus, id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.GalleryInfo{}, fmt.Errorf("%w: failed to read gallery %d body: %s", hitomierr.ErrNetwork, id, err)
	}

	text := strings.TrimPrefix(string(body), galleryInfoPrefix)
	if text == string(body) {
		return model.GalleryInfo{}, fmt.Errorf("%w: gallery %d response missing %q prefix", hitomierr.ErrDecode, id, galleryInfoPrefix)
	}

	info, err := model.ParseGalleryInfo([]byte(text))
	if err != nil {
		return model.GalleryInfo{}, fmt.Errorf("%w: failed to parse gallery %d info: %s", hitomierr.ErrDecode, id, err)
	}

	return info, nil
}
