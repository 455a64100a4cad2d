package gallery

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/hitomidl/hitomidl/internal/hitomi/gg"
)

const sampleGGJS = `
var gg = {
	m: function(g) {
		var o = 0;
		switch (g) {
			case 1:
				o = 1; break;
		}
		return o;
	},
	b: '1234567890/'
};
`

// fakeDoer routes a fixed set of canned responses by request URL, standing
// in for both the gallery-info endpoint and the gg.js script endpoint
// without touching the network.
type fakeDoer struct {
	galleryBody string
	status      int
}

func (f fakeDoer) Do(req *http.Request) (*http.Response, error) {
	var body string
	switch {
	case strings.Contains(req.URL.Path, "gg.js"):
		body = sampleGGJS
	default:
		body = f.galleryBody
	}

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

func newTestClient(galleryBody string, status int) *Client {
	doer := fakeDoer{galleryBody: galleryBody, status: status}
	return New(doer, gg.New(doer))
}

func TestGetParsesGalleryAndSynthesizesCoverURL(t *testing.T) {
	body := `var galleryinfo = {"id":42,"title":"A Title","artists":[{"artist":"artist a","url":"/artist/artist%20a-all.html"}],"files":[{"hash":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaabbc"}]}`
	c := newTestClient(body, 0)

	comic, err := c.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if comic.ID != 42 || comic.Title != "A Title" {
		t.Errorf("got %+v", comic)
	}
	if len(comic.Artists) != 1 || comic.Artists[0] != "artist a" {
		t.Errorf("Artists = %v, want [artist a]", comic.Artists)
	}
	if comic.CoverURL == "" {
		t.Error("expected a synthesized cover URL")
	}
}

func TestGetRejectsNonOKStatus(t *testing.T) {
	c := newTestClient("", http.StatusNotFound)
	if _, err := c.Get(context.Background(), 1); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestGetRejectsBodyMissingGalleryInfoPrefix(t *testing.T) {
	c := newTestClient(`{"id":1}`, 0)
	if _, err := c.Get(context.Background(), 1); err == nil {
		t.Fatal("expected an error for a body missing the var galleryinfo = prefix")
	}
}

func TestGetRejectsEmptyFileList(t *testing.T) {
	body := `var galleryinfo = {"id":1,"title":"no files","files":[]}`
	c := newTestClient(body, 0)
	if _, err := c.Get(context.Background(), 1); err == nil {
		t.Fatal("expected an error for a gallery with no files")
	}
}
