package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
)

// Comic is the internal projection of a gallery: everything GalleryInfo
// carries, flattened into string lists, plus a synthesized cover URL and the
// view-state fields IsDownloaded/DirName.
type Comic struct {
	ID                int      `json:"id"`
	Title             string   `json:"title"`
	JapaneseTitle     string   `json:"japanese_title,omitempty"`
	Language          string   `json:"language,omitempty"`
	LanguageLocalname string   `json:"language_localname,omitempty"`
	Type              string   `json:"type,omitempty"`
	Date              string   `json:"date,omitempty"`
	Artists           []string `json:"artists,omitempty"`
	Groups            []string `json:"groups,omitempty"`
	Parodys           []string `json:"parodys,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Characters        []string `json:"characters,omitempty"`
	Related           []string `json:"related,omitempty"`
	Languages         []string `json:"languages,omitempty"`
	SceneIndexes      []string `json:"scene_indexes,omitempty"`

	Files []GalleryFile `json:"files"`

	CoverURL string `json:"cover_url"`

	// IsDownloaded and DirName are view state: recomputed on load, never
	// persisted in metadata.json.
	IsDownloaded bool   `json:"is_downloaded"`
	DirName      string `json:"dir_name,omitempty"`
}

// diskComic mirrors Comic's JSON shape minus the two view-state fields, used
// to write/read metadata.json.
type diskComic struct {
	ID                int           `json:"id"`
	Title             string        `json:"title"`
	JapaneseTitle     string        `json:"japanese_title,omitempty"`
	Language          string        `json:"language,omitempty"`
	LanguageLocalname string        `json:"language_localname,omitempty"`
	Type              string        `json:"type,omitempty"`
	Date              string        `json:"date,omitempty"`
	Artists           []string      `json:"artists,omitempty"`
	Groups            []string      `json:"groups,omitempty"`
	Parodys           []string      `json:"parodys,omitempty"`
	Tags              []string      `json:"tags,omitempty"`
	Characters        []string      `json:"characters,omitempty"`
	Related           []string      `json:"related,omitempty"`
	Languages         []string      `json:"languages,omitempty"`
	SceneIndexes      []string      `json:"scene_indexes,omitempty"`
	Files             []GalleryFile `json:"files"`
	CoverURL          string        `json:"cover_url"`
}

// MarshalMetadata renders the Comic the way it is stored as
// download_dir/<dir_name>/metadata.json: IsDownloaded and DirName omitted,
// since they are recomputed on load rather than persisted.
func (c Comic) MarshalMetadata() ([]byte, error) {
	d := diskComic{
		ID: c.ID, Title: c.Title, JapaneseTitle: c.JapaneseTitle,
		Language: c.Language, LanguageLocalname: c.LanguageLocalname,
		Type: c.Type, Date: c.Date, Artists: c.Artists, Groups: c.Groups,
		Parodys: c.Parodys, Tags: c.Tags, Characters: c.Characters,
		Related: c.Related, Languages: c.Languages, SceneIndexes: c.SceneIndexes,
		Files: c.Files, CoverURL: c.CoverURL,
	}
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comic metadata: %w", err)
	}
	return data, nil
}

// UnmarshalMetadata parses metadata.json back into a Comic. IsDownloaded and
// DirName are left at their zero values; the caller (library scan) fills
// them in from filesystem context.
func UnmarshalMetadata(data []byte) (Comic, error) {
	var d diskComic
	if err := json.Unmarshal(data, &d); err != nil {
		return Comic{}, fmt.Errorf("%w: failed to parse comic metadata: %s", hitomierr.ErrDecode, err)
	}
	return Comic{
		ID: d.ID, Title: d.Title, JapaneseTitle: d.JapaneseTitle,
		Language: d.Language, LanguageLocalname: d.LanguageLocalname,
		Type: d.Type, Date: d.Date, Artists: d.Artists, Groups: d.Groups,
		Parodys: d.Parodys, Tags: d.Tags, Characters: d.Characters,
		Related: d.Related, Languages: d.Languages, SceneIndexes: d.SceneIndexes,
		Files: d.Files, CoverURL: d.CoverURL,
	}, nil
}

// CoverURLSynth is implemented by the hitomi/gg package; Comic construction
// depends on it to avoid an import cycle between model and hitomi/gg.
type CoverURLSynth func(hash string) (string, error)

// FromGalleryInfo projects a raw GalleryInfo into the internal Comic
// representation, synthesizing the cover URL from the gallery's first file
//. A gallery with no
// files fails with ErrEmptyGallery.
func FromGalleryInfo(info GalleryInfo, coverURL CoverURLSynth) (Comic, error) {
	if len(info.Files) == 0 {
		return Comic{}, fmt.Errorf("gallery %d: %w", info.ID, hitomierr.ErrEmptyGallery)
	}

	cover, err := coverURL(info.Files[0].Hash)
	if err != nil {
		return Comic{}, fmt.Errorf("failed to synthesize cover URL for gallery %d: %w", info.ID, err)
	}

	related := make([]string, len(info.Related))
	for i, r := range info.Related {
		related[i] = strconv.Itoa(r)
	}
	scenes := make([]string, len(info.SceneIndexes))
	for i, s := range info.SceneIndexes {
		scenes[i] = strconv.Itoa(s)
	}

	return Comic{
		ID:                info.ID,
		Title:             info.Title,
		JapaneseTitle:     info.JapaneseTitle,
		Language:          info.Language,
		LanguageLocalname: info.LanguageLocalname,
		Type:              info.Type,
		Date:              info.Date,
		Artists:           names(info.Artists, func(a Artist) string { return a.Artist }),
		Groups:            names(info.Groups, func(g Group) string { return g.Group }),
		Parodys:           names(info.Parodys, func(p Parody) string { return p.Parody }),
		Tags:              tagStrings(info.Tags),
		Characters:        names(info.Characters, func(c Character) string { return c.Character }),
		Related:           related,
		Languages:         languageNames(info.Languages),
		SceneIndexes:      scenes,
		Files:             info.Files,
		CoverURL:          cover,
	}, nil
}

// names flattens a credit-entry list into its display names; each entry
// type carries the name under its own field, so the caller supplies the
// accessor.
func names[T any](entries []T, name func(T) string) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = name(e)
	}
	return out
}

func languageNames(entries []LanguageInfo) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		if e.LocalName != "" {
			out[i] = e.LocalName
		} else {
			out[i] = e.Name
		}
	}
	return out
}

// tagStrings flattens {tag, female, male} triples into "ns:tag" strings
// matching the namespace vocabulary the query router understands.
func tagStrings(tags []GalleryTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		switch {
		case t.Female:
			out[i] = "female:" + t.Tag
		case t.Male:
			out[i] = "male:" + t.Tag
		default:
			out[i] = t.Tag
		}
	}
	return out
}

// DirNameTemplateParams is the variable set available to the configured
// directory-name template.
type DirNameTemplateParams struct {
	ID                int
	Title             string
	Language          string
	LanguageLocalname string
	Artists           string
}

// TemplateParams derives the template variable set from a Comic.
func (c Comic) TemplateParams() DirNameTemplateParams {
	return DirNameTemplateParams{
		ID:                c.ID,
		Title:             c.Title,
		Language:          c.Language,
		LanguageLocalname: c.LanguageLocalname,
		Artists:           strings.Join(c.Artists, ", "),
	}
}
