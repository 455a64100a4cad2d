package model

import "encoding/json"

// ParseGalleryInfo decodes a gallery info JSON document (the text of
// `var galleryinfo = {...}` with the prefix already stripped by the
// caller) into a GalleryInfo.
func ParseGalleryInfo(data []byte) (GalleryInfo, error) {
	var info GalleryInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return GalleryInfo{}, err
	}
	return info, nil
}

// GalleryFile is one image entry inside a gallery's file list.
type GalleryFile struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Hash     string `json:"hash"`
	Name     string `json:"name"`
	HasWebp  bool   `json:"haswebp"`
	HasAvif  bool   `json:"hasavif"`
	HasJXL   bool   `json:"hasjxl"`
}

// galleryFileWire is the JSON-decoding shape of GalleryFile: width/height
// and the has* flags are sometimes served as numeric strings or 0/1 ints
// rather than native JSON types.
type galleryFileWire struct {
	Width   FlexInt  `json:"width"`
	Height  FlexInt  `json:"height"`
	Hash    string   `json:"hash"`
	Name    string   `json:"name"`
	HasWebp FlexBool `json:"haswebp"`
	HasAvif FlexBool `json:"hasavif"`
	HasJXL  FlexBool `json:"hasjxl"`
}

func (f *GalleryFile) UnmarshalJSON(data []byte) error {
	var w galleryFileWire
	if err := unmarshalJSON(data, &w); err != nil {
		return err
	}
	*f = GalleryFile{
		Width:   w.Width.Int(),
		Height:  w.Height.Int(),
		Hash:    w.Hash,
		Name:    w.Name,
		HasWebp: w.HasWebp.Bool(),
		HasAvif: w.HasAvif.Bool(),
		HasJXL:  w.HasJXL.Bool(),
	}
	return nil
}

// GalleryTag is one {tag, female, male} entry of a gallery's tag list.
type GalleryTag struct {
	Tag    string `json:"tag"`
	Female bool   `json:"female"`
	Male   bool   `json:"male"`
}

type galleryTagWire struct {
	Tag    string   `json:"tag"`
	Female FlexBool `json:"female"`
	Male   FlexBool `json:"male"`
}

func (t *GalleryTag) UnmarshalJSON(data []byte) error {
	var w galleryTagWire
	if err := unmarshalJSON(data, &w); err != nil {
		return err
	}
	*t = GalleryTag{Tag: w.Tag, Female: w.Female.Bool(), Male: w.Male.Bool()}
	return nil
}

// GalleryInfo is the raw server projection of a gallery, as decoded from
// `var galleryinfo = {...}`.
type GalleryInfo struct {
	ID                int            `json:"id"`
	Title             string         `json:"title"`
	JapaneseTitle     string         `json:"japanese_title,omitempty"`
	Language          string         `json:"language,omitempty"`
	LanguageLocalname string         `json:"language_localname,omitempty"`
	Type              string         `json:"type,omitempty"`
	Date              string         `json:"date,omitempty"`
	Artists           []Artist       `json:"artists,omitempty"`
	Groups            []Group        `json:"groups,omitempty"`
	Parodys           []Parody       `json:"parodys,omitempty"`
	Tags              []GalleryTag   `json:"tags,omitempty"`
	Characters        []Character    `json:"characters,omitempty"`
	Related           []int          `json:"related,omitempty"`
	Languages         []LanguageInfo `json:"languages,omitempty"`
	SceneIndexes      []int          `json:"scene_indexes,omitempty"`
	Files             []GalleryFile  `json:"files"`
}

type galleryInfoWire struct {
	ID                FlexInt        `json:"id"`
	Title             string         `json:"title"`
	JapaneseTitle     string         `json:"japanese_title"`
	Language          string         `json:"language"`
	LanguageLocalname string         `json:"language_localname"`
	Type              string         `json:"type"`
	Date              string         `json:"date"`
	Artists           []Artist       `json:"artists"`
	Groups            []Group        `json:"groups"`
	Parodys           []Parody       `json:"parodys"`
	Tags              []GalleryTag   `json:"tags"`
	Characters        []Character    `json:"characters"`
	Related           []FlexInt      `json:"related"`
	Languages         []LanguageInfo `json:"languages"`
	SceneIndexes      []FlexInt      `json:"scene_indexes"`
	Files             []GalleryFile  `json:"files"`
}

func (g *GalleryInfo) UnmarshalJSON(data []byte) error {
	var w galleryInfoWire
	if err := unmarshalJSON(data, &w); err != nil {
		return err
	}

	related := make([]int, len(w.Related))
	for i, r := range w.Related {
		related[i] = r.Int()
	}
	scenes := make([]int, len(w.SceneIndexes))
	for i, s := range w.SceneIndexes {
		scenes[i] = s.Int()
	}

	*g = GalleryInfo{
		ID:                w.ID.Int(),
		Title:             w.Title,
		JapaneseTitle:     w.JapaneseTitle,
		Language:          w.Language,
		LanguageLocalname: w.LanguageLocalname,
		Type:              w.Type,
		Date:              w.Date,
		Artists:           w.Artists,
		Groups:            w.Groups,
		Parodys:           w.Parodys,
		Tags:              w.Tags,
		Characters:        w.Characters,
		Related:           related,
		Languages:         w.Languages,
		SceneIndexes:      scenes,
		Files:             w.Files,
	}
	return nil
}

// Artist, Group, Parody and Character are a gallery's credit entries. The
// service keys each list's display name by its own entity name ("artist",
// "group", ...) rather than a shared field, so each gets its own shape.
type Artist struct {
	Artist string `json:"artist"`
	URL    string `json:"url,omitempty"`
}

type Group struct {
	Group string `json:"group"`
	URL   string `json:"url,omitempty"`
}

type Parody struct {
	Parody string `json:"parody"`
	URL    string `json:"url,omitempty"`
}

type Character struct {
	Character string `json:"character"`
	URL       string `json:"url,omitempty"`
}

// LanguageInfo is one entry of a gallery's available-language list. The
// galleryid is served as a numeric string.
type LanguageInfo struct {
	GalleryID int    `json:"galleryid,omitempty"`
	LocalName string `json:"language_localname,omitempty"`
	Name      string `json:"name,omitempty"`
	URL       string `json:"url,omitempty"`
}

type languageInfoWire struct {
	GalleryID FlexInt `json:"galleryid"`
	LocalName string  `json:"language_localname"`
	Name      string  `json:"name"`
	URL       string  `json:"url"`
}

func (l *LanguageInfo) UnmarshalJSON(data []byte) error {
	var w languageInfoWire
	if err := unmarshalJSON(data, &w); err != nil {
		return err
	}
	*l = LanguageInfo{
		GalleryID: w.GalleryID.Int(),
		LocalName: w.LocalName,
		Name:      w.Name,
		URL:       w.URL,
	}
	return nil
}
