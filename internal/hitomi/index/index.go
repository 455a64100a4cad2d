// Package index implements the remote B-tree search client: HTTP range
// reads against Hitomi's .index files, node decoding, key search, nozomi
// list fetches, and the query tokenizer/composer that drives the search
// command.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

const (
	domain            = "ltn.gold-usergeneratedcontent.net"
	tagIndexDomain    = "tagindex.hitomi.la"
	tagIndexDir       = "tagindex"
	galleriesIndexDir = "galleriesindex"
	nozomiPrefix      = "n"
	nozomiExtension   = ".nozomi"

	maxDataLength = 100_000_000
	maxGalleryIDs = 10_000_000
)

// Doer is the subset of *http.Client the index client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// VersionCache persists the two index version strings across process
// restarts. internal/indexcache provides a gorm/sqlite-backed
// implementation; it is an optional acceleration layer, not a protocol
// requirement.
type VersionCache interface {
	Get(name string) (string, bool)
	Set(name, version string)
}

// Client is the remote B-tree/nozomi index client. The zero value is not
// usable; construct with New. A Client memoizes the two index version
// strings for its lifetime.
type Client struct {
	http  Doer
	cache VersionCache

	tagIndexVersion       string
	galleriesIndexVersion string
}

// New builds a Client that issues requests through http.
func New(http Doer) *Client {
	return &Client{http: http}
}

// SetVersionCache attaches a persistent VersionCache. Existing cached
// values are consulted before the next version fetch.
func (c *Client) SetVersionCache(cache VersionCache) {
	c.cache = cache
}

func hashTerm(term string) [4]byte {
	sum := sha256.Sum256([]byte(term))
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}

func (c *Client) doGet(ctx context.Context, url string, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request for %s: %s", hitomierr.ErrNetwork, url, err)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", hitomierr.ErrNetwork, err)
	}
	return resp, nil
}

// indexVersion fetches and memoizes the version string for name
// ("tagindex" or "galleriesindex").
func (c *Client) indexVersion(ctx context.Context, name string) (string, error) {
	var cached *string
	switch name {
	case tagIndexDir:
		cached = &c.tagIndexVersion
	case galleriesIndexDir:
		cached = &c.galleriesIndexVersion
	default:
		return "", fmt.Errorf("%w: unknown index name %q", hitomierr.ErrDecode, name)
	}
	if *cached != "" {
		return *cached, nil
	}
	if c.cache != nil {
		if v, ok := c.cache.Get(name); ok {
			*cached = v
			return v, nil
		}
	}

	ts := time.Now().UnixMilli()
	url := fmt.Sprintf("https://%s/%s/version?_=%d", domain, name, ts)

	resp, err := c.doGet(ctx, url, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s version endpoint returned status %d", hitomierr.ErrUnexpectedStatus, name, resp.StatusCode)
	}

	buf := make([]byte, 0, 64)
	tmp := make([]byte, 64)
	for {
		n, rerr := resp.Body.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if rerr != nil {
			break
		}
	}

	v := strings.TrimSpace(string(buf))
	*cached = v
	if c.cache != nil {
		c.cache.Set(name, v)
	}
	return v, nil
}

// indexURL builds the .index file URL for field: galleries/languages/
// nozomiurl live under galleriesindex, every other field under tagindex.
func (c *Client) indexURL(ctx context.Context, field string) (string, error) {
	switch field {
	case "galleries", "languages", "nozomiurl":
		v, err := c.indexVersion(ctx, galleriesIndexDir)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("https://%s/%s/%s.%s.index", domain, galleriesIndexDir, field, v), nil
	default:
		v, err := c.indexVersion(ctx, tagIndexDir)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("https://%s/%s/%s.%s.index", domain, tagIndexDir, field, v), nil
	}
}

// nodeAt range-reads and decodes the 464-byte node at address for field.
func (c *Client) nodeAt(ctx context.Context, field string, address int64) (model.BTreeNode, error) {
	url, err := c.indexURL(ctx, field)
	if err != nil {
		return model.BTreeNode{}, err
	}

	rangeHeader := fmt.Sprintf("bytes=%d-%d", address, address+model.NodeWireSize-1)
	resp, err := c.doGet(ctx, url, rangeHeader)
	if err != nil {
		return model.BTreeNode{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return model.BTreeNode{}, fmt.Errorf("%w: node range read for %q returned status %d", hitomierr.ErrUnexpectedStatus, field, resp.StatusCode)
	}

	data := make([]byte, 0, model.NodeWireSize)
	tmp := make([]byte, model.NodeWireSize)
	for {
		n, rerr := resp.Body.Read(tmp)
		data = append(data, tmp[:n]...)
		if rerr != nil {
			break
		}
	}

	return decodeNode(data)
}

// decodeNode parses the big-endian node wire layout.
func decodeNode(data []byte) (model.BTreeNode, error) {
	var node model.BTreeNode
	r := &byteReader{buf: data}

	numKeys, err := r.readI32()
	if err != nil {
		return node, fmt.Errorf("%w: failed to read number_of_keys: %s", hitomierr.ErrDecode, err)
	}

	for i := int32(0); i < numKeys; i++ {
		keySize, err := r.readI32()
		if err != nil {
			return node, fmt.Errorf("%w: failed to read key_size: %s", hitomierr.ErrDecode, err)
		}
		if keySize < 1 || keySize > 32 {
			return node, fmt.Errorf("%w: key_size %d out of range 1..=32", hitomierr.ErrDecode, keySize)
		}
		key, err := r.readBytes(int(keySize))
		if err != nil {
			return node, fmt.Errorf("%w: failed to read key bytes: %s", hitomierr.ErrDecode, err)
		}
		node.Keys = append(node.Keys, key)
	}

	numDatas, err := r.readI32()
	if err != nil {
		return node, fmt.Errorf("%w: failed to read number_of_datas: %s", hitomierr.ErrDecode, err)
	}
	for i := int32(0); i < numDatas; i++ {
		offset, err := r.readI64()
		if err != nil {
			return node, fmt.Errorf("%w: failed to read data offset: %s", hitomierr.ErrDecode, err)
		}
		length, err := r.readI32()
		if err != nil {
			return node, fmt.Errorf("%w: failed to read data length: %s", hitomierr.ErrDecode, err)
		}
		node.Datas = append(node.Datas, model.DataEntry{Offset: offset, Length: length})
	}

	for i := 0; i < 17; i++ {
		addr, err := r.readI64()
		if err != nil {
			return node, fmt.Errorf("%w: failed to read sub_node_address %d: %s", hitomierr.ErrDecode, i, err)
		}
		node.SubNodeAddresses[i] = addr
	}

	return node, nil
}

// byteReader is a minimal big-endian cursor over a fixed byte slice.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) readI32() (int32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("unexpected end of node data")
	}
	v := int32(binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4]))
	r.pos += 4
	return v, nil
}

func (r *byteReader) readI64() (int64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, fmt.Errorf("unexpected end of node data")
	}
	v := int64(binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8]))
	r.pos += 8
	return v, nil
}

func (r *byteReader) readBytes(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("unexpected end of node data")
	}
	v := make([]byte, n)
	copy(v, r.buf[r.pos:r.pos+n])
	r.pos += n
	return v, nil
}

// compareArrays is a lexicographic comparison over the shared prefix
// length.
func compareArrays(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// locateKey linearly scans keys: the first index where
// cmp(key, keys[i]) <= 0 is where; there reports whether that comparison
// was exactly zero.
func locateKey(key []byte, keys [][]byte) (there bool, where int) {
	for i, k := range keys {
		cmp := compareArrays(key, k)
		if cmp <= 0 {
			return cmp == 0, i
		}
	}
	return false, len(keys)
}

// bSearch walks the remote B-tree for field starting at the root (address
// 0), looking for key. Returns (entry, true) on a hit.
func (c *Client) bSearch(ctx context.Context, field string, key []byte) (model.DataEntry, bool, error) {
	address := int64(0)

	for {
		node, err := c.nodeAt(ctx, field, address)
		if err != nil {
			return model.DataEntry{}, false, err
		}
		if len(node.Keys) == 0 {
			return model.DataEntry{}, false, nil
		}

		there, where := locateKey(key, node.Keys)
		if there {
			return node.Datas[where], true, nil
		}
		if node.IsLeaf() {
			return model.DataEntry{}, false, nil
		}
		address = node.SubNodeAddresses[where]
	}
}

// galleryIDsFromData range-reads the galleries.{v}.data file at entry and
// decodes the gallery-id vector it holds.
func (c *Client) galleryIDsFromData(ctx context.Context, entry model.DataEntry) (*IDSet, error) {
	if entry.Length <= 0 || entry.Length > maxDataLength {
		return nil, fmt.Errorf("%w: data length %d out of range (0, %d]", hitomierr.ErrDecode, entry.Length, maxDataLength)
	}

	v, err := c.indexVersion(ctx, galleriesIndexDir)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("https://%s/%s/galleries.%s.data", domain, galleriesIndexDir, v)

	rangeHeader := fmt.Sprintf("bytes=%d-%d", entry.Offset, entry.Offset+int64(entry.Length)-1)
	resp, err := c.doGet(ctx, url, rangeHeader)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("%w: galleries data range read returned status %d", hitomierr.ErrUnexpectedStatus, resp.StatusCode)
	}

	data := make([]byte, 0, entry.Length)
	tmp := make([]byte, 8192)
	for {
		n, rerr := resp.Body.Read(tmp)
		data = append(data, tmp[:n]...)
		if rerr != nil {
			break
		}
	}

	r := &byteReader{buf: data}
	numIDs, err := r.readI32()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read number_of_gallery_ids: %s", hitomierr.ErrDecode, err)
	}
	if numIDs <= 0 || numIDs > maxGalleryIDs {
		return nil, fmt.Errorf("%w: number_of_gallery_ids %d out of range (0, %d]", hitomierr.ErrDecode, numIDs, maxGalleryIDs)
	}

	set := NewIDSet()
	for i := int32(0); i < numIDs; i++ {
		v4, err := r.readI32()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read gallery id %d: %s", hitomierr.ErrDecode, i, err)
		}
		set.Add(v4)
	}

	return set, nil
}

// SearchField resolves a bare (no-colon) positive/negative term against the
// "galleries" field of the galleries index: hash the term, b-search, and on a hit fetch
// the id vector. A miss returns an empty set, not an error.
func (c *Client) SearchField(ctx context.Context, term string) (*IDSet, error) {
	hash := hashTerm(term)
	entry, found, err := c.bSearch(ctx, "galleries", hash[:])
	if err != nil {
		return nil, err
	}
	if !found {
		return NewIDSet(), nil
	}
	return c.galleryIDsFromData(ctx, entry)
}

// Nozomi fetches the pre-materialized id list for (area, tag, language).
// A non-200 response yields an empty set, not an error.
func (c *Client) Nozomi(ctx context.Context, area, tag, language string) (*IDSet, error) {
	var url string
	if area == "" {
		url = fmt.Sprintf("https://%s/%s/%s-%s%s", domain, nozomiPrefix, tag, language, nozomiExtension)
	} else {
		url = fmt.Sprintf("https://%s/%s/%s/%s-%s%s", domain, nozomiPrefix, area, tag, language, nozomiExtension)
	}

	resp, err := c.doGet(ctx, url, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	set := NewIDSet()
	if resp.StatusCode != http.StatusOK {
		return set, nil
	}

	data := make([]byte, 0, 4096)
	tmp := make([]byte, 8192)
	for {
		n, rerr := resp.Body.Read(tmp)
		data = append(data, tmp[:n]...)
		if rerr != nil {
			break
		}
	}

	r := &byteReader{buf: data}
	for {
		id, err := r.readI32()
		if err != nil {
			break
		}
		set.Add(id)
	}

	return set, nil
}

// Suggestions queries the tag-index suggestion endpoint for query.
func (c *Client) Suggestions(ctx context.Context, query string) ([]model.Suggestion, error) {
	query = strings.ReplaceAll(query, "_", " ")

	field := "global"
	term := query
	if idx := strings.Index(query, ":"); idx >= 0 {
		field = query[:idx]
		term = query[idx+1:]
	}

	var segs []string
	for _, r := range term {
		segs = append(segs, encodeSuggestionChar(r))
	}
	path := strings.Join(segs, "/")

	url := fmt.Sprintf("https://%s/%s.json", tagIndexDomain, field)
	if path != "" {
		url = fmt.Sprintf("https://%s/%s/%s.json", tagIndexDomain, field, path)
	}

	resp, err := c.doGet(ctx, url, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: suggestions endpoint returned status %d", hitomierr.ErrUnexpectedStatus, resp.StatusCode)
	}

	var raw []json.RawMessage
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode suggestions response: %s", hitomierr.ErrDecode, err)
	}

	var out []model.Suggestion
	for _, r := range raw {
		var entry []json.RawMessage
		if err := json.Unmarshal(r, &entry); err != nil || len(entry) < 3 {
			continue
		}

		var name string
		var count int
		var ns string
		_ = json.Unmarshal(entry[0], &name)
		_ = json.Unmarshal(entry[1], &count)
		_ = json.Unmarshal(entry[2], &ns)

		sanitized := strings.NewReplacer("/", "", "#", "").Replace(name)

		var link string
		switch ns {
		case "female", "male":
			link = fmt.Sprintf("/tag/%s:%s-1.html", ns, sanitized)
		case "language":
			link = fmt.Sprintf("/index-%s-1.html", sanitized)
		default:
			link = fmt.Sprintf("/%s/%s-all-1.html", ns, sanitized)
		}

		out = append(out, model.Suggestion{S: name, T: count, U: link, N: ns})
	}

	return out, nil
}

func encodeSuggestionChar(r rune) string {
	switch r {
	case ' ':
		return "_"
	case '/':
		return "slash"
	case '.':
		return "dot"
	default:
		return string(r)
	}
}
