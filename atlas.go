package scode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jadujoel/scode/internal/events"
)

// NoLanguage is the sentinel language tag meaning "applies to all languages".
const NoLanguage = "_"

// AtlasItem is one (source_name, file_name, sample_count, language_tag)
// tuple produced by the encoder.
type AtlasItem struct {
	SourceName  string
	FileName    string
	SampleCount uint64
	LanguageTag string
}

// Atlas maps a package name to its ordered list of items. Insertion order is
// preserved on load but is only significant for cross-package fallback
// (resolver iterates packages in map-independent, recorded insertion order).
type Atlas struct {
	packages []string
	items    map[string][]AtlasItem
}

// NewAtlas returns an empty atlas, ready for Replace or Load.
func NewAtlas() *Atlas {
	return &Atlas{items: make(map[string][]AtlasItem)}
}

// Packages returns package names in atlas insertion order.
func (a *Atlas) Packages() []string {
	out := make([]string, len(a.packages))
	copy(out, a.packages)

	return out
}

// Items returns the item list for a package, or nil if unknown.
func (a *Atlas) Items(pkg string) []AtlasItem {
	return a.items[pkg]
}

func (a *Atlas) has(pkg string) bool {
	_, ok := a.items[pkg]

	return ok
}

// ReplaceItems sets the item list for pkg, appending pkg to the insertion
// order if it is not already present. Used by the encoder to accumulate
// results in a single pass after all of its workers have finished.
func (a *Atlas) ReplaceItems(pkg string, items []AtlasItem) {
	a.set(pkg, items)
}

func (a *Atlas) set(pkg string, items []AtlasItem) {
	if !a.has(pkg) {
		a.packages = append(a.packages, pkg)
	}

	a.items[pkg] = items
}

// rawTuple is the 4-element JSON array encoding of one AtlasItem.
type rawTuple [4]json.RawMessage

// Fetcher retrieves raw atlas bytes from a URL or path. http- and
// file-backed implementations are provided so Load serves both browser-style
// fetch and local file loads through the same algorithm.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPFetcher fetches atlas documents over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAtlasFetch, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAtlasFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()

		return nil, fmt.Errorf("%w: status %d", ErrAtlasFetch, resp.StatusCode)
	}

	return resp.Body, nil
}

// FileFetcher fetches atlas documents from the local filesystem.
type FileFetcher struct{}

func (FileFetcher) Fetch(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAtlasFetch, err)
	}

	return f, nil
}

// Load fetches and parses an atlas document and returns it. On success it
// emits atlas-loaded through emit, unless emit is nil.
func Load(ctx context.Context, fetcher Fetcher, url string, emit *events.Table) (*Atlas, error) {
	rc, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAtlasFetch, err)
	}

	atlas, err := parseAtlas(data)
	if err != nil {
		return nil, err
	}

	if emit != nil {
		emit.Emit(events.Event{Kind: events.AtlasLoaded})
	}

	return atlas, nil
}

func parseAtlas(data []byte) (*Atlas, error) {
	// Decode token by token so packages keep their document order.
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrAtlasMalformed)
	}

	atlas := NewAtlas()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAtlasMalformed, err)
		}

		pkg, _ := tok.(string)

		var tuples []rawTuple
		if err := dec.Decode(&tuples); err != nil {
			return nil, fmt.Errorf("%w: package %q: %w", ErrAtlasMalformed, pkg, err)
		}

		items := make([]AtlasItem, 0, len(tuples))

		for _, t := range tuples {
			item, err := decodeTuple(t)
			if err != nil {
				return nil, fmt.Errorf("%w: package %q: %w", ErrAtlasMalformed, pkg, err)
			}

			items = append(items, item)
		}

		atlas.set(pkg, items)
	}

	return atlas, nil
}

func decodeTuple(t rawTuple) (AtlasItem, error) {
	var item AtlasItem

	if err := json.Unmarshal(t[0], &item.SourceName); err != nil {
		return item, err
	}

	if err := json.Unmarshal(t[1], &item.FileName); err != nil {
		return item, err
	}

	if err := json.Unmarshal(t[2], &item.SampleCount); err != nil {
		return item, err
	}

	item.LanguageTag = NoLanguage
	if len(t[3]) > 0 {
		if err := json.Unmarshal(t[3], &item.LanguageTag); err != nil {
			return item, err
		}
	}

	return item, nil
}

// MarshalJSON implements the 4-element tuple array encoding.
func (a *Atlas) MarshalJSON() ([]byte, error) {
	out := make(map[string][][4]any, len(a.items))

	for pkg, items := range a.items {
		tuples := make([][4]any, 0, len(items))
		for _, it := range items {
			tuples = append(tuples, [4]any{it.SourceName, it.FileName, it.SampleCount, it.LanguageTag})
		}

		out[pkg] = tuples
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements the 4-element tuple array decoding, used wherever
// an Atlas is decoded through encoding/json.
func (a *Atlas) UnmarshalJSON(data []byte) error {
	parsed, err := parseAtlas(data)
	if err != nil {
		return err
	}

	a.packages = parsed.packages
	a.items = parsed.items

	return nil
}

// Replace swaps the receiver's contents for value's and emits atlas-loaded.
// It does NOT invalidate any buffer cache; callers that need reload
// semantics should go through the Sound Manager's Reload instead.
func Replace(dst *Atlas, value *Atlas, emit *events.Table) {
	dst.packages = value.packages
	dst.items = value.items

	if emit != nil {
		emit.Emit(events.Event{Kind: events.AtlasLoaded})
	}
}
