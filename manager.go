package scode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/jadujoel/scode/internal/address"
	"github.com/jadujoel/scode/internal/cache"
	"github.com/jadujoel/scode/internal/events"
)

// LoadPathFetcher fetches encoded files from a base load path over HTTP(S)
// or the filesystem, implementing cache.Fetcher.
type LoadPathFetcher struct {
	LoadPath  string
	Extension string
	Client    *http.Client
}

func (f LoadPathFetcher) url(fileName string) string {
	return f.LoadPath + fileName + f.Extension
}

func (f LoadPathFetcher) Fetch(ctx context.Context, fileName string) ([]byte, error) {
	url := f.url(fileName)

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		client := f.Client
		if client == nil {
			client = http.DefaultClient
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrDecodeFailure, resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
		}

		return data, nil
	}

	data, err := os.ReadFile(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}

	return data, nil
}

// SoundManager is the runtime facade: it owns the Atlas, the Buffer Cache,
// and the lifecycle state, and wires Resolver-driven lookups through to
// decoded playback buffers.
type SoundManager struct {
	lifecycle lifecycle
	events    events.Table
	cache     *cache.Cache

	atlas          *Atlas
	currentPackage string
	currentLang    string
	loadPath       string
	sampleRate     int
}

// NewSoundManager constructs a SoundManager in the Running state with an
// empty atlas. loadPath is stored on the manager but not read by it: per-file
// fetch URLs are built by fetcher (LoadPathFetcher uses its own LoadPath);
// sampleRate is the audio context's sample rate used for placeholder shape.
func NewSoundManager(fetcher cache.Fetcher, decoder cache.Decoder, sampleRate int, loadPath string) *SoundManager {
	m := &SoundManager{
		atlas:      NewAtlas(),
		loadPath:   loadPath,
		sampleRate: sampleRate,
	}
	m.cache = cache.New(fetcher, decoder, &m.events)

	return m
}

// AddListener registers fn for events of kind.
func (m *SoundManager) AddListener(kind events.Kind, fn func(events.Event)) events.Subscription {
	return m.events.AddListener(kind, fn)
}

// State returns the manager's current lifecycle state.
func (m *SoundManager) State() State {
	return m.lifecycle.current()
}

// LoadAtlas fetches and installs a new atlas, emitting atlas-loaded.
func (m *SoundManager) LoadAtlas(ctx context.Context, fetcher Fetcher, url string) error {
	if m.lifecycle.current() != Running {
		return ErrDisposed
	}

	atlas, err := Load(ctx, fetcher, url, &m.events)
	if err != nil {
		return err
	}

	m.atlas = atlas

	return nil
}

// SetPackage selects the current package. Returns false if unchanged or
// unknown in the atlas.
func (m *SoundManager) SetPackage(name string) bool {
	if m.lifecycle.current() != Running {
		return false
	}

	if name == m.currentPackage || !m.atlas.has(name) {
		return false
	}

	m.currentPackage = name
	m.events.Emit(events.Event{Kind: events.PackageChanged})

	return true
}

// SetLanguage selects the current language. Returns false if unchanged or
// not among the current package's languages.
func (m *SoundManager) SetLanguage(tag string) bool {
	if m.lifecycle.current() != Running {
		return false
	}

	if tag == m.currentLang {
		return false
	}

	found := false

	for _, l := range m.Languages(m.currentPackage) {
		if l == tag {
			found = true

			break
		}
	}

	if !found {
		return false
	}

	m.currentLang = tag
	m.events.Emit(events.Event{Kind: events.LanguageChanged})

	return true
}

// PackageNames returns every package name known to the atlas.
func (m *SoundManager) PackageNames() []string {
	return m.atlas.Packages()
}

// SourceNames returns the source names of items in pkg whose language tag is
// in languages. The "_" sentinel is not added automatically.
func (m *SoundManager) SourceNames(pkg string, languages []string) []string {
	want := make(map[string]bool, len(languages))
	for _, l := range languages {
		want[l] = true
	}

	var out []string

	seen := make(map[string]bool)

	for _, it := range m.atlas.Items(pkg) {
		if !want[it.LanguageTag] {
			continue
		}

		if seen[it.SourceName] {
			continue
		}

		seen[it.SourceName] = true

		out = append(out, it.SourceName)
	}

	return out
}

// Languages returns the unique language tags appearing in pkg.
func (m *SoundManager) Languages(pkg string) []string {
	seen := make(map[string]bool)

	var out []string

	for _, it := range m.atlas.Items(pkg) {
		if !seen[it.LanguageTag] {
			seen[it.LanguageTag] = true

			out = append(out, it.LanguageTag)
		}
	}

	return out
}

// RequestAsync resolves sourceName and returns a channel that receives the
// decoded buffer exactly once: nil on ResolveMiss, and on a failed load the
// existing placeholder, or nil if there is none.
func (m *SoundManager) RequestAsync(ctx context.Context, sourceName string) <-chan *cache.Buffer {
	out := make(chan *cache.Buffer, 1)

	if m.lifecycle.current() != Running {
		out <- nil

		return out
	}

	fileName, ok := Resolve(m.atlas, sourceName, m.currentPackage, m.currentLang)
	if !ok {
		slog.Debug("scode: resolve miss", "error", ErrResolveMiss, "source_name", sourceName, "package", m.currentPackage)
		out <- nil

		return out
	}

	return m.cache.RequestAsync(ctx, fileName)
}

// RequestSync resolves sourceName and returns a buffer synchronously:
// the decoded buffer if already present, otherwise a placeholder with the
// background load kicked off. Returns nil only if resolution itself fails.
func (m *SoundManager) RequestSync(ctx context.Context, sourceName string) *cache.Buffer {
	if m.lifecycle.current() != Running {
		return nil
	}

	fileName, ok := Resolve(m.atlas, sourceName, m.currentPackage, m.currentLang)
	if !ok {
		slog.Debug("scode: resolve miss", "error", ErrResolveMiss, "source_name", sourceName, "package", m.currentPackage)

		return nil
	}

	item, ok := findItem(m.atlas, fileName)
	if !ok {
		return nil
	}

	shape := cache.Shape{Channels: uint(channelsForItem(fileName)), SampleCount: item.SampleCount}

	return m.cache.RequestSync(ctx, fileName, shape, m.sampleRate)
}

// channelsForItem recovers the channel count from a content-addressed file
// name's ".{ch}ch." field. A future file-name format that drops this field
// would need AtlasItem to carry an explicit channel count instead (see
// DESIGN.md open questions).
func channelsForItem(fileName string) int {
	if n, ok := address.ParseChannels(fileName); ok {
		return n
	}

	return 1
}

func findItem(atlas *Atlas, fileName string) (AtlasItem, bool) {
	for _, pkg := range atlas.Packages() {
		for _, it := range atlas.Items(pkg) {
			if it.FileName == fileName {
				return it, true
			}
		}
	}

	return AtlasItem{}, false
}

// Dispose transitions Running -> Closing -> Disposed, awaiting all in-flight
// tickets before clearing the cache.
func (m *SoundManager) Dispose() {
	if !m.lifecycle.beginClose() {
		return
	}

	m.cache.DisposeAll()
	m.lifecycle.finishClose()
}

// Reload disposes the current state, installs newAtlas, and returns to
// Running, emitting reloaded exactly once.
func (m *SoundManager) Reload(newAtlas *Atlas) {
	if !m.lifecycle.beginClose() {
		return
	}

	m.cache.DisposeAll()
	m.atlas = newAtlas
	m.lifecycle.finishReload()
	m.events.Emit(events.Event{Kind: events.Reloaded})
}
