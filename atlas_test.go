package scode_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jadujoel/scode"
	"github.com/jadujoel/scode/internal/events"
)

func writeAtlasFixture(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, ".atlas.json")

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	return path
}

func TestLoadParsesFourElementTuples(t *testing.T) {
	path := writeAtlasFixture(t, `{
  "a": [["hi", "24k.1ch.7", 48000, "_"]]
}`)

	atlas, err := scode.Load(context.Background(), scode.FileFetcher{}, path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	items := atlas.Items("a")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	want := scode.AtlasItem{SourceName: "hi", FileName: "24k.1ch.7", SampleCount: 48000, LanguageTag: "_"}
	if items[0] != want {
		t.Fatalf("item = %+v, want %+v", items[0], want)
	}
}

func TestLoadMalformedTupleFails(t *testing.T) {
	path := writeAtlasFixture(t, `{"a": [["hi", "f", "not-a-number", "_"]]}`)

	_, err := scode.Load(context.Background(), scode.FileFetcher{}, path, nil)
	if !errors.Is(err, scode.ErrAtlasMalformed) {
		t.Fatalf("error = %v, want ErrAtlasMalformed", err)
	}
}

func TestLoadMalformedJSONFails(t *testing.T) {
	path := writeAtlasFixture(t, `not json at all`)

	_, err := scode.Load(context.Background(), scode.FileFetcher{}, path, nil)
	if !errors.Is(err, scode.ErrAtlasMalformed) {
		t.Fatalf("error = %v, want ErrAtlasMalformed", err)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := scode.Load(context.Background(), scode.FileFetcher{}, filepath.Join(t.TempDir(), "nope.json"), nil)
	if !errors.Is(err, scode.ErrAtlasFetch) {
		t.Fatalf("error = %v, want ErrAtlasFetch", err)
	}
}

func TestLoadEmitsAtlasLoaded(t *testing.T) {
	path := writeAtlasFixture(t, `{"a": []}`)

	var tbl events.Table

	fired := false

	tbl.AddListener(events.AtlasLoaded, func(events.Event) { fired = true })

	if _, err := scode.Load(context.Background(), scode.FileFetcher{}, path, &tbl); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !fired {
		t.Fatal("Load() must emit atlas-loaded on success")
	}
}

func TestLoadOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"common": [["bell", "32k.1ch.9", 1000, "_"]]}`))
	}))
	defer srv.Close()

	atlas, err := scode.Load(context.Background(), scode.HTTPFetcher{}, srv.URL, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	items := atlas.Items("common")
	if len(items) != 1 || items[0].SourceName != "bell" {
		t.Fatalf("items = %+v, want one bell item", items)
	}
}

func TestLoadOverHTTPNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := scode.Load(context.Background(), scode.HTTPFetcher{}, srv.URL, nil)
	if !errors.Is(err, scode.ErrAtlasFetch) {
		t.Fatalf("error = %v, want ErrAtlasFetch", err)
	}
}

// TestMarshalRoundTrip exercises P2: loading, serializing, and reloading an
// atlas yields an atlas with identical (package, source_name, file_name,
// sample_count, language_tag) sets.
func TestMarshalRoundTrip(t *testing.T) {
	atlas := scode.NewAtlas()
	atlas.ReplaceItems("music", []scode.AtlasItem{
		{SourceName: "theme", FileName: "64k.2ch.1", SampleCount: 480000, LanguageTag: "_"},
	})
	atlas.ReplaceItems("voice", []scode.AtlasItem{
		{SourceName: "hello", FileName: "32k.1ch.2", SampleCount: 24000, LanguageTag: "en"},
		{SourceName: "hello", FileName: "32k.1ch.3", SampleCount: 24000, LanguageTag: "es"},
	})

	data, err := atlas.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	var reloaded scode.Atlas
	if err := reloaded.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}

	for _, pkg := range []string{"music", "voice"} {
		original := atlas.Items(pkg)
		got := reloaded.Items(pkg)

		if len(original) != len(got) {
			t.Fatalf("package %q: got %d items, want %d", pkg, len(got), len(original))
		}

		originalSet := make(map[scode.AtlasItem]bool, len(original))
		for _, it := range original {
			originalSet[it] = true
		}

		for _, it := range got {
			if !originalSet[it] {
				t.Errorf("package %q: round-tripped item %+v not in original set", pkg, it)
			}
		}
	}
}

func TestReplaceEmitsAtlasLoadedAndSwapsContents(t *testing.T) {
	dst := scode.NewAtlas()
	dst.ReplaceItems("old", []scode.AtlasItem{{SourceName: "x", FileName: "f", SampleCount: 1, LanguageTag: "_"}})

	value := scode.NewAtlas()
	value.ReplaceItems("new", []scode.AtlasItem{{SourceName: "y", FileName: "g", SampleCount: 2, LanguageTag: "_"}})

	var tbl events.Table

	fired := false

	tbl.AddListener(events.AtlasLoaded, func(events.Event) { fired = true })

	scode.Replace(dst, value, &tbl)

	if !fired {
		t.Fatal("Replace() must emit atlas-loaded")
	}

	if len(dst.Items("old")) != 0 {
		t.Fatal("Replace() must fully swap the atlas contents")
	}

	if len(dst.Items("new")) != 1 {
		t.Fatal("Replace() must install the replacement atlas's contents")
	}
}

func TestPackagesPreservesInsertionOrder(t *testing.T) {
	atlas := scode.NewAtlas()
	atlas.ReplaceItems("c", nil)
	atlas.ReplaceItems("a", nil)
	atlas.ReplaceItems("b", nil)

	got := atlas.Packages()
	want := []string{"c", "a", "b"}

	if len(got) != len(want) {
		t.Fatalf("Packages() = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Packages() = %v, want %v", got, want)
		}
	}
}
