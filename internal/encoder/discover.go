package encoder

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SourceFile is one discovered candidate waveform, grouped by package and
// language before any validation or parameter selection runs.
type SourceFile struct {
	Package    string
	Language   string // subdirectory name under sounds/, "_" if unlocalized
	Path       string
	SourceName string // file base name without extension
}

// Discover walks indir/packages/<pkg>/sounds/... for every package named in
// packages (or every package present, if packages is empty) and enumerates
// candidate .wav files. Files directly under sounds/ are unlocalized ("_");
// files under sounds/<language>/ are tagged with that subdirectory name.
func Discover(indir string, packages []string) ([]SourceFile, error) {
	var want map[string]bool

	if len(packages) > 0 {
		want = make(map[string]bool, len(packages))
		for _, p := range packages {
			want[p] = true
		}
	}

	root := filepath.Join(indir, "packages")

	entries, err := filepath.Glob(filepath.Join(root, "*"))
	if err != nil {
		return nil, err
	}

	var out []SourceFile

	for _, pkgDir := range entries {
		pkg := filepath.Base(pkgDir)
		if want != nil && !want[pkg] {
			continue
		}

		soundsDir := filepath.Join(pkgDir, "sounds")

		files, err := discoverPackage(soundsDir, pkg)
		if err != nil {
			return nil, err
		}

		out = append(out, files...)
	}

	return out, nil
}

func discoverPackage(soundsDir, pkg string) ([]SourceFile, error) {
	var out []SourceFile

	err := filepath.WalkDir(soundsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if strings.ToLower(filepath.Ext(path)) != ".wav" {
			return nil
		}

		rel, err := filepath.Rel(soundsDir, path)
		if err != nil {
			return err
		}

		language := "_"

		if dir := filepath.Dir(rel); dir != "." {
			if idx := strings.IndexRune(dir, filepath.Separator); idx >= 0 {
				language = dir[:idx]
			} else {
				language = dir
			}
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		out = append(out, SourceFile{Package: pkg, Language: language, Path: path, SourceName: name})

		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	return out, nil
}
