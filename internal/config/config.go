// Package config parses the encoder's scodefig.jsonc document: JSON with
// "//" and "/* */" comments stripped. No JSONC library appears anywhere in
// this module's dependency corpus, so this package stays on encoding/json
// plus a small hand-rolled comment stripper rather than reaching for an
// unvetted third-party one; see DESIGN.md.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/farcloser/primordium/fault"
)

// SourceOverride overrides bitrate/channels for a single named source.
type SourceOverride struct {
	Bitrate  int `json:"bitrate,omitempty"`
	Channels int `json:"channels,omitempty"`
}

// PackageConfig overrides defaults for a single package.
type PackageConfig struct {
	SourceDir string                    `json:"sourcedir,omitempty"`
	Bitrate   int                       `json:"bitrate,omitempty"`
	Languages map[string]string         `json:"languages,omitempty"`
	Sources   map[string]SourceOverride `json:"sources,omitempty"`
}

// Config is the parsed form of scodefig.jsonc, merged with CLI flag
// overrides by the caller (CLI flags win).
type Config struct {
	InDir    string                   `json:"indir,omitempty"`
	OutDir   string                   `json:"outdir,omitempty"`
	Bitrate  int                      `json:"bitrate,omitempty"`
	Yes      bool                     `json:"yes,omitempty"`
	LogLevel string                   `json:"loglevel,omitempty"`
	Packages map[string]PackageConfig `json:"packages,omitempty"`
}

// Default returns a Config with the module's documented defaults.
func Default() Config {
	return Config{
		InDir:    ".",
		OutDir:   "./encoded",
		Bitrate:  64,
		LogLevel: "info",
		Packages: map[string]PackageConfig{},
	}
}

// Load reads and parses a scodefig.jsonc file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	cfg := Default()
	if err := json.Unmarshal(stripComments(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return cfg, nil
}

// stripComments removes "//" line comments and "/* */" block comments from
// JSONC source, leaving string literals untouched so a "//" or "/*" inside a
// quoted string is not mistaken for a comment.
func stripComments(src []byte) []byte {
	out := make([]byte, 0, len(src))

	inString := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		if inString {
			out = append(out, c)

			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch {
		case c == '"':
			inString = true

			out = append(out, c)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}

			out = append(out, '\n')
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}

			i++
		default:
			out = append(out, c)
		}
	}

	return out
}

// ResolveBitrate selects the effective bitrate for a source, honoring the
// per-source > per-package > global precedence.
func (c Config) ResolveBitrate(pkg, source string) int {
	if p, ok := c.Packages[pkg]; ok {
		if s, ok := p.Sources[source]; ok && s.Bitrate > 0 {
			return s.Bitrate
		}

		if p.Bitrate > 0 {
			return p.Bitrate
		}
	}

	return c.Bitrate
}

// ResolveChannels selects the effective channel override for a source, or
// returns ok=false when none is configured (caller falls back to the
// source's own channel count).
func (c Config) ResolveChannels(pkg, source string) (channels int, ok bool) {
	p, ok := c.Packages[pkg]
	if !ok {
		return 0, false
	}

	s, ok := p.Sources[source]
	if !ok || s.Channels == 0 {
		return 0, false
	}

	return s.Channels, true
}

// LanguageTag maps a source subdirectory name to its language tag for a
// package. It returns the sentinel "_" (no language) when dir is empty or is
// the sentinel subdirectory itself; a subdirectory with no configured mapping
// is used as its own tag.
func (c Config) LanguageTag(pkg, dir string) string {
	if dir == "_" || dir == "" {
		return "_"
	}

	if p, ok := c.Packages[pkg]; ok {
		if tag, ok := p.Languages[dir]; ok {
			return tag
		}
	}

	return dir
}
