package ffmpeg

import binwrap "github.com/jadujoel/scode/internal/integration/binary"

var overridePath string

// SetPath overrides the binary lookup, honoring the --ffmpeg CLI flag.
func SetPath(path string) {
	overridePath = path
}

func resolve() (string, bool) {
	if overridePath != "" {
		return overridePath, true
	}

	return binwrap.Available(name)
}
