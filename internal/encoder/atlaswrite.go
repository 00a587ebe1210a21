package encoder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jadujoel/scode"
)

// writeAtlas serializes atlas and writes it to outdir/.atlas.json atomically
// (write to a temp file in the same directory, then rename).
func writeAtlas(outdir string, atlas *scode.Atlas) error {
	data, err := json.Marshal(atlas)
	if err != nil {
		return fmt.Errorf("%w: %w", scode.ErrAtlasMalformed, err)
	}

	dst := filepath.Join(outdir, ".atlas.json")

	tmp, err := os.CreateTemp(outdir, ".atlas.json.tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", scode.ErrEncodeFailure, err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("%w: %w", scode.ErrEncodeFailure, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("%w: %w", scode.ErrEncodeFailure, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("%w: %w", scode.ErrEncodeFailure, err)
	}

	return nil
}
