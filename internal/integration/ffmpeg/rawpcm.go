package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/farcloser/primordium/fault"
)

// RawPCM decodes the file at path to raw interleaved little-endian 32-bit
// signed PCM at 48 kHz and the given channel count, downmixing if needed.
// The encoder uses this both to compute the content-address hash and as the
// normalized payload handed to Encode*.
func RawPCM(ctx context.Context, path string, channels int) ([]byte, error) {
	ffmpegPath, found := resolve()
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // path is an internally discovered source path
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-i", path,
		"-ac", strconv.Itoa(channels),
		"-ar", "48000",
		"-f", "s32le",
		"-v", "quiet",
		"-",
	)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return stdout.Bytes(), nil
}
