package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/farcloser/primordium/fault"
)

// Remux re-materializes the file at path in place as 48 kHz PCM. Callers
// are responsible for obtaining consent before mutating the source, per the
// source-validation phase's prompt requirement.
func Remux(ctx context.Context, path string) error {
	slog.Info("ffmpeg.Remux", "path", path, "stage", "start")

	ffmpegPath, found := resolve()
	if !found {
		return fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	tmp := path + ".scode-remux.wav"

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // path is an internally discovered source path, not arbitrary input
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-i", path,
		"-ar", "48000",
		"-acodec", "pcm_s24le",
		"-v", "quiet",
		"-y",
		tmp,
	)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(tmp)

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %w", fault.ErrCommandFailure, err)
	}

	slog.Info("ffmpeg.Remux", "path", path, "stage", "done")

	return nil
}
