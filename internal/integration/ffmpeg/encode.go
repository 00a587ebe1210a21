package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/farcloser/primordium/fault"
)

// EncodeParams selects the output container/codec parameters for one
// source's encode.
type EncodeParams struct {
	BitrateKbps int
	Channels    int
}

// EncodeWebM invokes ffmpeg to produce an Opus-in-WebM file from 48 kHz PCM
// source bytes read from input. The output bitrate is per-channel, matching
// the configuration's semantics.
func EncodeWebM(ctx context.Context, input []byte, params EncodeParams, outPath string) error {
	return run(ctx, input, outPath,
		"-f", "s32le", "-ar", "48000", "-ac", strconv.Itoa(params.Channels),
		"-i", "-",
		"-ac", strconv.Itoa(params.Channels),
		"-c:a", "libopus",
		"-b:a", strconv.Itoa(params.BitrateKbps*params.Channels)+"k",
		"-v", "quiet",
		"-y",
		outPath,
	)
}

// EncodeMP4 invokes ffmpeg to produce an AAC-in-MP4 file, the optional
// secondary container for platforms without Opus support.
func EncodeMP4(ctx context.Context, input []byte, params EncodeParams, outPath string) error {
	return run(ctx, input, outPath,
		"-f", "s32le", "-ar", "48000", "-ac", strconv.Itoa(params.Channels),
		"-i", "-",
		"-ac", strconv.Itoa(params.Channels),
		"-c:a", "aac",
		"-b:a", strconv.Itoa(params.BitrateKbps*params.Channels)+"k",
		"-v", "quiet",
		"-y",
		outPath,
	)
}

func run(ctx context.Context, input []byte, outPath string, args ...string) error {
	slog.Debug("ffmpeg.run", "out", outPath, "stage", "start")

	ffmpegPath, found := resolve()
	if !found {
		return fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // args are built from validated internal parameters, not arbitrary user input
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(input)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return nil
}
