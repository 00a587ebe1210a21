package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"

	"github.com/farcloser/primordium/fault"

	"github.com/jadujoel/scode/internal/cache"
	"github.com/jadujoel/scode/internal/pcm"
)

// runtimeSampleRate is the playback sample rate the runtime decodes to;
// the encoder guarantees 48 kHz sources, so no resample step is needed.
const runtimeSampleRate = 48000

// Decode decodes compressed container bytes (webm/mp4) into a cache.Buffer
// of 32-bit float interleaved-then-deinterleaved PCM, by piping the bytes
// through ffmpeg configured to emit raw signed 32-bit little-endian PCM.
// It implements cache.Decoder.
type Decode struct {
	Channels int
}

func (d Decode) Decode(ctx context.Context, data []byte) (*cache.Buffer, error) {
	slog.Debug("ffmpeg.Decode", "stage", "start", "bytes", len(data))

	ffmpegPath, found := resolve()
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // fixed argument list, no user-controlled flags
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-i", "-",
		"-f", "s32le",
		"-ar", "48000",
		"-ac", fmt.Sprint(d.Channels),
		"-v", "quiet",
		"-",
	)

	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return deinterleaveS32(stdout.Bytes(), d.Channels), nil
}

func deinterleaveS32(raw []byte, channels int) *cache.Buffer {
	format := pcm.Format{SampleRate: runtimeSampleRate, BitDepth: pcm.Depth32, Channels: uint(channels)}

	bytesPerSample := format.BytesPerSample()
	frameSize := format.FrameSize()
	frames := len(raw) / frameSize

	out := &cache.Buffer{
		Channels:   uint(channels),
		SampleRate: runtimeSampleRate,
		Data:       make([][]float32, channels),
	}

	for ch := range out.Data {
		out.Data[ch] = make([]float32, frames)
	}

	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			offset := f*frameSize + ch*bytesPerSample
			bits := binary.LittleEndian.Uint32(raw[offset : offset+bytesPerSample])
			out.Data[ch][f] = float32(int32(bits)) / math.MaxInt32
		}
	}

	return out
}
