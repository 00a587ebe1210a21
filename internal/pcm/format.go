// Package pcm describes the raw PCM format shared by the encoder's
// sample-count computation and the runtime decoder's deinterleaving of
// ffmpeg's raw output.
package pcm

// BitDepth is a PCM sample width in bits.
type BitDepth uint

const (
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// Format describes a raw interleaved PCM stream: the sample rate required by
// the encoder invariant (48 kHz), the sample width, and the channel count
// after any downmix has been applied.
type Format struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}

// BytesPerSample returns the byte width of one sample at this bit depth.
func (f Format) BytesPerSample() int {
	return int(f.BitDepth / 8)
}

// FrameSize returns the byte width of one interleaved frame (all channels).
func (f Format) FrameSize() int {
	return f.BytesPerSample() * int(f.Channels)
}
