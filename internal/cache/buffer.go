// Package cache implements the runtime buffer cache: single-flight decode,
// placeholder allocation, and in-place completion. It knows nothing about
// the Atlas or Resolver; callers translate an AtlasItem into a Shape before
// requesting a file, keeping this package reusable and independently
// testable.
package cache

// Buffer is the runtime's in-memory decoded PCM buffer, one float32 slice per
// channel. It is shared by reference between the cache and every caller that
// has requested it: the cache retains its own reference so an in-progress
// decode can fill a previously-returned placeholder in place. Callers must
// not mutate a Buffer's contents.
type Buffer struct {
	Channels   uint
	SampleRate int
	Data       [][]float32
}

// Shape is the (channels, sample_count) pair needed to allocate a
// placeholder buffer, taken from an AtlasItem's file name and sample count.
type Shape struct {
	Channels    uint
	SampleCount uint64
}

// NewPlaceholder allocates a silent buffer of the given shape at sampleRate.
func NewPlaceholder(shape Shape, sampleRate int) *Buffer {
	data := make([][]float32, shape.Channels)
	for i := range data {
		data[i] = make([]float32, shape.SampleCount)
	}

	return &Buffer{Channels: shape.Channels, SampleRate: sampleRate, Data: data}
}

// fillInPlace copies decoded channel data into target, up to the smaller of
// the two channel counts and the smaller of the two per-channel frame
// counts. It never reallocates target.Data, so a caller already holding a
// reference into it observes the new samples once this returns.
func fillInPlace(target, decoded *Buffer) {
	channels := target.Channels
	if decoded.Channels < channels {
		channels = decoded.Channels
	}

	for ch := uint(0); ch < channels; ch++ {
		dst := target.Data[ch]
		src := decoded.Data[ch]

		n := len(dst)
		if len(src) < n {
			n = len(src)
		}

		copy(dst[:n], src[:n])
	}
}

// IsSilent reports whether every sample in the buffer is exactly zero.
func (b *Buffer) IsSilent() bool {
	for _, ch := range b.Data {
		for _, s := range ch {
			if s != 0 {
				return false
			}
		}
	}

	return true
}
