package ffprobe

import "strconv"

// firstAudioStream returns the first audio stream in the probe result.
func (r *Result) firstAudioStream() (Stream, bool) {
	for _, s := range r.Streams {
		if s.CodecType == "audio" {
			return s, true
		}
	}

	return Stream{}, false
}

// ConformsTo48kPCM reports whether the probed file is already 48 kHz PCM, the
// invariant the encoder requires of every source before content-addressing
// and encode. A source that fails this check must be re-materialized.
func (r *Result) ConformsTo48kPCM() bool {
	stream, ok := r.firstAudioStream()
	if !ok {
		return false
	}

	if !isPCMCodec(stream.CodecName) {
		return false
	}

	rate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		return false
	}

	return rate == 48000
}

// Channels returns the first audio stream's channel count, or 0 if none.
func (r *Result) Channels() int {
	stream, ok := r.firstAudioStream()
	if !ok {
		return 0
	}

	return stream.Channels
}

func isPCMCodec(codecName string) bool {
	switch codecName {
	case "pcm_s16le", "pcm_s24le", "pcm_s32le", "pcm_s16be", "pcm_s24be", "pcm_s32be":
		return true
	default:
		return false
	}
}
