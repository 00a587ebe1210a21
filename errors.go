package scode

import "errors"

// Sentinel errors matching the taxonomy in the runtime's error handling
// design. Wrap these with fmt.Errorf("%w: ...", Err...) at the point of
// failure, following the farcloser/primordium fault convention used
// throughout this module's ffmpeg/ffprobe integrations.
var (
	ErrAtlasFetch          = errors.New("atlas fetch failed")
	ErrAtlasMalformed      = errors.New("atlas is malformed")
	ErrSourceNotConforming = errors.New("source does not conform to 48kHz PCM")
	ErrEncodeFailure       = errors.New("encode failed")
	ErrHashMismatch        = errors.New("content address hash mismatch")
	ErrResolveMiss         = errors.New("no item resolved for name")
	ErrDecodeFailure       = errors.New("decode failed")
	ErrDisposed            = errors.New("sound manager is disposed")
)
