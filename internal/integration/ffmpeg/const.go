package ffmpeg

import "time"

const (
	name = "ffmpeg"
	// Encode/decode/remux all shell out to a subprocess; long sources or a
	// loaded CI runner can make this take a while.
	timeout = 120 * time.Second
)
