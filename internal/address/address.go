// Package address implements the encoder's content-addressing scheme:
// deterministic file names derived from (bitrate, channels, a 64-bit hash of
// the PCM payload).
package address

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hash computes the 64-bit content address of interleaved little-endian PCM
// bytes at the target channel count. xxhash is a fast non-cryptographic
// hash with low collision probability over blobs of this size, and its
// result is deterministic across platforms and runs, satisfying the file
// name's stability requirement.
func Hash(pcm []byte) uint64 {
	return xxhash.Sum64(pcm)
}

// FileName composes the content-addressed base name. The ".{ch}ch." field
// must keep this exact layout: the runtime recovers channel count for
// placeholder buffer allocation by parsing it back out (see ParseChannels).
func FileName(bitrateKbps, channels int, hash uint64) string {
	return fmt.Sprintf("%dk.%dch.%d", bitrateKbps, channels, hash)
}

// ParseChannels recovers the channel count encoded in a content-addressed
// file name's ".{ch}ch." field. It returns false if the name does not carry
// a recognizable field; the fallback is then up to the caller (AtlasItem
// carries no channel count, and the sound manager assumes one channel).
func ParseChannels(fileName string) (int, bool) {
	parts := strings.Split(fileName, ".")
	for _, p := range parts {
		if strings.HasSuffix(p, "ch") {
			digits := strings.TrimSuffix(p, "ch")

			n, err := strconv.Atoi(digits)
			if err != nil {
				continue
			}

			return n, true
		}
	}

	return 0, false
}
