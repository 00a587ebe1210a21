package address_test

import (
	"testing"

	"github.com/jadujoel/scode/internal/address"
)

func TestHashDeterministic(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	a := address.Hash(pcm)
	b := address.Hash(pcm)

	if a != b {
		t.Fatalf("Hash not deterministic: %d != %d", a, b)
	}
}

func TestHashDiffersOnPayload(t *testing.T) {
	a := address.Hash([]byte{1, 2, 3, 4})
	b := address.Hash([]byte{1, 2, 3, 5})

	if a == b {
		t.Fatalf("distinct payloads hashed to the same value: %d", a)
	}
}

func TestFileNameFormat(t *testing.T) {
	got := address.FileName(64, 2, 123456789)
	want := "64k.2ch.123456789"

	if got != want {
		t.Fatalf("FileName() = %q, want %q", got, want)
	}
}

func TestFileNameDiffersByBitrateOnly(t *testing.T) {
	hash := address.Hash([]byte{9, 9, 9, 9})

	low := address.FileName(32, 1, hash)
	high := address.FileName(64, 1, hash)

	if low == high {
		t.Fatalf("expected distinct file names for distinct bitrates, got %q for both", low)
	}
}

func TestParseChannels(t *testing.T) {
	cases := []struct {
		fileName string
		want     int
		ok       bool
	}{
		{"64k.2ch.123", 2, true},
		{"32k.1ch.456", 1, true},
		{"no-channel-field", 0, false},
	}

	for _, tc := range cases {
		got, ok := address.ParseChannels(tc.fileName)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseChannels(%q) = (%d, %v), want (%d, %v)", tc.fileName, got, ok, tc.want, tc.ok)
		}
	}
}
