//nolint:tagliatelle
package main

// Record is a single line in the scode-report JSONL output, one per
// discovered source.
type Record struct {
	Package     string        `json:"package"`
	SourceName  string        `json:"source_name"`
	Language    string        `json:"language,omitempty"`
	FileName    string        `json:"file_name,omitempty"`
	SampleCount uint64        `json:"sample_count,omitempty"`
	Bitrate     int           `json:"bitrate,omitempty"`
	Channels    int           `json:"channels,omitempty"`
	Remuxed     bool          `json:"remuxed,omitempty"`
	Error       string        `json:"error,omitempty"`
	Timing      *RecordTiming `json:"timing,omitempty"`
}

// RecordTiming captures per-source processing duration in milliseconds.
type RecordTiming struct {
	TotalMs float64 `json:"total_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	Package    string `json:"package"`
	SourceName string `json:"source_name"`
	FileName   string `json:"file_name,omitempty"`
	Bitrate    int    `json:"bitrate,omitempty"`
	Error      string `json:"error,omitempty"`
}

// packageBreakdown tracks per-package outcome counts for the digest.
type packageBreakdown struct {
	Package   string
	Succeeded int
	Failed    int
}
