package encoder

// Record is the per-source outcome of one pipeline run, used both to build
// the atlas and to populate the report digest.
type Record struct {
	Package     string
	SourceName  string
	Language    string
	FileName    string
	SampleCount uint64
	Bitrate     int
	Channels    int
	Remuxed     bool
	Err         error
}

// Stats summarizes one pipeline run.
type Stats struct {
	Discovered int
	Succeeded  int
	Failed     int
	Skipped    int // sources that finished without error but yielded zero PCM frames; reused cached outputs are not counted here
}

// Options configures one pipeline run beyond what Config carries.
type Options struct {
	Packages   []string
	IncludeMP4 bool
	Yes        bool
	UseCache   bool
	Workers    int
	FFmpegPath string // --ffmpeg override; passed to ffmpeg.SetPath before the run starts
	Confirm    func(prompt string) bool
}
