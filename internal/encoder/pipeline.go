// Package encoder implements the offline encode pipeline: discovery,
// source validation, parameter selection, content-addressing, encode
// invocation, sample-count reconciliation, and atlas emission. It mirrors
// the concurrent-worker-pool shape of a batch report runner: a bounded
// semaphore of workers, each writing only its own slot of the record slice,
// and one final single-threaded accumulation and write pass once every
// worker has finished.
package encoder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jadujoel/scode"
	"github.com/jadujoel/scode/internal/address"
	"github.com/jadujoel/scode/internal/config"
	"github.com/jadujoel/scode/internal/integration/ffmpeg"
	"github.com/jadujoel/scode/internal/integration/ffprobe"
	"github.com/jadujoel/scode/internal/pcm"
)

// Run executes the full pipeline against cfg and returns the accumulated
// atlas, per-source records, and summary stats.
func Run(ctx context.Context, cfg config.Config, opts Options) (*scode.Atlas, []Record, Stats, error) {
	if opts.FFmpegPath != "" {
		ffmpeg.SetPath(opts.FFmpegPath)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, nil, Stats{}, fmt.Errorf("%w: %w", scode.ErrEncodeFailure, err)
	}

	sources, err := Discover(cfg.InDir, opts.Packages)
	if err != nil {
		return nil, nil, Stats{}, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup

	records := make([]Record, len(sources))

	var failed atomic.Int64

	var skipped atomic.Int64

	for i, src := range sources {
		wg.Add(1)

		sem <- struct{}{}

		go func(i int, src SourceFile) {
			defer wg.Done()
			defer func() { <-sem }()

			rec := processOne(ctx, cfg, opts, src)
			records[i] = rec

			switch {
			case rec.Err != nil:
				failed.Add(1)

				slog.Error("encoder: source failed", "package", src.Package, "source", src.SourceName, "error", rec.Err)
			case rec.SampleCount == 0:
				skipped.Add(1)
			}
		}(i, src)
	}

	wg.Wait()

	atlas := scode.NewAtlas()
	perPackage := make(map[string][]scode.AtlasItem)

	var order []string

	for _, rec := range records {
		if rec.Err != nil {
			continue
		}

		if _, ok := perPackage[rec.Package]; !ok {
			order = append(order, rec.Package)
		}

		perPackage[rec.Package] = append(perPackage[rec.Package], scode.AtlasItem{
			SourceName:  rec.SourceName,
			FileName:    rec.FileName,
			SampleCount: rec.SampleCount,
			LanguageTag: rec.Language,
		})
	}

	for _, pkg := range order {
		atlas.ReplaceItems(pkg, perPackage[pkg])
	}

	if err := writeAtlas(cfg.OutDir, atlas); err != nil {
		return nil, records, Stats{}, err
	}

	stats := Stats{
		Discovered: len(sources),
		Failed:     int(failed.Load()),
		Skipped:    int(skipped.Load()),
	}
	stats.Succeeded = stats.Discovered - stats.Failed

	return atlas, records, stats, nil
}

func processOne(ctx context.Context, cfg config.Config, opts Options, src SourceFile) Record {
	rec := Record{Package: src.Package, SourceName: src.SourceName, Language: cfg.LanguageTag(src.Package, src.Language)}

	probe, err := ffprobe.Probe(ctx, src.Path)
	if err != nil {
		rec.Err = fmt.Errorf("%w: %w", scode.ErrSourceNotConforming, err)

		return rec
	}

	if !probe.ConformsTo48kPCM() {
		if !confirmRemux(opts, src.Path) {
			rec.Err = fmt.Errorf("%w: %s", scode.ErrSourceNotConforming, src.Path)

			return rec
		}

		if err := ffmpeg.Remux(ctx, src.Path); err != nil {
			rec.Err = fmt.Errorf("%w: %w", scode.ErrSourceNotConforming, err)

			return rec
		}

		rec.Remuxed = true

		probe, err = ffprobe.Probe(ctx, src.Path)
		if err != nil {
			rec.Err = fmt.Errorf("%w: %w", scode.ErrSourceNotConforming, err)

			return rec
		}
	}

	channels, ok := cfg.ResolveChannels(src.Package, src.SourceName)
	if !ok {
		channels = probe.Channels()
	}

	bitrate := cfg.ResolveBitrate(src.Package, src.SourceName)

	rec.Channels = channels
	rec.Bitrate = bitrate

	pcmBytes, err := ffmpeg.RawPCM(ctx, src.Path, channels)
	if err != nil {
		rec.Err = fmt.Errorf("%w: %w", scode.ErrEncodeFailure, err)

		return rec
	}

	hash := address.Hash(pcmBytes)
	fileName := address.FileName(bitrate, channels, hash)
	rec.FileName = fileName

	rawFormat := pcm.Format{SampleRate: 48000, BitDepth: pcm.Depth32, Channels: uint(channels)}
	rec.SampleCount = uint64(len(pcmBytes) / rawFormat.FrameSize())

	webmPath := filepath.Join(cfg.OutDir, fileName+".webm")
	mp4Path := filepath.Join(cfg.OutDir, fileName+".mp4")

	params := ffmpeg.EncodeParams{BitrateKbps: bitrate, Channels: channels}

	webmCached := opts.UseCache && fileExists(webmPath)
	if webmCached && !cacheUsable(webmPath) {
		slog.Warn("encoder: cached output failed validation, recomputing", "error", scode.ErrHashMismatch, "path", webmPath)

		webmCached = false
	}

	if !webmCached {
		if err := ffmpeg.EncodeWebM(ctx, pcmBytes, params, webmPath); err != nil {
			rec.Err = fmt.Errorf("%w: %w", scode.ErrEncodeFailure, err)

			return rec
		}
	}

	if opts.IncludeMP4 {
		mp4Cached := opts.UseCache && fileExists(mp4Path)
		if mp4Cached && !cacheUsable(mp4Path) {
			slog.Warn("encoder: cached output failed validation, recomputing", "error", scode.ErrHashMismatch, "path", mp4Path)

			mp4Cached = false
		}

		if !mp4Cached {
			if err := ffmpeg.EncodeMP4(ctx, pcmBytes, params, mp4Path); err != nil {
				rec.Err = fmt.Errorf("%w: %w", scode.ErrEncodeFailure, err)

				return rec
			}
		}
	}

	return rec
}

func confirmRemux(opts Options, path string) bool {
	if opts.Yes {
		return true
	}

	if opts.Confirm == nil {
		return false
	}

	return opts.Confirm(fmt.Sprintf("%s is not 48kHz PCM; re-materialize in place?", path))
}

// cacheUsable reports whether the file at path can be trusted to already
// hold the content its content-addressed name promises. A zero-byte or
// unreadable file at such a path contradicts its own name (HashMismatch):
// it is logged and recomputed rather than reused.
func cacheUsable(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Size() > 0
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
