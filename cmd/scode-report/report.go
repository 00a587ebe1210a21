package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/stat"

	"github.com/jadujoel/scode/internal/config"
	"github.com/jadujoel/scode/internal/encoder"
)

const outputFile = "scode-report.jsonl"

var errInvalidReportArgs = errors.New("expected exactly one argument: indir")

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Encode a package tree and write an scode JSONL report",
		ArgsUsage: "<indir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "outdir",
				Usage: "Output directory for encoded assets and the atlas",
				Value: "./encoded",
			},
			&cli.IntFlag{
				Name:  "bitrate",
				Usage: "Default bitrate in kbps",
				Value: 64,
			},
			&cli.BoolFlag{
				Name:  "include-mp4",
				Usage: "Also produce an AAC/MP4 fallback",
			},
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Answer yes to re-materialization prompts",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent encode workers",
				Value: runtime.NumCPU(),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errInvalidReportArgs
			}

			indir := cmd.Args().First()

			info, err := os.Stat(indir)
			if err != nil || !info.IsDir() {
				return fmt.Errorf("%q: not a directory", indir)
			}

			cfg := config.Default()
			cfg.InDir = indir
			cfg.OutDir = cmd.String("outdir")
			cfg.Bitrate = cmd.Int("bitrate")
			cfg.Yes = cmd.Bool("yes")

			opts := encoder.Options{
				IncludeMP4: cmd.Bool("include-mp4"),
				Yes:        cfg.Yes,
				UseCache:   true,
				Workers:    cmd.Int("workers"),
			}

			return runReport(ctx, cfg, opts)
		},
	}
}

func runReport(ctx context.Context, cfg config.Config, opts encoder.Options) error {
	startTime := time.Now()

	_, records, stats, err := encoder.Run(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	sampleCounts := make([]float64, 0, len(records))

	for _, rec := range records {
		r := Record{
			Package:     rec.Package,
			SourceName:  rec.SourceName,
			Language:    rec.Language,
			FileName:    rec.FileName,
			SampleCount: rec.SampleCount,
			Bitrate:     rec.Bitrate,
			Channels:    rec.Channels,
			Remuxed:     rec.Remuxed,
		}

		if rec.Err != nil {
			r.Error = rec.Err.Error()
		} else {
			sampleCounts = append(sampleCounts, float64(rec.SampleCount))
		}

		if err := enc.Encode(r); err != nil {
			slog.Error("writing record", "source", rec.SourceName, "error", err)
		}
	}

	out.Close()

	if err := compressFile(outputFile); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)

	fmt.Fprintf(os.Stderr, "\nDone: %d sources in %s (%d failed, %d skipped)\n",
		stats.Discovered, elapsed.Truncate(time.Millisecond), stats.Failed, stats.Skipped)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", outputFile, outputFile)

	if len(sampleCounts) > 0 {
		mean := stat.Mean(sampleCounts, nil)
		stddev := stat.StdDev(sampleCounts, nil)

		fmt.Fprintf(os.Stderr, "\n--- Sample count reconciliation ---\n")
		fmt.Fprintf(os.Stderr, "  sources:  %d\n", len(sampleCounts))
		fmt.Fprintf(os.Stderr, "  mean:     %.1f samples\n", mean)
		fmt.Fprintf(os.Stderr, "  stddev:   %.1f samples\n", stddev)
	}

	fmt.Fprintln(os.Stderr)

	return runDigest(outputFile)
}

func compressFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}
