package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jadujoel/scode/internal/config"
	"github.com/jadujoel/scode/internal/encoder"
)

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Walk a package tree and produce a content-addressed atlas",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to scodefig.jsonc",
				Value: "scodefig.jsonc",
			},
			&cli.StringFlag{
				Name:  "indir",
				Usage: "Root directory containing packages/<pkg>/sounds/...",
			},
			&cli.StringFlag{
				Name:  "outdir",
				Usage: "Output directory for encoded assets and the atlas",
			},
			&cli.IntFlag{
				Name:  "bitrate",
				Usage: "Default bitrate in kbps",
			},
			&cli.StringSliceFlag{
				Name:  "packages",
				Usage: "Package names to encode (repeatable); defaults to all discovered",
			},
			&cli.BoolFlag{
				Name:  "include-mp4",
				Usage: "Also produce an AAC/MP4 fallback alongside the WebM/Opus asset",
			},
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Answer yes to re-materialization prompts without a TTY",
			},
			&cli.StringFlag{
				Name:  "loglevel",
				Usage: "debug, info, warn, or error",
				Value: "info",
			},
			&cli.BoolFlag{
				Name:  "use-cache",
				Usage: "Skip encoding when an output already exists at the content address",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "ffmpeg",
				Usage: "Override the ffmpeg binary path",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent encode workers",
				Value: runtime.NumCPU(),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadEncodeConfig(cmd)
			if err != nil {
				return err
			}

			opts := encoder.Options{
				Packages:   cmd.StringSlice("packages"),
				IncludeMP4: cmd.Bool("include-mp4"),
				Yes:        cfg.Yes,
				UseCache:   cmd.Bool("use-cache"),
				Workers:    cmd.Int("workers"),
				FFmpegPath: cmd.String("ffmpeg"),
				Confirm:    confirmPrompt,
			}

			_, records, stats, err := encoder.Run(ctx, cfg, opts)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			fmt.Fprintf(os.Stdout, "discovered=%d succeeded=%d failed=%d skipped=%d\n",
				stats.Discovered, stats.Succeeded, stats.Failed, stats.Skipped)

			for _, rec := range records {
				if rec.Err != nil {
					fmt.Fprintf(os.Stderr, "FAIL %s/%s: %v\n", rec.Package, rec.SourceName, rec.Err)
				}
			}

			if stats.Failed > 0 {
				return fmt.Errorf("encode: %d of %d sources failed", stats.Failed, stats.Discovered)
			}

			return nil
		},
	}
}

// loadEncodeConfig loads scodefig.jsonc if present, then overlays any CLI
// flags the caller actually set (CLI flags win).
func loadEncodeConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := config.Load(path)
			if err != nil {
				return config.Config{}, fmt.Errorf("loading %s: %w", path, err)
			}

			cfg = loaded
		}
	}

	if cmd.IsSet("indir") {
		cfg.InDir = cmd.String("indir")
	}

	if cmd.IsSet("outdir") {
		cfg.OutDir = cmd.String("outdir")
	}

	if cmd.IsSet("bitrate") {
		cfg.Bitrate = cmd.Int("bitrate")
	}

	if cmd.IsSet("yes") {
		cfg.Yes = cmd.Bool("yes")
	}

	if cmd.IsSet("loglevel") {
		cfg.LogLevel = cmd.String("loglevel")
	}

	return cfg, nil
}

// confirmPrompt writes the prompt to stderr and reads the answer from stdin;
// it does not check whether either is a terminal, and a read error (such as
// EOF) counts as "no". Callers that pass --yes never reach this path.
func confirmPrompt(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)

	reader := bufio.NewReader(os.Stdin)

	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))

	return answer == "y" || answer == "yes"
}
