package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jadujoel/scode/version"
)

func main() {
	ctx := context.Background()

	appl := &cli.Command{
		Name:    version.Name() + "-report",
		Usage:   "Batch-encode a package tree and write an scode JSONL report",
		Version: version.Version() + " " + version.Commit(),
		Commands: []*cli.Command{
			reportCommand(),
			digestCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}
