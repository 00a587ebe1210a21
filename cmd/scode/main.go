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
		Name:    version.Name(),
		Usage:   "Content-addressed audio asset encoder and resolver",
		Version: version.Version() + " " + version.Commit(),
		Commands: []*cli.Command{
			encodeCommand(),
			atlasCommand(),
			resolveCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}
