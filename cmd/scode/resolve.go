package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jadujoel/scode"
)

var errInvalidResolveArgs = errors.New("expected exactly one argument: source name")

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Load an atlas and resolve a (name, package, language) triple",
		ArgsUsage: "<source-name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "atlas",
				Usage:    "Path to the atlas document",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "package",
				Usage: "Current package",
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Current language tag",
				Value: scode.NoLanguage,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: console, json, markdown",
				Value: "console",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidResolveArgs, cmd.NArg())
			}

			sourceName := cmd.Args().First()

			atlas, err := scode.Load(ctx, scode.FileFetcher{}, cmd.String("atlas"), nil)
			if err != nil {
				return fmt.Errorf("resolve: %w", err)
			}

			fileName, ok := scode.Resolve(atlas, sourceName, cmd.String("package"), cmd.String("language"))

			meta := map[string]any{
				"resolved":  ok,
				"file_name": fileName,
			}

			return printResult(sourceName, cmd.String("format"), meta)
		},
	}
}
