package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jadujoel/scode"
)

var errInvalidArgCount = errors.New("expected exactly one argument: atlas file path")

func atlasCommand() *cli.Command {
	return &cli.Command{
		Name:      "atlas",
		Usage:     "Inspect or validate an atlas document",
		ArgsUsage: "<atlas.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: console, json, markdown",
				Value: "console",
			},
			&cli.StringFlag{
				Name:  "package",
				Usage: "Restrict listing to a single package",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			path := cmd.Args().First()

			atlas, err := scode.Load(ctx, scode.FileFetcher{}, path, nil)
			if err != nil {
				return fmt.Errorf("atlas: %w", err)
			}

			meta := buildAtlasSummary(atlas, cmd.String("package"))

			return printResult(path, cmd.String("format"), meta)
		},
	}
}

func buildAtlasSummary(atlas *scode.Atlas, onlyPackage string) map[string]any {
	packages := atlas.Packages()

	meta := map[string]any{
		"package_count": len(packages),
	}

	counts := make(map[string]any, len(packages))

	var items map[string]any

	for _, pkg := range packages {
		if onlyPackage != "" && pkg != onlyPackage {
			continue
		}

		list := atlas.Items(pkg)
		counts[pkg] = len(list)

		if onlyPackage == pkg {
			lines := make([]any, 0, len(list))
			for _, it := range list {
				lines = append(lines, fmt.Sprintf("%s [%s] -> %s (%d samples)",
					it.SourceName, it.LanguageTag, it.FileName, it.SampleCount))
			}

			items = map[string]any{pkg: lines}
		}
	}

	meta["items_per_package"] = counts

	if items != nil {
		meta["items"] = items
	}

	return meta
}
