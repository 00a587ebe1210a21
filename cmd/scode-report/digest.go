package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/urfave/cli/v3"
)

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from an scode JSONL report",
		ArgsUsage: "<report.jsonl>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("expected exactly one argument: path to report.jsonl")
			}

			return runDigest(cmd.Args().First())
		},
	}
}

func runDigest(reportPath string) error {
	records, err := readRecords(reportPath)
	if err != nil {
		return err
	}

	printDigest(records)

	return nil
}

func readRecords(path string) ([]digestRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var records []digestRecord

	scanner := bufio.NewScanner(file)

	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		var rec digestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	return records, nil
}

func printDigest(records []digestRecord) {
	total := len(records)
	failed := 0
	perPackage := map[string]*packageBreakdown{}

	for _, rec := range records {
		breakdown, ok := perPackage[rec.Package]
		if !ok {
			breakdown = &packageBreakdown{Package: rec.Package}
			perPackage[rec.Package] = breakdown
		}

		if rec.Error != "" {
			failed++

			breakdown.Failed++

			continue
		}

		breakdown.Succeeded++
	}

	fmt.Println("=== scode Report Digest ===")
	fmt.Println()
	fmt.Printf("Total sources: %d\n", total)
	fmt.Printf("Failed:        %d\n", failed)
	fmt.Printf("Succeeded:     %d\n", total-failed)
	fmt.Println()

	fmt.Println("--- Per Package ---")

	breakdowns := make([]*packageBreakdown, 0, len(perPackage))
	for _, bd := range perPackage {
		breakdowns = append(breakdowns, bd)
	}

	slices.SortFunc(breakdowns, func(a, b *packageBreakdown) int {
		return (b.Succeeded + b.Failed) - (a.Succeeded + a.Failed)
	})

	for _, bd := range breakdowns {
		fmt.Printf("  %s: succeeded=%d failed=%d\n", bd.Package, bd.Succeeded, bd.Failed)
	}
}
