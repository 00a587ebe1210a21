package main

import (
	"os"

	"github.com/farcloser/primordium/format"
)

// printResult renders a single (subject, meta) pair through a named
// formatter (console, json, markdown, ...), the same mechanism the teacher
// uses for its analyze output.
func printResult(subject, formatName string, meta map[string]any) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	data := &format.Data{
		Object: subject,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}
