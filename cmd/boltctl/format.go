package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/graphwire/boltcore/bolt"
)

// formatRecord renders one record's fields tab-separated, converting
// each Value to its nearest Go representation for display.
func formatRecord(rec bolt.Record) string {
	parts := make([]string, len(rec))
	for i, v := range rec {
		goVal, err := v.ToGo()
		if err != nil {
			parts[i] = fmt.Sprintf("<%s>", v.Kind())
			continue
		}
		parts[i] = fmt.Sprintf("%v", goVal)
	}
	return strings.Join(parts, "\t")
}

func printResult(out io.Writer, fields []string, records []bolt.Record) {
	fmt.Fprintln(out, strings.Join(fields, "\t"))
	for _, rec := range records {
		fmt.Fprintln(out, formatRecord(rec))
	}
	fmt.Fprintf(out, "# %d records\n", len(records))
}
