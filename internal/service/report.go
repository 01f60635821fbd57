package service

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	Silent = iota
	Summary
	Verbose
)

// Report writes the run summary for the given verbosity: nothing when
// Silent, counts when Summary, and counts plus every skipped path when
// Verbose.
func Report(w io.Writer, stats *Stats, verbosity int) error {
	if verbosity <= Silent {
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Result", "Files"})
	tw.AppendRow(table.Row{"moved", stats.Moved})
	tw.AppendRow(table.Row{"duplicates", stats.Duplicates})
	tw.AppendRow(table.Row{"skipped", len(stats.Skipped)})
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"copied", humanize.Bytes(uint64(stats.Bytes))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
		return err
	}

	if verbosity < Verbose || len(stats.Skipped) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w, "skipped:"); err != nil {
		return err
	}
	for _, path := range stats.Skipped {
		if _, err := fmt.Fprintf(w, "  %s\n", path); err != nil {
			return err
		}
	}
	return nil
}
