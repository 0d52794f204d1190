package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func toRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// RenderTable writes the summaries to `out` as a table and returns what was written.
func RenderTable(out io.Writer, summaries []Summary) string {
	style := table.StyleRounded
	// keep "iRating" as is instead of upper casing it
	style.Format.Header = text.FormatDefault

	t := table.NewWriter()
	t.SetStyle(style)
	t.SetOutputMirror(out)
	t.AppendHeader(toRow(TableHeader))
	for _, s := range summaries {
		t.AppendRow(toRow(s.Fields()))
	}
	return t.Render()
}
