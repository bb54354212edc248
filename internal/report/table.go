package report

import (
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/tsawler/bias"
)

// Style selects the table border style.
type Style int

const (
	StylePlain   Style = iota // ASCII borders, safe for pipes and files
	StyleRounded              // box drawing characters for terminals
)

// StyleFor picks StyleRounded when f is a terminal.
func StyleFor(f *os.File) Style {
	if f == nil {
		return StylePlain
	}
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return StyleRounded
	}
	return StylePlain
}

// RenderDemographic renders the demographic stats as a two column table.
func RenderDemographic(stats bias.DemographicStats, style Style) string {
	return renderTable(stats.Table(), style, false)
}

// RenderCooccurrence renders the co-occurrence matrix with a totals footer.
func RenderCooccurrence(m *bias.CooccurrenceMatrix, style Style) string {
	if m == nil {
		return ""
	}
	return renderTable(m.Table(), style, true)
}

func renderTable(t bias.Table, style Style, totals bool) string {
	columns := len(t.ColLabels) + 1

	tw := table.NewWriter()
	switch style {
	case StyleRounded:
		tw.SetStyle(table.StyleRounded)
	default:
		tw.SetStyle(table.StyleDefault)
	}
	// Labels are data, keep them as written.
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, 0, columns)
	header = append(header, t.Name)
	for _, label := range t.ColLabels {
		header = append(header, label)
	}
	tw.AppendHeader(header)

	for r, values := range t.Rows() {
		row := make(table.Row, 0, columns)
		row = append(row, t.RowLabels[r])
		for _, v := range values {
			row = append(row, strconv.Itoa(v))
		}
		tw.AppendRow(row)
	}

	if totals && len(t.RowLabels) > 0 {
		footer := make(table.Row, 0, columns)
		footer = append(footer, "total")
		for _, v := range t.ColTotals() {
			footer = append(footer, strconv.Itoa(v))
		}
		tw.AppendFooter(footer)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignRight
		if i == 0 {
			align = text.AlignLeft
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
