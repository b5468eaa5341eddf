// Package pretty renders a security-master bundle or a joined-positions
// table for terminal display, the Go analogue of get_pretty_table in the
// reference implementation's utils.py, upgraded to a real table-rendering
// library.
package pretty

import (
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/hedgineer/secmaster/internal/factmodel"
	"github.com/hedgineer/secmaster/internal/join"
)

var nullLabel = color.New(color.FgHiBlack).Sprint("NULL")

// PrintBundle renders sm's header and rows as a table, dimming null
// cells so they read distinctly from a literal empty string.
func PrintBundle(w io.Writer, sm *factmodel.Bundle) {
	table := tablewriter.NewWriter(w)
	table.Header([]string(sm.Header))

	for _, row := range sm.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = renderCell(v)
		}
		table.Append(cells)
	}
	table.Render()
}

// PrintJoin renders a join.Result the same way.
func PrintJoin(w io.Writer, result join.Result) {
	table := tablewriter.NewWriter(w)
	table.Header([]string(result.Header))

	for _, row := range result.Rows {
		cells := make([]string, 0, len(row.Values)+3)
		cells = append(cells,
			color.New(color.Bold).Sprintf("%d", row.SubjectID),
			color.New(color.Bold).Sprintf("%g", row.Quantity),
			row.AsOfDate.Format(factmodel.DateLayout),
		)
		for _, v := range row.Values {
			cells = append(cells, renderCell(v))
		}
		table.Append(cells)
	}
	table.Render()
}

func renderCell(v factmodel.Value) string {
	if v.IsNull() {
		return nullLabel
	}
	return v.String()
}
