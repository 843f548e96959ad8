package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer supplies headers and rows for table output. Resource lists
// implement it so commands can hand them straight to PrintTable.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes a TableRenderer to w as a borderless table.
func PrintTable(w io.Writer, r TableRenderer) error {
	tw := newWriter(w)
	tw.SetHeader(r.Headers())
	for _, row := range r.Rows() {
		tw.Append(row)
	}
	tw.Render()
	return nil
}

// TableData collects rows for a borderless left-aligned table.
type TableData struct {
	headers []string
	rows    [][]string
}

// NewTableData creates a table with the given column headers.
func NewTableData(headers ...string) *TableData {
	return &TableData{headers: headers}
}

// AddRow appends one data row.
func (t *TableData) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// Render writes the table to w.
func (t *TableData) Render(w io.Writer) error {
	tw := newWriter(w)
	tw.SetHeader(t.headers)
	for _, row := range t.rows {
		tw.Append(row)
	}
	tw.Render()
	return nil
}

// SimpleTable prints key-value pairs without headers.
func SimpleTable(w io.Writer, pairs [][2]string) error {
	tw := newWriter(w)
	tw.SetColumnSeparator(":")
	for _, pair := range pairs {
		tw.Append([]string{pair[0], pair[1]})
	}
	tw.Render()
	return nil
}

func newWriter(w io.Writer) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(true)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetCenterSeparator("")
	tw.SetColumnSeparator("")
	tw.SetRowSeparator("")
	tw.SetHeaderLine(false)
	tw.SetBorder(false)
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)
	return tw
}
