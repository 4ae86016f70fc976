package cli

import (
	"io"
	"strings"
	"text/tabwriter"
)

// table buffers rows for column-aligned output. Empty cells print as "-".
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) add(cells ...string) {
	row := make([]string, len(cells))
	for i, cell := range cells {
		row[i] = orDash(cell)
	}
	t.rows = append(t.rows, row)
}

func (t *table) render(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if len(t.headers) > 0 {
		if _, err := io.WriteString(w, strings.Join(t.headers, "\t")+"\n"); err != nil {
			return err
		}
	}
	for _, row := range t.rows {
		if _, err := io.WriteString(w, strings.Join(row, "\t")+"\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeTable(out io.Writer, headers []string, rows [][]string) error {
	t := newTable(headers...)
	for _, row := range rows {
		t.add(row...)
	}
	return t.render(out)
}
