package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tsawler/gleaner/model"
)

// RenderTable draws t as a bordered console table. The first row is used as
// the header. Rows shorter than the widest row are padded with empty cells.
func RenderTable(t model.Table) string {
	columns := t.ColCount()
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	// Header cells are extracted text and keep their case.
	tw.Style().Format.Header = text.FormatDefault

	tw.AppendHeader(row(t[0], columns))
	for _, r := range t[1:] {
		tw.AppendRow(row(r, columns))
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
			WidthMax:    48,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func row(cells []string, columns int) table.Row {
	r := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(cells) {
			r[i] = cells[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

// RenderTables writes every table of r, numbered in document order. For
// paginated results the owning page or slide is named.
func RenderTables(w io.Writer, r *model.Result) error {
	n := 0
	emit := func(owner string, t model.Table) error {
		n++
		title := fmt.Sprintf("Table %d", n)
		if owner != "" {
			title += " (" + owner + ")"
		}
		_, err := fmt.Fprintf(w, "%s\n%s\n\n", title, RenderTable(t))
		return err
	}

	for _, t := range r.Tables {
		if err := emit("", t); err != nil {
			return err
		}
	}
	for _, group := range []struct {
		label string
		units []model.Unit
	}{{"page", r.Pages}, {"slide", r.Slides}} {
		for _, u := range group.units {
			for _, t := range u.Tables {
				if err := emit(fmt.Sprintf("%s %d", group.label, u.Number), t); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
