package model

import "strings"

// CellSeparator joins cells when a table row is flattened into a text line.
const CellSeparator = " | "

// Table is a 2-D grid of cell texts in source order.
type Table [][]string

// RowCount returns the number of rows.
func (t Table) RowCount() int {
	return len(t)
}

// ColCount returns the widest row's cell count.
func (t Table) ColCount() int {
	n := 0
	for _, row := range t {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Lines flattens each row into a single line, cells joined with
// CellSeparator. Rows whose cells are all blank are skipped.
func (t Table) Lines() []string {
	lines := make([]string, 0, len(t))
	for _, row := range t {
		cells := make([]string, len(row))
		blank := true
		for i, cell := range row {
			// Newlines inside a cell would split the row across lines.
			cells[i] = strings.Join(strings.Fields(cell), " ")
			if cells[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		lines = append(lines, strings.Join(cells, CellSeparator))
	}
	return lines
}

// Text returns the flattened table as one block.
func (t Table) Text() string {
	return strings.Join(t.Lines(), "\n")
}
