package pptx

import (
	"strings"

	"github.com/tsawler/gleaner/model"
)

// isFooterPlaceholder returns true if the placeholder type is a footer element.
// Footer elements include: ftr (footer), dt (date/time), sldNum (slide number).
func isFooterPlaceholder(phType string) bool {
	switch phType {
	case "ftr", "dt", "sldNum":
		return true
	}
	return false
}

// tableGrid converts a table to a rectangular grid. Cells that continue a
// horizontal or vertical merge are empty.
func tableGrid(tbl *tblXML) model.Table {
	var grid model.Table
	width := 0
	for _, tr := range tbl.Tr {
		row := make([]string, 0, len(tr.Tc))
		for _, tc := range tr.Tc {
			var text string
			if tc.TxBody != nil && !tc.HMerge && !tc.VMerge {
				text = strings.TrimSpace(tc.TxBody.text())
			}
			row = append(row, text)
		}
		width = max(width, len(row))
		grid = append(grid, row)
	}
	for i, row := range grid {
		for len(row) < width {
			row = append(row, "")
		}
		grid[i] = row
	}
	return grid
}
