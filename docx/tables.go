package docx

import (
	"strconv"
	"strings"

	"github.com/tsawler/gleaner/model"
)

// parsedTable is a table reduced to a rectangular text grid plus the images
// anchored in its cells, in reading order.
type parsedTable struct {
	Grid   model.Table
	Images []imageRef
}

// parseTable converts a table element to a grid. Horizontally merged cells
// keep their text in the first grid column and leave the spanned columns
// empty; vertically merged continuation cells are empty.
func parseTable(t *tableXML) parsedTable {
	var pt parsedTable
	width := 0
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			text, images := cellContent(&cell)
			pt.Images = append(pt.Images, images...)
			if cell.Properties.VMerge != nil && cell.Properties.VMerge.Val != "restart" {
				text = ""
			}
			cells = append(cells, text)
			for span := gridSpan(cell); span > 1; span-- {
				cells = append(cells, "")
			}
		}
		width = max(width, len(cells))
		pt.Grid = append(pt.Grid, cells)
	}
	for i, row := range pt.Grid {
		for len(row) < width {
			row = append(row, "")
		}
		pt.Grid[i] = row
	}
	return pt
}

func gridSpan(cell tableCellXML) int {
	n, err := strconv.Atoi(cell.Properties.GridSpan.Val)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// cellContent joins the cell's paragraphs with newlines. Nested tables are
// flattened into the cell text row by row.
func cellContent(cell *tableCellXML) (string, []imageRef) {
	var parts []string
	var images []imageRef
	for _, el := range cell.Blocks.Elements {
		switch {
		case el.Paragraph != nil:
			if strings.TrimSpace(el.Paragraph.Text) != "" {
				parts = append(parts, strings.TrimSpace(el.Paragraph.Text))
			}
			images = append(images, el.Paragraph.Images...)
		case el.Table != nil:
			nested := parseTable(el.Table)
			if s := nested.Grid.Text(); s != "" {
				parts = append(parts, s)
			}
			images = append(images, nested.Images...)
		}
	}
	return strings.Join(parts, "\n"), images
}
