package xl

import (
	"github.com/adnsv/go-xlsx/ref"
)

type Row struct {
	Height       float32 // when Height=0, use the sheet default
	Hidden       bool
	Style        *Style // row default format; nil for none
	OutlineLevel int
	Collapsed    bool

	sheet            *Sheet
	rowNumber        int // 1-based
	cells            map[int]*Cell
	nextColumnNumber int // 1-based, one past the rightmost cell
}

func newRow(s *Sheet, n int) *Row {
	return &Row{
		sheet:            s,
		rowNumber:        n,
		cells:            map[int]*Cell{},
		nextColumnNumber: 1,
	}
}

// Number returns the 1-based row number.
func (r *Row) Number() int { return r.rowNumber }

// Sheet returns the owning sheet.
func (r *Row) Sheet() *Sheet { return r.sheet }

// AddCell appends a cell to the right of the rightmost one.
func (r *Row) AddCell() *Cell {
	return r.Cell(r.nextColumnNumber)
}

// Cell returns the cell in column col, creating it when absent.
func (r *Row) Cell(col int) *Cell {
	if col < 1 || col > ref.MaxColumns {
		panic("invalid column number")
	}
	if c, ok := r.cells[col]; ok {
		return c
	}
	c := &Cell{row: r, columnNumber: col}
	r.cells[col] = c
	if col >= r.nextColumnNumber {
		r.nextColumnNumber = col + 1
	}
	return c
}

// Lookup returns the cell in column col or nil.
func (r *Row) Lookup(col int) *Cell {
	return r.cells[col]
}

// Cells returns the cells ordered by column.
func (r *Row) Cells() []*Cell {
	out := make([]*Cell, 0, len(r.cells))
	enumerate(r.cells, func(_ int, c *Cell) error {
		out = append(out, c)
		return nil
	})
	return out
}

// Len is the number of stored cells.
func (r *Row) Len() int { return len(r.cells) }

// RemoveCell deletes the cell in column col.
func (r *Row) RemoveCell(col int) {
	delete(r.cells, col)
	r.resetNext()
}

func (r *Row) resetNext() {
	r.nextColumnNumber = 1
	for col := range r.cells {
		if col >= r.nextColumnNumber {
			r.nextColumnNumber = col + 1
		}
	}
}

// hasMetadata reports a row worth writing even without cells.
func (r *Row) hasMetadata() bool {
	return r.Height > 0 || r.Hidden || r.Style != nil || r.OutlineLevel > 0 || r.Collapsed
}

// rekey replaces the cell map, renumbering the cells by their keys.
func (r *Row) rekey(cells map[int]*Cell) {
	r.cells = cells
	for col, c := range cells {
		c.row = r
		c.columnNumber = col
	}
	r.resetNext()
}

func ColumnNumberAsLetters(n int) string {
	return ref.StringFromColumnIndex(n)
}

func CellCoordAsString(col, row int) string {
	return ref.CoordinateFromIndex(col, row)
}
