package xl

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/adnsv/go-xlsx/ref"
)

// SheetState controls the visibility of a sheet tab.
type SheetState string

const (
	SheetVisible    SheetState = ""
	SheetHidden     SheetState = "hidden"
	SheetVeryHidden SheetState = "veryHidden"
)

type Sheet struct {
	Name     string
	State    SheetState
	TabColor *Color
	Columns  map[int]*Column // 1-based

	Format       SheetFormat
	View         SheetView
	MergeCells   []ref.Range
	Hyperlinks   []*Hyperlink
	Validations  []*DataValidation
	Conditionals []*ConditionalFormat
	AutoFilter   *AutoFilter
	Protection   *SheetProtection
	PageMargins  *PageMargins
	PageSetup    *PageSetup
	PrintOptions *PrintOptions
	HeaderFooter *HeaderFooter

	Drawing     *Drawing
	Comments    []*Comment
	Tables      []*Table
	PivotTables []*PivotTable
	OleObjects  []*OleObject
	// PrinterSettings is the opaque printer-settings binary.
	PrinterSettings []byte

	workbook      *Workbook
	rows          map[int]*Row
	nextRowNumber int // 1-based, one past the bottom row
	extraRels     []retainedRel
}

type Column struct {
	Width        float32
	Style        *Style
	Hidden       bool
	BestFit      bool
	OutlineLevel int
	Collapsed    bool
}

func (c *Column) equal(o *Column) bool {
	return c.Width == o.Width && c.Style.key() == o.Style.key() && c.Hidden == o.Hidden &&
		c.BestFit == o.BestFit && c.OutlineLevel == o.OutlineLevel && c.Collapsed == o.Collapsed
}

func newSheet(wb *Workbook, name string) *Sheet {
	return &Sheet{
		workbook:      wb,
		Name:          name,
		Columns:       map[int]*Column{},
		rows:          map[int]*Row{},
		nextRowNumber: 1,
	}
}

// Workbook returns the owning workbook.
func (s *Sheet) Workbook() *Workbook { return s.workbook }

// Index returns the tab position of the sheet, or -1 after removal.
func (s *Sheet) Index() int {
	if s.workbook == nil {
		return -1
	}
	for i, sh := range s.workbook.Sheets {
		if sh == s {
			return i
		}
	}
	return -1
}

// AddRow appends a row below the bottom one.
func (s *Sheet) AddRow() *Row {
	return s.Row(s.nextRowNumber)
}

// Row returns row n, creating it when absent.
func (s *Sheet) Row(n int) *Row {
	if n < 1 || n > ref.MaxRows {
		panic("invalid row number")
	}
	if r, ok := s.rows[n]; ok {
		return r
	}
	r := newRow(s, n)
	s.rows[n] = r
	if n >= s.nextRowNumber {
		s.nextRowNumber = n + 1
	}
	return r
}

// LookupRow returns row n or nil.
func (s *Sheet) LookupRow(n int) *Row {
	return s.rows[n]
}

// Rows returns the stored rows in ascending order.
func (s *Sheet) Rows() []*Row {
	out := make([]*Row, 0, len(s.rows))
	enumerate(s.rows, func(_ int, r *Row) error {
		out = append(out, r)
		return nil
	})
	return out
}

// RemoveRow deletes row n and its cells without shifting other rows.
func (s *Sheet) RemoveRow(n int) {
	delete(s.rows, n)
	s.resetNext()
}

func (s *Sheet) resetNext() {
	s.nextRowNumber = 1
	for n := range s.rows {
		if n >= s.nextRowNumber {
			s.nextRowNumber = n + 1
		}
	}
}

// Cell returns the cell at the 1-based column and row, creating it when
// absent. It panics on coordinates outside the sheet.
func (s *Sheet) Cell(col, row int) *Cell {
	return s.Row(row).Cell(col)
}

// CellAt returns the cell at an A1-style coordinate, creating it when
// absent.
func (s *Sheet) CellAt(coord string) (*Cell, error) {
	col, row, _, _, err := ref.IndexFromCoordinate(coord)
	if err != nil {
		return nil, errors.Wrap(ErrBadReference, err.Error())
	}
	return s.Cell(col, row), nil
}

// LookupCell returns the cell at the given position or nil.
func (s *Sheet) LookupCell(col, row int) *Cell {
	if r := s.rows[row]; r != nil {
		return r.cells[col]
	}
	return nil
}

// RemoveCell deletes the cell at the given position.
func (s *Sheet) RemoveCell(col, row int) {
	if r := s.rows[row]; r != nil {
		r.RemoveCell(col)
	}
}

// Cells returns every stored cell ordered by row, then column.
func (s *Sheet) Cells() []*Cell {
	var out []*Cell
	for _, r := range s.Rows() {
		out = append(out, r.Cells()...)
	}
	return out
}

// Dimension returns the bounding range of the stored cells. ok is false on
// an empty sheet.
func (s *Sheet) Dimension() (rng ref.Range, ok bool) {
	for n, r := range s.rows {
		for col := range r.cells {
			if !ok {
				rng = ref.NewRange(col, n, col, n)
				ok = true
				continue
			}
			rng.Start.Col = min(rng.Start.Col, col)
			rng.End.Col = max(rng.End.Col, col)
			rng.Start.Row = min(rng.Start.Row, n)
			rng.End.Row = max(rng.End.Row, n)
		}
	}
	return rng, ok
}

// SetColumnWidth sets the width of a column; a width of zero or less
// removes the column entry.
func (s *Sheet) SetColumnWidth(colNumber int, w float32) {
	if colNumber <= 0 {
		return
	}
	if w <= 0.0 {
		delete(s.Columns, colNumber)
	} else {
		s.Column(colNumber).Width = w
	}
}

// Column returns the metadata of a column, creating it when absent.
func (s *Sheet) Column(colNumber int) *Column {
	c, exists := s.Columns[colNumber]
	if !exists {
		c = &Column{}
		s.Columns[colNumber] = c
	}
	return c
}

// MergeCell merges the cells of a range. Overlapping an existing merge is
// an error.
func (s *Sheet) MergeCell(rng string) error {
	r, err := ref.ParseRange(rng)
	if err != nil {
		return errors.Wrap(ErrBadReference, err.Error())
	}
	r = r.Normalize()
	if r.IsCell() {
		return badReference("merge of a single cell %s", rng)
	}
	for _, m := range s.MergeCells {
		if m.Overlaps(r) {
			return badReference("merge %s overlaps %s", rng, m.Coordinate())
		}
	}
	s.MergeCells = append(s.MergeCells, r)
	return nil
}

// UnmergeCell removes the merge that covers the given range exactly.
func (s *Sheet) UnmergeCell(rng string) bool {
	r, err := ref.ParseRange(rng)
	if err != nil {
		return false
	}
	r = r.Normalize()
	for i, m := range s.MergeCells {
		if m.Coordinate() == r.Coordinate() {
			s.MergeCells = append(s.MergeCells[:i], s.MergeCells[i+1:]...)
			return true
		}
	}
	return false
}

// AddComment attaches a comment to the cell at col, row, replacing an
// existing one.
func (s *Sheet) AddComment(col, row int, author string, text *RichText) *Comment {
	for _, c := range s.Comments {
		if c.Col == col && c.Row == row {
			c.Author = author
			c.Text = text
			return c
		}
	}
	c := &Comment{Col: col, Row: row, Author: author, Text: text}
	s.Comments = append(s.Comments, c)
	return c
}

// Comment returns the comment of a cell or nil.
func (s *Sheet) Comment(col, row int) *Comment {
	for _, c := range s.Comments {
		if c.Col == col && c.Row == row {
			return c
		}
	}
	return nil
}

// AddHyperlink links a cell range to an external target or to a location
// inside the workbook.
func (s *Sheet) AddHyperlink(h *Hyperlink) error {
	if _, err := ref.ParseRange(h.Ref); err != nil {
		return errors.Wrap(ErrBadReference, err.Error())
	}
	s.Hyperlinks = append(s.Hyperlinks, h)
	return nil
}

// AddTable adds a table over a range. Table names are unique across the
// workbook.
func (s *Sheet) AddTable(t *Table) error {
	if t.Name == "" {
		return errors.New("table name is required")
	}
	if s.workbook != nil && s.workbook.Table(t.Name) != nil {
		return errors.Errorf("duplicate table name '%s'", t.Name)
	}
	if t.DisplayName == "" {
		t.DisplayName = t.Name
	}
	if len(t.Columns) == 0 {
		t.Columns = s.tableColumnsFromHeader(t)
	}
	s.Tables = append(s.Tables, t)
	return nil
}

func (s *Sheet) tableColumnsFromHeader(t *Table) []*TableColumn {
	r := t.Ref.Normalize()
	cols := make([]*TableColumn, 0, r.Cols())
	for col := r.Start.Col; col <= r.End.Col; col++ {
		name := ""
		if !t.NoHeaderRow {
			if c := s.LookupCell(col, r.Start.Row); c != nil {
				name = c.String()
			}
		}
		if name == "" {
			name = "Column" + strconv.Itoa(col-r.Start.Col+1)
		}
		cols = append(cols, &TableColumn{Name: name})
	}
	return cols
}

// drawing returns the drawing of the sheet, creating it when absent.
func (s *Sheet) drawing() *Drawing {
	if s.Drawing == nil {
		s.Drawing = &Drawing{}
	}
	return s.Drawing
}
