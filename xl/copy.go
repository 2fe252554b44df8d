package xl

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"

	"github.com/adnsv/go-xlsx/ref"
)

// CopySheet appends a copy of the sheet src named dst. Cells, styles,
// drawings, comments and validations are copied deeply. Tables get fresh
// names, pivot tables keep sharing their cache, and names local to src are
// duplicated for the copy with their references to src repointed.
func (wb *Workbook) CopySheet(src, dst string) (*Sheet, error) {
	s := wb.Sheet(src)
	if s == nil {
		return nil, fmt.Errorf("no sheet named '%s'", src)
	}
	ns, err := wb.AddSheet(dst)
	if err != nil {
		return nil, err
	}
	if err := s.copyPropsTo(ns); err != nil {
		wb.RemoveSheet(dst)
		return nil, err
	}

	for _, r := range s.Rows() {
		nr := ns.Row(r.rowNumber)
		nr.Height = r.Height
		nr.Hidden = r.Hidden
		nr.OutlineLevel = r.OutlineLevel
		nr.Collapsed = r.Collapsed
		if r.Style != nil {
			nr.Style = r.Style.Clone()
		}
		for _, c := range r.Cells() {
			copyCell(nr.Cell(c.columnNumber), c)
		}
	}

	for _, t := range ns.Tables {
		base := t.Name
		for n := 2; wb.tableNameTaken(t.Name, t); n++ {
			t.Name = base + "_" + strconv.Itoa(n)
		}
		t.DisplayName = t.Name
	}

	var local []*DefinedName
	for _, dn := range wb.DefinedNames {
		if dn.Scope == s {
			c := *dn
			c.Scope = ns
			c.RefersTo = ref.RenameSheet(dn.RefersTo, s.Name, ns.Name)
			local = append(local, &c)
		}
	}
	wb.DefinedNames = append(wb.DefinedNames, local...)
	return ns, nil
}

// sheetContent is the exported sheet-level content that a sheet copy
// duplicates. It carries no back pointers, so a deep copy stays local.
type sheetContent struct {
	TabColor        *Color
	Columns         map[int]*Column
	Format          SheetFormat
	View            SheetView
	MergeCells      []ref.Range
	Hyperlinks      []*Hyperlink
	Validations     []*DataValidation
	Conditionals    []*ConditionalFormat
	AutoFilter      *AutoFilter
	Protection      *SheetProtection
	PageMargins     *PageMargins
	PageSetup       *PageSetup
	PrintOptions    *PrintOptions
	HeaderFooter    *HeaderFooter
	Drawing         *Drawing
	Comments        []*Comment
	Tables          []*Table
	OleObjects      []*OleObject
	PrinterSettings []byte
}

// copyPropsTo deep-copies the sheet-level content of s onto ns.
func (s *Sheet) copyPropsTo(ns *Sheet) error {
	src := sheetContent{
		TabColor: s.TabColor, Columns: s.Columns, Format: s.Format, View: s.View,
		MergeCells: s.MergeCells, Hyperlinks: s.Hyperlinks, Validations: s.Validations,
		Conditionals: s.Conditionals, AutoFilter: s.AutoFilter, Protection: s.Protection,
		PageMargins: s.PageMargins, PageSetup: s.PageSetup, PrintOptions: s.PrintOptions,
		HeaderFooter: s.HeaderFooter, Drawing: s.Drawing, Comments: s.Comments,
		Tables: s.Tables, OleObjects: s.OleObjects, PrinterSettings: s.PrinterSettings,
	}
	var c sheetContent
	if err := deepcopy.Copy(&c, src); err != nil {
		return errors.Wrap(ErrUnsupportedFeature, err.Error())
	}
	ns.TabColor, ns.Format, ns.View = c.TabColor, c.Format, c.View
	ns.MergeCells, ns.Hyperlinks, ns.Validations = c.MergeCells, c.Hyperlinks, c.Validations
	ns.Conditionals, ns.AutoFilter, ns.Protection = c.Conditionals, c.AutoFilter, c.Protection
	ns.PageMargins, ns.PageSetup, ns.PrintOptions = c.PageMargins, c.PageSetup, c.PrintOptions
	ns.HeaderFooter, ns.Drawing, ns.Comments = c.HeaderFooter, c.Drawing, c.Comments
	ns.Tables, ns.OleObjects, ns.PrinterSettings = c.Tables, c.OleObjects, c.PrinterSettings
	if c.Columns != nil {
		ns.Columns = c.Columns
	}
	ns.View.TabSelected = false

	// pivot tables keep the workbook-owned cache
	for _, pt := range s.PivotTables {
		cp := *pt
		cp.RowFields = slices.Clone(pt.RowFields)
		cp.ColFields = slices.Clone(pt.ColFields)
		cp.PageFields = slices.Clone(pt.PageFields)
		cp.DataFields = make([]*PivotDataField, len(pt.DataFields))
		for i, df := range pt.DataFields {
			d := *df
			cp.DataFields[i] = &d
		}
		ns.PivotTables = append(ns.PivotTables, &cp)
	}
	return nil
}

func (wb *Workbook) tableNameTaken(name string, self *Table) bool {
	for _, sh := range wb.Sheets {
		for _, t := range sh.Tables {
			if t != self && t.Name == name {
				return true
			}
		}
	}
	return false
}

// copyCell copies value, formula, picture and style of src onto dst.
func copyCell(dst, src *Cell) {
	dst.Style = nil
	if src.Style != nil {
		dst.Style = src.Style.Clone()
	}
	dst.value = src.value
	if r, ok := src.value.(Rich); ok {
		dst.value = Rich{r.RichText.Clone()}
	}
	dst.formula = nil
	if src.formula != nil {
		f := *src.formula
		dst.formula = &f
	}
	dst.picture = src.picture
}

// cellSnapshot is a detached copy of a cell at an offset inside a range.
type cellSnapshot struct {
	dCol, dRow int
	cell       Cell
}

func (s *Sheet) snapshot(r ref.Range) []cellSnapshot {
	var out []cellSnapshot
	for _, c := range s.Cells() {
		col, row := c.columnNumber, c.row.rowNumber
		if r.Contains(col, row) {
			out = append(out, cellSnapshot{dCol: col - r.Start.Col, dRow: row - r.Start.Row, cell: *c})
		}
	}
	return out
}

func (s *Sheet) clearRange(r ref.Range) {
	for _, c := range s.Cells() {
		if r.Contains(c.columnNumber, c.row.rowNumber) {
			s.RemoveCell(c.columnNumber, c.row.rowNumber)
		}
	}
}

// pasteTarget parses src and the top-left corner of dst and checks that
// the pasted block stays on the sheet.
func pasteTarget(src, dst string) (from, to ref.Range, err error) {
	from, err = ref.ParseRange(src)
	if err != nil {
		return from, to, errors.Wrap(ErrBadReference, err.Error())
	}
	from = from.Normalize()
	if from.Start.Col == 0 || from.Start.Row == 0 {
		return from, to, badReference("whole row or column range %s", src)
	}
	at, err := ref.ParseRange(dst)
	if err != nil {
		return from, to, errors.Wrap(ErrBadReference, err.Error())
	}
	at = at.Normalize()
	to = ref.NewRange(at.Start.Col, at.Start.Row,
		at.Start.Col+from.Cols()-1, at.Start.Row+from.Rows()-1)
	if to.End.Col > ref.MaxColumns || to.End.Row > ref.MaxRows {
		return from, to, badReference("%s pasted at %s leaves the sheet", src, dst)
	}
	return from, to, nil
}

// CopyRange copies the cells of src so that its top-left cell lands on
// dst. Relative references of copied formulas shift with the cells, and
// merges inside src are copied too. Cells already in the target block are
// replaced.
func (s *Sheet) CopyRange(src, dst string) error {
	from, to, err := pasteTarget(src, dst)
	if err != nil {
		return err
	}
	dCol, dRow := to.Start.Col-from.Start.Col, to.Start.Row-from.Start.Row
	cells := s.snapshot(from)
	s.clearRange(to)
	for _, sc := range cells {
		c := s.Cell(to.Start.Col+sc.dCol, to.Start.Row+sc.dRow)
		copyCell(c, &sc.cell)
		if f := c.formula; f != nil {
			f.Text = ref.ShiftFormula(f.Text, dCol, dRow)
			if f.Ref != "" {
				f.Ref = shiftSqref(f.Ref, dCol, dRow)
			}
		}
	}
	s.pasteMerges(from, to, false)
	return nil
}

// MoveRange cuts the cells of src and pastes them at dst. Every reference
// in the workbook that pointed into src follows the cells; formulas of the
// moved cells otherwise keep their text.
func (s *Sheet) MoveRange(src, dst string) error {
	from, to, err := pasteTarget(src, dst)
	if err != nil {
		return err
	}
	dCol, dRow := to.Start.Col-from.Start.Col, to.Start.Row-from.Start.Row
	if dCol == 0 && dRow == 0 {
		return nil
	}
	move := func(f string, home string) string {
		return ref.MoveReferences(f, home, s.Name, from, dCol, dRow)
	}
	if wb := s.workbook; wb != nil {
		for _, dn := range wb.DefinedNames {
			home := ""
			if dn.Scope != nil {
				home = dn.Scope.Name
			}
			dn.RefersTo = move(dn.RefersTo, home)
		}
		wb.rewriteFormulas(func(f string, home *Sheet) string { return move(f, home.Name) })
	} else {
		s.rewriteFormulas(func(f string) string { return move(f, s.Name) })
	}

	cells := s.snapshot(from)
	s.clearRange(from)
	s.clearRange(to)
	for _, sc := range cells {
		c := s.Cell(to.Start.Col+sc.dCol, to.Start.Row+sc.dRow)
		copyCell(c, &sc.cell)
		if f := c.formula; f != nil && f.Ref != "" {
			f.Ref = shiftSqref(f.Ref, dCol, dRow)
		}
	}
	s.pasteMerges(from, to, true)
	for _, c := range s.Comments {
		if from.Contains(c.Col, c.Row) {
			c.Col += dCol
			c.Row += dRow
			c.Box = nil
		}
	}
	for _, h := range s.Hyperlinks {
		if r, err := ref.ParseRange(h.Ref); err == nil && from.Contains(r.Start.Col, r.Start.Row) {
			h.Ref = shiftSqref(h.Ref, dCol, dRow)
		}
	}
	return nil
}

// pasteMerges drops merges overlapping the target block and recreates the
// merges of from at the target. With cut set the source merges go away.
func (s *Sheet) pasteMerges(from, to ref.Range, cut bool) {
	dCol, dRow := to.Start.Col-from.Start.Col, to.Start.Row-from.Start.Row
	var moved, kept []ref.Range
	for _, m := range s.MergeCells {
		inside := from.Contains(m.Start.Col, m.Start.Row) && from.Contains(m.End.Col, m.End.Row)
		if inside {
			moved = append(moved, ref.NewRange(m.Start.Col+dCol, m.Start.Row+dRow, m.End.Col+dCol, m.End.Row+dRow))
			if cut {
				continue
			}
		}
		if !m.Overlaps(to) {
			kept = append(kept, m)
		}
	}
	s.MergeCells = append(kept, moved...)
}

func shiftSqref(sqref string, dCol, dRow int) string {
	rs, err := ref.ParseSqref(sqref)
	if err != nil {
		return sqref
	}
	for i, r := range rs {
		rs[i] = ref.NewRange(r.Start.Col+dCol, r.Start.Row+dRow, r.End.Col+dCol, r.End.Row+dRow)
	}
	return ref.FormatSqref(rs)
}
