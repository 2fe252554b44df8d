package xl

import (
	"strconv"

	"github.com/adnsv/go-xlsx/ref"
)

// InsertRows inserts count empty rows before row root. Everything at or
// below root moves down, and every reference to it in the workbook is
// rewritten.
func (s *Sheet) InsertRows(root, count int) {
	s.adjust(ref.InsertRows(s.Name, root, count))
}

// RemoveRows deletes count rows starting at root. Cells in the band are
// dropped and references to them become #REF!.
func (s *Sheet) RemoveRows(root, count int) {
	s.adjust(ref.RemoveRows(s.Name, root, count))
}

// InsertCols inserts count empty columns before column root.
func (s *Sheet) InsertCols(root, count int) {
	s.adjust(ref.InsertCols(s.Name, root, count))
}

// RemoveCols deletes count columns starting at root.
func (s *Sheet) RemoveCols(root, count int) {
	s.adjust(ref.RemoveCols(s.Name, root, count))
}

func (s *Sheet) adjust(e ref.Edit) {
	if e.Root < 1 {
		panic("invalid " + e.Axis.String() + " index " + strconv.Itoa(e.Root))
	}
	if e.Empty() {
		return
	}

	// formula text first; it does not depend on where cells live
	if wb := s.workbook; wb != nil {
		for _, dn := range wb.DefinedNames {
			home := ""
			if dn.Scope != nil {
				home = dn.Scope.Name
			}
			dn.RefersTo = e.AdjustFormula(dn.RefersTo, home)
		}
		wb.rewriteFormulas(func(f string, home *Sheet) string {
			return e.AdjustFormula(f, home.Name)
		})
		for _, pc := range wb.PivotCaches {
			if pc.SourceSheet == s.Name {
				if r, ok := e.AdjustRange(pc.SourceRef); ok {
					pc.SourceRef = r
				}
			}
		}
	} else {
		s.rewriteFormulas(func(f string) string { return e.AdjustFormula(f, s.Name) })
	}

	s.moveCells(e)
	s.adjustColumns(e)

	s.MergeCells = dropSingleCells(e.AdjustRanges(s.MergeCells))
	s.Conditionals = adjustBlocks(s.Conditionals, e,
		func(cf *ConditionalFormat) *[]ref.Range { return &cf.Sqref })
	s.Validations = adjustBlocks(s.Validations, e,
		func(dv *DataValidation) *[]ref.Range { return &dv.Sqref })

	links := s.Hyperlinks[:0]
	for _, h := range s.Hyperlinks {
		r, err := ref.ParseRange(h.Ref)
		if err != nil {
			links = append(links, h)
			continue
		}
		if r, ok := e.AdjustRange(r); ok {
			h.Ref = r.Coordinate()
			links = append(links, h)
		}
	}
	s.Hyperlinks = links

	if s.AutoFilter != nil && !adjustAutoFilter(s.AutoFilter, e) {
		s.AutoFilter = nil
	}

	tables := s.Tables[:0]
	for _, t := range s.Tables {
		if adjustTable(t, e) {
			tables = append(tables, t)
		}
	}
	s.Tables = tables

	pivots := s.PivotTables[:0]
	for _, pt := range s.PivotTables {
		if r, ok := e.AdjustRange(pt.Location); ok {
			pt.Location = r
			pivots = append(pivots, pt)
		}
	}
	s.PivotTables = pivots

	comments := s.Comments[:0]
	for _, c := range s.Comments {
		if adjustComment(c, e) {
			comments = append(comments, c)
		}
	}
	s.Comments = comments

	if s.Drawing != nil {
		anchors := s.Drawing.Anchors[:0]
		for _, a := range s.Drawing.Anchors {
			if adjustAnchor(a, e) {
				anchors = append(anchors, a)
			}
		}
		s.Drawing.Anchors = anchors
	}

	s.adjustView(e)
}

// rewriteFormulas is the single-sheet form of Workbook.rewriteFormulas,
// for sheets detached from a workbook.
func (s *Sheet) rewriteFormulas(fn func(string) string) {
	wb := &Workbook{Sheets: []*Sheet{s}}
	wb.rewriteFormulas(func(f string, _ *Sheet) string { return fn(f) })
}

// moveCells re-keys rows or cells. Cells in a removed band, or pushed past
// the sheet edge, are dropped.
func (s *Sheet) moveCells(e ref.Edit) {
	if e.Axis == ref.Rows {
		rows := make(map[int]*Row, len(s.rows))
		for n, r := range s.rows {
			if nn, ok := e.Index(n); ok {
				r.rowNumber = nn
				rows[nn] = r
			}
		}
		s.rows = rows
		s.resetNext()
	} else {
		for _, r := range s.rows {
			cells := make(map[int]*Cell, len(r.cells))
			for col, c := range r.cells {
				if nc, ok := e.Index(col); ok {
					cells[nc] = c
				}
			}
			r.rekey(cells)
		}
	}
	for _, c := range s.Cells() {
		if f := c.formula; f != nil && f.Ref != "" {
			f.Ref = e.AdjustSqref(f.Ref)
		}
	}
}

func (s *Sheet) adjustColumns(e ref.Edit) {
	if e.Axis != ref.Columns {
		return
	}
	cols := make(map[int]*Column, len(s.Columns))
	for n, c := range s.Columns {
		if nn, ok := e.Index(n); ok {
			cols[nn] = c
		}
	}
	s.Columns = cols
}

func (s *Sheet) adjustView(e ref.Edit) {
	moveCoord := func(coord string) string {
		a, err := ref.ParseAddress(coord)
		if err != nil {
			return coord
		}
		if na, ok := e.AdjustAddress(a); ok {
			return na.Coordinate()
		}
		return coord
	}
	v := &s.View
	if v.TopLeftCell != "" {
		v.TopLeftCell = moveCoord(v.TopLeftCell)
	}
	for i := range v.Selections {
		sel := &v.Selections[i]
		if sel.ActiveCell != "" {
			sel.ActiveCell = moveCoord(sel.ActiveCell)
		}
		if rs := e.AdjustRanges(sel.Sqref); len(rs) > 0 {
			sel.Sqref = rs
		} else if sel.ActiveCell != "" {
			sel.Sqref = []ref.Range{ref.MustParseRange(sel.ActiveCell)}
		}
	}
}

func dropSingleCells(rs []ref.Range) []ref.Range {
	out := rs[:0]
	for _, r := range rs {
		if !r.IsCell() {
			out = append(out, r)
		}
	}
	return out
}

// adjustBlocks rewrites the range list of every block and drops blocks
// left without ranges.
func adjustBlocks[T any](blocks []T, e ref.Edit, sqref func(T) *[]ref.Range) []T {
	out := blocks[:0]
	for _, b := range blocks {
		rs := sqref(b)
		*rs = e.AdjustRanges(*rs)
		if len(*rs) > 0 {
			out = append(out, b)
		}
	}
	return out
}

func adjustAutoFilter(af *AutoFilter, e ref.Edit) bool {
	old := af.Ref.Normalize()
	r, ok := e.AdjustRange(old)
	if !ok {
		return false
	}
	af.Ref = r
	if e.Axis != ref.Columns {
		return true
	}
	cols := af.Columns[:0]
	for _, fc := range af.Columns {
		if n, ok := e.Index(old.Start.Col + fc.ColID); ok {
			fc.ColID = n - r.Start.Col
			cols = append(cols, fc)
		}
	}
	af.Columns = cols
	return true
}

// adjustTable moves the table range. Removing columns drops their column
// descriptors; inserting inside the table adds uniquely named ones.
func adjustTable(t *Table, e ref.Edit) bool {
	old := t.Ref.Normalize()
	r, ok := e.AdjustRange(old)
	if !ok {
		return false
	}
	t.Ref = r
	if e.Axis != ref.Columns {
		return true
	}
	if e.Remove {
		cols := t.Columns[:0]
		for i, c := range t.Columns {
			if _, ok := e.Index(old.Start.Col + i); ok {
				cols = append(cols, c)
			}
		}
		t.Columns = cols
		return len(cols) > 0
	}
	if e.Root <= old.Start.Col || e.Root > old.End.Col {
		return true
	}
	width := r.End.Col - r.Start.Col + 1
	used := map[string]bool{}
	for _, c := range t.Columns {
		used[c.Name] = true
	}
	added := make([]*TableColumn, 0, e.Count)
	for n := 1; len(added) < e.Count; n++ {
		name := "Column" + strconv.Itoa(n)
		if !used[name] {
			used[name] = true
			added = append(added, &TableColumn{Name: name})
		}
	}
	at := min(e.Root-old.Start.Col, len(t.Columns))
	t.Columns = append(t.Columns[:at], append(added, t.Columns[at:]...)...)
	if len(t.Columns) > width {
		// clamped at the sheet edge
		t.Columns = t.Columns[:width]
	}
	return true
}

func adjustComment(c *Comment, e ref.Edit) bool {
	a, ok := e.AdjustAddress(ref.NewAddress(c.Col, c.Row))
	if !ok {
		return false
	}
	c.Col, c.Row = a.Col, a.Row
	if b := c.Box; b != nil {
		// the box stores 0-based indices
		lo, hi := &b.LeftCol, &b.RightCol
		if e.Axis == ref.Rows {
			lo, hi = &b.TopRow, &b.BottomRow
		}
		if nlo, nhi, ok := e.Span(*lo+1, *hi+1); ok {
			*lo, *hi = nlo-1, nhi-1
		} else {
			c.Box = nil
		}
	}
	return true
}

// markerAxis returns the index and offset of a marker along the edited
// axis.
func markerAxis(m *Marker, e ref.Edit) (*int, *int64) {
	if e.Axis == ref.Rows {
		return &m.Row, &m.RowOff
	}
	return &m.Col, &m.ColOff
}

// moveMarker shifts a marker; a marker inside a removed band is clamped to
// the first cell after the band. A marker pushed off the sheet is clamped
// to the last cell and reported as lost.
func moveMarker(m *Marker, e ref.Edit) bool {
	n, off := markerAxis(m, e)
	nn, ok := e.Index(*n)
	if !ok {
		if !e.Remove {
			*n, *off = e.Limit(), 0
			return false
		}
		nn, *off = e.Root, 0
	}
	*n = nn
	return true
}

// adjustAnchor moves an anchor and reports whether it survives. A two-cell
// anchor whose cells all lie in a removed band is deleted; one that
// straddles the band is clamped. An anchor whose top-left cell is pushed
// off the sheet is deleted.
func adjustAnchor(a *Anchor, e ref.Edit) bool {
	switch a.Kind {
	case AbsoluteAnchor:
		return true
	case OneCellAnchor:
		return moveMarker(&a.From, e)
	}

	from, _ := markerAxis(&a.From, e)
	to, toOff := markerAxis(&a.To, e)
	first, last := *from, *to
	if *toOff == 0 && last > first {
		last-- // ends on the edge of the previous cell
	}
	if e.Remove && first >= e.Root && last < e.Root+e.Count {
		return false
	}

	if a.EditAs == "absolute" {
		return true
	}
	if a.EditAs == "oneCell" && !e.Remove {
		// moves with the top-left cell, never resizes
		old := *from
		if !moveMarker(&a.From, e) {
			return false
		}
		*to += *from - old
		if *to > e.Limit() {
			*to, *toOff = e.Limit(), 0
		}
		return true
	}
	if !moveMarker(&a.From, e) {
		return false
	}
	moveMarker(&a.To, e)
	return true
}
