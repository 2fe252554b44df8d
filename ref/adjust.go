package ref

// Axis selects rows or columns.
type Axis int

const (
	Rows Axis = iota
	Columns
)

func (a Axis) String() string {
	if a == Columns {
		return "columns"
	}
	return "rows"
}

// Edit describes one insertion or removal of Count rows or columns starting
// at Root on Sheet.
type Edit struct {
	Sheet  string
	Axis   Axis
	Root   int
	Count  int
	Remove bool
}

// InsertRows returns the edit inserting count rows before root.
func InsertRows(sheet string, root, count int) Edit {
	return Edit{Sheet: sheet, Axis: Rows, Root: root, Count: count}
}

// InsertCols returns the edit inserting count columns before root.
func InsertCols(sheet string, root, count int) Edit {
	return Edit{Sheet: sheet, Axis: Columns, Root: root, Count: count}
}

// RemoveRows returns the edit removing count rows starting at root.
func RemoveRows(sheet string, root, count int) Edit {
	return Edit{Sheet: sheet, Axis: Rows, Root: root, Count: count, Remove: true}
}

// RemoveCols returns the edit removing count columns starting at root.
func RemoveCols(sheet string, root, count int) Edit {
	return Edit{Sheet: sheet, Axis: Columns, Root: root, Count: count, Remove: true}
}

// Inverse undoes e: insert becomes remove of the same band and vice versa.
func (e Edit) Inverse() Edit {
	e.Remove = !e.Remove
	return e
}

// Empty reports an edit that changes nothing.
func (e Edit) Empty() bool {
	return e.Count <= 0
}

// Limit is the last valid index along the edited axis.
func (e Edit) Limit() int {
	if e.Axis == Rows {
		return MaxRows
	}
	return MaxColumns
}

// Index maps an index along the edited axis. The second result is false
// when the index falls inside a removed band or is pushed past Limit by an
// insertion. Zero (an absent axis on a whole-row or whole-column reference)
// is passed through.
func (e Edit) Index(n int) (int, bool) {
	if n == 0 || e.Count <= 0 {
		return n, true
	}
	if !e.Remove {
		if n < e.Root {
			return n, true
		}
		if n+e.Count > e.Limit() {
			return n, false
		}
		return n + e.Count, true
	}
	switch {
	case n < e.Root:
		return n, true
	case n >= e.Root+e.Count:
		return n - e.Count, true
	}
	return n, false
}

// Span maps the inclusive interval [lo, hi]. The surviving part is clamped
// to the removed band or to the sheet edge; ok is false when nothing
// survives.
func (e Edit) Span(lo, hi int) (int, int, bool) {
	if lo == 0 && hi == 0 {
		return 0, 0, true
	}
	if !e.Remove {
		nlo, ok := e.Index(lo)
		if !ok {
			return 0, 0, false
		}
		nhi, ok := e.Index(hi)
		if !ok {
			nhi = e.Limit()
		}
		return nlo, nhi, true
	}
	nlo, ok := e.Index(lo)
	if !ok {
		nlo = e.Root
	}
	nhi, ok := e.Index(hi)
	if !ok {
		nhi = e.Root - 1
	}
	if nlo > nhi {
		return 0, 0, false
	}
	return nlo, nhi, true
}

// Applies reports whether a reference scoped to sheet (empty meaning the
// sheet owning the reference, named home) is affected.
func (e Edit) Applies(sheet, home string) bool {
	if sheet == "" {
		sheet = home
	}
	return sheet == e.Sheet
}

func (e Edit) component(a Address) int {
	if e.Axis == Rows {
		return a.Row
	}
	return a.Col
}

func (e Edit) set(a *Address, v int) {
	if e.Axis == Rows {
		a.Row = v
	} else {
		a.Col = v
	}
}

// AdjustAddress moves a cell address; ok is false when the cell was removed
// or pushed off the sheet.
func (e Edit) AdjustAddress(a Address) (Address, bool) {
	n, ok := e.Index(e.component(a))
	if !ok {
		return a, false
	}
	e.set(&a, n)
	return a, true
}

// AdjustRange moves both corners of r, clamping a partially removed range.
func (e Edit) AdjustRange(r Range) (Range, bool) {
	lo, hi, ok := e.Span(e.component(r.Start), e.component(r.End))
	if !ok {
		return r, false
	}
	e.set(&r.Start, lo)
	e.set(&r.End, hi)
	return r, true
}

// AdjustRanges applies AdjustRange to each element and drops removed ones.
func (e Edit) AdjustRanges(rs []Range) []Range {
	out := rs[:0]
	for _, r := range rs {
		if nr, ok := e.AdjustRange(r); ok {
			out = append(out, nr)
		}
	}
	return out
}

// AdjustSqref rewrites a space separated range list. Unparsable input is
// returned unchanged.
func (e Edit) AdjustSqref(s string) string {
	rs, err := ParseSqref(s)
	if err != nil {
		return s
	}
	return FormatSqref(e.AdjustRanges(rs))
}
