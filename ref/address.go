package ref

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Address is a cell coordinate with optional sheet scope and per-axis
// absolute markers. A zero Col means a whole-row reference and a zero Row a
// whole-column reference.
type Address struct {
	Sheet   string
	Col     int
	Row     int
	ColLock bool
	RowLock bool
}

// NewAddress returns a relative address on the current sheet.
func NewAddress(col, row int) Address {
	return Address{Col: col, Row: row}
}

// ParseAddress decodes "B7", "$B$7" or "'My Sheet'!B7".
func ParseAddress(s string) (Address, error) {
	sheet, coord := SplitAddress(s)
	a, err := parseCoordinate(coord)
	if err != nil {
		return Address{}, err
	}
	a.Sheet = sheet
	return a, nil
}

// Coordinate formats the address without its sheet.
func (a Address) Coordinate() string {
	var sb strings.Builder
	if a.Col > 0 {
		if a.ColLock {
			sb.WriteByte('$')
		}
		sb.WriteString(StringFromColumnIndex(a.Col))
	}
	if a.Row > 0 {
		if a.RowLock {
			sb.WriteByte('$')
		}
		sb.WriteString(strconv.Itoa(a.Row))
	}
	return sb.String()
}

func (a Address) String() string {
	if a.Sheet == "" {
		return a.Coordinate()
	}
	return QuoteSheetName(a.Sheet) + "!" + a.Coordinate()
}

// Range is a rectangular pair of addresses.
type Range struct {
	Start Address
	End   Address
}

// NewRange builds a relative range from two corners.
func NewRange(col1, row1, col2, row2 int) Range {
	r := Range{Start: Address{Col: col1, Row: row1}, End: Address{Col: col2, Row: row2}}
	return r.Normalize()
}

// ParseRange decodes "A1:B2", "A1", "A:C", "3:5" with an optional sheet.
func ParseRange(s string) (Range, error) {
	sheet, body := SplitAddress(s)
	if body == "" {
		return Range{}, errors.Wrapf(ErrInvalid, "range %q", s)
	}
	first, second, ok := strings.Cut(body, ":")
	start, err := parseCoordinate(first)
	if err != nil {
		return Range{}, err
	}
	end := start
	if ok {
		end, err = parseCoordinate(second)
		if err != nil {
			return Range{}, err
		}
	}
	if (start.Col == 0) != (end.Col == 0) || (start.Row == 0) != (end.Row == 0) {
		return Range{}, errors.Wrapf(ErrInvalid, "range %q", s)
	}
	start.Sheet, end.Sheet = sheet, sheet
	return Range{Start: start, End: end}, nil
}

// MustParseRange is ParseRange for literals known to be valid.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Normalize orders the corners so Start is the top-left.
func (r Range) Normalize() Range {
	if r.Start.Col > r.End.Col {
		r.Start.Col, r.End.Col = r.End.Col, r.Start.Col
		r.Start.ColLock, r.End.ColLock = r.End.ColLock, r.Start.ColLock
	}
	if r.Start.Row > r.End.Row {
		r.Start.Row, r.End.Row = r.End.Row, r.Start.Row
		r.Start.RowLock, r.End.RowLock = r.End.RowLock, r.Start.RowLock
	}
	return r
}

// IsCell reports whether the range covers exactly one cell.
func (r Range) IsCell() bool {
	return r.Start.Col == r.End.Col && r.Start.Row == r.End.Row && r.Start.Col > 0 && r.Start.Row > 0
}

// Contains reports whether the cell lies inside the range.
func (r Range) Contains(col, row int) bool {
	if r.Start.Col > 0 && (col < r.Start.Col || col > r.End.Col) {
		return false
	}
	if r.Start.Row > 0 && (row < r.Start.Row || row > r.End.Row) {
		return false
	}
	return true
}

// Overlaps reports whether two ranges share at least one cell.
func (r Range) Overlaps(o Range) bool {
	if r.Start.Col > 0 && o.Start.Col > 0 && (r.End.Col < o.Start.Col || o.End.Col < r.Start.Col) {
		return false
	}
	if r.Start.Row > 0 && o.Start.Row > 0 && (r.End.Row < o.Start.Row || o.End.Row < r.Start.Row) {
		return false
	}
	return true
}

// Coordinate formats the range without its sheet, collapsing single cells.
func (r Range) Coordinate() string {
	a, b := r.Start.Coordinate(), r.End.Coordinate()
	if a == b && r.IsCell() {
		return a
	}
	return a + ":" + b
}

func (r Range) String() string {
	if r.Start.Sheet == "" {
		return r.Coordinate()
	}
	return QuoteSheetName(r.Start.Sheet) + "!" + r.Coordinate()
}

// Cols is the number of columns spanned.
func (r Range) Cols() int { return r.End.Col - r.Start.Col + 1 }

// Rows is the number of rows spanned.
func (r Range) Rows() int { return r.End.Row - r.Start.Row + 1 }

// ParseSqref decodes a space separated list of ranges ("A1:B2 D4").
func ParseSqref(s string) ([]Range, error) {
	var out []Range
	for _, f := range strings.Fields(s) {
		r, err := ParseRange(f)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FormatSqref is the inverse of ParseSqref.
func FormatSqref(rs []Range) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.Coordinate()
	}
	return strings.Join(parts, " ")
}
