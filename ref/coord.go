// Package ref encodes and decodes cell coordinates, ranges and sheet-scoped
// addresses, and rewrites them when rows or columns are inserted or removed.
package ref

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	MaxColumns = 16384
	MaxRows    = 1048576
)

// ErrInvalid is returned for text that is not a coordinate or range.
var ErrInvalid = errors.New("invalid reference")

// StringFromColumnIndex converts a 1-based column number to its letters.
// It panics on a column number below 1.
func StringFromColumnIndex(n int) string {
	if n < 1 {
		panic("invalid column number")
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte((n-1)%26 + 'A')
		n = (n - 1) / 26
	}
	return string(buf[i:])
}

// ColumnIndexFromString converts column letters ("A", "xfd") to a 1-based
// column number.
func ColumnIndexFromString(s string) (int, error) {
	if s == "" || len(s) > 3 {
		return 0, errors.Wrapf(ErrInvalid, "column %q", s)
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			n = n*26 + int(c-'A') + 1
		case c >= 'a' && c <= 'z':
			n = n*26 + int(c-'a') + 1
		default:
			return 0, errors.Wrapf(ErrInvalid, "column %q", s)
		}
	}
	if n > MaxColumns {
		return 0, errors.Wrapf(ErrInvalid, "column %q out of range", s)
	}
	return n, nil
}

// CoordinateFromIndex formats a column/row pair as "B7".
func CoordinateFromIndex(col, row int) string {
	if row < 1 {
		panic("invalid row number")
	}
	return StringFromColumnIndex(col) + strconv.Itoa(row)
}

// CoordinateFromIndexWithLock formats a column/row pair with "$" markers.
func CoordinateFromIndexWithLock(col, row int, colLock, rowLock bool) string {
	var sb strings.Builder
	if colLock {
		sb.WriteByte('$')
	}
	sb.WriteString(StringFromColumnIndex(col))
	if rowLock {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.Itoa(row))
	return sb.String()
}

// IndexFromCoordinate decodes "$AA91" into (27, 91, true, false).
func IndexFromCoordinate(s string) (col, row int, colLock, rowLock bool, err error) {
	a, err := parseCoordinate(s)
	if err != nil {
		return 0, 0, false, false, err
	}
	if a.Col == 0 || a.Row == 0 {
		return 0, 0, false, false, errors.Wrapf(ErrInvalid, "coordinate %q", s)
	}
	return a.Col, a.Row, a.ColLock, a.RowLock, nil
}

// parseCoordinate accepts a full coordinate, a column only ("$C") or a row
// only ("$4"). Missing parts are returned as zero.
func parseCoordinate(s string) (Address, error) {
	var a Address
	i := 0
	if i < len(s) && s[i] == '$' {
		a.ColLock = true
		i++
	}
	j := i
	for j < len(s) && isLetter(s[j]) {
		j++
	}
	if j > i {
		col, err := ColumnIndexFromString(s[i:j])
		if err != nil {
			return Address{}, err
		}
		a.Col = col
	} else if a.ColLock {
		// "$4" is a locked row with no column part
		a.ColLock = false
		a.RowLock = true
	}
	i = j
	if i < len(s) && s[i] == '$' {
		if a.RowLock {
			return Address{}, errors.Wrapf(ErrInvalid, "coordinate %q", s)
		}
		a.RowLock = true
		i++
	}
	j = i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j != len(s) {
		return Address{}, errors.Wrapf(ErrInvalid, "coordinate %q", s)
	}
	if j > i {
		row, err := strconv.Atoi(s[i:j])
		if err != nil || row < 1 || row > MaxRows {
			return Address{}, errors.Wrapf(ErrInvalid, "row in %q", s)
		}
		a.Row = row
	} else if a.RowLock {
		return Address{}, errors.Wrapf(ErrInvalid, "coordinate %q", s)
	}
	if a.Col == 0 && a.Row == 0 {
		return Address{}, errors.Wrapf(ErrInvalid, "coordinate %q", s)
	}
	return a, nil
}

func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

// SplitAddress separates "Sheet1!$A$1:$B$2" into its sheet name (unquoted)
// and range text.
func SplitAddress(s string) (sheet, rng string) {
	i := strings.LastIndexByte(s, '!')
	if i < 0 {
		return "", s
	}
	return UnquoteSheetName(s[:i]), s[i+1:]
}

// QuoteSheetName wraps a sheet name in single quotes when it would not
// survive unquoted inside a formula.
func QuoteSheetName(name string) string {
	if name == "" || !needsQuotes(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// UnquoteSheetName strips the quoting applied by QuoteSheetName.
func UnquoteSheetName(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

func needsQuotes(name string) bool {
	if isDigit(name[0]) {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(isLetter(c) || isDigit(c) || c == '_' || c == '.' || c >= 0x80) {
			return true
		}
	}
	// names that read as a cell, like "A1", or as an R1C1 reference
	if a, err := parseCoordinate(name); err == nil && a.Col > 0 && a.Row > 0 {
		return true
	}
	return isR1C1(name)
}

// isR1C1 matches R, C, RC and their numbered forms such as R2, C3 or R1C1,
// in either case.
func isR1C1(s string) bool {
	i := 0
	digits := func() {
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'R' || s[i] == 'r') {
		i++
		digits()
	}
	if i < len(s) && (s[i] == 'C' || s[i] == 'c') {
		i++
		digits()
	}
	return i > 0 && i == len(s)
}
