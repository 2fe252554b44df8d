package ref

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/efp"
)

// RefError is the text written in place of a reference whose target was
// removed.
const RefError = "#REF!"

// AdjustFormula rewrites every reference in formula under e. home is the
// name of the sheet that owns the formula. String literals and quoted sheet
// names are copied verbatim.
func (e Edit) AdjustFormula(formula, home string) string {
	if e.Empty() {
		return formula
	}
	return rewriteFormula(formula, func(sheet string, r Range, isRange bool) (string, bool) {
		if !e.Applies(sheet, home) {
			return "", false
		}
		if isRange {
			nr, ok := e.AdjustRange(r)
			if !ok {
				return RefError, true
			}
			return nr.Coordinate2(), true
		}
		na, ok := e.AdjustAddress(r.Start)
		if !ok {
			return RefError, true
		}
		return na.Coordinate(), true
	})
}

// ShiftFormula moves the relative references of formula by the given row
// and column offsets, as when a formula is copied to another cell. Locked
// axes are left alone; references pushed off the sheet become #REF!.
func ShiftFormula(formula string, dCol, dRow int) string {
	if dCol == 0 && dRow == 0 {
		return formula
	}
	shift := func(a Address) (Address, bool) {
		if a.Col > 0 && !a.ColLock {
			a.Col += dCol
			if a.Col < 1 || a.Col > MaxColumns {
				return a, false
			}
		}
		if a.Row > 0 && !a.RowLock {
			a.Row += dRow
			if a.Row < 1 || a.Row > MaxRows {
				return a, false
			}
		}
		return a, true
	}
	return rewriteFormula(formula, func(sheet string, r Range, isRange bool) (string, bool) {
		s, ok := shift(r.Start)
		if !ok {
			return RefError, true
		}
		if !isRange {
			return s.Coordinate(), true
		}
		en, ok := shift(r.End)
		if !ok {
			return RefError, true
		}
		return Range{Start: s, End: en}.Coordinate2(), true
	})
}

// MoveReferences moves the references of formula that lie wholly inside
// src on sheet by the given offsets, locked or not, as when the cells of
// src are cut and pasted elsewhere. home is the sheet owning the formula.
func MoveReferences(formula, home, sheet string, src Range, dCol, dRow int) string {
	if formula == "" || (dCol == 0 && dRow == 0) {
		return formula
	}
	src = src.Normalize()
	return rewriteFormula(formula, func(s string, r Range, isRange bool) (string, bool) {
		if s == "" {
			s = home
		}
		if s != sheet || r.Start.Col == 0 || r.Start.Row == 0 {
			return "", false
		}
		if !src.Contains(r.Start.Col, r.Start.Row) || !src.Contains(r.End.Col, r.End.Row) {
			return "", false
		}
		for _, a := range []*Address{&r.Start, &r.End} {
			a.Col += dCol
			a.Row += dRow
			if a.Col < 1 || a.Col > MaxColumns || a.Row < 1 || a.Row > MaxRows {
				return RefError, true
			}
		}
		if !isRange {
			return r.Start.Coordinate(), true
		}
		return r.Coordinate2(), true
	})
}

// RenameSheet replaces references to sheet oldName with newName.
func RenameSheet(formula, oldName, newName string) string {
	var sb strings.Builder
	s := formula
	for len(s) > 0 {
		switch c := s[0]; {
		case c == '"':
			n := scanQuoted(s, '"')
			sb.WriteString(s[:n])
			s = s[n:]
		case c == '[':
			n := skipExternal(s)
			sb.WriteString(s[:n])
			s = s[n:]
		case c == '\'':
			n := scanQuoted(s, '\'')
			if n < len(s) && s[n] == '!' && UnquoteSheetName(s[:n]) == oldName {
				sb.WriteString(QuoteSheetName(newName))
			} else {
				sb.WriteString(s[:n])
			}
			s = s[n:]
		case isIdentStart(c) && (sb.Len() == 0 || !isIdentChar(formula[len(formula)-len(s)-1])):
			n := 0
			for n < len(s) && isIdentChar(s[n]) {
				n++
			}
			if n < len(s) && s[n] == '!' && s[:n] == oldName {
				sb.WriteString(QuoteSheetName(newName))
			} else {
				sb.WriteString(s[:n])
			}
			s = s[n:]
		default:
			sb.WriteByte(c)
			s = s[1:]
		}
	}
	return sb.String()
}

// InvalidateSheet replaces every reference to sheet with #REF!, as when
// the sheet is deleted.
func InvalidateSheet(formula, sheet string) string {
	if formula == "" {
		return formula
	}
	return rewriteFormula(formula, func(s string, _ Range, _ bool) (string, bool) {
		if s == "" || s != sheet {
			return "", false
		}
		return RefError, true
	})
}

// Coordinate2 formats a range always with both corners, as a formula
// expects after adjusting "A1:A2" to "A1:A1".
func (r Range) Coordinate2() string {
	return r.Start.Coordinate() + ":" + r.End.Coordinate()
}

// rewriteFormula walks formula and hands each reference token to fn. When
// fn returns ok the token (without its sheet prefix) is replaced by repl.
// A replacement of #REF! drops the sheet prefix along with the reference.
func rewriteFormula(formula string, fn func(sheet string, r Range, isRange bool) (repl string, ok bool)) string {
	var sb strings.Builder
	sb.Grow(len(formula))
	i := 0
	for i < len(formula) {
		c := formula[i]
		switch {
		case c == '"':
			n := scanQuoted(formula[i:], '"')
			sb.WriteString(formula[i : i+n])
			i += n
			continue
		case c == '\'':
			n := scanQuoted(formula[i:], '\'')
			if i+n < len(formula) && formula[i+n] == '!' {
				sheet := UnquoteSheetName(formula[i : i+n])
				if strings.HasPrefix(sheet, "[") {
					// '[2]Sheet1'!A3 lives in another workbook
					m, _, _ := matchReference(formula[i+n+1:])
					sb.WriteString(formula[i : i+n+1+m])
					i += n + 1 + m
					continue
				}
				if m, r, isRange := matchReference(formula[i+n+1:]); m > 0 {
					if repl, ok := fn(sheet, r, isRange); ok {
						if repl != RefError {
							sb.WriteString(formula[i : i+n+1])
						}
						sb.WriteString(repl)
					} else {
						sb.WriteString(formula[i : i+n+1+m])
					}
					i += n + 1 + m
					continue
				}
			}
			sb.WriteString(formula[i : i+n])
			i += n
			continue
		case c == '[':
			n := skipExternal(formula[i:])
			sb.WriteString(formula[i : i+n])
			i += n
			continue
		}
		if i > 0 && isIdentChar(formula[i-1]) {
			sb.WriteByte(c)
			i++
			continue
		}
		if isIdentStart(c) {
			// unquoted sheet prefix
			n := 0
			for i+n < len(formula) && isIdentChar(formula[i+n]) {
				n++
			}
			if i+n < len(formula) && formula[i+n] == '!' {
				sheet := formula[i : i+n]
				if m, r, isRange := matchReference(formula[i+n+1:]); m > 0 {
					if repl, ok := fn(sheet, r, isRange); ok {
						if repl != RefError {
							sb.WriteString(formula[i : i+n+1])
						}
						sb.WriteString(repl)
					} else {
						sb.WriteString(formula[i : i+n+1+m])
					}
					i += n + 1 + m
					continue
				}
			}
		}
		if c == '$' || isLetter(c) || isDigit(c) {
			if m, r, isRange := matchReference(formula[i:]); m > 0 {
				if repl, ok := fn("", r, isRange); ok {
					sb.WriteString(repl)
				} else {
					sb.WriteString(formula[i : i+m])
				}
				i += m
				continue
			}
			// copy the whole identifier or number so that its tail is
			// never mistaken for a reference
			n := 1
			for i+n < len(formula) && (isIdentChar(formula[i+n]) || (isDigit(c) && isNumberTail(formula, i+n))) {
				n++
			}
			sb.WriteString(formula[i : i+n])
			i += n
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

// matchReference recognizes a cell, cell range, column range or row range
// at the start of s. It returns the matched length.
func matchReference(s string) (int, Range, bool) {
	n1, a1 := matchCoord(s)
	if n1 == 0 {
		return 0, Range{}, false
	}
	if n1 < len(s) && s[n1] == ':' {
		n2, a2 := matchCoord(s[n1+1:])
		if n2 > 0 && (a1.Col == 0) == (a2.Col == 0) && (a1.Row == 0) == (a2.Row == 0) {
			end := n1 + 1 + n2
			if !terminates(s, end) {
				return 0, Range{}, false
			}
			return end, Range{Start: a1, End: a2}, true
		}
	}
	if a1.Col == 0 || a1.Row == 0 {
		// lone column or row fragments are names or numbers
		return 0, Range{}, false
	}
	if !terminates(s, n1) {
		return 0, Range{}, false
	}
	return n1, Range{Start: a1, End: a1}, false
}

// matchCoord matches $?[A-Z]{1,3}$?[0-9]+ or a lone column or row part.
func matchCoord(s string) (int, Address) {
	var a Address
	i := 0
	if i < len(s) && s[i] == '$' {
		a.ColLock = true
		i++
	}
	j := i
	for j < len(s) && s[j] >= 'A' && s[j] <= 'Z' && j-i < 4 {
		j++
	}
	if j-i > 3 {
		return 0, a
	}
	if j > i {
		col, err := ColumnIndexFromString(s[i:j])
		if err != nil {
			return 0, a
		}
		a.Col = col
	} else if a.ColLock {
		a.ColLock = false
		a.RowLock = true
	}
	i = j
	if i < len(s) && s[i] == '$' {
		if a.RowLock || a.Col == 0 {
			return 0, a
		}
		a.RowLock = true
		i++
	}
	j = i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j > i {
		row := 0
		for _, d := range s[i:j] {
			row = row*10 + int(d-'0')
			if row > MaxRows {
				return 0, a
			}
		}
		if row == 0 {
			return 0, a
		}
		a.Row = row
	} else if a.RowLock {
		return 0, a
	}
	if a.Col == 0 && a.Row == 0 {
		return 0, a
	}
	// a letter run directly followed by more letters is a name, not a column
	if j < len(s) && (isLetter(s[j]) || s[j] == '_') {
		return 0, a
	}
	return j, a
}

// terminates reports whether the reference ending at s[n] is not the head of
// a longer name or a function call.
func terminates(s string, n int) bool {
	if n >= len(s) {
		return true
	}
	c := s[n]
	return !(isIdentChar(c) || c == '(' || c == '!')
}

// skipExternal returns the length of the bracketed prefix at the start of
// s. An external book index such as [1] takes the sheet name, '!' and the
// reference or name that follow it along, since they belong to another
// workbook. A structured reference stops at its closing bracket.
func skipExternal(s string) int {
	n := strings.IndexByte(s, ']')
	if n < 0 {
		return len(s)
	}
	n++
	k := n
	for k < len(s) && isIdentChar(s[k]) {
		k++
	}
	if k >= len(s) || s[k] != '!' {
		return n
	}
	k++
	if m, _, _ := matchReference(s[k:]); m > 0 {
		return k + m
	}
	for k < len(s) && isIdentChar(s[k]) {
		k++
	}
	return k
}

func scanQuoted(s string, q byte) int {
	i := 1
	for i < len(s) {
		if s[i] == q {
			if i+1 < len(s) && s[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

func isIdentStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '\\' || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '.' || c == '\\' || c >= 0x80
}

// isNumberTail accepts the exponent part of a numeric literal such as 1E+5.
func isNumberTail(s string, i int) bool {
	c := s[i]
	if c == '+' || c == '-' {
		return i > 0 && (s[i-1] == 'E' || s[i-1] == 'e')
	}
	return false
}

// FormulaReferences lists the range operands of formula as tokenized by the
// Excel formula parser, in order of appearance.
func FormulaReferences(formula string) []string {
	if !strings.HasPrefix(formula, "=") {
		formula = "=" + formula
	}
	ps := efp.ExcelParser()
	var out []string
	for _, tok := range ps.Parse(formula) {
		if tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange {
			out = append(out, tok.TValue)
		}
	}
	return out
}

// CheckFormula tokenizes formula with the Excel formula parser and reports
// stray tokens and unbalanced parentheses or array braces.
func CheckFormula(formula string) error {
	if !strings.HasPrefix(formula, "=") {
		formula = "=" + formula
	}
	ps := efp.ExcelParser()
	depth := 0
	for _, tok := range ps.Parse(formula) {
		switch {
		case tok.TType == efp.TokenTypeUnknown:
			return errors.Wrapf(ErrInvalid, "unexpected %q in formula %q", tok.TValue, formula[1:])
		case tok.TType != efp.TokenTypeFunction && tok.TType != efp.TokenTypeSubexpression:
		case tok.TSubType == efp.TokenSubTypeStart:
			depth++
		case tok.TSubType == efp.TokenSubTypeStop:
			if depth--; depth < 0 {
				return errors.Wrapf(ErrInvalid, "unbalanced ')' in formula %q", formula[1:])
			}
		}
	}
	if depth != 0 {
		return errors.Wrapf(ErrInvalid, "unclosed '(' in formula %q", formula[1:])
	}
	return nil
}
