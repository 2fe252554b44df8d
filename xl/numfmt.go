package xl

import (
	"strconv"
	"strings"
)

// FirstCustomNumFmtID is the lowest identifier assigned to user formats.
const FirstCustomNumFmtID = 164

// NumberFormat is a cell number format. Built-in formats are identified by
// ID alone; any other Code is a user format whose ID is assigned on write.
type NumberFormat struct {
	ID   int
	Code string
}

var builtinNumFmts = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `"$"#,##0_);\("$"#,##0\)`,
	6:  `"$"#,##0_);[Red]\("$"#,##0\)`,
	7:  `"$"#,##0.00_);\("$"#,##0.00\)`,
	8:  `"$"#,##0.00_);[Red]\("$"#,##0.00\)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0 ;(#,##0)",
	38: "#,##0 ;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
}

var builtinNumFmtIDs = func() map[string]int {
	m := make(map[string]int, len(builtinNumFmts))
	for id, code := range builtinNumFmts {
		m[code] = id
	}
	return m
}()

// Frequently used formats.
var (
	NumFmtGeneral  = &NumberFormat{ID: 0}
	NumFmtInteger  = &NumberFormat{ID: 1}
	NumFmtDecimal2 = &NumberFormat{ID: 2}
	NumFmtPercent  = &NumberFormat{ID: 9}
	NumFmtPercent2 = &NumberFormat{ID: 10}
	NumFmtDate     = &NumberFormat{ID: 14}
	NumFmtDateTime = &NumberFormat{ID: 22}
	NumFmtText     = &NumberFormat{ID: 49}
)

// NewNumberFormat returns the format for code, resolving built-in codes to
// their reserved identifier.
func NewNumberFormat(code string) *NumberFormat {
	if id, ok := builtinNumFmtIDs[code]; ok {
		return &NumberFormat{ID: id, Code: code}
	}
	return &NumberFormat{Code: code}
}

// BuiltinNumberFormat returns the code of a reserved format.
func BuiltinNumberFormat(id int) (string, bool) {
	code, ok := builtinNumFmts[id]
	return code, ok
}

// builtin resolves f to a reserved identifier when it is one.
func (f *NumberFormat) builtin() (int, bool) {
	if f == nil {
		return 0, true
	}
	if f.Code == "" {
		if f.ID >= 0 && f.ID < FirstCustomNumFmtID {
			return f.ID, true
		}
		return 0, true
	}
	if id, ok := builtinNumFmtIDs[f.Code]; ok {
		return id, true
	}
	return 0, false
}

// FormatCode returns the code text, including that of built-in formats.
func (f *NumberFormat) FormatCode() string {
	if f == nil {
		return builtinNumFmts[0]
	}
	if f.Code != "" {
		return f.Code
	}
	return builtinNumFmts[f.ID]
}

func (f *NumberFormat) key() string {
	if id, ok := f.builtin(); ok {
		return "b" + strconv.Itoa(id)
	}
	return "c" + f.Code
}

// IsDate reports whether the format renders a date or a time.
func (f *NumberFormat) IsDate() bool {
	if f == nil {
		return false
	}
	if f.Code == "" || builtinNumFmts[f.ID] == f.Code {
		id := f.ID
		return id >= 14 && id <= 22 || id >= 27 && id <= 36 || id >= 45 && id <= 47 || id >= 50 && id <= 58
	}
	return IsDateFormatCode(f.Code)
}

// IsDateFormatCode scans a format code for date or time tokens outside of
// literals, colors and conditions.
func IsDateFormatCode(code string) bool {
	// only the first section decides
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '"':
			j := strings.IndexByte(code[i+1:], '"')
			if j < 0 {
				return false
			}
			i += j + 1
		case '\\', '_', '*':
			i++
		case '[':
			j := strings.IndexByte(code[i:], ']')
			if j < 0 {
				return false
			}
			tok := strings.ToLower(code[i+1 : i+j])
			if tok == "h" || tok == "hh" || tok == "m" || tok == "mm" || tok == "s" || tok == "ss" {
				return true
			}
			i += j
		case 'd', 'D', 'm', 'M', 'y', 'Y', 'h', 'H', 's', 'S':
			return true
		}
	}
	return false
}
