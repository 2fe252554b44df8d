package xl

import (
	"strconv"
	"strings"
)

// CellType is the type of cell value type.
type CellType int

// Cell value types enumeration.
const (
	CellTypeUnset CellType = iota
	CellTypeBool
	CellTypeError
	CellTypeInlineString
	CellTypeNumber
	CellTypeSharedString
	CellTypeRichText
	CellTypeSharedRef
	CellTypeLazy
	CellTypeFormulaString
)

func (t CellType) String() string {
	switch t {
	case CellTypeUnset:
		return "unset"
	case CellTypeBool:
		return "bool"
	case CellTypeError:
		return "error"
	case CellTypeInlineString:
		return "inlineString"
	case CellTypeNumber:
		return "number"
	case CellTypeSharedString:
		return "sharedString"
	case CellTypeRichText:
		return "richText"
	case CellTypeSharedRef:
		return "sharedRef"
	case CellTypeLazy:
		return "lazy"
	case CellTypeFormulaString:
		return "formulaString"
	}
	return "CellType(" + strconv.Itoa(int(t)) + ")"
}

// Value is the raw content of a cell. The set of implementations is closed.
type Value interface {
	Type() CellType
	// Text is the display projection of the value.
	Text() string
	value()
}

// Empty is the value of a cell without content.
type Empty struct{}

// Number is a numeric value.
type Number float64

// Bool is a boolean value.
type Bool bool

// String is text stored through the shared string table.
type String string

// InlineString is text stored inside the cell element.
type InlineString string

// Rich is formatted text stored through the shared string table.
type Rich struct{ *RichText }

// ErrorValue is an error literal such as "#REF!" or "#DIV/0!".
type ErrorValue string

// SharedRef is a shared-string index that has not been resolved.
type SharedRef int

// Lazy is a value token kept as read because it could not be typed.
type Lazy string

// FormulaString is the cached string result of a formula (t="str").
type FormulaString string

func (Empty) Type() CellType         { return CellTypeUnset }
func (Number) Type() CellType        { return CellTypeNumber }
func (Bool) Type() CellType          { return CellTypeBool }
func (String) Type() CellType        { return CellTypeSharedString }
func (InlineString) Type() CellType  { return CellTypeInlineString }
func (Rich) Type() CellType          { return CellTypeRichText }
func (ErrorValue) Type() CellType    { return CellTypeError }
func (SharedRef) Type() CellType     { return CellTypeSharedRef }
func (Lazy) Type() CellType          { return CellTypeLazy }
func (FormulaString) Type() CellType { return CellTypeFormulaString }

func (Empty) Text() string           { return "" }
func (v Number) Text() string        { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v String) Text() string        { return string(v) }
func (v InlineString) Text() string  { return string(v) }
func (v ErrorValue) Text() string    { return string(v) }
func (v SharedRef) Text() string     { return "" }
func (v Lazy) Text() string          { return string(v) }
func (v FormulaString) Text() string { return string(v) }

func (v Bool) Text() string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (v Rich) Text() string {
	if v.RichText == nil {
		return ""
	}
	return v.RichText.Text()
}

func (Empty) value()         {}
func (Number) value()        {}
func (Bool) value()          {}
func (String) value()        {}
func (InlineString) value()  {}
func (Rich) value()          {}
func (ErrorValue) value()    {}
func (SharedRef) value()     {}
func (Lazy) value()          {}
func (FormulaString) value() {}

// NumberOf projects a value onto a float. Booleans count as 0 and 1 and
// numeric text is parsed.
func NumberOf(v Value) (float64, bool) {
	switch v := v.(type) {
	case Number:
		return float64(v), true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	case Lazy, String, InlineString, FormulaString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
		return f, err == nil
	}
	return 0, false
}

// RichTextOf projects a value onto rich text; plain text becomes one run.
func RichTextOf(v Value) *RichText {
	switch v := v.(type) {
	case Rich:
		return v.RichText
	case Empty, SharedRef:
		return nil
	}
	return NewRichText(v.Text())
}

// IsString reports whether the value is emitted through the shared string
// table.
func IsString(v Value) bool {
	switch v.(type) {
	case String, Rich:
		return true
	}
	return false
}

// Error literals.
const (
	ErrorNull    ErrorValue = "#NULL!"
	ErrorDiv0    ErrorValue = "#DIV/0!"
	ErrorInvalid ErrorValue = "#VALUE!"
	ErrorRef     ErrorValue = "#REF!"
	ErrorName    ErrorValue = "#NAME?"
	ErrorNum     ErrorValue = "#NUM!"
	ErrorNA      ErrorValue = "#N/A"
)
