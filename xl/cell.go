package xl

import (
	"strconv"
	"time"

	"github.com/adnsv/go-xlsx/ref"
)

// Cell is one cell of a sheet. Cells are created through their row or
// sheet and keep a back pointer to it.
type Cell struct {
	// Style is the cell format; nil means the workbook default.
	Style *Style

	row          *Row
	columnNumber int // 1-based
	value        Value
	formula      *Formula
	picture      *PictureInfo
}

// PictureInfo is an image placed inside a cell.
type PictureInfo struct {
	Extension string
	Blob      []byte
}

// FormulaType distinguishes ordinary, array and data-table formulas.
type FormulaType string

const (
	FormulaNormal    FormulaType = ""
	FormulaArray     FormulaType = "array"
	FormulaDataTable FormulaType = "dataTable"
)

// Formula is the formula of a cell. Shared formulas are expanded into one
// normal formula per cell on load.
type Formula struct {
	Text string // without the leading "="
	Type FormulaType
	// Ref is the range an array or data-table formula spills into.
	Ref string
	// CalculateAlways forces recalculation on open.
	CalculateAlways bool
}

// Column returns the 1-based column number.
func (c *Cell) Column() int { return c.columnNumber }

// RowNumber returns the 1-based row number.
func (c *Cell) RowNumber() int { return c.row.rowNumber }

// Row returns the owning row.
func (c *Cell) Row() *Row { return c.row }

// Coord returns the A1-style coordinate of the cell.
func (c *Cell) Coord() string {
	return CellCoordAsString(c.columnNumber, c.row.rowNumber)
}

// Address returns the cell address without a sheet name.
func (c *Cell) Address() ref.Address {
	return ref.NewAddress(c.columnNumber, c.row.rowNumber)
}

// Type returns the type of the raw value.
func (c *Cell) Type() CellType {
	return c.Value().Type()
}

// Value returns the raw value; never nil.
func (c *Cell) Value() Value {
	if c.value == nil {
		return Empty{}
	}
	return c.value
}

// SetValue replaces the raw value and keeps the formula.
func (c *Cell) SetValue(v Value) {
	if r, ok := v.(Rich); ok && r.RichText == nil {
		v = Empty{}
	}
	c.value = v
	c.picture = nil
}

// Clear removes the value, the formula and the picture. The style stays.
func (c *Cell) Clear() {
	c.value = nil
	c.formula = nil
	c.picture = nil
}

// IsEmpty reports a cell without value, formula, picture or style.
func (c *Cell) IsEmpty() bool {
	return c.Type() == CellTypeUnset && c.formula == nil && c.picture == nil && c.Style == nil
}

func (c *Cell) SetBool(v bool) {
	c.SetValue(Bool(v))
}

func (c *Cell) SetInt(v int64) {
	c.SetValue(Number(float64(v)))
}

func (c *Cell) SetFloat(v float64) {
	c.SetValue(Number(v))
}

// SetStr stores text through the shared string table.
func (c *Cell) SetStr(v string) {
	c.SetValue(String(v))
}

// SetInlineStr stores text inside the cell element.
func (c *Cell) SetInlineStr(v string) {
	c.SetValue(InlineString(v))
}

// SetRichText stores formatted text through the shared string table.
func (c *Cell) SetRichText(rt *RichText) {
	c.SetValue(Rich{rt})
}

// SetError stores an error literal.
func (c *Cell) SetError(e ErrorValue) {
	c.SetValue(e)
}

// SetTime stores t as a serial date. A cell without a number format gets
// the built-in date-time format.
func (c *Cell) SetTime(t time.Time) {
	c.SetValue(Number(TimeToSerial(t, c.date1904())))
	if c.Style == nil || c.Style.NumFmt == nil {
		s := c.Style.Clone()
		s.NumFmt = NumFmtDateTime
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			s.NumFmt = NumFmtDate
		}
		c.Style = s
	}
}

// SetFormula sets a normal formula. A leading "=" is dropped. The cached
// value is cleared.
func (c *Cell) SetFormula(text string) {
	c.SetFormulaInfo(&Formula{Text: text})
}

// SetFormulaInfo sets a formula with its attributes.
func (c *Cell) SetFormulaInfo(f *Formula) {
	if f == nil {
		c.formula = nil
		return
	}
	if len(f.Text) > 0 && f.Text[0] == '=' {
		f.Text = f.Text[1:]
	}
	c.formula = f
	c.value = nil
	c.picture = nil
}

// Formula returns the formula text or "".
func (c *Cell) Formula() string {
	if c.formula == nil {
		return ""
	}
	return c.formula.Text
}

// FormulaInfo returns the formula with its attributes or nil.
func (c *Cell) FormulaInfo() *Formula {
	return c.formula
}

// HasFormula reports a cell with a formula.
func (c *Cell) HasFormula() bool {
	return c.formula != nil
}

// String returns the display text of the raw value. Numbers are printed
// in their shortest form without applying the number format.
func (c *Cell) String() string {
	return c.Value().Text()
}

// Float returns the numeric projection of the value.
func (c *Cell) Float() (float64, bool) {
	return NumberOf(c.Value())
}

// Int returns the value truncated to an integer.
func (c *Cell) Int() (int64, bool) {
	f, ok := NumberOf(c.Value())
	return int64(f), ok
}

// Bool returns the boolean value; numbers are true when non-zero.
func (c *Cell) Bool() (bool, bool) {
	switch v := c.Value().(type) {
	case Bool:
		return bool(v), true
	case Number:
		return v != 0, true
	}
	return false, false
}

// Time interprets the numeric value as a serial date of the owning
// workbook's date system.
func (c *Cell) Time() (time.Time, bool) {
	f, ok := NumberOf(c.Value())
	if !ok {
		return time.Time{}, false
	}
	return SerialToTime(f, c.date1904()), true
}

// IsDate reports a numeric cell whose number format renders a date.
func (c *Cell) IsDate() bool {
	if c.Type() != CellTypeNumber || c.Style == nil {
		return false
	}
	return c.Style.NumFmt.IsDate()
}

// RichText returns the value as rich text; plain text becomes one run.
func (c *Cell) RichText() *RichText {
	return RichTextOf(c.Value())
}

// SetPicture places an image in the cell. The cell is written as a rich
// value that spreadsheet applications render as a picture.
func (c *Cell) SetPicture(p *PictureInfo) {
	c.value = nil
	c.formula = nil
	c.picture = p
}

// Picture returns the in-cell image or nil.
func (c *Cell) Picture() *PictureInfo {
	return c.picture
}

func (c *Cell) date1904() bool {
	if c.row == nil || c.row.sheet == nil || c.row.sheet.workbook == nil {
		return false
	}
	return c.row.sheet.workbook.Date1904
}

// numberText formats a value for the <v> element.
func numberText(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
