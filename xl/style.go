package xl

import (
	"strconv"
	"strings"

	"github.com/tiendc/go-deepcopy"
)

// Color is a spreadsheet color. Exactly one of RGB, Theme, Indexed or Auto
// is normally set.
type Color struct {
	RGB     string // ARGB hex, e.g. "FFFF0000"
	Theme   *int
	Indexed *int
	Tint    float64
	Auto    bool
}

// RGBColor builds an opaque color from "RRGGBB" or "AARRGGBB".
func RGBColor(hex string) *Color {
	hex = strings.ToUpper(strings.TrimPrefix(hex, "#"))
	if len(hex) == 6 {
		hex = "FF" + hex
	}
	return &Color{RGB: hex}
}

// ThemeColor builds a theme-indexed color.
func ThemeColor(index int, tint float64) *Color {
	return &Color{Theme: &index, Tint: tint}
}

func (c *Color) key() string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(c.RGB)
	if c.Theme != nil {
		sb.WriteString("t" + strconv.Itoa(*c.Theme))
	}
	if c.Indexed != nil {
		sb.WriteString("x" + strconv.Itoa(*c.Indexed))
	}
	if c.Tint != 0 {
		sb.WriteString("~" + strconv.FormatFloat(c.Tint, 'f', -1, 64))
	}
	if c.Auto {
		sb.WriteString("a")
	}
	return sb.String()
}

// Pattern fill types (ST_PatternType).
const (
	PatternNone    = "none"
	PatternSolid   = "solid"
	PatternGray125 = "gray125"
)

// GradientStop is one color stop of a gradient fill.
type GradientStop struct {
	Position float64
	Color    *Color
}

// Fill is a pattern or gradient cell background.
type Fill struct {
	Pattern string // ST_PatternType; "" means none
	FgColor *Color
	BgColor *Color

	Gradient *Gradient
}

// Gradient describes a gradient fill.
type Gradient struct {
	Type   string // "linear" or "path"
	Degree float64
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
	Stops  []GradientStop
}

// SolidFill returns a solid pattern fill of the given color.
func SolidFill(c *Color) *Fill {
	return &Fill{Pattern: PatternSolid, FgColor: c}
}

func (f *Fill) key() string {
	if f == nil {
		f = &Fill{}
	}
	if g := f.Gradient; g != nil {
		var sb strings.Builder
		sb.WriteString("g:" + g.Type)
		for _, v := range []float64{g.Degree, g.Left, g.Right, g.Top, g.Bottom} {
			sb.WriteString("|" + strconv.FormatFloat(v, 'f', -1, 64))
		}
		for _, s := range g.Stops {
			sb.WriteString("|" + strconv.FormatFloat(s.Position, 'f', -1, 64) + "@" + s.Color.key())
		}
		return sb.String()
	}
	p := f.Pattern
	if p == "" {
		p = PatternNone
	}
	return p + "|" + f.FgColor.key() + "|" + f.BgColor.key()
}

// BorderLine is one edge of a border.
type BorderLine struct {
	Style string // ST_BorderStyle: thin, medium, dashed, double, ...
	Color *Color
}

func (b *BorderLine) key() string {
	if b == nil || b.Style == "" {
		return ""
	}
	return b.Style + "/" + b.Color.key()
}

// Border is the set of cell edges.
type Border struct {
	Left, Right, Top, Bottom, Diagonal *BorderLine

	DiagonalUp   bool
	DiagonalDown bool
}

func (b *Border) key() string {
	if b == nil {
		return ""
	}
	s := b.Left.key() + "|" + b.Right.key() + "|" + b.Top.key() + "|" + b.Bottom.key() + "|" + b.Diagonal.key()
	if b.DiagonalUp {
		s += "|u"
	}
	if b.DiagonalDown {
		s += "|d"
	}
	if strings.Trim(s, "|") == "" {
		return ""
	}
	return s
}

// Alignment holds cell text alignment.
type Alignment struct {
	Horizontal   string // general, left, center, right, fill, justify, ...
	Vertical     string // top, center, bottom, justify, distributed
	WrapText     bool
	ShrinkToFit  bool
	Indent       int
	TextRotation int
	ReadingOrder int
}

func (a *Alignment) key() string {
	if a == nil {
		return ""
	}
	h := a.Horizontal
	if h == "general" {
		h = ""
	}
	v := a.Vertical
	if v == "bottom" {
		v = ""
	}
	s := h + "|" + v + "|" + strconv.Itoa(a.Indent) + "|" + strconv.Itoa(a.TextRotation) + "|" + strconv.Itoa(a.ReadingOrder)
	if a.WrapText {
		s += "|w"
	}
	if a.ShrinkToFit {
		s += "|s"
	}
	if s == "||0|0|0" {
		return ""
	}
	return s
}

// Protection holds the cell locked and hidden flags. Cells are locked by
// default.
type Protection struct {
	Unlocked bool
	Hidden   bool
}

func (p *Protection) key() string {
	if p == nil || (!p.Unlocked && !p.Hidden) {
		return ""
	}
	s := ""
	if p.Unlocked {
		s += "u"
	}
	if p.Hidden {
		s += "h"
	}
	return s
}

// Style is the logical composition of everything a cell-format record
// references. A nil component means the default.
type Style struct {
	Font       *Font
	Fill       *Fill
	Border     *Border
	NumFmt     *NumberFormat
	Alignment  *Alignment
	Protection *Protection

	QuotePrefix bool
	// NamedStyle indexes Workbook.NamedStyles; 0 is "Normal".
	NamedStyle int
}

// Clone returns a deep copy of the style.
func (s *Style) Clone() *Style {
	if s == nil {
		return &Style{}
	}
	var c Style
	if err := deepcopy.Copy(&c, s); err != nil {
		// a plain struct of pointers always copies
		panic(err)
	}
	return &c
}

// IsDefault reports a style equivalent to cell-format record 0.
func (s *Style) IsDefault() bool {
	return s == nil || s.key() == (&Style{}).key()
}

func (s *Style) key() string {
	if s == nil {
		s = &Style{}
	}
	font := ""
	if s.Font != nil {
		font = s.Font.key()
	} else {
		font = (&Font{}).key()
	}
	var sb strings.Builder
	sb.WriteString(font)
	sb.WriteString("#" + s.Fill.key())
	sb.WriteString("#" + s.Border.key())
	sb.WriteString("#" + s.NumFmt.key())
	sb.WriteString("#" + s.Alignment.key())
	sb.WriteString("#" + s.Protection.key())
	if s.QuotePrefix {
		sb.WriteString("#q")
	}
	sb.WriteString("#" + strconv.Itoa(s.NamedStyle))
	return sb.String()
}

// NamedStyle is an entry of the cell-style pool (cellStyleXfs/cellStyles).
type NamedStyle struct {
	Name      string
	BuiltinID *int
	Style     *Style
}

// DifferentialStyle is a partial style applied by conditional formats and
// tables (a dxf record).
type DifferentialStyle struct {
	Font      *Font
	Fill      *Fill
	Border    *Border
	NumFmt    *NumberFormat
	Alignment *Alignment
}

func (d *DifferentialStyle) key() string {
	if d == nil {
		return ""
	}
	font := ""
	if d.Font != nil {
		font = d.Font.key()
	}
	return font + "#" + d.Fill.key() + "#" + d.Border.key() + "#" + d.NumFmt.key() + "#" + d.Alignment.key()
}
