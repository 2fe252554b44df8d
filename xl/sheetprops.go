package xl

import (
	"strconv"
	"strings"

	"github.com/adnsv/go-xlsx/ref"
)

// SheetFormat holds the sheet-wide row and column defaults.
type SheetFormat struct {
	DefaultRowHeight float64 // 0 selects 15 points
	DefaultColWidth  float64
	BaseColWidth     int
	CustomHeight     bool
	ZeroHeight       bool
	OutlineLevelRow  int
	OutlineLevelCol  int
}

// SheetView describes how the sheet is displayed.
type SheetView struct {
	TabSelected       bool
	HideGridLines     bool
	HideRowColHeaders bool
	HideZeros         bool
	RightToLeft       bool
	ZoomScale         int    // percent; 0 means 100
	View              string // normal, pageBreakPreview or pageLayout
	TopLeftCell       string
	Pane              *Pane
	Selections        []Selection
}

// Pane is a split or frozen pane.
type Pane struct {
	XSplit      float64
	YSplit      float64
	TopLeftCell string
	ActivePane  string // bottomRight, topRight, bottomLeft or topLeft
	State       string // split, frozen or frozenSplit
}

// Selection is the active cell and selected ranges of a pane.
type Selection struct {
	Pane       string
	ActiveCell string
	Sqref      []ref.Range
}

// FreezePanes freezes the leftmost cols columns and the topmost rows
// rows. Zero for both removes the pane.
func (s *Sheet) FreezePanes(cols, rows int) {
	if cols <= 0 && rows <= 0 {
		s.View.Pane = nil
		s.View.Selections = nil
		return
	}
	p := &Pane{
		XSplit:      float64(max(cols, 0)),
		YSplit:      float64(max(rows, 0)),
		TopLeftCell: CellCoordAsString(max(cols, 0)+1, max(rows, 0)+1),
		State:       "frozen",
	}
	switch {
	case cols > 0 && rows > 0:
		p.ActivePane = "bottomRight"
	case cols > 0:
		p.ActivePane = "topRight"
	default:
		p.ActivePane = "bottomLeft"
	}
	s.View.Pane = p
	s.View.Selections = []Selection{{Pane: p.ActivePane, ActiveCell: p.TopLeftCell,
		Sqref: []ref.Range{ref.MustParseRange(p.TopLeftCell)}}}
}

// Hyperlink links a range either to an external target or to a location
// inside the workbook.
type Hyperlink struct {
	Ref      string
	Target   string // external URI, written through a relationship
	Location string // internal location such as "Sheet2!A1"
	Tooltip  string
	Display  string
}

// DataValidation restricts the values accepted by a set of ranges.
type DataValidation struct {
	Sqref            []ref.Range
	Type             string // whole, decimal, list, date, time, textLength or custom
	Operator         string // between (default), notBetween, equal, ...
	ErrorStyle       string // stop (default), warning or information
	AllowBlank       bool
	ShowDropDownOff  bool // hides the in-cell list arrow
	ShowInputMessage bool
	ShowErrorMessage bool
	ErrorTitle       string
	Error            string
	PromptTitle      string
	Prompt           string
	Formula1         string
	Formula2         string
}

// AddDataValidation attaches a validation to a space separated range list.
func (s *Sheet) AddDataValidation(sqref string, dv *DataValidation) error {
	rs, err := ref.ParseSqref(sqref)
	if err != nil {
		return badReference("%v", err)
	}
	dv.Sqref = rs
	s.Validations = append(s.Validations, dv)
	return nil
}

// ConditionalFormat is a block of rules applied to a set of ranges.
type ConditionalFormat struct {
	Sqref []ref.Range
	Rules []*ConditionalRule
}

// ConditionalRule is one cfRule.
type ConditionalRule struct {
	Type       string // cellIs, expression, colorScale, dataBar, top10, containsText, ...
	Operator   string
	Priority   int
	StopIfTrue bool
	Text       string
	Rank       int
	Percent    bool
	Bottom     bool
	Formulas   []string
	Format     *DifferentialStyle
	ColorScale *ColorScale
	DataBar    *DataBar
}

// Cfvo is a conditional-format value object.
type Cfvo struct {
	Type string // min, max, num, percent, percentile or formula
	Val  string
}

// ColorScale maps values to a two or three color gradient.
type ColorScale struct {
	Cfvos  []Cfvo
	Colors []*Color
}

// DataBar draws a bar proportional to the value.
type DataBar struct {
	Cfvos []Cfvo
	Color *Color
}

// AddConditionalFormat attaches rules to a space separated range list.
// Rules without a priority are numbered after the existing ones.
func (s *Sheet) AddConditionalFormat(sqref string, rules ...*ConditionalRule) error {
	rs, err := ref.ParseSqref(sqref)
	if err != nil {
		return badReference("%v", err)
	}
	next := 1
	for _, cf := range s.Conditionals {
		for _, r := range cf.Rules {
			next = max(next, r.Priority+1)
		}
	}
	for _, r := range rules {
		if r.Priority == 0 {
			r.Priority = next
			next++
		}
	}
	s.Conditionals = append(s.Conditionals, &ConditionalFormat{Sqref: rs, Rules: rules})
	return nil
}

// AutoFilter is the filter range of a sheet or a table.
type AutoFilter struct {
	Ref     ref.Range
	Columns []FilterColumn
}

// FilterColumn filters one column of an auto filter by value.
type FilterColumn struct {
	ColID  int // 0-based offset inside the filter range
	Values []string
	Blank  bool
}

// SheetProtection prevents editing. The zero value protects everything
// except selection.
type SheetProtection struct {
	// PasswordHash is the legacy 16-bit hash in hex; see SetPassword.
	PasswordHash string

	Objects   bool
	Scenarios bool

	AllowFormatCells      bool
	AllowFormatColumns    bool
	AllowFormatRows       bool
	AllowInsertColumns    bool
	AllowInsertRows       bool
	AllowInsertHyperlinks bool
	AllowDeleteColumns    bool
	AllowDeleteRows       bool
	AllowSort             bool
	AllowAutoFilter       bool
	AllowPivotTables      bool
	DenySelectLocked      bool
	DenySelectUnlocked    bool
}

// SetPassword stores the legacy hash of password.
func (p *SheetProtection) SetPassword(password string) {
	p.PasswordHash = LegacyPasswordHash(password)
}

// LegacyPasswordHash computes the 16-bit password verifier used by sheet
// and workbook protection records.
func LegacyPasswordHash(password string) string {
	h := 0
	i := 0
	for _, c := range password {
		i++
		v := int(c) << i
		rotated := v >> 15
		v &= 0x7fff
		h ^= v | rotated
	}
	h ^= i
	h ^= 0xCE4B
	return strings.ToUpper(strconv.FormatInt(int64(h), 16))
}

// PageMargins are in inches.
type PageMargins struct {
	Left, Right, Top, Bottom, Header, Footer float64
}

// DefaultPageMargins returns the margins of a new sheet.
func DefaultPageMargins() *PageMargins {
	return &PageMargins{Left: 0.7, Right: 0.7, Top: 0.75, Bottom: 0.75, Header: 0.3, Footer: 0.3}
}

// PageSetup controls printing.
type PageSetup struct {
	PaperSize       int    // 1 is Letter, 9 is A4
	Orientation     string // portrait or landscape
	Scale           int    // percent
	FitToPage       bool
	FitToWidth      int
	FitToHeight     int
	FirstPageNumber int
	HorizontalDPI   int
	VerticalDPI     int
}

// PrintOptions selects what is printed besides cell content.
type PrintOptions struct {
	GridLines          bool
	Headings           bool
	HorizontalCentered bool
	VerticalCentered   bool
}

// HeaderFooter holds page header and footer format strings.
type HeaderFooter struct {
	DifferentOddEven bool
	DifferentFirst   bool
	OddHeader        string
	OddFooter        string
	EvenHeader       string
	EvenFooter       string
	FirstHeader      string
	FirstFooter      string
}
