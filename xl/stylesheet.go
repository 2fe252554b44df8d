package xl

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/adnsv/srw/xml"

	"github.com/adnsv/go-xlsx/xlxml"
)

// xf is one cell-format record.
type xf struct {
	numFmtID    int
	fontID      int
	fillID      int
	borderID    int
	xfID        int
	alignment   *Alignment
	protection  *Protection
	quotePrefix bool
}

func (r *xf) key() string {
	var sb strings.Builder
	for _, n := range []int{r.numFmtID, r.fontID, r.fillID, r.borderID, r.xfID} {
		sb.WriteString(strconv.Itoa(n))
		sb.WriteByte('|')
	}
	sb.WriteString(r.alignment.key())
	sb.WriteByte('|')
	sb.WriteString(r.protection.key())
	if r.quotePrefix {
		sb.WriteString("|q")
	}
	return sb.String()
}

// styleSheet interns the styles met while the parts of one workbook are
// written. Every pool is keyed by semantic content, so writing the same
// model twice yields the same tables.
type styleSheet struct {
	defaultFont *Font

	numFmts   []*NumberFormat // user formats, ID assigned
	numFmtIDs map[string]int
	fonts     []*Font
	fontIDs   map[string]int
	fills     []*Fill
	fillIDs   map[string]int
	borders   []*Border
	borderIDs map[string]int

	named     []*NamedStyle
	styleXfs  []*xf
	cellXfs   []*xf
	cellXfIDs map[string]int
	dxfs      []*DifferentialStyle
	dxfIDs    map[string]int
}

func defaultNamedStyle() *NamedStyle {
	id := 0
	return &NamedStyle{Name: "Normal", BuiltinID: &id, Style: &Style{}}
}

func newStyleSheet(named []*NamedStyle) *styleSheet {
	if len(named) == 0 {
		named = []*NamedStyle{defaultNamedStyle()}
	}
	ss := &styleSheet{
		numFmtIDs: map[string]int{},
		fontIDs:   map[string]int{},
		fillIDs:   map[string]int{},
		borderIDs: map[string]int{},
		cellXfIDs: map[string]int{},
		dxfIDs:    map[string]int{},
		named:     named,
	}
	ss.defaultFont = &Font{}
	if st := named[0].Style; st != nil && st.Font != nil {
		ss.defaultFont = st.Font
	}
	ss.fontID(ss.defaultFont)
	ss.fillID(&Fill{})
	ss.fillID(&Fill{Pattern: PatternGray125})
	ss.borderID(&Border{})
	for _, ns := range named {
		ss.styleXfs = append(ss.styleXfs, ss.record(ns.Style, -1))
	}
	ss.xfID(nil)
	return ss
}

func (ss *styleSheet) numFmtID(f *NumberFormat) int {
	if id, ok := f.builtin(); ok {
		return id
	}
	k := f.key()
	if id, ok := ss.numFmtIDs[k]; ok {
		return id
	}
	id := FirstCustomNumFmtID + len(ss.numFmts)
	ss.numFmts = append(ss.numFmts, &NumberFormat{ID: id, Code: f.Code})
	ss.numFmtIDs[k] = id
	return id
}

func (ss *styleSheet) fontID(f *Font) int {
	if f == nil {
		f = ss.defaultFont
	}
	k := f.key()
	if id, ok := ss.fontIDs[k]; ok {
		return id
	}
	ss.fonts = append(ss.fonts, f)
	ss.fontIDs[k] = len(ss.fonts) - 1
	return len(ss.fonts) - 1
}

func (ss *styleSheet) fillID(f *Fill) int {
	if f == nil {
		f = &Fill{}
	}
	k := f.key()
	if id, ok := ss.fillIDs[k]; ok {
		return id
	}
	ss.fills = append(ss.fills, f)
	ss.fillIDs[k] = len(ss.fills) - 1
	return len(ss.fills) - 1
}

func (ss *styleSheet) borderID(b *Border) int {
	if b == nil {
		b = &Border{}
	}
	k := b.key()
	if id, ok := ss.borderIDs[k]; ok {
		return id
	}
	ss.borders = append(ss.borders, b)
	ss.borderIDs[k] = len(ss.borders) - 1
	return len(ss.borders) - 1
}

// record resolves the component ids of a style. xfID is -1 for entries of
// the named-style pool.
func (ss *styleSheet) record(s *Style, xfID int) *xf {
	if s == nil {
		s = &Style{}
	}
	r := &xf{
		numFmtID:    ss.numFmtID(s.NumFmt),
		fontID:      ss.fontID(s.Font),
		fillID:      ss.fillID(s.Fill),
		borderID:    ss.borderID(s.Border),
		xfID:        xfID,
		quotePrefix: s.QuotePrefix,
	}
	if s.Alignment.key() != "" {
		r.alignment = s.Alignment
	}
	if s.Protection.key() != "" {
		r.protection = s.Protection
	}
	if xfID >= 0 {
		r.xfID = s.NamedStyle
		if r.xfID < 0 || r.xfID >= len(ss.styleXfs) {
			r.xfID = 0
		}
	}
	return r
}

// xfID interns a cell style and returns its cellXfs index. nil is 0.
func (ss *styleSheet) xfID(s *Style) int {
	r := ss.record(s, 0)
	k := r.key()
	if id, ok := ss.cellXfIDs[k]; ok {
		return id
	}
	ss.cellXfs = append(ss.cellXfs, r)
	ss.cellXfIDs[k] = len(ss.cellXfs) - 1
	return len(ss.cellXfs) - 1
}

// dxfID interns a differential format.
func (ss *styleSheet) dxfID(d *DifferentialStyle) int {
	k := d.key()
	if id, ok := ss.dxfIDs[k]; ok {
		return id
	}
	if d.NumFmt != nil {
		ss.numFmtID(d.NumFmt)
	}
	ss.dxfs = append(ss.dxfs, d)
	ss.dxfIDs[k] = len(ss.dxfs) - 1
	return len(ss.dxfs) - 1
}

// Bytes emits styles.xml.
func (ss *styleSheet) Bytes() []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("styleSheet")
	x.Attr("xmlns", xlxml.NsMain)
	x.Attr("xmlns:mc", xlxml.NsMC)
	x.Attr("xmlns:x14ac", xlxml.NsX14ac)
	x.Attr("mc:Ignorable", "x14ac")

	if len(ss.numFmts) > 0 {
		x.OTag("+numFmts").Attr("count", len(ss.numFmts))
		for _, f := range ss.numFmts {
			x.OTag("+numFmt").Attr("numFmtId", f.ID).Attr("formatCode", f.Code).CTag()
		}
		x.CTag()
	}

	x.OTag("+fonts").Attr("count", len(ss.fonts))
	for _, f := range ss.fonts {
		x.OTag("+font")
		writeFont(x, f, false, false)
		x.CTag()
	}
	x.CTag()

	x.OTag("+fills").Attr("count", len(ss.fills))
	for _, f := range ss.fills {
		x.OTag("+fill")
		writeFill(x, f)
		x.CTag()
	}
	x.CTag()

	x.OTag("+borders").Attr("count", len(ss.borders))
	for _, b := range ss.borders {
		writeBorder(x, b)
	}
	x.CTag()

	x.OTag("+cellStyleXfs").Attr("count", len(ss.styleXfs))
	for _, r := range ss.styleXfs {
		writeXf(x, r)
	}
	x.CTag()

	x.OTag("+cellXfs").Attr("count", len(ss.cellXfs))
	for _, r := range ss.cellXfs {
		writeXf(x, r)
	}
	x.CTag()

	x.OTag("+cellStyles").Attr("count", len(ss.named))
	for i, ns := range ss.named {
		x.OTag("+cellStyle").Attr("name", ns.Name).Attr("xfId", i)
		if ns.BuiltinID != nil {
			x.Attr("builtinId", *ns.BuiltinID)
		}
		x.CTag()
	}
	x.CTag()

	x.OTag("+dxfs").Attr("count", len(ss.dxfs))
	for _, d := range ss.dxfs {
		x.OTag("+dxf")
		if d.Font != nil {
			x.OTag("font")
			writeFont(x, d.Font, false, true)
			x.CTag()
		}
		if d.NumFmt != nil {
			x.OTag("numFmt").Attr("numFmtId", ss.numFmtID(d.NumFmt)).Attr("formatCode", d.NumFmt.FormatCode()).CTag()
		}
		if d.Fill != nil {
			x.OTag("fill")
			writeFill(x, d.Fill)
			x.CTag()
		}
		if d.Alignment != nil {
			writeAlignment(x, d.Alignment)
		}
		if d.Border != nil {
			writeBorder(x, d.Border)
		}
		x.CTag()
	}
	x.CTag()

	x.OTag("+tableStyles").Attr("count", 0).Attr("defaultTableStyle", "TableStyleMedium2").Attr("defaultPivotStyle", "PivotStyleLight16").CTag()

	x.CTag()
	return bb.Bytes()
}

func writeXf(x *xml.Writer, r *xf) {
	x.OTag("+xf").Attr("numFmtId", r.numFmtID).Attr("fontId", r.fontID).Attr("fillId", r.fillID).Attr("borderId", r.borderID)
	if r.xfID >= 0 {
		x.Attr("xfId", r.xfID)
	}
	if r.quotePrefix {
		x.Attr("quotePrefix", 1)
	}
	if r.xfID >= 0 {
		if r.numFmtID != 0 {
			x.Attr("applyNumberFormat", 1)
		}
		if r.fontID != 0 {
			x.Attr("applyFont", 1)
		}
		if r.fillID != 0 {
			x.Attr("applyFill", 1)
		}
		if r.borderID != 0 {
			x.Attr("applyBorder", 1)
		}
		if r.alignment != nil {
			x.Attr("applyAlignment", 1)
		}
		if r.protection != nil {
			x.Attr("applyProtection", 1)
		}
	}
	if r.alignment != nil {
		writeAlignment(x, r.alignment)
	}
	if r.protection != nil {
		x.OTag("protection")
		if r.protection.Unlocked {
			x.Attr("locked", 0)
		}
		if r.protection.Hidden {
			x.Attr("hidden", 1)
		}
		x.CTag()
	}
	x.CTag()
}

func colorAttrs(x *xml.Writer, c *Color) {
	switch {
	case c.Auto:
		x.Attr("auto", 1)
	case c.Theme != nil:
		x.Attr("theme", *c.Theme)
	case c.Indexed != nil:
		x.Attr("indexed", *c.Indexed)
	default:
		x.Attr("rgb", c.RGB)
	}
	if c.Tint != 0 {
		x.Attr("tint", xlxml.Float(c.Tint))
	}
}

// writeFont emits the children of a font or run-properties element. Runs
// name the face rFont; partial fonts of differential formats omit the
// face and size defaults.
func writeFont(x *xml.Writer, f *Font, run, partial bool) {
	if f.Bold {
		x.OTag("b").CTag()
	}
	if f.Italic {
		x.OTag("i").CTag()
	}
	if f.Strikethrough {
		x.OTag("strike").CTag()
	}
	if f.Underline != UnderlineNone {
		x.OTag("u")
		if f.Underline != UnderlineSingle {
			x.Attr("val", string(f.Underline))
		}
		x.CTag()
	}
	if f.VertAlign != "" {
		x.OTag("vertAlign").Attr("val", f.VertAlign).CTag()
	}
	if !partial || f.Size > 0 {
		x.OTag("sz").Attr("val", xlxml.Float(f.size())).CTag()
	}
	if f.Color != nil {
		x.OTag("color")
		colorAttrs(x, f.Color)
		x.CTag()
	}
	if !partial || f.Name != "" {
		if run {
			x.OTag("rFont").Attr("val", f.name()).CTag()
		} else {
			x.OTag("name").Attr("val", f.name()).CTag()
		}
	}
	if f.Family != 0 {
		x.OTag("family").Attr("val", f.Family).CTag()
	}
	if f.Charset != 0 {
		x.OTag("charset").Attr("val", f.Charset).CTag()
	}
	if f.Scheme != "" {
		x.OTag("scheme").Attr("val", f.Scheme).CTag()
	}
}

func writeFill(x *xml.Writer, f *Fill) {
	if g := f.Gradient; g != nil {
		x.OTag("gradientFill")
		if g.Type != "" && g.Type != "linear" {
			x.Attr("type", g.Type)
		}
		if g.Degree != 0 {
			x.Attr("degree", xlxml.Float(g.Degree))
		}
		if g.Left != 0 {
			x.Attr("left", xlxml.Float(g.Left))
		}
		if g.Right != 0 {
			x.Attr("right", xlxml.Float(g.Right))
		}
		if g.Top != 0 {
			x.Attr("top", xlxml.Float(g.Top))
		}
		if g.Bottom != 0 {
			x.Attr("bottom", xlxml.Float(g.Bottom))
		}
		for _, s := range g.Stops {
			x.OTag("stop").Attr("position", xlxml.Float(s.Position))
			x.OTag("color")
			if s.Color != nil {
				colorAttrs(x, s.Color)
			}
			x.CTag()
			x.CTag()
		}
		x.CTag()
		return
	}
	p := f.Pattern
	if p == "" {
		p = PatternNone
	}
	x.OTag("patternFill").Attr("patternType", p)
	if f.FgColor != nil {
		x.OTag("fgColor")
		colorAttrs(x, f.FgColor)
		x.CTag()
	}
	if f.BgColor != nil {
		x.OTag("bgColor")
		colorAttrs(x, f.BgColor)
		x.CTag()
	}
	x.CTag()
}

func writeBorder(x *xml.Writer, b *Border) {
	x.OTag("+border")
	if b.DiagonalUp {
		x.Attr("diagonalUp", 1)
	}
	if b.DiagonalDown {
		x.Attr("diagonalDown", 1)
	}
	line := func(l *BorderLine) {
		if l == nil || l.Style == "" {
			x.CTag()
			return
		}
		x.Attr("style", l.Style)
		if l.Color != nil {
			x.OTag("color")
			colorAttrs(x, l.Color)
			x.CTag()
		}
		x.CTag()
	}
	x.OTag("left")
	line(b.Left)
	x.OTag("right")
	line(b.Right)
	x.OTag("top")
	line(b.Top)
	x.OTag("bottom")
	line(b.Bottom)
	x.OTag("diagonal")
	line(b.Diagonal)
	x.CTag()
}

func writeAlignment(x *xml.Writer, a *Alignment) {
	x.OTag("alignment")
	if a.Horizontal != "" && a.Horizontal != "general" {
		x.Attr("horizontal", a.Horizontal)
	}
	if a.Vertical != "" && a.Vertical != "bottom" {
		x.Attr("vertical", a.Vertical)
	}
	if a.TextRotation != 0 {
		x.Attr("textRotation", a.TextRotation)
	}
	if a.WrapText {
		x.Attr("wrapText", 1)
	}
	if a.Indent != 0 {
		x.Attr("indent", a.Indent)
	}
	if a.ShrinkToFit {
		x.Attr("shrinkToFit", 1)
	}
	if a.ReadingOrder != 0 {
		x.Attr("readingOrder", a.ReadingOrder)
	}
	x.CTag()
}

// styleTable is the decoded styles part: every cellXfs entry materialized
// into a complete Style, plus the differential formats and named styles.
type styleTable struct {
	xfs   []*Style
	dxfs  []*DifferentialStyle
	named []*NamedStyle
}

// style resolves a cell style index; 0 and out-of-range indices are the
// default.
func (st *styleTable) style(i int) (*Style, bool) {
	if st == nil || i == 0 {
		return nil, true
	}
	if i < 0 || i >= len(st.xfs) {
		return nil, false
	}
	return st.xfs[i], true
}

func (st *styleTable) dxf(i int) *DifferentialStyle {
	if st == nil || i < 0 || i >= len(st.dxfs) {
		return nil
	}
	return st.dxfs[i]
}

type rawStyles struct {
	numFmts  map[int]string
	fonts    []*Font
	fills    []*Fill
	borders  []*Border
	styleXfs []*xf
	cellXfs  []*xf
	cellSty  []*NamedStyle
	xfOfSty  []int
	dxfs     []*DifferentialStyle
}

func parseStyles(name string, data []byte) (*styleTable, error) {
	r := xlxml.NewReader(name, data)
	if _, err := r.Root("styleSheet"); err != nil {
		return nil, err
	}
	raw := &rawStyles{numFmts: map[int]string{}}
	err := r.Children("styleSheet", func(ev xlxml.Event) error {
		switch ev.Name {
		case "numFmts":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "numFmt" {
					raw.numFmts[ev.Int("numFmtId", 0)] = ev.Str("formatCode")
				}
				return r.Skip()
			})
		case "fonts":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				f, err := parseFont(r, ev)
				raw.fonts = append(raw.fonts, f)
				return err
			})
		case "fills":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				f, err := parseFill(r, ev)
				raw.fills = append(raw.fills, f)
				return err
			})
		case "borders":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				b, err := parseBorder(r, ev)
				raw.borders = append(raw.borders, b)
				return err
			})
		case "cellStyleXfs", "cellXfs":
			list := &raw.cellXfs
			if ev.Name == "cellStyleXfs" {
				list = &raw.styleXfs
			}
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				x, err := parseXf(r, ev)
				*list = append(*list, x)
				return err
			})
		case "cellStyles":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				ns := &NamedStyle{Name: ev.Str("name")}
				if _, ok := ev.Attr("builtinId"); ok {
					id := ev.Int("builtinId", 0)
					ns.BuiltinID = &id
				}
				raw.cellSty = append(raw.cellSty, ns)
				raw.xfOfSty = append(raw.xfOfSty, ev.Int("xfId", 0))
				return r.Skip()
			})
		case "dxfs":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				d, err := parseDxf(r, ev, raw.numFmts)
				raw.dxfs = append(raw.dxfs, d)
				return err
			})
		}
		return r.Skip()
	})
	if err != nil {
		return nil, err
	}
	return raw.materialize(), nil
}

func (raw *rawStyles) numFmt(id int) *NumberFormat {
	if id == 0 {
		return nil
	}
	if code, ok := raw.numFmts[id]; ok {
		return &NumberFormat{ID: id, Code: code}
	}
	return &NumberFormat{ID: id}
}

func (raw *rawStyles) style(r *xf) *Style {
	s := &Style{
		NumFmt:      raw.numFmt(r.numFmtID),
		Alignment:   r.alignment,
		Protection:  r.protection,
		QuotePrefix: r.quotePrefix,
	}
	if r.fontID > 0 && r.fontID < len(raw.fonts) {
		s.Font = raw.fonts[r.fontID]
	}
	if r.fillID > 0 && r.fillID < len(raw.fills) {
		s.Fill = raw.fills[r.fillID]
	}
	if r.borderID > 0 && r.borderID < len(raw.borders) {
		s.Border = raw.borders[r.borderID]
	}
	return s
}

func (raw *rawStyles) materialize() *styleTable {
	st := &styleTable{dxfs: raw.dxfs}

	// named styles are indexed by their cellStyleXfs position, with the
	// style of record 0 ("Normal") first
	xfToNamed := map[int]int{}
	var normal *NamedStyle
	var others []*NamedStyle
	var otherXfs []int
	for i, ns := range raw.cellSty {
		xfID := raw.xfOfSty[i]
		if xfID < 0 || xfID >= len(raw.styleXfs) {
			continue
		}
		if _, dup := xfToNamed[xfID]; dup {
			continue
		}
		xfToNamed[xfID] = -1
		ns.Style = raw.style(raw.styleXfs[xfID])
		if xfID == 0 {
			normal = ns
			continue
		}
		others = append(others, ns)
		otherXfs = append(otherXfs, xfID)
	}
	if normal == nil {
		normal = defaultNamedStyle()
		if len(raw.styleXfs) > 0 {
			normal.Style = raw.style(raw.styleXfs[0])
		}
	}
	if len(raw.fonts) > 0 {
		normal.Style.Font = raw.fonts[0]
	}
	st.named = append([]*NamedStyle{normal}, others...)
	xfToNamed = map[int]int{0: 0}
	for i, xfID := range otherXfs {
		xfToNamed[xfID] = i + 1
	}

	st.xfs = make([]*Style, len(raw.cellXfs))
	for i, r := range raw.cellXfs {
		s := raw.style(r)
		s.NamedStyle = xfToNamed[r.xfID]
		st.xfs[i] = s
	}
	return st
}

func parseColor(ev xlxml.Event) *Color {
	c := &Color{}
	if v, ok := ev.Attr("rgb"); ok {
		c.RGB = strings.ToUpper(v)
	}
	if _, ok := ev.Attr("theme"); ok {
		n := ev.Int("theme", 0)
		c.Theme = &n
	}
	if _, ok := ev.Attr("indexed"); ok {
		n := ev.Int("indexed", 0)
		c.Indexed = &n
	}
	c.Tint = ev.Float("tint", 0)
	c.Auto = ev.Bool("auto", false)
	return c
}

// parseFont reads a font or rPr element.
func parseFont(r *xlxml.Reader, start xlxml.Event) (*Font, error) {
	f := &Font{}
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "b":
			f.Bold = ev.Bool("val", true)
		case "i":
			f.Italic = ev.Bool("val", true)
		case "strike":
			f.Strikethrough = ev.Bool("val", true)
		case "u":
			f.Underline = UnderlineType(ev.Str("val"))
			if f.Underline == "" {
				f.Underline = UnderlineSingle
			}
			if f.Underline == "none" {
				f.Underline = UnderlineNone
			}
		case "vertAlign":
			f.VertAlign = ev.Str("val")
			if f.VertAlign == "baseline" {
				f.VertAlign = ""
			}
		case "sz":
			f.Size = ev.Float("val", 0)
		case "color":
			f.Color = parseColor(ev)
		case "name", "rFont":
			f.Name = ev.Str("val")
		case "family":
			f.Family = ev.Int("val", 0)
		case "charset":
			f.Charset = ev.Int("val", 0)
		case "scheme":
			f.Scheme = ev.Str("val")
			if f.Scheme == "none" {
				f.Scheme = ""
			}
		}
		return r.Skip()
	})
	return f, err
}

func parseFill(r *xlxml.Reader, start xlxml.Event) (*Fill, error) {
	f := &Fill{}
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "patternFill":
			f.Pattern = ev.Str("patternType")
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				switch ev.Name {
				case "fgColor":
					f.FgColor = parseColor(ev)
				case "bgColor":
					f.BgColor = parseColor(ev)
				}
				return r.Skip()
			})
		case "gradientFill":
			g := &Gradient{
				Type:   ev.Str("type"),
				Degree: ev.Float("degree", 0),
				Left:   ev.Float("left", 0),
				Right:  ev.Float("right", 0),
				Top:    ev.Float("top", 0),
				Bottom: ev.Float("bottom", 0),
			}
			f.Gradient = g
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "stop" {
					return r.Skip()
				}
				stop := GradientStop{Position: ev.Float("position", 0)}
				err := r.Children(ev.Name, func(ev xlxml.Event) error {
					if ev.Name == "color" {
						stop.Color = parseColor(ev)
					}
					return r.Skip()
				})
				g.Stops = append(g.Stops, stop)
				return err
			})
		}
		return r.Skip()
	})
	return f, err
}

func parseBorder(r *xlxml.Reader, start xlxml.Event) (*Border, error) {
	b := &Border{
		DiagonalUp:   start.Bool("diagonalUp", false),
		DiagonalDown: start.Bool("diagonalDown", false),
	}
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		var target **BorderLine
		switch ev.Name {
		case "left", "start":
			target = &b.Left
		case "right", "end":
			target = &b.Right
		case "top":
			target = &b.Top
		case "bottom":
			target = &b.Bottom
		case "diagonal":
			target = &b.Diagonal
		default:
			return r.Skip()
		}
		l := &BorderLine{Style: ev.Str("style")}
		err := r.Children(ev.Name, func(ev xlxml.Event) error {
			if ev.Name == "color" {
				l.Color = parseColor(ev)
			}
			return r.Skip()
		})
		if l.Style != "" && l.Style != "none" {
			*target = l
		}
		return err
	})
	return b, err
}

func parseAlignment(ev xlxml.Event) *Alignment {
	return &Alignment{
		Horizontal:   ev.Str("horizontal"),
		Vertical:     ev.Str("vertical"),
		WrapText:     ev.Bool("wrapText", false),
		ShrinkToFit:  ev.Bool("shrinkToFit", false),
		Indent:       ev.Int("indent", 0),
		TextRotation: ev.Int("textRotation", 0),
		ReadingOrder: ev.Int("readingOrder", 0),
	}
}

func parseXf(r *xlxml.Reader, start xlxml.Event) (*xf, error) {
	x := &xf{
		numFmtID:    start.Int("numFmtId", 0),
		fontID:      start.Int("fontId", 0),
		fillID:      start.Int("fillId", 0),
		borderID:    start.Int("borderId", 0),
		xfID:        start.Int("xfId", 0),
		quotePrefix: start.Bool("quotePrefix", false),
	}
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "alignment":
			if a := parseAlignment(ev); a.key() != "" {
				x.alignment = a
			}
		case "protection":
			p := &Protection{
				Unlocked: !ev.Bool("locked", true),
				Hidden:   ev.Bool("hidden", false),
			}
			if p.key() != "" {
				x.protection = p
			}
		}
		return r.Skip()
	})
	return x, err
}

func parseDxf(r *xlxml.Reader, start xlxml.Event, numFmts map[int]string) (*DifferentialStyle, error) {
	d := &DifferentialStyle{}
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		var err error
		switch ev.Name {
		case "font":
			d.Font, err = parseFont(r, ev)
			return err
		case "fill":
			d.Fill, err = parseFill(r, ev)
			return err
		case "border":
			d.Border, err = parseBorder(r, ev)
			return err
		case "numFmt":
			id := ev.Int("numFmtId", 0)
			code := ev.Str("formatCode")
			if code == "" {
				code = numFmts[id]
			}
			d.NumFmt = &NumberFormat{ID: id, Code: code}
		case "alignment":
			d.Alignment = parseAlignment(ev)
		}
		return r.Skip()
	})
	return d, err
}
