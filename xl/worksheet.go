package xl

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adnsv/srw/xml"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/ref"
	"github.com/adnsv/go-xlsx/xlxml"
)

// writeSheet emits worksheet n with every part it depends on and returns
// the worksheet part name.
func (w *Writer) writeSheet(sh *Sheet, n int) (string, error) {
	part := "/xl/worksheets/sheet" + strconv.Itoa(n) + ".xml"
	rels := opc.NewRelationships(part)

	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("worksheet")
	x.Attr("xmlns", xlxml.NsMain)
	x.Attr("xmlns:r", xlxml.NsRelationships)

	fitToPage := sh.PageSetup != nil && sh.PageSetup.FitToPage
	if sh.TabColor != nil || fitToPage {
		x.OTag("+sheetPr")
		if sh.TabColor != nil {
			x.OTag("tabColor")
			colorAttrs(x, sh.TabColor)
			x.CTag()
		}
		if fitToPage {
			x.OTag("pageSetUpPr").Attr("fitToPage", 1).CTag()
		}
		x.CTag()
	}

	dim := "A1"
	if rng, ok := sh.Dimension(); ok {
		dim = rng.Coordinate()
	}
	x.OTag("+dimension").Attr("ref", dim).CTag()

	writeSheetView(x, &sh.View)
	writeSheetFormat(x, &sh.Format)

	if len(sh.Columns) > 0 {
		w.writeCols(x, sh.Columns)
	}

	if err := w.writeSheetData(x, sh); err != nil {
		return "", err
	}

	if p := sh.Protection; p != nil {
		writeSheetProtection(x, p)
	}
	if af := sh.AutoFilter; af != nil {
		writeAutoFilter(x, af)
	}

	if len(sh.MergeCells) > 0 {
		x.OTag("+mergeCells").Attr("count", len(sh.MergeCells))
		for _, m := range sh.MergeCells {
			x.OTag("+mergeCell").Attr("ref", m.Normalize().Coordinate()).CTag()
		}
		x.CTag()
	}

	for _, cf := range sh.Conditionals {
		w.writeConditionalFormat(x, cf)
	}

	if len(sh.Validations) > 0 {
		x.OTag("+dataValidations").Attr("count", len(sh.Validations))
		for _, dv := range sh.Validations {
			writeDataValidation(x, dv)
		}
		x.CTag()
	}

	if len(sh.Hyperlinks) > 0 {
		x.OTag("+hyperlinks")
		for _, h := range sh.Hyperlinks {
			x.OTag("+hyperlink").Attr("ref", h.Ref)
			if h.Target != "" {
				x.Attr("r:id", rels.AddExternal(xlxml.RelHyperlink, h.Target))
			}
			if h.Location != "" {
				x.Attr("location", h.Location)
			}
			if h.Tooltip != "" {
				x.Attr("tooltip", h.Tooltip)
			}
			if h.Display != "" {
				x.Attr("display", h.Display)
			}
			x.CTag()
		}
		x.CTag()
	}

	if po := sh.PrintOptions; po != nil {
		x.OTag("+printOptions")
		if po.HorizontalCentered {
			x.Attr("horizontalCentered", 1)
		}
		if po.VerticalCentered {
			x.Attr("verticalCentered", 1)
		}
		if po.Headings {
			x.Attr("headings", 1)
		}
		if po.GridLines {
			x.Attr("gridLines", 1)
		}
		x.CTag()
	}
	if m := sh.PageMargins; m != nil {
		x.OTag("+pageMargins")
		x.Attr("left", xlxml.Float(m.Left))
		x.Attr("right", xlxml.Float(m.Right))
		x.Attr("top", xlxml.Float(m.Top))
		x.Attr("bottom", xlxml.Float(m.Bottom))
		x.Attr("header", xlxml.Float(m.Header))
		x.Attr("footer", xlxml.Float(m.Footer))
		x.CTag()
	}
	if sh.PageSetup != nil || len(sh.PrinterSettings) > 0 {
		x.OTag("+pageSetup")
		if ps := sh.PageSetup; ps != nil {
			writePageSetupAttrs(x, ps)
		}
		if len(sh.PrinterSettings) > 0 {
			x.Attr("r:id", w.writePrinterSettings(sh.PrinterSettings, rels))
		}
		x.CTag()
	}
	if hf := sh.HeaderFooter; hf != nil {
		writeHeaderFooter(x, hf)
	}

	if sh.Drawing != nil && len(sh.Drawing.Anchors) > 0 {
		dp, err := w.writeDrawing(sh.Drawing)
		if err != nil {
			return "", errors.Wrapf(err, "sheet %s", sh.Name)
		}
		x.OTag("+drawing").Attr("r:id", rels.AddPart(xlxml.RelDrawing, dp)).CTag()
	}
	if len(sh.Comments) > 0 {
		x.OTag("+legacyDrawing").Attr("r:id", w.writeComments(sh, n-1, rels)).CTag()
	}
	if len(sh.OleObjects) > 0 {
		w.writeOleObjects(x, sh.OleObjects, rels)
	}

	if len(sh.Tables) > 0 {
		x.OTag("+tableParts").Attr("count", len(sh.Tables))
		for _, t := range sh.Tables {
			tp, err := w.writeTable(t)
			if err != nil {
				return "", err
			}
			x.OTag("+tablePart").Attr("r:id", rels.AddPart(xlxml.RelTable, tp)).CTag()
		}
		x.CTag()
	}

	for _, pt := range sh.PivotTables {
		pp, err := w.writePivotTable(pt)
		if err != nil {
			return "", err
		}
		rels.AddPart(xlxml.RelPivotTable, pp)
	}
	for _, rel := range sh.extraRels {
		if rel.External {
			rels.AddExternal(rel.Type, rel.Target)
		} else {
			rels.AddPart(rel.Type, rel.Target)
		}
	}

	x.CTag() // worksheet

	w.out.WritePart(part, bb.Bytes())
	w.out.SetRelationships(rels)
	w.log.Debug("sheet written")
	return part, nil
}

func writeSheetView(x *xml.Writer, v *SheetView) {
	x.OTag("+sheetViews")
	x.OTag("+sheetView")
	if v.TabSelected {
		x.Attr("tabSelected", 1)
	}
	if v.HideGridLines {
		x.Attr("showGridLines", 0)
	}
	if v.HideRowColHeaders {
		x.Attr("showRowColHeaders", 0)
	}
	if v.HideZeros {
		x.Attr("showZeros", 0)
	}
	if v.RightToLeft {
		x.Attr("rightToLeft", 1)
	}
	if v.View != "" && v.View != "normal" {
		x.Attr("view", v.View)
	}
	if v.TopLeftCell != "" {
		x.Attr("topLeftCell", v.TopLeftCell)
	}
	if v.ZoomScale != 0 && v.ZoomScale != 100 {
		x.Attr("zoomScale", v.ZoomScale)
	}
	x.Attr("workbookViewId", 0)
	if p := v.Pane; p != nil {
		x.OTag("+pane")
		if p.XSplit != 0 {
			x.Attr("xSplit", xlxml.Float(p.XSplit))
		}
		if p.YSplit != 0 {
			x.Attr("ySplit", xlxml.Float(p.YSplit))
		}
		if p.TopLeftCell != "" {
			x.Attr("topLeftCell", p.TopLeftCell)
		}
		if p.ActivePane != "" {
			x.Attr("activePane", p.ActivePane)
		}
		if p.State != "" {
			x.Attr("state", p.State)
		}
		x.CTag()
	}
	for _, s := range v.Selections {
		x.OTag("+selection")
		if s.Pane != "" {
			x.Attr("pane", s.Pane)
		}
		if s.ActiveCell != "" {
			x.Attr("activeCell", s.ActiveCell)
		}
		if len(s.Sqref) > 0 {
			x.Attr("sqref", ref.FormatSqref(s.Sqref))
		}
		x.CTag()
	}
	x.CTag()
	x.CTag()
}

func writeSheetFormat(x *xml.Writer, f *SheetFormat) {
	x.OTag("+sheetFormatPr")
	if f.BaseColWidth > 0 {
		x.Attr("baseColWidth", f.BaseColWidth)
	}
	if f.DefaultColWidth > 0 {
		x.Attr("defaultColWidth", xlxml.Float(f.DefaultColWidth))
	}
	h := f.DefaultRowHeight
	if h <= 0 {
		h = 15
	}
	x.Attr("defaultRowHeight", xlxml.Float(h))
	if f.CustomHeight {
		x.Attr("customHeight", 1)
	}
	if f.ZeroHeight {
		x.Attr("zeroHeight", 1)
	}
	if f.OutlineLevelRow > 0 {
		x.Attr("outlineLevelRow", f.OutlineLevelRow)
	}
	if f.OutlineLevelCol > 0 {
		x.Attr("outlineLevelCol", f.OutlineLevelCol)
	}
	x.CTag()
}

// writeCols emits the column table, folding runs of adjacent identical
// columns into one element.
func (w *Writer) writeCols(x *xml.Writer, cols map[int]*Column) {
	keys := make([]int, 0, len(cols))
	for k := range cols {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	x.OTag("+cols")
	for i := 0; i < len(keys); {
		lo := keys[i]
		c := cols[lo]
		j := i + 1
		for j < len(keys) && keys[j] == keys[j-1]+1 && cols[keys[j]].equal(c) {
			j++
		}
		x.OTag("+col").Attr("min", lo).Attr("max", keys[j-1])
		if c.Width > 0 {
			x.Attr("width", xlxml.Float(float64(c.Width))).Attr("customWidth", 1)
		}
		if c.Style != nil {
			x.Attr("style", w.styles.xfID(c.Style))
		}
		if c.Hidden {
			x.Attr("hidden", 1)
		}
		if c.BestFit {
			x.Attr("bestFit", 1)
		}
		if c.OutlineLevel > 0 {
			x.Attr("outlineLevel", c.OutlineLevel)
		}
		if c.Collapsed {
			x.Attr("collapsed", 1)
		}
		x.CTag()
		i = j
	}
	x.CTag()
}

func (w *Writer) writeSheetData(x *xml.Writer, sh *Sheet) error {
	x.OTag("+sheetData")
	err := enumerate(sh.rows, func(n int, row *Row) error {
		if row.Len() == 0 && !row.hasMetadata() {
			return nil
		}
		x.OTag("+row").Attr("r", n)
		if row.Style != nil {
			x.Attr("s", w.styles.xfID(row.Style)).Attr("customFormat", 1)
		}
		if row.Height > 0 {
			x.Attr("ht", xlxml.Float(float64(row.Height))).Attr("customHeight", 1)
		}
		if row.Hidden {
			x.Attr("hidden", 1)
		}
		if row.OutlineLevel > 0 {
			x.Attr("outlineLevel", row.OutlineLevel)
		}
		if row.Collapsed {
			x.Attr("collapsed", 1)
		}
		err := enumerate(row.cells, func(col int, cell *Cell) error {
			return w.writeCell(x, cell)
		})
		x.CTag() // row
		return err
	})
	x.CTag() // sheetData
	return err
}

func (w *Writer) writeCell(x *xml.Writer, cell *Cell) error {
	x.OTag("+c").Attr("r", cell.Coord())
	if cell.Style != nil {
		if s := w.styles.xfID(cell.Style); s != 0 {
			x.Attr("s", s)
		}
	}

	if cell.picture != nil {
		vm, err := w.cellPicture(cell.picture)
		if err != nil {
			return errors.Wrapf(err, "cell %s", cell.Coord())
		}
		x.Attr("t", "e").Attr("vm", vm)
		x.OTag("v").Write("#VALUE!").CTag()
		x.CTag()
		return nil
	}

	f := cell.formula
	if f != nil && f.Text != "" {
		if err := ref.CheckFormula(f.Text); err != nil {
			w.log.Warn("formula does not tokenize", zap.String("cell", cell.Coord()), zap.Error(err))
		}
	}
	switch v := cell.Value().(type) {
	case Number:
		writeFormula(x, f)
		x.OTag("v").Write(numberText(float64(v))).CTag()
	case Bool:
		x.Attr("t", "b")
		writeFormula(x, f)
		x.OTag("v").Write(xlxml.Bool(bool(v))).CTag()
	case ErrorValue:
		x.Attr("t", "e")
		writeFormula(x, f)
		x.OTag("v").String(string(v)).CTag()
	case String, Rich, FormulaString, Lazy:
		if f != nil {
			// a formula keeps its cached text next to it
			x.Attr("t", "str")
			writeFormula(x, f)
			x.OTag("v").String(escapeControl(v.Text())).CTag()
		} else if _, ok := v.(FormulaString); ok {
			x.Attr("t", "str")
			x.OTag("v").String(escapeControl(v.Text())).CTag()
		} else if _, ok := v.(Lazy); ok {
			x.Attr("t", "inlineStr")
			x.OTag("is")
			writeText(x, v.Text())
			x.CTag()
		} else {
			x.Attr("t", "s")
			x.OTag("v").Write(w.strings.intern(v)).CTag()
		}
	case InlineString:
		x.Attr("t", "inlineStr")
		writeFormula(x, f)
		x.OTag("is")
		writeText(x, string(v))
		x.CTag()
	case SharedRef:
		w.log.Warn("unresolved shared string dropped")
		writeFormula(x, f)
	default:
		writeFormula(x, f)
	}
	x.CTag() // c
	return nil
}

func writeFormula(x *xml.Writer, f *Formula) {
	if f == nil {
		return
	}
	x.OTag("f")
	if f.Type != FormulaNormal {
		x.Attr("t", string(f.Type))
	}
	if f.Ref != "" && f.Type != FormulaNormal {
		x.Attr("ref", f.Ref)
	}
	if f.CalculateAlways {
		x.Attr("ca", 1)
	}
	x.String(f.Text)
	x.CTag()
}

func writeSheetProtection(x *xml.Writer, p *SheetProtection) {
	x.OTag("+sheetProtection")
	if p.PasswordHash != "" {
		x.Attr("password", p.PasswordHash)
	}
	x.Attr("sheet", 1)
	if p.Objects {
		x.Attr("objects", 1)
	}
	if p.Scenarios {
		x.Attr("scenarios", 1)
	}
	// allow flags are stored as their negation: 0 unlocks the action
	if p.AllowFormatCells {
		x.Attr("formatCells", 0)
	}
	if p.AllowFormatColumns {
		x.Attr("formatColumns", 0)
	}
	if p.AllowFormatRows {
		x.Attr("formatRows", 0)
	}
	if p.AllowInsertColumns {
		x.Attr("insertColumns", 0)
	}
	if p.AllowInsertRows {
		x.Attr("insertRows", 0)
	}
	if p.AllowInsertHyperlinks {
		x.Attr("insertHyperlinks", 0)
	}
	if p.AllowDeleteColumns {
		x.Attr("deleteColumns", 0)
	}
	if p.AllowDeleteRows {
		x.Attr("deleteRows", 0)
	}
	if p.DenySelectLocked {
		x.Attr("selectLockedCells", 1)
	}
	if p.AllowSort {
		x.Attr("sort", 0)
	}
	if p.AllowAutoFilter {
		x.Attr("autoFilter", 0)
	}
	if p.AllowPivotTables {
		x.Attr("pivotTables", 0)
	}
	if p.DenySelectUnlocked {
		x.Attr("selectUnlockedCells", 1)
	}
	x.CTag()
}

func writeAutoFilter(x *xml.Writer, af *AutoFilter) {
	x.OTag("+autoFilter").Attr("ref", af.Ref.Normalize().Coordinate())
	for _, fc := range af.Columns {
		x.OTag("+filterColumn").Attr("colId", fc.ColID)
		x.OTag("filters")
		if fc.Blank {
			x.Attr("blank", 1)
		}
		for _, v := range fc.Values {
			x.OTag("filter").Attr("val", v).CTag()
		}
		x.CTag()
		x.CTag()
	}
	x.CTag()
}

func (w *Writer) writeConditionalFormat(x *xml.Writer, cf *ConditionalFormat) {
	x.OTag("+conditionalFormatting").Attr("sqref", ref.FormatSqref(cf.Sqref))
	for _, r := range cf.Rules {
		x.OTag("+cfRule").Attr("type", r.Type)
		if r.Format != nil {
			x.Attr("dxfId", w.styles.dxfID(r.Format))
		}
		x.Attr("priority", r.Priority)
		if r.StopIfTrue {
			x.Attr("stopIfTrue", 1)
		}
		if r.Percent {
			x.Attr("percent", 1)
		}
		if r.Bottom {
			x.Attr("bottom", 1)
		}
		if r.Operator != "" {
			x.Attr("operator", r.Operator)
		}
		if r.Text != "" {
			x.Attr("text", r.Text)
		}
		if r.Rank > 0 {
			x.Attr("rank", r.Rank)
		}
		for _, f := range r.Formulas {
			x.OTag("+formula").String(f).CTag()
		}
		if cs := r.ColorScale; cs != nil {
			x.OTag("+colorScale")
			writeCfvos(x, cs.Cfvos)
			for _, c := range cs.Colors {
				x.OTag("+color")
				colorAttrs(x, c)
				x.CTag()
			}
			x.CTag()
		}
		if db := r.DataBar; db != nil {
			x.OTag("+dataBar")
			writeCfvos(x, db.Cfvos)
			if db.Color != nil {
				x.OTag("+color")
				colorAttrs(x, db.Color)
				x.CTag()
			}
			x.CTag()
		}
		x.CTag()
	}
	x.CTag()
}

func writeCfvos(x *xml.Writer, cfvos []Cfvo) {
	for _, v := range cfvos {
		x.OTag("+cfvo").Attr("type", v.Type)
		if v.Val != "" {
			x.Attr("val", v.Val)
		}
		x.CTag()
	}
}

func writeDataValidation(x *xml.Writer, dv *DataValidation) {
	x.OTag("+dataValidation")
	if dv.Type != "" && dv.Type != "none" {
		x.Attr("type", dv.Type)
	}
	if dv.ErrorStyle != "" && dv.ErrorStyle != "stop" {
		x.Attr("errorStyle", dv.ErrorStyle)
	}
	if dv.Operator != "" && dv.Operator != "between" {
		x.Attr("operator", dv.Operator)
	}
	if dv.AllowBlank {
		x.Attr("allowBlank", 1)
	}
	if dv.ShowDropDownOff {
		x.Attr("showDropDown", 1)
	}
	if dv.ShowInputMessage {
		x.Attr("showInputMessage", 1)
	}
	if dv.ShowErrorMessage {
		x.Attr("showErrorMessage", 1)
	}
	if dv.ErrorTitle != "" {
		x.Attr("errorTitle", dv.ErrorTitle)
	}
	if dv.Error != "" {
		x.Attr("error", dv.Error)
	}
	if dv.PromptTitle != "" {
		x.Attr("promptTitle", dv.PromptTitle)
	}
	if dv.Prompt != "" {
		x.Attr("prompt", dv.Prompt)
	}
	x.Attr("sqref", ref.FormatSqref(dv.Sqref))
	if dv.Formula1 != "" {
		x.OTag("formula1").String(dv.Formula1).CTag()
	}
	if dv.Formula2 != "" {
		x.OTag("formula2").String(dv.Formula2).CTag()
	}
	x.CTag()
}

func writePageSetupAttrs(x *xml.Writer, ps *PageSetup) {
	if ps.PaperSize > 0 {
		x.Attr("paperSize", ps.PaperSize)
	}
	if ps.Scale > 0 && ps.Scale != 100 {
		x.Attr("scale", ps.Scale)
	}
	if ps.FirstPageNumber > 0 {
		x.Attr("firstPageNumber", ps.FirstPageNumber)
	}
	if ps.FitToPage && ps.FitToWidth != 1 {
		x.Attr("fitToWidth", ps.FitToWidth)
	}
	if ps.FitToPage && ps.FitToHeight != 1 {
		x.Attr("fitToHeight", ps.FitToHeight)
	}
	if ps.Orientation != "" && ps.Orientation != "default" {
		x.Attr("orientation", ps.Orientation)
	}
	if ps.FirstPageNumber > 0 {
		x.Attr("useFirstPageNumber", 1)
	}
	if ps.HorizontalDPI > 0 {
		x.Attr("horizontalDpi", ps.HorizontalDPI)
	}
	if ps.VerticalDPI > 0 {
		x.Attr("verticalDpi", ps.VerticalDPI)
	}
}

func writeHeaderFooter(x *xml.Writer, hf *HeaderFooter) {
	x.OTag("+headerFooter")
	if hf.DifferentOddEven {
		x.Attr("differentOddEven", 1)
	}
	if hf.DifferentFirst {
		x.Attr("differentFirst", 1)
	}
	if hf.OddHeader != "" {
		x.OTag("+oddHeader").String(hf.OddHeader).CTag()
	}
	if hf.OddFooter != "" {
		x.OTag("+oddFooter").String(hf.OddFooter).CTag()
	}
	if hf.EvenHeader != "" {
		x.OTag("+evenHeader").String(hf.EvenHeader).CTag()
	}
	if hf.EvenFooter != "" {
		x.OTag("+evenFooter").String(hf.EvenFooter).CTag()
	}
	if hf.FirstHeader != "" {
		x.OTag("+firstHeader").String(hf.FirstHeader).CTag()
	}
	if hf.FirstFooter != "" {
		x.OTag("+firstFooter").String(hf.FirstFooter).CTag()
	}
	x.CTag()
}

// sheetReader decodes one worksheet part into its Sheet.
type sheetReader struct {
	ld   *loader
	sh   *Sheet
	part string
	r    *xlxml.Reader
	rels *opc.Relationships

	// shared formula masters by si
	shared map[int]sharedFormula
	// relationship ids consumed by sheet elements
	used map[string]bool
}

type sharedFormula struct {
	text     string
	col, row int
}

// sheetRelTypes are handled by the sheet reader; other relationships of a
// sheet are retained.
var sheetRelTypes = map[string]bool{
	xlxml.RelDrawing:        true,
	xlxml.RelVMLDrawing:     true,
	xlxml.RelComments:       true,
	xlxml.RelTable:          true,
	xlxml.RelPivotTable:     true,
	xlxml.RelHyperlink:      true,
	xlxml.RelOleObject:      true,
	xlxml.RelPackage:        true,
	xlxml.RelPrinterSetting: true,
}

// readSheet decodes the worksheet part into sh.
func (ld *loader) readSheet(sh *Sheet, part string) error {
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		return err
	}
	ld.own(part)
	rels, err := ld.pkg.Relationships(part)
	if err != nil {
		return err
	}
	sr := &sheetReader{
		ld:     ld,
		sh:     sh,
		part:   part,
		r:      xlxml.NewReader(part, data),
		rels:   rels,
		shared: map[int]sharedFormula{},
		used:   map[string]bool{},
	}
	if err := sr.read(); err != nil {
		return err
	}
	return sr.readRelated()
}

func (sr *sheetReader) read() error {
	r := sr.r
	sh := sr.sh
	if _, err := r.Root("worksheet"); err != nil {
		return err
	}
	var legacy string
	return r.Children("worksheet", func(ev xlxml.Event) error {
		switch ev.Name {
		case "sheetPr":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				switch ev.Name {
				case "tabColor":
					sh.TabColor = parseColor(ev)
				case "pageSetUpPr":
					if ev.Bool("fitToPage", false) {
						sr.pageSetup().FitToPage = true
					}
				}
				return r.Skip()
			})
		case "sheetViews":
			first := true
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "sheetView" || !first {
					return r.Skip()
				}
				first = false
				return sr.readSheetView(ev)
			})
		case "sheetFormatPr":
			sh.Format = SheetFormat{
				DefaultRowHeight: ev.Float("defaultRowHeight", 0),
				DefaultColWidth:  ev.Float("defaultColWidth", 0),
				BaseColWidth:     ev.Int("baseColWidth", 0),
				CustomHeight:     ev.Bool("customHeight", false),
				ZeroHeight:       ev.Bool("zeroHeight", false),
				OutlineLevelRow:  ev.Int("outlineLevelRow", 0),
				OutlineLevelCol:  ev.Int("outlineLevelCol", 0),
			}
		case "cols":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "col" {
					sr.readCol(ev)
				}
				return r.Skip()
			})
		case "sheetData":
			return sr.readSheetData()
		case "sheetProtection":
			sh.Protection = parseSheetProtection(ev)
		case "autoFilter":
			af, err := parseAutoFilter(r, ev)
			if err != nil {
				return err
			}
			sh.AutoFilter = af
			return nil
		case "mergeCells":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "mergeCell" {
					if rng, err := ref.ParseRange(ev.Str("ref")); err == nil {
						sh.MergeCells = append(sh.MergeCells, rng.Normalize())
					} else {
						sr.ld.log.Warn("bad merge range dropped")
					}
				}
				return r.Skip()
			})
		case "conditionalFormatting":
			return sr.readConditionalFormat(ev)
		case "dataValidations":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "dataValidation" {
					return r.Skip()
				}
				return sr.readDataValidation(ev)
			})
		case "hyperlinks":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "hyperlink" {
					sr.readHyperlink(ev)
				}
				return r.Skip()
			})
		case "printOptions":
			sh.PrintOptions = &PrintOptions{
				GridLines:          ev.Bool("gridLines", false),
				Headings:           ev.Bool("headings", false),
				HorizontalCentered: ev.Bool("horizontalCentered", false),
				VerticalCentered:   ev.Bool("verticalCentered", false),
			}
		case "pageMargins":
			d := DefaultPageMargins()
			sh.PageMargins = &PageMargins{
				Left:   ev.Float("left", d.Left),
				Right:  ev.Float("right", d.Right),
				Top:    ev.Float("top", d.Top),
				Bottom: ev.Float("bottom", d.Bottom),
				Header: ev.Float("header", d.Header),
				Footer: ev.Float("footer", d.Footer),
			}
		case "pageSetup":
			return sr.readPageSetup(ev)
		case "headerFooter":
			return sr.readHeaderFooter(ev)
		case "drawing":
			rid := ev.RID("id")
			sr.used[rid] = true
			if part, ok := sr.rels.Resolve(rid); ok {
				d, err := sr.ld.readDrawing(part)
				if err != nil {
					return err
				}
				sh.Drawing = d
			} else {
				sr.ld.log.Warn("dangling drawing relationship")
			}
		case "legacyDrawing":
			legacy = ev.RID("id")
			sr.used[legacy] = true
		case "oleObjects":
			return sr.readOleObjects(ev)
		case "tableParts":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "tablePart" {
					return r.Skip()
				}
				rid := ev.RID("id")
				sr.used[rid] = true
				part, ok := sr.rels.Resolve(rid)
				if !ok {
					sr.ld.log.Warn("dangling table relationship")
					return r.Skip()
				}
				t, err := sr.ld.readTable(part)
				if err != nil {
					return err
				}
				sh.Tables = append(sh.Tables, t)
				return r.Skip()
			})
		}
		return r.Skip()
	})
}

func (sr *sheetReader) pageSetup() *PageSetup {
	if sr.sh.PageSetup == nil {
		sr.sh.PageSetup = &PageSetup{}
	}
	return sr.sh.PageSetup
}

func (sr *sheetReader) readSheetView(start xlxml.Event) error {
	v := &sr.sh.View
	v.TabSelected = start.Bool("tabSelected", false)
	v.HideGridLines = !start.Bool("showGridLines", true)
	v.HideRowColHeaders = !start.Bool("showRowColHeaders", true)
	v.HideZeros = !start.Bool("showZeros", true)
	v.RightToLeft = start.Bool("rightToLeft", false)
	v.ZoomScale = start.Int("zoomScale", 0)
	v.View = start.Str("view")
	v.TopLeftCell = start.Str("topLeftCell")
	r := sr.r
	return r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "pane":
			v.Pane = &Pane{
				XSplit:      ev.Float("xSplit", 0),
				YSplit:      ev.Float("ySplit", 0),
				TopLeftCell: ev.Str("topLeftCell"),
				ActivePane:  ev.Str("activePane"),
				State:       ev.Str("state"),
			}
		case "selection":
			s := Selection{Pane: ev.Str("pane"), ActiveCell: ev.Str("activeCell")}
			if rs, err := ref.ParseSqref(ev.Str("sqref")); err == nil {
				s.Sqref = rs
			}
			v.Selections = append(v.Selections, s)
		}
		return r.Skip()
	})
}

func (sr *sheetReader) readCol(ev xlxml.Event) {
	lo, hi := ev.Int("min", 0), ev.Int("max", 0)
	if lo < 1 || hi < lo {
		sr.ld.log.Warn("bad column range dropped")
		return
	}
	hi = min(hi, ref.MaxColumns)
	c := Column{
		Hidden:       ev.Bool("hidden", false),
		BestFit:      ev.Bool("bestFit", false),
		OutlineLevel: ev.Int("outlineLevel", 0),
		Collapsed:    ev.Bool("collapsed", false),
	}
	if ev.Bool("customWidth", false) || ev.Float("width", 0) > 0 {
		c.Width = float32(ev.Float("width", 0))
	}
	if s := ev.Int("style", 0); s != 0 {
		c.Style = sr.style(s)
	}
	// a trailing column range spanning to the sheet edge only carries a style
	if hi-lo > 1024 && c.Width == 0 && c.Style == nil && !c.Hidden {
		return
	}
	for n := lo; n <= hi; n++ {
		cc := c
		sr.sh.Columns[n] = &cc
	}
}

func (sr *sheetReader) style(i int) *Style {
	s, ok := sr.ld.styles.style(i)
	if !ok {
		sr.ld.log.Warn("style index out of range")
	}
	return s
}

func (sr *sheetReader) readSheetData() error {
	r := sr.r
	next := 1
	return r.Children("sheetData", func(ev xlxml.Event) error {
		if ev.Name != "row" {
			return r.Skip()
		}
		n := ev.Int("r", next)
		if n < 1 || n > ref.MaxRows {
			return r.Errorf("%w: row %d", ErrBadReference, n)
		}
		next = n + 1
		row := sr.sh.Row(n)
		if ev.Bool("customHeight", false) || ev.Float("ht", 0) > 0 {
			row.Height = float32(ev.Float("ht", 0))
		}
		row.Hidden = ev.Bool("hidden", false)
		row.OutlineLevel = ev.Int("outlineLevel", 0)
		row.Collapsed = ev.Bool("collapsed", false)
		if ev.Bool("customFormat", false) {
			row.Style = sr.style(ev.Int("s", 0))
		}
		col := 1
		return r.Children(ev.Name, func(ev xlxml.Event) error {
			if ev.Name != "c" {
				return r.Skip()
			}
			if coord := ev.Str("r"); coord != "" {
				c, rn, _, _, err := ref.IndexFromCoordinate(coord)
				if err != nil || rn != n {
					return r.Errorf("%w: cell %q in row %d", ErrBadReference, coord, n)
				}
				col = c
			}
			if err := sr.readCell(row, col, ev); err != nil {
				return err
			}
			col++
			return nil
		})
	})
}

func (sr *sheetReader) readCell(row *Row, col int, start xlxml.Event) error {
	r := sr.r
	if col < 1 || col > ref.MaxColumns {
		return r.Errorf("%w: column %d", ErrBadReference, col)
	}
	cell := row.Cell(col)
	if s := start.Int("s", 0); s != 0 {
		cell.Style = sr.style(s)
	}
	t := start.Str("t")
	var raw string
	var hasV bool
	var inline Value
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "v":
			s, err := r.ReadText()
			raw, hasV = s, true
			return err
		case "f":
			return sr.readFormula(cell, ev)
		case "is":
			v, err := parseStringItem(r, ev)
			inline = v
			return err
		}
		return r.Skip()
	})
	if err != nil {
		return err
	}

	if vm := start.Int("vm", 0); vm > 0 {
		if p := sr.ld.wb.cellMedia[vm]; p != nil {
			cell.picture = p
			cell.formula = nil
			return nil
		}
	}

	switch t {
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return r.Errorf("%w: shared string index %q", ErrPartInvalid, raw)
		}
		if i >= 0 && i < len(sr.ld.sst) {
			cell.value = sr.ld.sst[i]
		} else {
			sr.ld.log.Warn("shared string index out of range")
			cell.value = SharedRef(i)
		}
	case "str":
		cell.value = FormulaString(unescapeControl(raw))
	case "inlineStr":
		switch v := inline.(type) {
		case String:
			cell.value = InlineString(v)
		case nil:
			cell.value = InlineString(unescapeControl(raw))
		default:
			cell.value = v
		}
	case "b":
		cell.value = Bool(xlxml.ParseBool(strings.TrimSpace(raw), false))
	case "e":
		cell.value = ErrorValue(raw)
	case "d":
		if tm, err := time.Parse(time.RFC3339, raw); err == nil {
			cell.value = Number(TimeToSerial(tm, cell.date1904()))
		} else if tm, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			cell.value = Number(TimeToSerial(tm, cell.date1904()))
		} else {
			cell.value = Lazy(raw)
		}
	default:
		if !hasV || raw == "" {
			break
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			cell.value = Lazy(raw)
		} else {
			cell.value = Number(f)
		}
	}
	return nil
}

// readFormula decodes an f element. Shared formulas are expanded: the
// master keeps its text and every dependent gets the master text shifted
// by its offset.
func (sr *sheetReader) readFormula(cell *Cell, start xlxml.Event) error {
	text, err := sr.r.ReadText()
	if err != nil {
		return err
	}
	f := &Formula{Text: strings.TrimPrefix(text, "="), CalculateAlways: start.Bool("ca", false)}
	switch start.Str("t") {
	case "shared":
		si := start.Int("si", -1)
		if _, isMaster := start.Attr("ref"); isMaster && f.Text != "" {
			sr.shared[si] = sharedFormula{text: f.Text, col: cell.columnNumber, row: cell.row.rowNumber}
		} else if m, ok := sr.shared[si]; ok {
			f.Text = ref.ShiftFormula(m.text, cell.columnNumber-m.col, cell.row.rowNumber-m.row)
		} else {
			sr.ld.log.Warn("shared formula without master")
			return nil
		}
	case "array":
		f.Type = FormulaArray
		f.Ref = start.Str("ref")
	case "dataTable":
		f.Type = FormulaDataTable
		f.Ref = start.Str("ref")
	}
	if f.Text == "" && f.Type == FormulaNormal {
		return nil
	}
	cell.formula = f
	return nil
}

func parseSheetProtection(ev xlxml.Event) *SheetProtection {
	return &SheetProtection{
		PasswordHash:          ev.Str("password"),
		Objects:               ev.Bool("objects", false),
		Scenarios:             ev.Bool("scenarios", false),
		AllowFormatCells:      !ev.Bool("formatCells", true),
		AllowFormatColumns:    !ev.Bool("formatColumns", true),
		AllowFormatRows:       !ev.Bool("formatRows", true),
		AllowInsertColumns:    !ev.Bool("insertColumns", true),
		AllowInsertRows:       !ev.Bool("insertRows", true),
		AllowInsertHyperlinks: !ev.Bool("insertHyperlinks", true),
		AllowDeleteColumns:    !ev.Bool("deleteColumns", true),
		AllowDeleteRows:       !ev.Bool("deleteRows", true),
		AllowSort:             !ev.Bool("sort", true),
		AllowAutoFilter:       !ev.Bool("autoFilter", true),
		AllowPivotTables:      !ev.Bool("pivotTables", true),
		DenySelectLocked:      ev.Bool("selectLockedCells", false),
		DenySelectUnlocked:    ev.Bool("selectUnlockedCells", false),
	}
}

func parseAutoFilter(r *xlxml.Reader, start xlxml.Event) (*AutoFilter, error) {
	rng, err := ref.ParseRange(start.Str("ref"))
	if err != nil {
		return nil, r.Errorf("%w: auto filter %q", ErrBadReference, start.Str("ref"))
	}
	af := &AutoFilter{Ref: rng.Normalize()}
	err = r.Children(start.Name, func(ev xlxml.Event) error {
		if ev.Name != "filterColumn" {
			return r.Skip()
		}
		fc := FilterColumn{ColID: ev.Int("colId", 0)}
		err := r.Children(ev.Name, func(ev xlxml.Event) error {
			if ev.Name != "filters" {
				return r.Skip()
			}
			fc.Blank = ev.Bool("blank", false)
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "filter" {
					fc.Values = append(fc.Values, ev.Str("val"))
				}
				return r.Skip()
			})
		})
		af.Columns = append(af.Columns, fc)
		return err
	})
	return af, err
}

func (sr *sheetReader) readConditionalFormat(start xlxml.Event) error {
	r := sr.r
	rs, err := ref.ParseSqref(start.Str("sqref"))
	if err != nil {
		sr.ld.log.Warn("bad conditional format range dropped")
		return r.Skip()
	}
	cf := &ConditionalFormat{Sqref: rs}
	err = r.Children(start.Name, func(ev xlxml.Event) error {
		if ev.Name != "cfRule" {
			return r.Skip()
		}
		rule := &ConditionalRule{
			Type:       ev.Str("type"),
			Operator:   ev.Str("operator"),
			Priority:   ev.Int("priority", 0),
			StopIfTrue: ev.Bool("stopIfTrue", false),
			Text:       ev.Str("text"),
			Rank:       ev.Int("rank", 0),
			Percent:    ev.Bool("percent", false),
			Bottom:     ev.Bool("bottom", false),
		}
		if id := ev.Int("dxfId", -1); id >= 0 {
			rule.Format = sr.ld.styles.dxf(id)
		}
		cf.Rules = append(cf.Rules, rule)
		return r.Children(ev.Name, func(ev xlxml.Event) error {
			switch ev.Name {
			case "formula":
				s, err := r.ReadText()
				rule.Formulas = append(rule.Formulas, s)
				return err
			case "colorScale":
				cs := &ColorScale{}
				rule.ColorScale = cs
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					switch ev.Name {
					case "cfvo":
						cs.Cfvos = append(cs.Cfvos, Cfvo{Type: ev.Str("type"), Val: ev.Str("val")})
					case "color":
						cs.Colors = append(cs.Colors, parseColor(ev))
					}
					return r.Skip()
				})
			case "dataBar":
				db := &DataBar{}
				rule.DataBar = db
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					switch ev.Name {
					case "cfvo":
						db.Cfvos = append(db.Cfvos, Cfvo{Type: ev.Str("type"), Val: ev.Str("val")})
					case "color":
						db.Color = parseColor(ev)
					}
					return r.Skip()
				})
			}
			return r.Skip()
		})
	})
	sr.sh.Conditionals = append(sr.sh.Conditionals, cf)
	return err
}

func (sr *sheetReader) readDataValidation(start xlxml.Event) error {
	r := sr.r
	rs, err := ref.ParseSqref(start.Str("sqref"))
	if err != nil {
		sr.ld.log.Warn("bad validation range dropped")
		return r.Skip()
	}
	dv := &DataValidation{
		Sqref:            rs,
		Type:             start.Str("type"),
		Operator:         start.Str("operator"),
		ErrorStyle:       start.Str("errorStyle"),
		AllowBlank:       start.Bool("allowBlank", false),
		ShowDropDownOff:  start.Bool("showDropDown", false),
		ShowInputMessage: start.Bool("showInputMessage", false),
		ShowErrorMessage: start.Bool("showErrorMessage", false),
		ErrorTitle:       start.Str("errorTitle"),
		Error:            start.Str("error"),
		PromptTitle:      start.Str("promptTitle"),
		Prompt:           start.Str("prompt"),
	}
	sr.sh.Validations = append(sr.sh.Validations, dv)
	return r.Children(start.Name, func(ev xlxml.Event) error {
		var err error
		switch ev.Name {
		case "formula1":
			dv.Formula1, err = r.ReadText()
			return err
		case "formula2":
			dv.Formula2, err = r.ReadText()
			return err
		}
		return r.Skip()
	})
}

func (sr *sheetReader) readHyperlink(ev xlxml.Event) {
	h := &Hyperlink{
		Ref:      ev.Str("ref"),
		Location: ev.Str("location"),
		Tooltip:  ev.Str("tooltip"),
		Display:  ev.Str("display"),
	}
	if rid := ev.RID("id"); rid != "" {
		sr.used[rid] = true
		if rel := sr.rels.ByID(rid); rel != nil {
			h.Target = rel.Target
		} else {
			sr.ld.log.Warn("dangling hyperlink relationship")
		}
	}
	if h.Target == "" && h.Location == "" {
		return
	}
	sr.sh.Hyperlinks = append(sr.sh.Hyperlinks, h)
}

func (sr *sheetReader) readPageSetup(ev xlxml.Event) error {
	ps := sr.pageSetup()
	ps.PaperSize = ev.Int("paperSize", 0)
	ps.Orientation = ev.Str("orientation")
	ps.Scale = ev.Int("scale", 0)
	if ps.FitToPage {
		ps.FitToWidth = ev.Int("fitToWidth", 1)
		ps.FitToHeight = ev.Int("fitToHeight", 1)
	}
	if ev.Bool("useFirstPageNumber", false) {
		ps.FirstPageNumber = ev.Int("firstPageNumber", 0)
	}
	ps.HorizontalDPI = ev.Int("horizontalDpi", 0)
	ps.VerticalDPI = ev.Int("verticalDpi", 0)
	if rid := ev.RID("id"); rid != "" {
		sr.used[rid] = true
		if part, ok := sr.rels.Resolve(rid); ok {
			data, err := sr.ld.pkg.ReadPart(part)
			if err != nil {
				return err
			}
			sr.ld.own(part)
			sr.sh.PrinterSettings = data
		}
	}
	return sr.r.Skip()
}

func (sr *sheetReader) readHeaderFooter(start xlxml.Event) error {
	hf := &HeaderFooter{
		DifferentOddEven: start.Bool("differentOddEven", false),
		DifferentFirst:   start.Bool("differentFirst", false),
	}
	sr.sh.HeaderFooter = hf
	r := sr.r
	return r.Children(start.Name, func(ev xlxml.Event) error {
		var dst *string
		switch ev.Name {
		case "oddHeader":
			dst = &hf.OddHeader
		case "oddFooter":
			dst = &hf.OddFooter
		case "evenHeader":
			dst = &hf.EvenHeader
		case "evenFooter":
			dst = &hf.EvenFooter
		case "firstHeader":
			dst = &hf.FirstHeader
		case "firstFooter":
			dst = &hf.FirstFooter
		default:
			return r.Skip()
		}
		s, err := r.ReadText()
		*dst = s
		return err
	})
}

// readRelated follows the relationships that the sheet markup does not
// name: comments, pivot tables and anything unknown.
func (sr *sheetReader) readRelated() error {
	for _, rel := range sr.rels.ByType(xlxml.RelComments) {
		part := opc.ResolveTarget(sr.part, rel.Target)
		comments, err := sr.ld.readComments(part)
		if err != nil {
			return err
		}
		sr.sh.Comments = append(sr.sh.Comments, comments...)
	}
	for _, rel := range sr.rels.ByType(xlxml.RelVMLDrawing) {
		part := opc.ResolveTarget(sr.part, rel.Target)
		sr.ld.applyVML(part, sr.sh.Comments)
	}
	for _, rel := range sr.rels.ByType(xlxml.RelPivotTable) {
		pt, err := sr.ld.readPivotTable(opc.ResolveTarget(sr.part, rel.Target))
		if err != nil {
			return err
		}
		sr.sh.PivotTables = append(sr.sh.PivotTables, pt)
	}
	for _, rel := range sr.rels.All() {
		if sheetRelTypes[rel.Type] || sr.used[rel.ID] {
			continue
		}
		rr := retainedRel{Type: rel.Type, Target: rel.Target, External: rel.Mode == opc.External}
		if !rr.External {
			rr.Target = opc.ResolveTarget(sr.part, rel.Target)
		}
		sr.sh.extraRels = append(sr.sh.extraRels, rr)
		sr.ld.log.Debug("sheet relationship retained")
	}
	return nil
}
