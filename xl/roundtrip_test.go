package xl

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/xlxml"
)

// tinyPNG is a 1x1 transparent PNG.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestStylesRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	c := sh.Cell(1, 1)
	c.SetFloat(3.14159)
	c.Style = &Style{
		Font:      &Font{Name: "Arial", Size: 14, Bold: true, Italic: true, Color: RGBColor("1F4E79")},
		Fill:      SolidFill(RGBColor("FFFF00")),
		Border:    &Border{Bottom: &BorderLine{Style: "thin", Color: RGBColor("000000")}},
		NumFmt:    NewNumberFormat("0.000"),
		Alignment: &Alignment{Horizontal: "center", WrapText: true},
	}
	sh.Cell(2, 1).SetStr("plain")

	back := reload(t, wb).Sheets[0]
	bc := back.LookupCell(1, 1)
	require.NotNil(t, bc)
	require.NotNil(t, bc.Style)
	s := bc.Style
	require.NotNil(t, s.Font)
	assert.Equal(t, "Arial", s.Font.Name)
	assert.Equal(t, 14.0, s.Font.Size)
	assert.True(t, s.Font.Bold)
	assert.True(t, s.Font.Italic)
	require.NotNil(t, s.Font.Color)
	assert.Equal(t, "FF1F4E79", s.Font.Color.RGB)
	require.NotNil(t, s.Fill)
	assert.Equal(t, PatternSolid, s.Fill.Pattern)
	assert.Equal(t, "FFFFFF00", s.Fill.FgColor.RGB)
	require.NotNil(t, s.Border)
	require.NotNil(t, s.Border.Bottom)
	assert.Equal(t, "thin", s.Border.Bottom.Style)
	assert.Equal(t, "0.000", s.NumFmt.FormatCode())
	require.NotNil(t, s.Alignment)
	assert.Equal(t, "center", s.Alignment.Horizontal)
	assert.True(t, s.Alignment.WrapText)

	assert.Nil(t, back.LookupCell(2, 1).Style)
}

func TestRichTextRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	rt := NewRichText("plain ").Add("bold", &Font{Bold: true})
	wb.Sheets[0].Cell(1, 1).SetRichText(rt)
	wb.Sheets[0].Cell(1, 2).SetStr("  padded & <escaped>  ")
	wb.Sheets[0].Cell(1, 3).SetStr("tab\there\x01")

	back := reload(t, wb).Sheets[0]
	got := back.LookupCell(1, 1).RichText()
	require.NotNil(t, got)
	require.Len(t, got.Runs, 2)
	assert.Equal(t, "plain bold", got.Text())
	require.NotNil(t, got.Runs[1].Font)
	assert.True(t, got.Runs[1].Font.Bold)
	assert.Equal(t, "  padded & <escaped>  ", back.LookupCell(1, 2).String())
	assert.Equal(t, "tab\there\x01", back.LookupCell(1, 3).String())
}

func TestCommentsRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	sh.Cell(2, 3).SetInt(1)
	note := sh.AddComment(2, 3, "Alice", NewRichText("check this"))
	note.Visible = true
	sh.AddComment(4, 1, "Bob", NewRichText("second"))

	back := reload(t, wb).Sheets[0]
	require.Len(t, back.Comments, 2)
	c := back.Comment(2, 3)
	require.NotNil(t, c)
	assert.Equal(t, "Alice", c.Author)
	assert.Equal(t, "check this", c.Text.Text())
	assert.True(t, c.Visible)
	require.NotNil(t, c.Box, "the note box is read from the legacy drawing")
	d := back.Comment(4, 1)
	require.NotNil(t, d)
	assert.Equal(t, "Bob", d.Author)
	assert.False(t, d.Visible)
}

func TestDrawingRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	pic := &PictureInfo{Extension: "png", Blob: tinyPNG}
	_, err := sh.AddPicture(pic, "B2:C4")
	require.NoError(t, err)
	_, err = sh.AddPictureAt(pic, 6, 2, 32, 32)
	require.NoError(t, err)
	_, err = sh.AddShape(&Shape{Geometry: "ellipse", Text: "hello", FillColor: RGBColor("00FF00")}, "A8:C10")
	require.NoError(t, err)
	ch := NewChart(ChartBar, "Totals")
	ch.AddSeries("Sheet1!$B$1", "Sheet1!$A$2:$A$5", "Sheet1!$B$2:$B$5")
	_, err = sh.AddChart(ch, "E8:K20")
	require.NoError(t, err)

	pkg, err := wb.Package(DefaultOptions())
	require.NoError(t, err)
	media := 0
	for _, p := range pkg.Parts() {
		if opc.Ext(p) == "png" {
			media++
		}
	}
	assert.Equal(t, 1, media, "identical blobs share one media part")
	assert.True(t, pkg.Has(fmt.Sprintf("/xl/media/%.16x.png", BlobHash(tinyPNG))))

	back := reload(t, wb).Sheets[0]
	require.NotNil(t, back.Drawing)
	require.Len(t, back.Drawing.Anchors, 4)

	a := back.Drawing.Anchors[0]
	assert.Equal(t, TwoCellAnchor, a.Kind)
	assert.Equal(t, "oneCell", a.EditAs)
	assert.Equal(t, Marker{Col: 2, Row: 2}, a.From)
	assert.Equal(t, Marker{Col: 4, Row: 5}, a.To)
	p, ok := a.Object.(*Picture)
	require.True(t, ok)
	assert.True(t, bytes.Equal(tinyPNG, p.Image.Blob))

	b := back.Drawing.Anchors[1]
	assert.Equal(t, OneCellAnchor, b.Kind)
	assert.Equal(t, int64(32*EMUPerPixel), b.Cx)
	assert.Same(t, p.Image, b.Object.(*Picture).Image, "the media part is decoded once")

	s, ok := back.Drawing.Anchors[2].Object.(*Shape)
	require.True(t, ok)
	assert.Equal(t, "ellipse", s.Geometry)
	assert.Equal(t, "hello", s.Text)
	require.NotNil(t, s.FillColor)

	charts := back.Drawing.Charts()
	require.Len(t, charts, 1)
	bc := charts[0]
	assert.Equal(t, ChartBar, bc.Type)
	assert.Equal(t, "Totals", bc.Title)
	require.Len(t, bc.Series, 1)
	assert.Equal(t, "Sheet1!$B$1", bc.Series[0].NameRef)
	assert.Equal(t, "Sheet1!$A$2:$A$5", bc.Series[0].Categories)
	assert.Equal(t, "Sheet1!$B$2:$B$5", bc.Series[0].Values)
}

func TestCellPictureRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	sh.Cell(1, 1).SetPicture(&PictureInfo{Extension: "png", Blob: tinyPNG})
	sh.Cell(1, 2).SetPicture(&PictureInfo{Extension: "PNG", Blob: tinyPNG})

	back := reload(t, wb).Sheets[0]
	for row := 1; row <= 2; row++ {
		p := back.LookupCell(1, row).Picture()
		require.NotNil(t, p, "row %d", row)
		assert.True(t, bytes.Equal(tinyPNG, p.Blob))
	}

	bad := newTestBook(t)
	bad.Sheets[0].Cell(1, 1).SetPicture(&PictureInfo{Extension: "xyz", Blob: tinyPNG})
	_, err := bad.Package(DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedFeature)
}

func TestTableRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	for i, h := range []string{"Region", "Amount"} {
		sh.Cell(i+1, 1).SetStr(h)
	}
	sh.Cell(1, 2).SetStr("North")
	sh.Cell(2, 2).SetInt(10)
	tbl, err := NewTable("Sales", "A1:B3")
	require.NoError(t, err)
	tbl.TotalsRow = true
	require.NoError(t, sh.AddTable(tbl))
	tbl.Columns[0].TotalsRowLabel = "Total"
	tbl.Columns[1].TotalsRowFunction = "sum"

	dup, _ := NewTable("sales", "D1:E2")
	assert.Error(t, sh.AddTable(dup), "table names are unique ignoring case")

	back := reload(t, wb)
	bt := back.Table("Sales")
	require.NotNil(t, bt)
	assert.Equal(t, "A1:B3", bt.Ref.Coordinate())
	assert.True(t, bt.TotalsRow)
	require.Len(t, bt.Columns, 2)
	assert.Equal(t, "Region", bt.Columns[0].Name)
	assert.Equal(t, "Total", bt.Columns[0].TotalsRowLabel)
	assert.Equal(t, "sum", bt.Columns[1].TotalsRowFunction)
	require.NotNil(t, bt.Style)
	assert.Equal(t, "TableStyleMedium2", bt.Style.Name)
}

func TestPivotRoundTrip(t *testing.T) {
	wb := newTestBook(t, "Data", "Report")
	data := wb.Sheets[0]
	data.Cell(1, 1).SetStr("Region")
	data.Cell(2, 1).SetStr("Amount")
	for i, r := range []string{"North", "South", "North", "East"} {
		data.Cell(1, i+2).SetStr(r)
		data.Cell(2, i+2).SetInt(int64(10 * (i + 1)))
	}
	cache, err := wb.AddPivotCache("Data", "A1:B5")
	require.NoError(t, err)
	require.Len(t, cache.Fields, 2)
	assert.Len(t, cache.Fields[0].Items, 3)
	assert.Empty(t, cache.Fields[1].Items)

	pt, err := wb.Sheets[1].AddPivotTable("Summary", cache, "A3")
	require.NoError(t, err)
	require.NoError(t, pt.AddRowField("Region"))
	require.NoError(t, pt.AddDataField("Amount", ""))
	assert.Error(t, pt.AddColField("Missing"))
	_, err = wb.Sheets[1].AddPivotTable("Summary", cache, "H3")
	assert.Error(t, err)

	back := reload(t, wb)
	require.Len(t, back.PivotCaches, 1)
	bc := back.PivotCaches[0]
	assert.Equal(t, "Data", bc.SourceSheet)
	assert.Equal(t, "A1:B5", bc.SourceRef.Coordinate())
	require.Len(t, bc.Fields, 2)
	assert.Equal(t, "Region", bc.Fields[0].Name)

	report := back.Sheet("Report")
	require.Len(t, report.PivotTables, 1)
	bp := report.PivotTables[0]
	assert.Equal(t, "Summary", bp.Name)
	assert.Same(t, bc, bp.Cache)
	assert.Equal(t, []int{0}, bp.RowFields)
	require.Len(t, bp.DataFields, 1)
	assert.Equal(t, 1, bp.DataFields[0].Field)
	assert.Equal(t, "Sum of Amount", bp.DataFields[0].Name)
}

func TestPropertiesRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	created := time.Date(2023, 5, 1, 8, 30, 0, 0, time.UTC)
	wb.Properties.Title = "Quarterly"
	wb.Properties.Creator = "Finance"
	wb.Properties.Company = "Acme"
	wb.Properties.Created = created
	require.NoError(t, wb.Properties.SetCustom("Reviewed", true))
	require.NoError(t, wb.Properties.SetCustom("Revision", 7))
	require.NoError(t, wb.Properties.SetCustom("Ratio", 0.25))
	require.NoError(t, wb.Properties.SetCustom("Owner", "ops"))
	require.NoError(t, wb.Properties.SetCustom("Owner", "finance"))
	assert.ErrorIs(t, wb.Properties.SetCustom("Bad", []int{1}), ErrUnsupportedFeature)

	back := reload(t, wb)
	p := back.Properties
	assert.Equal(t, "Quarterly", p.Title)
	assert.Equal(t, "Finance", p.Creator)
	assert.Equal(t, "Acme", p.Company)
	assert.True(t, created.Equal(p.Created))
	assert.False(t, p.Modified.IsZero())
	assert.Equal(t, true, p.CustomValue("Reviewed"))
	assert.Equal(t, 7, p.CustomValue("Revision"))
	assert.Equal(t, 0.25, p.CustomValue("Ratio"))
	assert.Equal(t, "finance", p.CustomValue("Owner"))
	assert.Nil(t, p.CustomValue("Bad"))
}

func TestHyperlinksRoundTrip(t *testing.T) {
	wb := newTestBook(t, "Sheet1", "Target")
	sh := wb.Sheets[0]
	sh.Cell(1, 1).SetStr("site")
	require.NoError(t, sh.AddHyperlink(&Hyperlink{Ref: "A1", Target: "https://example.com/a?b=c&d=e", Tooltip: "go"}))
	require.NoError(t, sh.AddHyperlink(&Hyperlink{Ref: "B2:C3", Location: "Target!A1"}))
	assert.ErrorIs(t, sh.AddHyperlink(&Hyperlink{Ref: "??"}), ErrBadReference)

	back := reload(t, wb).Sheets[0]
	require.Len(t, back.Hyperlinks, 2)
	assert.Equal(t, "A1", back.Hyperlinks[0].Ref)
	assert.Equal(t, "https://example.com/a?b=c&d=e", back.Hyperlinks[0].Target)
	assert.Equal(t, "go", back.Hyperlinks[0].Tooltip)
	assert.Equal(t, "B2:C3", back.Hyperlinks[1].Ref)
	assert.Equal(t, "Target!A1", back.Hyperlinks[1].Location)
}

func TestValidationAndConditionalRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	require.NoError(t, sh.AddDataValidation("A1:A10 C1", &DataValidation{
		Type: "list", Formula1: `"Yes,No"`, ShowErrorMessage: true, Error: "pick one",
	}))
	require.NoError(t, sh.AddConditionalFormat("B1:B10",
		&ConditionalRule{Type: "cellIs", Operator: "greaterThan", Formulas: []string{"5"},
			Format: &DifferentialStyle{Font: &Font{Bold: true}}},
		&ConditionalRule{Type: "expression", Formulas: []string{"MOD(ROW(),2)=0"}},
	))
	assert.Equal(t, 2, sh.Conditionals[0].Rules[1].Priority)

	back := reload(t, wb).Sheets[0]
	require.Len(t, back.Validations, 1)
	dv := back.Validations[0]
	assert.Equal(t, "list", dv.Type)
	assert.Equal(t, `"Yes,No"`, dv.Formula1)
	assert.Equal(t, "pick one", dv.Error)
	require.Len(t, dv.Sqref, 2)

	require.Len(t, back.Conditionals, 1)
	rules := back.Conditionals[0].Rules
	require.Len(t, rules, 2)
	assert.Equal(t, "greaterThan", rules[0].Operator)
	assert.Equal(t, []string{"5"}, rules[0].Formulas)
	require.NotNil(t, rules[0].Format)
	require.NotNil(t, rules[0].Format.Font)
	assert.True(t, rules[0].Format.Font.Bold)
	assert.Equal(t, "MOD(ROW(),2)=0", rules[1].Formulas[0])
}

func TestFormulaRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	sh.Cell(1, 1).SetFormula("=SUM(B1:B3)")
	sh.Cell(1, 2).SetFormulaInfo(&Formula{Type: FormulaArray, Text: "B1:B3*2", Ref: "A2:A4"})

	back := reload(t, wb).Sheets[0]
	assert.Equal(t, "SUM(B1:B3)", back.LookupCell(1, 1).Formula())
	fi := back.LookupCell(1, 2).FormulaInfo()
	require.NotNil(t, fi)
	assert.Equal(t, FormulaArray, fi.Type)
	assert.Equal(t, "A2:A4", fi.Ref)
}

func TestUnknownPartsRetained(t *testing.T) {
	wb := newTestBook(t)
	wb.Sheets[0].Cell(1, 1).SetInt(1)
	pkg, err := wb.Package(DefaultOptions())
	require.NoError(t, err)
	custom := []byte(`<?xml version="1.0"?><root xmlns="urn:x">keep</root>`)
	pkg.WritePart("/customXml/item1.xml", custom)
	pkg.SetContentType("/customXml/item1.xml", "application/vnd.test+xml")

	var buf bytes.Buffer
	zs := opc.NewZipStorage(&buf, 0)
	require.NoError(t, pkg.Finalize(zs, nil))
	require.NoError(t, zs.Close())

	opened, err := OpenBytes(buf.Bytes(), DefaultOptions())
	require.NoError(t, err)
	saved, err := opened.Bytes(DefaultOptions())
	require.NoError(t, err)
	again, err := opc.OpenBytes(saved)
	require.NoError(t, err)
	data, err := again.ReadPart("/customXml/item1.xml")
	require.NoError(t, err)
	assert.Equal(t, custom, data)
	assert.Equal(t, "application/vnd.test+xml", again.ContentTypeMap()["/customXml/item1.xml"])
}

func TestChartsheetRetained(t *testing.T) {
	wb := newTestBook(t)
	wb.Sheets[0].Cell(1, 1).SetInt(1)
	pkg, err := wb.Package(DefaultOptions())
	require.NoError(t, err)

	const chartsheet = "/xl/chartsheets/sheet1.xml"
	const drawing = "/xl/drawings/drawing1.xml"
	csXML := []byte(`<?xml version="1.0"?><chartsheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><drawing r:id="rId1"/></chartsheet>`)
	drXML := []byte(`<?xml version="1.0"?><xdr:wsDr xmlns:xdr="http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"/>`)
	pkg.WritePart(chartsheet, csXML)
	pkg.SetContentType(chartsheet, "application/vnd.openxmlformats-officedocument.spreadsheetml.chartsheet+xml")
	pkg.WritePart(drawing, drXML)
	pkg.SetContentType(drawing, "application/vnd.openxmlformats-officedocument.drawing+xml")
	csRels := opc.NewRelationships(chartsheet)
	csRels.AddPart(xlxml.RelDrawing, drawing)
	pkg.SetRelationships(csRels)

	bookRels, err := pkg.Relationships("/xl/workbook.xml")
	require.NoError(t, err)
	rid := bookRels.AddPart(xlxml.RelChartsheet, chartsheet)
	pkg.SetRelationships(bookRels)
	book, err := pkg.ReadPart("/xl/workbook.xml")
	require.NoError(t, err)
	require.Contains(t, string(book), "</sheets>")
	book = bytes.Replace(book, []byte("</sheets>"), []byte(`<sheet name="Chart1" sheetId="9" r:id="`+rid+`"/></sheets>`), 1)
	pkg.WritePart("/xl/workbook.xml", book)

	var buf bytes.Buffer
	zs := opc.NewZipStorage(&buf, 0)
	require.NoError(t, pkg.Finalize(zs, nil))
	require.NoError(t, zs.Close())

	opened, err := OpenBytes(buf.Bytes(), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, opened.Sheets, 1)
	require.Len(t, opened.OpaqueSheets, 1)
	assert.Equal(t, "Chart1", opened.OpaqueSheets[0].Name)
	assert.Equal(t, xlxml.RelChartsheet, opened.OpaqueSheets[0].RelType)
	_, err = opened.AddSheet("chart1")
	assert.Error(t, err)

	// the new worksheet drawing must not take the chartsheet's part name
	_, err = opened.Sheets[0].AddShape(&Shape{Text: "box"}, "B2:C3")
	require.NoError(t, err)
	saved, err := opened.Bytes(DefaultOptions())
	require.NoError(t, err)
	again, err := opc.OpenBytes(saved)
	require.NoError(t, err)
	data, err := again.ReadPart(chartsheet)
	require.NoError(t, err)
	assert.Equal(t, csXML, data)
	data, err = again.ReadPart(drawing)
	require.NoError(t, err)
	assert.Equal(t, drXML, data)
	assert.True(t, again.Has("/xl/drawings/drawing2.xml"))
	book, err = again.ReadPart("/xl/workbook.xml")
	require.NoError(t, err)
	assert.Contains(t, string(book), `name="Chart1"`)

	back, err := OpenBytes(saved, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, back.OpaqueSheets, 1)
	require.Len(t, back.Sheets, 1)
	require.NotNil(t, back.Sheets[0].Drawing)
	assert.Len(t, back.Sheets[0].Drawing.Anchors, 1)
}

func TestEncryptedRoundTrip(t *testing.T) {
	wb := newTestBook(t)
	wb.Sheets[0].Cell(1, 1).SetStr("secret value")

	opts := DefaultOptions()
	opts.Password = "hunter2"
	opts.SpinCount = 1000
	opts.Rand = rand.New(rand.NewSource(7))
	data, err := wb.Bytes(opts)
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(data, []byte("PK")), "the package is wrapped in a compound file")

	_, err = OpenBytes(data, DefaultOptions())
	assert.ErrorIs(t, err, ErrWrongPassword, "an encrypted file needs a password")

	wrong := DefaultOptions()
	wrong.Password = "hunter3"
	_, err = OpenBytes(data, wrong)
	assert.ErrorIs(t, err, ErrWrongPassword)

	right := DefaultOptions()
	right.Password = "hunter2"
	back, err := OpenBytes(data, right)
	require.NoError(t, err)
	assert.Equal(t, "secret value", back.Sheets[0].LookupCell(1, 1).String())

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf, opts))
	back, err = Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()), right)
	require.NoError(t, err)
	assert.Equal(t, "secret value", back.Sheets[0].LookupCell(1, 1).String())
}
