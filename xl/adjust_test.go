package xl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adnsv/go-xlsx/ref"
)

func number(t *testing.T, sh *Sheet, coord string) float64 {
	t.Helper()
	col, row, _, _, err := ref.IndexFromCoordinate(coord)
	require.NoError(t, err)
	c := sh.LookupCell(col, row)
	require.NotNil(t, c, coord)
	f, ok := c.Float()
	require.True(t, ok, coord)
	return f
}

func formula(t *testing.T, sh *Sheet, coord string) string {
	t.Helper()
	col, row, _, _, err := ref.IndexFromCoordinate(coord)
	require.NoError(t, err)
	c := sh.LookupCell(col, row)
	require.NotNil(t, c, coord)
	return c.Formula()
}

func TestInsertRowRewritesFormula(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	sh.Cell(1, 1).SetInt(10)
	sh.Cell(1, 2).SetInt(20)
	sh.Cell(1, 3).SetFormula("SUM(A1:A2)")

	sh.InsertRows(2, 1)

	assert.Equal(t, 10.0, number(t, sh, "A1"))
	assert.Nil(t, sh.LookupCell(1, 2))
	assert.Equal(t, 20.0, number(t, sh, "A3"))
	assert.Equal(t, "SUM(A1:A3)", formula(t, sh, "A4"))
	assert.Equal(t, 4, sh.LookupCell(1, 4).RowNumber())
}

func TestRemoveColumnDropsCell(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	sh.Cell(1, 1).SetInt(1)
	sh.Cell(2, 1).SetInt(2)
	sh.Cell(3, 1).SetFormula("A1+B1")

	sh.RemoveCols(2, 1)

	assert.Equal(t, 1.0, number(t, sh, "A1"))
	assert.Equal(t, "A1+#REF!", formula(t, sh, "B1"))
	assert.Nil(t, sh.LookupCell(3, 1))
	assert.Equal(t, 2, sh.LookupCell(2, 1).Column())
}

func TestInsertThenRemoveIsIdentity(t *testing.T) {
	wb := newTestBook(t, "S", "T")
	sh := wb.Sheets[0]
	formulas := map[string]string{
		"A1": "SUM($B$2:C5)*S!D$9",
		"B7": `IF(A1>0,"A1:B2",T!A1)`,
		"C3": "AVERAGE(2:4)+COUNT(B:B)",
	}
	for coord, f := range formulas {
		c, err := sh.CellAt(coord)
		require.NoError(t, err)
		c.SetFormula(f)
	}
	require.NoError(t, sh.MergeCell("D2:E6"))

	sh.InsertRows(3, 2)
	assert.Equal(t, "SUM($B$2:C7)*S!D$11", formula(t, sh, "A1"))
	assert.Equal(t, "D2:E8", sh.MergeCells[0].Coordinate())

	sh.RemoveRows(3, 2)
	for coord, f := range formulas {
		assert.Equal(t, f, formula(t, sh, coord), coord)
	}
	assert.Equal(t, "D2:E6", sh.MergeCells[0].Coordinate())
}

func TestAdjustOtherSheetsAndNames(t *testing.T) {
	wb := newTestBook(t, "Data", "Report")
	data, report := wb.Sheets[0], wb.Sheets[1]
	report.Cell(1, 1).SetFormula("Data!B5+B5")
	report.Cell(1, 2).SetFormula(`"Data!B5"&Data!$B$5`)
	_, err := wb.AddDefinedName("Block", "Data!$A$1:$C$10", nil)
	require.NoError(t, err)
	_, err = wb.AddDefinedName("Here", "$B$5", data)
	require.NoError(t, err)

	data.InsertRows(1, 3)

	assert.Equal(t, "Data!B8+B5", formula(t, report, "A1"), "unqualified refs belong to Report")
	assert.Equal(t, `"Data!B5"&Data!$B$8`, formula(t, report, "A2"), "string literals are kept")
	assert.Equal(t, "Data!$A$4:$C$13", wb.DefinedName("Block", nil).RefersTo)
	assert.Equal(t, "$B$8", wb.DefinedName("Here", data).RefersTo)
}

func TestRemoveRowsSheetObjects(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	require.NoError(t, sh.MergeCell("A2:B3"))
	require.NoError(t, sh.MergeCell("A8:C9"))
	require.NoError(t, sh.AddDataValidation("A2:A3 B10", &DataValidation{Type: "whole"}))
	require.NoError(t, sh.AddConditionalFormat("C2:C3", &ConditionalRule{Type: "expression", Formulas: []string{"C2>1"}}))
	require.NoError(t, sh.AddHyperlink(&Hyperlink{Ref: "D10", Target: "https://example.com"}))
	require.NoError(t, sh.AddHyperlink(&Hyperlink{Ref: "D3", Location: "Sheet1!A1"}))
	sh.AutoFilter = &AutoFilter{Ref: ref.MustParseRange("A1:C20")}
	sh.AddComment(2, 3, "me", NewRichText("gone"))
	sh.AddComment(2, 12, "me", NewRichText("moves"))

	sh.RemoveRows(2, 3)

	require.Len(t, sh.MergeCells, 1, "the merge inside the band is dropped")
	assert.Equal(t, "A5:C6", sh.MergeCells[0].Coordinate())
	require.Len(t, sh.Validations, 1)
	assert.Equal(t, "B7", ref.FormatSqref(sh.Validations[0].Sqref))
	assert.Empty(t, sh.Conditionals)
	require.Len(t, sh.Hyperlinks, 1)
	assert.Equal(t, "D7", sh.Hyperlinks[0].Ref)
	assert.Equal(t, "A1:C17", sh.AutoFilter.Ref.Coordinate())
	require.Len(t, sh.Comments, 1)
	assert.Equal(t, 9, sh.Comments[0].Row)
	assert.Equal(t, "moves", sh.Comments[0].Text.Text())
}

func TestRemoveColsTableAndFilter(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	for i, h := range []string{"Name", "Qty", "Price", "Total"} {
		sh.Cell(2+i, 2).SetStr(h)
	}
	tbl, err := NewTable("Sales", "B2:E10")
	require.NoError(t, err)
	require.NoError(t, sh.AddTable(tbl))
	sh.AutoFilter = &AutoFilter{
		Ref:     ref.MustParseRange("B2:E10"),
		Columns: []FilterColumn{{ColID: 1, Values: []string{"3"}}, {ColID: 3, Values: []string{"9"}}},
	}

	sh.RemoveCols(3, 1)

	assert.Equal(t, "B2:D10", tbl.Ref.Coordinate())
	var names []string
	for _, c := range tbl.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Name", "Price", "Total"}, names)
	require.Len(t, sh.AutoFilter.Columns, 1)
	assert.Equal(t, 2, sh.AutoFilter.Columns[0].ColID)

	sh.InsertCols(3, 1)
	assert.Equal(t, "B2:E10", tbl.Ref.Coordinate())
	require.Len(t, tbl.Columns, 4)
	assert.Equal(t, "Column1", tbl.Columns[1].Name)
}

func TestRemoveRowsWholeTable(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	tbl, err := NewTable("T1", "A3:B4")
	require.NoError(t, err)
	require.NoError(t, sh.AddTable(tbl))
	sh.RemoveRows(2, 5)
	assert.Empty(t, sh.Tables)
}

func TestAnchorTieBreaks(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	pic := &PictureInfo{Extension: "png", Blob: tinyPNG}

	atRoot, err := sh.AddPictureAt(pic, 2, 5, 10, 10)
	require.NoError(t, err)
	inside, err := sh.AddShape(&Shape{Text: "inside"}, "A5:B6")
	require.NoError(t, err)
	straddle, err := sh.AddShape(&Shape{Text: "straddle"}, "A3:B8")
	require.NoError(t, err)
	below, err := sh.AddShape(&Shape{Text: "below"}, "A10:B11")
	require.NoError(t, err)

	sh.InsertRows(5, 2)
	assert.Equal(t, 7, atRoot.From.Row, "a one-cell anchor at the root shifts")
	assert.Equal(t, 7, inside.From.Row)
	assert.Equal(t, 9, inside.To.Row)

	sh.RemoveRows(5, 2)
	assert.Equal(t, 5, atRoot.From.Row)
	assert.Equal(t, 5, inside.From.Row)
	assert.Equal(t, 9, straddle.To.Row)

	sh.RemoveRows(5, 2)
	require.NotNil(t, sh.Drawing)
	assert.Len(t, sh.Drawing.Anchors, 3)
	for _, a := range sh.Drawing.Anchors {
		assert.NotSame(t, inside, a, "fully removed two-cell anchor is deleted")
	}
	assert.Equal(t, 5, atRoot.From.Row, "one-cell anchors are clamped")
	assert.Equal(t, int64(0), atRoot.From.RowOff)
	assert.Equal(t, 3, straddle.From.Row)
	assert.Equal(t, 7, straddle.To.Row, "partial removal clamps")
	assert.Equal(t, 8, below.From.Row)
	assert.Equal(t, 10, below.To.Row)
}

func TestAdjustChartReferences(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	ch := NewChart(ChartLine, "Trend")
	ch.AddSeries("Sheet1!$B$1", "Sheet1!$A$2:$A$10", "Sheet1!$B$2:$B$10")
	_, err := sh.AddChart(ch, "D2:J15")
	require.NoError(t, err)

	sh.RemoveRows(5, 2)
	assert.Equal(t, "Sheet1!$A$2:$A$8", ch.Series[0].Categories)
	assert.Equal(t, "Sheet1!$B$2:$B$8", ch.Series[0].Values)
	assert.Equal(t, "Sheet1!$B$1", ch.Series[0].NameRef)
}

func TestAdjustPanicsOnBadRoot(t *testing.T) {
	sh := newTestBook(t).Sheets[0]
	assert.Panics(t, func() { sh.InsertRows(0, 1) })
	assert.NotPanics(t, func() { sh.RemoveCols(3, 0) })
}

func TestInsertPushesCellsOffSheet(t *testing.T) {
	sh := newTestBook(t).Sheets[0]
	sh.Cell(ref.MaxColumns, 1).SetInt(1)
	sh.Cell(1, 1).SetInt(2)
	sh.InsertCols(1, 1)
	assert.Nil(t, sh.LookupCell(ref.MaxColumns, 1))
	assert.Equal(t, 2.0, number(t, sh, "B1"))
}

func TestInsertClampsAtSheetEdge(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	sh.Cell(2, 2).SetFormula("XFD1+A1048576")
	sh.Cell(3, 2).SetFormula("SUM(XFC1:XFD1)")
	require.NoError(t, sh.MergeCell("XFC2:XFD3"))
	require.NoError(t, sh.AddDataValidation("XFD5", &DataValidation{Type: "whole"}))
	_, err := sh.AddPictureAt(&PictureInfo{Extension: "png", Blob: tinyPNG}, ref.MaxColumns, 1, 10, 10)
	require.NoError(t, err)
	_, err = sh.AddShape(&Shape{Text: "kept"}, "B4:C5")
	require.NoError(t, err)

	sh.InsertCols(1, 1)
	assert.Equal(t, "#REF!+B1048576", formula(t, sh, "C2"))
	assert.Equal(t, "SUM(XFD1:XFD1)", formula(t, sh, "D2"))
	assert.Equal(t, "XFD2:XFD3", sh.MergeCells[0].Coordinate())
	assert.Empty(t, sh.Validations)
	require.NotNil(t, sh.Drawing)
	assert.Len(t, sh.Drawing.Anchors, 1, "an anchor pushed off the sheet is deleted")

	sh.InsertRows(1, 1)
	assert.Equal(t, "#REF!+#REF!", formula(t, sh, "C3"))
	assert.Equal(t, "XFD3:XFD4", sh.MergeCells[0].Coordinate())

	sheetXML := partText(t, wb, "/xl/worksheets/sheet1.xml")
	assert.Contains(t, sheetXML, `<mergeCell ref="XFD3:XFD4"/>`)
	assert.NotContains(t, sheetXML, "XFE")
	assert.NotContains(t, sheetXML, "1048577")
}

func TestExternalReferencesUntouched(t *testing.T) {
	sh := newTestBook(t).Sheets[0]
	sh.Cell(1, 1).SetFormula("[1]Sheet1!A3+'[2]Sheet1'!A3+A3")
	sh.RemoveRows(2, 1)
	assert.Equal(t, "[1]Sheet1!A3+'[2]Sheet1'!A3+A2", formula(t, sh, "A1"))
}
