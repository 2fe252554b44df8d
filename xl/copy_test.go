package xl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopySheet(t *testing.T) {
	wb := newTestBook(t, "Src")
	src := wb.Sheets[0]
	src.Cell(1, 1).SetStr("Item")
	src.Cell(1, 1).Style = &Style{Font: &Font{Bold: true}}
	src.Cell(1, 2).SetInt(7)
	src.Cell(2, 2).SetFormula("A2*2")
	src.Cell(1, 3).SetRichText(NewRichText("plain").Add(" bold", &Font{Bold: true}))
	require.NoError(t, src.MergeCell("C1:D1"))
	src.AddComment(1, 2, "me", NewRichText("note"))
	tbl, err := NewTable("Items", "A1:B2")
	require.NoError(t, err)
	require.NoError(t, src.AddTable(tbl))
	_, err = wb.AddDefinedName("Area", "Src!$A$1:$B$2", src)
	require.NoError(t, err)
	src.View.TabSelected = true

	dst, err := wb.CopySheet("Src", "Dst")
	require.NoError(t, err)
	assert.Equal(t, []string{"Src", "Dst"}, sheetNames(wb))

	assert.Equal(t, "Item", dst.LookupCell(1, 1).String())
	assert.Equal(t, "A2*2", dst.LookupCell(2, 2).Formula())
	require.NotNil(t, dst.LookupCell(1, 1).Style)
	assert.NotSame(t, src.LookupCell(1, 1).Style, dst.LookupCell(1, 1).Style)
	assert.True(t, dst.LookupCell(1, 1).Style.Font.Bold)
	rich := dst.LookupCell(1, 3).RichText()
	require.NotNil(t, rich)
	assert.NotSame(t, src.LookupCell(1, 3).RichText(), rich)
	rich.Runs[1].Font.Bold = false
	assert.True(t, src.LookupCell(1, 3).RichText().Runs[1].Font.Bold)
	assert.Equal(t, "C1:D1", dst.MergeCells[0].Coordinate())
	assert.False(t, dst.View.TabSelected)

	require.Len(t, dst.Comments, 1)
	dst.Comments[0].Text.Runs[0].Text = "changed"
	assert.Equal(t, "note", src.Comments[0].Text.Text())

	require.Len(t, dst.Tables, 1)
	assert.Equal(t, "Items_2", dst.Tables[0].Name)
	assert.Equal(t, "Items_2", dst.Tables[0].DisplayName)
	assert.Equal(t, "Items", tbl.Name)

	local := wb.DefinedName("Area", dst)
	require.NotNil(t, local)
	assert.Equal(t, "Dst!$A$1:$B$2", local.RefersTo)
	assert.Equal(t, "Src!$A$1:$B$2", wb.DefinedName("Area", src).RefersTo)

	_, err = wb.CopySheet("Src", "dst")
	assert.Error(t, err)
	_, err = wb.CopySheet("Missing", "Other")
	assert.Error(t, err)

	// the copy survives a save
	back := reload(t, wb)
	require.NotNil(t, back.Sheet("Dst"))
	assert.NotNil(t, back.Table("Items_2"))
}

func TestCopyRangeShiftsFormulas(t *testing.T) {
	sh := newTestBook(t).Sheets[0]
	sh.Cell(1, 1).SetInt(1)
	sh.Cell(1, 2).SetInt(2)
	sh.Cell(2, 1).SetFormula("SUM(A1:A2)*$C$1")
	require.NoError(t, sh.MergeCell("A3:B3"))
	sh.Cell(5, 6).SetStr("overwritten")

	require.NoError(t, sh.CopyRange("A1:B3", "D5"))

	assert.Equal(t, 1.0, number(t, sh, "D5"))
	assert.Equal(t, 2.0, number(t, sh, "D6"))
	assert.Equal(t, "SUM(D5:D6)*$C$1", formula(t, sh, "E5"))
	assert.Nil(t, sh.LookupCell(5, 6), "target cells are replaced")
	assert.Equal(t, "SUM(A1:A2)*$C$1", formula(t, sh, "B1"), "source is untouched")

	var merges []string
	for _, m := range sh.MergeCells {
		merges = append(merges, m.Coordinate())
	}
	assert.ElementsMatch(t, []string{"A3:B3", "D7:E7"}, merges)
}

func TestCopyRangeRejectsBadTargets(t *testing.T) {
	sh := newTestBook(t).Sheets[0]
	sh.Cell(1, 1).SetInt(1)
	assert.ErrorIs(t, sh.CopyRange("A1:B2", "XFD1"), ErrBadReference)
	assert.ErrorIs(t, sh.CopyRange("A:A", "C1"), ErrBadReference)
	assert.ErrorIs(t, sh.CopyRange("nope", "C1"), ErrBadReference)
}

func TestCopyRangeOffSheetReference(t *testing.T) {
	sh := newTestBook(t).Sheets[0]
	sh.Cell(2, 2).SetFormula("A1+B1")
	require.NoError(t, sh.CopyRange("B2", "A1"))
	assert.Equal(t, "#REF!+#REF!", formula(t, sh, "A1"))
}

func TestMoveRangeFollowsReferences(t *testing.T) {
	wb := newTestBook(t, "Sheet1", "Other")
	sh, other := wb.Sheets[0], wb.Sheets[1]
	sh.Cell(1, 1).SetInt(5)
	sh.Cell(1, 2).SetFormula("A1*2")
	other.Cell(3, 1).SetFormula("Sheet1!A1+SUM(Sheet1!A1:A2)")
	_, err := wb.AddDefinedName("Pt", "Sheet1!$A$1", nil)
	require.NoError(t, err)
	sh.AddComment(1, 1, "me", NewRichText("here"))

	require.NoError(t, sh.MoveRange("A1", "C3"))

	assert.Nil(t, sh.LookupCell(1, 1))
	assert.Equal(t, 5.0, number(t, sh, "C3"))
	assert.Equal(t, "C3*2", formula(t, sh, "A2"))
	assert.Equal(t, "Sheet1!C3+SUM(Sheet1!A1:A2)", formula(t, other, "C1"),
		"ranges not wholly inside the source stay put")
	assert.Equal(t, "Sheet1!$C$3", wb.DefinedName("Pt", nil).RefersTo)
	assert.Nil(t, sh.Comment(1, 1))
	assert.NotNil(t, sh.Comment(3, 3))
}

func TestMoveRangeKeepsOwnFormula(t *testing.T) {
	sh := newTestBook(t).Sheets[0]
	sh.Cell(1, 1).SetInt(3)
	sh.Cell(1, 2).SetFormula("A1*2")
	require.NoError(t, sh.MergeCell("A4:B4"))

	require.NoError(t, sh.MoveRange("A2:B4", "D2"))

	assert.Nil(t, sh.LookupCell(1, 2))
	assert.Equal(t, "A1*2", formula(t, sh, "D2"))
	require.Len(t, sh.MergeCells, 1)
	assert.Equal(t, "D4:E4", sh.MergeCells[0].Coordinate())
}
