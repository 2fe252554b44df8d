package xl

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adnsv/go-xlsx/opc"
)

func newTestBook(t *testing.T, sheets ...string) *Workbook {
	t.Helper()
	if len(sheets) == 0 {
		sheets = []string{"Sheet1"}
	}
	wb := NewWorkbook()
	for _, name := range sheets {
		_, err := wb.AddSheet(name)
		require.NoError(t, err)
	}
	return wb
}

// reload saves wb to memory and loads it back.
func reload(t *testing.T, wb *Workbook) *Workbook {
	t.Helper()
	data, err := wb.Bytes(DefaultOptions())
	require.NoError(t, err)
	back, err := OpenBytes(data, DefaultOptions())
	require.NoError(t, err)
	return back
}

func partText(t *testing.T, wb *Workbook, name string) string {
	t.Helper()
	pkg, err := wb.Package(DefaultOptions())
	require.NoError(t, err)
	data, err := pkg.ReadPart(name)
	require.NoError(t, err)
	return string(data)
}

func TestHelloCell(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	sh.Cell(1, 1).SetStr("Hello")
	sh.Cell(2, 2).SetInt(42)

	back := reload(t, wb)
	require.Len(t, back.Sheets, 1)
	bs := back.Sheet("Sheet1")
	require.NotNil(t, bs)

	a1 := bs.LookupCell(1, 1)
	require.NotNil(t, a1)
	assert.Equal(t, CellTypeSharedString, a1.Type())
	assert.Equal(t, "Hello", a1.String())
	assert.Nil(t, a1.Style)

	b2 := bs.LookupCell(2, 2)
	require.NotNil(t, b2)
	assert.Equal(t, CellTypeNumber, b2.Type())
	f, ok := b2.Float()
	assert.True(t, ok)
	assert.Equal(t, 42.0, f)
	assert.Nil(t, b2.Style)

	sheetXML := partText(t, wb, "/xl/worksheets/sheet1.xml")
	assert.Regexp(t, `<c r="A1" t="s">\s*<v>0</v>\s*</c>`, sheetXML)
	assert.Regexp(t, `<c r="B2">\s*<v>42</v>\s*</c>`, sheetXML)
}

func TestSharedStringDedup(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	for row := 1; row <= 3; row++ {
		sh.Cell(1, row).SetStr("dup")
	}

	sst := partText(t, wb, "/xl/sharedStrings.xml")
	assert.Equal(t, 1, strings.Count(sst, "<si>"))
	assert.Regexp(t, `<si>\s*<t>dup</t>\s*</si>`, sst)
	assert.Contains(t, sst, `count="3"`)
	assert.Contains(t, sst, `uniqueCount="1"`)

	sheetXML := partText(t, wb, "/xl/worksheets/sheet1.xml")
	for _, coord := range []string{"A1", "A2", "A3"} {
		assert.Regexp(t, `<c r="`+coord+`" t="s">\s*<v>0</v>\s*</c>`, sheetXML)
	}
}

func TestInterningIdempotence(t *testing.T) {
	wb := newTestBook(t, "Data", "Other")
	sh := wb.Sheets[0]
	bold := &Style{Font: &Font{Bold: true}}
	red := &Style{Fill: SolidFill(RGBColor("FF0000")), NumFmt: NewNumberFormat("0.000")}
	sh.Cell(1, 1).SetStr("b")
	sh.Cell(1, 1).Style = bold
	sh.Cell(2, 1).SetStr("a")
	sh.Cell(2, 1).Style = red
	sh.Cell(1, 2).SetRichText(NewRichText("x").Add("y", &Font{Italic: true}))
	wb.Sheets[1].Cell(3, 3).SetStr("a")
	wb.Sheets[1].Cell(3, 3).Style = bold.Clone()

	first, err := wb.Package(DefaultOptions())
	require.NoError(t, err)
	second, err := wb.Package(DefaultOptions())
	require.NoError(t, err)
	for _, part := range []string{"/xl/sharedStrings.xml", "/xl/styles.xml"} {
		a, err := first.ReadPart(part)
		require.NoError(t, err)
		b, err := second.ReadPart(part)
		require.NoError(t, err)
		assert.Equal(t, a, b, part)
	}

	// the reloaded model interns to the same tables
	back := reload(t, wb)
	third, err := back.Package(DefaultOptions())
	require.NoError(t, err)
	for _, part := range []string{"/xl/sharedStrings.xml", "/xl/styles.xml"} {
		a, _ := first.ReadPart(part)
		b, err := third.ReadPart(part)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), part)
	}
}

func TestWriteEmptyWorkbook(t *testing.T) {
	_, err := NewWorkbook().Package(DefaultOptions())
	assert.Error(t, err)
}

func TestSheetManagement(t *testing.T) {
	wb := newTestBook(t, "One", "Two", "Three")

	_, err := wb.AddSheet("two")
	assert.Error(t, err, "names are case-insensitive")
	_, err = wb.AddSheet("bad/name")
	assert.Error(t, err)
	_, err = wb.AddSheet(strings.Repeat("x", 32))
	assert.Error(t, err)

	wb.Sheet("Two").Cell(1, 1).SetFormula("One!A1+'Three'!B2")
	require.NoError(t, wb.RenameSheet("One", "First Sheet"))
	assert.Equal(t, "'First Sheet'!A1+'Three'!B2", wb.Sheet("Two").Cell(1, 1).Formula())
	assert.Nil(t, wb.Sheet("One"))

	require.NoError(t, wb.MoveSheet("Three", 0))
	assert.Equal(t, []string{"Three", "First Sheet", "Two"}, sheetNames(wb))

	_, err = wb.AddDefinedName("Local", "Three!$A$1", wb.Sheet("Three"))
	require.NoError(t, err)
	require.NoError(t, wb.RemoveSheet("Three"))
	assert.Equal(t, "'First Sheet'!A1+#REF!", wb.Sheet("Two").Cell(1, 1).Formula())
	assert.Nil(t, wb.DefinedName("Local", nil))
	assert.Empty(t, wb.DefinedNames)

	require.NoError(t, wb.RemoveSheet("Two"))
	assert.Error(t, wb.RemoveSheet("First Sheet"))
}

func sheetNames(wb *Workbook) []string {
	var out []string
	for _, sh := range wb.Sheets {
		out = append(out, sh.Name)
	}
	return out
}

func TestWorkbookPropertiesRoundTrip(t *testing.T) {
	wb := newTestBook(t, "A", "B")
	wb.Date1904 = true
	wb.Sheets[1].State = SheetHidden
	wb.Protection = &WorkbookProtection{LockStructure: true}
	wb.Protection.SetPassword("secret")
	wb.Calc = CalcProperties{CalcID: 191029, FullCalcOnLoad: true}
	_, err := wb.AddDefinedName("Total", "A!$B$1:$B$9", nil)
	require.NoError(t, err)
	_, err = wb.AddDefinedName("_xlnm.Print_Area", "B!$A$1:$D$20", wb.Sheets[1])
	require.NoError(t, err)

	back := reload(t, wb)
	assert.True(t, back.Date1904)
	assert.Equal(t, SheetHidden, back.Sheet("B").State)
	require.NotNil(t, back.Protection)
	assert.True(t, back.Protection.LockStructure)
	assert.Equal(t, "DAA7", back.Protection.PasswordHash)
	assert.Equal(t, 191029, back.Calc.CalcID)
	assert.True(t, back.Calc.FullCalcOnLoad)

	g := back.DefinedName("Total", nil)
	require.NotNil(t, g)
	assert.Equal(t, "A!$B$1:$B$9", g.RefersTo)
	l := back.DefinedName("_xlnm.Print_Area", back.Sheet("B"))
	require.NotNil(t, l)
	assert.Equal(t, back.Sheet("B"), l.Scope)
}

func TestLegacyPasswordHash(t *testing.T) {
	assert.Equal(t, "83AF", LegacyPasswordHash("password"))
	assert.Equal(t, "DAA7", LegacyPasswordHash("secret"))
	assert.Equal(t, "CE4B", LegacyPasswordHash(""))
}

func TestSaveAsAndSave(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "book.xlsx")

	wb := newTestBook(t)
	wb.Sheets[0].Cell(1, 1).SetStr("v1")
	require.NoError(t, wb.SaveAs(name, DefaultOptions()))

	opened, err := OpenFile(name, DefaultOptions())
	require.NoError(t, err)
	opened.Sheets[0].Cell(1, 1).SetStr("v2")
	require.NoError(t, opened.Save())

	again, err := OpenFile(name, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "v2", again.Sheets[0].LookupCell(1, 1).String())

	assert.Error(t, NewWorkbook().Save())
}

func TestWriteStorageDirectory(t *testing.T) {
	wb := newTestBook(t)
	wb.Sheets[0].Cell(1, 1).SetInt(1)
	dir := t.TempDir()
	require.NoError(t, wb.WriteStorage(opc.NewDirStorage(dir), DefaultOptions()))
	for _, p := range []string{"[Content_Types].xml", "_rels/.rels", "xl/workbook.xml", "xl/worksheets/sheet1.xml", "xl/styles.xml"} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(p)))
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := OpenBytes([]byte("not a zip"), DefaultOptions())
	assert.ErrorIs(t, err, ErrIO)

	var buf bytes.Buffer
	zs := opc.NewZipStorage(&buf, 0)
	require.NoError(t, opc.New().Finalize(zs, nil))
	require.NoError(t, zs.Close())
	_, err = OpenBytes(buf.Bytes(), DefaultOptions())
	assert.ErrorIs(t, err, ErrPartMissing)
}
