package ref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustFormula(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		edit    Edit
		want    string
	}{
		{"insert row grows range", "SUM(A1:A2)", InsertRows("S", 2, 1), "SUM(A1:A3)"},
		{"remove column drops cell", "A1+B1", RemoveCols("S", 2, 1), "A1+#REF!"},
		{"absolute markers kept", "$A$5*B$6", InsertRows("S", 5, 2), "$A$7*B$8"},
		{"other sheet untouched", "Other!A5+A5", InsertRows("S", 1, 1), "Other!A5+A6"},
		{"other sheet targeted", "Other!A5+A5", InsertRows("Other", 1, 1), "Other!A6+A5"},
		{"quoted sheet", "'My Data'!C3", InsertCols("My Data", 1, 1), "'My Data'!D3"},
		{"string literal kept", `"A1"&A1`, InsertRows("S", 1, 1), `"A1"&A2`},
		{"function name kept", "LOG10(A10)", InsertRows("S", 1, 1), "LOG10(A11)"},
		{"number kept", "1.5E+3*C2", InsertRows("S", 1, 1), "1.5E+3*C3"},
		{"partial removal clamps", "SUM(A1:A5)", RemoveRows("S", 2, 2), "SUM(A1:A3)"},
		{"full removal", "SUM(A2:A3)", RemoveRows("S", 2, 2), "SUM(#REF!)"},
		{"whole column", "SUM(C:D)", InsertCols("S", 1, 1), "SUM(D:E)"},
		{"whole column on row edit", "SUM(C:D)", InsertRows("S", 1, 1), "SUM(C:D)"},
		{"removed sheet prefix", "Other!B2", RemoveRows("Other", 2, 1), "#REF!"},
		{"sheet match is case sensitive", "other!A5", InsertRows("Other", 1, 1), "other!A5"},
		{"structured reference", "SUM(Table1[Col A])", InsertRows("S", 1, 1), "SUM(Table1[Col A])"},
		{"boolean", "IF(TRUE,A1,B1)", InsertCols("S", 1, 1), "IF(TRUE,B1,C1)"},
		{"pushed off the last column", "XFD1+A1", InsertCols("S", 1, 1), "#REF!+B1"},
		{"pushed off the last row", "A1048576*2", InsertRows("S", 3, 1), "#REF!*2"},
		{"range end clamped at the edge", "SUM(XFC1:XFD1)", InsertCols("S", 1, 1), "SUM(XFD1:XFD1)"},
		{"range pushed wholly off", "SUM(A1048575:B1048576)", InsertRows("S", 2, 5), "SUM(#REF!)"},
		{"full height range", "SUM(A1:A1048576)", InsertRows("S", 1, 1), "SUM(A2:A1048576)"},
		{"external book", "[1]S!A3+'[2]S'!A3+A3", RemoveRows("S", 2, 1), "[1]S!A3+'[2]S'!A3+A2"},
		{"external book range", "SUM([1]S!A3:B4)", InsertRows("S", 1, 1), "SUM([1]S!A3:B4)"},
		{"external book name", "[1]!Rate*A1", InsertRows("S", 1, 1), "[1]!Rate*A2"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.edit.AdjustFormula(c.formula, "S"))
		})
	}
}

func TestInsertThenRemoveIsIdentity(t *testing.T) {
	formulas := []string{
		"SUM(A1:A10)+B3*$C$4",
		"Other!A1+'S'!B9",
		"AVERAGE(2:4)",
		`CONCAT("B2",D7)`,
	}
	for _, f := range formulas {
		for _, e := range []Edit{InsertRows("S", 3, 2), InsertCols("S", 2, 5)} {
			once := e.AdjustFormula(f, "S")
			assert.Equal(t, f, e.Inverse().AdjustFormula(once, "S"), f)
		}
	}
}

func TestShiftFormula(t *testing.T) {
	assert.Equal(t, "B2+$A$1+C$1", ShiftFormula("A1+$A$1+B$1", 1, 1))
	assert.Equal(t, "#REF!+#REF!", ShiftFormula("A2+B1", -1, -1))
	assert.Equal(t, "SUM(B3:B4)", ShiftFormula("SUM(A1:A2)", 1, 2))
}

func TestRenameSheet(t *testing.T) {
	assert.Equal(t, "'New Name'!A1+Keep!B2", RenameSheet("Old!A1+Keep!B2", "Old", "New Name"))
	assert.Equal(t, `Fresh!A1&"Old!A1"`, RenameSheet(`'Old'!A1&"Old!A1"`, "Old", "Fresh"))
	assert.Equal(t, "[1]Old!A1+'[2]Old'!A1+New!A1", RenameSheet("[1]Old!A1+'[2]Old'!A1+Old!A1", "Old", "New"))
}

func TestInvalidateSheet(t *testing.T) {
	assert.Equal(t, "#REF!+A1+Other!B2", InvalidateSheet("Gone!A1+A1+Other!B2", "Gone"))
	assert.Equal(t, `SUM(#REF!)&"Gone!A1"`, InvalidateSheet(`SUM('Gone'!A1:B2)&"Gone!A1"`, "Gone"))
}

func TestFormulaReferences(t *testing.T) {
	refs := FormulaReferences("=SUM(A1:B2)+Sheet2!C3")
	assert.Equal(t, []string{"A1:B2", "Sheet2!C3"}, refs)
}

func TestEditIndex(t *testing.T) {
	e := RemoveRows("S", 3, 2)
	n, ok := e.Index(2)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	_, ok = e.Index(4)
	assert.False(t, ok)
	n, ok = e.Index(5)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	lo, hi, ok := e.Span(2, 6)
	assert.True(t, ok)
	assert.Equal(t, []int{2, 4}, []int{lo, hi})

	_, ok = InsertRows("S", 1, 1).Index(MaxRows)
	assert.False(t, ok, "pushed off the sheet")
	lo, hi, ok = InsertCols("S", 1, 2).Span(MaxColumns-2, MaxColumns)
	assert.True(t, ok)
	assert.Equal(t, []int{MaxColumns, MaxColumns}, []int{lo, hi})
	_, _, ok = InsertCols("S", 1, 2).Span(MaxColumns-1, MaxColumns)
	assert.False(t, ok)
}

func TestCheckFormula(t *testing.T) {
	for _, f := range []string{
		"SUM(A1:B2)+Sheet2!C3",
		`IF(A1>0,"x",#REF!)`,
		"{1,2;3,4}",
		"=#REF!+#REF!",
	} {
		assert.NoError(t, CheckFormula(f), f)
	}
	for _, f := range []string{"SUM(A1", "A1)+1", `A1"x"`} {
		assert.ErrorIs(t, CheckFormula(f), ErrInvalid, f)
	}
}
