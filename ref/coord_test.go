package ref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLetters(t *testing.T) {
	cases := []struct {
		n int
		s string
	}{
		{1, "A"}, {26, "Z"}, {27, "AA"}, {702, "ZZ"}, {703, "AAA"}, {16384, "XFD"},
	}
	for _, c := range cases {
		assert.Equal(t, c.s, StringFromColumnIndex(c.n))
		n, err := ColumnIndexFromString(c.s)
		require.NoError(t, err)
		assert.Equal(t, c.n, n)
	}
}

func TestColumnLettersRoundTrip(t *testing.T) {
	for c := 1; c <= MaxColumns; c++ {
		n, err := ColumnIndexFromString(StringFromColumnIndex(c))
		require.NoError(t, err)
		require.Equal(t, c, n)
	}
}

func TestColumnIndexRejects(t *testing.T) {
	for _, s := range []string{"", "XFE", "AAAA", "A1", "-"} {
		_, err := ColumnIndexFromString(s)
		assert.ErrorIs(t, err, ErrInvalid, s)
	}
	assert.Panics(t, func() { StringFromColumnIndex(0) })
}

func TestIndexFromCoordinate(t *testing.T) {
	col, row, colLock, rowLock, err := IndexFromCoordinate("$AA91")
	require.NoError(t, err)
	assert.Equal(t, 27, col)
	assert.Equal(t, 91, row)
	assert.True(t, colLock)
	assert.False(t, rowLock)

	col, row, colLock, rowLock, err = IndexFromCoordinate("b$7")
	require.NoError(t, err)
	assert.Equal(t, []any{2, 7, false, true}, []any{col, row, colLock, rowLock})

	for _, s := range []string{"A", "7", "$A$", "A0", "A1048577"} {
		_, _, _, _, err = IndexFromCoordinate(s)
		assert.Error(t, err, s)
	}
	assert.Equal(t, "$C$3", CoordinateFromIndexWithLock(3, 3, true, true))
}

func TestSplitAddress(t *testing.T) {
	sheet, rng := SplitAddress("Sheet1!$A$1:$B$2")
	assert.Equal(t, "Sheet1", sheet)
	assert.Equal(t, "$A$1:$B$2", rng)

	sheet, rng = SplitAddress("'It''s here'!C3")
	assert.Equal(t, "It's here", sheet)
	assert.Equal(t, "C3", rng)

	sheet, rng = SplitAddress("D4")
	assert.Empty(t, sheet)
	assert.Equal(t, "D4", rng)
}

func TestQuoteSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", QuoteSheetName("Sheet1"))
	assert.Equal(t, "'My Sheet'", QuoteSheetName("My Sheet"))
	assert.Equal(t, "'a!b'", QuoteSheetName("a!b"))
	assert.Equal(t, "'it''s'", QuoteSheetName("it's"))
	assert.Equal(t, `'say "hi"'`, QuoteSheetName(`say "hi"`))
	assert.Equal(t, "'AB12'", QuoteSheetName("AB12"))
	assert.Equal(t, "'2024'", QuoteSheetName("2024"))
	for _, name := range []string{"Dst", "Tab", "Sum", "XFD", "Rates", "Cost"} {
		assert.Equal(t, name, QuoteSheetName(name))
	}
	for _, name := range []string{"R", "C", "rc", "R1C1", "C12", "R3"} {
		assert.Equal(t, "'"+name+"'", QuoteSheetName(name))
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("Data!$B$2:D10")
	require.NoError(t, err)
	assert.Equal(t, "Data", r.Start.Sheet)
	assert.Equal(t, 2, r.Start.Col)
	assert.Equal(t, 10, r.End.Row)
	assert.Equal(t, 3, r.Cols())
	assert.Equal(t, 9, r.Rows())
	assert.Equal(t, "Data!$B$2:D10", r.String())
	assert.True(t, r.Contains(3, 5))
	assert.False(t, r.Contains(5, 5))

	r, err = ParseRange("C:E")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Start.Row)
	assert.True(t, r.Contains(4, 1000))

	r, err = ParseRange("B7")
	require.NoError(t, err)
	assert.True(t, r.IsCell())
	assert.Equal(t, "B7", r.Coordinate())

	_, err = ParseRange("A1:3")
	assert.Error(t, err)
}

func TestSqref(t *testing.T) {
	rs, err := ParseSqref("A1:B2  D4")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "A1:B2 D4", FormatSqref(rs))
}
