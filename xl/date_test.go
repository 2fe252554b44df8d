package xl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialDates(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		t      time.Time
		serial float64
	}{
		{day(1900, 1, 1), 1},
		{day(1900, 2, 28), 59},
		{day(1900, 3, 1), 61},
		{day(2024, 1, 15), 45306},
		{time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC), 45306.75},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.serial, TimeToSerial(tt.t, false), 1e-9, tt.t.String())
		assert.True(t, tt.t.Equal(SerialToTime(tt.serial, false)), "%v", tt.serial)
	}

	// the fictitious leap day reads as the 28th
	assert.True(t, day(1900, 2, 28).Equal(SerialToTime(60, false)))

	assert.InDelta(t, 45306-1462, TimeToSerial(day(2024, 1, 15), true), 1e-9)
	assert.True(t, day(2024, 1, 15).Equal(SerialToTime(45306-1462, true)))

	// wall clock is kept, the zone is dropped
	local := time.Date(2024, 1, 15, 12, 0, 0, 0, time.FixedZone("X", 5*3600))
	assert.InDelta(t, 45306.5, TimeToSerial(local, false), 1e-9)
}

func TestCellTime(t *testing.T) {
	wb := newTestBook(t)
	sh := wb.Sheets[0]
	sh.Cell(1, 1).SetTime(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	sh.Cell(1, 2).SetTime(time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC))
	custom := sh.Cell(1, 3)
	custom.Style = &Style{NumFmt: NewNumberFormat("yyyy-mm-dd")}
	custom.SetTime(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 14, sh.LookupCell(1, 1).Style.NumFmt.ID)
	assert.Equal(t, 22, sh.LookupCell(1, 2).Style.NumFmt.ID)
	assert.Equal(t, "yyyy-mm-dd", custom.Style.NumFmt.Code)

	back := reload(t, wb).Sheets[0]
	for row, want := range []time.Time{
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
		time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC),
	} {
		c := back.LookupCell(1, row+1)
		require.NotNil(t, c)
		assert.True(t, c.IsDate(), "row %d", row+1)
		got, ok := c.Time()
		require.True(t, ok)
		assert.True(t, want.Equal(got), "row %d: %v", row+1, got)
	}
}

func TestDate1904Workbook(t *testing.T) {
	wb := newTestBook(t)
	wb.Date1904 = true
	c := wb.Sheets[0].Cell(1, 1)
	c.SetTime(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	f, ok := c.Float()
	require.True(t, ok)
	assert.Equal(t, float64(45306-1462), f)
}

func TestIsDateFormat(t *testing.T) {
	for code, want := range map[string]bool{
		"General":           false,
		"0.000":             false,
		"#,##0.00":          false,
		"yyyy-mm-dd":        true,
		"d-mmm-yy":          true,
		"h:mm AM/PM":        true,
		"[h]:mm":            true,
		"[Red]0.00":         false,
		`"Day "0`:           false,
		`0.00;[Red]dd/mm`:   false,
		`\d0`:               false,
		`[$-409]mmmm d, yy`: true,
	} {
		assert.Equal(t, want, IsDateFormatCode(code), code)
	}

	assert.True(t, NumFmtDate.IsDate())
	assert.True(t, (&NumberFormat{ID: 46}).IsDate())
	assert.False(t, NumFmtPercent.IsDate())
	assert.False(t, (*NumberFormat)(nil).IsDate())
	assert.Equal(t, 14, NewNumberFormat("mm-dd-yy").ID)
	assert.Equal(t, "0%", NumFmtPercent.FormatCode())
	assert.Equal(t, "0.00%", NumFmtPercent2.FormatCode())
}
