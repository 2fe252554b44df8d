package xl

import (
	"math"
	"time"
)

var (
	epoch1900 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	epoch1904 = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
)

const dayNanos = float64(24 * time.Hour)

// TimeToSerial converts t to a serial day number. The 1900 system keeps
// the fictitious 29 February 1900, so dates before March 1900 are one
// less than their distance from the epoch.
func TimeToSerial(t time.Time, date1904 bool) float64 {
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	if date1904 {
		return float64(t.Sub(epoch1904)) / dayNanos
	}
	days := wholeDays(t, epoch1900)
	frac := float64(t.Sub(epoch1900.AddDate(0, 0, int(days)))) / dayNanos
	if days < 61 {
		days--
	}
	return days + frac
}

// SerialToTime converts a serial day number to a UTC time rounded to the
// millisecond. Serial 60, the nonexistent 29 February 1900, maps to the
// 28th.
func SerialToTime(v float64, date1904 bool) time.Time {
	days := math.Floor(v)
	frac := v - days
	var base time.Time
	switch {
	case date1904:
		base = epoch1904.AddDate(0, 0, int(days))
	case days < 60:
		base = epoch1900.AddDate(0, 0, int(days)+1)
	case days == 60:
		base = epoch1900.AddDate(0, 0, 60)
	default:
		base = epoch1900.AddDate(0, 0, int(days))
	}
	d := time.Duration(math.Round(frac*dayNanos/float64(time.Millisecond))) * time.Millisecond
	return base.Add(d)
}

func wholeDays(t, from time.Time) float64 {
	return math.Floor(float64(t.Sub(from)) / dayNanos)
}
