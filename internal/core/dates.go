package core

import (
	"strings"
	"time"
)

// DayLayout is the storage form of every record date.
const DayLayout = "2006-01-02"

// DisplayLayout is the human readable form used by reports.
const DisplayLayout = "02 Jan 2006"

// All dates are interpreted in UTC. A user in a far-off timezone may see an
// entry made near midnight land on the adjacent day.

// Bucket is a calendar day decomposed for grouping.
type Bucket struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseBucket decomposes a YYYY-MM-DD date or an RFC 3339 timestamp. The
// second result is false for empty or malformed input.
func ParseBucket(s string) (Bucket, bool) {
	t, ok := parseDay(s)
	if !ok {
		return Bucket{}, false
	}
	y, m, d := t.Date()
	return Bucket{Year: y, Month: m, Day: d}, true
}

func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// MonthIndex returns the 0-based month (January is 0).
func (b Bucket) MonthIndex() int { return int(b.Month) - 1 }

func (b Bucket) Time() time.Time {
	return time.Date(b.Year, b.Month, b.Day, 0, 0, 0, 0, time.UTC)
}

func (b Bucket) DayKey() string { return b.Time().Format(DayLayout) }

func (b Bucket) MonthKey() string { return b.Time().Format("2006-01") }

// In reports whether the bucket falls in the given year and month.
func (b Bucket) In(year int, month time.Month) bool {
	return b.Year == year && b.Month == month
}

// IsDay reports whether s is a strict YYYY-MM-DD calendar date.
func IsDay(s string) bool {
	_, err := time.Parse(DayLayout, s)
	return err == nil
}

// NormalizeDay rewrites a parseable date to YYYY-MM-DD in UTC. Unparseable
// input is returned unchanged so validation can report it.
func NormalizeDay(s string) string {
	b, ok := ParseBucket(s)
	if !ok {
		return s
	}
	return b.DayKey()
}

// FormatDay renders a stored date for display, or "" when malformed.
func FormatDay(s string) string {
	t, ok := parseDay(s)
	if !ok {
		return ""
	}
	return t.Format(DisplayLayout)
}

// Today returns the UTC calendar day of now.
func Today(now time.Time) string {
	return now.UTC().Format(DayLayout)
}

// MonthName returns the full English month name for a 0-based index, or ""
// when the index is out of range.
func MonthName(i int) string {
	if i < 0 || i > 11 {
		return ""
	}
	return time.Month(i + 1).String()
}

// MonthLabel returns the three letter month label for a 0-based index.
func MonthLabel(i int) string {
	name := MonthName(i)
	if name == "" {
		return ""
	}
	return name[:3]
}

// ShiftMonth moves (year, month) by delta months, crossing year boundaries.
func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	return t.Year(), t.Month()
}
