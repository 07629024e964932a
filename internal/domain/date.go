// internal/domain/date.go
package domain

import "time"

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// DateOf returns the calendar day of t (in t's own location) as midnight UTC.
// DATE columns scan back as midnight UTC, so all day values are kept in that form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
