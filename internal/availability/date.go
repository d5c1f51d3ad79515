package availability

import (
	"fmt"
	"time"
)

// Date is a timezone-naive calendar date. Day stepping is performed on the
// calendar model itself rather than on wall-clock instants, so enumerating a
// range can never skip or repeat a day across DST transitions.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate parses an ISO 8601 calendar date (YYYY-MM-DD). Inputs carrying a
// time-of-day or timezone component are rejected.
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("availability: invalid calendar date %q: %w", value, err)
	}
	year, month, day := parsed.Date()
	return Date{Year: year, Month: month, Day: day}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Next returns the following calendar day. Month and year rollover follow the
// proleptic Gregorian calendar.
func (d Date) Next() Date {
	next := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	year, month, day := next.Date()
	return Date{Year: year, Month: month, Day: day}
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Equal reports whether both dates name the same calendar day.
func (d Date) Equal(other Date) bool {
	return d == other
}

// Compare orders two dates: -1 when d precedes other, +1 when it follows, 0
// when equal.
func (d Date) Compare(other Date) int {
	switch {
	case d.Before(other):
		return -1
	case d.After(other):
		return 1
	default:
		return 0
	}
}
