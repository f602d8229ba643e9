package interval

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInterval marks unparseable or inverted date ranges.
var ErrInvalidInterval = errors.New("invalid interval")

const dateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component.
// Comparisons are done on the (year, month, day) triple so a value can never
// shift across a day boundary the way timezone-aware timestamps do.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate accepts "2006-01-02", "2006-01-02 15:04:05" and RFC3339-style
// strings. Anything after the date part is cut off, never interpreted.
func ParseDate(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: parse date %q: %v", ErrInvalidInterval, raw, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf truncates a time.Time to its local calendar date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) After(other Date) bool {
	return other.Before(d)
}

// String renders the canonical YYYY-MM-DD form used in storage and queries.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Display renders the date for user-facing messages, e.g. "Nov 5, 2025".
func (d Date) Display() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local).Format("Jan 2, 2006")
}

// Interval is a closed range of calendar days. Start == End is a single day.
type Interval struct {
	Start Date
	End   Date
}

// Parse builds an Interval from raw start/end strings and validates it.
func Parse(start, end string) (Interval, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Interval{}, err
	}
	iv := Interval{Start: s, End: e}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate rejects zero dates and inverted ranges.
func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return fmt.Errorf("%w: missing start or end date", ErrInvalidInterval)
	}
	if iv.End.Before(iv.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidInterval, iv.End, iv.Start)
	}
	return nil
}

// Overlaps reports whether two closed intervals share at least one calendar
// day: a.Start <= b.End && b.Start <= a.End. Touching endpoints count.
func Overlaps(a, b Interval) bool {
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

// DisplayRange formats the interval for conflict messages, collapsing
// single-day ranges to one date.
func (iv Interval) DisplayRange() string {
	if iv.Start == iv.End {
		return iv.Start.Display()
	}
	return fmt.Sprintf("%s to %s", iv.Start.Display(), iv.End.Display())
}
