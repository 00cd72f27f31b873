/*
Package academic provides the calendar primitives the engine computes with.

PURPOSE:
  Leave spans, scholarship months, and academic years are all day-granular.
  This package pins every date to midnight UTC so comparisons, inclusive day
  counts, and month clipping behave identically everywhere.

KEY CONCEPTS IN THIS FILE (time.go):
  - Date: a calendar day (midnight UTC)
  - Month: a (year, month) pair with its actual day count
  - Inclusive spans: Jan 10..Jan 12 is 3 days, not 2

SEE ALSO:
  - year.go: academic-year boundaries (configurable start month)
*/
package academic

import "time"

// =============================================================================
// DATE - A calendar day
// =============================================================================

type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its calendar day (UTC).
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

func Today() Date { return DateOf(time.Now()) }

func (d Date) Time() time.Time     { return d.t }
func (d Date) Year() int           { return d.t.Year() }
func (d Date) Month() time.Month   { return d.t.Month() }
func (d Date) Day() int            { return d.t.Day() }
func (d Date) IsZero() bool        { return d.t.IsZero() }
func (d Date) String() string      { return d.t.Format("2006-01-02") }
func (d Date) AddDays(n int) Date  { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Before(o Date) bool  { return d.t.Before(o.t) }
func (d Date) After(o Date) bool   { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool   { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// InclusiveDays returns the number of days in [from, to], both ends counted.
// Returns 0 when to is before from.
func InclusiveDays(from, to Date) int {
	if to.Before(from) {
		return 0
	}
	return int(to.t.Sub(from.t).Hours()/24) + 1
}

// =============================================================================
// MONTH - A (year, month) pair
// =============================================================================

type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(d Date) Month { return Month{Year: d.Year(), Month: d.Month()} }

func CurrentMonth() Month { return MonthOf(Today()) }

func (m Month) Start() Date { return NewDate(m.Year, m.Month, 1) }

func (m Month) End() Date {
	return Date{t: time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// Days returns the actual day count of the month, so February differs
// from January and leap years are honored.
func (m Month) Days() int { return m.End().Day() }

func (m Month) Contains(d Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

func (m Month) Before(o Month) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Month < o.Month)
}

func (m Month) String() string { return m.Start().t.Format("2006-01") }

// OverlapDays returns how many days of the inclusive span [from, to] fall
// inside the month. Partial-month overlap counts only the in-month days.
func (m Month) OverlapDays(from, to Date) int {
	start, end := m.Start(), m.End()
	if from.After(start) {
		start = from
	}
	if to.Before(end) {
		end = to
	}
	return InclusiveDays(start, end)
}
