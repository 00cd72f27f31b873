package academic

import "time"

// =============================================================================
// ACADEMIC YEAR - Entitlement period for leave quotas
// =============================================================================

// Year identifies an academic year by its starting calendar year:
// with a July boundary, Year(2025) runs 2025-07-01 .. 2026-06-30.
type Year int

// YearConfig fixes where the academic year begins. Institutions differ;
// the engine takes it as configuration rather than hardcoding July.
type YearConfig struct {
	StartMonth time.Month
}

func DefaultYearConfig() YearConfig { return YearConfig{StartMonth: time.July} }

// YearOf returns the academic year containing the date.
func (c YearConfig) YearOf(d Date) Year {
	if d.Month() >= c.StartMonth {
		return Year(d.Year())
	}
	return Year(d.Year() - 1)
}

// Span returns the first and last day of the academic year.
func (c YearConfig) Span(y Year) (Date, Date) {
	start := NewDate(int(y), c.StartMonth, 1)
	end := start.AddDays(-1)
	end = Date{t: end.t.AddDate(1, 0, 0)}
	return start, end
}

// YearOfMonth returns the academic year containing the month.
func (c YearConfig) YearOfMonth(m Month) Year {
	return c.YearOf(m.Start())
}
