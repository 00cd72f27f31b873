package academic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/leave-engine/academic"
)

// =============================================================================
// DATE TESTS
// =============================================================================

func TestInclusiveDays_CountsBothEnds(t *testing.T) {
	from := academic.NewDate(2026, time.March, 10)
	to := academic.NewDate(2026, time.March, 12)

	assert.Equal(t, 3, academic.InclusiveDays(from, to))
	assert.Equal(t, 1, academic.InclusiveDays(from, from), "single day counts once")
}

func TestInclusiveDays_InvertedSpan_Zero(t *testing.T) {
	from := academic.NewDate(2026, time.March, 12)
	to := academic.NewDate(2026, time.March, 10)

	assert.Equal(t, 0, academic.InclusiveDays(from, to))
}

func TestInclusiveDays_AcrossMonthBoundary(t *testing.T) {
	from := academic.NewDate(2026, time.January, 30)
	to := academic.NewDate(2026, time.February, 2)

	assert.Equal(t, 4, academic.InclusiveDays(from, to))
}

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := academic.ParseDate("2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", d.String())

	_, err = academic.ParseDate("31/08/2026")
	assert.Error(t, err)
}

// =============================================================================
// MONTH TESTS
// =============================================================================

func TestMonth_Days_HonorsCalendar(t *testing.T) {
	assert.Equal(t, 31, academic.Month{Year: 2026, Month: time.January}.Days())
	assert.Equal(t, 28, academic.Month{Year: 2026, Month: time.February}.Days())
	assert.Equal(t, 29, academic.Month{Year: 2028, Month: time.February}.Days(), "leap year")
	assert.Equal(t, 30, academic.Month{Year: 2026, Month: time.April}.Days())
}

func TestMonth_OverlapDays_ClipsSpanToMonth(t *testing.T) {
	feb := academic.Month{Year: 2026, Month: time.February}

	// Span fully inside the month.
	assert.Equal(t, 3, feb.OverlapDays(
		academic.NewDate(2026, time.February, 10),
		academic.NewDate(2026, time.February, 12),
	))

	// Span straddling the month end: only February days count.
	assert.Equal(t, 2, feb.OverlapDays(
		academic.NewDate(2026, time.February, 27),
		academic.NewDate(2026, time.March, 5),
	))

	// Span entirely outside.
	assert.Equal(t, 0, feb.OverlapDays(
		academic.NewDate(2026, time.March, 1),
		academic.NewDate(2026, time.March, 3),
	))
}

// =============================================================================
// ACADEMIC YEAR TESTS
// =============================================================================

func TestYearOf_JulyBoundary(t *testing.T) {
	cfg := academic.DefaultYearConfig()

	// June belongs to the year that started the previous July.
	assert.Equal(t, academic.Year(2025), cfg.YearOf(academic.NewDate(2026, time.June, 30)))
	// July 1 opens the new year.
	assert.Equal(t, academic.Year(2026), cfg.YearOf(academic.NewDate(2026, time.July, 1)))
}

func TestYearSpan_TwelveMonths(t *testing.T) {
	cfg := academic.DefaultYearConfig()
	start, end := cfg.Span(academic.Year(2025))

	assert.Equal(t, "2025-07-01", start.String())
	assert.Equal(t, "2026-06-30", end.String())
}

func TestYearOf_ConfigurableStartMonth(t *testing.T) {
	cfg := academic.YearConfig{StartMonth: time.January}

	assert.Equal(t, academic.Year(2026), cfg.YearOf(academic.NewDate(2026, time.June, 30)))
	assert.Equal(t, academic.Year(2026), cfg.YearOf(academic.NewDate(2026, time.December, 31)))
}
