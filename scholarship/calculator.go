/*
calculator.go - Monthly payout derivation

PURPOSE:
  Compute is a pure function over read-only store state: safe to run
  repeatedly, from any number of goroutines, with identical results for
  identical history. Get adds the closed-month cache on top.

OVERFLOW ATTRIBUTION:
  CL approvals are replayed in decision order. Each approval's overflow
  contribution is the slice of its days that pushed cumulative usage past
  the quota; the contribution bills against the month chosen by the
  attribution policy. quota=30, used=31 yields exactly one unpaid day in
  the month of the approval that crossed the line.

SEE ALSO:
  - policy.go: attribution and rounding knobs
  - store/sqlite: Cache implementation
*/
package scholarship

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campuskit/leave-engine/academic"
	"github.com/campuskit/leave-engine/leave"
)

// =============================================================================
// READER - what the calculator needs from persistence (read-only)
// =============================================================================

// Reader is satisfied by leave.Store.
type Reader interface {
	GetStudent(ctx context.Context, id string) (*leave.Student, error)
	ListApplications(ctx context.Context, f leave.Filter) ([]leave.Application, error)
	GetLedgerEntry(ctx context.Context, studentID string, t leave.Type, year academic.Year) (leave.LedgerEntry, error)
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	Reader Reader
	Cache  Cache // optional; closed-month records only
	Policy Policy
	Years  academic.YearConfig

	Now func() time.Time // swappable in tests
}

func NewCalculator(r Reader) *Calculator {
	return &Calculator{
		Reader: r,
		Policy: DefaultPolicy(),
		Years:  academic.DefaultYearConfig(),
	}
}

func (c *Calculator) clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Get returns the record for the month, serving closed months from the
// cache when available. Cache writes are idempotent overwrites; the
// current (and any future) month is always recomputed live and never
// cached.
func (c *Calculator) Get(ctx context.Context, studentID string, m academic.Month) (*Record, error) {
	closed := m.Before(academic.MonthOf(academic.DateOf(c.clock())))

	if closed && c.Cache != nil {
		if rec, err := c.Cache.GetRecord(ctx, studentID, m); err != nil {
			return nil, fmt.Errorf("read cached record: %w", err)
		} else if rec != nil {
			return rec, nil
		}
	}

	rec, err := c.Compute(ctx, studentID, m)
	if err != nil {
		return nil, err
	}

	if closed && c.Cache != nil {
		if err := c.Cache.PutRecord(ctx, *rec); err != nil {
			return nil, fmt.Errorf("cache record: %w", err)
		}
	}
	return rec, nil
}

// Compute derives the month's payout from history. Never writes.
func (c *Calculator) Compute(ctx context.Context, studentID string, m academic.Month) (*Record, error) {
	student, err := c.Reader.GetStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, &leave.NotFoundError{Kind: "student", ID: studentID}
	}

	base := decimal.NewFromInt(student.BaseAmount)
	perDay := base.Div(decimal.NewFromInt(int64(m.Days())))

	recordDays, err := c.lwpDaysFromRecords(ctx, studentID, m)
	if err != nil {
		return nil, err
	}

	overflowDays, err := c.lwpDaysFromOverflow(ctx, student, m)
	if err != nil {
		return nil, err
	}

	lwpDays := recordDays + overflowDays
	deduction := c.Policy.Rounding.Apply(perDay.Mul(decimal.NewFromInt(int64(lwpDays))))

	rec := &Record{
		StudentID:           studentID,
		Month:               m,
		BaseAmount:          base,
		PerDayRate:          perDay,
		LwpDaysFromRecords:  recordDays,
		LwpDaysFromOverflow: overflowDays,
		LwpDays:             lwpDays,
		LwpDeduction:        deduction,
		FinalAmount:         base.Sub(deduction),
		ComputedAt:          c.clock().UTC(),
	}

	if rec.FinalAmount.IsNegative() {
		rec.FinalAmount = decimal.Zero
		rec.NeedsReview = true
		rec.Warnings = append(rec.Warnings,
			fmt.Sprintf("deduction %s exceeds base %s; payout clamped to zero", deduction, base))
	}

	return rec, nil
}

// lwpDaysFromRecords sums the in-month days of approved LWP applications.
// Partial-month spans are clipped to the month.
func (c *Calculator) lwpDaysFromRecords(ctx context.Context, studentID string, m academic.Month) (int, error) {
	apps, err := c.Reader.ListApplications(ctx, leave.Filter{
		StudentID: studentID,
		Type:      leave.TypeWithoutPay,
		Status:    leave.StatusApproved,
	})
	if err != nil {
		return 0, fmt.Errorf("list lwp applications: %w", err)
	}

	total := 0
	for _, app := range apps {
		total += m.OverlapDays(app.Start, app.End)
	}
	return total, nil
}

// lwpDaysFromOverflow replays the academic year's CL approvals in
// decision order and attributes each approval's over-quota slice to a
// month per the attribution policy.
func (c *Calculator) lwpDaysFromOverflow(ctx context.Context, student *leave.Student, m academic.Month) (int, error) {
	year := c.Years.YearOfMonth(m)

	entry, err := c.Reader.GetLedgerEntry(ctx, student.ID, leave.TypeCasual, year)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}
	quota := entry.Quota
	if quota == 0 && entry.Used == 0 {
		// Ledger not seeded yet; fall back to the profile quota.
		quota = student.CasualQuota
	}

	apps, err := c.Reader.ListApplications(ctx, leave.Filter{
		StudentID: student.ID,
		Type:      leave.TypeCasual,
		Status:    leave.StatusApproved,
	})
	if err != nil {
		return 0, fmt.Errorf("list cl applications: %w", err)
	}

	yearStart, yearEnd := c.Years.Span(year)
	inYear := apps[:0:0]
	for _, app := range apps {
		if app.Start.AfterOrEqual(yearStart) && app.Start.BeforeOrEqual(yearEnd) {
			inYear = append(inYear, app)
		}
	}
	sort.Slice(inYear, func(i, j int) bool {
		di, dj := inYear[i].DecidedAt, inYear[j].DecidedAt
		if di == nil || dj == nil {
			return dj == nil && di != nil
		}
		return di.Before(*dj)
	})

	total := 0
	cum := 0
	for _, app := range inYear {
		before := cum
		cum += app.DayCount

		over := max(cum-quota, 0) - max(before-quota, 0)
		if over == 0 {
			continue
		}

		var billed academic.Month
		switch c.Policy.Attribution {
		case AttributeByLeaveMonth:
			billed = academic.MonthOf(app.Start)
		default:
			if app.DecidedAt == nil {
				continue
			}
			billed = academic.MonthOf(academic.DateOf(*app.DecidedAt))
		}

		if billed == m {
			total += over
		}
	}
	return total, nil
}
