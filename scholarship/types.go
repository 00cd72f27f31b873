/*
Package scholarship derives monthly scholarship payouts from the leave
ledger and approved leave history.

PURPOSE:
  The payout for (student, year, month) is a pure function of read-only
  history: approved LWP days inside the month plus CL overflow billed as
  unpaid days, priced at the month's actual per-day rate. Recomputation
  is idempotent; errors here silently corrupt payroll, so every rule is
  explicit policy, not hardcoded constants.

ALGORITHM (calculator.go):
  perDayRate   = baseAmount / daysInMonth      (February differs from January)
  lwpDays      = in-month approved LWP days + CL overflow attribution
  lwpDeduction = round(perDayRate * lwpDays)   (fixed rounding policy)
  finalAmount  = max(0, baseAmount - lwpDeduction), clamped and flagged

CACHING:
  Closed months are immutable history, cached with idempotent overwrites.
  The current month is always recomputed live.

SEE ALSO:
  - policy.go: attribution and rounding policy knobs
  - leave/ledger.go: overflow source
*/
package scholarship

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campuskit/leave-engine/academic"
)

// =============================================================================
// MONTHLY RECORD
// =============================================================================

// Record is the derived payout for one (student, year, month). Derivable
// on demand; closed months are cached as immutable history.
type Record struct {
	StudentID string
	Month     academic.Month

	BaseAmount decimal.Decimal
	PerDayRate decimal.Decimal

	LwpDaysFromRecords  int
	LwpDaysFromOverflow int
	LwpDays             int

	LwpDeduction decimal.Decimal
	FinalAmount  decimal.Decimal

	// NeedsReview marks a clamped would-be-negative payout for manual
	// review. Surfaced, never fatal.
	NeedsReview bool
	Warnings    []string

	ComputedAt time.Time
}

// =============================================================================
// CACHE - closed-month record store
// =============================================================================

type Cache interface {
	// GetRecord returns nil, nil when no record is cached.
	GetRecord(ctx context.Context, studentID string, m academic.Month) (*Record, error)

	// PutRecord overwrites idempotently, never accumulates.
	PutRecord(ctx context.Context, rec Record) error
}
