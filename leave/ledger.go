/*
ledger.go - Per-student leave entitlement counters

PURPOSE:
  The ledger is the durable record of quota and usage per
  (student, type, academic year). It moves ONLY when an application
  transitions to APPROVED, in the same store transaction as the status
  flip. Rejections never touch it.

SOFT CEILING:
  For CL, `used` may legitimately exceed `quota`. Remaining() clamps at
  zero for display, but the raw counters stay available because the
  overflow (used - quota) feeds the scholarship deduction.

SEE ALSO:
  - store.go: atomic increment contract
  - scholarship/calculator.go: overflow consumption
*/
package leave

import "github.com/campuskit/leave-engine/academic"

// =============================================================================
// LEDGER ENTRY
// =============================================================================

// LedgerEntry holds quota and usage for one (student, type, year) triple.
// Quota is 0 for unbounded types (DL, LWP); Remaining is meaningless for
// those and reported as 0.
type LedgerEntry struct {
	StudentID    string
	Type         Type
	AcademicYear academic.Year
	Quota        int
	Used         int
}

// Remaining is the display value: max(quota - used, 0). The raw Used
// stays available for overflow computation.
func (e LedgerEntry) Remaining() int {
	if !e.Type.QuotaBound() {
		return 0
	}
	if r := e.Quota - e.Used; r > 0 {
		return r
	}
	return 0
}

// Overflow is CL usage beyond quota, billed as LWP-equivalent days.
func (e LedgerEntry) Overflow() int {
	if !e.Type.QuotaBound() {
		return 0
	}
	if o := e.Used - e.Quota; o > 0 {
		return o
	}
	return 0
}
