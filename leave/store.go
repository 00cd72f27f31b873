/*
store.go - Persistence contracts for the leave domain

PURPOSE:
  Interfaces between domain logic and the database. The sqlite package
  implements all of them on one handle; tests may substitute narrower
  fakes.

ATOMICITY CONTRACT:
  Decide() is the one compound write in the system: the status flip and
  the ledger increment must commit together or not at all. The Store
  carries that as a single method (ApplyDecision) so implementations can
  wrap both in one database transaction. The ledger increment itself must
  be an atomic in-database increment, never read-modify-write.

COVERED-DATE GUARD:
  SaveApplicationIfUncovered exists for the reconciler: the
  already-covered check and the insert happen under one lock/transaction
  so a concurrent manual submission cannot slip a duplicate in between.
*/
package leave

import (
	"context"

	"github.com/campuskit/leave-engine/academic"
)

// =============================================================================
// STUDENT STORE
// =============================================================================

type StudentStore interface {
	// SaveStudent inserts or updates a student record.
	SaveStudent(ctx context.Context, s *Student) error

	// GetStudent returns nil, nil when the student does not exist.
	GetStudent(ctx context.Context, id string) (*Student, error)

	// ListStudents returns all students, active and deactivated.
	ListStudents(ctx context.Context) ([]Student, error)
}

// =============================================================================
// APPLICATION STORE
// =============================================================================

// Filter narrows ListApplications. Zero values mean "any".
type Filter struct {
	StudentID string
	GuideID   string // applications whose student is assigned to this guide
	Type      Type
	Status    Status
}

// Decision is the atomic payload for ApplyDecision.
type Decision struct {
	ApplicationID   string
	ExpectedVersion int
	Outcome         Status // StatusApproved or StatusRejected
	DeciderID       string
	Reason          string

	// Ledger increment, applied only when Outcome is StatusApproved.
	StudentID    string
	Type         Type
	Days         int
	AcademicYear academic.Year

	// Quota seeds the ledger row when this approval is the year's first
	// entry for a quota-bound type. An already-seeded row keeps its quota.
	Quota int
}

type ApplicationStore interface {
	// SaveApplication persists a new PENDING application.
	SaveApplication(ctx context.Context, app *Application) error

	// SaveApplicationIfUncovered persists the application only if no
	// non-rejected application of the student already covers its span.
	// Returns ErrDateCovered otherwise. Check and insert are atomic.
	SaveApplicationIfUncovered(ctx context.Context, app *Application) error

	// GetApplication returns nil, nil when the application does not exist.
	GetApplication(ctx context.Context, id string) (*Application, error)

	ListApplications(ctx context.Context, f Filter) ([]Application, error)

	// ApplyDecision flips the status and, on approval, increments the
	// ledger - in one transaction. Returns ErrConflict when the expected
	// version no longer matches (concurrent decision).
	ApplyDecision(ctx context.Context, d Decision) error
}

// =============================================================================
// LEDGER STORE
// =============================================================================

type LedgerStore interface {
	// SeedLedger creates the (student, type, year) entry with the given
	// quota if absent. Idempotent.
	SeedLedger(ctx context.Context, studentID string, t Type, year academic.Year, quota int) error

	// GetLedgerEntry returns the zero-usage entry when none is stored.
	GetLedgerEntry(ctx context.Context, studentID string, t Type, year academic.Year) (LedgerEntry, error)

	// LedgerEntries returns all entries for the student in the year.
	LedgerEntries(ctx context.Context, studentID string, year academic.Year) ([]LedgerEntry, error)
}

// Store is everything the leave service needs from persistence.
type Store interface {
	StudentStore
	ApplicationStore
	LedgerStore
}
