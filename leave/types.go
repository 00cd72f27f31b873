/*
Package leave implements the leave administration core: applications, the
per-student entitlement ledger, and the role-scoped approval gate.

PURPOSE:
  Every leave request in the institution flows through this package,
  whether it arrives from a student dashboard or from the bulk attendance
  reconciler. The package enforces the three rules payroll depends on:

  1. Each leave type has exactly one deciding role (CL/DL: guide,
     LWP: operator). Cross-routing is impossible, not just discouraged.
  2. An application is decided exactly once. PENDING -> APPROVED or
     PENDING -> REJECTED, both terminal.
  3. The ledger moves only on approval, atomically with the status flip.

KEY CONCEPTS IN THIS FILE (types.go):
  - Type: CL (casual, quota-bound), DL (duty, document-required),
    LWP (leave without pay, scholarship-deducted)
  - Application: one request with its immutable decision record
  - Student: the entity owning quotas and a scholarship base

SOFT CEILING:
  CL usage may exceed the annual quota. Excess days are not rejected;
  they convert into LWP-equivalent scholarship deductions. See the
  scholarship package for the overflow math.

SEE ALSO:
  - service.go: submission and decision lifecycle
  - ledger.go: quota/used counters
  - gate.go: approver authorization
*/
package leave

import (
	"time"

	"github.com/campuskit/leave-engine/academic"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

type Type string

const (
	TypeCasual     Type = "CL"
	TypeDuty       Type = "DL"
	TypeWithoutPay Type = "LWP"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCasual, TypeDuty, TypeWithoutPay:
		return true
	}
	return false
}

// QuotaBound reports whether usage of this type is measured against a
// finite annual quota. Only CL is; DL and LWP are unbounded.
func (t Type) QuotaBound() bool { return t == TypeCasual }

// RequiresDocument reports whether a supporting document reference is
// mandatory at submission. Only DL is.
func (t Type) RequiresDocument() bool { return t == TypeDuty }

// =============================================================================
// ROLES
// =============================================================================

type Role string

const (
	RoleGuide    Role = "GUIDE"
	RoleOperator Role = "OPERATOR"
)

// DecidingRoleFor returns the single role entitled to decide applications
// of the given type. The mapping is fixed: guides own CL and DL, the
// operator owns LWP.
func DecidingRoleFor(t Type) Role {
	if t == TypeWithoutPay {
		return RoleOperator
	}
	return RoleGuide
}

// =============================================================================
// APPLICATION
// =============================================================================

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Source records which entry point created the application.
type Source string

const (
	SourcePortal     Source = "portal"
	SourceReconciler Source = "reconciler"
)

// Application is a single leave request. Created on submission, mutated
// exactly once by the decision, immutable after.
type Application struct {
	ID        string
	StudentID string
	Type      Type

	Start    academic.Date
	End      academic.Date
	DayCount int // inclusive span for CL/LWP, one unit per event for DL

	Reason      string
	DocumentRef string // required iff Type == DL
	Source      Source

	Status       Status
	DecidingRole Role // fixed by Type at submission

	DeciderID      string
	DecisionReason string
	DecidedAt      *time.Time

	// Version guards against concurrent double-decision. Incremented by
	// the store on every write.
	Version int

	CreatedAt time.Time
}

// Decided reports whether the application has reached a terminal status.
func (a *Application) Decided() bool { return a.Status != StatusPending }

// dayCountFor computes DayCount per the type rule: CL and LWP count the
// inclusive calendar span; a DL event counts as one unit regardless of span.
func dayCountFor(t Type, start, end academic.Date) int {
	if t == TypeDuty {
		return 1
	}
	return academic.InclusiveDays(start, end)
}

// =============================================================================
// STUDENT
// =============================================================================

type OnboardingStatus string

const (
	OnboardingPending  OnboardingStatus = "PENDING"
	OnboardingApproved OnboardingStatus = "APPROVED"
	OnboardingRejected OnboardingStatus = "REJECTED"
)

// Student owns leave quotas and a monthly scholarship base. Students are
// deactivated, never deleted.
type Student struct {
	ID   string
	Name string

	// Operator-owned fields, validated at onboarding approval.
	EmployeeNo string
	GuideID    string
	AadhaarNo  string
	PanNo      string

	EnrollmentYear int
	CasualQuota    int // annual CL entitlement, e.g. 30

	BaseAmount        int64 // monthly scholarship, whole currency units
	ContingencyAmount int64

	Onboarding OnboardingStatus
	Active     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
