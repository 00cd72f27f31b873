/*
Package onboarding gates whether a student account may use the leave
ledger at all.

PURPOSE:
  Registration produces a PENDING student. Only an operator decides the
  gate: PENDING -> APPROVED | REJECTED, terminal either way. Approval is
  the sole trigger that activates the leave ledger for the student; no
  leave submission is accepted before it.

PROFILE RE-VALIDATION:
  The operator edits the profile while approving. Approve re-validates
  the operator-owned required fields (employee number, assigned guide,
  both government-id numbers) and fails with ValidationError - not a
  generic rejection - if any are missing. The student stays PENDING.

SEE ALSO:
  - leave/types.go: Student, OnboardingStatus
  - leave/service.go: Submit refuses non-approved students
*/
package onboarding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campuskit/leave-engine/academic"
	"github.com/campuskit/leave-engine/leave"
)

// =============================================================================
// PROFILE
// =============================================================================

// Profile carries the operator's edits applied at approval time.
type Profile struct {
	Name       string
	EmployeeNo string
	GuideID    string
	AadhaarNo  string
	PanNo      string

	CasualQuota       int
	BaseAmount        int64
	ContingencyAmount int64
}

func (p Profile) validate() error {
	required := []struct{ field, value string }{
		{"employee_no", p.EmployeeNo},
		{"guide_id", p.GuideID},
		{"aadhaar_no", p.AadhaarNo},
		{"pan_no", p.PanNo},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &leave.ValidationError{Field: r.field, Message: "required before approval"}
		}
	}
	return nil
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store leave.Store
	Audit leave.AuditLog // optional
	Years academic.YearConfig

	Now func() time.Time // swappable in tests
}

func NewService(store leave.Store) *Service {
	return &Service{Store: store, Years: academic.DefaultYearConfig()}
}

func (s *Service) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates a PENDING student record. Quotas and amounts may be
// blank at this point; the operator fills them in at approval.
func (s *Service) Register(ctx context.Context, st *leave.Student) error {
	if strings.TrimSpace(st.ID) == "" {
		return &leave.ValidationError{Field: "id", Message: "required"}
	}
	if strings.TrimSpace(st.Name) == "" {
		return &leave.ValidationError{Field: "name", Message: "required"}
	}

	existing, err := s.Store.GetStudent(ctx, st.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return &leave.ValidationError{Field: "id", Message: "already registered"}
	}

	now := s.clock().UTC()
	st.Onboarding = leave.OnboardingPending
	st.Active = false
	st.CreatedAt = now
	st.UpdatedAt = now
	return s.Store.SaveStudent(ctx, st)
}

// Approve transitions a PENDING student to APPROVED with the operator's
// profile edits applied, and seeds the CL ledger entry for the current
// academic year. Fails closed: wrong role is ForbiddenTransition, missing
// required fields is ValidationError, and in both cases the student stays
// PENDING with nothing written.
func (s *Service) Approve(ctx context.Context, studentID string, edited Profile, approver leave.Approver) error {
	st, err := s.load(ctx, studentID, approver)
	if err != nil {
		return err
	}
	if err := edited.validate(); err != nil {
		return err
	}

	if edited.Name != "" {
		st.Name = edited.Name
	}
	st.EmployeeNo = edited.EmployeeNo
	st.GuideID = edited.GuideID
	st.AadhaarNo = edited.AadhaarNo
	st.PanNo = edited.PanNo
	if edited.CasualQuota > 0 {
		st.CasualQuota = edited.CasualQuota
	}
	if edited.BaseAmount > 0 {
		st.BaseAmount = edited.BaseAmount
	}
	if edited.ContingencyAmount > 0 {
		st.ContingencyAmount = edited.ContingencyAmount
	}

	st.Onboarding = leave.OnboardingApproved
	st.Active = true
	st.UpdatedAt = s.clock().UTC()

	if err := s.Store.SaveStudent(ctx, st); err != nil {
		return fmt.Errorf("save student: %w", err)
	}

	// Activate the ledger: seed the quota-bound entry for this year.
	year := s.Years.YearOf(academic.DateOf(s.clock()))
	if err := s.Store.SeedLedger(ctx, st.ID, leave.TypeCasual, year, st.CasualQuota); err != nil {
		return fmt.Errorf("seed ledger: %w", err)
	}

	s.audit(ctx, approver, leave.AuditOnboardingApproved, st.ID)
	return nil
}

// Reject transitions a PENDING student to REJECTED. The account never
// touches the ledger.
func (s *Service) Reject(ctx context.Context, studentID, reason string, approver leave.Approver) error {
	if strings.TrimSpace(reason) == "" {
		return &leave.ValidationError{Field: "reason", Message: "a decision reason is mandatory"}
	}

	st, err := s.load(ctx, studentID, approver)
	if err != nil {
		return err
	}

	st.Onboarding = leave.OnboardingRejected
	st.Active = false
	st.UpdatedAt = s.clock().UTC()
	if err := s.Store.SaveStudent(ctx, st); err != nil {
		return err
	}

	s.audit(ctx, approver, leave.AuditOnboardingRejected, st.ID)
	return nil
}

func (s *Service) load(ctx context.Context, studentID string, approver leave.Approver) (*leave.Student, error) {
	if approver.Role() != leave.RoleOperator {
		return nil, &leave.ForbiddenTransitionError{
			ActorRole:  approver.Role(),
			WantedRole: leave.RoleOperator,
			Message:    "only the operator decides onboarding",
		}
	}

	st, err := s.Store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, &leave.NotFoundError{Kind: "student", ID: studentID}
	}
	if st.Onboarding != leave.OnboardingPending {
		return nil, &leave.ForbiddenTransitionError{
			ActorRole:  approver.Role(),
			WantedRole: leave.RoleOperator,
			Message:    fmt.Sprintf("onboarding already %s", st.Onboarding),
		}
	}
	return st, nil
}

func (s *Service) audit(ctx context.Context, approver leave.Approver, action leave.AuditAction, studentID string) {
	if s.Audit == nil {
		return
	}
	_ = s.Audit.AppendAudit(ctx, leave.AuditEntry{
		ID:        uuid.NewString(),
		At:        s.clock().UTC(),
		ActorID:   approver.ActorID(),
		Action:    action,
		StudentID: studentID,
	})
}
