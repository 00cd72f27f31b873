/*
service.go - Leave application lifecycle

PURPOSE:
  Orchestrates submission and decision of leave applications.

SUBMISSION FLOW:
  validate input -> derive day count and deciding role -> persist PENDING
  -> clear the owner's draft. The ledger is untouched; a pending
  application holds nothing.

DECISION FLOW:
  load application + student -> authorize via the gate -> apply the
  decision atomically (status flip + ledger increment in one store
  transaction). A failed ledger write rolls back the flip.

RESUBMISSION:
  A rejected application never reopens. The student submits a fresh
  application; rejection left the days available.

SEE ALSO:
  - gate.go: authorization rules
  - store.go: ApplyDecision atomicity contract
*/
package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campuskit/leave-engine/academic"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store  Store
	Drafts DraftStore // optional
	Audit  AuditLog   // optional
	Years  academic.YearConfig

	// Now is swappable in tests; defaults to time.Now.
	Now func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		Store: store,
		Years: academic.DefaultYearConfig(),
	}
}

func (s *Service) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) years() academic.YearConfig {
	if s.Years.StartMonth == 0 {
		return academic.DefaultYearConfig()
	}
	return s.Years
}

// =============================================================================
// SUBMISSION
// =============================================================================

// SubmitInput is everything a submission carries. DocumentRef is required
// iff Type is DL.
type SubmitInput struct {
	StudentID   string
	Type        Type
	Start       academic.Date
	End         academic.Date
	Reason      string
	DocumentRef string
	Source      Source
}

// Submit validates the input and persists a PENDING application.
// ValidationError on malformed input, NotFoundError on unknown students,
// ForbiddenTransition when the student is not onboarding-approved.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Application, error) {
	if err := validateSubmit(in); err != nil {
		return nil, err
	}

	student, err := s.Store.GetStudent(ctx, in.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, &NotFoundError{Kind: "student", ID: in.StudentID}
	}
	if student.Onboarding != OnboardingApproved || !student.Active {
		return nil, &ForbiddenTransitionError{
			ActorRole: DecidingRoleFor(in.Type),
			Message:   fmt.Sprintf("student %s is not onboarded for leave", in.StudentID),
		}
	}

	source := in.Source
	if source == "" {
		source = SourcePortal
	}

	app := &Application{
		ID:           uuid.NewString(),
		StudentID:    in.StudentID,
		Type:         in.Type,
		Start:        in.Start,
		End:          in.End,
		DayCount:     dayCountFor(in.Type, in.Start, in.End),
		Reason:       strings.TrimSpace(in.Reason),
		DocumentRef:  in.DocumentRef,
		Source:       source,
		Status:       StatusPending,
		DecidingRole: DecidingRoleFor(in.Type),
		CreatedAt:    s.clock().UTC(),
	}

	if err := s.Store.SaveApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	if s.Drafts != nil {
		// Submission succeeded; the in-progress form is stale now. The
		// draft is advisory, so a failed clear must not fail the submit.
		_ = s.Drafts.ClearDraft(ctx, in.StudentID, FormKindLeave)
	}

	s.audit(ctx, AuditEntry{
		ActorID:   in.StudentID,
		Action:    AuditLeaveSubmitted,
		StudentID: in.StudentID,
		RefID:     app.ID,
		Detail:    string(in.Type),
	})

	return app, nil
}

func validateSubmit(in SubmitInput) error {
	if !in.Type.Valid() {
		return &ValidationError{Field: "type", Message: "must be CL, DL or LWP"}
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return &ValidationError{Field: "dates", Message: "start and end are required"}
	}
	if in.End.Before(in.Start) {
		return &ValidationError{Field: "dates", Message: "end precedes start"}
	}
	if academic.InclusiveDays(in.Start, in.End) == 0 {
		return &ValidationError{Field: "dates", Message: "span covers zero days"}
	}
	if strings.TrimSpace(in.Reason) == "" {
		return &ValidationError{Field: "reason", Message: "required"}
	}
	if in.Type.RequiresDocument() && strings.TrimSpace(in.DocumentRef) == "" {
		return &ValidationError{Field: "document_ref", Message: "duty leave requires a supporting document"}
	}
	return nil
}

// =============================================================================
// DECISION
// =============================================================================

// Decide transitions a PENDING application to APPROVED or REJECTED.
// A non-empty reason is mandatory for either outcome. On approval the
// ledger moves in the same store transaction; on rejection the days
// remain available and nothing else changes.
func (s *Service) Decide(ctx context.Context, applicationID string, approver Approver, outcome Status, reason string) error {
	if outcome != StatusApproved && outcome != StatusRejected {
		return &ValidationError{Field: "outcome", Message: "must be APPROVED or REJECTED"}
	}
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Field: "reason", Message: "a decision reason is mandatory"}
	}

	app, err := s.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}
	if app == nil {
		return &NotFoundError{Kind: "application", ID: applicationID}
	}

	student, err := s.Store.GetStudent(ctx, app.StudentID)
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return &NotFoundError{Kind: "student", ID: app.StudentID}
	}

	if err := Authorize(app, student, approver); err != nil {
		return err
	}

	quota := 0
	if app.Type.QuotaBound() {
		quota = student.CasualQuota
	}
	err = s.Store.ApplyDecision(ctx, Decision{
		ApplicationID:   app.ID,
		ExpectedVersion: app.Version,
		Outcome:         outcome,
		DeciderID:       approver.ActorID(),
		Reason:          strings.TrimSpace(reason),
		StudentID:       app.StudentID,
		Type:            app.Type,
		Days:            app.DayCount,
		AcademicYear:    s.years().YearOf(app.Start),
		Quota:           quota,
	})
	if err != nil {
		return err
	}

	action := AuditLeaveApproved
	if outcome == StatusRejected {
		action = AuditLeaveRejected
	}
	s.audit(ctx, AuditEntry{
		ActorID:   approver.ActorID(),
		Action:    action,
		StudentID: app.StudentID,
		RefID:     app.ID,
		Detail:    string(app.Type),
	})

	return nil
}

// =============================================================================
// ABSENCE COVERAGE (reconciler entry point)
// =============================================================================

// CoverAbsence creates and immediately approves a single-day LWP
// application for the date, unless a non-rejected application already
// covers it (ErrDateCovered). The existence check and insert are atomic
// in the store, so concurrent manual submissions cannot duplicate the day.
func (s *Service) CoverAbsence(ctx context.Context, studentID string, date academic.Date, decider SystemApprover) (*Application, error) {
	student, err := s.Store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, &NotFoundError{Kind: "student", ID: studentID}
	}
	if student.Onboarding != OnboardingApproved || !student.Active {
		return nil, &ForbiddenTransitionError{
			Message: fmt.Sprintf("student %s is not onboarded for leave", studentID),
		}
	}

	app := &Application{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		Type:         TypeWithoutPay,
		Start:        date,
		End:          date,
		DayCount:     1,
		Reason:       "absent per attendance record",
		Source:       SourceReconciler,
		Status:       StatusPending,
		DecidingRole: DecidingRoleFor(TypeWithoutPay),
		CreatedAt:    s.clock().UTC(),
	}

	if err := s.Store.SaveApplicationIfUncovered(ctx, app); err != nil {
		return nil, err
	}

	if err := s.Decide(ctx, app.ID, decider, StatusApproved, "auto-approved from attendance reconciliation"); err != nil {
		return nil, err
	}

	app.Status = StatusApproved
	return app, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// LedgerView is the per-type snapshot dashboards render.
type LedgerView struct {
	StudentID    string
	AcademicYear academic.Year
	Entries      []LedgerEntry
}

// Ledger returns the student's entitlement snapshot for the academic year
// containing today.
func (s *Service) Ledger(ctx context.Context, studentID string) (*LedgerView, error) {
	return s.LedgerForYear(ctx, studentID, s.years().YearOf(academic.DateOf(s.clock())))
}

func (s *Service) LedgerForYear(ctx context.Context, studentID string, year academic.Year) (*LedgerView, error) {
	student, err := s.Store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &NotFoundError{Kind: "student", ID: studentID}
	}

	entries, err := s.Store.LedgerEntries(ctx, studentID, year)
	if err != nil {
		return nil, err
	}

	// Always report all three types, zero-usage ones included.
	have := map[Type]bool{}
	for _, e := range entries {
		have[e.Type] = true
	}
	for _, t := range []Type{TypeCasual, TypeDuty, TypeWithoutPay} {
		if have[t] {
			continue
		}
		quota := 0
		if t.QuotaBound() {
			quota = student.CasualQuota
		}
		entries = append(entries, LedgerEntry{
			StudentID: studentID, Type: t, AcademicYear: year, Quota: quota,
		})
	}

	return &LedgerView{StudentID: studentID, AcademicYear: year, Entries: entries}, nil
}

// List returns applications matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Application, error) {
	return s.Store.ListApplications(ctx, f)
}

func (s *Service) audit(ctx context.Context, e AuditEntry) {
	if s.Audit == nil {
		return
	}
	e.ID = uuid.NewString()
	e.At = s.clock().UTC()
	// Audit is best-effort; a failed append must not fail the operation.
	_ = s.Audit.AppendAudit(ctx, e)
}
