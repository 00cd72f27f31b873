/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in the domain services, not in DTOs. DTOs are pure
  data carriers; handlers only parse dates and enums before delegating.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/campuskit/leave-engine/leave"
	"github.com/campuskit/leave-engine/reconcile"
	"github.com/campuskit/leave-engine/scholarship"
)

// =============================================================================
// STUDENT TYPES
// =============================================================================

// StudentDTO represents a student in API responses.
type StudentDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	EmployeeNo        string `json:"employee_no"`
	GuideID           string `json:"guide_id"`
	AadhaarNo         string `json:"aadhaar_no"`
	PanNo             string `json:"pan_no"`
	EnrollmentYear    int    `json:"enrollment_year"`
	CasualQuota       int    `json:"casual_quota"`
	BaseAmount        int64  `json:"base_amount"`
	ContingencyAmount int64  `json:"contingency_amount"`
	Onboarding        string `json:"onboarding"`
	Active            bool   `json:"active"`
	CreatedAt         string `json:"created_at,omitempty"`
}

// RegisterStudentRequest is the request to register a student. The new
// record enters the onboarding queue as PENDING.
type RegisterStudentRequest struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	EmployeeNo        string `json:"employee_no"`
	GuideID           string `json:"guide_id"`
	AadhaarNo         string `json:"aadhaar_no"`
	PanNo             string `json:"pan_no"`
	EnrollmentYear    int    `json:"enrollment_year"`
	CasualQuota       int    `json:"casual_quota"`
	BaseAmount        int64  `json:"base_amount"`
	ContingencyAmount int64  `json:"contingency_amount"`
}

// OnboardingDecisionRequest decides a pending student. On approval the
// non-empty profile fields override what the student registered with.
type OnboardingDecisionRequest struct {
	Outcome string `json:"outcome"` // APPROVED or REJECTED
	Reason  string `json:"reason,omitempty"`

	Name              string `json:"name,omitempty"`
	EmployeeNo        string `json:"employee_no,omitempty"`
	GuideID           string `json:"guide_id,omitempty"`
	AadhaarNo         string `json:"aadhaar_no,omitempty"`
	PanNo             string `json:"pan_no,omitempty"`
	CasualQuota       int    `json:"casual_quota,omitempty"`
	BaseAmount        int64  `json:"base_amount,omitempty"`
	ContingencyAmount int64  `json:"contingency_amount,omitempty"`
}

func toStudentDTO(s *leave.Student) StudentDTO {
	return StudentDTO{
		ID:                s.ID,
		Name:              s.Name,
		EmployeeNo:        s.EmployeeNo,
		GuideID:           s.GuideID,
		AadhaarNo:         s.AadhaarNo,
		PanNo:             s.PanNo,
		EnrollmentYear:    s.EnrollmentYear,
		CasualQuota:       s.CasualQuota,
		BaseAmount:        s.BaseAmount,
		ContingencyAmount: s.ContingencyAmount,
		Onboarding:        string(s.Onboarding),
		Active:            s.Active,
		CreatedAt:         s.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

// SubmitLeaveRequest is the request to submit a leave application.
type SubmitLeaveRequest struct {
	StudentID   string `json:"student_id"`
	Type        string `json:"type"` // CL, DL, LWP
	Start       string `json:"start"`
	End         string `json:"end"`
	Reason      string `json:"reason"`
	DocumentRef string `json:"document_ref,omitempty"`
}

// LeaveDecisionRequest decides a pending application.
type LeaveDecisionRequest struct {
	Outcome string `json:"outcome"` // APPROVED or REJECTED
	Reason  string `json:"reason"`
}

// ApplicationDTO represents a leave application in API responses.
type ApplicationDTO struct {
	ID             string `json:"id"`
	StudentID      string `json:"student_id"`
	Type           string `json:"type"`
	Start          string `json:"start"`
	End            string `json:"end"`
	DayCount       int    `json:"day_count"`
	Reason         string `json:"reason"`
	DocumentRef    string `json:"document_ref,omitempty"`
	Source         string `json:"source"`
	Status         string `json:"status"`
	DecidingRole   string `json:"deciding_role"`
	DeciderID      string `json:"decider_id,omitempty"`
	DecisionReason string `json:"decision_reason,omitempty"`
	DecidedAt      string `json:"decided_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toApplicationDTO(a leave.Application) ApplicationDTO {
	dto := ApplicationDTO{
		ID:             a.ID,
		StudentID:      a.StudentID,
		Type:           string(a.Type),
		Start:          a.Start.String(),
		End:            a.End.String(),
		DayCount:       a.DayCount,
		Reason:         a.Reason,
		DocumentRef:    a.DocumentRef,
		Source:         string(a.Source),
		Status:         string(a.Status),
		DecidingRole:   string(a.DecidingRole),
		DeciderID:      a.DeciderID,
		DecisionReason: a.DecisionReason,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
	}
	if a.DecidedAt != nil {
		dto.DecidedAt = a.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// LEDGER TYPES
// =============================================================================

// LedgerEntryDTO is one (type, year) counter row.
type LedgerEntryDTO struct {
	Type      string `json:"type"`
	Quota     int    `json:"quota"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Overflow  int    `json:"overflow"`
}

// LedgerDTO is the per-student entitlement summary for one academic year.
type LedgerDTO struct {
	StudentID    string           `json:"student_id"`
	AcademicYear int              `json:"academic_year"`
	Entries      []LedgerEntryDTO `json:"entries"`
}

func toLedgerDTO(v *leave.LedgerView) LedgerDTO {
	dto := LedgerDTO{
		StudentID:    v.StudentID,
		AcademicYear: int(v.AcademicYear),
		Entries:      make([]LedgerEntryDTO, len(v.Entries)),
	}
	for i, e := range v.Entries {
		dto.Entries[i] = LedgerEntryDTO{
			Type:      string(e.Type),
			Quota:     e.Quota,
			Used:      e.Used,
			Remaining: e.Remaining(),
			Overflow:  e.Overflow(),
		}
	}
	return dto
}

// =============================================================================
// SCHOLARSHIP TYPES
// =============================================================================

// ScholarshipDTO is the derived payout for one (student, year, month).
type ScholarshipDTO struct {
	StudentID           string   `json:"student_id"`
	Year                int      `json:"year"`
	Month               int      `json:"month"`
	BaseAmount          string   `json:"base_amount"`
	PerDayRate          string   `json:"per_day_rate"`
	LwpDaysFromRecords  int      `json:"lwp_days_from_records"`
	LwpDaysFromOverflow int      `json:"lwp_days_from_overflow"`
	LwpDays             int      `json:"lwp_days"`
	LwpDeduction        string   `json:"lwp_deduction"`
	FinalAmount         string   `json:"final_amount"`
	NeedsReview         bool     `json:"needs_review"`
	Warnings            []string `json:"warnings,omitempty"`
	ComputedAt          string   `json:"computed_at"`
}

func toScholarshipDTO(rec *scholarship.Record) ScholarshipDTO {
	return ScholarshipDTO{
		StudentID:           rec.StudentID,
		Year:                rec.Month.Year,
		Month:               int(rec.Month.Month),
		BaseAmount:          rec.BaseAmount.String(),
		PerDayRate:          rec.PerDayRate.StringFixed(4),
		LwpDaysFromRecords:  rec.LwpDaysFromRecords,
		LwpDaysFromOverflow: rec.LwpDaysFromOverflow,
		LwpDays:             rec.LwpDays,
		LwpDeduction:        rec.LwpDeduction.String(),
		FinalAmount:         rec.FinalAmount.String(),
		NeedsReview:         rec.NeedsReview,
		Warnings:            rec.Warnings,
		ComputedAt:          rec.ComputedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// RECONCILIATION TYPES
// =============================================================================

// ReconcileSummaryDTO is the batch result of an attendance upload.
type ReconcileSummaryDTO struct {
	BatchID         string              `json:"batch_id"`
	Processed       int                 `json:"processed"`
	LeavesGenerated int                 `json:"leaves_generated"`
	Skipped         int                 `json:"skipped"`
	Errors          int                 `json:"errors"`
	Students        []StudentSummaryDTO `json:"students"`
	Days            []DayOutcomeDTO     `json:"days"`
}

type StudentSummaryDTO struct {
	StudentID       string `json:"student_id"`
	Processed       int    `json:"processed"`
	LeavesGenerated int    `json:"leaves_generated"`
	Skipped         int    `json:"skipped"`
	Errors          int    `json:"errors"`
}

type DayOutcomeDTO struct {
	StudentID     string `json:"student_id,omitempty"`
	Date          string `json:"date,omitempty"`
	Outcome       string `json:"outcome,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

func toReconcileSummaryDTO(s *reconcile.Summary) ReconcileSummaryDTO {
	dto := ReconcileSummaryDTO{
		BatchID:         s.BatchID,
		Processed:       s.Processed,
		LeavesGenerated: s.LeavesGenerated,
		Skipped:         s.Skipped,
		Errors:          s.Errors,
		Students:        make([]StudentSummaryDTO, len(s.Students)),
		Days:            make([]DayOutcomeDTO, len(s.Days)),
	}
	for i, ss := range s.Students {
		dto.Students[i] = StudentSummaryDTO(ss)
	}
	for i, d := range s.Days {
		out := DayOutcomeDTO{
			StudentID:     d.StudentID,
			Outcome:       d.Outcome,
			ApplicationID: d.ApplicationID,
			Error:         d.Err,
		}
		if !d.Date.IsZero() {
			out.Date = d.Date.String()
		}
		dto.Days[i] = out
	}
	return dto
}

// =============================================================================
// DRAFT TYPES
// =============================================================================

// DraftDTO wraps a stored draft payload.
type DraftDTO struct {
	OwnerID  string          `json:"owner_id"`
	FormKind string          `json:"form_kind"`
	Payload  json.RawMessage `json:"payload"`
	SavedAt  string          `json:"saved_at"`
}

// =============================================================================
// AUDIT TYPES
// =============================================================================

// AuditEntryDTO is one audit trail row.
type AuditEntryDTO struct {
	ID        string `json:"id"`
	At        string `json:"at"`
	ActorID   string `json:"actor_id"`
	Action    string `json:"action"`
	StudentID string `json:"student_id,omitempty"`
	RefID     string `json:"ref_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
