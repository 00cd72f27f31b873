/*
handlers.go - HTTP API handlers for the leave administration engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Students:
    GET    /api/students                    List all students
    POST   /api/students                    Register student (PENDING)
    GET    /api/students/{id}               Get student details
    GET    /api/students/{id}/ledger        Entitlement ledger
    GET    /api/students/{id}/scholarship   Monthly payout (?year=&month=)
    GET    /api/students/{id}/audit         Audit trail

  Leaves:
    POST   /api/leaves                      Submit application
    GET    /api/leaves                      List (?student_id=&guide_id=&type=&status=)
    GET    /api/leaves/{id}                 Get application
    POST   /api/leaves/{id}/decision        Approve or reject

  Onboarding:
    POST   /api/onboarding/{id}/decision    Approve or reject registration

  Attendance:
    POST   /api/attendance/reconcile        Upload absence CSV

  Drafts:
    PUT    /api/drafts/{owner}/{kind}       Save in-progress form
    GET    /api/drafts/{owner}/{kind}       Load in-progress form
    DELETE /api/drafts/{owner}/{kind}       Discard

ACTOR IDENTITY:
  Decision endpoints read the acting identity from request headers:
    X-Actor-ID:   the deciding guide or operator id
    X-Actor-Role: GUIDE or OPERATOR
  Authentication itself is out of scope; an upstream gateway is expected
  to have verified the identity before the headers reach this service.

ERROR HANDLING:
  Domain errors map to HTTP status by sentinel:
  - 400: validation errors, invalid input
  - 403: role mismatch, wrong guide, already-decided
  - 404: unknown student or application
  - 409: concurrent decision lost the version race
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campuskit/leave-engine/academic"
	"github.com/campuskit/leave-engine/leave"
	"github.com/campuskit/leave-engine/onboarding"
	"github.com/campuskit/leave-engine/reconcile"
	"github.com/campuskit/leave-engine/scholarship"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Leaves      *leave.Service
	Onboarding  *onboarding.Service
	Scholarship *scholarship.Calculator
	Reconciler  *reconcile.Reconciler
	Drafts      leave.DraftStore
	Audit       leave.AuditLog

	// Resetter enables demo scenario loading; nil disables it.
	Resetter Resetter
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns all students.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Leaves.Store.ListStudents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}

	dtos := make([]StudentDTO, len(students))
	for i := range students {
		dtos[i] = toStudentDTO(&students[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStudent returns a single student.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	st, err := h.Leaves.Store.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(st))
}

// RegisterStudent registers a new student into the onboarding queue.
func (h *Handler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req RegisterStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st := &leave.Student{
		ID:                req.ID,
		Name:              req.Name,
		EmployeeNo:        req.EmployeeNo,
		GuideID:           req.GuideID,
		AadhaarNo:         req.AadhaarNo,
		PanNo:             req.PanNo,
		EnrollmentYear:    req.EnrollmentYear,
		CasualQuota:       req.CasualQuota,
		BaseAmount:        req.BaseAmount,
		ContingencyAmount: req.ContingencyAmount,
	}

	if err := h.Onboarding.Register(r.Context(), st); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(st))
}

// =============================================================================
// ONBOARDING HANDLERS
// =============================================================================

// DecideOnboarding approves or rejects a pending registration. Operator
// only; approval applies profile edits, seeds the CL ledger, and
// activates the student.
func (h *Handler) DecideOnboarding(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	approver, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-Actor-ID or X-Actor-Role header", nil)
		return
	}

	var req OnboardingDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var err error
	switch leave.Status(req.Outcome) {
	case leave.StatusApproved:
		profile := onboarding.Profile{
			Name:              req.Name,
			EmployeeNo:        req.EmployeeNo,
			GuideID:           req.GuideID,
			AadhaarNo:         req.AadhaarNo,
			PanNo:             req.PanNo,
			CasualQuota:       req.CasualQuota,
			BaseAmount:        req.BaseAmount,
			ContingencyAmount: req.ContingencyAmount,
		}
		err = h.Onboarding.Approve(r.Context(), studentID, profile, approver)
	case leave.StatusRejected:
		err = h.Onboarding.Reject(r.Context(), studentID, req.Reason, approver)
	default:
		writeError(w, http.StatusBadRequest, "Outcome must be APPROVED or REJECTED", nil)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	st, err := h.Leaves.Store.GetStudent(r.Context(), studentID)
	if err != nil || st == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload student", err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(st))
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// SubmitLeave submits a new leave application.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := academic.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return
	}
	end, err := academic.ParseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return
	}

	app, err := h.Leaves.Submit(r.Context(), leave.SubmitInput{
		StudentID:   req.StudentID,
		Type:        leave.Type(req.Type),
		Start:       start,
		End:         end,
		Reason:      req.Reason,
		DocumentRef: req.DocumentRef,
		Source:      leave.SourcePortal,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplicationDTO(*app))
}

// ListLeaves returns applications matching optional filters.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := leave.Filter{
		StudentID: q.Get("student_id"),
		GuideID:   q.Get("guide_id"),
		Type:      leave.Type(q.Get("type")),
		Status:    leave.Status(q.Get("status")),
	}

	apps, err := h.Leaves.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list applications", err)
		return
	}

	dtos := make([]ApplicationDTO, len(apps))
	for i, a := range apps {
		dtos[i] = toApplicationDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLeave returns one application.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	app, err := h.Leaves.Store.GetApplication(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get application", err)
		return
	}
	if app == nil {
		writeError(w, http.StatusNotFound, "Application not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// DecideLeave approves or rejects a pending application under the acting
// identity from the request headers.
func (h *Handler) DecideLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	approver, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-Actor-ID or X-Actor-Role header", nil)
		return
	}

	var req LeaveDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Leaves.Decide(r.Context(), id, approver, leave.Status(req.Outcome), req.Reason); err != nil {
		writeDomainError(w, err)
		return
	}

	app, err := h.Leaves.Store.GetApplication(r.Context(), id)
	if err != nil || app == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload application", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// =============================================================================
// LEDGER AND SCHOLARSHIP HANDLERS
// =============================================================================

// GetLedger returns the student's entitlement counters. Defaults to the
// current academic year; override with ?year=.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	var (
		view *leave.LedgerView
		err  error
	)
	if y := r.URL.Query().Get("year"); y != "" {
		year, perr := strconv.Atoi(y)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", perr)
			return
		}
		view, err = h.Leaves.LedgerForYear(r.Context(), studentID, academic.Year(year))
	} else {
		view, err = h.Leaves.Ledger(r.Context(), studentID)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(view))
}

// GetScholarship returns the derived payout for ?year=&month=.
func (h *Handler) GetScholarship(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing year", err)
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid or missing month", err)
		return
	}

	rec, err := h.Scholarship.Get(r.Context(), studentID, academic.Month{Year: year, Month: time.Month(month)})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScholarshipDTO(rec))
}

// =============================================================================
// ATTENDANCE RECONCILIATION
// =============================================================================

// ReconcileAttendance accepts a CSV body (student_id,date) and converts
// uncovered absences into approved single-day LWP applications.
func (h *Handler) ReconcileAttendance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Reconciler.ReconcileFile(r.Context(), r.Body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReconcileSummaryDTO(summary))
}

// =============================================================================
// DRAFT HANDLERS
// =============================================================================

// SaveDraft stores the raw JSON body as the (owner, kind) draft.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	kind := chi.URLParam(r, "kind")

	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Draft payload must be valid JSON", err)
		return
	}

	d := leave.Draft{
		OwnerID:  owner,
		FormKind: kind,
		Payload:  payload,
		SavedAt:  time.Now().UTC(),
	}
	if err := h.Drafts.SaveDraft(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save draft", err)
		return
	}
	writeJSON(w, http.StatusOK, DraftDTO{
		OwnerID:  d.OwnerID,
		FormKind: d.FormKind,
		Payload:  payload,
		SavedAt:  d.SavedAt.Format(time.RFC3339),
	})
}

// GetDraft loads the stored draft, 404 when none.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	kind := chi.URLParam(r, "kind")

	d, err := h.Drafts.GetDraft(r.Context(), owner, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load draft", err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "No draft stored", nil)
		return
	}
	writeJSON(w, http.StatusOK, DraftDTO{
		OwnerID:  d.OwnerID,
		FormKind: d.FormKind,
		Payload:  d.Payload,
		SavedAt:  d.SavedAt.Format(time.RFC3339),
	})
}

// DeleteDraft discards the stored draft. Idempotent.
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	kind := chi.URLParam(r, "kind")

	if err := h.Drafts.ClearDraft(r.Context(), owner, kind); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// AUDIT HANDLER
// =============================================================================

// GetAudit returns the student's audit trail, newest first.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.Audit.QueryAudit(r.Context(), studentID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query audit trail", err)
		return
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AuditEntryDTO{
			ID:        e.ID,
			At:        e.At.Format(time.RFC3339),
			ActorID:   e.ActorID,
			Action:    string(e.Action),
			StudentID: e.StudentID,
			RefID:     e.RefID,
			Detail:    e.Detail,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// actorFrom builds the approver identity from the X-Actor-* headers.
func actorFrom(r *http.Request) (leave.Approver, bool) {
	id := r.Header.Get("X-Actor-ID")
	role := leave.Role(r.Header.Get("X-Actor-Role"))
	if id == "" {
		return nil, false
	}
	switch role {
	case leave.RoleGuide:
		return leave.GuideApprover{ID: id}, true
	case leave.RoleOperator:
		return leave.OperatorApprover{ID: id}, true
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain sentinels onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case leave.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case leave.IsForbidden(err):
		writeError(w, http.StatusForbidden, "Not allowed", err)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case leave.IsConflict(err):
		writeError(w, http.StatusConflict, "Concurrent decision conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
