/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data for testing and demos. Each scenario registers students, walks
  them through onboarding, and files leave through the real services, so
  the seeded state obeys every invariant the engine enforces.

AVAILABLE SCENARIOS:
  fresh-cohort:     Three onboarded students, no leave yet
  decision-flow:    Pending CL, DL and LWP applications awaiting decision
  quota-overflow:   A student past the CL quota, overflow visible in the
                    ledger and the scholarship deduction
  attendance-sweep: Absences reconciled into auto-approved LWP

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Register students and approve onboarding as the operator
 3. Submit applications and decide them through the gate
 4. Optionally run the attendance reconciler

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "quota-overflow"}

NOTE:
  Scenarios reset the database. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: service wiring
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/campuskit/leave-engine/academic"
	"github.com/campuskit/leave-engine/leave"
	"github.com/campuskit/leave-engine/onboarding"
	"github.com/campuskit/leave-engine/reconcile"
)

// Resetter clears all stored data before a scenario load.
type Resetter interface {
	Reset(ctx context.Context) error
}

// ScenarioDTO describes one loadable scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-cohort",
		Name:        "Fresh Cohort",
		Description: "Three onboarded students with seeded CL quotas, no leave yet",
	},
	{
		ID:          "decision-flow",
		Name:        "Decision Flow",
		Description: "Pending CL, DL and LWP applications routed to their deciding roles",
	},
	{
		ID:          "quota-overflow",
		Name:        "Quota Overflow",
		Description: "CL usage past the quota; overflow shows up as scholarship deduction",
	},
	{
		ID:          "attendance-sweep",
		Name:        "Attendance Sweep",
		Description: "Absence rows reconciled into auto-approved single-day LWP",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if h.Resetter == nil {
		writeError(w, http.StatusInternalServerError, "Scenario loading not wired", nil)
		return
	}

	ctx := r.Context()
	if err := h.Resetter.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "fresh-cohort":
		err = h.loadFreshCohort(ctx)
	case "decision-flow":
		err = h.loadDecisionFlow(ctx)
	case "quota-overflow":
		err = h.loadQuotaOverflow(ctx)
	case "attendance-sweep":
		err = h.loadAttendanceSweep(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

const (
	demoOperator = "op-demo"
	demoGuide    = "guide-demo"
)

func (h *Handler) seedStudent(ctx context.Context, id, name string, quota int, base int64) error {
	st := &leave.Student{
		ID:             id,
		Name:           name,
		EmployeeNo:     "EMP-" + id,
		GuideID:        demoGuide,
		AadhaarNo:      "0000-0000-" + id,
		PanNo:          "PAN" + id,
		EnrollmentYear: academic.Today().Year(),
		CasualQuota:    quota,
		BaseAmount:     base,
	}
	if err := h.Onboarding.Register(ctx, st); err != nil {
		return err
	}
	return h.Onboarding.Approve(ctx, id, onboarding.Profile{
		EmployeeNo: st.EmployeeNo,
		GuideID:    st.GuideID,
		AadhaarNo:  st.AadhaarNo,
		PanNo:      st.PanNo,
	}, leave.OperatorApprover{ID: demoOperator})
}

func (h *Handler) loadFreshCohort(ctx context.Context) error {
	for i, name := range []string{"Asha Verma", "Ravi Nair", "Meera Joshi"} {
		id := fmt.Sprintf("stu-%03d", i+1)
		if err := h.seedStudent(ctx, id, name, 30, 30000); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadDecisionFlow(ctx context.Context) error {
	if err := h.loadFreshCohort(ctx); err != nil {
		return err
	}

	day := academic.Today().AddDays(7)
	submissions := []leave.SubmitInput{
		{StudentID: "stu-001", Type: leave.TypeCasual, Start: day, End: day.AddDays(1), Reason: "family function"},
		{StudentID: "stu-002", Type: leave.TypeDuty, Start: day, End: day, Reason: "conference travel", DocumentRef: "doc/invite-2026.pdf"},
		{StudentID: "stu-003", Type: leave.TypeWithoutPay, Start: day, End: day.AddDays(2), Reason: "personal"},
	}
	for _, in := range submissions {
		in.Source = leave.SourcePortal
		if _, err := h.Leaves.Submit(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadQuotaOverflow(ctx context.Context) error {
	// Tiny quota so one approval pushes the student over it.
	if err := h.seedStudent(ctx, "stu-001", "Asha Verma", 3, 30000); err != nil {
		return err
	}

	start := academic.Today().AddDays(-10)
	app, err := h.Leaves.Submit(ctx, leave.SubmitInput{
		StudentID: "stu-001",
		Type:      leave.TypeCasual,
		Start:     start,
		End:       start.AddDays(4), // 5 days against a quota of 3
		Reason:    "extended travel",
		Source:    leave.SourcePortal,
	})
	if err != nil {
		return err
	}
	return h.Leaves.Decide(ctx, app.ID, leave.GuideApprover{ID: demoGuide},
		leave.StatusApproved, "approved for demo")
}

func (h *Handler) loadAttendanceSweep(ctx context.Context) error {
	if err := h.loadFreshCohort(ctx); err != nil {
		return err
	}

	base := academic.Today().AddDays(-5)
	rows := []reconcile.Row{
		{StudentID: "stu-001", Date: base},
		{StudentID: "stu-001", Date: base.AddDays(1)},
		{StudentID: "stu-002", Date: base},
	}
	h.Reconciler.ReconcileRows(ctx, rows)
	return nil
}
