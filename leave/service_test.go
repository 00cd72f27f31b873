package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/leave-engine/academic"
	"github.com/campuskit/leave-engine/leave"
	"github.com/campuskit/leave-engine/store/memstore"
	"github.com/campuskit/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*leave.Service, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := leave.NewService(store)
	svc.Drafts = memstore.NewDrafts()
	svc.Audit = store
	return svc, store
}

// seedStudent stores an onboarding-approved, active student with a seeded
// CL quota for the academic year containing date d.
func seedStudent(t *testing.T, store *sqlite.Store, id, guideID string, quota int, d academic.Date) {
	t.Helper()
	ctx := context.Background()

	st := &leave.Student{
		ID:          id,
		Name:        "Student " + id,
		EmployeeNo:  "EMP-" + id,
		GuideID:     guideID,
		AadhaarNo:   "1234-5678-9012",
		PanNo:       "ABCDE1234F",
		CasualQuota: quota,
		BaseAmount:  30000,
		Onboarding:  leave.OnboardingApproved,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.SaveStudent(ctx, st))

	year := academic.DefaultYearConfig().YearOf(d)
	require.NoError(t, store.SeedLedger(ctx, id, leave.TypeCasual, year, quota))
}

func submit(t *testing.T, svc *leave.Service, in leave.SubmitInput) *leave.Application {
	t.Helper()
	app, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	return app
}

var (
	mar10 = academic.NewDate(2026, time.March, 10)
	mar12 = academic.NewDate(2026, time.March, 12)
)

// =============================================================================
// SUBMISSION TESTS
// =============================================================================

func TestSubmit_RoutesEachTypeToItsDecidingRole(t *testing.T) {
	// GIVEN: An onboarded student
	// WHEN: Submitting CL, DL and LWP applications
	// THEN: CL and DL route to the guide, LWP to the operator

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)

	cl := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar10, Reason: "errand",
	})
	dl := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeDuty,
		Start: mar12, End: mar12, Reason: "conference", DocumentRef: "doc/1.pdf",
	})
	lwp := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeWithoutPay,
		Start: mar10.AddDays(10), End: mar10.AddDays(11), Reason: "personal",
	})

	assert.Equal(t, leave.RoleGuide, cl.DecidingRole)
	assert.Equal(t, leave.RoleGuide, dl.DecidingRole)
	assert.Equal(t, leave.RoleOperator, lwp.DecidingRole)
	assert.Equal(t, leave.StatusPending, cl.Status)
}

func TestSubmit_DayCountPerType(t *testing.T) {
	// GIVEN: An onboarded student
	// WHEN: Submitting a 3-day CL span and a 3-day DL span
	// THEN: CL counts the inclusive span, DL counts one unit per event

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)

	cl := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar12, Reason: "trip",
	})
	dl := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeDuty,
		Start: mar10.AddDays(10), End: mar12.AddDays(10), Reason: "fieldwork", DocumentRef: "doc/2.pdf",
	})

	assert.Equal(t, 3, cl.DayCount)
	assert.Equal(t, 1, dl.DayCount)
}

func TestSubmit_DutyWithoutDocument_RejectedWithNoRecord(t *testing.T) {
	// GIVEN: An onboarded student
	// WHEN: Submitting DL without a document reference
	// THEN: ValidationError, and no application is persisted

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)

	_, err := svc.Submit(context.Background(), leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeDuty,
		Start: mar10, End: mar10, Reason: "conference",
	})

	assert.True(t, leave.IsValidation(err))
	var verr *leave.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "document_ref", verr.Field)

	apps, err := svc.List(context.Background(), leave.Filter{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Empty(t, apps, "failed validation must leave no application behind")
}

func TestSubmit_InvertedSpan_Rejected(t *testing.T) {
	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)

	_, err := svc.Submit(context.Background(), leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar12, End: mar10, Reason: "oops",
	})
	assert.True(t, leave.IsValidation(err))
}

func TestSubmit_NotOnboarded_Forbidden(t *testing.T) {
	// GIVEN: A student still pending onboarding
	// WHEN: Submitting any leave
	// THEN: ForbiddenTransitionError

	svc, store := newTestService(t)
	st := &leave.Student{
		ID: "stu-p", Name: "Pending", GuideID: "guide-1",
		Onboarding: leave.OnboardingPending,
		CreatedAt:  time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SaveStudent(context.Background(), st))

	_, err := svc.Submit(context.Background(), leave.SubmitInput{
		StudentID: "stu-p", Type: leave.TypeCasual,
		Start: mar10, End: mar10, Reason: "errand",
	})
	assert.True(t, leave.IsForbidden(err))
}

func TestSubmit_ClearsLeaveDraft(t *testing.T) {
	// GIVEN: A student with a saved in-progress leave form
	// WHEN: The submission succeeds
	// THEN: The draft slot is empty

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	ctx := context.Background()

	require.NoError(t, svc.Drafts.SaveDraft(ctx, leave.Draft{
		OwnerID: "stu-1", FormKind: leave.FormKindLeave, Payload: []byte(`{"step":2}`),
	}))

	submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar10, Reason: "errand",
	})

	d, err := svc.Drafts.GetDraft(ctx, "stu-1", leave.FormKindLeave)
	require.NoError(t, err)
	assert.Nil(t, d)
}

// brokenDrafts fails every clear; drafts are advisory, so the submit
// path must shrug this off.
type brokenDrafts struct {
	leave.DraftStore
}

func (b brokenDrafts) ClearDraft(context.Context, string, string) error {
	return errors.New("draft store unavailable")
}

func TestSubmit_DraftClearFailureDoesNotFailSubmission(t *testing.T) {
	// GIVEN: A draft store whose clear always errors
	// WHEN: Submitting a valid application
	// THEN: The submission still succeeds and the application is stored

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	svc.Drafts = brokenDrafts{DraftStore: memstore.NewDrafts()}

	app := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar10, Reason: "errand",
	})

	got, err := store.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, leave.StatusPending, got.Status)
}

// =============================================================================
// DECISION TESTS
// =============================================================================

func TestDecide_ApproveByAssignedGuide_MovesLedger(t *testing.T) {
	// GIVEN: A pending 3-day CL application
	// WHEN: The assigned guide approves it
	// THEN: Status flips and the CL ledger moves by the day count

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	ctx := context.Background()

	app := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar12, Reason: "trip",
	})

	err := svc.Decide(ctx, app.ID, leave.GuideApprover{ID: "guide-1"}, leave.StatusApproved, "fine by me")
	require.NoError(t, err)

	got, err := store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.Equal(t, "guide-1", got.DeciderID)
	assert.NotNil(t, got.DecidedAt)

	year := academic.DefaultYearConfig().YearOf(mar10)
	entry, err := store.GetLedgerEntry(ctx, "stu-1", leave.TypeCasual, year)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Used)
	assert.Equal(t, 27, entry.Remaining())
}

func TestDecide_OperatorOnCasual_ForbiddenAndStillPending(t *testing.T) {
	// GIVEN: A pending CL application (guide-decided)
	// WHEN: An operator tries to decide it
	// THEN: Forbidden; the application stays PENDING and the ledger is untouched

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	ctx := context.Background()

	app := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar10, Reason: "errand",
	})

	err := svc.Decide(ctx, app.ID, leave.OperatorApprover{ID: "op-1"}, leave.StatusApproved, "approving")
	assert.True(t, leave.IsForbidden(err))

	got, _ := store.GetApplication(ctx, app.ID)
	assert.Equal(t, leave.StatusPending, got.Status)

	year := academic.DefaultYearConfig().YearOf(mar10)
	entry, _ := store.GetLedgerEntry(ctx, "stu-1", leave.TypeCasual, year)
	assert.Equal(t, 0, entry.Used)
}

func TestDecide_UnassignedGuide_Forbidden(t *testing.T) {
	// GIVEN: A pending CL application for a student assigned to guide-1
	// WHEN: A different guide tries to decide it
	// THEN: Forbidden

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)

	app := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar10, Reason: "errand",
	})

	err := svc.Decide(context.Background(), app.ID, leave.GuideApprover{ID: "guide-2"}, leave.StatusApproved, "mine now")
	assert.True(t, leave.IsForbidden(err))
}

func TestDecide_ExactlyOnce(t *testing.T) {
	// GIVEN: An approved application
	// WHEN: Deciding it a second time
	// THEN: Forbidden, and the ledger moved exactly once

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	ctx := context.Background()

	app := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar12, Reason: "trip",
	})
	guide := leave.GuideApprover{ID: "guide-1"}

	require.NoError(t, svc.Decide(ctx, app.ID, guide, leave.StatusApproved, "ok"))

	err := svc.Decide(ctx, app.ID, guide, leave.StatusRejected, "changed my mind")
	assert.True(t, leave.IsForbidden(err), "a decided application is immutable")

	year := academic.DefaultYearConfig().YearOf(mar10)
	entry, _ := store.GetLedgerEntry(ctx, "stu-1", leave.TypeCasual, year)
	assert.Equal(t, 3, entry.Used)
}

func TestDecide_ReasonMandatory(t *testing.T) {
	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)

	app := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar10, Reason: "errand",
	})

	err := svc.Decide(context.Background(), app.ID, leave.GuideApprover{ID: "guide-1"}, leave.StatusRejected, "  ")
	assert.True(t, leave.IsValidation(err))
}

func TestDecide_RejectionLeavesLedgerAndAllowsResubmission(t *testing.T) {
	// GIVEN: A rejected CL application
	// WHEN: The student submits a fresh application for the same days
	// THEN: The new submission is accepted and the ledger never moved

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	ctx := context.Background()

	app := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar12, Reason: "trip",
	})
	require.NoError(t, svc.Decide(ctx, app.ID, leave.GuideApprover{ID: "guide-1"},
		leave.StatusRejected, "term ongoing"))

	year := academic.DefaultYearConfig().YearOf(mar10)
	entry, _ := store.GetLedgerEntry(ctx, "stu-1", leave.TypeCasual, year)
	assert.Equal(t, 0, entry.Used, "rejection must not move the ledger")

	again := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar12, Reason: "trip, second attempt",
	})
	assert.Equal(t, leave.StatusPending, again.Status)
}

// =============================================================================
// SOFT CEILING TESTS
// =============================================================================

func TestLedger_CasualOverflow_SoftCeiling(t *testing.T) {
	// GIVEN: A quota of 30 CL days
	// WHEN: 31 days are approved across two applications
	// THEN: Used exceeds quota; remaining clamps to 0 and overflow reads 1

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	ctx := context.Background()
	guide := leave.GuideApprover{ID: "guide-1"}

	jan5 := academic.NewDate(2026, time.January, 5)
	first := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: jan5, End: jan5.AddDays(19), Reason: "long leave", // 20 days
	})
	require.NoError(t, svc.Decide(ctx, first.ID, guide, leave.StatusApproved, "ok"))

	second := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar10.AddDays(10), Reason: "more leave", // 11 days
	})
	require.NoError(t, svc.Decide(ctx, second.ID, guide, leave.StatusApproved, "still ok"))

	year := academic.DefaultYearConfig().YearOf(mar10)
	entry, err := store.GetLedgerEntry(ctx, "stu-1", leave.TypeCasual, year)
	require.NoError(t, err)

	assert.Equal(t, 31, entry.Used)
	assert.Equal(t, 0, entry.Remaining(), "remaining never goes negative")
	assert.Equal(t, 1, entry.Overflow())
}

func TestLedger_NextAcademicYear_FirstApprovalCarriesQuota(t *testing.T) {
	// GIVEN: A student whose ledger was seeded only for the current year
	// WHEN: A CL falling in the next academic year is approved
	// THEN: That year's entry starts from the profile quota, not zero

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	ctx := context.Background()

	// July boundary: August 2026 sits in the year after mar10's.
	aug10 := academic.NewDate(2026, time.August, 10)
	app := submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: aug10, End: aug10.AddDays(2), Reason: "next year trip",
	})
	require.NoError(t, svc.Decide(ctx, app.ID, leave.GuideApprover{ID: "guide-1"},
		leave.StatusApproved, "ok"))

	nextYear := academic.DefaultYearConfig().YearOf(aug10)
	require.NotEqual(t, academic.DefaultYearConfig().YearOf(mar10), nextYear)

	entry, err := store.GetLedgerEntry(ctx, "stu-1", leave.TypeCasual, nextYear)
	require.NoError(t, err)
	assert.Equal(t, 30, entry.Quota)
	assert.Equal(t, 3, entry.Used)
	assert.Equal(t, 27, entry.Remaining())
	assert.Equal(t, 0, entry.Overflow(), "within-quota usage is not overflow")
}

// =============================================================================
// ABSENCE COVERAGE TESTS
// =============================================================================

func TestCoverAbsence_CreatesApprovedSingleDayLWP(t *testing.T) {
	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	ctx := context.Background()

	app, err := svc.CoverAbsence(ctx, "stu-1", mar10, leave.SystemApprover{Name: "reconciler"})
	require.NoError(t, err)

	got, err := store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.TypeWithoutPay, got.Type)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.Equal(t, 1, got.DayCount)
	assert.Equal(t, leave.SourceReconciler, got.Source)

	year := academic.DefaultYearConfig().YearOf(mar10)
	entry, _ := store.GetLedgerEntry(ctx, "stu-1", leave.TypeWithoutPay, year)
	assert.Equal(t, 1, entry.Used)
}

func TestCoverAbsence_CoveredDate_ErrDateCovered(t *testing.T) {
	// GIVEN: A pending CL application covering March 10-12
	// WHEN: The reconciler tries to cover March 11
	// THEN: ErrDateCovered; a pending application counts as coverage

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)
	ctx := context.Background()

	submit(t, svc, leave.SubmitInput{
		StudentID: "stu-1", Type: leave.TypeCasual,
		Start: mar10, End: mar12, Reason: "trip",
	})

	_, err := svc.CoverAbsence(ctx, "stu-1", mar10.AddDays(1), leave.SystemApprover{Name: "reconciler"})
	assert.ErrorIs(t, err, leave.ErrDateCovered)
}

// =============================================================================
// LEDGER VIEW TESTS
// =============================================================================

func TestLedgerForYear_PadsAllTypes(t *testing.T) {
	// GIVEN: A student with only the CL entry seeded
	// WHEN: Reading the ledger view
	// THEN: All three types appear; unseeded ones report zero usage

	svc, store := newTestService(t)
	seedStudent(t, store, "stu-1", "guide-1", 30, mar10)

	year := academic.DefaultYearConfig().YearOf(mar10)
	view, err := svc.LedgerForYear(context.Background(), "stu-1", year)
	require.NoError(t, err)
	require.Len(t, view.Entries, 3)

	byType := map[leave.Type]leave.LedgerEntry{}
	for _, e := range view.Entries {
		byType[e.Type] = e
	}
	assert.Equal(t, 30, byType[leave.TypeCasual].Quota)
	assert.Equal(t, 0, byType[leave.TypeDuty].Used)
	assert.Equal(t, 0, byType[leave.TypeWithoutPay].Used)
}
