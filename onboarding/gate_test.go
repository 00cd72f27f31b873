package onboarding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/leave-engine/academic"
	"github.com/campuskit/leave-engine/leave"
	"github.com/campuskit/leave-engine/onboarding"
	"github.com/campuskit/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*onboarding.Service, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := onboarding.NewService(store)
	svc.Audit = store
	return svc, store
}

func register(t *testing.T, svc *onboarding.Service, id string) {
	t.Helper()
	err := svc.Register(context.Background(), &leave.Student{
		ID:   id,
		Name: "Student " + id,
	})
	require.NoError(t, err)
}

func fullProfile() onboarding.Profile {
	return onboarding.Profile{
		EmployeeNo:  "EMP-77",
		GuideID:     "guide-1",
		AadhaarNo:   "1234-5678-9012",
		PanNo:       "ABCDE1234F",
		CasualQuota: 30,
		BaseAmount:  30000,
	}
}

var operator = leave.OperatorApprover{ID: "op-1"}

// =============================================================================
// REGISTRATION TESTS
// =============================================================================

func TestRegister_StartsPendingAndInactive(t *testing.T) {
	svc, store := newTestService(t)
	register(t, svc, "stu-1")

	st, err := store.GetStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, leave.OnboardingPending, st.Onboarding)
	assert.False(t, st.Active)
}

func TestRegister_DuplicateID_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "stu-1")

	err := svc.Register(context.Background(), &leave.Student{ID: "stu-1", Name: "Again"})
	assert.True(t, leave.IsValidation(err))
}

// =============================================================================
// APPROVAL TESTS
// =============================================================================

func TestApprove_ActivatesAndSeedsLedger(t *testing.T) {
	// GIVEN: A pending registration
	// WHEN: The operator approves with a complete profile
	// THEN: The student is active and the CL ledger entry carries the quota

	svc, store := newTestService(t)
	register(t, svc, "stu-1")
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, "stu-1", fullProfile(), operator))

	st, err := store.GetStudent(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, leave.OnboardingApproved, st.Onboarding)
	assert.True(t, st.Active)
	assert.Equal(t, "guide-1", st.GuideID)
	assert.Equal(t, 30, st.CasualQuota)

	year := academic.DefaultYearConfig().YearOf(academic.Today())
	entry, err := store.GetLedgerEntry(ctx, "stu-1", leave.TypeCasual, year)
	require.NoError(t, err)
	assert.Equal(t, 30, entry.Quota)
	assert.Equal(t, 0, entry.Used)
}

func TestApprove_MissingGuide_ValidationErrorStaysPending(t *testing.T) {
	// GIVEN: A pending registration
	// WHEN: The operator approves with an empty guide assignment
	// THEN: ValidationError naming the field; the student stays PENDING

	svc, store := newTestService(t)
	register(t, svc, "stu-1")
	ctx := context.Background()

	profile := fullProfile()
	profile.GuideID = ""

	err := svc.Approve(ctx, "stu-1", profile, operator)
	assert.True(t, leave.IsValidation(err))
	var verr *leave.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "guide_id", verr.Field)

	st, _ := store.GetStudent(ctx, "stu-1")
	assert.Equal(t, leave.OnboardingPending, st.Onboarding)
	assert.False(t, st.Active)
}

func TestApprove_NonOperator_Forbidden(t *testing.T) {
	svc, store := newTestService(t)
	register(t, svc, "stu-1")
	ctx := context.Background()

	err := svc.Approve(ctx, "stu-1", fullProfile(), leave.GuideApprover{ID: "guide-1"})
	assert.True(t, leave.IsForbidden(err))

	st, _ := store.GetStudent(ctx, "stu-1")
	assert.Equal(t, leave.OnboardingPending, st.Onboarding)
}

func TestApprove_AlreadyDecided_Forbidden(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "stu-1")
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, "stu-1", fullProfile(), operator))

	err := svc.Approve(ctx, "stu-1", fullProfile(), operator)
	assert.True(t, leave.IsForbidden(err), "onboarding decisions are terminal")
}

func TestApprove_UnknownStudent_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Approve(context.Background(), "ghost", fullProfile(), operator)
	assert.True(t, leave.IsNotFound(err))
}

// =============================================================================
// REJECTION TESTS
// =============================================================================

func TestReject_RequiresReason(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "stu-1")

	err := svc.Reject(context.Background(), "stu-1", "", operator)
	assert.True(t, leave.IsValidation(err))
}

func TestReject_DeactivatesTerminally(t *testing.T) {
	svc, store := newTestService(t)
	register(t, svc, "stu-1")
	ctx := context.Background()

	require.NoError(t, svc.Reject(ctx, "stu-1", "incomplete documents", operator))

	st, _ := store.GetStudent(ctx, "stu-1")
	assert.Equal(t, leave.OnboardingRejected, st.Onboarding)
	assert.False(t, st.Active)

	err := svc.Approve(ctx, "stu-1", fullProfile(), operator)
	assert.True(t, leave.IsForbidden(err), "a rejected account cannot be approved later")
}
