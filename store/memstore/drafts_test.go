package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/leave-engine/leave"
	"github.com/campuskit/leave-engine/store/memstore"
)

func TestDrafts_SaveGetClear(t *testing.T) {
	drafts := memstore.NewDrafts()
	ctx := context.Background()

	require.NoError(t, drafts.SaveDraft(ctx, leave.Draft{
		OwnerID:  "stu-1",
		FormKind: leave.FormKindLeave,
		Payload:  []byte(`{"type":"CL"}`),
	}))

	got, err := drafts.GetDraft(ctx, "stu-1", leave.FormKindLeave)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"type":"CL"}`, string(got.Payload))
	assert.False(t, got.SavedAt.IsZero())

	require.NoError(t, drafts.ClearDraft(ctx, "stu-1", leave.FormKindLeave))

	got, err = drafts.GetDraft(ctx, "stu-1", leave.FormKindLeave)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDrafts_ScopedPerOwnerAndKind(t *testing.T) {
	drafts := memstore.NewDrafts()
	ctx := context.Background()

	require.NoError(t, drafts.SaveDraft(ctx, leave.Draft{
		OwnerID: "stu-1", FormKind: leave.FormKindLeave, Payload: []byte(`{"a":1}`),
	}))
	require.NoError(t, drafts.SaveDraft(ctx, leave.Draft{
		OwnerID: "stu-1", FormKind: "onboarding", Payload: []byte(`{"b":2}`),
	}))

	got, err := drafts.GetDraft(ctx, "stu-1", "onboarding")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"b":2}`, string(got.Payload))

	other, err := drafts.GetDraft(ctx, "stu-2", leave.FormKindLeave)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestDrafts_ClearMissingIsNoop(t *testing.T) {
	drafts := memstore.NewDrafts()
	assert.NoError(t, drafts.ClearDraft(context.Background(), "ghost", leave.FormKindLeave))
}
