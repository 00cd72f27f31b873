/*
draft.go - Scoped draft cache for in-progress submissions

PURPOSE:
  Dashboards save half-filled multi-step leave forms. That generalizes to
  a draft cache keyed by owner identity and form kind, cleared on
  successful submission. It is an explicit interface, not ambient global
  state, so the HTTP layer and the service share one contract.
*/
package leave

import (
	"context"
	"time"
)

// Draft is an opaque in-progress form payload.
type Draft struct {
	OwnerID  string
	FormKind string
	Payload  []byte // JSON as the client sent it
	SavedAt  time.Time
}

// FormKindLeave is the draft slot Submit clears on success.
const FormKindLeave = "leave"

// DraftStore caches in-progress form payloads per (owner, kind).
type DraftStore interface {
	SaveDraft(ctx context.Context, d Draft) error

	// GetDraft returns nil, nil when no draft is stored.
	GetDraft(ctx context.Context, ownerID, formKind string) (*Draft, error)

	// ClearDraft is a no-op when no draft is stored.
	ClearDraft(ctx context.Context, ownerID, formKind string) error
}
