// Package memstore provides in-memory store implementations.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/campuskit/leave-engine/leave"
)

// =============================================================================
// DRAFT STORE - In-memory, per (owner, form kind)
// =============================================================================

// Drafts caches in-progress form payloads. Drafts are ephemeral by
// nature: a process restart losing them costs a re-typed form, nothing
// more, so they never touch the database.
type Drafts struct {
	mu     sync.RWMutex
	drafts map[draftKey]leave.Draft
}

type draftKey struct {
	OwnerID  string
	FormKind string
}

func NewDrafts() *Drafts {
	return &Drafts{drafts: make(map[draftKey]leave.Draft)}
}

// SaveDraft stores or replaces the draft for (owner, kind).
func (m *Drafts) SaveDraft(_ context.Context, d leave.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now().UTC()
	}
	m.drafts[draftKey{OwnerID: d.OwnerID, FormKind: d.FormKind}] = d
	return nil
}

// GetDraft returns nil, nil when no draft is stored.
func (m *Drafts) GetDraft(_ context.Context, ownerID, formKind string) (*leave.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drafts[draftKey{OwnerID: ownerID, FormKind: formKind}]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// ClearDraft removes the draft if present. No-op otherwise.
func (m *Drafts) ClearDraft(_ context.Context, ownerID, formKind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.drafts, draftKey{OwnerID: ownerID, FormKind: formKind})
	return nil
}
