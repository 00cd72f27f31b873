package leave

import (
	"context"
	"time"
)

// =============================================================================
// AUDIT LEDGER - Append-only record of who did what when
// =============================================================================
// The audit trail has no UI in this system; only the underlying ledger is
// kept. Corrections are never edits: a wrong entry is explained by a later
// entry.

type AuditAction string

const (
	AuditLeaveSubmitted      AuditAction = "leave_submitted"
	AuditLeaveApproved       AuditAction = "leave_approved"
	AuditLeaveRejected       AuditAction = "leave_rejected"
	AuditOnboardingApproved  AuditAction = "onboarding_approved"
	AuditOnboardingRejected  AuditAction = "onboarding_rejected"
	AuditReconcilerBatch     AuditAction = "reconciler_batch"
)

type AuditEntry struct {
	ID        string
	At        time.Time
	ActorID   string
	Action    AuditAction
	StudentID string
	RefID     string // application or batch id
	Detail    string
}

// AuditLog stores audit entries. Append-only: no update, no delete.
type AuditLog interface {
	AppendAudit(ctx context.Context, e AuditEntry) error
	QueryAudit(ctx context.Context, studentID string, limit int) ([]AuditEntry, error)
}
