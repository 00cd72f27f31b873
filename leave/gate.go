/*
gate.go - Role-scoped approval gate

PURPOSE:
  Decides whether an actor may decide an application. The gate fails
  closed: any actor whose capability doesn't match the application's
  fixed deciding role gets ForbiddenTransition, regardless of what a
  client dashboard chose to display.

APPROVER CAPABILITY:
  Approvers are modeled as a small capability interface rather than role
  strings scattered through call sites. Three implementations:

    GuideApprover{ID}     decides CL/DL, but only for assigned students
    OperatorApprover{ID}  decides LWP
    SystemApprover{Name}  automated decider used by the reconciler

SEE ALSO:
  - service.go: Decide, which consults the gate before any write
*/
package leave

// Approver is the capability an actor presents when deciding an
// application.
type Approver interface {
	// ActorID identifies the approver in decision records.
	ActorID() string

	// Role returns the role this capability exercises.
	Role() Role
}

// GuideApprover decides CL and DL applications of assigned students.
type GuideApprover struct {
	ID string
}

func (g GuideApprover) ActorID() string { return g.ID }
func (g GuideApprover) Role() Role      { return RoleGuide }

// OperatorApprover decides LWP applications and onboarding.
type OperatorApprover struct {
	ID string
}

func (o OperatorApprover) ActorID() string { return o.ID }
func (o OperatorApprover) Role() Role      { return RoleOperator }

// SystemApprover is the automated identity the attendance reconciler
// decides under. It exercises the operator role.
type SystemApprover struct {
	Name string
}

func (s SystemApprover) ActorID() string { return s.Name }
func (s SystemApprover) Role() Role      { return RoleOperator }

// =============================================================================
// GATE
// =============================================================================

// Authorize checks that the approver may decide the application. It never
// writes; callers run it before touching the store.
//
// Rules:
//   - the approver's role must equal the application's deciding role
//   - guides may only decide applications of their assigned students
//   - only PENDING applications are decidable
func Authorize(app *Application, student *Student, approver Approver) error {
	if approver.Role() != app.DecidingRole {
		return &ForbiddenTransitionError{
			ApplicationID: app.ID,
			ActorRole:     approver.Role(),
			WantedRole:    app.DecidingRole,
			Status:        app.Status,
		}
	}

	if app.DecidingRole == RoleGuide && student.GuideID != approver.ActorID() {
		return &ForbiddenTransitionError{
			ApplicationID: app.ID,
			ActorRole:     approver.Role(),
			WantedRole:    app.DecidingRole,
			Status:        app.Status,
			Message:       "guide is not assigned to this student",
		}
	}

	if app.Decided() {
		return &ForbiddenTransitionError{
			ApplicationID: app.ID,
			ActorRole:     approver.Role(),
			WantedRole:    app.DecidingRole,
			Status:        app.Status,
			Message:       "application already decided",
		}
	}

	return nil
}
