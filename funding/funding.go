// Package funding enforces the project status graph and raised-amount
// rules.
package funding

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/startupgate/startupgate/db"
)

// Project statuses. The graph is strictly forward-only; closed is
// terminal.
const (
	StatusIdea        = "idea"
	StatusMvp         = "mvp"
	StatusFundraising = "fundraising"
	StatusFunded      = "funded"
	StatusClosed      = "closed"
)

// allowedTransitions maps a status to the set of statuses it may move to
// without an admin override.
var allowedTransitions = map[string][]string{
	StatusIdea:        {StatusMvp},
	StatusMvp:         {StatusFundraising},
	StatusFundraising: {StatusFunded},
	StatusFunded:      {StatusClosed},
	StatusClosed:      {},
}

var (
	// ErrOverfundingNotAllowed is returned when a raised amount would
	// exceed the target on a project that forbids overfunding.
	ErrOverfundingNotAllowed = errors.New("raised amount exceeds target and overfunding is not allowed")
	// ErrUnknownStatus is returned for a status outside the enum.
	ErrUnknownStatus = errors.New("unknown project status")
	// ErrNegativeAmount is returned for a negative raised amount.
	ErrNegativeAmount = errors.New("raised amount must not be negative")
)

// InvalidTransitionError reports a transition outside the allowed graph.
// The message carries both states for the client.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s to %s", e.From, e.To)
}

// ValidStatus reports whether s is a member of the status enum.
func ValidStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// TransitionAllowed reports whether from may move to to without an
// override.
func TransitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StateMachine applies status and funding changes to stored projects.
// All writes are conditional on the state the decision was made against,
// so two concurrent updates cannot both slip past a validation. Failed
// operations write nothing.
type StateMachine struct {
	dbProject db.DbProject
	logger    *slog.Logger
	// now is swappable for tests that assert on funded_at.
	now func() time.Time
}

func NewStateMachine(dbProject db.DbProject, logger *slog.Logger) *StateMachine {
	return &StateMachine{
		dbProject: dbProject,
		logger:    logger,
		now:       time.Now,
	}
}

// ChangeStatus moves the project to newStatus. Without adminOverride the
// move must follow the transition graph; with it any move is accepted
// (authorization for the override is the caller's concern). Entering the
// funded status stamps funded_at if it was never set, on the normal path
// and under override alike.
func (sm *StateMachine) ChangeStatus(projectID, newStatus string, adminOverride bool) (*db.Project, error) {
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, newStatus)
	}

	project, err := sm.dbProject.GetProjectById(projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return nil, db.ErrProjectNotFound
	}

	if !adminOverride && !TransitionAllowed(project.Status, newStatus) {
		return nil, &InvalidTransitionError{From: project.Status, To: newStatus}
	}

	var fundedAt time.Time
	if newStatus == StatusFunded && project.FundedAt.IsZero() {
		fundedAt = sm.now()
	}

	if err := sm.dbProject.UpdateProjectStatus(projectID, project.Status, newStatus, fundedAt); err != nil {
		return nil, fmt.Errorf("persist status change: %w", err)
	}

	sm.logger.Info("project status changed",
		"project_id", projectID, "from", project.Status, "to", newStatus, "override", adminOverride)

	project.Status = newStatus
	if !fundedAt.IsZero() {
		project.FundedAt = fundedAt
	}
	return project, nil
}

// UpdateRaisedAmount sets the project's raised amount, in cents. A new
// amount above target fails unless the project allows overfunding.
// Reaching the target while fundraising auto-transitions to funded and
// stamps funded_at if unset.
func (sm *StateMachine) UpdateRaisedAmount(projectID string, newAmount int64) (*db.Project, error) {
	if newAmount < 0 {
		return nil, ErrNegativeAmount
	}

	project, err := sm.dbProject.GetProjectById(projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return nil, db.ErrProjectNotFound
	}

	if newAmount > project.TargetAmount && !project.AllowOverfunding {
		return nil, ErrOverfundingNotAllowed
	}

	newStatus := ""
	var fundedAt time.Time
	if project.Status == StatusFundraising && newAmount >= project.TargetAmount {
		newStatus = StatusFunded
		if project.FundedAt.IsZero() {
			fundedAt = sm.now()
		}
	}

	err = sm.dbProject.UpdateProjectFunding(projectID, project.Status, project.RaisedAmount, newAmount, newStatus, fundedAt)
	if err != nil {
		return nil, fmt.Errorf("persist raised amount: %w", err)
	}

	sm.logger.Info("project raised amount updated",
		"project_id", projectID, "amount", newAmount, "funded", newStatus == StatusFunded)

	project.RaisedAmount = newAmount
	if newStatus != "" {
		project.Status = newStatus
	}
	if !fundedAt.IsZero() {
		project.FundedAt = fundedAt
	}
	return project, nil
}
