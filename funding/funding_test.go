package funding

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/db/mock"
)

// projectStore is a single-project in-memory store that mimics the
// conditional update semantics of the real persistence layer.
type projectStore struct {
	project db.Project
}

func (s *projectStore) mock() *mock.Db {
	return &mock.Db{
		GetProjectByIdFunc: func(id string) (*db.Project, error) {
			if id != s.project.ID {
				return nil, nil
			}
			copied := s.project
			return &copied, nil
		},
		UpdateProjectStatusFunc: func(id, expectedStatus, newStatus string, fundedAt time.Time) error {
			if id != s.project.ID {
				return db.ErrProjectNotFound
			}
			if s.project.Status != expectedStatus {
				return db.ErrConflict
			}
			s.project.Status = newStatus
			if s.project.FundedAt.IsZero() && !fundedAt.IsZero() {
				s.project.FundedAt = fundedAt
			}
			return nil
		},
		UpdateProjectFundingFunc: func(id, expectedStatus string, expectedRaised, newRaised int64, newStatus string, fundedAt time.Time) error {
			if id != s.project.ID {
				return db.ErrProjectNotFound
			}
			if s.project.Status != expectedStatus || s.project.RaisedAmount != expectedRaised {
				return db.ErrConflict
			}
			s.project.RaisedAmount = newRaised
			if newStatus != "" {
				s.project.Status = newStatus
			}
			if s.project.FundedAt.IsZero() && !fundedAt.IsZero() {
				s.project.FundedAt = fundedAt
			}
			return nil
		},
	}
}

func newFixture(t *testing.T, project db.Project) (*StateMachine, *projectStore) {
	t.Helper()
	store := &projectStore{project: project}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStateMachine(store.mock(), logger), store
}

func baseProject() db.Project {
	return db.Project{
		ID:           "01HPROJ000000000000000001",
		Title:        "Widget Factory",
		Status:       StatusIdea,
		TargetAmount: 100_000_00,
	}
}

func TestChangeStatusFollowsGraph(t *testing.T) {
	testCases := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"idea to mvp", StatusIdea, StatusMvp, true},
		{"mvp to fundraising", StatusMvp, StatusFundraising, true},
		{"fundraising to funded", StatusFundraising, StatusFunded, true},
		{"funded to closed", StatusFunded, StatusClosed, true},
		{"idea skips to fundraising", StatusIdea, StatusFundraising, false},
		{"backward move", StatusFundraising, StatusIdea, false},
		{"closed is terminal", StatusClosed, StatusIdea, false},
		{"self transition", StatusIdea, StatusIdea, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			project := baseProject()
			project.Status = tc.from
			sm, store := newFixture(t, project)

			updated, err := sm.ChangeStatus(project.ID, tc.to, false)
			if tc.allowed {
				if err != nil {
					t.Fatalf("ChangeStatus() failed: %v", err)
				}
				if updated.Status != tc.to || store.project.Status != tc.to {
					t.Errorf("status = %q (stored %q), want %q", updated.Status, store.project.Status, tc.to)
				}
				return
			}

			var ite *InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("ChangeStatus() error = %v, want InvalidTransitionError", err)
			}
			if ite.From != tc.from || ite.To != tc.to {
				t.Errorf("error states = %s to %s, want %s to %s", ite.From, ite.To, tc.from, tc.to)
			}
			if store.project.Status != tc.from {
				t.Error("failed transition must not write")
			}
		})
	}
}

func TestChangeStatusAdminOverrideBypassesGraph(t *testing.T) {
	project := baseProject()
	project.Status = StatusClosed
	sm, store := newFixture(t, project)

	updated, err := sm.ChangeStatus(project.ID, StatusIdea, true)
	if err != nil {
		t.Fatalf("override ChangeStatus() failed: %v", err)
	}
	if updated.Status != StatusIdea || store.project.Status != StatusIdea {
		t.Errorf("status = %q, want %q", updated.Status, StatusIdea)
	}
}

func TestChangeStatusStampsFundedAtOnce(t *testing.T) {
	project := baseProject()
	project.Status = StatusFundraising
	sm, store := newFixture(t, project)

	stamped := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return stamped }

	if _, err := sm.ChangeStatus(project.ID, StatusFunded, false); err != nil {
		t.Fatalf("ChangeStatus() failed: %v", err)
	}
	if !store.project.FundedAt.Equal(stamped) {
		t.Fatalf("funded_at = %v, want %v", store.project.FundedAt, stamped)
	}

	// Leave funded and come back via override; the original stamp stays.
	sm.now = func() time.Time { return stamped.Add(48 * time.Hour) }
	if _, err := sm.ChangeStatus(project.ID, StatusClosed, false); err != nil {
		t.Fatalf("ChangeStatus() to closed failed: %v", err)
	}
	if _, err := sm.ChangeStatus(project.ID, StatusFunded, true); err != nil {
		t.Fatalf("override back to funded failed: %v", err)
	}
	if !store.project.FundedAt.Equal(stamped) {
		t.Errorf("funded_at changed to %v, must stay %v", store.project.FundedAt, stamped)
	}
}

func TestChangeStatusUnknownInputs(t *testing.T) {
	sm, _ := newFixture(t, baseProject())

	if _, err := sm.ChangeStatus("no-such-project", StatusMvp, false); !errors.Is(err, db.ErrProjectNotFound) {
		t.Errorf("missing project error = %v, want ErrProjectNotFound", err)
	}
	if _, err := sm.ChangeStatus(baseProject().ID, "bankrupt", false); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("unknown status error = %v, want ErrUnknownStatus", err)
	}
}

func TestUpdateRaisedAmountOverfundingGuard(t *testing.T) {
	project := baseProject()
	project.Status = StatusFundraising
	project.RaisedAmount = 50_000_00

	t.Run("rejected when not allowed", func(t *testing.T) {
		sm, store := newFixture(t, project)
		_, err := sm.UpdateRaisedAmount(project.ID, 150_000_00)
		if !errors.Is(err, ErrOverfundingNotAllowed) {
			t.Fatalf("error = %v, want ErrOverfundingNotAllowed", err)
		}
		if store.project.RaisedAmount != 50_000_00 {
			t.Error("failed update must leave raised_amount unchanged")
		}
	})

	t.Run("accepted when allowed", func(t *testing.T) {
		allowed := project
		allowed.AllowOverfunding = true
		sm, store := newFixture(t, allowed)
		updated, err := sm.UpdateRaisedAmount(project.ID, 150_000_00)
		if err != nil {
			t.Fatalf("UpdateRaisedAmount() failed: %v", err)
		}
		if updated.RaisedAmount != 150_000_00 || store.project.Status != StatusFunded {
			t.Errorf("got amount=%d status=%q, want overfunded and funded", updated.RaisedAmount, store.project.Status)
		}
	})
}

func TestUpdateRaisedAmountAutoFundsAtTarget(t *testing.T) {
	project := baseProject()
	project.Status = StatusFundraising
	sm, store := newFixture(t, project)

	stamped := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return stamped }

	updated, err := sm.UpdateRaisedAmount(project.ID, project.TargetAmount)
	if err != nil {
		t.Fatalf("UpdateRaisedAmount() failed: %v", err)
	}
	if updated.Status != StatusFunded {
		t.Errorf("status = %q, want %q", updated.Status, StatusFunded)
	}
	if !store.project.FundedAt.Equal(stamped) {
		t.Fatalf("funded_at = %v, want %v", store.project.FundedAt, stamped)
	}

	// A second identical update keeps the original stamp.
	sm.now = func() time.Time { return stamped.Add(time.Hour) }
	if _, err := sm.UpdateRaisedAmount(project.ID, project.TargetAmount); err != nil {
		t.Fatalf("second UpdateRaisedAmount() failed: %v", err)
	}
	if !store.project.FundedAt.Equal(stamped) {
		t.Errorf("funded_at changed to %v, must stay %v", store.project.FundedAt, stamped)
	}
}

func TestUpdateRaisedAmountOutsideFundraisingDoesNotAutoFund(t *testing.T) {
	project := baseProject()
	project.Status = StatusIdea
	sm, store := newFixture(t, project)

	updated, err := sm.UpdateRaisedAmount(project.ID, project.TargetAmount)
	if err != nil {
		t.Fatalf("UpdateRaisedAmount() failed: %v", err)
	}
	if updated.Status != StatusIdea || !store.project.FundedAt.IsZero() {
		t.Errorf("idea-stage update must not fund: status=%q funded_at=%v", updated.Status, store.project.FundedAt)
	}
}

func TestUpdateRaisedAmountRejectsNegative(t *testing.T) {
	sm, _ := newFixture(t, baseProject())
	if _, err := sm.UpdateRaisedAmount(baseProject().ID, -1); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("error = %v, want ErrNegativeAmount", err)
	}
}

func TestUpdateRaisedAmountConflictSurfaces(t *testing.T) {
	project := baseProject()
	project.Status = StatusFundraising
	store := &projectStore{project: project}
	m := store.mock()
	// Another writer moves the row between the read and the write.
	inner := m.UpdateProjectFundingFunc
	m.UpdateProjectFundingFunc = func(id, expectedStatus string, expectedRaised, newRaised int64, newStatus string, fundedAt time.Time) error {
		store.project.RaisedAmount += 7
		return inner(id, expectedStatus, expectedRaised, newRaised, newStatus, fundedAt)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sm := NewStateMachine(m, logger)

	if _, err := sm.UpdateRaisedAmount(project.ID, 10_00); !errors.Is(err, db.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}
