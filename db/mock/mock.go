package mock

import (
	"time"

	"github.com/startupgate/startupgate/db"
)

// Compile-time check to ensure Db implements the DbApp interface
var _ db.DbApp = (*Db)(nil)

// Db implements db.DbApp for testing purposes.
// Use function fields to allow overriding behavior in specific tests.
type Db struct {
	// --- Mock DbAuth Methods ---
	GetUserByEmailFunc       func(email string) (*db.User, error)
	GetUserByIdFunc          func(id string) (*db.User, error)
	CreateAccountFunc        func(user db.User, roleName string, profile db.Profile) (*db.User, error)
	GetUserRoleFunc          func(userID string) (string, error)
	SetVerificationNonceFunc func(userID, nonce string) error
	MarkVerifiedFunc         func(userID string) error
	UpdatePasswordFunc       func(userID string, newPassword string) error

	// --- Mock DbProfile Methods ---
	GetProfileByUserIDFunc func(userID string) (*db.Profile, error)

	// --- Mock DbProject Methods ---
	GetProjectByIdFunc       func(id string) (*db.Project, error)
	CreateProjectFunc        func(p db.Project) (*db.Project, error)
	UpdateProjectStatusFunc  func(id, expectedStatus, newStatus string, fundedAt time.Time) error
	UpdateProjectFundingFunc func(id, expectedStatus string, expectedRaised, newRaised int64, newStatus string, fundedAt time.Time) error

	// --- Mock DbAudit Methods ---
	InsertResetAttemptFunc func(a db.ResetAttempt) error

	// --- Mock DbQueue Methods ---
	InsertJobFunc     func(job db.Job) error
	ClaimFunc         func(limit int) ([]*db.Job, error)
	MarkCompletedFunc func(jobID int64) error
	MarkFailedFunc    func(jobID int64, errMsg string) error
}

// --- Implement DbAuth ---

func (m *Db) GetUserByEmail(email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(email)
	}
	return nil, nil // Default: Not found
}

func (m *Db) GetUserById(id string) (*db.User, error) {
	if m.GetUserByIdFunc != nil {
		return m.GetUserByIdFunc(id)
	}
	return nil, nil // Default: Not found
}

func (m *Db) CreateAccount(user db.User, roleName string, profile db.Profile) (*db.User, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(user, roleName, profile)
	}
	user.ID = "mock-user-id"
	return &user, nil
}

func (m *Db) GetUserRole(userID string) (string, error) {
	if m.GetUserRoleFunc != nil {
		return m.GetUserRoleFunc(userID)
	}
	return db.RoleStartup, nil
}

func (m *Db) SetVerificationNonce(userID, nonce string) error {
	if m.SetVerificationNonceFunc != nil {
		return m.SetVerificationNonceFunc(userID, nonce)
	}
	return nil
}

func (m *Db) MarkVerified(userID string) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(userID)
	}
	return nil
}

func (m *Db) UpdatePassword(userID string, newPassword string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(userID, newPassword)
	}
	return nil
}

// --- Implement DbProfile ---

func (m *Db) GetProfileByUserID(userID string) (*db.Profile, error) {
	if m.GetProfileByUserIDFunc != nil {
		return m.GetProfileByUserIDFunc(userID)
	}
	return nil, nil
}

// --- Implement DbProject ---

func (m *Db) GetProjectById(id string) (*db.Project, error) {
	if m.GetProjectByIdFunc != nil {
		return m.GetProjectByIdFunc(id)
	}
	return nil, nil
}

func (m *Db) CreateProject(p db.Project) (*db.Project, error) {
	if m.CreateProjectFunc != nil {
		return m.CreateProjectFunc(p)
	}
	p.ID = "mock-project-id"
	return &p, nil
}

func (m *Db) UpdateProjectStatus(id, expectedStatus, newStatus string, fundedAt time.Time) error {
	if m.UpdateProjectStatusFunc != nil {
		return m.UpdateProjectStatusFunc(id, expectedStatus, newStatus, fundedAt)
	}
	return nil
}

func (m *Db) UpdateProjectFunding(id, expectedStatus string, expectedRaised, newRaised int64, newStatus string, fundedAt time.Time) error {
	if m.UpdateProjectFundingFunc != nil {
		return m.UpdateProjectFundingFunc(id, expectedStatus, expectedRaised, newRaised, newStatus, fundedAt)
	}
	return nil
}

// --- Implement DbAudit ---

func (m *Db) InsertResetAttempt(a db.ResetAttempt) error {
	if m.InsertResetAttemptFunc != nil {
		return m.InsertResetAttemptFunc(a)
	}
	return nil
}

// --- Implement DbQueue ---

func (m *Db) InsertJob(job db.Job) error {
	if m.InsertJobFunc != nil {
		return m.InsertJobFunc(job)
	}
	return nil
}

func (m *Db) Claim(limit int) ([]*db.Job, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(limit)
	}
	return nil, nil
}

func (m *Db) MarkCompleted(jobID int64) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(jobID)
	}
	return nil
}

func (m *Db) MarkFailed(jobID int64, errMsg string) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(jobID, errMsg)
	}
	return nil
}
