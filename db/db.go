package db

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound is returned when a user lookup by id finds no row.
	ErrUserNotFound = errors.New("user not found")
	// ErrProjectNotFound is returned when a project lookup finds no row.
	ErrProjectNotFound = errors.New("project not found")
	// ErrConstraintUnique is returned when an insert violates a unique
	// constraint (duplicate email, duplicate queue job in a cooldown bucket).
	ErrConstraintUnique = errors.New("unique constraint violation")
	// ErrConflict is returned when a conditional update matched no row
	// because another writer changed it first.
	ErrConflict = errors.New("conflicting concurrent update")
)

// DbAuth covers user identity records, roles and profiles.
type DbAuth interface {
	// GetUserByEmail returns the user for a normalized email, or nil with a
	// nil error when no row matches.
	GetUserByEmail(email string) (*User, error)
	// GetUserById returns the user, or nil with a nil error when no row
	// matches.
	GetUserById(id string) (*User, error)
	// CreateAccount inserts the user, the role record (created on first
	// use), the user-role link and the profile as one transaction. Either
	// all rows exist afterwards or none do. Returns ErrConstraintUnique
	// when the email is already taken.
	CreateAccount(user User, roleName string, profile Profile) (*User, error)
	// GetUserRole returns the first associated role name, or "" when the
	// user has none.
	GetUserRole(userID string) (string, error)
	// SetVerificationNonce overwrites the user's verification nonce,
	// superseding all previously issued verification tokens.
	SetVerificationNonce(userID, nonce string) error
	// MarkVerified sets verified and is_active and clears the nonce so the
	// consumed token cannot be used twice. Persists only those fields.
	MarkVerified(userID string) error
	// UpdatePassword replaces the stored password hash.
	UpdatePassword(userID, newPassword string) error
}

// DbProfile covers profile lookups outside the registration transaction.
type DbProfile interface {
	GetProfileByUserID(userID string) (*Profile, error)
}

// DbProject covers project records, with conditional updates for the
// funding transitions. Plain read-modify-write is not enough there: two
// concurrent raised-amount updates racing past the overfunding check is a
// real defect class, so writes compare against the state the caller read.
type DbProject interface {
	GetProjectById(id string) (*Project, error)
	CreateProject(p Project) (*Project, error)
	// UpdateProjectStatus sets the status, stamping funded_at only if it is
	// currently unset, and only when the row still has expectedStatus.
	// Returns ErrConflict otherwise.
	UpdateProjectStatus(id, expectedStatus, newStatus string, fundedAt time.Time) error
	// UpdateProjectFunding sets raised_amount (and optionally the status,
	// when newStatus is non-empty) only when the row still has
	// expectedStatus and expectedRaised. Returns ErrConflict otherwise.
	UpdateProjectFunding(id, expectedStatus string, expectedRaised int64, newRaised int64, newStatus string, fundedAt time.Time) error
}

// DbAudit covers the append-only password reset attempt log.
type DbAudit interface {
	InsertResetAttempt(a ResetAttempt) error
}

// DbQueue covers the deferred side effect queue.
type DbQueue interface {
	// InsertJob enqueues a job. Returns ErrConstraintUnique when an
	// identical (job_type, payload) pair is already pending, which is how
	// cooldown-bucket deduplication works.
	InsertJob(job Job) error
	// Claim atomically marks up to limit pending jobs as processing and
	// returns them.
	Claim(limit int) ([]*Job, error)
	MarkCompleted(jobID int64) error
	MarkFailed(jobID int64, errMsg string) error
}

// DbApp is the combined interface a concrete implementation must satisfy.
type DbApp interface {
	DbAuth
	DbProfile
	DbProject
	DbAudit
	DbQueue
}
