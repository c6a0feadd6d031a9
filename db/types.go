package db

import (
	"encoding/json"
	"time"
)

// Role names. Roles are created lazily on first registration that uses them.
const (
	RoleStartup  = "startup"
	RoleInvestor = "investor"
)

// User represents a user identity record.
// Timestamps use RFC3339 format in UTC timezone, e.g. "2024-03-07T15:04:05Z".
type User struct {
	ID string
	// Email is unique case-insensitively and stored normalized (lowercase,
	// trimmed).
	Email string
	// Handle is an opaque generated username.
	Handle   string
	Password string
	Phone    string
	// Verified gates resend/registration side effects. It does not gate
	// login by itself; IsActive does.
	Verified bool
	IsActive bool
	// VerificationNonce is the single-use value embedded in outstanding
	// email verification tokens. Empty means no token is consumable:
	// overwriting it supersedes all previously issued tokens, clearing it
	// consumes them.
	VerificationNonce string
	Staff             bool
	Created           time.Time
	Updated           time.Time
}

// StartupProfile belongs to exactly one user with the startup role.
type StartupProfile struct {
	ID          string
	UserID      string
	CompanyName string
	ShortPitch  string
	Website     string
}

// InvestorProfile belongs to exactly one user with the investor role.
type InvestorProfile struct {
	ID          string
	UserID      string
	CompanyName string
}

// Profile is the closed union over the two profile kinds. Exactly one of
// the two pointers is non-nil; Role names which.
type Profile struct {
	Role     string
	Startup  *StartupProfile
	Investor *InvestorProfile
}

// ID returns the profile id of whichever variant is set.
func (p *Profile) ID() string {
	switch {
	case p.Startup != nil:
		return p.Startup.ID
	case p.Investor != nil:
		return p.Investor.ID
	}
	return ""
}

// OwnerUserID returns the owning user id of whichever variant is set.
func (p *Profile) OwnerUserID() string {
	switch {
	case p.Startup != nil:
		return p.Startup.UserID
	case p.Investor != nil:
		return p.Investor.UserID
	}
	return ""
}

// CompanyName returns the display company name of whichever variant is set.
func (p *Profile) CompanyName() string {
	switch {
	case p.Startup != nil:
		return p.Startup.CompanyName
	case p.Investor != nil:
		return p.Investor.CompanyName
	}
	return ""
}

// Project is a funding entity owned by a startup profile. Monetary amounts
// are integer cents. FundedAt is zero until the first transition into the
// funded status and is never overwritten afterwards.
type Project struct {
	ID               string
	OwnerProfileID   string
	Title            string
	Description      string
	Status           string
	TargetAmount     int64
	RaisedAmount     int64
	AllowOverfunding bool
	FundedAt         time.Time
	Created          time.Time
	Updated          time.Time
}

// ResetAttempt is one row of the append-only password reset audit log.
// Rows are never mutated or deleted. UserID is empty when the requested
// email resolved to no user.
//
// TokenSent records that a reset email was scheduled on the job queue,
// not that SMTP delivery succeeded. Sending is deferred past the audit
// write, so delivery outcome is unknowable at insert time; the queue
// retries delivery independently.
type ResetAttempt struct {
	ID        int64
	UserID    string
	Email     string
	IP        string
	TokenSent bool
	Created   time.Time
}

// Job represents a job in the processing queue
type Job struct {
	ID           int64           `json:"id"`
	JobType      string          `json:"job_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       string          `json:"status"`
	Attempts     int             `json:"attempts"`
	MaxAttempts  int             `json:"max_attempts"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ScheduledFor time.Time       `json:"scheduled_for"`
	CompletedAt  time.Time       `json:"completed_at,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
}

// Job statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
