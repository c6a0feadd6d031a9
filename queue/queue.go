package queue

import "time"

// Job types
const (
	JobTypeEmailVerification = "job_type_email_verification"
	JobTypePasswordReset     = "job_type_password_reset"
)

// PayloadEmailVerification is the payload for verification email jobs.
// CooldownBucket makes the payload unique per time window, so the
// (job_type, payload) constraint in the queue table deduplicates
// requests arriving inside the same window.
type PayloadEmailVerification struct {
	Email          string `json:"email"`
	CooldownBucket int    `json:"cooldown_bucket"`
}

// PayloadPasswordReset is the payload for password reset email jobs.
type PayloadPasswordReset struct {
	Email          string `json:"email"`
	CooldownBucket int    `json:"cooldown_bucket"`
}

// CoolDownBucket returns the number of complete duration periods since
// the Unix epoch for t. All times inside the same period map to the
// same bucket, which turns the queue's (job_type, payload) unique
// constraint into a per-window rate limit: only one job per email per
// bucket can exist.
//
// A request near the end of a bucket can be followed by another one
// shortly after the bucket rolls over. That is accepted slack, the
// mechanism bounds the average rate, not the minimum gap.
//
// Panics if duration is zero or negative.
func CoolDownBucket(duration time.Duration, t time.Time) int {
	if duration <= 0 {
		panic("duration must be positive")
	}

	return int(t.Unix() / int64(duration.Seconds()))
}
