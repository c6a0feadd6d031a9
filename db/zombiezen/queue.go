package zombiezen

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/startupgate/startupgate/db"
)

func newJobFromStmt(stmt *sqlite.Stmt) (*db.Job, error) {
	createdAt, err := db.TimeParse(stmt.GetText("created_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created_at time: %w", err)
	}
	updatedAt, err := db.TimeParse(stmt.GetText("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated_at time: %w", err)
	}
	scheduledFor, err := db.TimeParse(stmt.GetText("scheduled_for"))
	if err != nil {
		return nil, fmt.Errorf("error parsing scheduled_for time: %w", err)
	}

	return &db.Job{
		ID:           stmt.GetInt64("id"),
		JobType:      stmt.GetText("job_type"),
		Payload:      []byte(stmt.GetText("payload")),
		Status:       stmt.GetText("status"),
		Attempts:     int(stmt.GetInt64("attempts")),
		MaxAttempts:  int(stmt.GetInt64("max_attempts")),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		ScheduledFor: scheduledFor,
		LastError:    stmt.GetText("last_error"),
	}, nil
}

// InsertJob enqueues a deferred side effect. The (job_type, payload) unique
// constraint turns duplicate requests within a cooldown bucket into
// db.ErrConstraintUnique.
func (d *Db) InsertJob(job db.Job) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	maxAttempts := job.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO job_queue (job_type, payload, status, max_attempts)
		VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{job.JobType, string(job.Payload), db.StatusPending, maxAttempts},
		})
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

// Claim atomically flips up to limit due pending jobs to processing and
// returns them. A single UPDATE...RETURNING keeps concurrent schedulers
// from claiming the same job twice.
func (d *Db) Claim(limit int) ([]*db.Job, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var jobs []*db.Job
	err = sqlitex.Execute(conn,
		`UPDATE job_queue
		SET status = ?,
			attempts = attempts + 1,
			updated_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id IN (
			SELECT id FROM job_queue
			WHERE status = ? AND scheduled_for <= (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
			ORDER BY id LIMIT ?
		)
		RETURNING id, job_type, payload, status, attempts, max_attempts, created_at, updated_at, scheduled_for, last_error`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				job, err := newJobFromStmt(stmt)
				if err != nil {
					return err
				}
				jobs = append(jobs, job)
				return nil
			},
			Args: []any{db.StatusProcessing, db.StatusPending, limit},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to claim jobs: %w", err)
	}
	return jobs, nil
}

func (d *Db) MarkCompleted(jobID int64) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE job_queue
		SET status = ?,
			completed_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{db.StatusCompleted, jobID}})
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

// MarkFailed records the error and either re-queues the job or marks it
// failed permanently once attempts are exhausted.
func (d *Db) MarkFailed(jobID int64, errMsg string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE job_queue
		SET status = CASE WHEN attempts >= max_attempts THEN ? ELSE ? END,
			last_error = ?,
			updated_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{db.StatusFailed, db.StatusPending, errMsg, jobID}})
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}
