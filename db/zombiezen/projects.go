package zombiezen

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/startupgate/startupgate/db"
)

func newProjectFromStmt(stmt *sqlite.Stmt) (*db.Project, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}
	updated, err := db.TimeParse(stmt.GetText("updated"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated time: %w", err)
	}
	fundedAt, err := db.TimeParse(stmt.GetText("funded_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing funded_at time: %w", err)
	}

	return &db.Project{
		ID:               stmt.GetText("id"),
		OwnerProfileID:   stmt.GetText("owner_profile_id"),
		Title:            stmt.GetText("title"),
		Description:      stmt.GetText("description"),
		Status:           stmt.GetText("status"),
		TargetAmount:     stmt.GetInt64("target_amount"),
		RaisedAmount:     stmt.GetInt64("raised_amount"),
		AllowOverfunding: stmt.GetInt64("allow_overfunding") != 0,
		FundedAt:         fundedAt,
		Created:          created,
		Updated:          updated,
	}, nil
}

const projectColumns = `id, owner_profile_id, title, description, status, target_amount, raised_amount, allow_overfunding, funded_at, created, updated`

func (d *Db) GetProjectById(id string) (*db.Project, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var project *db.Project
	err = sqlitex.Execute(conn,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				project, err = newProjectFromStmt(stmt)
				return err
			},
			Args: []any{id},
		})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (d *Db) CreateProject(p db.Project) (*db.Project, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var created db.Project
	err = sqlitex.Execute(conn,
		`INSERT INTO projects (id, owner_profile_id, title, description, status, target_amount, raised_amount, allow_overfunding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+projectColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				tempProject, err := newProjectFromStmt(stmt)
				if err == nil && tempProject != nil {
					created = *tempProject
				}
				return err
			},
			Args: []any{p.ID, p.OwnerProfileID, p.Title, p.Description, p.Status, p.TargetAmount, p.RaisedAmount, p.AllowOverfunding},
		})
	if err != nil {
		return nil, mapConstraintErr(err)
	}
	return &created, nil
}

// UpdateProjectStatus is a compare-and-set: the write only lands when the
// row still carries expectedStatus. funded_at is stamped only when it is
// currently empty, so it is set exactly once regardless of how the project
// reaches the funded state.
func (d *Db) UpdateProjectStatus(id, expectedStatus, newStatus string, fundedAt time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE projects
		SET status = ?,
			funded_at = CASE WHEN funded_at = '' AND ? != '' THEN ? ELSE funded_at END,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ? AND status = ?`,
		&sqlitex.ExecOptions{
			Args: []any{newStatus, db.TimeStamp(fundedAt), db.TimeStamp(fundedAt), id, expectedStatus},
		})
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	if conn.Changes() == 0 {
		return d.projectMissOrConflict(conn, id)
	}
	return nil
}

// UpdateProjectFunding sets raised_amount, and the status when newStatus is
// non-empty, with a compare-and-set on both the status and the raised
// amount the caller validated against. Two updates racing past the
// overfunding check cannot both land.
func (d *Db) UpdateProjectFunding(id, expectedStatus string, expectedRaised, newRaised int64, newStatus string, fundedAt time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE projects
		SET raised_amount = ?,
			status = CASE WHEN ? != '' THEN ? ELSE status END,
			funded_at = CASE WHEN funded_at = '' AND ? != '' THEN ? ELSE funded_at END,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ? AND status = ? AND raised_amount = ?`,
		&sqlitex.ExecOptions{
			Args: []any{newRaised, newStatus, newStatus, db.TimeStamp(fundedAt), db.TimeStamp(fundedAt), id, expectedStatus, expectedRaised},
		})
	if err != nil {
		return fmt.Errorf("failed to update raised amount: %w", err)
	}
	if conn.Changes() == 0 {
		return d.projectMissOrConflict(conn, id)
	}
	return nil
}

// projectMissOrConflict distinguishes a vanished row from a lost
// compare-and-set race after an update matched nothing.
func (d *Db) projectMissOrConflict(conn *sqlite.Conn, id string) error {
	var exists bool
	err := sqlitex.Execute(conn,
		`SELECT 1 FROM projects WHERE id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				exists = true
				return nil
			},
			Args: []any{id},
		})
	if err != nil {
		return err
	}
	if !exists {
		return db.ErrProjectNotFound
	}
	return db.ErrConflict
}
