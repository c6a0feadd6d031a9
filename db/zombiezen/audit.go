package zombiezen

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/startupgate/startupgate/db"
)

// InsertResetAttempt appends one row to the password reset audit log. One
// row per request regardless of outcome; the table has no update path.
func (d *Db) InsertResetAttempt(a db.ResetAttempt) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO password_reset_attempts (user_id, email, ip, token_sent)
		VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{a.UserID, a.Email, a.IP, a.TokenSent}})
	if err != nil {
		return fmt.Errorf("failed to insert reset attempt: %w", err)
	}
	return nil
}
