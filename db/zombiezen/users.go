package zombiezen

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/startupgate/startupgate/db"
)

// newUserFromStmt creates a User struct from a SQLite statement
func newUserFromStmt(stmt *sqlite.Stmt) (*db.User, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}

	updated, err := db.TimeParse(stmt.GetText("updated"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated time: %w", err)
	}

	return &db.User{
		ID:                stmt.GetText("id"),
		Email:             stmt.GetText("email"),
		Handle:            stmt.GetText("handle"),
		Password:          stmt.GetText("password"),
		Phone:             stmt.GetText("phone"),
		Verified:          stmt.GetInt64("verified") != 0,
		IsActive:          stmt.GetInt64("is_active") != 0,
		VerificationNonce: stmt.GetText("verification_nonce"),
		Staff:             stmt.GetInt64("staff") != 0,
		Created:           created,
		Updated:           updated,
	}, nil
}

const userColumns = `id, email, handle, password, phone, verified, is_active, verification_nonce, staff, created, updated`

// GetUserByEmail retrieves a user by email address. The email column uses
// COLLATE NOCASE, so the match is case-insensitive.
// A nil user with nil error indicates no matching record was found.
func (d *Db) GetUserByEmail(email string) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var user *db.User
	err = sqlitex.Execute(conn,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				user, err = newUserFromStmt(stmt)
				return err
			},
			Args: []any{email},
		})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (d *Db) GetUserById(id string) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var user *db.User
	err = sqlitex.Execute(conn,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				user, err = newUserFromStmt(stmt)
				return err
			},
			Args: []any{id},
		})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// CreateAccount inserts the user, the role (created on first use), the
// user-role link and exactly one profile inside a single transaction.
// A failure at any step rolls back everything: no orphaned login-capable
// account without a profile can exist afterwards.
func (d *Db) CreateAccount(user db.User, roleName string, profile db.Profile) (result *db.User, err error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	defer sqlitex.Save(conn)(&err)

	var created db.User
	err = sqlitex.Execute(conn,
		`INSERT INTO users (id, email, handle, password, phone, verified, is_active, verification_nonce, staff)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', 0)
		RETURNING `+userColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				tempUser, err := newUserFromStmt(stmt)
				if err == nil && tempUser != nil {
					created = *tempUser
				}
				return err
			},
			Args: []any{user.ID, user.Email, user.Handle, user.Password, user.Phone, user.Verified, user.IsActive},
		})
	if err != nil {
		return nil, mapConstraintErr(err)
	}

	roleID, err := getOrCreateRole(conn, roleName)
	if err != nil {
		return nil, err
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)`,
		&sqlitex.ExecOptions{Args: []any{created.ID, roleID}})
	if err != nil {
		return nil, err
	}

	switch {
	case profile.Startup != nil:
		p := profile.Startup
		err = sqlitex.Execute(conn,
			`INSERT INTO startup_profiles (id, user_id, company_name, short_pitch, website) VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{p.ID, created.ID, p.CompanyName, p.ShortPitch, p.Website}})
	case profile.Investor != nil:
		p := profile.Investor
		err = sqlitex.Execute(conn,
			`INSERT INTO investor_profiles (id, user_id, company_name) VALUES (?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{p.ID, created.ID, p.CompanyName}})
	default:
		err = fmt.Errorf("account requires exactly one profile variant")
	}
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func getOrCreateRole(conn *sqlite.Conn, name string) (int64, error) {
	err := sqlitex.Execute(conn,
		`INSERT INTO roles (name) VALUES (?) ON CONFLICT (name) DO NOTHING`,
		&sqlitex.ExecOptions{Args: []any{name}})
	if err != nil {
		return 0, err
	}

	var id int64
	err = sqlitex.Execute(conn,
		`SELECT id FROM roles WHERE name = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id = stmt.GetInt64("id")
				return nil
			},
			Args: []any{name},
		})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetUserRole returns the first role associated with the user, or "" when
// the user has none.
func (d *Db) GetUserRole(userID string) (string, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return "", err
	}
	defer d.pool.Put(conn)

	var name string
	err = sqlitex.Execute(conn,
		`SELECT r.name AS name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY ur.rowid LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				name = stmt.GetText("name")
				return nil
			},
			Args: []any{userID},
		})
	if err != nil {
		return "", err
	}
	return name, nil
}

// SetVerificationNonce overwrites the nonce, invalidating any outstanding
// verification tokens that embedded the previous value.
func (d *Db) SetVerificationNonce(userID, nonce string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET verification_nonce = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{nonce, userID}})
	if err != nil {
		return fmt.Errorf("failed to set verification nonce: %w", err)
	}
	if conn.Changes() == 0 {
		return db.ErrUserNotFound
	}
	return nil
}

// MarkVerified flips verified and is_active and clears the nonce in one
// statement, so the consumed token cannot be replayed.
func (d *Db) MarkVerified(userID string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET verified = 1,
			is_active = 1,
			verification_nonce = '',
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{userID}})
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	if conn.Changes() == 0 {
		return db.ErrUserNotFound
	}
	return nil
}

func (d *Db) UpdatePassword(userID string, newPassword string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET password = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{newPassword, userID}})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if conn.Changes() == 0 {
		return db.ErrUserNotFound
	}
	return nil
}

// mapConstraintErr converts sqlite unique violations to db.ErrConstraintUnique.
func mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	switch sqlite.ErrCode(err) {
	case sqlite.ResultConstraintUnique, sqlite.ResultConstraintPrimaryKey:
		return db.ErrConstraintUnique
	}
	return err
}
