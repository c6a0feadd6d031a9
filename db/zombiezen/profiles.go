package zombiezen

import (
	"context"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/startupgate/startupgate/db"
)

// GetProfileByUserID returns the profile union for a user, checking the
// startup variant first. A nil profile with nil error means the user has no
// profile row at all (which CreateAccount makes impossible for accounts
// created through the API).
func (d *Db) GetProfileByUserID(userID string) (*db.Profile, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var profile *db.Profile
	err = sqlitex.Execute(conn,
		`SELECT id, user_id, company_name, short_pitch, website
		FROM startup_profiles WHERE user_id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				profile = &db.Profile{
					Role: db.RoleStartup,
					Startup: &db.StartupProfile{
						ID:          stmt.GetText("id"),
						UserID:      stmt.GetText("user_id"),
						CompanyName: stmt.GetText("company_name"),
						ShortPitch:  stmt.GetText("short_pitch"),
						Website:     stmt.GetText("website"),
					},
				}
				return nil
			},
			Args: []any{userID},
		})
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	err = sqlitex.Execute(conn,
		`SELECT id, user_id, company_name
		FROM investor_profiles WHERE user_id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				profile = &db.Profile{
					Role: db.RoleInvestor,
					Investor: &db.InvestorProfile{
						ID:          stmt.GetText("id"),
						UserID:      stmt.GetText("user_id"),
						CompanyName: stmt.GetText("company_name"),
					},
				}
				return nil
			},
			Args: []any{userID},
		})
	if err != nil {
		return nil, err
	}

	return profile, nil
}
