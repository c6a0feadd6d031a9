package migrations

import (
	"embed"
	"fmt"
	"io/fs"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

//go:embed schema/**/*.sql
var schemaFS embed.FS

// Schema returns the embedded schema filesystem
func Schema() fs.FS {
	sub, err := fs.Sub(schemaFS, "schema")
	if err != nil {
		panic(err) // should never happen since we control the embed path
	}
	return sub
}

// Apply executes every embedded schema file on the given connection.
// Statements use IF NOT EXISTS, so applying to an existing database is a
// no-op.
func Apply(conn *sqlite.Conn) error {
	schema := Schema()
	return fs.WalkDir(schema, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		sql, err := fs.ReadFile(schema, path)
		if err != nil {
			return fmt.Errorf("read schema %s: %w", path, err)
		}
		if err := sqlitex.ExecuteScript(conn, string(sql), nil); err != nil {
			return fmt.Errorf("apply schema %s: %w", path, err)
		}
		return nil
	})
}
