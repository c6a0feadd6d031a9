package zombiezen

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/startupgate/startupgate/crypto"
	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/migrations"
)

type Db struct {
	pool *sqlitex.Pool
}

// Verify interface implementations
var _ db.DbApp = (*Db)(nil)

// New opens (or creates) the database at path, applies the schema and
// returns the Db. Use ":memory:" for an ephemeral database in tests.
func New(path string) (*Db, error) {
	uri := path
	if path == ":memory:" {
		// A pool over a plain :memory: URI would give every connection its
		// own empty database. The random name keeps separate New calls from
		// sharing one in-memory database.
		uri = fmt.Sprintf("file:mem%s?mode=memory&cache=shared", crypto.RandomHex(8))
	}

	pool, err := sqlitex.NewPool(uri, sqlitex.PoolOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite pool: %w", err)
	}

	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, err
	}
	err = migrations.Apply(conn)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Db{pool: pool}, nil
}

// NewWithPool wraps an externally managed pool. The schema must already be
// in place; the pool is not closed by this Db.
func NewWithPool(pool *sqlitex.Pool) (*Db, error) {
	if pool == nil {
		return nil, fmt.Errorf("provided pool cannot be nil")
	}
	return &Db{pool: pool}, nil
}

func (d *Db) Close() error {
	return d.pool.Close()
}
