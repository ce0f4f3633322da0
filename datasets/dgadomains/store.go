package dgadomains

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/gkn1fexxx/clx/datasets"
)

const schema = `
CREATE TABLE IF NOT EXISTS domains (
	name       TEXT PRIMARY KEY,
	type       INTEGER NOT NULL,
	source     TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_domains_type ON domains (type);
`

// Store caches fetched feed records in a local SQLite database so training
// runs do not depend on the feed mirrors being up.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the domain database at path. The
// special path ":memory:" opens a throwaway in-memory database.
func OpenStore(path string) (*Store, error) {
	mem := path == ":memory:"
	if !mem {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "creating database directory")
			}
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if mem {
		// A pooled second connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "applying schema")
	}
	return &Store{db: db}, nil
}

// Upsert stores records under the given source label. Re-fetched domains keep
// a single row; the latest label and timestamp win.
func (s *Store) Upsert(ctx context.Context, recs []datasets.Record, source string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO domains (name, type, source, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			type = excluded.type,
			source = excluded.source,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return 0, errors.Wrap(err, "preparing upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.Domain, rec.Type, source, now); err != nil {
			return 0, errors.Wrapf(err, "upserting %q", rec.Domain)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing upsert")
	}
	return len(recs), nil
}

// Records returns every stored record ordered by domain name, so repeated
// reads of the same database produce the same sequence.
func (s *Store) Records(ctx context.Context) ([]datasets.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type FROM domains ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying domains")
	}
	defer rows.Close()

	var recs []datasets.Record
	for rows.Next() {
		var rec datasets.Record
		if err := rows.Scan(&rec.Domain, &rec.Type); err != nil {
			return nil, errors.Wrap(err, "scanning domain row")
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating domain rows")
	}
	return recs, nil
}

// Counts reports how many DGA and benign domains are stored.
func (s *Store) Counts(ctx context.Context) (dga, benign int, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM domains GROUP BY type`)
	if err != nil {
		return 0, 0, errors.Wrap(err, "counting domains")
	}
	defer rows.Close()

	for rows.Next() {
		var typ, n int
		if err := rows.Scan(&typ, &n); err != nil {
			return 0, 0, errors.Wrap(err, "scanning count row")
		}
		switch typ {
		case datasets.TypeDGA:
			dga = n
		case datasets.TypeBenign:
			benign = n
		}
	}
	return dga, benign, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
