package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/tripnest/catalog/internal/domain"
)

var (
	// ErrNotFound is returned when no listing has the requested id.
	ErrNotFound = errors.New("listing not found")
	// ErrDuplicate is returned by Create when the id is already taken.
	ErrDuplicate = errors.New("listing already exists")
)

// SQLiteStore keeps raw listing records as JSON documents, one row per
// (domain, id). Rows are listed in insertion order.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	const createTable = `
CREATE TABLE IF NOT EXISTS listings (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  domain TEXT NOT NULL,
  id TEXT NOT NULL,
  raw_json TEXT NOT NULL DEFAULT '{}',
  created_at TEXT NOT NULL,
  UNIQUE (domain, id)
);
`
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create listings table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_listings_domain ON listings(domain, seq);`); err != nil {
		return fmt.Errorf("create listings index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context, d domain.Domain) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings WHERE domain = ?`, string(d)).Scan(&n)
	return n, err
}

// UpsertMany inserts a dataset without duplicating by id. Records without an
// id get a generated one.
func (s *SQLiteStore) UpsertMany(ctx context.Context, d domain.Domain, items []domain.RawRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO listings (domain, id, raw_json, created_at)
VALUES (?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, raw := range items {
		raw = withID(raw)
		b, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", d, raw.ID(), err)
		}
		if _, err := stmt.ExecContext(ctx, string(d), raw.ID(), string(b), now); err != nil {
			return fmt.Errorf("insert %s %s: %w", d, raw.ID(), err)
		}
	}
	return tx.Commit()
}

// Create stores one record and returns it with its final id.
func (s *SQLiteStore) Create(ctx context.Context, d domain.Domain, raw domain.RawRecord) (domain.RawRecord, error) {
	raw = withID(raw)
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", d, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO listings (domain, id, raw_json, created_at)
VALUES (?, ?, ?, ?)
`, string(d), raw.ID(), string(b), time.Now().UTC().Format(time.RFC3339Nano))
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return nil, fmt.Errorf("insert %s %s: %w", d, raw.ID(), ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("insert %s %s: %w", d, raw.ID(), err)
	}
	return raw, nil
}

// Delete removes one listing and returns ErrNotFound when there was none.
func (s *SQLiteStore) Delete(ctx context.Context, d domain.Domain, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE domain = ? AND id = ?`, string(d), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", d, id, err)
	}
	if aff, err := res.RowsAffected(); err == nil && aff == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, d domain.Domain, id string) (domain.RawRecord, error) {
	var rawJSON string
	err := s.db.QueryRowContext(ctx, `
SELECT raw_json FROM listings WHERE domain = ? AND id = ?
`, string(d), id).Scan(&rawJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRaw(rawJSON), nil
}

// List returns every record of d in insertion order.
func (s *SQLiteStore) List(ctx context.Context, d domain.Domain) ([]domain.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT raw_json FROM listings
WHERE domain = ?
ORDER BY seq
`, string(d))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RawRecord, 0)
	for rows.Next() {
		var rawJSON string
		if err := rows.Scan(&rawJSON); err != nil {
			return nil, err
		}
		out = append(out, decodeRaw(rawJSON))
	}
	return out, rows.Err()
}

// decodeRaw tolerates corrupt rows: they come back as empty records and the
// normalizer fills them with defaults.
func decodeRaw(s string) domain.RawRecord {
	raw := domain.RawRecord{}
	_ = json.Unmarshal([]byte(s), &raw)
	return raw
}

func withID(raw domain.RawRecord) domain.RawRecord {
	out := make(domain.RawRecord, len(raw)+1)
	for k, v := range raw {
		out[k] = v
	}
	if id := raw.ID(); id != "" {
		out["id"] = id
	} else {
		out["id"] = uuid.NewString()
	}
	return out
}
