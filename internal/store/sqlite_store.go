// Package store persists test records in SQLite. Records are create-once,
// read-many: there is no update or delete path, so concurrent writers are
// always independent inserts.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
	"github.com/accessify/insight/internal/urlutil"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound reports a lookup for an id that has no record. It is a valid
// empty outcome, not a store failure.
var ErrNotFound = errors.New("test record not found")

// SQLiteStore implements record persistence over database/sql with the
// modernc SQLite driver.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (or creates) the SQLite database at path, applies the schema
// and verifies connectivity. Callers treat an error here as fatal at
// process startup.
func Open(path string, logger logging.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	s, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle and applies the schema.
func New(db *sql.DB, logger logging.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("store: nil database handle")
	}
	if logger == nil {
		logger = logging.Discard{}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create persists a new record, assigning its id and creation timestamp
// exactly once. The input must not carry either already.
func (s *SQLiteStore) Create(ctx context.Context, rec *model.TestRecord) (*model.TestRecord, error) {
	if rec == nil {
		return nil, errors.New("record cannot be nil")
	}
	if rec.ID != "" || !rec.CreatedAt.IsZero() {
		return nil, errors.New("record already has store-assigned fields")
	}
	if rec.URL == "" {
		return nil, errors.New("record url is required")
	}
	if rec.Kind == "" {
		return nil, errors.New("record kind is required")
	}

	stored := *rec
	stored.ID = uuid.New().String()
	// Millisecond precision matches what the created_at column can hold, so
	// a created record reads back exactly as returned here.
	stored.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	doc, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO test_records (id, url, url_key, kind, created_at, doc)
		VALUES (?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.URL, urlutil.Canonical(stored.URL), string(stored.Kind),
		stored.CreatedAt.UnixMilli(), string(doc))
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	s.logger.Info("record created",
		logging.Field{Key: "id", Value: stored.ID},
		logging.Field{Key: "url", Value: stored.URL},
		logging.Field{Key: "kind", Value: stored.Kind})
	return &stored, nil
}

// GetByID returns one record, normalized to the current shape, or
// ErrNotFound.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*model.TestRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, kind, created_at, doc
		FROM test_records
		WHERE id = ?
		LIMIT 1
	`, id)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query record %s: %w", id, err)
	}
	return rec, nil
}

// FindByURL returns up to limit records whose canonical URL contains the
// canonical form of url, most recent first. An empty result is not an
// error.
func (s *SQLiteStore) FindByURL(ctx context.Context, url string, limit int) ([]*model.TestRecord, error) {
	return s.find(ctx, urlutil.Canonical(url), limit)
}

// FindRecent returns up to limit records regardless of URL, most recent
// first.
func (s *SQLiteStore) FindRecent(ctx context.Context, limit int) ([]*model.TestRecord, error) {
	return s.find(ctx, "", limit)
}

func (s *SQLiteStore) find(ctx context.Context, urlKey string, limit int) ([]*model.TestRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, kind, created_at, doc
		FROM test_records
		WHERE (? = '' OR instr(url_key, ?) > 0)
		ORDER BY created_at DESC
		LIMIT ?
	`, urlKey, urlKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []*model.TestRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// scanRecord reads one row and normalizes its document. The indexed
// columns win over whatever the document says for the immutable fields.
func scanRecord(scan func(...any) error) (*model.TestRecord, error) {
	var (
		id, url, kind, doc string
		createdAt          int64
	)
	if err := scan(&id, &url, &kind, &createdAt, &doc); err != nil {
		return nil, err
	}

	rec, err := NormalizeDocument([]byte(doc))
	if err != nil {
		return nil, err
	}
	rec.ID = id
	rec.URL = url
	rec.Kind = model.Kind(kind)
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return rec, nil
}
