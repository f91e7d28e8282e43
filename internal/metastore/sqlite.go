package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"paperkb/internal/model"
)

// SQLiteStore keeps one row per ingested document: the relational side of
// the knowledge base next to the vector index.
type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return err
	}

	schema := `
CREATE TABLE IF NOT EXISTS documents (
  filename TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  zotero_key TEXT NOT NULL DEFAULT '',
  chunk_count INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'indexed',
  indexed_unix INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) UpsertDocument(ctx context.Context, rec model.DocumentRecord) error {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(
		ctx,
		`INSERT INTO documents(filename, title, zotero_key, chunk_count, status, indexed_unix)
		 VALUES(?, ?, ?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
		   title=excluded.title,
		   zotero_key=excluded.zotero_key,
		   chunk_count=excluded.chunk_count,
		   status=excluded.status,
		   indexed_unix=excluded.indexed_unix`,
		rec.Filename,
		rec.Title,
		rec.ZoteroKey,
		rec.ChunkCount,
		defaultIfEmpty(rec.Status, "indexed"),
		rec.IndexedUnix,
	)
	return err
}

func (s *SQLiteStore) GetDocumentByFilename(ctx context.Context, filename string) (model.DocumentRecord, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return model.DocumentRecord{}, err
	}

	var rec model.DocumentRecord
	row := db.QueryRowContext(
		ctx,
		`SELECT filename, title, zotero_key, chunk_count, status, indexed_unix
		 FROM documents WHERE filename = ?`,
		filename,
	)
	if err := row.Scan(&rec.Filename, &rec.Title, &rec.ZoteroKey, &rec.ChunkCount, &rec.Status, &rec.IndexedUnix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DocumentRecord{}, fmt.Errorf("document %s: %w", filename, model.ErrNotFound)
		}
		return model.DocumentRecord{}, err
	}
	return rec, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]model.DocumentRecord, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(
		ctx,
		`SELECT filename, title, zotero_key, chunk_count, status, indexed_unix
		 FROM documents ORDER BY filename`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DocumentRecord
	for rows.Next() {
		var rec model.DocumentRecord
		if err := rows.Scan(&rec.Filename, &rec.Title, &rec.ZoteroKey, &rec.ChunkCount, &rec.Status, &rec.IndexedUnix); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) ensureDB(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db != nil {
		return db, nil
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db, nil
}

func defaultIfEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
