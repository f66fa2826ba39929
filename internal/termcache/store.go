package termcache

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/medresolve/medkb-go/internal/apptype"
)

var schema = []string{
	// One row per concept the terminology service has been asked about,
	// including concepts that turned out to have no definitions.
	`CREATE TABLE IF NOT EXISTS cached_concepts (
        cui TEXT PRIMARY KEY,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`,

	`CREATE TABLE IF NOT EXISTS definitions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        cui TEXT NOT NULL,
        source TEXT NOT NULL,
        content TEXT NOT NULL,
        FOREIGN KEY (cui) REFERENCES cached_concepts(cui)
    )`,

	`CREATE INDEX IF NOT EXISTS idx_definitions_cui ON definitions(cui)`,
}

// Store is a libsql-backed definition cache that survives across sessions.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the cache database at url. Plain file paths
// are accepted and prefixed with file:.
func NewStore(url string) (*Store, error) {
	if url == "" {
		return nil, fmt.Errorf("cache path cannot be empty")
	}
	if len(url) < 5 || url[:5] != "file:" {
		url = "file:" + url
	}

	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("open definition cache: %w", err)
	}

	if err := initialize(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize definition cache: %w", err)
	}

	return &Store{db: db}, nil
}

func initialize(db *sql.DB) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for initialization: %w", err)
	}
	defer tx.Rollback()

	for _, statement := range schema {
		if _, err := tx.Exec(statement); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return tx.Commit()
}

// GetDefinitions returns the cached definitions for cui. The second return
// reports whether the concept has been cached at all, so a concept known
// to have zero definitions still hits.
func (s *Store) GetDefinitions(ctx context.Context, cui string) ([]apptype.Definition, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT cui FROM cached_concepts WHERE cui = ?", cui)
	var cached string
	if err := row.Scan(&cached); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("check cached concept %q: %w", cui, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT source, content FROM definitions WHERE cui = ? ORDER BY id", cui)
	if err != nil {
		return nil, false, fmt.Errorf("query definitions for %q: %w", cui, err)
	}
	defer rows.Close()

	var defs []apptype.Definition
	for rows.Next() {
		var d apptype.Definition
		if err := rows.Scan(&d.Source, &d.Text); err != nil {
			return nil, false, fmt.Errorf("scan definition for %q: %w", cui, err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate definitions for %q: %w", cui, err)
	}

	return defs, true, nil
}

// PutDefinitions replaces the cached definitions for cui.
func (s *Store) PutDefinitions(ctx context.Context, cui string, defs []apptype.Definition) error {
	if cui == "" {
		return fmt.Errorf("cui cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO cached_concepts (cui) VALUES (?) ON CONFLICT(cui) DO NOTHING", cui); err != nil {
		return fmt.Errorf("mark concept %q cached: %w", cui, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM definitions WHERE cui = ?", cui); err != nil {
		return fmt.Errorf("clear stale definitions for %q: %w", cui, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO definitions (cui, source, content) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range defs {
		if _, err := stmt.ExecContext(ctx, cui, d.Source, d.Text); err != nil {
			return fmt.Errorf("insert definition for %q: %w", cui, err)
		}
	}

	return tx.Commit()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
