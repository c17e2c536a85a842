// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps successful extraction results in a SQLite database
// with an FTS5 index over terms and fallback text. The pipeline never
// reads from it; it serves the archive subcommands and offline review.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lexdef-engine/pkg/types"
)

const defaultMaxResults = 20

// Entry is one archived extraction result.
type Entry struct {
	ID                  string    `json:"id" yaml:"id"`
	RequestedIdentifier string    `json:"requested_identifier" yaml:"requested_identifier"`
	CanonicalIdentifier string    `json:"canonical_identifier" yaml:"canonical_identifier"`
	Term                string    `json:"term,omitempty" yaml:"term,omitempty"`
	Strategy            string    `json:"strategy" yaml:"strategy"`
	UsageTypes          []string  `json:"usage_types" yaml:"usage_types"`
	Potency             int       `json:"potency" yaml:"potency"`
	Valency             int       `json:"valency" yaml:"valency"`
	Concentration       int       `json:"concentration" yaml:"concentration"`
	Fallback            string    `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Coordinate          string    `json:"coordinate" yaml:"coordinate"`
	Links               []string  `json:"links" yaml:"links"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
}

// Store manages the archive database.
type Store struct {
	db         *sql.DB
	maxResults int
	now        func() time.Time
}

// NewStore opens or creates the archive database at cfg.Path and creates
// the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("archive path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{
		db:         db,
		maxResults: maxResults,
		now:        func() time.Time { return time.Now().UTC() },
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			canonical_identifier TEXT PRIMARY KEY,
			source_url TEXT,
			last_seen TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			requested_identifier TEXT NOT NULL,
			canonical_identifier TEXT NOT NULL REFERENCES documents(canonical_identifier),
			term TEXT,
			strategy TEXT NOT NULL,
			usage_types TEXT,
			potency INTEGER,
			valency INTEGER,
			concentration INTEGER,
			fallback TEXT,
			markdown TEXT,
			coordinate TEXT,
			links TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_canonical ON results(canonical_identifier)`,
		`CREATE INDEX IF NOT EXISTS idx_results_strategy ON results(strategy)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='results_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE results_fts USING fts5(term, fallback, markdown, content=results, content_rowid=rowid)`,
			`CREATE TRIGGER results_ai AFTER INSERT ON results BEGIN
				INSERT INTO results_fts(rowid, term, fallback, markdown)
				VALUES (new.rowid, new.term, new.fallback, new.markdown);
			END`,
			`CREATE TRIGGER results_ad AFTER DELETE ON results BEGIN
				INSERT INTO results_fts(results_fts, rowid, term, fallback, markdown)
				VALUES ('delete', old.rowid, old.term, old.fallback, old.markdown);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Record stores result, discarding the entry ID.
func (s *Store) Record(ctx context.Context, result *types.ExtractionResult) error {
	_, err := s.Insert(ctx, result)
	return err
}

// Insert stores result and returns its entry ID.
func (s *Store) Insert(ctx context.Context, result *types.ExtractionResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nil result")
	}
	loc := result.Location
	if loc.CanonicalIdentifier == "" {
		loc.CanonicalIdentifier = loc.RequestedIdentifier
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().Format(time.RFC3339Nano)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (canonical_identifier, source_url, last_seen) VALUES (?, ?, ?)
		 ON CONFLICT(canonical_identifier) DO UPDATE SET
			source_url=excluded.source_url, last_seen=excluded.last_seen`,
		loc.CanonicalIdentifier, loc.SourceURL, now,
	)
	if err != nil {
		return "", fmt.Errorf("upserting document: %w", err)
	}

	var term sql.NullString
	if result.Term != nil {
		term = sql.NullString{String: *result.Term, Valid: true}
	}
	usageJSON, _ := json.Marshal(nonNil(result.UsageTypes))
	linksJSON, _ := json.Marshal(nonNil(result.Links))

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO results (id, requested_identifier, canonical_identifier, term, strategy,
			usage_types, potency, valency, concentration, fallback, markdown, coordinate, links, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, loc.RequestedIdentifier, loc.CanonicalIdentifier, term, string(result.Strategy),
		string(usageJSON), result.Potency, result.Valency, result.Concentration,
		result.Fallback, result.Markdown, result.Coordinate, string(linksJSON), now,
	)
	if err != nil {
		return "", fmt.Errorf("inserting result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return id, nil
}

// Count returns the number of archived results.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
