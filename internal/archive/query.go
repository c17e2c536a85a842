// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// QueryOptions holds parameters for archive queries.
type QueryOptions struct {
	// Query is an FTS5 full-text search over term, fallback and markdown.
	Query string

	// Strategy filters by the cascade strategy that produced the result.
	Strategy string

	// Identifier filters by canonical identifier.
	Identifier string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Search queries the archive. Full-text queries are ranked by relevance;
// structured-only queries return the newest results first.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	const columns = `r.id, r.requested_identifier, r.canonical_identifier, r.term, r.strategy,
		r.usage_types, r.potency, r.valency, r.concentration, r.fallback,
		r.coordinate, r.links, r.created_at`

	if useFTS {
		qb.WriteString(`SELECT ` + columns + `
			FROM results_fts
			JOIN results r ON r.rowid = results_fts.rowid
			WHERE results_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + columns + `
			FROM results r
			WHERE 1=1`)
	}

	if opts.Strategy != "" {
		qb.WriteString(` AND r.strategy = ?`)
		args = append(args, opts.Strategy)
	}

	if opts.Identifier != "" {
		qb.WriteString(` AND r.canonical_identifier = ?`)
		args = append(args, opts.Identifier)
	}

	if useFTS {
		qb.WriteString(` ORDER BY results_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.rowid DESC`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			term      sql.NullString
			fallback  sql.NullString
			usageJSON sql.NullString
			linksJSON sql.NullString
			created   string
		)

		if err := rows.Scan(
			&e.ID, &e.RequestedIdentifier, &e.CanonicalIdentifier, &term, &e.Strategy,
			&usageJSON, &e.Potency, &e.Valency, &e.Concentration, &fallback,
			&e.Coordinate, &linksJSON, &created,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		e.Term = term.String
		e.Fallback = fallback.String
		e.UsageTypes = []string{}
		e.Links = []string{}
		if usageJSON.Valid {
			json.Unmarshal([]byte(usageJSON.String), &e.UsageTypes)
		}
		if linksJSON.Valid {
			json.Unmarshal([]byte(linksJSON.String), &e.Links)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Recent returns the newest limit results. A non-positive limit uses the
// store default.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.Search(ctx, QueryOptions{MaxResults: limit})
}
