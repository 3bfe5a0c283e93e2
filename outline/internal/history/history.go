// Package history records rendered outlines in SQLite so an agent run can be
// replayed or audited after the fact.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/domoutline/idgen"
)

// Schema is the DDL for the renders table.
const Schema = `
CREATE TABLE IF NOT EXISTS renders (
    id          TEXT PRIMARY KEY,
    source      TEXT NOT NULL,
    page_url    TEXT NOT NULL DEFAULT '',
    title       TEXT NOT NULL DEFAULT '',
    outline     TEXT NOT NULL,
    index_map   TEXT NOT NULL DEFAULT '{}',
    node_count  INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_renders_created ON renders(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_renders_url ON renders(page_url) WHERE page_url != '';
`

// ErrNotFound is returned by Get for an unknown record.
var ErrNotFound = errors.New("history: record not found")

// Record is one stored render.
type Record struct {
	ID        string      `json:"id"`
	Source    string      `json:"source"` // "html" or "snapshot"
	PageURL   string      `json:"page_url,omitempty"`
	Title     string      `json:"title,omitempty"`
	Outline   string      `json:"outline"`
	IndexMap  map[int]int `json:"index_map"`
	NodeCount int         `json:"node_count"`
	CreatedAt int64       `json:"created_at"`
}

// Recorder writes and reads Records.
type Recorder struct {
	DB    *sql.DB
	NewID idgen.Generator
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Recorder, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Recorder{DB: db, NewID: idgen.Capture}, nil
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.DB.Close()
}

// Record stores rec, filling ID and CreatedAt when unset.
func (r *Recorder) Record(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		gen := r.NewID
		if gen == nil {
			gen = idgen.Capture
		}
		rec.ID = gen()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixMilli()
	}
	idx, err := json.Marshal(rec.IndexMap)
	if err != nil {
		return fmt.Errorf("history: marshal index map: %w", err)
	}
	if rec.IndexMap == nil {
		idx = []byte("{}")
	}
	err = execRetry(ctx, r.DB, `
		INSERT INTO renders (id, source, page_url, title, outline, index_map, node_count, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Source, rec.PageURL, rec.Title, rec.Outline, string(idx), rec.NodeCount, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

const selectRecord = `
	SELECT id, source, page_url, title, outline, index_map, node_count, created_at
	FROM renders`

// Get returns the record with the given id, or ErrNotFound.
func (r *Recorder) Get(ctx context.Context, id string) (*Record, error) {
	row := r.DB.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("history: get: %w", err)
	}
	return rec, nil
}

// List returns the most recent records, newest first. limit <= 0 means 50.
func (r *Recorder) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, selectRecord+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("history: list: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var idx string
	if err := s.Scan(&rec.ID, &rec.Source, &rec.PageURL, &rec.Title, &rec.Outline,
		&idx, &rec.NodeCount, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(idx), &rec.IndexMap); err != nil {
		return nil, fmt.Errorf("index map of %s: %w", rec.ID, err)
	}
	return rec, nil
}
