// Package db provides the persistence layer used by the application. It wraps
// a SQLite database and stores the history of pipeline runs so results can be
// looked up again after the request that produced them. Callers are expected
// to open a single DB instance using New and reuse it for all operations.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultListLimit is the number of runs ListRuns returns when no limit is
// given.
const DefaultListLimit = 20

// DB wraps a sql.DB connection and exposes helper methods for the
// application's persistence layer.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path. If the file does not
// exist it is created along with the required schema.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every connection to :memory: opens a fresh database.
		d.SetMaxOpenConns(1)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (id TEXT PRIMARY KEY, created_at TIMESTAMP NOT NULL, input TEXT NOT NULL, output TEXT NOT NULL, report TEXT NOT NULL)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}
	// Errors here likely mean the database file is not writable.
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}

// Run is a stored pipeline run. Input, Output and Report hold the JSON
// documents exactly as they were saved.
type Run struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output"`
	Report    json.RawMessage `json:"report"`
}

// NewRun encodes the parts of a run as JSON documents and stamps it with the
// current time.
func NewRun(id string, input, output, report any) (Run, error) {
	r := Run{ID: id, CreatedAt: time.Now().UTC()}
	var err error
	if r.Input, err = json.Marshal(input); err != nil {
		return Run{}, fmt.Errorf("encode input: %w", err)
	}
	if r.Output, err = json.Marshal(output); err != nil {
		return Run{}, fmt.Errorf("encode output: %w", err)
	}
	if r.Report, err = json.Marshal(report); err != nil {
		return Run{}, fmt.Errorf("encode report: %w", err)
	}
	return r, nil
}

// SaveRun stores a run. Saving the same ID twice is an error.
func (db *DB) SaveRun(ctx context.Context, r Run) error {
	_, err := db.ExecContext(ctx, `INSERT INTO runs(id, created_at, input, output, report) VALUES(?,?,?,?,?)`,
		r.ID, r.CreatedAt.UTC(), string(r.Input), string(r.Output), string(r.Report))
	return err
}

// GetRun looks up a run by ID. sql.ErrNoRows is returned if the ID does not
// exist which allows callers to respond with a 404.
func (db *DB) GetRun(ctx context.Context, id string) (Run, error) {
	row := db.QueryRowContext(ctx, `SELECT id, created_at, input, output, report FROM runs WHERE id=?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// selects DefaultListLimit.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.QueryContext(ctx, `SELECT id, created_at, input, output, report FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	// rows.Err returns the first error encountered while iterating.
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	var input, output, report string
	if err := s.Scan(&r.ID, &r.CreatedAt, &input, &output, &report); err != nil {
		return Run{}, err
	}
	r.Input = json.RawMessage(input)
	r.Output = json.RawMessage(output)
	r.Report = json.RawMessage(report)
	return r, nil
}
