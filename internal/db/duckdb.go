// Package db exposes project markers to ad-hoc SQL through DuckDB.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

// MarkersTable is rebuilt from the session on every Load.
const MarkersTable = "markers"

// Config holds database configuration. An empty DataDir keeps the
// database in memory.
type Config struct {
	DataDir string
	DBName  string
}

func (c Config) dsn() (string, error) {
	if c.DataDir == "" {
		return "", nil
	}
	dir := filepath.Join(c.DataDir, "duckdb")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create duckdb directory: %w", err)
	}
	name := c.DBName
	if name == "" {
		name = "claimmap"
	}
	return filepath.Join(dir, name+".duckdb"), nil
}

// Analytics owns a DuckDB handle holding a copy of the markers.
type Analytics struct {
	mu sync.Mutex
	db *sql.DB
}

// Open connects to DuckDB.
func Open(cfg Config) (*Analytics, error) {
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// A single connection keeps an in-memory database shared.
	db.SetMaxOpenConns(1)
	return &Analytics{db: db}, nil
}

// Close closes the database connection.
func (a *Analytics) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

const createMarkers = `CREATE OR REPLACE TABLE markers (
	id VARCHAR PRIMARY KEY,
	type VARCHAR,
	level VARCHAR,
	lat DOUBLE,
	lng DOUBLE,
	location VARCHAR,
	date VARCHAR,
	parties VARCHAR,
	claim_filed BOOLEAN,
	premium_impact BOOLEAN,
	description VARCHAR,
	compensation DOUBLE
)`

const insertMarker = `INSERT INTO markers VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Load replaces the markers table with ms.
func (a *Analytics) Load(ctx context.Context, ms []marker.Marker) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load(ctx, ms)
}

func (a *Analytics) load(ctx context.Context, ms []marker.Marker) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createMarkers); err != nil {
		return fmt.Errorf("create markers table: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertMarker)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx,
			m.ID, string(m.Type), string(m.Level), m.Lat, m.Lng, m.Location, m.Date,
			m.Parties, m.ClaimFiled, m.PremiumImpact, m.Description, m.Compensation,
		); err != nil {
			return fmt.Errorf("insert %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// Result is a materialized query result.
type Result struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Query results"`
	Count   int              `json:"count" doc:"Number of rows returned"`
}

// Query loads ms and runs q against it.
func (a *Analytics) Query(ctx context.Context, ms []marker.Marker, q string) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.load(ctx, ms); err != nil {
		return Result{}, err
	}

	rows, err := a.db.QueryContext(ctx, q)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}
	res := Result{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	res.Count = len(res.Rows)
	return res, nil
}

// Tables lists tables in the database.
func (a *Analytics) Tables(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rows, err := a.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
