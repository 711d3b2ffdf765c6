package rowstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoSuchTable is returned by LoadSQLite for a table that was never saved.
var ErrNoSuchTable = errors.New("no such table")

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rb_tables (
			name TEXT PRIMARY KEY,
			columns_json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rb_rows (
			table_name TEXT NOT NULL,
			pos INTEGER NOT NULL,
			cells_json TEXT NOT NULL,
			PRIMARY KEY (table_name, pos)
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// SaveSQLite writes each table's schema and rows, replacing what was stored
// under the same table names. Rows are stored in storage order.
func SaveSQLite(ctx context.Context, path string, tables ...*Table) error {
	db, err := openSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	for _, t := range tables {
		colsJSON, err := json.Marshal(t.cols)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO rb_tables(name, columns_json, updated_at_unixms) VALUES(?, ?, ?)`,
			t.name, string(colsJSON), nowMs); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rb_rows WHERE table_name = ?`, t.name); err != nil {
			return err
		}
		for pos, r := range t.rows {
			raw, err := encodeCells(t.cols, r.cells)
			if err != nil {
				return fmt.Errorf("encode %s[%d]: %w", t.name, pos, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO rb_rows(table_name, pos, cells_json) VALUES(?, ?, ?)`,
				t.name, pos, raw); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// LoadSQLite reads one table. Missing tables return ErrNoSuchTable.
func LoadSQLite(ctx context.Context, path, name string) (*Table, error) {
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var colsJSON string
	err = db.QueryRowContext(ctx, `SELECT columns_json FROM rb_tables WHERE name = ?`, name).Scan(&colsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", name, ErrNoSuchTable)
	}
	if err != nil {
		return nil, err
	}
	var cols []Column
	if err := json.Unmarshal([]byte(colsJSON), &cols); err != nil {
		return nil, fmt.Errorf("load %s columns: %w", name, err)
	}

	t := NewTable(name, cols...)
	rows, err := db.QueryContext(ctx, `SELECT cells_json FROM rb_rows WHERE table_name = ? ORDER BY pos`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		cells, err := decodeCells(cols, raw)
		if err != nil {
			return nil, fmt.Errorf("load %s[%d]: %w", name, len(t.rows), err)
		}
		t.rows = append(t.rows, &Row{table: t, cells: cells})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadOrCreate loads name from path, or returns fresh() when it was never saved.
func LoadOrCreate(ctx context.Context, path, name string, fresh func() *Table) (*Table, error) {
	t, err := LoadSQLite(ctx, path, name)
	if errors.Is(err, ErrNoSuchTable) {
		return fresh(), nil
	}
	return t, err
}

func encodeCells(cols []Column, cells []any) (string, error) {
	out := make([]any, len(cells))
	for i, v := range cells {
		if tv, ok := v.(time.Time); ok && i < len(cols) && cols[i].Type == TypeTime {
			out[i] = tv.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[i] = v
	}
	b, err := json.Marshal(out)
	return string(b), err
}

func decodeCells(cols []Column, raw string) ([]any, error) {
	var in []any
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, err
	}
	cells := make([]any, len(cols))
	for i := range cols {
		if i >= len(in) || in[i] == nil {
			continue
		}
		v := in[i]
		switch cols[i].Type {
		case TypeTime:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %s: %w", cols[i].Name, ErrTypeMismatch)
			}
			tv, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", cols[i].Name, err)
			}
			cells[i] = tv
		case TypeInt:
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("column %s: %w", cols[i].Name, ErrTypeMismatch)
			}
			cells[i] = int(f)
		default:
			if !cols[i].Type.accepts(v) {
				return nil, fmt.Errorf("column %s: %w", cols[i].Name, ErrTypeMismatch)
			}
			cells[i] = v
		}
	}
	return cells, nil
}
