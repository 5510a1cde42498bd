package workload

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"hashidx/utils"

	_ "github.com/mattn/go-sqlite3"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkTable(table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

// LoadSQLite reads (key, value) rows from table in rowid order. INTEGER columns
// carry the uint64 bit pattern as int64; TEXT columns hold hex with an optional 0x.
func LoadSQLite(ctx context.Context, path, table string) ([]Pair, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	// Pre-allocate to the exact row count
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}
	out := make([]Pair, 0, count)

	rows, err := db.QueryContext(ctx, "SELECT key, value FROM "+table+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rawKey, rawValue any
		if err := rows.Scan(&rawKey, &rawValue); err != nil {
			return nil, fmt.Errorf("scan %s row %d: %w", table, len(out)+1, err)
		}
		k, err := columnU64(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%s row %d key: %w", table, len(out)+1, err)
		}
		v, err := columnU64(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%s row %d value: %w", table, len(out)+1, err)
		}
		out = append(out, Pair{Key: k, Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func columnU64(v any) (uint64, error) {
	switch x := v.(type) {
	case int64:
		return uint64(x), nil
	case string:
		return hexU64([]byte(x))
	case []byte:
		return hexU64(x)
	case nil:
		return 0, fmt.Errorf("NULL column")
	}
	return 0, fmt.Errorf("unsupported column type %T", v)
}

func hexU64(b []byte) (uint64, error) {
	v, n := utils.ParseHexU64(b)
	body := len(b)
	if body >= 2 && b[0] == '0' && (b[1] == 'x' || b[1] == 'X') {
		body -= 2
	}
	if n == 0 || n != body {
		return 0, fmt.Errorf("malformed hex %q", b)
	}
	return v, nil
}

// SaveSQLite replaces table with pairs in one transaction.
func SaveSQLite(ctx context.Context, path, table string, pairs []Pair) error {
	if err := checkTable(table); err != nil {
		return err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE "+table+" (key INTEGER NOT NULL, value INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+table+" (key, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pairs {
		if _, err := stmt.ExecContext(ctx, int64(p.Key), int64(p.Value)); err != nil {
			return fmt.Errorf("insert key %d: %w", p.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
