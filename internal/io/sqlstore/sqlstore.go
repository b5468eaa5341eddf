// Package sqlstore persists a security-master bundle through SQLite,
// using the embedded, cgo-free driver so the CLI binary has no native
// dependency.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"

	"github.com/hedgineer/secmaster/internal/factmodel"
	"github.com/hedgineer/secmaster/internal/io/columnar"
)

func init() {
	cacheDir := ""
	if userCache, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(userCache, "secmaster", "wasm")
	}

	var cache wazero.CompilationCache
	if cacheDir != "" {
		if c, err := wazero.NewCompilationCacheWithDir(cacheDir); err == nil {
			cache = c
		}
	}
	if cache == nil {
		cache = wazero.NewCompilationCache()
	}
	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)
}

// Store wraps a SQLite connection holding a single master table.
type Store struct {
	db *sql.DB
}

// Open connects to (creating if necessary) the SQLite database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("sqlstore: create directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(30000)")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// WriteTable creates tableName if absent, with a composite primary key on
// (subject_id, effective_start_date) per spec.md §6, then upserts every
// row of sm inside a single transaction.
func (s *Store) WriteTable(ctx context.Context, tableName string, sm *factmodel.Bundle) error {
	ddl, err := buildCreateTable(tableName, sm)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlstore: create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sm.Header)), ",")
	columns := strings.Join(sm.Header, ", ")
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(subject_id, effective_start_date) DO UPDATE SET %s",
		tableName, columns, placeholders, conflictUpdateClause(sm.Header),
	)

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("sqlstore: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range sm.Rows {
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = sqlArg(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("sqlstore: upsert row: %w", err)
		}
	}

	return tx.Commit()
}

// TableExists reports whether tableName is present in the database, so
// callers can distinguish "empty state" from "nothing persisted yet".
func (s *Store) TableExists(ctx context.Context, tableName string) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", tableName,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlstore: check table: %w", err)
	}
	return true, nil
}

// TableHeader recovers tableName's column order via PRAGMA table_info, so
// ReadTable can be called without the caller already knowing the header.
func (s *Store) TableHeader(ctx context.Context, tableName string) (factmodel.Header, error) {
	rows, err := s.tableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}
	header := make(factmodel.Header, len(rows))
	for i, r := range rows {
		header[i] = r.name
	}
	return header, nil
}

type columnInfo struct {
	name    string
	sqlType string
}

func (s *Store) tableInfo(ctx context.Context, tableName string) ([]columnInfo, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: table_info: %w", err)
	}
	defer rows.Close()

	var out []columnInfo
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("sqlstore: scan table_info: %w", err)
		}
		out = append(out, columnInfo{name: name, sqlType: colType})
	}
	return out, rows.Err()
}

// ReadTable reconstructs a bundle from tableName, ordered by subject_id and
// then by effective_start_date (stored as MM/DD/YY text, so the order key
// is the YY part followed by the MM/DD part), which yields I1/I2 ordering.
func (s *Store) ReadTable(ctx context.Context, tableName string, header factmodel.Header) (*factmodel.Bundle, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY subject_id, substr(effective_start_date, 7, 2), substr(effective_start_date, 1, 5)",
		strings.Join(header, ", "), tableName,
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: select: %w", err)
	}
	defer rows.Close()

	colTypes, err := s.columnTypes(ctx, tableName)
	if err != nil {
		return nil, err
	}
	kinds := columnKinds(header, colTypes)

	bundle := factmodel.NewBundle(header)
	for rows.Next() {
		scanTargets := make([]any, len(header))
		cells := make([]sql.NullString, len(header))
		for i := range cells {
			scanTargets[i] = &cells[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("sqlstore: scan row: %w", err)
		}

		row, err := valuesFromCells(cells, kinds)
		if err != nil {
			return nil, err
		}
		bundle.Rows = append(bundle.Rows, row)
	}

	return bundle, rows.Err()
}

func buildCreateTable(tableName string, sm *factmodel.Bundle) (string, error) {
	var cols []string
	for _, name := range sm.Header {
		sqlType, err := sqlTypeForColumn(sm, name)
		if err != nil {
			return "", err
		}
		cols = append(cols, fmt.Sprintf("%s %s", name, sqlType))
	}
	cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s, %s)", factmodel.ColSubjectID, factmodel.ColEffectiveFrom))

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(cols, ", ")), nil
}

func sqlTypeForColumn(sm *factmodel.Bundle, name string) (string, error) {
	switch name {
	case factmodel.ColSubjectID:
		return "INTEGER NOT NULL", nil
	case factmodel.ColEffectiveFrom:
		return "TEXT NOT NULL", nil
	case factmodel.ColEffectiveTo:
		return "TEXT", nil
	}

	col, err := sm.Column(name)
	if err != nil {
		return "", err
	}
	dt, err := columnar.InferColumnType(name, col)
	if err != nil {
		return "", err
	}
	switch dt.Name() {
	case "int64":
		return "INTEGER", nil
	case "float64":
		return "REAL", nil
	case "date32":
		return "TEXT", nil
	default:
		return "TEXT", nil
	}
}

func conflictUpdateClause(header factmodel.Header) string {
	var clauses []string
	for _, name := range header {
		if name == factmodel.ColSubjectID || name == factmodel.ColEffectiveFrom {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s = excluded.%s", name, name))
	}
	return strings.Join(clauses, ", ")
}

func sqlArg(v factmodel.Value) any {
	switch v.Kind {
	case factmodel.KindNull:
		return nil
	case factmodel.KindInt:
		return v.I
	case factmodel.KindFloat:
		return v.F
	case factmodel.KindString:
		return v.S
	case factmodel.KindDate:
		return v.D.Format(factmodel.DateLayout)
	default:
		return nil
	}
}

// columnTypes recovers each column's declared SQL type (INTEGER/REAL/TEXT,
// per sqlTypeForColumn's vocabulary) via PRAGMA table_info, so ReadTable can
// type attribute columns the same way WriteTable typed them on the way in.
func (s *Store) columnTypes(ctx context.Context, tableName string) (map[string]string, error) {
	rows, err := s.tableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}
	types := make(map[string]string, len(rows))
	for _, r := range rows {
		types[r.name] = r.sqlType
	}
	return types, nil
}

func columnKinds(header factmodel.Header, colTypes map[string]string) []factmodel.ValueKind {
	kinds := make([]factmodel.ValueKind, len(header))
	for i, name := range header {
		switch name {
		case factmodel.ColSubjectID:
			kinds[i] = factmodel.KindInt
		case factmodel.ColEffectiveFrom, factmodel.ColEffectiveTo:
			kinds[i] = factmodel.KindDate
		default:
			kinds[i] = kindFromSQLType(colTypes[name])
		}
	}
	return kinds
}

// kindFromSQLType maps a declared SQL type back to the Value kind
// sqlTypeForColumn derived it from when the table was created.
func kindFromSQLType(sqlType string) factmodel.ValueKind {
	switch strings.ToUpper(sqlType) {
	case "INTEGER":
		return factmodel.KindInt
	case "REAL":
		return factmodel.KindFloat
	default:
		return factmodel.KindString
	}
}

func valuesFromCells(cells []sql.NullString, kinds []factmodel.ValueKind) (factmodel.Row, error) {
	row := make(factmodel.Row, len(cells))
	for i, cell := range cells {
		if !cell.Valid {
			row[i] = factmodel.Null
			continue
		}
		switch kinds[i] {
		case factmodel.KindInt:
			var n int64
			if _, err := fmt.Sscanf(cell.String, "%d", &n); err != nil {
				return nil, fmt.Errorf("sqlstore: column %d: %w", i, err)
			}
			row[i] = factmodel.NewInt(n)
		case factmodel.KindFloat:
			var f float64
			if _, err := fmt.Sscanf(cell.String, "%g", &f); err != nil {
				return nil, fmt.Errorf("sqlstore: column %d: %w", i, err)
			}
			row[i] = factmodel.NewFloat(f)
		case factmodel.KindDate:
			d, err := factmodel.ParseDate(cell.String)
			if err != nil {
				return nil, fmt.Errorf("sqlstore: column %d: %w", i, err)
			}
			row[i] = factmodel.NewDate(d)
		default:
			row[i] = factmodel.NewString(cell.String)
		}
	}
	return row, nil
}
