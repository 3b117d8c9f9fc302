package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"sql-agent/internal/application/port/output"
)

const maxQueryRows = 200

var _ output.DatabasePort = (*Store)(nil)

// Store wraps a sqlite database and exposes the operations the SQL tools
// need, plus multi-statement script execution for seeding schemas.
type Store struct {
	db      *sql.DB
	baseDir string
	logger  output.LoggerPort
}

type Config struct {
	// DSN is the sqlite data source, e.g. a file path or ":memory:".
	DSN string
	// BaseDir is the directory whose SQL_Files subfolder holds scripts.
	BaseDir string
}

func NewStore(cfg Config, logger output.LoggerPort) (*Store, error) {
	handle, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Store{db: handle, baseDir: cfg.BaseDir, logger: logger}, nil
}

// NewStoreWithDB wraps an existing handle. Used by tests.
func NewStoreWithDB(handle *sql.DB, baseDir string, logger output.LoggerPort) *Store {
	return &Store{db: handle, baseDir: baseDir, logger: logger}
}

// ExecuteScript reads <BaseDir>/SQL_Files/<name> and executes it as one
// multi-statement script. Read and execution errors propagate to the
// caller; there is no partial-execution recovery.
func (s *Store) ExecuteScript(ctx context.Context, name string) error {
	path := filepath.Join(s.baseDir, "SQL_Files", name)

	script, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sql script: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("execute sql script %s: %w", name, err)
	}

	s.logger.Info("SQL script executed", "script", name)
	return nil
}

// Query runs a query and renders the result as a plain-text table with a
// row-count footer. Output is capped at maxQueryRows rows.
func (s *Store) Query(ctx context.Context, query string) (string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("read columns: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.Join(cols, " | "))
	b.WriteString("\n")

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	truncated := false
	for rows.Next() {
		if count >= maxQueryRows {
			truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("scan row: %w", err)
		}

		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
		count++
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate rows: %w", err)
	}

	if truncated {
		b.WriteString("... (truncated)\n")
	}
	fmt.Fprintf(&b, "(%d rows)", count)
	return b.String(), nil
}

// Schema returns the CREATE statement for one table, or for every table
// when table is empty.
func (s *Store) Schema(ctx context.Context, table string) (string, error) {
	if table != "" {
		var ddl string
		err := s.db.QueryRowContext(ctx,
			`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&ddl)
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("table %q not found", table)
		}
		if err != nil {
			return "", fmt.Errorf("read schema: %w", err)
		}
		return ddl, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND sql IS NOT NULL AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return "", fmt.Errorf("read schema: %w", err)
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var ddl string
		if err := rows.Scan(&ddl); err != nil {
			return "", fmt.Errorf("scan schema: %w", err)
		}
		ddls = append(ddls, ddl)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate schema: %w", err)
	}
	return strings.Join(ddls, ";\n\n"), nil
}

func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
