package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"macro-meal-planner/internal/config"
)

// Result holds the rows produced by a statement. Statements without a
// result set produce a Result with no columns and no rows.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the statement returned no rows.
func (r *Result) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// ExecError wraps a failure of a single Execute call.
type ExecError struct {
	Query string
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to execute %q: %v", strings.Join(strings.Fields(e.Query), " "), e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Execute runs one statement with positional '?' parameters inside its own
// transaction. Every row of a result set is returned; statements without one
// are committed and yield an empty Result.
func (d *DB) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	query = d.rebind(query)

	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return nil, &ExecError{Query: query, Err: fmt.Errorf("begin transaction: %w", err)}
	}

	result, err := collect(ctx, tx, query, args)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return nil, &ExecError{Query: query, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &ExecError{Query: query, Err: fmt.Errorf("commit: %w", err)}
	}
	return result, nil
}

func collect(ctx context.Context, tx *sql.Tx, query string, args []any) (*Result, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: columns}
	// Drain even when there are no columns: some drivers only step the
	// statement on Next.
	for rows.Next() {
		if len(columns) == 0 {
			continue
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *DB) rebind(query string) string {
	if d.driver != config.DriverPostgres {
		return query
	}
	return Rebind(query)
}

// Rebind rewrites '?' placeholders as PostgreSQL's $1, $2, ... Question
// marks inside single-quoted literals are left alone.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
