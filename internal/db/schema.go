package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// requiredColumns lists the columns the climate queries read, per table.
// Extra tables or columns in the store are ignored.
var requiredColumns = map[string][]string{
	"measurement": {"station", "date", "prcp", "tobs"},
	"station":     {"station"},
}

// VerifySchema checks that every table and column the service queries exists.
// All problems are reported together.
func VerifySchema(ctx context.Context, db *sql.DB) error {
	tables := make([]string, 0, len(requiredColumns))
	for t := range requiredColumns {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var result *multierror.Error
	for _, table := range tables {
		have, err := tableColumns(ctx, db, table)
		if err != nil {
			return fmt.Errorf("inspect table %s: %w", table, err)
		}
		if len(have) == 0 {
			result = multierror.Append(result, fmt.Errorf("missing table %q", table))
			continue
		}
		for _, col := range requiredColumns[table] {
			if !have[col] {
				result = multierror.Append(result, fmt.Errorf("missing column %q in table %q", col, table))
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("schema check: %w", err)
	}
	slog.Debug("schema verified", "tables", tables)
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	// table_info returns no rows for an unknown table.
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close table_info rows", "table", table, "error", err)
		}
	}()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}
