package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Optional columns older deployments may be missing. When a statement fails
// because one of them is absent, the store adds it with a safe default and
// retries the statement exactly once.
var healableColumns = map[string]map[string]string{
	"reservations": {
		"event_type":      `ALTER TABLE reservations ADD COLUMN event_type TEXT`,
		"event_name":      `ALTER TABLE reservations ADD COLUMN event_name TEXT`,
		"special_request": `ALTER TABLE reservations ADD COLUMN special_request TEXT`,
		"status":          `ALTER TABLE reservations ADD COLUMN status TEXT DEFAULT 'Pending'`,
	},
	"confirmation_logs": {
		"event_type":      `ALTER TABLE confirmation_logs ADD COLUMN event_type TEXT`,
		"special_request": `ALTER TABLE confirmation_logs ADD COLUMN special_request TEXT`,
	},
}

var missingColumnRe = regexp.MustCompile(`no such column:?\s*(\S+)|has no column named (\S+)`)

// missingColumn extracts the column name from SQLite's two "unknown column"
// error shapes (SELECT/UPDATE vs INSERT).
func missingColumn(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	m := missingColumnRe.FindStringSubmatch(err.Error())
	if m == nil {
		return "", false
	}
	col := m[1]
	if col == "" {
		col = m[2]
	}
	// SELECT errors may qualify the column as table.column.
	if i := strings.LastIndexByte(col, '.'); i >= 0 {
		col = col[i+1:]
	}
	return col, true
}

// withHeal runs fn and, on a missing-column failure for a healable column of
// table, repairs the schema and retries once. Any other failure, and any
// failure of the repair itself, is returned as-is.
func (db *DB) withHeal(ctx context.Context, table string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	col, ok := missingColumn(err)
	if !ok {
		return err
	}
	alter, ok := healableColumns[table][col]
	if !ok {
		return err
	}

	db.logger.Warn().Str("table", table).Str("column", col).Msg("schema drift detected, adding column")
	if _, alterErr := db.ExecContext(ctx, alter); alterErr != nil {
		return fmt.Errorf("schema repair for %s.%s failed: %w (original: %w)", table, col, alterErr, err)
	}

	return fn()
}
