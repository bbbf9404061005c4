package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
)

// schemaColumns is the fixed superset of sparse columns shared by all
// record types. Migration is additive only: columns listed here but
// missing from an existing table are added in place; existing rows and
// columns are never dropped or rewritten.
var schemaColumns = []struct {
	name string
	decl string
}{
	{"timestamp", "TEXT NOT NULL"},
	{"record_type", "TEXT NOT NULL"},
	{"triggered_by", "TEXT"},
	{"window_title", "TEXT"},
	{"process_name", "TEXT"},
	{"app_name", "TEXT"},
	{"page_title", "TEXT"},
	{"url", "TEXT"},
	{"pid", "INTEGER"},
	{"from_app", "TEXT"},
	{"to_app", "TEXT"},
	{"screenshot_path", "TEXT"},
	{"ocr_text", "TEXT"},
	{"mouse_x", "INTEGER"},
	{"mouse_y", "INTEGER"},
	{"button", "TEXT"},
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS activity_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			record_type TEXT NOT NULL
		)`); err != nil {
		return goerr.Wrap(err, "failed to create activity_log table")
	}

	existing, err := s.tableColumns("activity_log")
	if err != nil {
		return err
	}

	for _, col := range schemaColumns {
		if existing[col.name] {
			continue
		}
		// Existing rows keep NULL for the new column; NOT NULL cannot be
		// enforced retroactively, so added columns drop the constraint.
		decl := col.decl
		if decl == "TEXT NOT NULL" {
			decl = "TEXT"
		}
		stmt := fmt.Sprintf("ALTER TABLE activity_log ADD COLUMN %s %s", col.name, decl)
		if _, err := s.db.Exec(stmt); err != nil {
			return goerr.Wrap(err, "failed to add column", goerr.V("column", col.name))
		}
		logging.Default().Info("event store migration: added column", "column", col.name)
	}

	for _, idx := range []struct{ name, column string }{
		{"idx_activity_timestamp", "timestamp"},
		{"idx_activity_app_name", "app_name"},
		{"idx_activity_record_type", "record_type"},
	} {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON activity_log(%s)", idx.name, idx.column)
		if _, err := s.db.Exec(stmt); err != nil {
			return goerr.Wrap(err, "failed to create index", goerr.V("index", idx.name))
		}
	}

	return nil
}

func (s *Store) tableColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to inspect table", goerr.V("table", table))
	}
	defer rows.Close()

	columns := map[string]bool{}
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, goerr.Wrap(err, "failed to scan table info")
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate table info")
	}
	return columns, nil
}
