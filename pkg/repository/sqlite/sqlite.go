package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/domain/types"

	_ "modernc.org/sqlite"
)

// timeLayout keeps a fixed-width fractional second so that lexicographic
// ordering of the stored text equals chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the sqlite-backed append-only event log. The embedded store
// does not support concurrent writers, so every append holds writeMu.
type Store struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// New opens (or creates) the event log at path and applies schema
// migration. The caller owns Close.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create event store directory", goerr.V("dir", dir))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open event store", goerr.V("path", path))
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, goerr.Wrap(err, "failed to enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, goerr.Wrap(err, "failed to set busy timeout")
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close event store")
	}
	return nil
}

// Append persists a new event and returns the assigned id
func (s *Store) Append(ctx context.Context, ev *model.ActivityEvent) (int64, error) {
	if err := ev.Validate(); err != nil {
		return 0, goerr.Wrap(err, "refusing to append invalid event")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (
			timestamp, record_type, triggered_by,
			window_title, process_name, app_name, page_title, url, pid,
			from_app, to_app, screenshot_path, ocr_text,
			mouse_x, mouse_y, button
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Timestamp.UTC().Format(timeLayout),
		string(ev.RecordType),
		string(ev.TriggeredBy),
		nullStr(ev.WindowTitle),
		nullStr(ev.ProcessName),
		nullStr(ev.AppName),
		nullStr(ev.PageTitle),
		nullStr(ev.URL),
		nullInt(ev.PID),
		nullStr(ev.FromApp),
		nullStr(ev.ToApp),
		nullStr(ev.ScreenshotPath),
		nullStr(ev.OCRText),
		nullInt(ev.MouseX),
		nullInt(ev.MouseY),
		nullStr(ev.Button),
	)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to append event",
			goerr.V("recordType", string(ev.RecordType)))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read assigned event id")
	}
	return id, nil
}

const eventColumns = `
	id, timestamp, record_type, triggered_by,
	window_title, process_name, app_name, page_title, url, pid,
	from_app, to_app, screenshot_path, ocr_text,
	mouse_x, mouse_y, button`

// Range returns events with id strictly greater than sinceID, ascending by id
func (s *Store) Range(ctx context.Context, sinceID int64) ([]*model.ActivityEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM activity_log WHERE id > ? ORDER BY id ASC`,
		sinceID,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to range events", goerr.V("sinceID", sinceID))
	}
	defer rows.Close()

	return scanEvents(ctx, rows)
}

// Latest returns up to n most recent events, descending by timestamp
func (s *Store) Latest(ctx context.Context, n int) ([]*model.ActivityEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM activity_log ORDER BY timestamp DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load latest events", goerr.V("limit", n))
	}
	defer rows.Close()

	return scanEvents(ctx, rows)
}

// Between returns events with start <= timestamp <= end and a known app
// name, ascending by timestamp
func (s *Store) Between(ctx context.Context, start, end time.Time) ([]*model.ActivityEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM activity_log
		 WHERE timestamp >= ? AND timestamp <= ?
		   AND app_name IS NOT NULL AND app_name != ?
		 ORDER BY timestamp ASC`,
		start.UTC().Format(timeLayout),
		end.UTC().Format(timeLayout),
		types.AppUnknown,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load events between",
			goerr.V("start", start), goerr.V("end", end))
	}
	defer rows.Close()

	return scanEvents(ctx, rows)
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
