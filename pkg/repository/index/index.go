package index

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/domain/model"

	_ "modernc.org/sqlite"
)

// Index is the sqlite-persisted vector index over activity documents. It
// lives in its own database file, separate from the event log, and is
// derived state: dropping the file and reindexing from the log rebuilds
// it completely. Ranking is brute-force cosine similarity over the rows
// matching the timestamp filter, which is plenty for a personal activity
// log.
type Index struct {
	db      *sql.DB
	writeMu sync.Mutex
}

var _ interfaces.DocumentIndex = (*Index)(nil)

// New opens (or creates) the vector index at path
func New(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create index directory", goerr.V("dir", dir))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open vector index", goerr.V("path", path))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, goerr.Wrap(err, "failed to enable WAL mode")
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			event_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			record_type TEXT NOT NULL,
			app_name TEXT NOT NULL,
			window_title TEXT NOT NULL,
			url TEXT NOT NULL,
			ts_iso TEXT NOT NULL,
			ts_unix REAL NOT NULL,
			embedding BLOB NOT NULL
		)`); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create documents table")
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_documents_ts ON documents(ts_unix)`); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create timestamp index")
	}

	return &Index{db: db}, nil
}

// Close closes the underlying database
func (x *Index) Close() error {
	if err := x.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close vector index")
	}
	return nil
}

// Upsert adds or replaces documents by key. The batch is applied in one
// transaction: either every document lands or none does.
func (x *Index) Upsert(ctx context.Context, docs []*model.Document) error {
	if len(docs) == 0 {
		return nil
	}

	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin upsert transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (
			key, event_id, text, record_type, app_name, window_title, url,
			ts_iso, ts_unix, embedding
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			event_id = excluded.event_id,
			text = excluded.text,
			record_type = excluded.record_type,
			app_name = excluded.app_name,
			window_title = excluded.window_title,
			url = excluded.url,
			ts_iso = excluded.ts_iso,
			ts_unix = excluded.ts_unix,
			embedding = excluded.embedding`)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare upsert")
	}
	defer stmt.Close()

	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return goerr.New("document without embedding", goerr.V("key", doc.Key))
		}
		if _, err := stmt.ExecContext(ctx,
			doc.Key, doc.EventID, doc.Text,
			doc.Metadata.RecordType, doc.Metadata.AppName,
			doc.Metadata.WindowTitle, doc.Metadata.URL,
			doc.Metadata.TimestampISO, doc.Metadata.TimestampUnix,
			encodeEmbedding(doc.Embedding),
		); err != nil {
			return goerr.Wrap(err, "failed to upsert document", goerr.V("key", doc.Key))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit upsert")
	}
	return nil
}

// Search returns up to limit documents ranked by cosine similarity,
// restricted to start <= timestamp <= end
func (x *Index) Search(ctx context.Context, embedding []float64, limit int, start, end time.Time) ([]*interfaces.Hit, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT key, event_id, text, record_type, app_name, window_title, url,
		       ts_iso, ts_unix, embedding
		FROM documents
		WHERE ts_unix >= ? AND ts_unix <= ?`,
		unixSeconds(start), unixSeconds(end),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query documents")
	}
	defer rows.Close()

	var hits []*interfaces.Hit
	for rows.Next() {
		var (
			doc  model.Document
			blob []byte
		)
		if err := rows.Scan(&doc.Key, &doc.EventID, &doc.Text,
			&doc.Metadata.RecordType, &doc.Metadata.AppName,
			&doc.Metadata.WindowTitle, &doc.Metadata.URL,
			&doc.Metadata.TimestampISO, &doc.Metadata.TimestampUnix,
			&blob); err != nil {
			return nil, goerr.Wrap(err, "failed to scan document row")
		}
		doc.Metadata.EventID = doc.EventID
		doc.Embedding = decodeEmbedding(blob)

		hits = append(hits, &interfaces.Hit{
			Document: &doc,
			Score:    cosineSimilarity(embedding, doc.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate document rows")
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

// MaxEventID returns the largest source event id present in the index.
// The indexer recovers its high-water mark from this at startup.
func (x *Index) MaxEventID(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	row := x.db.QueryRowContext(ctx, `SELECT MAX(event_id) FROM documents`)
	if err := row.Scan(&maxID); err != nil {
		return 0, goerr.Wrap(err, "failed to read max event id")
	}
	return maxID.Int64, nil
}

// Count returns the number of indexed documents
func (x *Index) Count(ctx context.Context) (int64, error) {
	var count int64
	row := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`)
	if err := row.Scan(&count); err != nil {
		return 0, goerr.Wrap(err, "failed to count documents")
	}
	return count, nil
}

// Reset drops all indexed documents. Used by full rebuilds: the next
// reindex starts from id 0 and repopulates from the event log.
func (x *Index) Reset(ctx context.Context) error {
	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	if _, err := x.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return goerr.Wrap(err, "failed to reset vector index")
	}
	return nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
