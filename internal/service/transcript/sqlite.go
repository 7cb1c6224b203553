package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
)

const schema = `CREATE TABLE IF NOT EXISTS transcript_entries (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	target      TEXT NOT NULL,
	session_id  TEXT NOT NULL,
	type        TEXT NOT NULL,
	payload     TEXT NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcript_entries_target ON transcript_entries(target, id);`

// SQLiteRecorder stores transcript records in a SQLite table, one row per record.
type SQLiteRecorder struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the transcript database at path.
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("transcript: open sqlite: %w", err)
	}
	// a single writer keeps appends in call order
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("transcript: migrate sqlite: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

// NewTarget uses the session id as target.
func (r *SQLiteRecorder) NewTarget(sessionID, _ string) string {
	return sessionID
}

// Append inserts rec.
func (r *SQLiteRecorder) Append(ctx context.Context, target string, rec interview.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("transcript: encode record: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transcript_entries (target, session_id, type, payload, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		target, rec.SessionID, string(rec.Type), string(payload), rec.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("transcript: insert record: %w", err)
	}
	return nil
}

// Entries returns the records of target in append order.
func (r *SQLiteRecorder) Entries(ctx context.Context, target string) ([]interview.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM transcript_entries WHERE target = ? ORDER BY id ASC`, target)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []interview.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec interview.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("transcript: decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
