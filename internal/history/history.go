// Package history persists a durable per-user record of translation jobs in
// SQLite. The status cache answers "what is running right now"; history
// answers "what ran, when, and how it ended".
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"doctrans/internal/apperrors"
)

const schema = `
CREATE TABLE IF NOT EXISTS file_translation_history (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id              TEXT    NOT NULL,
	task_id              TEXT    NOT NULL UNIQUE,
	task_name            TEXT    NOT NULL,
	date_time            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	source_file_name     TEXT    NOT NULL,
	source_file_path     TEXT    NOT NULL,
	translated_file_name TEXT,
	translated_file_path TEXT,
	status               TEXT    NOT NULL,
	duration             REAL    NOT NULL DEFAULT 0,
	error                TEXT
);
CREATE INDEX IF NOT EXISTS idx_history_user ON file_translation_history (user_id, date_time DESC);
`

// Record is one history row. Optional columns surface as empty strings.
type Record struct {
	ID                 int64   `json:"id"`
	UserID             string  `json:"user_id"`
	TaskID             string  `json:"task_id"`
	TaskName           string  `json:"task_name"`
	DateTime           string  `json:"date_time"`
	SourceFileName     string  `json:"source_file_name"`
	SourceFilePath     string  `json:"source_file_path"`
	TranslatedFileName string  `json:"translated_file_name,omitempty"`
	TranslatedFilePath string  `json:"translated_file_path,omitempty"`
	Status             string  `json:"status"`
	Duration           float64 `json:"duration"`
	Error              string  `json:"error,omitempty"`
}

// Store wraps the SQLite database holding translation history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	// SQLite handles one writer at a time; serialise access through one conn.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert adds a new history row. The task id must be unique; re-inserting an
// existing id returns a bad request error.
func (s *Store) Insert(ctx context.Context, rec Record) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO file_translation_history
			(user_id, task_id, task_name, date_time, source_file_name, source_file_path,
			 translated_file_name, translated_file_path, status, duration, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.TaskID, rec.TaskName, insertTime(rec.DateTime),
		rec.SourceFileName, rec.SourceFilePath,
		nullable(rec.TranslatedFileName), nullable(rec.TranslatedFilePath),
		rec.Status, rec.Duration, nullable(rec.Error))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperrors.BadRequest(fmt.Errorf("task %s already recorded", rec.TaskID))
		}
		return 0, fmt.Errorf("insert history %s: %w", rec.TaskID, err)
	}
	return res.LastInsertId()
}

// GetByTaskID fetches one row. ok is false when the task id is unknown.
func (s *Store) GetByTaskID(ctx context.Context, taskID string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` WHERE task_id = ?`, taskID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get history %s: %w", taskID, err)
	}
	return rec, true, nil
}

// GetByUserID returns the user's rows, newest first.
func (s *Store) GetByUserID(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		selectCols+` WHERE user_id = ? ORDER BY date_time DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", userID, err)
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// UpdateOutcome records the terminal result of a task: status, duration,
// and either the translated file or the error message.
func (s *Store) UpdateOutcome(ctx context.Context, taskID, status string, duration float64, translatedName, translatedPath, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE file_translation_history
		SET status = ?, duration = ?, translated_file_name = ?, translated_file_path = ?, error = ?
		WHERE task_id = ?`,
		status, duration, nullable(translatedName), nullable(translatedPath), nullable(errMsg), taskID)
	if err != nil {
		return fmt.Errorf("update history %s: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound("")
	}
	return nil
}

const selectCols = `
	SELECT id, user_id, task_id, task_name, date_time, source_file_name, source_file_path,
	       translated_file_name, translated_file_path, status, duration, error
	FROM file_translation_history`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var translatedName, translatedPath, errMsg sql.NullString
	err := row.Scan(&rec.ID, &rec.UserID, &rec.TaskID, &rec.TaskName, &rec.DateTime,
		&rec.SourceFileName, &rec.SourceFilePath,
		&translatedName, &translatedPath, &rec.Status, &rec.Duration, &errMsg)
	if err != nil {
		return rec, err
	}
	rec.TranslatedFileName = translatedName.String
	rec.TranslatedFilePath = translatedPath.String
	rec.Error = errMsg.String
	return rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func insertTime(s string) string {
	if s != "" {
		return s
	}
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

func isUniqueViolation(err error) bool {
	// mattn/go-sqlite3 reports constraint failures in the message; matching
	// on the text avoids importing the driver's error types here.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
