package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcouncil/lexcouncil/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			phase TEXT NOT NULL,
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			called_id TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_run ON messages(run_id, phase, seq)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun creates a new run.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *domain.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, query, status, started_at) VALUES (?, ?, ?, ?)`,
		run.RunID, run.Query, run.Status, run.StartedAt)
	return err
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	var run domain.Run
	var endedAt sql.NullTime
	var errMsg sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, query, status, started_at, ended_at, error FROM runs WHERE run_id = ?`,
		runID).Scan(&run.RunID, &run.Query, &run.Status, &run.StartedAt, &endedAt, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return &run, nil
}

// ListRuns lists runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `SELECT run_id, query, status, started_at, ended_at, error FROM runs ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		var endedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&run.RunID, &run.Query, &run.Status, &run.StartedAt, &endedAt, &errMsg); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			run.EndedAt = &endedAt.Time
		}
		if errMsg.Valid {
			run.Error = errMsg.String
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateRunStatus updates the status of a run.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE run_id = ?`,
		status, runID)
	return err
}

// UpdateRunCompleted marks a run terminal.
func (s *SQLiteStore) UpdateRunCompleted(ctx context.Context, runID string, status domain.RunStatus, errMsg string) error {
	var errStr sql.NullString
	if errMsg != "" {
		errStr = sql.NullString{String: errMsg, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, ended_at = CURRENT_TIMESTAMP, error = ? WHERE run_id = ?`,
		status, errStr, runID)
	return err
}

// AppendMessage persists one transcript message.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *domain.StoredMessage) error {
	var calledID sql.NullString
	if msg.CalledID != "" {
		calledID = sql.NullString{String: msg.CalledID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, run_id, phase, seq, source, role, content, called_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.MessageID, msg.RunID, msg.Phase, msg.Seq, msg.Source, msg.Role, msg.Content, calledID, msg.CreatedAt)
	return err
}

// GetMessages retrieves a run's messages in sequence order. An empty phase
// returns both phases.
func (s *SQLiteStore) GetMessages(ctx context.Context, runID string, phase domain.Phase) ([]domain.StoredMessage, error) {
	query := `SELECT message_id, run_id, phase, seq, source, role, content, called_id, created_at FROM messages WHERE run_id = ?`
	args := []interface{}{runID}

	if phase != "" {
		query += ` AND phase = ?`
		args = append(args, phase)
	}
	query += ` ORDER BY phase ASC, seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.StoredMessage
	for rows.Next() {
		var msg domain.StoredMessage
		var calledID sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.RunID, &msg.Phase, &msg.Seq, &msg.Source, &msg.Role, &msg.Content, &calledID, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if calledID.Valid {
			msg.CalledID = calledID.String
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
