// Package store persists research runs and their transcripts.
package store

import (
	"context"

	"github.com/lexcouncil/lexcouncil/internal/domain"
)

// Store defines the persistence interface for runs and messages.
type Store interface {
	// CreateRun creates a new run.
	CreateRun(ctx context.Context, run *domain.Run) error

	// GetRun retrieves a run by ID. Returns nil if not found.
	GetRun(ctx context.Context, runID string) (*domain.Run, error)

	// ListRuns lists runs ordered by start time, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)

	// UpdateRunStatus updates the status of a run.
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus) error

	// UpdateRunCompleted marks a run terminal with an optional error message.
	UpdateRunCompleted(ctx context.Context, runID string, status domain.RunStatus, errMsg string) error

	// AppendMessage persists one transcript message.
	AppendMessage(ctx context.Context, msg *domain.StoredMessage) error

	// GetMessages retrieves the messages of a run in sequence order,
	// optionally filtered by phase.
	GetMessages(ctx context.Context, runID string, phase domain.Phase) ([]domain.StoredMessage, error)

	// Close releases the underlying resources.
	Close() error
}
