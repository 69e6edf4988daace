// Package service coordinates research runs between the HTTP transport,
// the workflow engine and the store.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/domain"
	"github.com/lexcouncil/lexcouncil/internal/store"
	"github.com/lexcouncil/lexcouncil/internal/workflow"
)

// Service owns the lifecycle of research runs. Each run executes in its
// own goroutine; Cancel stops it cooperatively.
type Service struct {
	store    store.Store
	workflow *workflow.Workflow

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New creates a new service.
func New(st store.Store, wf *workflow.Workflow) *Service {
	return &Service{
		store:    st,
		workflow: wf,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// StartResearch launches a research run in the background and returns its
// ID immediately. Progress is observable through the store and the hub.
func (s *Service) StartResearch(query string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	runID := "run_" + uuid.New().String()[:8]
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.cancels[runID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.cancels, runID)
			s.mu.Unlock()
			cancel()
		}()
		if _, err := s.workflow.RunWithID(ctx, runID, query); err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("research run failed")
		}
	}()
	return runID, nil
}

// Cancel requests cooperative stop of a running research run. Returns false
// if the run is not active.
func (s *Service) Cancel(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.cancels[runID]
	if ok {
		cancel()
	}
	return ok
}

// GetRun retrieves a run by ID. Returns nil if not found.
func (s *Service) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	return s.store.GetRun(ctx, runID)
}

// ListRuns lists recent runs.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	return s.store.ListRuns(ctx, limit)
}

// GetMessages retrieves a run's transcript, optionally filtered by phase.
func (s *Service) GetMessages(ctx context.Context, runID string, phase domain.Phase) ([]domain.StoredMessage, error) {
	return s.store.GetMessages(ctx, runID, phase)
}

// Report returns the synthesizer's final message of a completed run.
func (s *Service) Report(ctx context.Context, runID string) (string, error) {
	msgs, err := s.store.GetMessages(ctx, runID, domain.PhaseSynthesis)
	if err != nil {
		return "", err
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant {
			return msgs[i].Content, nil
		}
	}
	return "", nil
}

// ActiveRuns returns the number of runs currently executing.
func (s *Service) ActiveRuns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancels)
}

// Shutdown cancels all active runs and waits briefly for them to unwind.
func (s *Service) Shutdown(timeout time.Duration) {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.ActiveRuns() == 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}
