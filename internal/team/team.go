package team

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/domain"
)

// Status captures the orchestrator state machine:
// Idle -> Running -> {Completed, Stopped, Failed}.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusStopped   Status = "STOPPED"
	StatusFailed    Status = "FAILED"
)

// Observer is a read-only tap invoked as each message is appended. It must
// not block or alter orchestration.
type Observer func(msg domain.Message)

// Result is the outcome of one team run. The transcript is always present,
// even for stopped or failed runs, so partial progress can be inspected.
type Result struct {
	Status     Status
	StopReason string
	Transcript *domain.Transcript
}

// RoundRobinTeam drives an ordered agent list through repeated turns until
// the termination condition fires. A team value drives exactly one run:
// conditions carry per-run state, so build a fresh team (and condition) for
// each run.
type RoundRobinTeam struct {
	agents    []*Agent
	condition Condition
	observer  Observer
	status    Status
}

// NewRoundRobinTeam creates a team over a non-empty ordered agent list. A
// termination condition is mandatory: without a bounding condition the loop
// would never end, which is a caller error.
func NewRoundRobinTeam(agents []*Agent, condition Condition) (*RoundRobinTeam, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("team requires at least one agent")
	}
	if condition == nil {
		return nil, fmt.Errorf("team requires a termination condition")
	}
	return &RoundRobinTeam{agents: agents, condition: condition, status: StatusIdle}, nil
}

// SetObserver attaches a message tap. Must be called before Run.
func (t *RoundRobinTeam) SetObserver(obs Observer) {
	t.observer = obs
}

// Status returns the current state of the team's run.
func (t *RoundRobinTeam) Status() Status {
	return t.status
}

// Run seeds the transcript with the task and drives agents in strict
// round-robin order. The condition is evaluated after every individual
// appended message, so a turn can end the run mid-way through its messages.
// Cancellation is cooperative: the context is checked at each turn
// boundary, and a cancelled run returns Stopped with the transcript intact.
func (t *RoundRobinTeam) Run(ctx context.Context, task string) (*Result, error) {
	if t.status != StatusIdle {
		return nil, fmt.Errorf("team has already run (status %s)", t.status)
	}
	t.status = StatusRunning

	transcript := domain.NewTranscript()
	seed := domain.Message{Source: "user", Role: domain.RoleUser, Content: task}
	transcript.Append(seed)
	t.notify(seed)

	turn := 0
	for {
		select {
		case <-ctx.Done():
			t.status = StatusStopped
			log.Info().Int("messages", transcript.Len()).Msg("run cancelled")
			return &Result{Status: StatusStopped, StopReason: "cancelled: " + ctx.Err().Error(), Transcript: transcript}, nil
		default:
		}

		agent := t.agents[turn%len(t.agents)]
		turn++

		msgs, err := agent.Respond(ctx, transcript.Messages())
		if err != nil {
			t.status = StatusFailed
			return &Result{Status: StatusFailed, StopReason: err.Error(), Transcript: transcript},
				fmt.Errorf("agent %s turn failed: %w", agent.ID(), err)
		}

		for _, msg := range msgs {
			transcript.Append(msg)
			t.notify(msg)
			if t.condition.Check(msg) {
				t.status = StatusCompleted
				reason := t.condition.Reason()
				log.Info().Str("reason", reason).Int("messages", transcript.Len()).Msg("run completed")
				return &Result{Status: StatusCompleted, StopReason: reason, Transcript: transcript}, nil
			}
		}
	}
}

func (t *RoundRobinTeam) notify(msg domain.Message) {
	if t.observer != nil {
		t.observer(msg)
	}
}
