package domain

import "time"

// Run represents a single execution of the research workflow.
type Run struct {
	RunID     string     `json:"run_id"`
	Query     string     `json:"query"`
	Status    RunStatus  `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// StoredMessage is a transcript message persisted for one run, with its
// position within the run.
type StoredMessage struct {
	MessageID string    `json:"message_id"`
	RunID     string    `json:"run_id"`
	Phase     Phase     `json:"phase"`
	Seq       int       `json:"seq"`
	Source    string    `json:"source"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CalledID  string    `json:"called_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
