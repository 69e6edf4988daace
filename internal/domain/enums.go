// Package domain defines the core domain models for the legal research
// orchestrator.
package domain

// FinishReason is the uniform completion finish vocabulary every backend
// adapter maps into.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// RunStatus represents the status of a research run.
type RunStatus string

const (
	RunStatusCreated   RunStatus = "CREATED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusStopped   RunStatus = "STOPPED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Phase identifies which workflow phase a message belongs to.
type Phase string

const (
	PhaseResearch  Phase = "research"
	PhaseSynthesis Phase = "synthesis"
)

// Usage tracks token accounting for model calls.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// CreateResult is the uniform response of a model completion call.
type CreateResult struct {
	Content      string       `json:"content"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        Usage        `json:"usage"`
}
