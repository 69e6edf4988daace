package domain

import "fmt"

// RateLimitError signals backend throttling. It is internal to the adapter
// layer: the retry policy either absorbs it or wraps the final occurrence in
// a BackendError. It never reaches the team orchestrator.
type RateLimitError struct {
	RetryAfter string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter != "" {
		return fmt.Sprintf("rate limit exceeded (retry-after: %s)", e.RetryAfter)
	}
	return "rate limit exceeded"
}

// BackendError is a non-retriable transport failure: auth errors, 5xx
// responses, network failures, or a rate limit that survived all retries.
// It aborts the current agent turn.
type BackendError struct {
	Status  int
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend error [%d]: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ProtocolError means the backend returned a success payload that cannot be
// mapped into a CreateResult. Raw keeps the payload for diagnostics.
type ProtocolError struct {
	Message string
	Raw     []byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Message)
}

// CapabilityError is a failed tool invocation. It is absorbed at the agent
// boundary and surfaced to the model as a tool-result message.
type CapabilityError struct {
	Tool string
	Err  error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s failed: %v", e.Tool, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// ConfigurationError means no usable backend credential (or an otherwise
// unusable configuration) was found at startup. Fatal: the workflow never
// starts.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}
