// Package llm normalizes heterogeneous chat-completion backends into one
// uniform ModelClient contract, including rate-limit backoff retry.
package llm

import (
	"context"

	"github.com/lexcouncil/lexcouncil/internal/domain"
	"github.com/lexcouncil/lexcouncil/internal/tools"
)

// StreamChunk is one unit of a streaming completion. An adapter that does
// not implement true incremental streaming gathers the full result and
// emits it as a single final chunk.
type StreamChunk struct {
	Content string
	Final   bool
}

// StreamCallback is called for each chunk of a streaming completion.
type StreamCallback func(chunk StreamChunk) error

// ModelClient is the uniform contract agents are written against. Create is
// the only suspension point and must be safe for concurrent use: one client
// instance is shared by every agent in both workflow phases.
type ModelClient interface {
	// Create sends a completion request. It fails with *domain.BackendError
	// when the remote call cannot be completed after retries, or
	// *domain.ProtocolError when the response cannot be mapped.
	Create(ctx context.Context, messages []domain.Message, specs []tools.Spec) (*domain.CreateResult, error)

	// CreateStream is the streaming variant of Create. Chunk ordering must
	// match the non-streaming path.
	CreateStream(ctx context.Context, messages []domain.Message, specs []tools.Spec, cb StreamCallback) (*domain.CreateResult, error)

	// TotalUsage reports accumulated token usage across all calls.
	TotalUsage() domain.Usage
}
