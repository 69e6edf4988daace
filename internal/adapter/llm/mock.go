package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lexcouncil/lexcouncil/internal/domain"
	"github.com/lexcouncil/lexcouncil/internal/tools"
)

// MockClient is a ModelClient for mock mode and tests. Scripted results are
// returned in order; once exhausted it generates canned responses based on
// the request.
type MockClient struct {
	mu       sync.Mutex
	scripted []*domain.CreateResult
	calls    int
	usage    domain.Usage
}

// Ensure MockClient implements ModelClient.
var _ ModelClient = (*MockClient)(nil)

// NewMockClient creates a mock client with optional scripted results.
func NewMockClient(scripted ...*domain.CreateResult) *MockClient {
	return &MockClient{scripted: scripted}
}

// Calls reports how many Create calls the mock has served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Create returns the next scripted result, or a generated mock response.
func (m *MockClient) Create(ctx context.Context, messages []domain.Message, specs []tools.Spec) (*domain.CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	var result *domain.CreateResult
	if len(m.scripted) > 0 {
		result = m.scripted[0]
		m.scripted = m.scripted[1:]
	} else {
		result = m.generate(messages, specs)
	}

	m.usage.PromptTokens += result.Usage.PromptTokens
	m.usage.CompletionTokens += result.Usage.CompletionTokens
	return result, nil
}

// CreateStream emits the full mock result as a single final chunk.
func (m *MockClient) CreateStream(ctx context.Context, messages []domain.Message, specs []tools.Spec, cb StreamCallback) (*domain.CreateResult, error) {
	result, err := m.Create(ctx, messages, specs)
	if err != nil {
		return nil, err
	}
	if cb != nil {
		if err := cb(StreamChunk{Content: result.Content, Final: true}); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// TotalUsage reports accumulated mock token usage.
func (m *MockClient) TotalUsage() domain.Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

func (m *MockClient) generate(messages []domain.Message, specs []tools.Spec) *domain.CreateResult {
	// With capabilities bound and no tool result in context yet, exercise
	// the tool round-trip once.
	if len(specs) > 0 && !hasToolResult(messages) {
		args, _ := json.Marshal(map[string]string{"query": lastUserContent(messages)})
		return &domain.CreateResult{
			ToolCalls: []domain.ToolCall{{
				ID:        uuid.NewString(),
				Name:      specs[0].Name,
				Arguments: args,
			}},
			FinishReason: domain.FinishReasonStop,
			Usage:        domain.Usage{PromptTokens: estimateTokens(messages), CompletionTokens: 8},
		}
	}

	content := fmt.Sprintf("[MOCK] Received %d messages. This is a mock response.", len(messages))
	if last := lastUserContent(messages); last != "" {
		content = fmt.Sprintf("[MOCK] Responding to: %q", truncateMock(last, 100))
	}
	return &domain.CreateResult{
		Content:      content,
		FinishReason: domain.FinishReasonStop,
		Usage:        domain.Usage{PromptTokens: estimateTokens(messages), CompletionTokens: len(content) / 4},
	}
}

// ErrorClient is a ModelClient that fails every call with a fixed error.
// Used to exercise failure paths in tests.
type ErrorClient struct {
	err error
}

var _ ModelClient = (*ErrorClient)(nil)

// NewErrorClient creates a client that always returns err.
func NewErrorClient(err error) *ErrorClient {
	return &ErrorClient{err: err}
}

func (e *ErrorClient) Create(ctx context.Context, messages []domain.Message, specs []tools.Spec) (*domain.CreateResult, error) {
	return nil, e.err
}

func (e *ErrorClient) CreateStream(ctx context.Context, messages []domain.Message, specs []tools.Spec, cb StreamCallback) (*domain.CreateResult, error) {
	return nil, e.err
}

func (e *ErrorClient) TotalUsage() domain.Usage {
	return domain.Usage{}
}

func hasToolResult(messages []domain.Message) bool {
	for _, msg := range messages {
		if msg.Role == domain.RoleTool {
			return true
		}
	}
	return false
}

func lastUserContent(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func estimateTokens(messages []domain.Message) int {
	total := 0
	for _, msg := range messages {
		total += len(msg.Content) / 4
	}
	return total
}

func truncateMock(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
