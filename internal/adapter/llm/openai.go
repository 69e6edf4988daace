package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lexcouncil/lexcouncil/internal/domain"
	"github.com/lexcouncil/lexcouncil/internal/tools"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAIClient adapts any OpenAI-compatible chat-completions backend to the
// ModelClient contract.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	sleep      sleepFunc

	promptTokens     atomic.Int64
	completionTokens atomic.Int64
}

// Ensure OpenAIClient implements ModelClient.
var _ ModelClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI-compatible client. An empty baseURL
// selects the public API.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiTool struct {
	Type     string             `json:"type"`
	Function openaiToolFunction `json:"function"`
}

type openaiToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type openaiToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openaiCallFunction `json:"function"`
}

type openaiCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	Tools       []openaiTool    `json:"tools,omitempty"`
}

type openaiChoice struct {
	Index        int            `json:"index"`
	Message      *openaiMessage `json:"message,omitempty"`
	FinishReason string         `json:"finish_reason,omitempty"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   *openaiUsage   `json:"usage,omitempty"`
}

type openaiErrorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Create sends a chat completion request, retrying on throttling per the
// backoff policy.
func (c *OpenAIClient) Create(ctx context.Context, messages []domain.Message, specs []tools.Spec) (*domain.CreateResult, error) {
	payload := openaiRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	}
	for _, spec := range specs {
		payload.Tools = append(payload.Tools, openaiTool{
			Type: "function",
			Function: openaiToolFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.BackendError{Message: "marshal request: " + err.Error(), Err: err}
	}

	var raw []byte
	err = withRetry(ctx, c.sleep, func() error {
		var callErr error
		raw, callErr = c.call(ctx, body)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	result, err := parseOpenAIResponse(raw)
	if err != nil {
		return nil, err
	}

	c.promptTokens.Add(int64(result.Usage.PromptTokens))
	c.completionTokens.Add(int64(result.Usage.CompletionTokens))
	return result, nil
}

// CreateStream gathers the full result and emits it as a single final
// chunk, preserving ordering with the non-streaming path.
func (c *OpenAIClient) CreateStream(ctx context.Context, messages []domain.Message, specs []tools.Spec, cb StreamCallback) (*domain.CreateResult, error) {
	result, err := c.Create(ctx, messages, specs)
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

// TotalUsage reports accumulated token usage across all calls.
func (c *OpenAIClient) TotalUsage() domain.Usage {
	return domain.Usage{
		PromptTokens:     int(c.promptTokens.Load()),
		CompletionTokens: int(c.completionTokens.Load()),
	}
}

func toOpenAIMessages(messages []domain.Message) []openaiMessage {
	out := make([]openaiMessage, 0, len(messages))
	for _, msg := range messages {
		m := openaiMessage{Role: string(msg.Role), Content: msg.Content}
		switch msg.Role {
		case domain.RoleTool:
			m.ToolCallID = msg.CalledID
		case domain.RoleAssistant:
			for _, call := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, openaiToolCall{
					ID:   call.ID,
					Type: "function",
					Function: openaiCallFunction{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				})
			}
		}
		out = append(out, m)
	}
	return out
}

func (c *OpenAIClient) call(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &domain.BackendError{Message: "create request: " + err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.BackendError{Message: "send request: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.BackendError{Status: resp.StatusCode, Message: "read response: " + err.Error(), Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &domain.RateLimitError{RetryAfter: resp.Header.Get("Retry-After")}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp openaiErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return nil, &domain.BackendError{Status: resp.StatusCode, Message: errResp.Error.Message}
		}
		return nil, &domain.BackendError{Status: resp.StatusCode, Message: string(respBody)}
	}

	return respBody, nil
}

func parseOpenAIResponse(raw []byte) (*domain.CreateResult, error) {
	var parsed openaiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &domain.ProtocolError{Message: "unmarshal response: " + err.Error(), Raw: raw}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return nil, &domain.ProtocolError{Message: "response has no choices", Raw: raw}
	}

	choice := parsed.Choices[0]

	var toolCalls []domain.ToolCall
	for _, call := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, domain.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}

	result := &domain.CreateResult{
		Content:      choice.Message.Content,
		ToolCalls:    toolCalls,
		FinishReason: mapOpenAIFinishReason(choice.FinishReason),
	}
	if parsed.Usage != nil {
		result.Usage = domain.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		}
	}
	return result, nil
}

func mapOpenAIFinishReason(reason string) domain.FinishReason {
	switch reason {
	case "length":
		return domain.FinishReasonLength
	case "content_filter":
		return domain.FinishReasonContentFilter
	default:
		return domain.FinishReasonStop
	}
}
