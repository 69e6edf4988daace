package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/domain"
	"github.com/lexcouncil/lexcouncil/internal/tools"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient adapts the native Gemini generateContent API to the
// ModelClient contract.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	sleep      sleepFunc

	promptTokens     atomic.Int64
	completionTokens atomic.Int64
}

// Ensure GeminiClient implements ModelClient.
var _ ModelClient = (*GeminiClient)(nil)

// NewGeminiClient creates a native Gemini client. An empty baseURL selects
// the public endpoint.
func NewGeminiClient(baseURL, apiKey, model string, timeout time.Duration) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiFunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"function_declarations"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiTool    `json:"tools,omitempty"`
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata"`
}

// Create sends a generateContent request, retrying on throttling per the
// backoff policy.
func (c *GeminiClient) Create(ctx context.Context, messages []domain.Message, specs []tools.Spec) (*domain.CreateResult, error) {
	payload := c.buildPayload(messages, specs)

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

	result, err := c.parseResponse(raw)
	if err != nil {
		return nil, err
	}

	c.promptTokens.Add(int64(result.Usage.PromptTokens))
	c.completionTokens.Add(int64(result.Usage.CompletionTokens))
	return result, nil
}

// CreateStream gathers the full result and emits it as a single final
// chunk, preserving ordering with the non-streaming path.
func (c *GeminiClient) CreateStream(ctx context.Context, messages []domain.Message, specs []tools.Spec, cb StreamCallback) (*domain.CreateResult, error) {
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
func (c *GeminiClient) TotalUsage() domain.Usage {
	return domain.Usage{
		PromptTokens:     int(c.promptTokens.Load()),
		CompletionTokens: int(c.completionTokens.Load()),
	}
}

func (c *GeminiClient) buildPayload(messages []domain.Message, specs []tools.Spec) geminiRequest {
	var systemParts []string
	contents := make([]geminiContent, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			// Gemini wants system text in a dedicated instruction channel,
			// not inline in the contents list.
			if msg.Content != "" {
				systemParts = append(systemParts, msg.Content)
			}
		case domain.RoleAssistant:
			parts := make([]geminiPart, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				parts = append(parts, geminiPart{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, geminiPart{FunctionCall: &geminiFunctionCall{Name: call.Name, Args: call.Arguments}})
			}
			if len(parts) == 0 {
				parts = append(parts, geminiPart{Text: ""})
			}
			contents = append(contents, geminiContent{Role: "model", Parts: parts})
		case domain.RoleTool:
			contents = append(contents, geminiContent{
				Role: "user",
				Parts: []geminiPart{{FunctionResponse: &geminiFunctionResponse{
					Name:     msg.Source,
					Response: map[string]any{"content": msg.Content},
				}}},
			})
		default:
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}

	req := geminiRequest{Contents: contents}

	if len(specs) > 0 {
		decls := make([]geminiFunctionDeclaration, 0, len(specs))
		for _, spec := range specs {
			decls = append(decls, geminiFunctionDeclaration{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  cleanSchema(spec.Parameters),
			})
		}
		req.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}

	if len(systemParts) > 0 {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: strings.Join(systemParts, "\n\n")}}}
	}

	return req
}

// call issues one transport attempt. A throttling status becomes a
// RateLimitError so the retry layer can absorb it; any other failure is a
// BackendError.
func (c *GeminiClient) call(ctx context.Context, body []byte) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.BackendError{Message: "create request: " + err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

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
	if resp.StatusCode >= http.StatusBadRequest {
		log.Error().Int("status", resp.StatusCode).Str("body", truncateForLog(respBody)).Msg("gemini: error response")
		return nil, &domain.BackendError{Status: resp.StatusCode, Message: string(respBody)}
	}

	return respBody, nil
}

func (c *GeminiClient) parseResponse(raw []byte) (*domain.CreateResult, error) {
	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &domain.ProtocolError{Message: "unmarshal response: " + err.Error(), Raw: raw}
	}
	if len(parsed.Candidates) == 0 {
		return nil, &domain.ProtocolError{Message: "response has no candidates", Raw: raw}
	}

	candidate := parsed.Candidates[0]

	var content strings.Builder
	var toolCalls []domain.ToolCall
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			content.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			// Gemini does not assign call IDs; mint one per call so the
			// agent can correlate results.
			toolCalls = append(toolCalls, domain.ToolCall{
				ID:        uuid.NewString(),
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}

	result := &domain.CreateResult{
		Content:      content.String(),
		ToolCalls:    toolCalls,
		FinishReason: mapGeminiFinishReason(candidate.FinishReason),
	}
	if parsed.UsageMetadata != nil {
		result.Usage = domain.Usage{
			PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
			CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
		}
	}
	return result, nil
}

func mapGeminiFinishReason(reason string) domain.FinishReason {
	switch reason {
	case "MAX_TOKENS":
		return domain.FinishReasonLength
	case "SAFETY", "RECITATION":
		return domain.FinishReasonContentFilter
	default:
		return domain.FinishReasonStop
	}
}

// cleanSchema recursively strips schema metadata Gemini rejects: title,
// additionalProperties, and strict. Nested schemas are cleaned too.
func cleanSchema(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	out, err := json.Marshal(stripSchemaKeys(v))
	if err != nil {
		return raw
	}
	return out
}

func stripSchemaKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if k == "title" || k == "additionalProperties" || k == "strict" {
				continue
			}
			out[k] = stripSchemaKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = stripSchemaKeys(val)
		}
		return out
	default:
		return v
	}
}

func truncateForLog(body []byte) string {
	const maxLen = 500
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "..."
}
