package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lexcouncil/lexcouncil/internal/domain"
	"github.com/lexcouncil/lexcouncil/internal/tools"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestOpenAICreate(t *testing.T) {
	var gotReq openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message":       map[string]interface{}{"role": "assistant", "content": "answer"},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "test-key", "gpt-4o-mini", 5*time.Second)
	result, err := client.Create(context.Background(), []domain.Message{
		{Source: "planner", Role: domain.RoleSystem, Content: "instructions"},
		{Source: "user", Role: domain.RoleUser, Content: "Q"},
	}, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if result.Content != "answer" || result.FinishReason != domain.FinishReasonStop {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Usage.PromptTokens != 10 || result.Usage.CompletionTokens != 5 {
		t.Fatalf("unexpected usage: %+v", result.Usage)
	}
	if gotReq.Model != "gpt-4o-mini" || len(gotReq.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", gotReq)
	}
	if gotReq.Messages[0].Role != "system" {
		t.Fatalf("system message not forwarded: %+v", gotReq.Messages[0])
	}

	total := client.TotalUsage()
	if total.PromptTokens != 10 || total.CompletionTokens != 5 {
		t.Fatalf("usage not accumulated: %+v", total)
	}
}

func TestOpenAIToolWireFormat(t *testing.T) {
	var gotReq openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message": map[string]interface{}{
					"role": "assistant",
					"tool_calls": []map[string]interface{}{{
						"id":   "call_abc",
						"type": "function",
						"function": map[string]string{
							"name":      "evidence.search",
							"arguments": `{"query":"mining law"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "k", "m", 5*time.Second)
	specs := []tools.Spec{{Name: "evidence.search", Description: "search", Parameters: json.RawMessage(`{"type":"object"}`)}}
	messages := []domain.Message{
		{Source: "user", Role: domain.RoleUser, Content: "Q"},
		{Source: "retriever", Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{
			{ID: "prev_call", Name: "evidence.search", Arguments: json.RawMessage(`{"query":"old"}`)},
		}},
		{Source: "evidence.search", Role: domain.RoleTool, Content: "results", CalledID: "prev_call"},
	}

	result, err := client.Create(context.Background(), messages, specs)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Tool declarations go out as function tools.
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].Type != "function" || gotReq.Tools[0].Function.Name != "evidence.search" {
		t.Fatalf("tool spec not forwarded: %+v", gotReq.Tools)
	}
	// Assistant tool calls and tool results keep their correlation IDs.
	if len(gotReq.Messages[1].ToolCalls) != 1 || gotReq.Messages[1].ToolCalls[0].ID != "prev_call" {
		t.Fatalf("assistant tool call not forwarded: %+v", gotReq.Messages[1])
	}
	if gotReq.Messages[2].Role != "tool" || gotReq.Messages[2].ToolCallID != "prev_call" {
		t.Fatalf("tool result not correlated: %+v", gotReq.Messages[2])
	}
	// Incoming tool calls parse into domain tool calls.
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].ID != "call_abc" || result.ToolCalls[0].Name != "evidence.search" {
		t.Fatalf("unexpected tool calls: %+v", result.ToolCalls)
	}
}

func TestOpenAIRetriesOnTooManyRequests(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message":       map[string]interface{}{"role": "assistant", "content": "ok"},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "k", "m", 5*time.Second)
	client.sleep = noSleep

	result, err := client.Create(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "Q"}}, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 transport calls, got %d", calls)
	}
	if result.Content != "ok" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestOpenAIRateLimitExhaustion(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "k", "m", 5*time.Second)
	client.sleep = noSleep

	_, err := client.Create(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "Q"}}, nil)
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if calls != 5 {
		t.Fatalf("expected 5 attempts, got %d", calls)
	}
	var backendErr *domain.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %T", err)
	}
	var rateErr *domain.RateLimitError
	if !errors.As(err, &rateErr) || rateErr.RetryAfter != "30" {
		t.Fatalf("expected wrapped rate-limit error with Retry-After, got %v", err)
	}
}

func TestOpenAIServerErrorNoRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "k", "m", 5*time.Second)
	client.sleep = noSleep

	_, err := client.Create(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "Q"}}, nil)
	var backendErr *domain.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.Status != http.StatusInternalServerError || backendErr.Message != "upstream exploded" {
		t.Fatalf("unexpected backend error: %+v", backendErr)
	}
	if calls != 1 {
		t.Fatalf("server errors must not retry, got %d calls", calls)
	}
}

func TestOpenAIMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "k", "m", 5*time.Second)
	_, err := client.Create(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "Q"}}, nil)
	var protoErr *domain.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError for empty choices, got %v", err)
	}
}
