package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonwraymond/agentops/faults"
)

const openAICompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4-turbo",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "NPS is 42"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
}`

const anthropicMessage = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-sonnet-latest",
  "content": [{"type": "text", "text": "NPS is "}, {"type": "text", "text": "42"}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 3}
}`

type capturedRequest struct {
	path   string
	header http.Header
	body   map[string]any
}

func providerServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestNewClients_Validation(t *testing.T) {
	if _, err := NewOpenAIClient(Options{Model: "gpt-4-turbo"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("openai without key: %v", err)
	}
	if _, err := NewOpenAIClient(Options{APIKey: "k"}); !errors.Is(err, ErrMissingModel) {
		t.Errorf("openai without model: %v", err)
	}
	if _, err := NewAnthropicClient(Options{Model: "claude"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("anthropic without key: %v", err)
	}
	if _, err := NewAnthropicClient(Options{APIKey: "k"}); !errors.Is(err, ErrMissingModel) {
		t.Errorf("anthropic without model: %v", err)
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv, got := providerServer(t, http.StatusOK, openAICompletion)
	c, err := NewOpenAIClient(Options{APIKey: "sk-test", Model: "gpt-4-turbo", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Generate(context.Background(), Request{System: "You analyze NPS surveys.", Prompt: "score?"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "NPS is 42" || resp.Provider != ProviderOpenAI || resp.Model != "gpt-4-turbo" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Usage.TotalTokens != 16 || resp.Usage.PromptTokens != 12 {
		t.Errorf("usage = %+v", resp.Usage)
	}

	if !strings.HasSuffix(got.path, "/chat/completions") {
		t.Errorf("path = %q", got.path)
	}
	if auth := got.header.Get("Authorization"); auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.body["model"] != "gpt-4-turbo" || got.body["temperature"] != 0.1 {
		t.Errorf("request body = %v", got.body)
	}
	if msgs, _ := got.body["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v, want system and user", got.body["messages"])
	}
}

func TestOpenAIClient_AuthFailure(t *testing.T) {
	srv, _ := providerServer(t, http.StatusUnauthorized, `{"error": {"message": "Incorrect API key", "type": "invalid_request_error"}}`)
	c, _ := NewOpenAIClient(Options{APIKey: "bad", Model: "gpt-4-turbo", BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), Request{Prompt: "score?"})
	if faults.CategoryOf(err) != faults.CategoryConfiguration || !faults.IsCritical(err) {
		t.Errorf("error = %v (%s), want critical configuration error", err, faults.CategoryOf(err))
	}
}

func TestOpenAIClient_EmptyPrompt(t *testing.T) {
	c, _ := NewOpenAIClient(Options{APIKey: "k", Model: "gpt-4-turbo", BaseURL: "http://127.0.0.1:1"})
	_, err := c.Generate(context.Background(), Request{})
	if !faults.IsValidation(err) || !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("error = %v, want validation wrapping ErrEmptyPrompt", err)
	}
}

func TestAnthropicClient_Generate(t *testing.T) {
	srv, got := providerServer(t, http.StatusOK, anthropicMessage)
	c, err := NewAnthropicClient(Options{APIKey: "ak-test", Model: "claude-3-5-sonnet-latest", BaseURL: srv.URL, MaxTokens: 512})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Generate(context.Background(), Request{System: "You analyze NPS surveys.", Prompt: "score?"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "NPS is 42" || resp.Provider != ProviderAnthropic {
		t.Errorf("response = %+v", resp)
	}
	if resp.Usage.TotalTokens != 13 {
		t.Errorf("usage = %+v", resp.Usage)
	}

	if !strings.HasSuffix(got.path, "/v1/messages") {
		t.Errorf("path = %q", got.path)
	}
	if key := got.header.Get("X-Api-Key"); key != "ak-test" {
		t.Errorf("X-Api-Key = %q", key)
	}
	if got.body["max_tokens"] != float64(512) || got.body["system"] == nil {
		t.Errorf("request body = %v", got.body)
	}
}

func TestAnthropicClient_ServerError(t *testing.T) {
	srv, _ := providerServer(t, http.StatusServiceUnavailable, `{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`)
	c, _ := NewAnthropicClient(Options{APIKey: "k", Model: "claude-3-5-sonnet-latest", BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), Request{Prompt: "score?"})
	if faults.CategoryOf(err) != faults.CategoryLLMAPIFailure {
		t.Errorf("category = %q, want llm_api_failure", faults.CategoryOf(err))
	}
	if ec := faults.Classify(err); ec.ContextData["status_code"] != 503 {
		t.Errorf("status_code = %v", ec.ContextData["status_code"])
	}
}
