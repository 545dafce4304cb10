package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionResponse(content string) map[string]any {
	return map[string]any{
		"id":    "cmpl-1",
		"model": "test-model",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func TestChatCompletionSendsRequest(t *testing.T) {
	var captured Request
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		authHeader = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(completionResponse("hello"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret-key", BaseURL: server.URL, Model: "test-model"})

	resp, err := client.ChatCompletion(context.Background(), []Message{
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}

	if authHeader != "Bearer secret-key" {
		t.Errorf("Authorization = %q", authHeader)
	}
	if captured.Model != "test-model" {
		t.Errorf("Model = %q, want test-model", captured.Model)
	}
	if captured.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want default 0.3", captured.Temperature)
	}
	if captured.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want default 4096", captured.MaxTokens)
	}
	if resp.ExtractContent() != "hello" {
		t.Errorf("ExtractContent() = %q", resp.ExtractContent())
	}
}

func TestStructuredCompletionSetsSchema(t *testing.T) {
	var captured Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(completionResponse(`{"x": 1}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer"},
		},
	}

	content, err := client.StructuredCompletion(context.Background(), "system", "user", "result", "a result", schema)
	if err != nil {
		t.Fatalf("StructuredCompletion failed: %v", err)
	}
	if content != `{"x": 1}` {
		t.Errorf("content = %q", content)
	}

	if captured.ResponseFormat == nil {
		t.Fatal("ResponseFormat not set")
	}
	if captured.ResponseFormat.Type != ResponseFormatJSONSchema {
		t.Errorf("format type = %q, want json_schema", captured.ResponseFormat.Type)
	}
	if captured.ResponseFormat.JSONSchema == nil || captured.ResponseFormat.JSONSchema.Name != "result" {
		t.Errorf("schema = %+v", captured.ResponseFormat.JSONSchema)
	}
	if !captured.ResponseFormat.JSONSchema.Strict {
		t.Error("schema not strict")
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestChatCompletionAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestClientDefaults(t *testing.T) {
	client := NewClient(Config{APIKey: "k"})
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
	if client.model != DefaultModel {
		t.Errorf("model = %q, want %q", client.model, DefaultModel)
	}
}
