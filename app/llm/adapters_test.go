package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipvault/clipvault/app/errs"
	"github.com/clipvault/clipvault/app/extract"
)

func testContent() *extract.ExtractedContent {
	return &extract.ExtractedContent{
		Title: "Test Article",
		Text:  "Article body text for summarization.",
		URL:   "https://example.com/article",
	}
}

func TestOpenAIProvider_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Expected bearer auth, got %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("Expected default model, got %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("Expected system+user messages, got %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "A concise summary."}},
			},
		})
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", "")
	provider.endpoint = server.URL

	summary, err := provider.Summarize(context.Background(), testContent())
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "A concise summary." {
		t.Errorf("Unexpected summary: %q", summary)
	}
}

func TestOpenAIProvider_SurfacesUpstreamErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Incorrect API key provided"},
		})
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-bad", "")
	provider.endpoint = server.URL

	_, err := provider.Summarize(context.Background(), testContent())
	if err == nil {
		t.Fatal("Expected an error for HTTP 401")
	}

	var llmErr *errs.LlmError
	if !errors.As(err, &llmErr) {
		t.Fatalf("Expected LlmError, got %T", err)
	}
	if llmErr.Kind != errs.LlmStatus || llmErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status error with 401, got kind=%s status=%d", llmErr.Kind, llmErr.StatusCode)
	}
	if llmErr.Message != "Incorrect API key provided" {
		t.Errorf("Expected upstream message surfaced, got %q", llmErr.Message)
	}
}

func TestOpenAIProvider_StatusTextWhenNoErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", "")
	provider.endpoint = server.URL

	_, err := provider.Summarize(context.Background(), testContent())

	var llmErr *errs.LlmError
	if !errors.As(err, &llmErr) {
		t.Fatalf("Expected LlmError, got %v", err)
	}
	if llmErr.Message == "" {
		t.Error("Expected status text fallback in error message")
	}
}

func TestOpenAIProvider_TransportError(t *testing.T) {
	provider := NewOpenAIProvider("sk-test", "")
	provider.endpoint = "http://127.0.0.1:1" // nothing listens here

	_, err := provider.Summarize(context.Background(), testContent())

	var llmErr *errs.LlmError
	if !errors.As(err, &llmErr) {
		t.Fatalf("Expected LlmError, got %v", err)
	}
	if llmErr.Kind != errs.LlmTransport {
		t.Errorf("Expected transport error kind, got %s", llmErr.Kind)
	}
}

func TestAzureProvider_DeploymentScopedURLAndHeader(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "azure summary"}},
			},
		})
	}))
	defer server.Close()

	provider := NewAzureProvider("azure-key", server.URL+"/", "gpt4-deploy")

	summary, err := provider.Summarize(context.Background(), testContent())
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "azure summary" {
		t.Errorf("Unexpected summary: %q", summary)
	}
	if gotPath != "/openai/deployments/gpt4-deploy/chat/completions" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if gotQuery != "api-version="+azureAPIVersion {
		t.Errorf("Unexpected query: %s", gotQuery)
	}
	if gotKey != "azure-key" {
		t.Errorf("Expected api-key header, got %q", gotKey)
	}
}

func TestAnthropicProvider_HeadersAndResponsePath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "ant-key" {
			t.Errorf("Expected x-api-key header, got %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("Expected version header, got %q", got)
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("Expected a single user message, got %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "tag1,tag2,tag3"}},
		})
	}))
	defer server.Close()

	provider := NewAnthropicProvider("ant-key", "")
	provider.endpoint = server.URL

	tags, err := provider.ExtractTags(context.Background(), testContent(), 2)
	if err != nil {
		t.Fatalf("ExtractTags failed: %v", err)
	}
	if len(tags) != 2 || tags[0] != "tag1" || tags[1] != "tag2" {
		t.Errorf("Unexpected tags: %v", tags)
	}
}

func TestCustomProvider_ShapeProbing(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "openai shape",
			body: `{"choices":[{"message":{"role":"assistant","content":"from choices"}}]}`,
			want: "from choices",
		},
		{
			name: "response field",
			body: `{"response":"from response"}`,
			want: "from response",
		},
		{
			name: "text field",
			body: `{"text":"from text"}`,
			want: "from text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "" {
					t.Errorf("Expected no auth header without API key, got %q", got)
				}
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewCustomProvider(server.URL, "", "llama3")

			summary, err := provider.Summarize(context.Background(), testContent())
			if err != nil {
				t.Fatalf("Summarize failed: %v", err)
			}
			if summary != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, summary)
			}
		})
	}
}

func TestCustomProvider_UnknownShapeFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"unexpected":"shape"}}`))
	}))
	defer server.Close()

	provider := NewCustomProvider(server.URL, "token", "llama3")

	_, err := provider.Summarize(context.Background(), testContent())
	if err == nil {
		t.Fatal("Expected a response format error")
	}

	var formatErr *errs.ResponseFormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("Expected ResponseFormatError, got %T: %v", err, err)
	}
}

func TestCustomProvider_SendsBearerWhenKeySet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	provider := NewCustomProvider(server.URL, "token", "llama3")
	if _, err := provider.Summarize(context.Background(), testContent()); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
}
