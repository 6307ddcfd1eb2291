package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/clipvault/clipvault/app/errs"
	"github.com/clipvault/clipvault/app/extract"
)

const (
	openAIEndpoint     = "https://api.openai.com/v1/chat/completions"
	openAIDefaultModel = "gpt-4o-mini"
)

// OpenAI-style chat completion wire types, shared by the OpenAI, Azure and
// custom adapters.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIProvider talks to the OpenAI chat completions API with bearer auth.
type OpenAIProvider struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = openAIDefaultModel
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		model:      model,
		endpoint:   openAIEndpoint,
		httpClient: newHTTPClient(),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Summarize(ctx context.Context, content *extract.ExtractedContent) (string, error) {
	return p.chat(ctx, summarySystemPrompt, summaryUserMessage(content), summaryTemperature, summaryMaxTokens)
}

func (p *OpenAIProvider) ExtractTags(ctx context.Context, content *extract.ExtractedContent, maxTags int) ([]string, error) {
	text, err := p.chat(ctx, tagSystemPrompt, tagUserMessage(content, maxTags), tagTemperature, tagMaxTokens)
	if err != nil {
		return nil, err
	}
	return ParseTags(text, maxTags), nil
}

func (p *OpenAIProvider) chat(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	respBody, err := postJSON(ctx, p.httpClient, p.Name(), p.endpoint, headers, body)
	if err != nil {
		return "", err
	}

	return parseChatResponse(p.Name(), respBody)
}

// postJSON sends a JSON request and returns the raw response body. Transport
// failures and non-2xx statuses become LlmErrors; the upstream error message
// is surfaced when the body carries one, else the HTTP status text.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any) ([]byte, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &errs.LlmError{Provider: provider, Kind: errs.LlmTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.LlmError{Provider: provider, Kind: errs.LlmTransport, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := resp.Status
		var upstream apiError
		if json.Unmarshal(respBody, &upstream) == nil && upstream.Error.Message != "" {
			message = upstream.Error.Message
		}
		return nil, &errs.LlmError{Provider: provider, Kind: errs.LlmStatus, StatusCode: resp.StatusCode, Message: message}
	}

	return respBody, nil
}

func parseChatResponse(provider string, respBody []byte) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Choices) == 0 {
		return "", &errs.LlmError{Provider: provider, Kind: errs.LlmFormat, Message: "missing choices in response"}
	}
	return parsed.Choices[0].Message.Content, nil
}
