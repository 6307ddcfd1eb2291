package llm

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clipvault/clipvault/app/errs"
	"github.com/clipvault/clipvault/app/extract"
)

const (
	anthropicEndpoint     = "https://api.anthropic.com/v1/messages"
	anthropicVersion      = "2023-06-01"
	anthropicDefaultModel = "claude-3-haiku-20240307"
)

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// AnthropicProvider talks to the Anthropic messages API: x-api-key auth, a
// flat message list with the system instruction folded into the user turn,
// and content[0].text as the payload path.
type AnthropicProvider struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = anthropicDefaultModel
	}
	return &AnthropicProvider{
		apiKey:     apiKey,
		model:      model,
		endpoint:   anthropicEndpoint,
		httpClient: newHTTPClient(),
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Summarize(ctx context.Context, content *extract.ExtractedContent) (string, error) {
	return p.chat(ctx, summarySystemPrompt+"\n\n"+summaryUserMessage(content), summaryMaxTokens)
}

func (p *AnthropicProvider) ExtractTags(ctx context.Context, content *extract.ExtractedContent, maxTags int) ([]string, error) {
	text, err := p.chat(ctx, tagSystemPrompt+"\n\n"+tagUserMessage(content, maxTags), tagMaxTokens)
	if err != nil {
		return nil, err
	}
	return ParseTags(text, maxTags), nil
}

func (p *AnthropicProvider) chat(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body := anthropicRequest{
		Model:     p.model,
		MaxTokens: maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	respBody, err := postJSON(ctx, p.httpClient, p.Name(), p.endpoint, headers, body)
	if err != nil {
		return "", err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Content) == 0 {
		return "", &errs.LlmError{Provider: p.Name(), Kind: errs.LlmFormat, Message: "missing content in response"}
	}

	return parsed.Content[0].Text, nil
}
