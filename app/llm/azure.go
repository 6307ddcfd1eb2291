package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/clipvault/clipvault/app/extract"
)

const azureAPIVersion = "2024-02-15-preview"

// AzureProvider talks to an Azure OpenAI deployment. Same response shape as
// OpenAI, but the URL is deployment-scoped and auth uses the api-key header.
type AzureProvider struct {
	apiKey     string
	endpoint   string
	deployment string
	httpClient *http.Client
}

func NewAzureProvider(apiKey, endpoint, deployment string) *AzureProvider {
	return &AzureProvider{
		apiKey:     apiKey,
		endpoint:   endpoint,
		deployment: deployment,
		httpClient: newHTTPClient(),
	}
}

func (p *AzureProvider) Name() string { return "azure" }

func (p *AzureProvider) url() string {
	base := strings.TrimSuffix(p.endpoint, "/")
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		base, p.deployment, azureAPIVersion)
}

func (p *AzureProvider) Summarize(ctx context.Context, content *extract.ExtractedContent) (string, error) {
	return p.chat(ctx, summarySystemPrompt, summaryUserMessage(content), summaryTemperature, summaryMaxTokens)
}

func (p *AzureProvider) ExtractTags(ctx context.Context, content *extract.ExtractedContent, maxTags int) ([]string, error) {
	text, err := p.chat(ctx, tagSystemPrompt, tagUserMessage(content, maxTags), tagTemperature, tagMaxTokens)
	if err != nil {
		return nil, err
	}
	return ParseTags(text, maxTags), nil
}

func (p *AzureProvider) chat(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	// The deployment in the URL selects the model, so the body omits it.
	body := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	headers := map[string]string{"api-key": p.apiKey}

	respBody, err := postJSON(ctx, p.httpClient, p.Name(), p.url(), headers, body)
	if err != nil {
		return "", err
	}

	return parseChatResponse(p.Name(), respBody)
}
