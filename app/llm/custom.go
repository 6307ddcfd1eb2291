package llm

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clipvault/clipvault/app/errs"
	"github.com/clipvault/clipvault/app/extract"
)

// CustomProvider targets a user-supplied OpenAI-compatible endpoint such as a
// local inference server. Auth is optional bearer. Because local servers vary,
// the response is probed against an ordered list of known shapes; the first
// match wins.
type CustomProvider struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewCustomProvider(endpoint, apiKey, model string) *CustomProvider {
	return &CustomProvider{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: newHTTPClient(),
	}
}

func (p *CustomProvider) Name() string { return "custom" }

func (p *CustomProvider) Summarize(ctx context.Context, content *extract.ExtractedContent) (string, error) {
	return p.chat(ctx, summarySystemPrompt, summaryUserMessage(content), summaryTemperature, summaryMaxTokens)
}

func (p *CustomProvider) ExtractTags(ctx context.Context, content *extract.ExtractedContent, maxTags int) ([]string, error) {
	text, err := p.chat(ctx, tagSystemPrompt, tagUserMessage(content, maxTags), tagTemperature, tagMaxTokens)
	if err != nil {
		return nil, err
	}
	return ParseTags(text, maxTags), nil
}

func (p *CustomProvider) chat(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	respBody, err := postJSON(ctx, p.httpClient, p.Name(), p.endpoint, headers, body)
	if err != nil {
		return "", err
	}

	return parseAnyShape(respBody)
}

// shapeMatchers is the ordered list of response shapes a custom endpoint may
// return. Each returns ("", false) when the shape does not match.
var shapeMatchers = []func(data []byte) (string, bool){
	matchOpenAIShape,
	matchResponseField,
	matchTextField,
}

func parseAnyShape(respBody []byte) (string, error) {
	for _, match := range shapeMatchers {
		if text, ok := match(respBody); ok {
			return text, nil
		}
	}
	return "", &errs.ResponseFormatError{Provider: "custom"}
}

func matchOpenAIShape(data []byte) (string, bool) {
	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil || len(parsed.Choices) == 0 {
		return "", false
	}
	if parsed.Choices[0].Message.Content == "" {
		return "", false
	}
	return parsed.Choices[0].Message.Content, true
}

func matchResponseField(data []byte) (string, bool) {
	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Response == "" {
		return "", false
	}
	return parsed.Response, true
}

func matchTextField(data []byte) (string, bool) {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Text == "" {
		return "", false
	}
	return parsed.Text, true
}
