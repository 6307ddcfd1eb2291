package llm

import (
	"context"

	"github.com/clipvault/clipvault/app/config"
	"github.com/clipvault/clipvault/app/errs"
	"github.com/clipvault/clipvault/app/extract"
)

// Service validates the active provider configuration and delegates to the
// matching adapter. Selection is a total mapping from kind to adapter; an
// unrecognized kind is a configuration error, not a panic.
type Service struct {
	provider Provider
}

func NewService(llm *config.LlmProvider) (*Service, error) {
	if llm == nil {
		return nil, &errs.ConfigError{Message: "no LLM provider configured"}
	}

	provider, err := buildProvider(llm)
	if err != nil {
		return nil, err
	}

	return &Service{provider: provider}, nil
}

func buildProvider(llm *config.LlmProvider) (Provider, error) {
	switch llm.Kind {
	case config.KindOpenAI:
		if llm.APIKey == "" {
			return nil, &errs.ConfigError{Field: "api_key", Message: "OpenAI API key is required"}
		}
		return NewOpenAIProvider(llm.APIKey, llm.Model), nil

	case config.KindAzure:
		if llm.APIKey == "" {
			return nil, &errs.ConfigError{Field: "api_key", Message: "Azure OpenAI API key is required"}
		}
		if llm.Endpoint == "" {
			return nil, &errs.ConfigError{Field: "endpoint", Message: "Azure endpoint is required"}
		}
		if llm.Deployment == "" {
			return nil, &errs.ConfigError{Field: "deployment", Message: "Azure deployment name is required"}
		}
		return NewAzureProvider(llm.APIKey, llm.Endpoint, llm.Deployment), nil

	case config.KindAnthropic:
		if llm.APIKey == "" {
			return nil, &errs.ConfigError{Field: "api_key", Message: "Anthropic API key is required"}
		}
		return NewAnthropicProvider(llm.APIKey, llm.Model), nil

	case config.KindCustom:
		if llm.Endpoint == "" {
			return nil, &errs.ConfigError{Field: "endpoint", Message: "custom API endpoint is required"}
		}
		if llm.Model == "" {
			return nil, &errs.ConfigError{Field: "model", Message: "model name is required"}
		}
		return NewCustomProvider(llm.Endpoint, llm.APIKey, llm.Model), nil

	default:
		return nil, &errs.ConfigError{Field: "kind", Message: "unsupported LLM provider kind: " + llm.Kind}
	}
}

func (s *Service) Summarize(ctx context.Context, content *extract.ExtractedContent) (string, error) {
	return s.provider.Summarize(ctx, content)
}

func (s *Service) ExtractTags(ctx context.Context, content *extract.ExtractedContent, maxTags int) ([]string, error) {
	return s.provider.ExtractTags(ctx, content, maxTags)
}

// ProviderName exposes the selected adapter's name for logging.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
