package errs

import (
	"errors"
	"fmt"
)

// ExtractionError means the article content could not be fetched or parsed.
// Always fatal to a save run.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("content extraction failed for %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ConfigError names a missing or invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error (%s): %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

type LlmErrorKind string

const (
	LlmTransport LlmErrorKind = "transport"
	LlmStatus    LlmErrorKind = "status"
	LlmFormat    LlmErrorKind = "format"
)

// LlmError is any adapter-level failure talking to an LLM provider. Kind
// distinguishes network failures, non-2xx responses and unparseable payloads.
type LlmError struct {
	Provider   string
	Kind       LlmErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *LlmError) Error() string {
	switch e.Kind {
	case LlmStatus:
		return fmt.Sprintf("%s request failed with HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	case LlmFormat:
		return fmt.Sprintf("%s returned an unexpected response: %s", e.Provider, e.Message)
	default:
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
}

func (e *LlmError) Unwrap() error { return e.Err }

// ResponseFormatError means none of the known response shapes matched.
type ResponseFormatError struct {
	Provider string
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("%s response did not match any known format", e.Provider)
}

// ImageError is a per-image localization failure. Never fatal to a run.
type ImageError struct {
	URL    string
	Reason string
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s could not be localized: %s", e.URL, e.Reason)
}

// SaveError means the rendered document or an attachment could not be written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// UserMessage classifies err into a human-readable status line plus whether a
// retry is worth suggesting. Unclassifiable errors get a generic message and
// are flagged non-recoverable.
func UserMessage(err error) (string, bool) {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return fmt.Sprintf("Could not read the page at %s", extractionErr.URL), true
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		if configErr.Field != "" {
			return fmt.Sprintf("Check your settings: %s (%s)", configErr.Message, configErr.Field), true
		}
		return fmt.Sprintf("Check your settings: %s", configErr.Message), true
	}

	var formatErr *ResponseFormatError
	if errors.As(err, &formatErr) {
		return fmt.Sprintf("The %s provider returned an unrecognized response", formatErr.Provider), true
	}

	var llmErr *LlmError
	if errors.As(err, &llmErr) {
		switch llmErr.Kind {
		case LlmStatus:
			return fmt.Sprintf("The %s provider rejected the request: %s", llmErr.Provider, llmErr.Message), true
		case LlmFormat:
			return fmt.Sprintf("The %s provider returned an unrecognized response", llmErr.Provider), true
		default:
			return fmt.Sprintf("Could not reach the %s provider", llmErr.Provider), true
		}
	}

	var saveErr *SaveError
	if errors.As(err, &saveErr) {
		return "Could not write the file to the vault", true
	}

	return "Unknown error, please retry", false
}
