package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yml"

// Store persists user settings as a YAML file under the data directory.
type Store struct {
	path string
	mu   sync.RWMutex
}

func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, settingsFileName)}
}

func defaultSettings() *Settings {
	return &Settings{
		AttachmentFolder: "attachments",
		MaxTags:          5,
		MaxImportItems:   10,
	}
}

// Get returns the current settings with defaults filled in. A missing
// settings file is not an error: the defaults are returned.
func (s *Store) Get() (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := defaultSettings()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	applyDefaults(settings)

	return settings, nil
}

// Update applies a partial mutation to the stored settings and writes the
// result atomically (temp file plus rename).
func (s *Store) Update(apply func(*Settings)) (*Settings, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	apply(settings)
	applyDefaults(settings)

	data, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return nil, fmt.Errorf("failed to replace settings file: %w", err)
	}

	slog.Debug("Settings saved", "path", s.path)

	return settings, nil
}

func applyDefaults(settings *Settings) {
	if settings.AttachmentFolder == "" {
		settings.AttachmentFolder = "attachments"
	}
	if settings.MaxTags <= 0 {
		settings.MaxTags = 5
	}
	if settings.MaxImportItems <= 0 {
		settings.MaxImportItems = 10
	}
}

// Validate reports the human-readable names of required fields that are
// missing, taking the active provider kind into account.
func Validate(settings *Settings) []string {
	var missing []string

	if strings.TrimSpace(settings.SavePath) == "" {
		missing = append(missing, "save path")
	}

	llm := settings.ActiveLlm()
	if llm == nil {
		missing = append(missing, "LLM provider")
		return missing
	}

	switch llm.Kind {
	case KindOpenAI, KindAnthropic:
		if llm.APIKey == "" {
			missing = append(missing, "API key")
		}
	case KindAzure:
		if llm.APIKey == "" {
			missing = append(missing, "API key")
		}
		if llm.Endpoint == "" {
			missing = append(missing, "endpoint")
		}
		if llm.Deployment == "" {
			missing = append(missing, "deployment name")
		}
	case KindCustom:
		if llm.Endpoint == "" {
			missing = append(missing, "endpoint")
		}
		if llm.Model == "" {
			missing = append(missing, "model name")
		}
	default:
		missing = append(missing, "provider kind")
	}

	return missing
}
