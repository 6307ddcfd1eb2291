package config

// Provider kinds understood by the LLM service.
const (
	KindOpenAI    = "openai"
	KindAzure     = "azure"
	KindAnthropic = "anthropic"
	KindCustom    = "custom"
)

// LlmProvider is a single stored LLM backend configuration.
type LlmProvider struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Kind        string `yaml:"kind" json:"kind"`
	APIKey      string `yaml:"api_key" json:"api_key"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	Deployment  string `yaml:"deployment" json:"deployment"`
	Model       string `yaml:"model" json:"model"`
}

// Settings is the complete user configuration. Get always returns it with
// defaults filled in, so callers never see zero values for defaulted fields.
type Settings struct {
	SavePath            string `yaml:"save_path" json:"save_path"`
	AttachmentFolder    string `yaml:"attachment_folder" json:"attachment_folder"`
	EnablePreview       bool   `yaml:"enable_preview" json:"enable_preview"`
	LocalizeImages      bool   `yaml:"localize_images" json:"localize_images"`
	EnableTagExtraction bool   `yaml:"enable_tag_extraction" json:"enable_tag_extraction"`
	MaxTags             int    `yaml:"max_tags" json:"max_tags"`
	ConvertHTML         bool   `yaml:"convert_html" json:"convert_html"`
	MaxImportItems      int    `yaml:"max_import_items" json:"max_import_items"`

	ActiveLlmID  string        `yaml:"active_llm_id" json:"active_llm_id"`
	LlmProviders []LlmProvider `yaml:"llm_providers" json:"llm_providers"`

	// Legacy flat provider configuration, used when llm_providers is empty.
	Provider   string `yaml:"provider,omitempty" json:"provider,omitempty"`
	APIKey     string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Endpoint   string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Deployment string `yaml:"deployment,omitempty" json:"deployment,omitempty"`
	Model      string `yaml:"model,omitempty" json:"model,omitempty"`
}

// ActiveLlm resolves the provider configuration currently selected for use.
// The multi-provider list keyed by ActiveLlmID wins; the legacy flat fields
// are the fallback. Returns nil when nothing usable is configured.
func (s *Settings) ActiveLlm() *LlmProvider {
	if len(s.LlmProviders) > 0 {
		for i := range s.LlmProviders {
			if s.LlmProviders[i].ID == s.ActiveLlmID {
				return &s.LlmProviders[i]
			}
		}
		// No id match: fall back to the first entry so a stale id does not
		// strand the user without any provider.
		return &s.LlmProviders[0]
	}

	if s.Provider != "" {
		return &LlmProvider{
			ID:         "legacy",
			Kind:       s.Provider,
			APIKey:     s.APIKey,
			Endpoint:   s.Endpoint,
			Deployment: s.Deployment,
			Model:      s.Model,
		}
	}

	return nil
}
