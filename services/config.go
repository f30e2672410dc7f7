package services

import "fmt"

// Config holds generation-provider initialization parameters.
type Config struct {
	Provider   string `json:"provider,omitempty"`    // "static" or "openai".
	Model      string `json:"model,omitempty"`       // Chat model for analysis/research/codegen.
	ImageModel string `json:"image_model,omitempty"` // Image model for asset generation.
	APIKey     string `json:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
}

// DefaultConfig returns the default services configuration: the offline
// static provider, so the pipeline works without credentials.
func DefaultConfig() Config {
	return Config{
		Provider:   "static",
		Model:      "gpt-4o-mini",
		ImageModel: "dall-e-3",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.ImageModel != "" {
		c.ImageModel = source.ImageModel
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
}

// New creates a Services implementation from configuration.
func New(cfg *Config) (Services, error) {
	switch cfg.Provider {
	case "", "static":
		return NewStatic(), nil
	case "openai":
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown services provider: %s", cfg.Provider)
	}
}
