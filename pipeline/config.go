package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sitewright/engine/gallery"
	"github.com/sitewright/engine/services"
	"github.com/sitewright/engine/workflows"
)

// Config holds initialization parameters for the sequencer and its
// subsystems. Each section delegates to that subsystem's config type.
type Config struct {
	Services services.Config          `json:"services"`
	Gallery  gallery.Config           `json:"gallery"`
	Chain    workflows.ChainConfig    `json:"chain"`
	Parallel workflows.ParallelConfig `json:"parallel"`
	Observer string                   `json:"observer,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Services: services.DefaultConfig(),
		Gallery:  gallery.DefaultConfig(),
		Chain:    workflows.DefaultChainConfig(),
		Parallel: workflows.DefaultParallelConfig(),
		Observer: "slog",
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Services.Merge(&source.Services)
	c.Gallery.Merge(&source.Gallery)
	c.Chain.Merge(&source.Chain)
	c.Parallel.Merge(&source.Parallel)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
