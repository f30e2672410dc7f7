package gallery

// Config holds gallery persistence parameters.
type Config struct {
	Path  string `json:"path,omitempty"`  // Record file path; empty disables persistence.
	Limit int    `json:"limit,omitempty"` // Eviction bound; 0 means DefaultLimit.
}

// DefaultConfig returns the default gallery configuration (in-memory only).
func DefaultConfig() Config {
	return Config{Limit: DefaultLimit}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Limit > 0 {
		c.Limit = source.Limit
	}
}

// NewStore creates a Store from configuration. Returns nil Store when Path
// is empty, indicating persistence is disabled.
func NewStore(cfg *Config) (Store, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	return NewFileStore(cfg.Path), nil
}
