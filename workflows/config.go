package workflows

// ChainConfig configures sequential chain execution. The Observer field is a
// registry name ("noop", "slog", ...) resolved at run time so chains remain
// JSON-configurable.
type ChainConfig struct {
	// CaptureIntermediateStates captures state after each step. When true,
	// ChainResult.Intermediate holds every state including the initial one.
	CaptureIntermediateStates bool `json:"capture_intermediate_states"`

	// Observer names the observer implementation to use.
	Observer string `json:"observer"`
}

// DefaultChainConfig returns sensible defaults for chain execution.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		CaptureIntermediateStates: false,
		Observer:                  "slog",
	}
}

// Merge applies non-zero values from source into c.
func (c *ChainConfig) Merge(source *ChainConfig) {
	if source.CaptureIntermediateStates {
		c.CaptureIntermediateStates = source.CaptureIntermediateStates
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// ParallelConfig configures parallel fan-out execution: worker pool sizing,
// error handling mode, and observability.
type ParallelConfig struct {
	// MaxWorkers sets an exact worker pool size (0 = auto-detect).
	MaxWorkers int `json:"max_workers"`

	// WorkerCap limits auto-detected workers.
	WorkerCap int `json:"worker_cap"`

	// FailFastNil controls error handling. Use FailFast() to read it; the
	// pointer distinguishes unset (defaults to true) from explicit false.
	FailFastNil *bool `json:"fail_fast"`

	// Observer names the observer implementation to use.
	Observer string `json:"observer"`
}

// FailFast reports whether processing stops on the first error.
func (c *ParallelConfig) FailFast() bool {
	if c.FailFastNil == nil {
		return true
	}
	return *c.FailFastNil
}

// DefaultParallelConfig returns sensible defaults: auto-detected workers
// capped at 16 (I/O-bound provider calls), fail-fast on.
func DefaultParallelConfig() ParallelConfig {
	failFast := true
	return ParallelConfig{
		MaxWorkers:  0,
		WorkerCap:   16,
		FailFastNil: &failFast,
		Observer:    "slog",
	}
}

// Merge applies non-zero values from source into c.
func (c *ParallelConfig) Merge(source *ParallelConfig) {
	if source.MaxWorkers > 0 {
		c.MaxWorkers = source.MaxWorkers
	}
	if source.WorkerCap > 0 {
		c.WorkerCap = source.WorkerCap
	}
	if source.FailFastNil != nil {
		c.FailFastNil = source.FailFastNil
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
