package workflows

// ProgressFunc provides visibility into execution progress. Called after each
// successful step completion with the 1-indexed completion count, the total,
// and the current state snapshot. Not called before the first step or when a
// step errors.
type ProgressFunc[TContext any] func(
	completed int,
	total int,
	state TContext,
)
