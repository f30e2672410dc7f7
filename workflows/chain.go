package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/sitewright/engine/observability"
)

// StepProcessor processes a single item and updates the accumulated context,
// implementing the fold/reduce pattern: each step receives the state from all
// previous steps and returns an updated state. Returning an error stops the
// chain.
type StepProcessor[TItem, TContext any] func(
	ctx context.Context,
	item TItem,
	state TContext,
) (TContext, error)

// ChainResult contains the results of chain execution. Final always carries
// the result (final state on success, initial state on immediate failure);
// Intermediate is populated only when ChainConfig.CaptureIntermediateStates
// is true (index 0 is the initial state).
type ChainResult[TContext any] struct {
	// Final is the accumulated state after all steps completed
	Final TContext

	// Intermediate contains state after each step when captured.
	Intermediate []TContext

	// Steps is the number of steps successfully completed
	Steps int
}

// ProcessChain executes a strictly sequential chain with state accumulation.
// Items are processed in order, one at a time; a later step never starts
// before its predecessor's state is committed, which keeps downstream effects
// (log entries, external calls) deterministic. Processing stops on the first
// error (fail-fast); context cancellation is checked before each step.
//
// Events emitted: EventChainStart, EventStepStart/EventStepComplete per step,
// EventChainComplete. Failures are wrapped in ChainError with the step index,
// item, and state at failure. An empty items slice returns immediately with
// the initial state and zero steps.
//
// Example:
//
//	slots := deriveSlots(research)
//	processor := func(ctx context.Context, slot Slot, assets []site.Asset) ([]site.Asset, error) {
//	    asset := resolveSlot(ctx, slot)
//	    return append(assets, asset), nil
//	}
//	result, err := workflows.ProcessChain(ctx, cfg, slots, nil, processor, nil)
func ProcessChain[TItem, TContext any](
	ctx context.Context,
	cfg ChainConfig,
	items []TItem,
	initial TContext,
	processor StepProcessor[TItem, TContext],
	progress ProgressFunc[TContext],
) (ChainResult[TContext], error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return ChainResult[TContext]{}, fmt.Errorf("failed to resolve observer: %w", err)
	}

	result := ChainResult[TContext]{
		Final: initial,
		Steps: 0,
	}

	observer.OnEvent(ctx, observability.Event{
		Type:      EventChainStart,
		Timestamp: time.Now(),
		Source:    "workflows.ProcessChain",
		Data: map[string]any{
			"item_count":            len(items),
			"has_progress_callback": progress != nil,
			"capture_intermediate":  cfg.CaptureIntermediateStates,
		},
	})

	if len(items) == 0 {
		observer.OnEvent(ctx, observability.Event{
			Type:      EventChainComplete,
			Timestamp: time.Now(),
			Source:    "workflows.ProcessChain",
			Data: map[string]any{
				"steps_completed": 0,
				"error":           false,
			},
		})
		return result, nil
	}

	var intermediate []TContext
	if cfg.CaptureIntermediateStates {
		intermediate = make([]TContext, 0, len(items)+1)
		intermediate = append(intermediate, initial)
	}

	state := initial

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			chainErr := &ChainError[TItem, TContext]{
				StepIndex: i,
				Item:      item,
				State:     state,
				Err:       fmt.Errorf("processing cancelled: %w", err),
			}
			observer.OnEvent(ctx, observability.Event{
				Type:      EventChainComplete,
				Timestamp: time.Now(),
				Source:    "workflows.ProcessChain",
				Data: map[string]any{
					"steps_completed": i,
					"error":           true,
					"error_type":      "cancellation",
				},
			})
			return result, chainErr
		}

		observer.OnEvent(ctx, observability.Event{
			Type:      EventStepStart,
			Timestamp: time.Now(),
			Source:    "workflows.ProcessChain",
			Data: map[string]any{
				"step_index":  i,
				"total_steps": len(items),
			},
		})

		updated, err := processor(ctx, item, state)
		if err != nil {
			chainErr := &ChainError[TItem, TContext]{
				StepIndex: i,
				Item:      item,
				State:     state,
				Err:       err,
			}
			observer.OnEvent(ctx, observability.Event{
				Type:      EventStepComplete,
				Timestamp: time.Now(),
				Source:    "workflows.ProcessChain",
				Data: map[string]any{
					"step_index":  i,
					"total_steps": len(items),
					"error":       true,
				},
			})
			observer.OnEvent(ctx, observability.Event{
				Type:      EventChainComplete,
				Timestamp: time.Now(),
				Source:    "workflows.ProcessChain",
				Data: map[string]any{
					"steps_completed": i,
					"error":           true,
					"error_type":      "processor",
				},
			})
			return result, chainErr
		}

		state = updated

		if cfg.CaptureIntermediateStates {
			intermediate = append(intermediate, state)
		}

		observer.OnEvent(ctx, observability.Event{
			Type:      EventStepComplete,
			Timestamp: time.Now(),
			Source:    "workflows.ProcessChain",
			Data: map[string]any{
				"step_index":  i,
				"total_steps": len(items),
				"error":       false,
			},
		})

		if progress != nil {
			progress(i+1, len(items), state)
		}
	}

	result.Final = state
	result.Intermediate = intermediate
	result.Steps = len(items)

	observer.OnEvent(ctx, observability.Event{
		Type:      EventChainComplete,
		Timestamp: time.Now(),
		Source:    "workflows.ProcessChain",
		Data: map[string]any{
			"steps_completed": len(items),
			"error":           false,
		},
	})

	return result, nil
}
