// Package workflows provides the generic execution patterns the sequencer is
// built on: a sequential chain with state accumulation (asset slots, where
// log ordering must stay deterministic) and a parallel fan-out with an
// all-or-nothing join (upload encoding).
//
// Both patterns are generic over item and result types, emit observer events
// at every execution point, and wrap failures in typed errors that preserve
// the failing item and the state at failure.
package workflows
