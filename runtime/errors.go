// Package runtime implements the per-entity mutable animation pipeline: the
// transition evaluator, state factory, blender, per-kind state-type
// updaters, bone sampler, root-motion extractor, event emitter, and scrub
// controller described by the baked graph.Graph. The hot path here never
// panics and never allocates past entity creation; every capacity-sensitive
// operation returns a structured error instead.
package runtime

import "errors"

// ErrCapacityExceeded is returned by ring reservation when the ring cannot
// fit the requested contiguous slots. The caller drops the would-be
// transition or state creation for this tick; it is not fatal.
var ErrCapacityExceeded = errors.New("runtime: capacity exceeded")

// ErrInvalidParameterIndex is returned by parameter get/set when index is
// out of range for its typed store.
var ErrInvalidParameterIndex = errors.New("runtime: invalid parameter index")

// ErrInvalidBlob is returned by NewEntity when the supplied graph fails
// basic structural sanity checks. It is fatal: entity construction is
// rejected outright.
var ErrInvalidBlob = errors.New("runtime: invalid baked graph")

// ErrUnknownID is returned by ring lookups (index_of, get) when id does not
// name a live slot.
var ErrUnknownID = errors.New("runtime: unknown ring id")

// Diagnostics accumulates the pipeline's observability counters:
// every non-fatal degradation in the hot path bumps one of these instead of
// surfacing an error to the caller.
type Diagnostics struct {
	CapacityDropped     uint64
	EventRingOverflowed uint64
	MissingClipSamples  uint64
	NumericNaNClamped   uint64
}
