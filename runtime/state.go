package runtime

import "github.com/duskforge/animgraph/graph"

// InvalidAnimStateID is the reserved "no state" sentinel.
const InvalidAnimStateID uint8 = 0

// ClipSampler is one per-entity clip playback slot.
// The difference between Time and PrevTime drives root-motion extraction;
// looping is applied by the owning state-type updater after it advances
// Time, not by the sampler itself.
type ClipSampler struct {
	ClipIndex uint16
	PrevTime  float32
	Time      float32
	Weight    float32
	ClipSpeed float32
}

// AnimationState is one per-entity live-state slot. StateIndex is the
// originating graph.StateRecord index, stored directly on the slot so the
// per-kind updaters have everything they need without a second id-indexed
// lookup through an auxiliary record.
type AnimationState struct {
	StateIndex     uint16
	Time           float32
	Weight         float32
	Speed          float32
	Loop           bool
	StartSamplerID uint8
	ClipCount      uint8
}

// StateMachineRef tracks which state is authoritative for an entity's
// externally-observed animation playback.
type StateMachineRef struct {
	CurrentStateIndex  uint16
	CurrentAnimStateID uint8
	valid              bool
}

// PendingTransitionRequest is published by the evaluator and consumed by
// the blender on the same or a later tick.
type PendingTransitionRequest struct {
	TargetAnimStateID uint8
	DurationS         float32
	Curve             *graph.Curve
	live              bool
}

// ActiveTransition is the blender's in-progress cross-fade record.
type ActiveTransition struct {
	TargetAnimStateID uint8
	DurationS         float32
	Curve             *graph.Curve
	live              bool
}
