package runtime

import "github.com/duskforge/animgraph/graph"

// evaluateTransitions scans the three transition spaces in priority order
// (any-state, then the current state's outgoing list, then its exit group,
// each in declaration order) and fires the first eligible one. It returns
// (true, toStateIndex) if a transition fired and a new AnimationState was
// created for it; the crossfade itself is driven by the blender on this
// and subsequent ticks. At most one transition fires per tick.
//
// This runtime has no separate channel for an externally-driven "current
// playing state" distinct from its own bookkeeping (the caller only ever
// observes CurrentAnimStateID, never overrides it directly), so the
// should-evaluate predicate, which exists to avoid fighting an external
// playback nudge, always holds here. It is kept as a named check so a
// future caller-driven override hook has a single place to wire into.
func (e *Entity) evaluateTransitions() (bool, uint16) {
	if !e.shouldEvaluate() {
		return false, 0
	}
	if e.active.live {
		// A cross-fade is already in flight: let it finish rather than
		// re-firing the same held-true condition every tick, which would
		// keep resetting the target's ramp and leaking AnimationStates.
		return false, 0
	}

	current, ok := e.anims.Get(e.ref.CurrentAnimStateID)
	if !ok {
		return false, 0
	}
	rec, ok := e.graph.State(e.ref.CurrentStateIndex)
	if !ok {
		return false, 0
	}

	if tr := e.firstEligibleAnyState(current); tr != nil {
		return e.fireTransition(*tr)
	}
	if tr := firstEligible(rec.Transitions, current, e.params); tr != nil {
		return e.fireTransition(*tr)
	}
	if rec.ExitGroupIndex >= 0 && int(rec.ExitGroupIndex) < len(e.graph.ExitGroups) {
		group := e.graph.ExitGroups[rec.ExitGroupIndex]
		if tr := firstEligible(group.Transitions, current, e.params); tr != nil {
			return e.fireTransition(*tr)
		}
	}
	return false, 0
}

func (e *Entity) shouldEvaluate() bool { return true }

// firstEligibleAnyState scans the any-state list in declaration order,
// skipping self-transitions unless the record opts into them.
func (e *Entity) firstEligibleAnyState(current *AnimationState) *graph.TransitionRecord {
	for i := range e.graph.AnyStateTransitions {
		any := &e.graph.AnyStateTransitions[i]
		if !any.AllowSelf && any.ToStateIndex == e.ref.CurrentStateIndex {
			continue
		}
		if transitionEligible(&any.TransitionRecord, current, e.params) {
			return &any.TransitionRecord
		}
	}
	return nil
}

// firstEligible scans transitions in declaration order and returns the
// first one whose guard currently fires. Self-transitions are always
// permitted from a state's own outgoing and exit-group lists.
func firstEligible(transitions []graph.TransitionRecord, current *AnimationState, params *ParameterStore) *graph.TransitionRecord {
	for i := range transitions {
		if transitionEligible(&transitions[i], current, params) {
			return &transitions[i]
		}
	}
	return nil
}

func transitionEligible(t *graph.TransitionRecord, current *AnimationState, params *ParameterStore) bool {
	if len(t.Conditions) == 0 && !t.HasExitTime {
		return false
	}
	if t.HasExitTime && current.Time < t.ExitTimeS {
		return false
	}
	for _, c := range t.Conditions {
		if !conditionTrue(c, params) {
			return false
		}
	}
	return true
}

func conditionTrue(c graph.Condition, params *ParameterStore) bool {
	switch c.Comparator {
	case graph.CompBoolTrue:
		v, err := params.Bool(c.ParameterIndex)
		return err == nil && v
	case graph.CompBoolFalse:
		v, err := params.Bool(c.ParameterIndex)
		return err == nil && !v
	case graph.CompIntEq, graph.CompIntNe, graph.CompIntGt, graph.CompIntGe, graph.CompIntLt, graph.CompIntLe:
		v, err := params.Int(c.ParameterIndex)
		if err != nil {
			return false
		}
		rhs := int32(c.Rhs)
		switch c.Comparator {
		case graph.CompIntEq:
			return v == rhs
		case graph.CompIntNe:
			return v != rhs
		case graph.CompIntGt:
			return v > rhs
		case graph.CompIntGe:
			return v >= rhs
		case graph.CompIntLt:
			return v < rhs
		case graph.CompIntLe:
			return v <= rhs
		}
	case graph.CompFloatGt, graph.CompFloatLt:
		v, err := params.Float(c.ParameterIndex)
		if err != nil {
			return false
		}
		if c.Comparator == graph.CompFloatGt {
			return v > c.Rhs
		}
		return v < c.Rhs
	}
	return false
}

// fireTransition creates the destination state and, on success, publishes
// a PendingTransitionRequest for the blender to pick up. A capacity
// failure drops the transition for this tick; the guard re-fires on a
// later tick once slots free up.
func (e *Entity) fireTransition(t graph.TransitionRecord) (bool, uint16) {
	animID, err := e.createState(t.ToStateIndex)
	if err != nil {
		return false, 0
	}
	e.pending = PendingTransitionRequest{
		TargetAnimStateID: animID,
		DurationS:         t.DurationS,
		Curve:             t.Curve,
		live:              true,
	}
	return true, t.ToStateIndex
}
