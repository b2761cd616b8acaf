package graph

import (
	"fmt"
	"sort"
)

// ErrInvalidBlob is returned by Bake when the authored graph violates a
// structural invariant: an unresolved name reference, a duplicate, an
// out-of-range value, or an empty blend tree.
type ErrInvalidBlob struct {
	Reason string
}

func (e *ErrInvalidBlob) Error() string {
	return fmt.Sprintf("graph: invalid authored graph: %s", e.Reason)
}

func invalid(format string, args ...any) error {
	return &ErrInvalidBlob{Reason: fmt.Sprintf(format, args...)}
}

type paramKind uint8

const (
	paramBool paramKind = iota
	paramInt
	paramFloat
)

type paramSlot struct {
	kind  paramKind
	index uint16
}

// bakeContext carries the name-to-index lookup tables built while
// flattening an AuthoredGraph. All name resolution happens here, once; the
// runtime only ever sees integer indices.
type bakeContext struct {
	clipIndex  map[string]uint16
	paramIndex map[string]paramSlot
	stateIndex map[string]uint16
	exitGroup  map[string]int32
}

// Bake flattens an AuthoredGraph into an immutable Graph blob, resolving
// every name reference to an index and validating structural invariants.
// Nested visual sub-state machines are flattened into the same flat state
// array as top-level states; only their states' ExitGroup back-references
// survive into the blob.
func Bake(a *AuthoredGraph) (*Graph, error) {
	if a == nil {
		return nil, invalid("nil authored graph")
	}

	ctx := &bakeContext{
		clipIndex:  make(map[string]uint16, len(a.Clips)),
		paramIndex: make(map[string]paramSlot),
		stateIndex: make(map[string]uint16),
		exitGroup:  make(map[string]int32),
	}

	for i, name := range a.Clips {
		if name == "" {
			return nil, invalid("clip %d has empty name", i)
		}
		if _, dup := ctx.clipIndex[name]; dup {
			return nil, invalid("duplicate clip name %q", name)
		}
		ctx.clipIndex[name] = uint16(i)
	}

	var numBool, numInt, numFloat uint16
	for _, p := range a.Parameters {
		if _, dup := ctx.paramIndex[p.Name]; dup {
			return nil, invalid("duplicate parameter name %q", p.Name)
		}
		switch p.Type {
		case "bool":
			ctx.paramIndex[p.Name] = paramSlot{kind: paramBool, index: numBool}
			numBool++
		case "int":
			ctx.paramIndex[p.Name] = paramSlot{kind: paramInt, index: numInt}
			numInt++
		case "float":
			ctx.paramIndex[p.Name] = paramSlot{kind: paramFloat, index: numFloat}
			numFloat++
		default:
			return nil, invalid("parameter %q has unknown type %q", p.Name, p.Type)
		}
	}

	// Collect every state, top-level and nested, into one flat author list
	// before resolving indices, so forward references (a state transitioning
	// to one declared later, or to one nested in a sub-state-machine) work.
	type flatState struct {
		authored AuthoredState
	}
	var flat []flatState
	for _, s := range a.States {
		flat = append(flat, flatState{authored: s})
	}
	for _, sub := range a.SubStateMachines {
		for _, s := range sub.States {
			flat = append(flat, flatState{authored: s})
		}
	}

	for i, fs := range flat {
		if fs.authored.Name == "" {
			return nil, invalid("state %d has empty name", i)
		}
		if _, dup := ctx.stateIndex[fs.authored.Name]; dup {
			return nil, invalid("duplicate state name %q", fs.authored.Name)
		}
		ctx.stateIndex[fs.authored.Name] = uint16(i)
	}

	for i, eg := range a.ExitGroups {
		if _, dup := ctx.exitGroup[eg.Name]; dup {
			return nil, invalid("duplicate exit group name %q", eg.Name)
		}
		ctx.exitGroup[eg.Name] = int32(i)
	}

	defaultIdx, ok := ctx.stateIndex[a.DefaultState]
	if !ok {
		return nil, invalid("default state %q not found", a.DefaultState)
	}

	g := &Graph{
		DefaultStateIndex: defaultIdx,
		States:            make([]StateRecord, len(flat)),
		NumBoolParams:     numBool,
		NumIntParams:      numInt,
		NumFloatParams:    numFloat,
	}

	for i, fs := range flat {
		rec, err := ctx.bakeState(g, fs.authored)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", fs.authored.Name, err)
		}
		g.States[i] = rec
	}

	for i, t := range a.AnyStateTransitions {
		rec, err := ctx.bakeTransition(t)
		if err != nil {
			return nil, fmt.Errorf("any-state transition %d: %w", i, err)
		}
		g.AnyStateTransitions = append(g.AnyStateTransitions, AnyStateTransition{
			TransitionRecord: rec,
			AllowSelf:        t.AllowSelf,
		})
	}

	for _, eg := range a.ExitGroups {
		group := ExitTransitionGroup{}
		for j, t := range eg.Transitions {
			rec, err := ctx.bakeTransition(t)
			if err != nil {
				return nil, fmt.Errorf("exit group %q transition %d: %w", eg.Name, j, err)
			}
			group.Transitions = append(group.Transitions, rec)
		}
		g.ExitGroups = append(g.ExitGroups, group)
	}

	return g, nil
}

func (ctx *bakeContext) resolveClip(name string) (uint16, error) {
	idx, ok := ctx.clipIndex[name]
	if !ok {
		return 0, invalid("unknown clip %q", name)
	}
	return idx, nil
}

func (ctx *bakeContext) resolveFloatParam(name string) (uint16, error) {
	slot, ok := ctx.paramIndex[name]
	if !ok || slot.kind != paramFloat {
		return 0, invalid("unknown float parameter %q", name)
	}
	return slot.index, nil
}

func (ctx *bakeContext) resolveCondition(c AuthoredCondition) (Condition, error) {
	var comp Comparator
	switch c.Comparator {
	case "boolTrue":
		comp = CompBoolTrue
	case "boolFalse":
		comp = CompBoolFalse
	case "intEq":
		comp = CompIntEq
	case "intNe":
		comp = CompIntNe
	case "intGt":
		comp = CompIntGt
	case "intGe":
		comp = CompIntGe
	case "intLt":
		comp = CompIntLt
	case "intLe":
		comp = CompIntLe
	case "floatGt":
		comp = CompFloatGt
	case "floatLt":
		comp = CompFloatLt
	default:
		return Condition{}, invalid("unknown comparator %q", c.Comparator)
	}

	slot, ok := ctx.paramIndex[c.Parameter]
	if !ok {
		return Condition{}, invalid("unknown parameter %q", c.Parameter)
	}
	switch comp {
	case CompBoolTrue, CompBoolFalse:
		if slot.kind != paramBool {
			return Condition{}, invalid("parameter %q is not bool", c.Parameter)
		}
	case CompIntEq, CompIntNe, CompIntGt, CompIntGe, CompIntLt, CompIntLe:
		if slot.kind != paramInt {
			return Condition{}, invalid("parameter %q is not int", c.Parameter)
		}
	case CompFloatGt, CompFloatLt:
		if slot.kind != paramFloat {
			return Condition{}, invalid("parameter %q is not float", c.Parameter)
		}
	}
	return Condition{ParameterIndex: slot.index, Comparator: comp, Rhs: c.Rhs}, nil
}

func (ctx *bakeContext) bakeTransition(t AuthoredTransition) (TransitionRecord, error) {
	toIdx, ok := ctx.stateIndex[t.To]
	if !ok {
		return TransitionRecord{}, invalid("unknown target state %q", t.To)
	}
	if t.DurationS < 0 {
		return TransitionRecord{}, invalid("negative transition duration")
	}
	if t.HasExitTime && t.ExitTimeS < 0 {
		return TransitionRecord{}, invalid("negative exit time %v", t.ExitTimeS)
	}

	conds := make([]Condition, 0, len(t.Conditions))
	for _, c := range t.Conditions {
		rc, err := ctx.resolveCondition(c)
		if err != nil {
			return TransitionRecord{}, err
		}
		conds = append(conds, rc)
	}

	var curve *Curve
	if len(t.Curve) > 0 {
		kfs := make([]CurveKeyframe, len(t.Curve))
		for i, k := range t.Curve {
			kfs[i] = CurveKeyframe{Time: k.Time, Value: k.Value, InTangent: k.InTangent, OutTangent: k.OutTangent}
		}
		sort.Slice(kfs, func(i, j int) bool { return kfs[i].Time < kfs[j].Time })
		curve = &Curve{Keyframes: kfs}
	}

	return TransitionRecord{
		ToStateIndex: toIdx,
		DurationS:    t.DurationS,
		HasExitTime:  t.HasExitTime,
		ExitTimeS:    t.ExitTimeS,
		Conditions:   conds,
		Curve:        curve,
	}, nil
}

func (ctx *bakeContext) bakeState(g *Graph, s AuthoredState) (StateRecord, error) {
	rec := StateRecord{
		BaseSpeed:           s.BaseSpeed,
		SpeedParameterIndex: NoSpeedParameter,
		Loop:                s.Loop,
		ExitGroupIndex:      NoExitGroup,
	}
	if rec.BaseSpeed == 0 {
		rec.BaseSpeed = 1
	}
	if s.SpeedParameter != "" {
		idx, err := ctx.resolveFloatParam(s.SpeedParameter)
		if err != nil {
			return StateRecord{}, err
		}
		rec.SpeedParameterIndex = int32(idx)
	}
	if s.ExitGroup != "" {
		idx, ok := ctx.exitGroup[s.ExitGroup]
		if !ok {
			return StateRecord{}, invalid("unknown exit group %q", s.ExitGroup)
		}
		rec.ExitGroupIndex = idx
	}

	for _, t := range s.Transitions {
		tr, err := ctx.bakeTransition(t)
		if err != nil {
			return StateRecord{}, err
		}
		rec.Transitions = append(rec.Transitions, tr)
	}

	switch s.Kind {
	case "single":
		clipIdx, err := ctx.resolveClip(s.Clip)
		if err != nil {
			return StateRecord{}, err
		}
		rec.Kind = StateSingle
		rec.PayloadIndex = uint16(len(g.Singles))
		g.Singles = append(g.Singles, SinglePayload{ClipIndex: clipIdx})

	case "linear1d":
		if len(s.Thresholds) == 0 {
			return StateRecord{}, invalid("linear1d state has no thresholds")
		}
		paramIdx, err := ctx.resolveFloatParam(s.BlendParameter)
		if err != nil {
			return StateRecord{}, err
		}
		entries := make([]LinearEntry, len(s.Thresholds))
		for i, th := range s.Thresholds {
			clipIdx, err := ctx.resolveClip(th.Clip)
			if err != nil {
				return StateRecord{}, err
			}
			speed := th.ClipSpeed
			if speed == 0 {
				speed = 1
			}
			entries[i] = LinearEntry{Threshold: th.Threshold, ClipIndex: clipIdx, ClipSpeed: speed}
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Threshold < entries[j].Threshold })
		for i := 1; i < len(entries); i++ {
			if entries[i].Threshold == entries[i-1].Threshold {
				return StateRecord{}, invalid("linear1d has duplicate threshold %v", entries[i].Threshold)
			}
		}
		rec.Kind = StateLinear1D
		rec.PayloadIndex = uint16(len(g.Linear1Ds))
		g.Linear1Ds = append(g.Linear1Ds, Linear1DPayload{BlendParameterIndex: paramIdx, Entries: entries})

	case "directional2d":
		if len(s.Positions) == 0 {
			return StateRecord{}, invalid("directional2d state has no positions")
		}
		xIdx, err := ctx.resolveFloatParam(s.XParameter)
		if err != nil {
			return StateRecord{}, err
		}
		yIdx, err := ctx.resolveFloatParam(s.YParameter)
		if err != nil {
			return StateRecord{}, err
		}
		entries := make([]Directional2DEntry, len(s.Positions))
		for i, p := range s.Positions {
			clipIdx, err := ctx.resolveClip(p.Clip)
			if err != nil {
				return StateRecord{}, err
			}
			speed := p.ClipSpeed
			if speed == 0 {
				speed = 1
			}
			entries[i] = Directional2DEntry{X: p.X, Y: p.Y, ClipIndex: clipIdx, ClipSpeed: speed}
		}
		var algo Directional2DAlgorithm
		switch s.Algorithm {
		case "":
			algo = AlgoDefault
		case "inverse-distance":
			algo = AlgoInverseDistance
		case "gradient-band":
			algo = AlgoGradientBand
		default:
			return StateRecord{}, invalid("unknown 2d blend algorithm %q", s.Algorithm)
		}
		rec.Kind = StateDirectional2D
		rec.PayloadIndex = uint16(len(g.Directional2Ds))
		g.Directional2Ds = append(g.Directional2Ds, Directional2DPayload{
			XParameterIndex: xIdx,
			YParameterIndex: yIdx,
			Entries:         entries,
			Algorithm:       algo,
		})

	default:
		return StateRecord{}, invalid("unknown state kind %q", s.Kind)
	}

	return rec, nil
}
