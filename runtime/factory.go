package runtime

import "github.com/duskforge/animgraph/graph"

// createState instantiates samplers and an AnimationState for stateIndex
//. It returns the new state's id, or ErrCapacityExceeded if
// either ring cannot fit the new slots, in which case neither ring is
// mutated.
func (e *Entity) createState(stateIndex uint16) (uint8, error) {
	rec, ok := e.graph.State(stateIndex)
	if !ok {
		return 0, ErrInvalidBlob
	}

	effectiveSpeed := rec.BaseSpeed
	if rec.SpeedParameterIndex != graph.NoSpeedParameter {
		v, err := e.params.Float(uint16(rec.SpeedParameterIndex))
		if err == nil {
			effectiveSpeed = rec.BaseSpeed * v
		}
	}

	clipCount, clipIndices, clipSpeeds := stateClips(e.graph, rec)
	if clipCount == 0 {
		return 0, ErrInvalidBlob
	}

	baseSamplerID, err := e.samplers.Reserve(clipCount, func(id uint8, ordinal int) ClipSampler {
		return ClipSampler{
			ClipIndex: clipIndices[ordinal],
			ClipSpeed: clipSpeeds[ordinal],
		}
	})
	if err != nil {
		e.diag.CapacityDropped++
		return 0, err
	}

	animID, err := e.anims.Reserve(1, func(id uint8, ordinal int) AnimationState {
		return AnimationState{
			StateIndex:     stateIndex,
			Speed:          effectiveSpeed,
			Loop:           rec.Loop,
			StartSamplerID: baseSamplerID,
			ClipCount:      uint8(clipCount),
		}
	})
	if err != nil {
		e.samplers.Release(baseSamplerID, clipCount)
		e.diag.CapacityDropped++
		return 0, err
	}

	return animID, nil
}

// stateClips returns the clip indices and per-clip speeds a StateRecord's
// payload carries, in payload order: the order createState reserves
// sampler slots in, and the order the per-kind updaters index into that block.
func stateClips(g *graph.Graph, rec *graph.StateRecord) (int, []uint16, []float32) {
	switch rec.Kind {
	case graph.StateSingle:
		p := g.Singles[rec.PayloadIndex]
		return 1, []uint16{p.ClipIndex}, []float32{1}
	case graph.StateLinear1D:
		p := g.Linear1Ds[rec.PayloadIndex]
		idx := make([]uint16, len(p.Entries))
		speed := make([]float32, len(p.Entries))
		for i, ent := range p.Entries {
			idx[i] = ent.ClipIndex
			speed[i] = ent.ClipSpeed
		}
		return len(p.Entries), idx, speed
	case graph.StateDirectional2D:
		p := g.Directional2Ds[rec.PayloadIndex]
		idx := make([]uint16, len(p.Entries))
		speed := make([]float32, len(p.Entries))
		for i, ent := range p.Entries {
			idx[i] = ent.ClipIndex
			speed[i] = ent.ClipSpeed
		}
		return len(p.Entries), idx, speed
	default:
		return 0, nil, nil
	}
}

// createDefaultState instantiates the graph's default state as the
// entity's first and only live AnimationState, called
// lazily on the first Tick.
func (e *Entity) createDefaultState() bool {
	id, err := e.createState(e.graph.DefaultStateIndex)
	if err != nil {
		// Capacity for the very first state should never fail with sane
		// ring sizes; if it does, the entity simply stays stateless and
		// every subsequent tick retries via the same invalid-ref path.
		return false
	}
	if a, ok := e.anims.Get(id); ok {
		a.Weight = 1
	}
	e.ref.CurrentStateIndex = e.graph.DefaultStateIndex
	e.ref.CurrentAnimStateID = id
	e.ref.valid = true
	return true
}
