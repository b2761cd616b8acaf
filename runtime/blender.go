package runtime

import "github.com/duskforge/animgraph/common"

// runBlender performs the cross-fade and sampler GC pass: accept any
// pending transition, advance every live AnimationState's time, compute the
// target's blend weight and redistribute the remainder across the other
// live states proportional to their current weight, then reclaim any
// non-current state (and its sampler block) whose weight has reached zero.
func (e *Entity) runBlender(dt float32) {
	e.acceptPending()

	e.anims.Each(func(id uint8, s *AnimationState) {
		s.Time += dt * s.Speed
	})

	e.applyBlendWeight()
	e.gcSamplers()
}

// acceptPending promotes a live PendingTransitionRequest into the
// ActiveTransition slot, resetting the target's time to 0. A request whose
// target has since been GC'd (e.g. capacity churn) is simply dropped.
func (e *Entity) acceptPending() {
	if !e.pending.live {
		return
	}
	req := e.pending
	e.pending = PendingTransitionRequest{}

	if _, ok := e.anims.Get(req.TargetAnimStateID); !ok {
		return
	}

	duration := req.DurationS
	if !e.ref.valid {
		duration = 0
	}

	e.active = ActiveTransition{
		TargetAnimStateID: req.TargetAnimStateID,
		DurationS:         duration,
		Curve:             req.Curve,
		live:              true,
	}
	if target, ok := e.anims.Get(req.TargetAnimStateID); ok {
		target.Time = 0
	}
}

func (e *Entity) applyBlendWeight() {
	if !e.active.live {
		return
	}
	target, ok := e.anims.Get(e.active.TargetAnimStateID)
	if !ok {
		e.active = ActiveTransition{}
		return
	}

	var w float32
	if e.active.DurationS <= 0 {
		w = 1
	} else {
		ratio := common.Clamp(target.Time/e.active.DurationS, 0, 1)
		if e.active.Curve != nil {
			w = common.Clamp(e.active.Curve.Evaluate(ratio), 0, 1)
		} else {
			w = ratio
		}
	}
	target.Weight = w

	e.redistribute(e.active.TargetAnimStateID, 1-w)

	if w >= 1 {
		e.ref.CurrentStateIndex = target.StateIndex
		e.ref.CurrentAnimStateID = e.active.TargetAnimStateID
		e.active = ActiveTransition{}
	}
}

// redistribute spreads remaining weight across every live AnimationState
// other than except, proportional to each one's current weight (or
// equally, if every other weight is currently zero).
func (e *Entity) redistribute(except uint8, remaining float32) {
	var sum float32
	var others []uint8
	e.anims.Each(func(id uint8, s *AnimationState) {
		if id == except {
			return
		}
		others = append(others, id)
		sum += s.Weight
	})
	if len(others) == 0 {
		return
	}
	if sum <= 0 {
		share := remaining / float32(len(others))
		for _, id := range others {
			if s, ok := e.anims.Get(id); ok {
				s.Weight = share
			}
		}
		return
	}
	for _, id := range others {
		s, ok := e.anims.Get(id)
		if !ok {
			continue
		}
		s.Weight = remaining * (s.Weight / sum)
	}
}

// gcSamplers reclaims any non-current AnimationState whose weight has
// reached zero, along with its sampler block.
func (e *Entity) gcSamplers() {
	var dead []uint8
	e.anims.Each(func(id uint8, s *AnimationState) {
		if id == e.ref.CurrentAnimStateID {
			return
		}
		if e.active.live && id == e.active.TargetAnimStateID {
			return
		}
		if s.Weight <= 0 {
			dead = append(dead, id)
		}
	})
	for _, id := range dead {
		s, ok := e.anims.Get(id)
		if !ok {
			continue
		}
		e.samplers.Release(s.StartSamplerID, int(s.ClipCount))
		e.anims.ReleaseOne(id)
	}
}
