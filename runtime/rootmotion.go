package runtime

import "github.com/duskforge/animgraph/common"

// RootMotion is the frame-to-frame delta of the skeleton root (bone 0).
type RootMotion struct {
	DeltaTranslation common.Vec3
	DeltaRotation    common.Quat
}

// rootMotion derives the root delta: for every sampler with weight > 0
// whose time advanced monotonically this tick (time_s > prev_time_s; a
// loop wrap fails this check and is excluded, per
// WithLoopWrapSuppressesRootDelta), blend bone 0's pose at both prev_time_s
// and time_s using the sampler weights, then output the delta between the
// two blended poses.
func (e *Entity) rootMotion() RootMotion {
	include := monotonicSamplers
	if !e.opts.LoopWrapSuppressesRootDelta {
		include = allSamplers
	}

	now, nowN := e.accumulatePose(0, func(s *ClipSampler) float32 { return s.Time }, include)
	prev, prevN := e.accumulatePose(0, func(s *ClipSampler) float32 { return s.PrevTime }, include)
	if nowN == 0 || prevN == 0 {
		return RootMotion{DeltaRotation: common.IdentityQuat()}
	}

	return RootMotion{
		DeltaTranslation: now.Pos.Sub(prev.Pos),
		DeltaRotation:    now.Rot.Mul(prev.Rot.Conjugate()),
	}
}

func monotonicSamplers(s *ClipSampler) bool { return s.Time > s.PrevTime }
