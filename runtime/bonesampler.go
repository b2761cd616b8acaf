package runtime

import (
	"github.com/duskforge/animgraph/clip"
	"github.com/duskforge/animgraph/common"
)

// sampleBones writes every bone's weighted local transform for the
// current tick without computing root motion, used by the scrub lane,
// which never reports a root delta.
func (e *Entity) sampleBones(writer clip.SkeletonWriter, entityID clip.EntityID) {
	for b := uint16(0); b < e.opts.BoneCount; b++ {
		pose, _ := e.accumulatePose(b, func(s *ClipSampler) float32 { return s.Time }, allSamplers)
		writer.WriteLocal(entityID, b, pose)
	}
	writer.Finalize(entityID)
}

// sampleBonesWithRootMotion writes
// every bone's weighted local transform, and additionally derives the root
// (bone 0) frame-to-frame delta from the subset of samplers that advanced
// monotonically this tick (excluding any that wrapped a loop).
func (e *Entity) sampleBonesWithRootMotion(writer clip.SkeletonWriter, entityID clip.EntityID) RootMotion {
	var rm RootMotion
	for b := uint16(0); b < e.opts.BoneCount; b++ {
		pose, _ := e.accumulatePose(b, func(s *ClipSampler) float32 { return s.Time }, allSamplers)
		writer.WriteLocal(entityID, b, pose)

		if b == 0 {
			rm = e.rootMotion()
		}
	}
	writer.Finalize(entityID)
	return rm
}

func allSamplers(s *ClipSampler) bool { return true }

// accumulatePose performs the weighted-sum-then-normalize
// accumulation: every live sampler with weight > 0 and a valid clip
// contributes pose(timeOf(sampler)) * weight; rotations are summed and
// normalized at the end, never slerped.
func (e *Entity) accumulatePose(bone uint16, timeOf func(*ClipSampler) float32, include func(*ClipSampler) bool) (clip.Pose, int) {
	var acc clip.Pose
	contributors := 0

	e.samplers.Each(func(id uint8, s *ClipSampler) {
		if s.Weight <= 0 || !include(s) {
			return
		}
		if !e.clips.IsValid(s.ClipIndex) {
			e.diag.MissingClipSamples++
			return
		}
		pose, err := e.clips.Sample(s.ClipIndex, timeOf(s), bone)
		if err != nil {
			e.diag.MissingClipSamples++
			return
		}
		if pose.Pos.IsNaN() || pose.Rot.IsNaN() || pose.Scale.IsNaN() {
			e.diag.NumericNaNClamped++
			return
		}
		if contributors == 0 {
			acc = clip.Pose{
				Pos:   pose.Pos.Scale(s.Weight),
				Rot:   pose.Rot.Scale(s.Weight),
				Scale: pose.Scale.Scale(s.Weight),
			}
		} else {
			acc = clip.Pose{
				Pos:   acc.Pos.Add(pose.Pos.Scale(s.Weight)),
				Rot:   acc.Rot.Add(pose.Rot.Scale(s.Weight)),
				Scale: acc.Scale.Add(pose.Scale.Scale(s.Weight)),
			}
		}
		contributors++
	})

	// Normalize only when more than one
	// sampler contributed. A lone full-weight contributor's rotation is
	// already a unit quaternion and needs no renormalization.
	if contributors > 1 {
		acc.Rot = acc.Rot.Normalize()
	}
	if acc.Pos.IsNaN() || acc.Rot.IsNaN() || acc.Scale.IsNaN() {
		e.diag.NumericNaNClamped++
		return clip.Pose{Rot: common.IdentityQuat()}, contributors
	}
	return acc, contributors
}
