// Package clip defines the external collaborators the state-machine runtime
// consumes: a skeletal clip library and a skeleton writer. Both are
// deliberately thin; the core never owns mesh, material, or GPU buffer
// data, only pose, duration, and event-table queries.
//
// A real engine plugs in its own GPU-backed implementation of Library and
// SkeletonWriter here. StaticLibrary below is the in-memory reference
// implementation used by this module's own tests, demo, and bake preview
// tooling.
package clip

import (
	"errors"
	"sort"

	"github.com/duskforge/animgraph/common"
)

// ErrInvalidClip is returned by Library methods when clipIndex does not
// name a valid clip.
var ErrInvalidClip = errors.New("clip: invalid clip index")

// Pose is the sampled local transform for one bone at one instant.
type Pose struct {
	Pos   common.Vec3
	Rot   common.Quat
	Scale common.Vec3
}

// Event is a single authored clip event, fired when playback crosses its
// normalized time.
type Event struct {
	NormalizedTime float32
	EventID        uint32
}

// Library is the opaque skeletal-clip collaborator. Sample is pure over
// (clipIndex, localTime, bone): given identical inputs it
// always returns the identical pose, which is what lets the runtime pipeline
// be deterministic.
type Library interface {
	// Sample returns the local transform of bone at localTimeS within clipIndex.
	Sample(clipIndex uint16, localTimeS float32, bone uint16) (Pose, error)

	// Duration returns the authored length of clipIndex in seconds.
	Duration(clipIndex uint16) (float32, error)

	// Events returns the read-only, normalized-time-ordered event table for clipIndex.
	Events(clipIndex uint16) ([]Event, error)

	// IsValid reports whether clipIndex names a usable clip.
	IsValid(clipIndex uint16) bool
}

// EntityID identifies an entity to the skeleton writer. The runtime never
// interprets it; it is whatever token the owning application uses.
type EntityID uint32

// SkeletonWriter is the opaque skeleton collaborator. The
// bone sampler calls WriteLocal once per bone per tick and Finalize once
// per entity per tick, after all bones are written.
type SkeletonWriter interface {
	WriteLocal(entity EntityID, bone uint16, pose Pose)
	Finalize(entity EntityID)
}

// Channel holds one bone's keyframes within a clip.
type Channel struct {
	Bone      uint16
	Positions []VectorKey
	Rotations []QuatKey
	Scales    []VectorKey
}

// VectorKey is a Vec3-valued keyframe.
type VectorKey struct {
	Time  float32
	Value common.Vec3
}

// QuatKey is a Quat-valued keyframe.
type QuatKey struct {
	Time  float32
	Value common.Quat
}

// AnimationClip is the authoring-side representation consumed by
// StaticLibrary: per-bone keyframe channels plus an event table, trimmed
// to what Sample, Duration, and Events need. No GPU packing and no
// material or mesh data; those live with the engine embedding this
// runtime.
type AnimationClip struct {
	Name     string
	Duration float32
	Channels []Channel
	Events   []Event
}

// StaticLibrary is an in-memory Library backed by a fixed slice of clips,
// one per clipIndex. It is the reference implementation used by runtime
// tests, cmd/demo, and cmd/bake's --preview mode.
type StaticLibrary struct {
	clips []AnimationClip
}

// NewStaticLibrary builds a Library over clips, indexed by their position.
func NewStaticLibrary(clips []AnimationClip) *StaticLibrary {
	for i := range clips {
		sortEvents(clips[i].Events)
	}
	return &StaticLibrary{clips: clips}
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].NormalizedTime < events[j].NormalizedTime })
}

func (l *StaticLibrary) IsValid(clipIndex uint16) bool {
	return int(clipIndex) < len(l.clips)
}

func (l *StaticLibrary) Duration(clipIndex uint16) (float32, error) {
	if !l.IsValid(clipIndex) {
		return 0, ErrInvalidClip
	}
	return l.clips[clipIndex].Duration, nil
}

func (l *StaticLibrary) Events(clipIndex uint16) ([]Event, error) {
	if !l.IsValid(clipIndex) {
		return nil, ErrInvalidClip
	}
	return l.clips[clipIndex].Events, nil
}

func (l *StaticLibrary) Sample(clipIndex uint16, localTimeS float32, bone uint16) (Pose, error) {
	if !l.IsValid(clipIndex) {
		return Pose{}, ErrInvalidClip
	}
	clip := &l.clips[clipIndex]
	t := common.Clamp(localTimeS, 0, clip.Duration)

	for i := range clip.Channels {
		ch := &clip.Channels[i]
		if ch.Bone != bone {
			continue
		}
		return Pose{
			Pos:   sampleVector(ch.Positions, t, common.Vec3{X: 0, Y: 0, Z: 0}),
			Rot:   sampleQuat(ch.Rotations, t),
			Scale: sampleVector(ch.Scales, t, common.Vec3{X: 1, Y: 1, Z: 1}),
		}, nil
	}
	// Bone not animated by this clip: identity/rest pose contribution.
	return Pose{Rot: common.IdentityQuat(), Scale: common.Vec3{X: 1, Y: 1, Z: 1}}, nil
}

func sampleVector(keys []VectorKey, t float32, fallback common.Vec3) common.Vec3 {
	if len(keys) == 0 {
		return fallback
	}
	if t <= keys[0].Time {
		return keys[0].Value
	}
	last := keys[len(keys)-1]
	if t >= last.Time {
		return last.Value
	}
	for i := 0; i < len(keys)-1; i++ {
		a, b := keys[i], keys[i+1]
		if t >= a.Time && t <= b.Time {
			span := b.Time - a.Time
			if span <= 0 {
				return a.Value
			}
			return a.Value.Lerp(b.Value, (t-a.Time)/span)
		}
	}
	return last.Value
}

func sampleQuat(keys []QuatKey, t float32) common.Quat {
	if len(keys) == 0 {
		return common.IdentityQuat()
	}
	if t <= keys[0].Time {
		return keys[0].Value
	}
	last := keys[len(keys)-1]
	if t >= last.Time {
		return last.Value
	}
	for i := 0; i < len(keys)-1; i++ {
		a, b := keys[i], keys[i+1]
		if t >= a.Time && t <= b.Time {
			span := b.Time - a.Time
			if span <= 0 {
				return a.Value
			}
			lt := (t - a.Time) / span
			return common.Quat{
				X: common.Lerp(a.Value.X, b.Value.X, lt),
				Y: common.Lerp(a.Value.Y, b.Value.Y, lt),
				Z: common.Lerp(a.Value.Z, b.Value.Z, lt),
				W: common.Lerp(a.Value.W, b.Value.W, lt),
			}.Normalize()
		}
	}
	return last.Value
}
