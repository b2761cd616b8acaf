package runtime

import (
	"github.com/duskforge/animgraph/clip"
	"github.com/duskforge/animgraph/graph"
)

// Options configures the fixed capacities and default policies of an
// Entity, built with functional options.
type Options struct {
	MaxConcurrentBlends         int
	MaxActiveClips              int
	MaxEventQueue               int
	BoneCount                   uint16
	Default2DBlendAlgorithm     graph.Directional2DAlgorithm
	LoopWrapSuppressesRootDelta bool
}

// Option mutates an Options during construction.
type Option func(*Options)

// WithMaxConcurrentBlends overrides the animation-state ring capacity.
func WithMaxConcurrentBlends(n int) Option {
	return func(o *Options) { o.MaxConcurrentBlends = n }
}

// WithMaxActiveClips overrides the clip-sampler ring capacity.
func WithMaxActiveClips(n int) Option {
	return func(o *Options) { o.MaxActiveClips = n }
}

// WithMaxEventQueue overrides the per-entity event ring capacity.
func WithMaxEventQueue(n int) Option {
	return func(o *Options) { o.MaxEventQueue = n }
}

// WithBoneCount sets how many bones the bone sampler writes per tick. The
// core never inspects skeleton topology beyond this count; bone 0 is
// assumed to be the root for root-motion extraction.
func WithBoneCount(n uint16) Option {
	return func(o *Options) { o.BoneCount = n }
}

// WithDefault2DBlendAlgorithm overrides the default Directional2D weighting
// algorithm for states that do not specify one explicitly in the blob.
func WithDefault2DBlendAlgorithm(algo graph.Directional2DAlgorithm) Option {
	return func(o *Options) { o.Default2DBlendAlgorithm = algo }
}

// WithLoopWrapSuppressesRootDelta toggles whether a sampler that wrapped
// this tick contributes zero to root motion. Defaults true;
// this option exists for test/debug builds that want to observe the raw
// (unsuppressed) delta.
func WithLoopWrapSuppressesRootDelta(enabled bool) Option {
	return func(o *Options) { o.LoopWrapSuppressesRootDelta = enabled }
}

func defaultOptions() Options {
	return Options{
		MaxConcurrentBlends:         8,
		MaxActiveClips:              32,
		MaxEventQueue:               32,
		BoneCount:                   1,
		Default2DBlendAlgorithm:     graph.AlgoInverseDistance,
		LoopWrapSuppressesRootDelta: true,
	}
}

// TickResult reports what happened to an entity during one Tick call.
type TickResult struct {
	EmittedEvents   []clip.Event
	TransitionFired bool
	NewStateIndex   *uint16
}

// Entity is the per-entity mutable state-machine runtime: a StateMachineRef,
// the animation-state and clip-sampler rings, the parameter store, pending/
// active transition slots, the event ring, and (optionally) a live scrub
// controller. The Graph it runs is shared, read-only, and
// owned by the caller.
type Entity struct {
	graph *graph.Graph
	clips clip.Library
	opts  Options
	diag  Diagnostics

	ref StateMachineRef

	anims    *Ring[AnimationState]
	samplers *Ring[ClipSampler]
	params   *ParameterStore

	pending PendingTransitionRequest
	active  ActiveTransition

	events *eventRing

	scrub *scrubController
}

// NewEntity constructs an Entity bound to g, sampling clips from clips. It
// performs no graph mutation and creates no animation state yet; the
// default state is instantiated lazily on the first Tick.
func NewEntity(g *graph.Graph, clips clip.Library, opts ...Option) (*Entity, error) {
	if g == nil || len(g.States) == 0 {
		return nil, ErrInvalidBlob
	}
	if int(g.DefaultStateIndex) >= len(g.States) {
		return nil, ErrInvalidBlob
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Entity{
		graph:    g,
		clips:    clips,
		opts:     o,
		anims:    NewRing[AnimationState](o.MaxConcurrentBlends),
		samplers: NewRing[ClipSampler](o.MaxActiveClips),
		params:   NewParameterStore(g.NumBoolParams, g.NumIntParams, g.NumFloatParams),
		events:   newEventRing(o.MaxEventQueue),
	}
	return e, nil
}

func (e *Entity) SetBoolParameter(index uint16, value bool) error {
	return e.params.SetBool(index, value)
}

func (e *Entity) SetIntParameter(index uint16, value int32) error {
	return e.params.SetInt(index, value)
}

func (e *Entity) SetFloatParameter(index uint16, value float32) error {
	return e.params.SetFloat(index, value)
}

// Diagnostics returns the entity's observability counters.
func (e *Entity) Diagnostics() Diagnostics { return e.diag }

// InstallScrubTimeline puts the entity into scrub mode, bypassing the
// normal pipeline until RemoveScrub is called.
func (e *Entity) InstallScrubTimeline(sections []ScrubSection) {
	e.scrub = newScrubController(sections)
}

// AdvanceScrub advances the installed scrub timeline by dt seconds and
// applies its render request directly to the sampler ring. No-op if no
// scrub timeline is installed.
func (e *Entity) AdvanceScrub(dt float32) {
	if e.scrub == nil {
		return
	}
	e.scrub.advance(dt, e)
}

// RemoveScrub exits scrub mode; normal evaluation resumes on the next Tick.
func (e *Entity) RemoveScrub() {
	e.scrub = nil
}

// ScrubActive reports whether the entity currently has an installed scrub
// timeline.
func (e *Entity) ScrubActive() bool { return e.scrub != nil }

// ScrubPlay resumes timeline advancement. No-op if no scrub timeline is
// installed.
func (e *Entity) ScrubPlay() {
	if e.scrub != nil {
		e.scrub.Play()
	}
}

// ScrubPause halts timeline advancement; the current (frozen) position is
// still applied on the next AdvanceScrub. No-op if no scrub timeline is
// installed.
func (e *Entity) ScrubPause() {
	if e.scrub != nil {
		e.scrub.Pause()
	}
}

// ScrubToNormalized jumps the installed timeline to t ∈ [0,1] of its total
// duration. No-op if no scrub timeline is installed.
func (e *Entity) ScrubToNormalized(t float32) {
	if e.scrub != nil {
		e.scrub.ScrubToNormalized(t)
	}
}

// ScrubTransitionProgress jumps within the timeline's current section to
// progress p ∈ [0,1] of that section's duration. No-op if no scrub timeline
// is installed.
func (e *Entity) ScrubTransitionProgress(p float32) {
	if e.scrub != nil {
		e.scrub.ScrubTransitionProgress(p)
	}
}

// ScrubStepFrames advances the installed timeline by n frames at fps,
// independent of play/pause state. No-op if no scrub timeline is installed.
func (e *Entity) ScrubStepFrames(n int, fps float32) {
	if e.scrub != nil {
		e.scrub.StepFrames(n, fps)
	}
}

// Tick advances the entity by dt seconds, running the full pipeline in
// order: transition evaluation → state creation → blender → per-kind
// updaters → bone sampler → root-motion → event emit. If a
// scrub timeline is installed, the normal pipeline is skipped entirely and
// only the scrub controller runs.
func (e *Entity) Tick(dt float32, writer clip.SkeletonWriter, entityID clip.EntityID) (TickResult, RootMotion) {
	if e.scrub != nil {
		e.scrub.advance(dt, e)
		e.sampleBones(writer, entityID)
		return TickResult{}, RootMotion{}
	}

	result := TickResult{}

	if !e.ref.valid {
		if e.createDefaultState() {
			idx := e.graph.DefaultStateIndex
			result.NewStateIndex = &idx
			result.TransitionFired = true
		}
	} else if fired, targetStateIdx := e.evaluateTransitions(); fired {
		result.TransitionFired = true
		result.NewStateIndex = &targetStateIdx
	}

	e.runBlender(dt)
	e.runUpdaters(dt)

	rm := e.sampleBonesWithRootMotion(writer, entityID)
	result.EmittedEvents = e.collectEvents()

	return result, rm
}
