package runtime

import "github.com/duskforge/animgraph/common"

// ScrubSectionKind tags one timeline section of a scrub program.
type ScrubSectionKind uint8

const (
	// ScrubState previews a single state playing normally across the
	// section's duration.
	ScrubState ScrubSectionKind = iota
	// ScrubGhostFrom freezes on the transition's source state, for editor
	// preview of "what the outgoing state looks like at this point".
	ScrubGhostFrom
	// ScrubGhostTo freezes on the transition's destination state.
	ScrubGhostTo
	// ScrubFromBar marks a timeline bar aligned to the source state's
	// authored exit point; rendered as a frozen source-state pose.
	ScrubFromBar
	// ScrubToBar marks a timeline bar aligned to the destination state's
	// entry point; rendered as a frozen destination-state pose.
	ScrubToBar
	// ScrubTransition previews an in-progress cross-fade between two
	// states over explicit clip-time ranges.
	ScrubTransition
)

// ScrubSection is one authored segment of a scrub timeline. Fields not
// meaningful to Kind are ignored.
type ScrubSection struct {
	Kind ScrubSectionKind `json:"kind"`

	// State / GhostFrom / GhostTo / FromBar / ToBar
	StateIndex uint16 `json:"stateIndex,omitempty"`

	// Transition
	FromStateIndex    uint16  `json:"fromStateIndex,omitempty"`
	ToStateIndex      uint16  `json:"toStateIndex,omitempty"`
	ClipTimeFromStart float32 `json:"clipTimeFromStart,omitempty"`
	ClipTimeFromEnd   float32 `json:"clipTimeFromEnd,omitempty"`
	ClipTimeToStart   float32 `json:"clipTimeToStart,omitempty"`
	ClipTimeToEnd     float32 `json:"clipTimeToEnd,omitempty"`

	DurationS float32 `json:"durationS"`
}

// scrubController drives the sampler ring directly from a section list,
// bypassing the evaluator, factory, blender, and state-type updaters
// entirely while installed. It is bit-equivalent to normal
// playback when the program is a single ScrubState section advancing at
// real time with speed 1.
type scrubController struct {
	sections []ScrubSection
	position float32
	speed    float32
	playing  bool

	// anim tracks the single AnimationState this controller currently
	// drives per referenced state index, created lazily and reused across
	// ticks so repeated scrubbing within one section does not churn ring
	// capacity.
	anim map[uint16]uint8
}

func newScrubController(sections []ScrubSection) *scrubController {
	return &scrubController{sections: sections, speed: 1, playing: true, anim: make(map[uint16]uint8)}
}

func (c *scrubController) totalDuration() float32 {
	var total float32
	for _, s := range c.sections {
		total += s.DurationS
	}
	return total
}

// Play resumes timeline advancement.
func (c *scrubController) Play() { c.playing = true }

// Pause halts timeline advancement; advance() still applies the render
// request for the current (frozen) position.
func (c *scrubController) Pause() { c.playing = false }

// ScrubToNormalized jumps to t ∈ [0,1] of the full timeline.
func (c *scrubController) ScrubToNormalized(t float32) {
	c.position = common.Clamp(t, 0, 1) * c.totalDuration()
}

// ScrubTransitionProgress jumps within the current section to progress
// p ∈ [0,1] of that section's duration; meaningful for ScrubTransition
// sections, but well-defined for any section kind.
func (c *scrubController) ScrubTransitionProgress(p float32) {
	_, start, section := c.currentSection()
	if section == nil {
		return
	}
	c.position = start + common.Clamp(p, 0, 1)*section.DurationS
}

// StepFrames advances the timeline by n frames at fps, independent of
// Play/Pause state.
func (c *scrubController) StepFrames(n int, fps float32) {
	if fps <= 0 {
		return
	}
	c.position += float32(n) / fps
}

func (c *scrubController) currentSection() (int, float32, *ScrubSection) {
	var elapsed float32
	for i := range c.sections {
		s := &c.sections[i]
		if c.position < elapsed+s.DurationS || i == len(c.sections)-1 {
			return i, elapsed, s
		}
		elapsed += s.DurationS
	}
	return -1, 0, nil
}

// advance moves the timeline forward by dt (if playing) and applies the
// resulting render request directly to e's sampler ring.
func (c *scrubController) advance(dt float32, e *Entity) {
	if c.playing {
		c.position += dt * c.speed
	}
	_, start, section := c.currentSection()
	if section == nil {
		return
	}
	local := c.position - start

	switch section.Kind {
	case ScrubTransition:
		progress := float32(0)
		if section.DurationS > 0 {
			progress = common.Clamp(local/section.DurationS, 0, 1)
		}
		fromTime := common.Lerp(section.ClipTimeFromStart, section.ClipTimeFromEnd, progress)
		toTime := common.Lerp(section.ClipTimeToStart, section.ClipTimeToEnd, progress)
		c.driveState(e, section.FromStateIndex, fromTime, 1-progress)
		c.driveState(e, section.ToStateIndex, toTime, progress)
	case ScrubGhostFrom, ScrubFromBar:
		c.driveState(e, section.StateIndex, 0, 1)
	case ScrubGhostTo, ScrubToBar:
		c.driveState(e, section.StateIndex, 0, 1)
	default: // ScrubState
		c.driveState(e, section.StateIndex, local, 1)
	}
}

// driveState ensures a single-sampler-block AnimationState exists for
// stateIndex and forces its samplers' time/weight directly, without going
// through the blender's ramp. A looping state wraps the driven time into
// its clip duration the same way normal playback does, so a State section
// scrubbed past one loop lands on the same sampler times as real time
// would.
func (c *scrubController) driveState(e *Entity, stateIndex uint16, t, weight float32) {
	id, ok := c.anim[stateIndex]
	if !ok || e.anims.MustGet(id) == nil {
		newID, err := e.createState(stateIndex)
		if err != nil {
			return
		}
		id = newID
		c.anim[stateIndex] = id
	}
	s, ok := e.anims.Get(id)
	if !ok {
		return
	}
	s.Weight = weight
	for i := 0; i < int(s.ClipCount); i++ {
		sampler := e.samplerAt(s, i)
		if sampler == nil {
			continue
		}
		sampler.PrevTime = sampler.Time
		clipTime := t
		if s.Loop {
			clipTime = wrapLoop(clipTime, e.clipDuration(sampler.ClipIndex))
		}
		sampler.Time = clipTime
		sampler.Weight = weight
	}
}
