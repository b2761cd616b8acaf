package runtime

import (
	"testing"

	"github.com/duskforge/animgraph/clip"
)

func TestScrub_SingleStateSectionMatchesNormalPlayback(t *testing.T) {
	g := idleOnlyGraph(t)
	lib := testClips()

	normal, err := NewEntity(g, lib)
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	scrubbed, err := NewEntity(g, lib)
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	scrubbed.InstallScrubTimeline([]ScrubSection{
		{Kind: ScrubState, StateIndex: 0, DurationS: 10},
	})

	wNormal := newRecordingWriter()
	wScrub := newRecordingWriter()
	normal.Tick(0, wNormal, clip.EntityID(1))

	for i := 0; i < 8; i++ {
		normal.Tick(0.1, wNormal, clip.EntityID(1))
		scrubbed.Tick(0.1, wScrub, clip.EntityID(2))
		if wNormal.poses[0] != wScrub.poses[0] {
			t.Fatalf("tick %d: scrub pose %+v diverged from normal playback pose %+v",
				i, wScrub.poses[0], wNormal.poses[0])
		}
	}
}

func TestScrub_LoopingStateWrapsLikeNormalPlayback(t *testing.T) {
	// Scrub a looping 1s clip well past several loops; the driven sampler
	// time must wrap exactly as real-time playback's does, tick for tick.
	g := idleOnlyGraph(t)
	lib := testClips()

	normal, err := NewEntity(g, lib)
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	scrubbed, err := NewEntity(g, lib)
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	scrubbed.InstallScrubTimeline([]ScrubSection{
		{Kind: ScrubState, StateIndex: 0, DurationS: 10},
	})

	wNormal := newRecordingWriter()
	wScrub := newRecordingWriter()
	normal.Tick(0, wNormal, clip.EntityID(1))

	for i := 0; i < 15; i++ {
		normal.Tick(0.25, wNormal, clip.EntityID(1))
		scrubbed.Tick(0.25, wScrub, clip.EntityID(2))

		var scrubTime float32
		scrubbed.samplers.Each(func(id uint8, s *ClipSampler) {
			scrubTime = s.Time
		})
		if scrubTime < 0 || scrubTime >= 1 {
			t.Fatalf("tick %d: scrubbed sampler time %v escaped the clip's loop range", i, scrubTime)
		}
		if wNormal.poses[0] != wScrub.poses[0] {
			t.Fatalf("tick %d: scrub pose %+v diverged from normal playback pose %+v",
				i, wScrub.poses[0], wNormal.poses[0])
		}
	}
}

func TestScrub_BypassesTransitionEvaluation(t *testing.T) {
	g, _ := crossFadeGraph(t)
	e, err := NewEntity(g, testClips())
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	w := newRecordingWriter()
	e.Tick(0, w, clip.EntityID(1))

	e.InstallScrubTimeline([]ScrubSection{
		{Kind: ScrubState, StateIndex: 0, DurationS: 5},
	})
	e.SetBoolParameter(0, true)
	for i := 0; i < 5; i++ {
		result, _ := e.Tick(0.1, w, clip.EntityID(1))
		if result.TransitionFired {
			t.Fatalf("transition evaluated during scrub, tick %d", i)
		}
	}

	// Normal evaluation resumes once the marker is removed.
	e.RemoveScrub()
	result, _ := e.Tick(0.1, w, clip.EntityID(1))
	if !result.TransitionFired {
		t.Fatal("expected the held condition to fire once scrub mode ended")
	}
}

func TestScrub_TransitionSectionBlendsBothStates(t *testing.T) {
	g, _ := crossFadeGraph(t)
	e, err := NewEntity(g, testClips())
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	e.InstallScrubTimeline([]ScrubSection{
		{
			Kind:              ScrubTransition,
			FromStateIndex:    0,
			ToStateIndex:      1,
			DurationS:         1,
			ClipTimeFromStart: 0,
			ClipTimeFromEnd:   1,
			ClipTimeToStart:   0,
			ClipTimeToEnd:     0.5,
		},
	})
	e.ScrubPause()
	e.ScrubTransitionProgress(0.5)

	w := newRecordingWriter()
	e.Tick(0.1, w, clip.EntityID(1))

	if e.anims.Count() != 2 {
		t.Fatalf("expected both transition endpoints live, got %d states", e.anims.Count())
	}
	var weights []float32
	e.anims.Each(func(id uint8, s *AnimationState) {
		weights = append(weights, s.Weight)
	})
	for _, weight := range weights {
		if weight < 0.499 || weight > 0.501 {
			t.Fatalf("expected both endpoints at half weight mid-transition, got %v", weights)
		}
	}
}

func TestScrub_StepFramesAdvancesWhilePaused(t *testing.T) {
	e, err := NewEntity(idleOnlyGraph(t), testClips())
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	e.InstallScrubTimeline([]ScrubSection{
		{Kind: ScrubState, StateIndex: 0, DurationS: 10},
	})
	e.ScrubPause()

	w := newRecordingWriter()
	e.Tick(0.5, w, clip.EntityID(1)) // paused: position stays at 0
	if e.scrub.position != 0 {
		t.Fatalf("paused timeline moved to %v", e.scrub.position)
	}

	e.ScrubStepFrames(30, 60) // half a second of frames
	e.Tick(0, w, clip.EntityID(1))
	if e.scrub.position != 0.5 {
		t.Fatalf("position after stepping 30 frames at 60fps = %v, want 0.5", e.scrub.position)
	}
}
