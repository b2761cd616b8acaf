package runtime

import (
	"testing"

	"github.com/duskforge/animgraph/clip"
	"github.com/duskforge/animgraph/graph"
)

func TestEntity_AnyStateBeatsOutgoing(t *testing.T) {
	// Both an any-state transition (to recover) and an outgoing transition
	// (to walk) are guarded by the same parameter; the any-state space is
	// scanned first and must win.
	g := mustBake(t, &graph.AuthoredGraph{
		Parameters:   []graph.AuthoredParameter{{Name: "go", Type: "bool"}},
		Clips:        clipNames(),
		DefaultState: "idle",
		States: []graph.AuthoredState{
			{
				Name: "idle", Kind: "single", Clip: "idle", Loop: true,
				Transitions: []graph.AuthoredTransition{
					{To: "walk", Conditions: []graph.AuthoredCondition{{Parameter: "go", Comparator: "boolTrue"}}},
				},
			},
			{Name: "walk", Kind: "single", Clip: "walk", Loop: true},
			{Name: "recover", Kind: "single", Clip: "recover", Loop: true},
		},
		AnyStateTransitions: []graph.AuthoredTransition{
			{To: "recover", Conditions: []graph.AuthoredCondition{{Parameter: "go", Comparator: "boolTrue"}}},
		},
	})

	e, err := NewEntity(g, testClips())
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	w := newRecordingWriter()
	e.Tick(0, w, clip.EntityID(1))

	e.SetBoolParameter(0, true)
	result, _ := e.Tick(0.1, w, clip.EntityID(1))
	if !result.TransitionFired || result.NewStateIndex == nil || *result.NewStateIndex != 2 {
		t.Fatalf("expected the any-state transition to recover (index 2) to win, got %+v", result)
	}
}

func TestEntity_EmptyTransitionNeverFires(t *testing.T) {
	// A transition with no conditions and no exit time is inert, no matter
	// how long the state runs.
	g := mustBake(t, &graph.AuthoredGraph{
		Clips:        clipNames(),
		DefaultState: "idle",
		States: []graph.AuthoredState{
			{
				Name: "idle", Kind: "single", Clip: "idle", Loop: true,
				Transitions: []graph.AuthoredTransition{{To: "walk"}},
			},
			{Name: "walk", Kind: "single", Clip: "walk", Loop: true},
		},
	})

	e, err := NewEntity(g, testClips())
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	w := newRecordingWriter()
	e.Tick(0, w, clip.EntityID(1))

	for i := 0; i < 50; i++ {
		if result, _ := e.Tick(0.25, w, clip.EntityID(1)); result.TransitionFired {
			t.Fatalf("empty transition fired at tick %d", i)
		}
	}
}

func TestEntity_ExitGroupTransitionFires(t *testing.T) {
	// attack is an exit state of a sub-state-machine; its way back to idle
	// lives in the shared exit group, scanned after any-state and outgoing.
	g := mustBake(t, &graph.AuthoredGraph{
		Parameters:   []graph.AuthoredParameter{{Name: "done", Type: "bool"}},
		Clips:        clipNames(),
		DefaultState: "attack",
		States: []graph.AuthoredState{
			{Name: "idle", Kind: "single", Clip: "idle", Loop: true},
		},
		SubStateMachines: []graph.AuthoredSubStateMachine{
			{
				Name: "combat",
				States: []graph.AuthoredState{
					{Name: "attack", Kind: "single", Clip: "jump", Loop: true, ExitGroup: "combatExit"},
				},
			},
		},
		ExitGroups: []graph.AuthoredExitGroup{
			{
				Name: "combatExit",
				Transitions: []graph.AuthoredTransition{
					{To: "idle", DurationS: 0.1, Conditions: []graph.AuthoredCondition{{Parameter: "done", Comparator: "boolTrue"}}},
				},
			},
		},
	})

	e, err := NewEntity(g, testClips())
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	w := newRecordingWriter()
	e.Tick(0, w, clip.EntityID(1))

	if result, _ := e.Tick(0.1, w, clip.EntityID(1)); result.TransitionFired {
		t.Fatal("exit-group transition fired before its condition held")
	}
	e.SetBoolParameter(0, true)
	result, _ := e.Tick(0.1, w, clip.EntityID(1))
	if !result.TransitionFired || result.NewStateIndex == nil || *result.NewStateIndex != 0 {
		t.Fatalf("expected exit-group transition to idle (index 0), got %+v", result)
	}
}

func TestEntity_OneTransitionPerTick(t *testing.T) {
	// idle -> walk and walk -> run are both immediately eligible once "go"
	// holds; each takes its own tick even with zero-duration fades.
	g := mustBake(t, &graph.AuthoredGraph{
		Parameters:   []graph.AuthoredParameter{{Name: "go", Type: "bool"}},
		Clips:        clipNames(),
		DefaultState: "idle",
		States: []graph.AuthoredState{
			{
				Name: "idle", Kind: "single", Clip: "idle", Loop: true,
				Transitions: []graph.AuthoredTransition{
					{To: "walk", Conditions: []graph.AuthoredCondition{{Parameter: "go", Comparator: "boolTrue"}}},
				},
			},
			{
				Name: "walk", Kind: "single", Clip: "walk", Loop: true,
				Transitions: []graph.AuthoredTransition{
					{To: "run", Conditions: []graph.AuthoredCondition{{Parameter: "go", Comparator: "boolTrue"}}},
				},
			},
			{Name: "run", Kind: "single", Clip: "run", Loop: true},
		},
	})

	e, err := NewEntity(g, testClips())
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	w := newRecordingWriter()
	e.Tick(0, w, clip.EntityID(1))

	e.SetBoolParameter(0, true)
	first, _ := e.Tick(0.05, w, clip.EntityID(1))
	if first.NewStateIndex == nil || *first.NewStateIndex != 1 {
		t.Fatalf("expected first tick to reach walk only, got %+v", first)
	}
	second, _ := e.Tick(0.05, w, clip.EntityID(1))
	if second.NewStateIndex == nil || *second.NewStateIndex != 2 {
		t.Fatalf("expected second tick to reach run, got %+v", second)
	}
}

func TestEntity_NoSamplerLeakAcrossTransitions(t *testing.T) {
	g := mustBake(t, &graph.AuthoredGraph{
		Parameters:   []graph.AuthoredParameter{{Name: "go", Type: "bool"}},
		Clips:        clipNames(),
		DefaultState: "idle",
		States: []graph.AuthoredState{
			{
				Name: "idle", Kind: "single", Clip: "idle", Loop: true,
				Transitions: []graph.AuthoredTransition{
					{To: "walk", DurationS: 0.2, Conditions: []graph.AuthoredCondition{{Parameter: "go", Comparator: "boolTrue"}}},
				},
			},
			{
				Name: "walk", Kind: "single", Clip: "walk", Loop: true,
				Transitions: []graph.AuthoredTransition{
					{To: "idle", DurationS: 0.2, Conditions: []graph.AuthoredCondition{{Parameter: "go", Comparator: "boolFalse"}}},
				},
			},
		},
	})
	e, err := NewEntity(g, testClips())
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	w := newRecordingWriter()
	e.Tick(0, w, clip.EntityID(1))

	// Bounce idle -> walk -> idle several times; each fade must fully
	// reclaim the outgoing state's sampler block.
	for round := 0; round < 4; round++ {
		e.SetBoolParameter(0, round%2 == 0)
		for i := 0; i < 10; i++ {
			e.Tick(0.05, w, clip.EntityID(1))
		}
	}

	if e.anims.Count() != 1 {
		t.Fatalf("live animation states = %d, want 1", e.anims.Count())
	}
	current := e.anims.MustGet(e.ref.CurrentAnimStateID)
	if e.samplers.Count() != int(current.ClipCount) {
		t.Fatalf("live samplers = %d, want %d (the current state's clip count)",
			e.samplers.Count(), current.ClipCount)
	}
}
