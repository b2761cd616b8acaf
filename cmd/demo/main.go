// Command demo drives a small roster of state-machine entities, logging
// transitions and events to stdout. It opens a real GLFW window purely to
// get an OS event/timer loop; the runtime never touches a GPU context, and
// the skeleton and renderer are external collaborators supplied by the
// embedding engine.
package main

import (
	"flag"
	"log"
	"math/rand"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/duskforge/animgraph/clip"
	"github.com/duskforge/animgraph/common"
	"github.com/duskforge/animgraph/graph"
	rt "github.com/duskforge/animgraph/runtime"
	"github.com/duskforge/animgraph/scheduler"
)

func init() {
	// GLFW requires its event loop to run on the thread that called Init.
	runtime.LockOSThread()
}

func main() {
	headless := flag.Bool("headless", false, "skip opening a window; drive the roster from a plain ticker instead")
	count := flag.Int("entities", 8, "number of entities in the demo roster")
	ticks := flag.Int("ticks", 300, "number of ticks to run before exiting")
	flag.Parse()

	g, lib := buildDemoGraph()

	sched := scheduler.New(scheduler.WithWorkers(4))
	defer sched.Close()

	handles := make([]scheduler.Handle, *count)
	for i := range handles {
		e, err := rt.NewEntity(g, lib)
		if err != nil {
			log.Fatalf("new entity %d: %v", i, err)
		}
		handles[i] = scheduler.Handle{ID: clip.EntityID(i), Entity: e}
	}

	writer := &loggingWriter{}

	if *headless {
		runHeadless(sched, handles, writer, *ticks)
		return
	}
	runWindowed(sched, handles, writer, *ticks)
}

// runHeadless ticks the roster at a fixed dt with no OS event loop, for CI
// and environments without a display.
func runHeadless(sched *scheduler.Scheduler, handles []scheduler.Handle, writer clip.SkeletonWriter, ticks int) {
	const dt = 1.0 / 60.0
	for i := 0; i < ticks; i++ {
		stepRoster(sched, handles, writer, dt, i)
	}
}

// runWindowed opens a small GLFW window purely as a timer/input source and
// ticks the roster once per PollEvents cycle until the window closes or the
// tick budget is exhausted.
func runWindowed(sched *scheduler.Scheduler, handles []scheduler.Handle, writer clip.SkeletonWriter, ticks int) {
	if err := glfw.Init(); err != nil {
		log.Fatalf("glfw init: %v", err)
	}
	defer glfw.Terminate()

	// No rendering happens through this window; disable the OpenGL context
	// GLFW would otherwise create.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Visible, glfw.True)

	win, err := glfw.CreateWindow(480, 240, "animgraph demo", nil, nil)
	if err != nil {
		log.Fatalf("glfw create window: %v", err)
	}
	defer win.Destroy()

	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	last := time.Now()
	for i := 0; i < ticks && !win.ShouldClose(); i++ {
		glfw.PollEvents()
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now
		if dt <= 0 {
			dt = 1.0 / 60.0
		}
		stepRoster(sched, handles, writer, dt, i)
		time.Sleep(time.Second / 60)
	}
}

func stepRoster(sched *scheduler.Scheduler, handles []scheduler.Handle, writer clip.SkeletonWriter, dt float32, tick int) {
	// Nudge a random entity's "go" parameter to exercise transitions, the
	// way an input-driven game loop would feed player intent into the state
	// machine each frame.
	if tick > 0 && tick%90 == 0 && len(handles) > 0 {
		target := handles[rand.Intn(len(handles))].Entity
		_ = target.SetBoolParameter(0, tick/90%2 == 0)
	}

	outcomes := sched.Tick(handles, dt, writer)
	for _, o := range outcomes {
		if o.Result.TransitionFired && o.Result.NewStateIndex != nil {
			log.Printf("tick %d: entity %d transitioned to state %d", tick, o.ID, *o.Result.NewStateIndex)
		}
		for _, ev := range o.Result.EmittedEvents {
			log.Printf("tick %d: entity %d fired event %d", tick, o.ID, ev.EventID)
		}
	}
}

// buildDemoGraph bakes a tiny idle/walk state machine driven by a single
// bool parameter: a looping idle clip that cross-fades to a looping walk
// clip.
func buildDemoGraph() (*graph.Graph, clip.Library) {
	authored := &graph.AuthoredGraph{
		Parameters:   []graph.AuthoredParameter{{Name: "go", Type: "bool"}},
		Clips:        []string{"idle", "walk"},
		DefaultState: "idle",
		States: []graph.AuthoredState{
			{
				Name: "idle", Kind: "single", Clip: "idle", Loop: true,
				Transitions: []graph.AuthoredTransition{
					{To: "walk", DurationS: 0.25, Conditions: []graph.AuthoredCondition{
						{Parameter: "go", Comparator: "boolTrue"},
					}},
				},
			},
			{
				Name: "walk", Kind: "single", Clip: "walk", Loop: true,
				Transitions: []graph.AuthoredTransition{
					{To: "idle", DurationS: 0.25, Conditions: []graph.AuthoredCondition{
						{Parameter: "go", Comparator: "boolFalse"},
					}},
				},
			},
		},
	}

	g, err := graph.Bake(authored)
	if err != nil {
		log.Fatalf("bake demo graph: %v", err)
	}

	lib := clip.NewStaticLibrary([]clip.AnimationClip{
		walkingClip(1.0, 0.0), // idle: no root translation
		walkingClip(1.0, 2.0), // walk: 2m forward per loop
	})
	return g, lib
}

// walkingClip builds a single-bone clip whose root bone translates forward
// by distancePerLoop meters over duration seconds, so the demo's logged
// root-motion deltas are legible.
func walkingClip(duration, distancePerLoop float32) clip.AnimationClip {
	return clip.AnimationClip{
		Duration: duration,
		Channels: []clip.Channel{
			{
				Bone: 0,
				Positions: []clip.VectorKey{
					{Time: 0, Value: common.Vec3{}},
					{Time: duration, Value: common.Vec3{X: distancePerLoop}},
				},
				Rotations: []clip.QuatKey{{Time: 0, Value: common.IdentityQuat()}},
				Scales:    []clip.VectorKey{{Time: 0, Value: common.Vec3{X: 1, Y: 1, Z: 1}}},
			},
		},
	}
}

// loggingWriter is the demo's clip.SkeletonWriter: it discards pose writes
// (no real skeleton exists in this demo) and only exists to exercise the
// interface boundary end to end.
type loggingWriter struct{}

func (w *loggingWriter) WriteLocal(entity clip.EntityID, bone uint16, pose clip.Pose) {}

func (w *loggingWriter) Finalize(entity clip.EntityID) {}
