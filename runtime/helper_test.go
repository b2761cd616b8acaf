package runtime

import (
	"testing"

	"github.com/duskforge/animgraph/clip"
	"github.com/duskforge/animgraph/common"
	"github.com/duskforge/animgraph/graph"
)

// recordingWriter is a clip.SkeletonWriter test double that keeps the last
// pose written per bone and counts Finalize calls.
type recordingWriter struct {
	poses    map[uint16]clip.Pose
	finalize int
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{poses: make(map[uint16]clip.Pose)}
}

func (w *recordingWriter) WriteLocal(entity clip.EntityID, bone uint16, pose clip.Pose) {
	w.poses[bone] = pose
}

func (w *recordingWriter) Finalize(entity clip.EntityID) {
	w.finalize++
}

// testClips builds a small StaticLibrary where bone 0's X translation tracks
// local time directly (pos.X == t), which makes root-motion deltas easy to
// predict in tests: a sampler advancing by dt contributes exactly dt of X
// translation.
func testClips() clip.Library {
	linear := func(duration float32) clip.AnimationClip {
		return clip.AnimationClip{
			Duration: duration,
			Channels: []clip.Channel{
				{
					Bone: 0,
					Positions: []clip.VectorKey{
						{Time: 0, Value: common.Vec3{X: 0}},
						{Time: duration, Value: common.Vec3{X: duration}},
					},
					Rotations: []clip.QuatKey{{Time: 0, Value: common.IdentityQuat()}},
					Scales:    []clip.VectorKey{{Time: 0, Value: common.Vec3{X: 1, Y: 1, Z: 1}}},
				},
			},
		}
	}
	return clip.NewStaticLibrary([]clip.AnimationClip{
		linear(1),   // 0: idle
		linear(1),   // 1: walk
		linear(1),   // 2: run
		linear(0.5), // 3: jump
		linear(1),   // 4: recover
	})
}

func clipNames() []string { return []string{"idle", "walk", "run", "jump", "recover"} }

func mustBake(t *testing.T, authored *graph.AuthoredGraph) *graph.Graph {
	t.Helper()
	g, err := graph.Bake(authored)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	return g
}
