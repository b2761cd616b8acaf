package runtime

import (
	"math"
	"testing"

	"github.com/duskforge/animgraph/clip"
	"github.com/duskforge/animgraph/common"
)

// nanLibrary is a clip.Library test double that reports a NaN translation
// for every sample, used to exercise the NaN degradation path.
type nanLibrary struct{}

func (nanLibrary) Sample(clipIndex uint16, localTimeS float32, bone uint16) (clip.Pose, error) {
	return clip.Pose{
		Pos:   common.Vec3{X: float32(math.NaN())},
		Rot:   common.IdentityQuat(),
		Scale: common.Vec3{X: 1, Y: 1, Z: 1},
	}, nil
}

func (nanLibrary) Duration(clipIndex uint16) (float32, error) { return 1, nil }
func (nanLibrary) Events(clipIndex uint16) ([]clip.Event, error) { return nil, nil }
func (nanLibrary) IsValid(clipIndex uint16) bool { return true }

func TestEntity_NumericNaNClampedToNeutral(t *testing.T) {
	e, err := NewEntity(idleOnlyGraph(t), nanLibrary{})
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	w := newRecordingWriter()

	e.Tick(0.1, w, clip.EntityID(1))
	e.Tick(0.1, w, clip.EntityID(1))

	pose, ok := w.poses[0]
	if !ok {
		t.Fatalf("expected bone 0 to be written")
	}
	if pose.Pos.IsNaN() || pose.Rot.IsNaN() || pose.Scale.IsNaN() {
		t.Fatalf("expected NaN pose clamped to neutral, got %+v", pose)
	}
	if e.Diagnostics().NumericNaNClamped == 0 {
		t.Fatalf("expected NumericNaNClamped counter to be bumped")
	}
}
