package clip

import (
	"testing"

	"github.com/duskforge/animgraph/common"
)

func TestStaticLibrary_SampleInterpolatesVectorKeys(t *testing.T) {
	lib := NewStaticLibrary([]AnimationClip{
		{
			Name:     "walk",
			Duration: 1.0,
			Channels: []Channel{
				{
					Bone: 0,
					Positions: []VectorKey{
						{Time: 0, Value: common.Vec3{X: 0}},
						{Time: 1, Value: common.Vec3{X: 2}},
					},
					Rotations: []QuatKey{{Time: 0, Value: common.IdentityQuat()}},
					Scales:    []VectorKey{{Time: 0, Value: common.Vec3{X: 1, Y: 1, Z: 1}}},
				},
			},
		},
	})

	pose, err := lib.Sample(0, 0.5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pose.Pos.X != 1.0 {
		t.Errorf("expected interpolated X=1.0, got %v", pose.Pos.X)
	}
}

func TestStaticLibrary_InvalidClip(t *testing.T) {
	lib := NewStaticLibrary(nil)
	if lib.IsValid(0) {
		t.Fatal("expected clip 0 to be invalid")
	}
	if _, err := lib.Duration(0); err != ErrInvalidClip {
		t.Fatalf("expected ErrInvalidClip, got %v", err)
	}
}

func TestStaticLibrary_UnanimatedBoneYieldsIdentity(t *testing.T) {
	lib := NewStaticLibrary([]AnimationClip{{Duration: 1}})
	pose, err := lib.Sample(0, 0.1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pose.Rot != common.IdentityQuat() {
		t.Errorf("expected identity rotation for unanimated bone, got %+v", pose.Rot)
	}
	if pose.Scale != (common.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("expected unit scale for unanimated bone, got %+v", pose.Scale)
	}
}

func TestStaticLibrary_EventsSortedByNormalizedTime(t *testing.T) {
	lib := NewStaticLibrary([]AnimationClip{
		{
			Duration: 1,
			Events: []Event{
				{NormalizedTime: 0.8, EventID: 2},
				{NormalizedTime: 0.1, EventID: 1},
			},
		},
	})
	events, err := lib.Events(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].EventID != 1 || events[1].EventID != 2 {
		t.Errorf("expected events sorted by normalized time, got %+v", events)
	}
}
