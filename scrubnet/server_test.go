package scrubnet

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/duskforge/animgraph/clip"
	"github.com/duskforge/animgraph/common"
	"github.com/duskforge/animgraph/graph"
	"github.com/duskforge/animgraph/runtime"
)

func testEntity(t *testing.T) *runtime.Entity {
	t.Helper()
	g, err := graph.Bake(&graph.AuthoredGraph{
		Clips:        []string{"idle"},
		DefaultState: "idle",
		States: []graph.AuthoredState{
			{Name: "idle", Kind: "single", Clip: "idle", Loop: true},
		},
	})
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	lib := clip.NewStaticLibrary([]clip.AnimationClip{
		{Duration: 1, Channels: []clip.Channel{
			{Bone: 0,
				Positions: []clip.VectorKey{{Time: 0, Value: common.Vec3{}}},
				Rotations: []clip.QuatKey{{Time: 0, Value: common.IdentityQuat()}},
				Scales:    []clip.VectorKey{{Time: 0, Value: common.Vec3{X: 1, Y: 1, Z: 1}}},
			},
		}},
	})
	e, err := runtime.NewEntity(g, lib)
	if err != nil {
		t.Fatalf("new entity: %v", err)
	}
	return e
}

func TestServerAppliesInstallAndPlaybackCommands(t *testing.T) {
	entity := testEntity(t)

	srv := NewServer(func(r *http.Request) (*runtime.Entity, error) {
		return entity, nil
	})

	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	install := Command{
		Kind: CommandInstall,
		Sections: []runtime.ScrubSection{
			{Kind: runtime.ScrubState, StateIndex: 0, DurationS: 1},
		},
	}
	if err := conn.WriteJSON(install); err != nil {
		t.Fatalf("write install: %v", err)
	}
	if err := conn.WriteJSON(Command{Kind: CommandScrubToNormalized, T: 0.5}); err != nil {
		t.Fatalf("write scrub: %v", err)
	}

	// Give the server goroutine a moment to drain both commands before we
	// assert on the entity's scrub state, since application happens
	// asynchronously relative to this test's writes.
	deadline := time.Now().Add(time.Second)
	for !entity.ScrubActive() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if !entity.ScrubActive() {
		t.Fatal("expected entity to be in scrub mode after an install command")
	}

	if err := conn.WriteJSON(Command{Kind: CommandRemove}); err != nil {
		t.Fatalf("write remove: %v", err)
	}
	deadline = time.Now().Add(time.Second)
	for entity.ScrubActive() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if entity.ScrubActive() {
		t.Fatal("expected entity to leave scrub mode after a remove command")
	}
}

func TestServerRejectsUnknownEntity(t *testing.T) {
	srv := NewServer(func(r *http.Request) (*runtime.Entity, error) {
		return nil, errUnknownEntity
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
