// Package scrubnet is the websocket transport for editor scrub/preview
// sessions: a client sends JSON-encoded scrub commands, which are applied
// to a running Entity's scrub controller and bypass the normal
// state-machine pipeline until the timeline is removed.
//
// Every accepted connection drives exactly one Entity for its lifetime.
// Each read is guarded by a deadline; a permanent error tears the
// connection down.
package scrubnet

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/duskforge/animgraph/runtime"
)

// CommandKind names one scrub playback command.
type CommandKind string

const (
	CommandInstall             CommandKind = "install"
	CommandPlay                CommandKind = "play"
	CommandPause               CommandKind = "pause"
	CommandScrubToNormalized   CommandKind = "scrubToNormalized"
	CommandScrubTransitionProg CommandKind = "scrubTransitionProgress"
	CommandStepFrames          CommandKind = "stepFrames"
	CommandRemove              CommandKind = "remove"
)

// Command is one JSON message a scrub client sends over the websocket.
// Fields not meaningful to Kind are ignored.
type Command struct {
	Kind CommandKind `json:"kind"`

	// install
	Sections []runtime.ScrubSection `json:"sections,omitempty"`

	// scrubToNormalized / scrubTransitionProgress
	T float32 `json:"t,omitempty"`

	// stepFrames
	Frames int     `json:"frames,omitempty"`
	FPS    float32 `json:"fps,omitempty"`
}

const (
	readDeadline = 30 * time.Second
)

// errUnknownEntity is returned by a Server's EntityLookup for a request
// naming an entity the process does not currently hold; tests use it
// directly, and application EntityLookup implementations may wrap it.
var errUnknownEntity = errors.New("scrubnet: unknown entity")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// EntityLookup resolves the entity identifier carried in a scrub session's
// URL (e.g. a query parameter) to the live Entity it should drive. The
// server never owns entity lifetime; it only forwards commands.
type EntityLookup func(r *http.Request) (*runtime.Entity, error)

// Server upgrades incoming HTTP requests to websockets and pumps scrub
// Commands from each connection into the Entity EntityLookup resolves for
// it, one goroutine per connection.
type Server struct {
	lookup EntityLookup
}

// NewServer constructs a Server that resolves each connection's target
// Entity via lookup.
func NewServer(lookup EntityLookup) *Server {
	return &Server{lookup: lookup}
}

// ServeHTTP implements http.Handler, upgrading the request to a websocket
// and running the session until the client disconnects or a permanent
// error occurs.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entity, err := s.lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer conn.Close()

	if err := s.pump(conn, entity); err != nil && !isClosure(err) {
		log.Printf("scrubnet: session ended: %v", err)
	}
}

// pump reads Commands off conn until the connection closes or an
// unexpected error occurs, applying each to entity in turn. Commands are
// necessarily serialized per connection; a scrub session drives one
// entity at a time.
func (s *Server) pump(conn *websocket.Conn, entity *runtime.Entity) error {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			return err
		}

		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if isClosure(err) {
				return nil
			}
			return err
		}

		applyCommand(entity, cmd)
	}
}

func applyCommand(entity *runtime.Entity, cmd Command) {
	switch cmd.Kind {
	case CommandInstall:
		entity.InstallScrubTimeline(cmd.Sections)
	case CommandPlay:
		entity.ScrubPlay()
	case CommandPause:
		entity.ScrubPause()
	case CommandScrubToNormalized:
		entity.ScrubToNormalized(cmd.T)
	case CommandScrubTransitionProg:
		entity.ScrubTransitionProgress(cmd.T)
	case CommandStepFrames:
		entity.ScrubStepFrames(cmd.Frames, cmd.FPS)
	case CommandRemove:
		entity.RemoveScrub()
	}
}

func isClosure(err error) bool {
	if err == nil {
		return false
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	return errors.Is(err, websocket.ErrCloseSent)
}

// EncodeCommand marshals cmd the way a real editor client would before
// writing it to its own websocket.Conn.
func EncodeCommand(cmd Command) ([]byte, error) {
	return json.Marshal(cmd)
}
