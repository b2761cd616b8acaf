package graph

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// AuthoredParameter declares one named parameter slot. Types are resolved
// to ParameterStore indices at bake time; the runtime never sees names.
type AuthoredParameter struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"` // "bool" | "int" | "float"
}

// AuthoredCondition mirrors Condition with parameter/comparator names.
type AuthoredCondition struct {
	Parameter  string  `json:"parameter" yaml:"parameter"`
	Comparator string  `json:"comparator" yaml:"comparator"`
	Rhs        float32 `json:"rhs,omitempty" yaml:"rhs,omitempty"`
}

// AuthoredCurveKeyframe mirrors CurveKeyframe.
type AuthoredCurveKeyframe struct {
	Time       float32 `json:"time" yaml:"time"`
	Value      float32 `json:"value" yaml:"value"`
	InTangent  float32 `json:"inTangent,omitempty" yaml:"inTangent,omitempty"`
	OutTangent float32 `json:"outTangent,omitempty" yaml:"outTangent,omitempty"`
}

// AuthoredTransition mirrors TransitionRecord plus AllowSelf, which only
// applies when the transition is declared inside an any-state list.
type AuthoredTransition struct {
	To          string                  `json:"to" yaml:"to"`
	DurationS   float32                 `json:"durationS,omitempty" yaml:"durationS,omitempty"`
	HasExitTime bool                    `json:"hasExitTime,omitempty" yaml:"hasExitTime,omitempty"`
	ExitTimeS   float32                 `json:"exitTimeS,omitempty" yaml:"exitTimeS,omitempty"`
	Conditions  []AuthoredCondition     `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Curve       []AuthoredCurveKeyframe `json:"curve,omitempty" yaml:"curve,omitempty"`
	AllowSelf   bool                    `json:"allowSelf,omitempty" yaml:"allowSelf,omitempty"`
}

// AuthoredLinearEntry mirrors LinearEntry with a clip name.
type AuthoredLinearEntry struct {
	Threshold float32 `json:"threshold" yaml:"threshold"`
	Clip      string  `json:"clip" yaml:"clip"`
	ClipSpeed float32 `json:"clipSpeed,omitempty" yaml:"clipSpeed,omitempty"`
}

// AuthoredDirectionalEntry mirrors Directional2DEntry with a clip name.
type AuthoredDirectionalEntry struct {
	X         float32 `json:"x" yaml:"x"`
	Y         float32 `json:"y" yaml:"y"`
	Clip      string  `json:"clip" yaml:"clip"`
	ClipSpeed float32 `json:"clipSpeed,omitempty" yaml:"clipSpeed,omitempty"`
}

// AuthoredState is one state as written by an author, in any of the three
// kinds. Only the fields relevant to Kind are populated.
type AuthoredState struct {
	Name           string  `json:"name" yaml:"name"`
	Kind           string  `json:"kind" yaml:"kind"` // "single" | "linear1d" | "directional2d"
	BaseSpeed      float32 `json:"baseSpeed,omitempty" yaml:"baseSpeed,omitempty"`
	SpeedParameter string  `json:"speedParameter,omitempty" yaml:"speedParameter,omitempty"`
	Loop           bool    `json:"loop,omitempty" yaml:"loop,omitempty"`

	// Single
	Clip string `json:"clip,omitempty" yaml:"clip,omitempty"`

	// Linear1D
	BlendParameter string                `json:"blendParameter,omitempty" yaml:"blendParameter,omitempty"`
	Thresholds     []AuthoredLinearEntry `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`

	// Directional2D
	XParameter string                     `json:"xParameter,omitempty" yaml:"xParameter,omitempty"`
	YParameter string                     `json:"yParameter,omitempty" yaml:"yParameter,omitempty"`
	Positions  []AuthoredDirectionalEntry `json:"positions,omitempty" yaml:"positions,omitempty"`
	Algorithm  string                     `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`

	Transitions []AuthoredTransition `json:"transitions,omitempty" yaml:"transitions,omitempty"`

	// ExitGroup names the shared ExitTransitionGroup this state belongs to,
	// as an exit state of a visual sub-state-machine. Empty means none.
	ExitGroup string `json:"exitGroup,omitempty" yaml:"exitGroup,omitempty"`
}

// AuthoredSubStateMachine is a visual grouping of states that flattens away
// at bake time; only its states' ExitGroup references survive into the
// runtime blob.
type AuthoredSubStateMachine struct {
	Name   string          `json:"name" yaml:"name"`
	States []AuthoredState `json:"states" yaml:"states"`
}

// AuthoredExitGroup names a shared transition list that one or more exit
// states reference by name.
type AuthoredExitGroup struct {
	Name        string               `json:"name" yaml:"name"`
	Transitions []AuthoredTransition `json:"transitions" yaml:"transitions"`
}

// AuthoredGraph is the full YAML document describing a state machine before
// baking. Clip names are resolved to clip-library indices positionally, in
// declaration order, by Bake.
type AuthoredGraph struct {
	Parameters          []AuthoredParameter       `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Clips               []string                  `json:"clips" yaml:"clips"`
	DefaultState        string                    `json:"defaultState" yaml:"defaultState"`
	States              []AuthoredState           `json:"states,omitempty" yaml:"states,omitempty"`
	SubStateMachines    []AuthoredSubStateMachine `json:"subStateMachines,omitempty" yaml:"subStateMachines,omitempty"`
	ExitGroups          []AuthoredExitGroup       `json:"exitGroups,omitempty" yaml:"exitGroups,omitempty"`
	AnyStateTransitions []AuthoredTransition      `json:"anyStateTransitions,omitempty" yaml:"anyStateTransitions,omitempty"`
}

// LoadAuthored decodes an AuthoredGraph from YAML.
func LoadAuthored(r io.Reader) (*AuthoredGraph, error) {
	var a AuthoredGraph
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("graph: decode authored yaml: %w", err)
	}
	return &a, nil
}

// SaveAuthored encodes an AuthoredGraph as YAML.
func SaveAuthored(w io.Writer, a *AuthoredGraph) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("graph: encode authored yaml: %w", err)
	}
	return nil
}
