package graph

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var blobMagic = [4]byte{'D', 'M', 'S', 'M'}

const blobVersion uint32 = 1

// ErrBlobMagic is returned by Decode when the stream does not start with
// the expected magic number.
var ErrBlobMagic = errors.New("graph: not a blob (bad magic)")

// ErrBlobVersion is returned by Decode when the stream's version does not
// match the decoder: readers reject blobs from a newer or older writer
// rather than guess at a schema.
var ErrBlobVersion = errors.New("graph: unsupported blob version")

type blobHeader struct {
	Magic             [4]byte
	Version           uint32
	DefaultStateIndex uint16
	_                 uint16 // padding, keeps the header word-aligned
	NumStates         uint32
	NumAnyState       uint32
	NumExitGroups     uint32
	NumSingles        uint32
	NumLinear1Ds      uint32
	NumDirectional2Ds uint32
	NumBoolParams     uint16
	NumIntParams      uint16
	NumFloatParams    uint16
	_                 uint16
}

// Encode serializes g to w as a binary blob: a fixed header
// followed by contiguous arrays, all little-endian. The format is meant to
// be mmap-friendly for a future zero-copy reader, though this encoder always
// goes through an ordinary io.Writer.
func Encode(w io.Writer, g *Graph) error {
	hdr := blobHeader{
		Magic:             blobMagic,
		Version:           blobVersion,
		DefaultStateIndex: g.DefaultStateIndex,
		NumStates:         uint32(len(g.States)),
		NumAnyState:       uint32(len(g.AnyStateTransitions)),
		NumExitGroups:     uint32(len(g.ExitGroups)),
		NumSingles:        uint32(len(g.Singles)),
		NumLinear1Ds:      uint32(len(g.Linear1Ds)),
		NumDirectional2Ds: uint32(len(g.Directional2Ds)),
		NumBoolParams:     g.NumBoolParams,
		NumIntParams:      g.NumIntParams,
		NumFloatParams:    g.NumFloatParams,
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("graph: write header: %w", err)
	}

	for i := range g.States {
		if err := writeState(w, &g.States[i]); err != nil {
			return fmt.Errorf("graph: write state %d: %w", i, err)
		}
	}
	for i := range g.AnyStateTransitions {
		if err := writeTransition(w, g.AnyStateTransitions[i].TransitionRecord); err != nil {
			return fmt.Errorf("graph: write any-state transition %d: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, g.AnyStateTransitions[i].AllowSelf); err != nil {
			return err
		}
	}
	for i := range g.ExitGroups {
		if err := writeUint32(w, uint32(len(g.ExitGroups[i].Transitions))); err != nil {
			return err
		}
		for _, t := range g.ExitGroups[i].Transitions {
			if err := writeTransition(w, t); err != nil {
				return fmt.Errorf("graph: write exit group %d transition: %w", i, err)
			}
		}
	}
	for i := range g.Singles {
		if err := binary.Write(w, binary.LittleEndian, g.Singles[i]); err != nil {
			return err
		}
	}
	for i := range g.Linear1Ds {
		if err := writeLinear1D(w, &g.Linear1Ds[i]); err != nil {
			return fmt.Errorf("graph: write linear1d %d: %w", i, err)
		}
	}
	for i := range g.Directional2Ds {
		if err := writeDirectional2D(w, &g.Directional2Ds[i]); err != nil {
			return fmt.Errorf("graph: write directional2d %d: %w", i, err)
		}
	}
	return nil
}

// Decode deserializes a Graph previously written by Encode.
func Decode(r io.Reader) (*Graph, error) {
	var hdr blobHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("graph: read header: %w", err)
	}
	if hdr.Magic != blobMagic {
		return nil, ErrBlobMagic
	}
	if hdr.Version != blobVersion {
		return nil, ErrBlobVersion
	}

	g := &Graph{
		DefaultStateIndex: hdr.DefaultStateIndex,
		NumBoolParams:     hdr.NumBoolParams,
		NumIntParams:      hdr.NumIntParams,
		NumFloatParams:    hdr.NumFloatParams,
	}

	g.States = make([]StateRecord, hdr.NumStates)
	for i := range g.States {
		rec, err := readState(r)
		if err != nil {
			return nil, fmt.Errorf("graph: read state %d: %w", i, err)
		}
		g.States[i] = rec
	}

	g.AnyStateTransitions = make([]AnyStateTransition, hdr.NumAnyState)
	for i := range g.AnyStateTransitions {
		tr, err := readTransition(r)
		if err != nil {
			return nil, fmt.Errorf("graph: read any-state transition %d: %w", i, err)
		}
		var allowSelf bool
		if err := binary.Read(r, binary.LittleEndian, &allowSelf); err != nil {
			return nil, err
		}
		g.AnyStateTransitions[i] = AnyStateTransition{TransitionRecord: tr, AllowSelf: allowSelf}
	}

	g.ExitGroups = make([]ExitTransitionGroup, hdr.NumExitGroups)
	for i := range g.ExitGroups {
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		group := ExitTransitionGroup{Transitions: make([]TransitionRecord, n)}
		for j := range group.Transitions {
			tr, err := readTransition(r)
			if err != nil {
				return nil, fmt.Errorf("graph: read exit group %d transition %d: %w", i, j, err)
			}
			group.Transitions[j] = tr
		}
		g.ExitGroups[i] = group
	}

	g.Singles = make([]SinglePayload, hdr.NumSingles)
	for i := range g.Singles {
		if err := binary.Read(r, binary.LittleEndian, &g.Singles[i]); err != nil {
			return nil, fmt.Errorf("graph: read single %d: %w", i, err)
		}
	}

	g.Linear1Ds = make([]Linear1DPayload, hdr.NumLinear1Ds)
	for i := range g.Linear1Ds {
		p, err := readLinear1D(r)
		if err != nil {
			return nil, fmt.Errorf("graph: read linear1d %d: %w", i, err)
		}
		g.Linear1Ds[i] = p
	}

	g.Directional2Ds = make([]Directional2DPayload, hdr.NumDirectional2Ds)
	for i := range g.Directional2Ds {
		p, err := readDirectional2D(r)
		if err != nil {
			return nil, fmt.Errorf("graph: read directional2d %d: %w", i, err)
		}
		g.Directional2Ds[i] = p
	}

	return g, nil
}

func writeUint32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readUint32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func writeState(w io.Writer, s *StateRecord) error {
	fixed := struct {
		Kind                StateKind
		PayloadIndex        uint16
		BaseSpeed           float32
		SpeedParameterIndex int32
		Loop                bool
		ExitGroupIndex      int32
	}{s.Kind, s.PayloadIndex, s.BaseSpeed, s.SpeedParameterIndex, s.Loop, s.ExitGroupIndex}
	if err := binary.Write(w, binary.LittleEndian, fixed); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(s.Transitions))); err != nil {
		return err
	}
	for _, t := range s.Transitions {
		if err := writeTransition(w, t); err != nil {
			return err
		}
	}
	return nil
}

func readState(r io.Reader) (StateRecord, error) {
	var fixed struct {
		Kind                StateKind
		PayloadIndex        uint16
		BaseSpeed           float32
		SpeedParameterIndex int32
		Loop                bool
		ExitGroupIndex      int32
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return StateRecord{}, err
	}
	n, err := readUint32(r)
	if err != nil {
		return StateRecord{}, err
	}
	rec := StateRecord{
		Kind:                fixed.Kind,
		PayloadIndex:        fixed.PayloadIndex,
		BaseSpeed:           fixed.BaseSpeed,
		SpeedParameterIndex: fixed.SpeedParameterIndex,
		Loop:                fixed.Loop,
		ExitGroupIndex:      fixed.ExitGroupIndex,
		Transitions:         make([]TransitionRecord, n),
	}
	for i := range rec.Transitions {
		tr, err := readTransition(r)
		if err != nil {
			return StateRecord{}, err
		}
		rec.Transitions[i] = tr
	}
	return rec, nil
}

func writeTransition(w io.Writer, t TransitionRecord) error {
	fixed := struct {
		ToStateIndex uint16
		DurationS    float32
		HasExitTime  bool
		ExitTimeS    float32
	}{t.ToStateIndex, t.DurationS, t.HasExitTime, t.ExitTimeS}
	if err := binary.Write(w, binary.LittleEndian, fixed); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(t.Conditions))); err != nil {
		return err
	}
	for _, c := range t.Conditions {
		if err := binary.Write(w, binary.LittleEndian, c); err != nil {
			return err
		}
	}
	hasCurve := t.Curve != nil
	if err := binary.Write(w, binary.LittleEndian, hasCurve); err != nil {
		return err
	}
	if hasCurve {
		if err := writeUint32(w, uint32(len(t.Curve.Keyframes))); err != nil {
			return err
		}
		for _, k := range t.Curve.Keyframes {
			if err := binary.Write(w, binary.LittleEndian, k); err != nil {
				return err
			}
		}
	}
	return nil
}

func readTransition(r io.Reader) (TransitionRecord, error) {
	var fixed struct {
		ToStateIndex uint16
		DurationS    float32
		HasExitTime  bool
		ExitTimeS    float32
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return TransitionRecord{}, err
	}
	n, err := readUint32(r)
	if err != nil {
		return TransitionRecord{}, err
	}
	conds := make([]Condition, n)
	for i := range conds {
		if err := binary.Read(r, binary.LittleEndian, &conds[i]); err != nil {
			return TransitionRecord{}, err
		}
	}
	var hasCurve bool
	if err := binary.Read(r, binary.LittleEndian, &hasCurve); err != nil {
		return TransitionRecord{}, err
	}
	var curve *Curve
	if hasCurve {
		cn, err := readUint32(r)
		if err != nil {
			return TransitionRecord{}, err
		}
		kfs := make([]CurveKeyframe, cn)
		for i := range kfs {
			if err := binary.Read(r, binary.LittleEndian, &kfs[i]); err != nil {
				return TransitionRecord{}, err
			}
		}
		curve = &Curve{Keyframes: kfs}
	}
	return TransitionRecord{
		ToStateIndex: fixed.ToStateIndex,
		DurationS:    fixed.DurationS,
		HasExitTime:  fixed.HasExitTime,
		ExitTimeS:    fixed.ExitTimeS,
		Conditions:   conds,
		Curve:        curve,
	}, nil
}

func writeLinear1D(w io.Writer, p *Linear1DPayload) error {
	if err := binary.Write(w, binary.LittleEndian, p.BlendParameterIndex); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(p.Entries))); err != nil {
		return err
	}
	for _, e := range p.Entries {
		if err := binary.Write(w, binary.LittleEndian, e); err != nil {
			return err
		}
	}
	return nil
}

func readLinear1D(r io.Reader) (Linear1DPayload, error) {
	var paramIdx uint16
	if err := binary.Read(r, binary.LittleEndian, &paramIdx); err != nil {
		return Linear1DPayload{}, err
	}
	n, err := readUint32(r)
	if err != nil {
		return Linear1DPayload{}, err
	}
	entries := make([]LinearEntry, n)
	for i := range entries {
		if err := binary.Read(r, binary.LittleEndian, &entries[i]); err != nil {
			return Linear1DPayload{}, err
		}
	}
	return Linear1DPayload{BlendParameterIndex: paramIdx, Entries: entries}, nil
}

func writeDirectional2D(w io.Writer, p *Directional2DPayload) error {
	fixed := struct {
		XParameterIndex uint16
		YParameterIndex uint16
		Algorithm       Directional2DAlgorithm
	}{p.XParameterIndex, p.YParameterIndex, p.Algorithm}
	if err := binary.Write(w, binary.LittleEndian, fixed); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(p.Entries))); err != nil {
		return err
	}
	for _, e := range p.Entries {
		if err := binary.Write(w, binary.LittleEndian, e); err != nil {
			return err
		}
	}
	return nil
}

func readDirectional2D(r io.Reader) (Directional2DPayload, error) {
	var fixed struct {
		XParameterIndex uint16
		YParameterIndex uint16
		Algorithm       Directional2DAlgorithm
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return Directional2DPayload{}, err
	}
	n, err := readUint32(r)
	if err != nil {
		return Directional2DPayload{}, err
	}
	entries := make([]Directional2DEntry, n)
	for i := range entries {
		if err := binary.Read(r, binary.LittleEndian, &entries[i]); err != nil {
			return Directional2DPayload{}, err
		}
	}
	return Directional2DPayload{
		XParameterIndex: fixed.XParameterIndex,
		YParameterIndex: fixed.YParameterIndex,
		Entries:         entries,
		Algorithm:       fixed.Algorithm,
	}, nil
}

// EncodeBytes is a convenience wrapper returning the encoded blob as bytes.
func EncodeBytes(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
