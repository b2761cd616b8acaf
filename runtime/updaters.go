package runtime

import (
	"math"

	"github.com/duskforge/animgraph/common"
	"github.com/duskforge/animgraph/graph"
)

// runUpdaters runs the per-state-kind updaters for every live
// AnimationState, dispatching on its originating StateRecord's kind.
func (e *Entity) runUpdaters(dt float32) {
	e.anims.Each(func(id uint8, s *AnimationState) {
		rec, ok := e.graph.State(s.StateIndex)
		if !ok {
			return
		}
		switch rec.Kind {
		case graph.StateSingle:
			e.updateSingle(dt, s)
		case graph.StateLinear1D:
			e.updateLinear1D(dt, s, e.graph.Linear1Ds[rec.PayloadIndex])
		case graph.StateDirectional2D:
			e.updateDirectional2D(dt, s, e.graph.Directional2Ds[rec.PayloadIndex])
		}
	})
}

func (e *Entity) samplerAt(s *AnimationState, ordinal int) *ClipSampler {
	id := s.StartSamplerID + uint8(ordinal)
	sampler, _ := e.samplers.Get(id)
	return sampler
}

func (e *Entity) clipDuration(clipIndex uint16) float32 {
	d, err := e.clips.Duration(clipIndex)
	if err != nil {
		return 0
	}
	return d
}

func wrapLoop(t, duration float32) float32 {
	if duration <= 0 {
		return t
	}
	if t < duration {
		return t
	}
	return float32(math.Mod(float64(t), float64(duration)))
}

// updateSingle advances a single-clip state's lone sampler and hands it
// the state's full weight.
func (e *Entity) updateSingle(dt float32, s *AnimationState) {
	sampler := e.samplerAt(s, 0)
	if sampler == nil {
		return
	}
	sampler.PrevTime = sampler.Time
	sampler.Time += dt * s.Speed * sampler.ClipSpeed
	if s.Loop {
		sampler.Time = wrapLoop(sampler.Time, e.clipDuration(sampler.ClipIndex))
	}
	sampler.Weight = s.Weight
}

// updateLinear1D splits a 1D blend tree's weight across the two samplers
// bracketing the blend parameter and keeps their loop phases synchronized
// through a weight-blended loop duration.
func (e *Entity) updateLinear1D(dt float32, s *AnimationState, payload graph.Linear1DPayload) {
	entries := payload.Entries
	if len(entries) == 0 {
		return
	}

	x, _ := e.params.Float(payload.BlendParameterIndex)
	x = common.Clamp(x, entries[0].Threshold, entries[len(entries)-1].Threshold)

	lo, hi := 0, len(entries)-1
	for i := 0; i < len(entries)-1; i++ {
		if x >= entries[i].Threshold && x <= entries[i+1].Threshold {
			lo, hi = i, i+1
			break
		}
	}

	var t float32
	span := entries[hi].Threshold - entries[lo].Threshold
	if span > 0 {
		t = (x - entries[lo].Threshold) / span
	}

	localWeight := make([]float32, len(entries))
	localWeight[lo] += 1 - t
	localWeight[hi] += t

	var loopDuration float32
	for i, w := range localWeight {
		if w <= 0 {
			continue
		}
		clipSpeed := entries[i].ClipSpeed
		if clipSpeed == 0 {
			clipSpeed = 1
		}
		loopDuration += (e.clipDuration(entries[i].ClipIndex) / clipSpeed) * w
	}

	for i := range entries {
		sampler := e.samplerAt(s, i)
		if sampler == nil {
			continue
		}
		sampler.PrevTime = sampler.Time
		if loopDuration > 0 {
			sampler.Time += dt * s.Speed * e.clipDuration(entries[i].ClipIndex) / loopDuration
		}
		if s.Loop {
			sampler.Time = wrapLoop(sampler.Time, e.clipDuration(entries[i].ClipIndex))
		}
		sampler.Weight = localWeight[i] * s.Weight
	}
}

// updateDirectional2D weights a 2D blend tree's samplers with the payload's
// directional algorithm and keeps their loop phases synchronized the same
// way updateLinear1D does.
func (e *Entity) updateDirectional2D(dt float32, s *AnimationState, payload graph.Directional2DPayload) {
	entries := payload.Entries
	if len(entries) == 0 {
		return
	}

	px, _ := e.params.Float(payload.XParameterIndex)
	py, _ := e.params.Float(payload.YParameterIndex)

	algo := payload.Algorithm
	if algo == graph.AlgoDefault {
		algo = e.opts.Default2DBlendAlgorithm
	}
	localWeight := directional2DWeights(algo, px, py, entries)

	var loopDuration float32
	for i, w := range localWeight {
		if w <= 0 {
			continue
		}
		clipSpeed := entries[i].ClipSpeed
		if clipSpeed == 0 {
			clipSpeed = 1
		}
		loopDuration += (e.clipDuration(entries[i].ClipIndex) / clipSpeed) * w
	}

	for i := range entries {
		sampler := e.samplerAt(s, i)
		if sampler == nil {
			continue
		}
		sampler.PrevTime = sampler.Time
		if loopDuration > 0 {
			sampler.Time += dt * s.Speed * e.clipDuration(entries[i].ClipIndex) / loopDuration
		}
		if s.Loop {
			sampler.Time = wrapLoop(sampler.Time, e.clipDuration(entries[i].ClipIndex))
		}
		sampler.Weight = localWeight[i] * s.Weight
	}
}

const directional2DEpsilon = 1e-5

// directional2DWeights computes the per-entry local blend weights
// (summing to 1) for a 2D blend tree sample point (px, py).
func directional2DWeights(algo graph.Directional2DAlgorithm, px, py float32, entries []graph.Directional2DEntry) []float32 {
	switch algo {
	case graph.AlgoGradientBand:
		return gradientBandWeights(px, py, entries)
	default:
		return inverseDistanceWeights(px, py, entries)
	}
}

func inverseDistanceWeights(px, py float32, entries []graph.Directional2DEntry) []float32 {
	w := make([]float32, len(entries))
	var sum float32
	for i, ent := range entries {
		dx, dy := px-ent.X, py-ent.Y
		dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
		w[i] = 1 / (dist + directional2DEpsilon)
		sum += w[i]
	}
	if sum <= 0 {
		return w
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// gradientBandWeights implements the angular-neighbor-pair gradient-band
// algorithm: entries are ordered by
// angle around the origin, and the sample point's direction is blended
// between its two angular neighbors, scaled by relative radius so that a
// sample exactly at an authored position yields weight 1 for that entry
// and 0 elsewhere, with continuous weights in between.
func gradientBandWeights(px, py float32, entries []graph.Directional2DEntry) []float32 {
	n := len(entries)
	w := make([]float32, n)

	if px == 0 && py == 0 {
		// Origin: nearest-neighbor by radius degrades gracefully; if an
		// entry is authored at the origin it receives full weight via the
		// exact-match check below.
		for i, ent := range entries {
			if ent.X == 0 && ent.Y == 0 {
				w[i] = 1
				return w
			}
		}
	}
	for i, ent := range entries {
		if ent.X == px && ent.Y == py {
			w[i] = 1
			return w
		}
	}

	type polarEntry struct {
		index int
		angle float64
		mag   float64
	}
	polar := make([]polarEntry, n)
	for i, ent := range entries {
		polar[i] = polarEntry{
			index: i,
			angle: math.Atan2(float64(ent.Y), float64(ent.X)),
			mag:   math.Hypot(float64(ent.X), float64(ent.Y)),
		}
	}
	sampleAngle := math.Atan2(float64(py), float64(px))
	sampleMag := math.Hypot(float64(px), float64(py))

	// Sort by angle to find the two angular neighbors bracketing the sample.
	for i := 1; i < n; i++ {
		for j := i; j > 0 && polar[j-1].angle > polar[j].angle; j-- {
			polar[j-1], polar[j] = polar[j], polar[j-1]
		}
	}

	lo, hi := n-1, 0
	for i := 0; i < n; i++ {
		if polar[i].angle <= sampleAngle {
			lo = i
		}
	}
	hi = (lo + 1) % n

	a, b := polar[lo], polar[hi]
	angleSpan := b.angle - a.angle
	if angleSpan <= 0 {
		angleSpan += 2 * math.Pi
	}
	delta := sampleAngle - a.angle
	if delta < 0 {
		delta += 2 * math.Pi
	}
	var t float64
	if angleSpan > 0 {
		t = delta / angleSpan
	}

	expectedMag := a.mag*(1-t) + b.mag*t
	radial := 1.0
	if expectedMag > 0 {
		radial = sampleMag / expectedMag
		if radial > 1 {
			radial = 1 / radial
		}
	}

	w[a.index] = float32((1 - t) * radial)
	w[b.index] = float32(t * radial)

	var sum float32
	for _, v := range w {
		sum += v
	}
	if sum <= 0 {
		w[a.index] = 1
		return w
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}
