package graph

import "testing"

func rampCurve() *Curve {
	return &Curve{Keyframes: []CurveKeyframe{
		{Time: 0, Value: 0, OutTangent: 0},
		{Time: 1, Value: 1, InTangent: 0},
	}}
}

func TestCurve_ClampsOutsideAuthoredRange(t *testing.T) {
	c := rampCurve()
	if got := c.Evaluate(-0.5); got != 0 {
		t.Fatalf("Evaluate(-0.5) = %v, want first keyframe value 0", got)
	}
	if got := c.Evaluate(1.5); got != 1 {
		t.Fatalf("Evaluate(1.5) = %v, want last keyframe value 1", got)
	}
}

func TestCurve_ZeroTangentsEaseInOut(t *testing.T) {
	// Zero in/out tangents reduce the Hermite basis to the smoothstep
	// shape: h01(0.5) = 0.5, and the ends ease flat.
	c := rampCurve()
	if got := c.Evaluate(0.5); got != 0.5 {
		t.Fatalf("Evaluate(0.5) = %v, want 0.5", got)
	}
	if early := c.Evaluate(0.1); early >= 0.1 {
		t.Fatalf("Evaluate(0.1) = %v, want an eased value below the linear ramp", early)
	}
	if late := c.Evaluate(0.9); late <= 0.9 {
		t.Fatalf("Evaluate(0.9) = %v, want an eased value above the linear ramp", late)
	}
}

func TestCurve_LinearTangentsReproduceLinearRamp(t *testing.T) {
	c := &Curve{Keyframes: []CurveKeyframe{
		{Time: 0, Value: 0, OutTangent: 1},
		{Time: 1, Value: 1, InTangent: 1},
	}}
	for _, x := range []float32{0.25, 0.5, 0.75} {
		if got := c.Evaluate(x); got != x {
			t.Fatalf("Evaluate(%v) = %v, want %v", x, got, x)
		}
	}
}

func TestCurve_EvaluationIsStable(t *testing.T) {
	c := &Curve{Keyframes: []CurveKeyframe{
		{Time: 0, Value: 0.2, OutTangent: 0.7},
		{Time: 0.4, Value: 0.9, InTangent: -0.3, OutTangent: 1.1},
		{Time: 1, Value: 0.5, InTangent: 0.2},
	}}
	for _, x := range []float32{0, 0.1, 0.3999, 0.4, 0.7, 0.999, 1} {
		a, b := c.Evaluate(x), c.Evaluate(x)
		if a != b {
			t.Fatalf("Evaluate(%v) unstable: %v vs %v", x, a, b)
		}
	}
}
