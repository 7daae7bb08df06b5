package easing

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	e, err := Parse("easeInOutSine")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e != InOutSine {
		t.Fatalf("expected InOutSine, got %v", e)
	}
	if _, err := Parse("easeSideways"); err == nil {
		t.Fatalf("expected error for unknown easing")
	}
	if !IsName("easeStep") || IsName("splineCatmullRom") {
		t.Fatalf("unexpected IsName result")
	}
}

func TestApply_Endpoints(t *testing.T) {
	for e := Linear; e < easingCount; e++ {
		if e == Step {
			continue
		}
		t.Run(e.String(), func(t *testing.T) {
			if got := e.Apply(0); math.Abs(got) > 1e-9 {
				t.Fatalf("expected 0 at start, got %v", got)
			}
			if got := e.Apply(1); math.Abs(got-1) > 1e-9 {
				t.Fatalf("expected 1 at end, got %v", got)
			}
		})
	}
}

func TestApply_Step(t *testing.T) {
	if Step.Apply(0.99) != 0 {
		t.Fatalf("expected step to hold until the end")
	}
	if Step.Apply(1) != 1 {
		t.Fatalf("expected step to jump at the end")
	}
}

func TestApply_Midpoints(t *testing.T) {
	tests := []struct {
		easing Easing
		want   float64
	}{
		{Linear, 0.5},
		{InQuad, 0.25},
		{OutQuad, 0.75},
		{InOutQuad, 0.5},
		{InCubic, 0.125},
		{InOutSine, 0.5},
		{InOutBounce, 0.5},
	}
	for _, tt := range tests {
		if got := tt.easing.Apply(0.5); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("%s: expected %v, got %v", tt.easing, tt.want, got)
		}
	}
}

func TestString(t *testing.T) {
	if InBack.String() != "easeInBack" {
		t.Fatalf("unexpected name: %s", InBack)
	}
	if Easing(99).String() != "Easing(99)" {
		t.Fatalf("unexpected out of range name")
	}
}
