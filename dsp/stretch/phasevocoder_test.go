package stretch

import (
	"math"
	"testing"
)

func TestPhaseVocoderLengthScalesWithRatio(t *testing.T) {
	p, err := NewPhaseVocoder(44100)
	if err != nil {
		t.Fatalf("NewPhaseVocoder: %v", err)
	}
	input := testSignal(8192)
	out := p.Process(input, 2.0)
	ratio := float64(len(out)) / float64(len(input))
	if ratio < 1.5 || ratio > 2.5 {
		t.Fatalf("2x stretch ratio = %v, want close to 2.0", ratio)
	}
}

func TestPhaseVocoderNoNaNOrInf(t *testing.T) {
	p, err := NewPhaseVocoder(44100)
	if err != nil {
		t.Fatalf("NewPhaseVocoder: %v", err)
	}
	out := p.Process(testSignal(8192), 0.75)
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d is %v", i, v)
		}
	}
}

func TestPhaseVocoderRejectsOddFrameSize(t *testing.T) {
	p, _ := NewPhaseVocoder(44100)
	if err := p.SetFrameSize(100); err == nil {
		t.Fatal("expected error for non-power-of-two frame size")
	}
}

func TestPhaseVocoderRejectsTooSmallFrameSize(t *testing.T) {
	p, _ := NewPhaseVocoder(44100)
	if err := p.SetFrameSize(32); err == nil {
		t.Fatal("expected error for frame size below minimum")
	}
}

func TestWrapPhaseRange(t *testing.T) {
	for _, x := range []float64{-10, -math.Pi - 0.1, 0, math.Pi + 0.1, 20} {
		w := wrapPhase(x)
		if w <= -math.Pi-1e-9 || w > math.Pi+1e-9 {
			t.Fatalf("wrapPhase(%v) = %v, out of [-pi, pi)", x, w)
		}
	}
}
