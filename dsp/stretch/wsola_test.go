package stretch

import (
	"math"
	"testing"
)

func testSignal(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Sin(2 * math.Pi * 220 * float64(i) / 44100)
	}
	return s
}

func TestWSOLAUnityRatioPreservesLengthApprox(t *testing.T) {
	w, err := NewWSOLA(44100)
	if err != nil {
		t.Fatalf("NewWSOLA: %v", err)
	}
	input := testSignal(44100)
	out := w.Process(input, 1.0)
	ratio := float64(len(out)) / float64(len(input))
	if ratio < 0.8 || ratio > 1.2 {
		t.Fatalf("unity stretch length ratio = %v, want within 20%% of 1.0", ratio)
	}
}

func TestWSOLADoubleRatioWithinBounds(t *testing.T) {
	w, err := NewWSOLA(44100)
	if err != nil {
		t.Fatalf("NewWSOLA: %v", err)
	}
	input := testSignal(44100)
	out := w.Process(input, 2.0)
	ratio := float64(len(out)) / float64(len(input))
	if ratio < 1.2 || ratio > 3.0 {
		t.Fatalf("2x stretch length ratio = %v, want within [1.2, 3.0]", ratio)
	}
}

func TestWSOLANoNaNOrInf(t *testing.T) {
	w, err := NewWSOLA(44100)
	if err != nil {
		t.Fatalf("NewWSOLA: %v", err)
	}
	input := testSignal(8000)
	out := w.Process(input, 1.5)
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d is %v", i, v)
		}
	}
}

func TestWSOLASilenceInSilenceOut(t *testing.T) {
	w, err := NewWSOLA(44100)
	if err != nil {
		t.Fatalf("NewWSOLA: %v", err)
	}
	input := make([]float64, 10000)
	out := w.Process(input, 1.3)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0 for silent input", i, v)
		}
	}
}

func TestWSOLAEmptyInput(t *testing.T) {
	w, _ := NewWSOLA(44100)
	if out := w.Process(nil, 1.0); out != nil {
		t.Fatalf("expected nil output for empty input, got %v", out)
	}
}

func TestWSOLARejectsInvalidSampleRate(t *testing.T) {
	if _, err := NewWSOLA(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestMatchDurationHitsTarget(t *testing.T) {
	w, _ := NewWSOLA(44100)
	out := MatchDuration(w, testSignal(44100), 2000, 44100)
	if len(out) != 88200 {
		t.Fatalf("MatchDuration length = %d, want 88200", len(out))
	}
}
