package nodes

import (
	"math"
	"testing"
)

func TestBiquadNodeLowpassAttenuatesHighFrequency(t *testing.T) {
	const sr = 48000.0
	n, err := NewBiquadNode(1, BiquadLowpass, 500, 2, sr)
	if err != nil {
		t.Fatalf("NewBiquadNode: %v", err)
	}
	frames := 2048
	in := allocBlock(1, frames)
	for i := range in[0] {
		in[0][i] = math.Sin(2 * math.Pi * 8000 * float64(i) / sr)
	}
	out := allocBlock(1, frames)
	n.Process(in, out)

	var inEnergy, outEnergy float64
	for i := 512; i < frames; i++ {
		inEnergy += in[0][i] * in[0][i]
		outEnergy += out[0][i] * out[0][i]
	}
	if outEnergy >= inEnergy*0.5 {
		t.Fatalf("expected lowpass to attenuate an 8kHz tone well below half its input energy, got in=%g out=%g", inEnergy, outEnergy)
	}
}

func TestBiquadNodeRejectsInvalidFreq(t *testing.T) {
	if _, err := NewBiquadNode(1, BiquadLowpass, 0, 2, 48000); err == nil {
		t.Fatal("expected error for non-positive frequency")
	}
}

func TestBiquadNodeSetCutoffRejectsNonPositive(t *testing.T) {
	n, err := NewBiquadNode(1, BiquadLowpass, 1000, 2, 48000)
	if err != nil {
		t.Fatalf("NewBiquadNode: %v", err)
	}
	if err := n.SetCutoff(-10); err == nil {
		t.Fatal("expected error for negative cutoff")
	}
}

func TestCrossoverNodeSplitsLowAndHighBands(t *testing.T) {
	const sr = 48000.0
	n, err := NewCrossoverNode(1, 1000, 4, sr)
	if err != nil {
		t.Fatalf("NewCrossoverNode: %v", err)
	}
	if got := n.NumOutputs(); got != 2 {
		t.Fatalf("NumOutputs: got %d want 2", got)
	}
	frames := 2048
	in := allocBlock(1, frames)
	for i := range in[0] {
		in[0][i] = math.Sin(2*math.Pi*100*float64(i)/sr) + math.Sin(2*math.Pi*12000*float64(i)/sr)
	}
	out := allocBlock(2, frames)
	n.Process(in, out)

	low, high := out[0], out[1]
	var lowEnergy, highEnergy float64
	for i := 512; i < frames; i++ {
		lowEnergy += low[i] * low[i]
		highEnergy += high[i] * high[i]
	}
	if lowEnergy == 0 || highEnergy == 0 {
		t.Fatalf("expected both bands to carry energy, got low=%g high=%g", lowEnergy, highEnergy)
	}
}

func TestCrossoverNodeResetClearsFilterState(t *testing.T) {
	n, err := NewCrossoverNode(1, 1000, 2, 48000)
	if err != nil {
		t.Fatalf("NewCrossoverNode: %v", err)
	}
	in := allocBlock(1, 256)
	for i := range in[0] {
		in[0][i] = 1
	}
	out := allocBlock(2, 256)
	n.Process(in, out)
	n.Reset()

	out2 := allocBlock(2, 256)
	n.Process(in, out2)
	for i := range out[0] {
		if math.Abs(out[0][i]-out2[0][i]) > 1e-9 {
			t.Fatalf("expected identical low-band output after Reset at index %d: %g vs %g", i, out[0][i], out2[0][i])
		}
	}
}
