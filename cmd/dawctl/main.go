// Command dawctl is a thin demonstration CLI exercising the audio graph,
// node library, dual-path engine, and wave cache as a single pipeline.
//
// Usage:
//
//	dawctl chain [flags]
//	dawctl engine [flags]
//	dawctl wavecache [flags]
package main

import (
	"fmt"
	"math"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "chain":
		err = runChain(os.Args[2:])
	case "engine":
		err = runEngine(os.Args[2:])
	case "wavecache":
		err = runWaveCache(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "dawctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dawctl <chain|engine|wavecache> [flags]")
}

// sineNode is a zero-input graph.Node generating a fixed-frequency sine
// tone. It exists only as a signal source for this command's demo
// pipelines; real use of the library feeds external audio into the graph
// through a node of the caller's own construction.
type sineNode struct {
	freq       float64
	sampleRate float64
	phase      float64
}

func newSineNode(freq, sampleRate float64) *sineNode {
	return &sineNode{freq: freq, sampleRate: sampleRate}
}

func (s *sineNode) NumInputs() int      { return 0 }
func (s *sineNode) NumOutputs() int     { return 1 }
func (s *sineNode) LatencySamples() int { return 0 }

func (s *sineNode) SetSampleRate(sampleRate float64) {
	s.sampleRate = sampleRate
}

func (s *sineNode) Reset() { s.phase = 0 }

func (s *sineNode) Process(inputs [][]float64, outputs [][]float64) {
	step := 2 * math.Pi * s.freq / s.sampleRate
	out := outputs[0]
	for i := range out {
		out[i] = math.Sin(s.phase)
		s.phase += step
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
}

// peakAndRMS reports the peak absolute value and RMS level of buf.
func peakAndRMS(buf []float64) (peak, rms float64) {
	var sumSq float64
	for _, v := range buf {
		a := math.Abs(v)
		if a > peak {
			peak = a
		}
		sumSq += v * v
	}
	if len(buf) > 0 {
		rms = math.Sqrt(sumSq / float64(len(buf)))
	}
	return peak, rms
}
