package main

import (
	"flag"
	"fmt"

	"github.com/cwbudde/algo-daw/audio/graph"
	"github.com/cwbudde/algo-daw/audio/nodes"
	"github.com/cwbudde/algo-daw/dsp/core"
)

// runChain builds a sine source feeding a gain stage, a Butterworth
// lowpass, a compressor, and a limiter, then reports the output level
// over the requested number of blocks.
func runChain(args []string) error {
	fs := flag.NewFlagSet("chain", flag.ExitOnError)
	freq := fs.Float64("freq", 220, "source tone frequency in Hz")
	cutoff := fs.Float64("cutoff", 4000, "lowpass cutoff frequency in Hz")
	gainDB := fs.Float64("gain", -6, "input gain in dB")
	sampleRate := fs.Float64("rate", 48000, "sample rate in Hz")
	blockSize := fs.Int("block", 256, "block size in frames")
	blocks := fs.Int("blocks", 100, "number of blocks to process")
	shiftHz := fs.Float64("shift", 0, "frequency shift in Hz, 0 disables the shifter stage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := graph.New(*blockSize, *sampleRate)
	if err != nil {
		return fmt.Errorf("building graph: %w", err)
	}

	source := newSineNode(*freq, *sampleRate)
	sourceID := g.AddNode(source)

	gainNode, err := nodes.NewGainNode(1, core.DBToLinear(*gainDB))
	if err != nil {
		return fmt.Errorf("building gain node: %w", err)
	}
	gainID := g.AddNode(gainNode)

	lowpass, err := nodes.NewBiquadNode(1, nodes.BiquadLowpass, *cutoff, 4, *sampleRate)
	if err != nil {
		return fmt.Errorf("building lowpass node: %w", err)
	}
	lowpassID := g.AddNode(lowpass)

	shiftSourceID := lowpassID
	if *shiftHz > 0 {
		shifter, err := nodes.NewFrequencyShiftNode(1, *sampleRate, *shiftHz)
		if err != nil {
			return fmt.Errorf("building frequency shift node: %w", err)
		}
		shifterID := g.AddNode(shifter)
		if err := g.Connect(graph.Connection{From: lowpassID, FromChannel: 0, To: shifterID, ToChannel: 0}); err != nil {
			return fmt.Errorf("connecting shifter: %w", err)
		}
		shiftSourceID = shifterID
	}

	comp, err := nodes.NewCompressorNode(1, *sampleRate)
	if err != nil {
		return fmt.Errorf("building compressor node: %w", err)
	}
	if err := comp.Stage(0).SetThreshold(-18); err != nil {
		return fmt.Errorf("configuring compressor: %w", err)
	}
	if err := comp.Stage(0).SetRatio(4); err != nil {
		return fmt.Errorf("configuring compressor: %w", err)
	}
	compID := g.AddNode(comp)

	limiter, err := nodes.NewLimiterNode(1, *sampleRate)
	if err != nil {
		return fmt.Errorf("building limiter node: %w", err)
	}
	if err := limiter.Stage(0).SetThreshold(-1); err != nil {
		return fmt.Errorf("configuring limiter: %w", err)
	}
	limiterID := g.AddNode(limiter)

	connections := []graph.Connection{
		{From: sourceID, FromChannel: 0, To: gainID, ToChannel: 0},
		{From: gainID, FromChannel: 0, To: lowpassID, ToChannel: 0},
		{From: shiftSourceID, FromChannel: 0, To: compID, ToChannel: 0},
		{From: compID, FromChannel: 0, To: limiterID, ToChannel: 0},
		{From: limiterID, FromChannel: 0, To: graph.NodeID(0), ToChannel: 0},
	}
	for _, c := range connections {
		if err := g.Connect(c); err != nil {
			return fmt.Errorf("connecting graph: %w", err)
		}
	}

	latency, err := g.TotalLatency()
	if err != nil {
		return fmt.Errorf("computing latency: %w", err)
	}

	output := [][]float64{make([]float64, *blockSize)}
	var peak, lastRMS float64
	for i := 0; i < *blocks; i++ {
		if err := g.Process(output); err != nil {
			return fmt.Errorf("processing block %d: %w", i, err)
		}
		p, rms := peakAndRMS(output[0])
		if p > peak {
			peak = p
		}
		lastRMS = rms
	}

	fmt.Printf("blocks=%d latency=%d samples peak=%.4f (%.1f dBFS) final-block rms=%.4f (%.1f dBFS)\n",
		*blocks, latency, peak, core.LinearToDB(peak), lastRMS, core.LinearToDB(lastRMS))
	return nil
}
