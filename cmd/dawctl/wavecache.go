package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/cwbudde/algo-daw/wavecache"
)

// runWaveCache builds a wave cache file from a synthetic sine tone and
// prints the tile counts it produces at each mip level, then queries a
// range of tiles at a chosen display resolution.
func runWaveCache(args []string) error {
	fs := flag.NewFlagSet("wavecache", flag.ExitOnError)
	dir := fs.String("dir", "", "cache directory (defaults to a temp dir)")
	seconds := fs.Float64("seconds", 30, "synthetic source duration in seconds")
	sampleRate := fs.Uint("rate", 48000, "sample rate in Hz")
	pixelsPerSecond := fs.Float64("resolution", 50, "display resolution in pixels per second")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cacheDir := *dir
	if cacheDir == "" {
		tmp, err := os.MkdirTemp("", "dawctl-wavecache-*")
		if err != nil {
			return fmt.Errorf("creating temp cache dir: %w", err)
		}
		cacheDir = tmp
	}

	m := wavecache.NewManager(cacheDir)
	frames := uint64(*seconds * float64(*sampleRate))
	source := "synthetic-sine"

	result, err := m.GetOrBuild(source, uint32(*sampleRate), 1, frames, sineDecoder(frames, float64(*sampleRate)))
	if err != nil {
		return fmt.Errorf("GetOrBuild: %w", err)
	}

	if result.Building != nil {
		for result.Building.State() == wavecache.BuildRunning || result.Building.State() == wavecache.BuildPending {
			time.Sleep(5 * time.Millisecond)
		}
		if result.Building.State() == wavecache.BuildFailed {
			return fmt.Errorf("build failed for %s", source)
		}
	}

	tiles, err := m.QueryTilesFor(source, wavecache.TileRequest{
		StartFrame:      0,
		EndFrame:        frames,
		PixelsPerSecond: *pixelsPerSecond,
		SampleRate:      uint32(*sampleRate),
	})
	if err != nil {
		return fmt.Errorf("QueryTilesFor: %w", err)
	}

	fmt.Printf("cache dir: %s\n", cacheDir)
	fmt.Printf("frames=%d loaded-caches=%d tiles-returned=%d\n", frames, m.LoadedCount(), len(tiles))
	if len(tiles) > 0 {
		first := tiles[0]
		fmt.Printf("level=%d first-tile frames=[%d,%d) min=%.4f max=%.4f rms=%.4f\n",
			first.Level, first.StartFrame, first.EndFrame,
			first.Tiles[0].Min, first.Tiles[0].Max, first.Tiles[0].RMS)
	}
	return nil
}

// sineDecoder returns a Decoder that streams a 220Hz sine tone, decaying
// to silence over the final tenth of the source, so the cache's min/max
// envelope visibly narrows toward the end.
func sineDecoder(totalFrames uint64, sampleRate float64) wavecache.Decoder {
	var pos uint64
	return func(buf []float64) (int, error) {
		n := 0
		for n < len(buf) && pos < totalFrames {
			t := float64(pos) / sampleRate
			decay := 1.0
			if tail := float64(totalFrames) * 0.9; float64(pos) > tail {
				decay = 1 - (float64(pos)-tail)/(float64(totalFrames)-tail)
			}
			buf[n] = decay * math.Sin(2*math.Pi*220*t)
			pos++
			n++
		}
		if n == 0 {
			return 0, nil
		}
		return n, nil
	}
}
