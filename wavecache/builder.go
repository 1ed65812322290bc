package wavecache

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/charmbracelet/log"

	timestats "github.com/cwbudde/algo-daw/stats/time"
)

// Decoder streams PCM for a source in chunks: each call returns up to
// len(buf) interleaved samples (channels-major, one frame at a time) and
// the count actually filled. io.EOF (wrapped or returned as err == nil,
// n == 0) signals the end of the source.
type Decoder func(buf []float64) (n int, err error)

// BuildState is the lifecycle stage of a BuildTask.
type BuildState int

const (
	BuildPending BuildState = iota
	BuildRunning
	BuildDone
	BuildFailed
)

// BuildTask builds one WfcFile from a PCM source, accumulating level-0
// tiles incrementally as chunks stream in and reducing upward once the
// source is exhausted.
type BuildTask struct {
	path       string
	sampleRate uint32
	channels   int
	frames     uint64

	progress atomic.Uint64 // bit pattern of a float64 in [0,1]
	state    atomic.Int32

	logger *log.Logger
}

// NewBuildTask creates a task that will write its result to path once
// Run completes successfully.
func NewBuildTask(path string, sampleRate uint32, channels int, frames uint64) *BuildTask {
	t := &BuildTask{
		path:       path,
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		logger:     log.Default().With("cache", path),
	}
	t.progress.Store(math.Float64bits(0))
	return t
}

// Progress reports build completion in [0,1].
func (t *BuildTask) Progress() float64 {
	return math.Float64frombits(t.progress.Load())
}

// State reports the task's current lifecycle stage.
func (t *BuildTask) State() BuildState {
	return BuildState(t.state.Load())
}

func (t *BuildTask) setProgress(p float64) {
	t.progress.Store(math.Float64bits(p))
}

// accumulator wraps a per-tile timestats.StreamingStats, sampled one
// sample at a time as chunks arrive, and reduced to a Tile on demand.
type accumulator struct {
	stats *timestats.StreamingStats
	buf   [1]float64
}

func newAccumulator() accumulator {
	return accumulator{stats: timestats.NewStreamingStats()}
}

func (a *accumulator) add(sample float64) {
	a.buf[0] = sample
	a.stats.Update(a.buf[:])
}

func (a *accumulator) tile() Tile {
	r := a.stats.Result()
	if r.Length == 0 {
		return Tile{}
	}
	return Tile{
		Min: float32(r.Min),
		Max: float32(r.Max),
		RMS: float32(r.RMS),
	}
}

// Run reads decode in chunks, builds every mip level, and writes the
// result to t.path atomically. The chunk buffer size is chosen by the
// caller; larger chunks amortize the decode call overhead.
func (t *BuildTask) Run(decode Decoder, chunk []float64) error {
	t.state.Store(int32(BuildRunning))

	level0Count := (int(t.frames) + BaseTileSamples - 1) / BaseTileSamples
	acc := make([]accumulator, level0Count*t.channels)
	for i := range acc {
		acc[i] = newAccumulator()
	}

	var framesRead uint64
	for {
		n, err := decode(chunk)
		if n > 0 {
			framesPerChunk := n / t.channels
			for f := 0; f < framesPerChunk; f++ {
				globalFrame := framesRead + uint64(f)
				tileIdx := int(globalFrame / BaseTileSamples)
				if tileIdx >= level0Count {
					continue
				}
				for ch := 0; ch < t.channels; ch++ {
					acc[tileIdx*t.channels+ch].add(chunk[f*t.channels+ch])
				}
			}
			framesRead += uint64(framesPerChunk)
			if t.frames > 0 {
				t.setProgress(math.Min(1, float64(framesRead)/float64(t.frames)*0.9))
			}
		}
		if err != nil || n == 0 {
			break
		}
	}

	file := &WfcFile{
		Header: WfcHeader{
			SampleRate:      t.sampleRate,
			Channels:        uint16(t.channels),
			TotalFrames:     t.frames,
			BaseTileSamples: BaseTileSamples,
		},
	}
	level0 := make([]Tile, len(acc))
	for i, a := range acc {
		level0[i] = a.tile()
	}
	file.Levels[0] = level0

	prev := level0
	prevCount := level0Count
	for level := 1; level < NumMipLevels; level++ {
		count := (prevCount + 1) / 2
		tiles := make([]Tile, count*t.channels)
		for i := 0; i < count; i++ {
			for ch := 0; ch < t.channels; ch++ {
				left := prev[minInt(2*i, prevCount-1)*t.channels+ch]
				var right Tile
				if 2*i+1 < prevCount {
					right = prev[(2*i+1)*t.channels+ch]
				} else {
					right = left
				}
				tiles[i*t.channels+ch] = reduceTile(left, right)
			}
		}
		file.Levels[level] = tiles
		prev = tiles
		prevCount = count
		t.setProgress(0.9 + 0.1*float64(level)/float64(NumMipLevels-1))
	}

	if err := file.Save(t.path); err != nil {
		t.state.Store(int32(BuildFailed))
		t.logger.Error("failed to build waveform cache", "err", err)
		return fmt.Errorf("wavecache: building %s: %w", t.path, err)
	}

	t.setProgress(1)
	t.state.Store(int32(BuildDone))
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
