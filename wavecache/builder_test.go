package wavecache

import (
	"io"
	"math"
	"path/filepath"
	"testing"
)

func sineDecoder(totalFrames uint64, channels int) Decoder {
	var pos uint64
	return func(buf []float64) (int, error) {
		if pos >= totalFrames {
			return 0, io.EOF
		}
		framesAvail := totalFrames - pos
		framesFit := uint64(len(buf) / channels)
		n := framesFit
		if framesAvail < n {
			n = framesAvail
		}
		for f := uint64(0); f < n; f++ {
			v := math.Sin(float64(pos+f) * 0.01)
			for ch := 0; ch < channels; ch++ {
				buf[f*uint64(channels)+uint64(ch)] = v
			}
		}
		pos += n
		return int(n) * channels, nil
	}
}

func TestBuildTaskProducesCorrectTileCounts(t *testing.T) {
	const frames = uint64(240000)
	const channels = 2
	task := NewBuildTask(filepath.Join(t.TempDir(), "out.wfc"), 48000, channels, frames)
	if err := task.Run(sineDecoder(frames, channels), make([]float64, 8192*channels)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if task.State() != BuildDone {
		t.Fatalf("State() = %v, want BuildDone", task.State())
	}
	if p := task.Progress(); p != 1 {
		t.Fatalf("Progress() = %v, want 1", p)
	}

	loaded, err := Load(task.path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := loaded.Header.TileCount(0)
	if got := len(loaded.Levels[0]) / channels; got != want {
		t.Fatalf("level 0 tile count = %d, want %d", got, want)
	}
}

func TestBuildTaskReducesUpwardCorrectly(t *testing.T) {
	const frames = uint64(100000)
	task := NewBuildTask(filepath.Join(t.TempDir(), "out.wfc"), 44100, 1, frames)
	if err := task.Run(sineDecoder(frames, 1), make([]float64, 4096)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	loaded, _ := Load(task.path)
	for level := 1; level < NumMipLevels; level++ {
		prevCount := len(loaded.Levels[level-1])
		wantCount := (prevCount + 1) / 2
		if got := len(loaded.Levels[level]); got != wantCount {
			t.Fatalf("level %d tile count = %d, want %d", level, got, wantCount)
		}
	}
}

func TestBuildTaskFailsOnSaveErrorLeavesNoPartialFile(t *testing.T) {
	task := NewBuildTask(filepath.Join(t.TempDir(), "nonexistent-dir", "out.wfc"), 44100, 1, 1000)
	err := task.Run(sineDecoder(1000, 1), make([]float64, 256))
	if err == nil {
		t.Fatal("expected error when output directory does not exist")
	}
	if task.State() != BuildFailed {
		t.Fatalf("State() = %v, want BuildFailed", task.State())
	}
}

func TestAccumulatorTileReflectsMinMaxRMS(t *testing.T) {
	a := newAccumulator()
	for _, v := range []float64{-0.5, 0.25, 0.8, -0.1} {
		a.add(v)
	}
	tile := a.tile()
	if tile.Min != -0.5 {
		t.Fatalf("min = %v, want -0.5", tile.Min)
	}
	if tile.Max != 0.8 {
		t.Fatalf("max = %v, want 0.8", tile.Max)
	}
}

func TestAccumulatorEmptyYieldsZeroTile(t *testing.T) {
	a := newAccumulator()
	if tile := a.tile(); tile != (Tile{}) {
		t.Fatalf("empty accumulator tile = %+v, want zero value", tile)
	}
}
