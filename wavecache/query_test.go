package wavecache

import "testing"

func TestQueryTilesFullRangeHasNoGapsOrOverlaps(t *testing.T) {
	file := buildSyntheticFile(t,240000, 2)
	req := TileRequest{StartFrame: 0, EndFrame: 240000, PixelsPerSecond: 10, SampleRate: 48000}
	resp := QueryTiles(file, req)
	if len(resp) == 0 {
		t.Fatal("expected at least one tile response")
	}
	for i := 1; i < len(resp); i++ {
		if resp[i].StartFrame != resp[i-1].EndFrame {
			t.Fatalf("gap/overlap between tile %d (end %d) and tile %d (start %d)",
				i-1, resp[i-1].EndFrame, i, resp[i].StartFrame)
		}
	}
	if resp[0].StartFrame != 0 {
		t.Fatalf("first tile starts at %d, want 0", resp[0].StartFrame)
	}
	if last := resp[len(resp)-1].EndFrame; last < 240000 {
		t.Fatalf("last tile ends at %d, want >= 240000", last)
	}
}

func TestQueryTilesSelectsCoarserLevelForLowerResolution(t *testing.T) {
	file := buildSyntheticFile(t,240000, 1)
	fine := QueryTiles(file, TileRequest{StartFrame: 0, EndFrame: 240000, PixelsPerSecond: 1000, SampleRate: 48000})
	coarse := QueryTiles(file, TileRequest{StartFrame: 0, EndFrame: 240000, PixelsPerSecond: 1, SampleRate: 48000})
	if len(fine) == 0 || len(coarse) == 0 {
		t.Fatal("expected non-empty responses at both resolutions")
	}
	if fine[0].Level >= coarse[0].Level {
		t.Fatalf("expected higher pixels-per-second to select a finer (lower) level: fine=%d coarse=%d", fine[0].Level, coarse[0].Level)
	}
}

func TestQueryTilesEmptyRangeReturnsNil(t *testing.T) {
	file := buildSyntheticFile(t,1000, 1)
	if resp := QueryTiles(file, TileRequest{StartFrame: 500, EndFrame: 500, PixelsPerSecond: 10, SampleRate: 48000}); resp != nil {
		t.Fatalf("expected nil for empty range, got %v", resp)
	}
}

func TestQueryTilesOutOfRangeStartReturnsNil(t *testing.T) {
	file := buildSyntheticFile(t,1000, 1)
	resp := QueryTiles(file, TileRequest{StartFrame: 1_000_000, EndFrame: 1_000_100, PixelsPerSecond: 10, SampleRate: 48000})
	if resp != nil {
		t.Fatalf("expected nil for start frame beyond source, got %v", resp)
	}
}

func TestSelectLevelPicksLevelThatCoversOnePixel(t *testing.T) {
	h := &WfcHeader{BaseTileSamples: BaseTileSamples}
	level := selectLevel(h, 10, 48000)
	span := float64(BaseTileSamples) * float64(int(1)<<uint(level))
	seconds := span / 48000
	if seconds*10 < 1 {
		t.Fatalf("selected level %d gives tile width %v s, times 10px/s < 1 pixel", level, seconds)
	}
}
