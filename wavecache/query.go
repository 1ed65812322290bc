package wavecache

import "math"

// TileRequest describes a range of source frames to render at a given
// horizontal resolution.
type TileRequest struct {
	StartFrame       uint64
	EndFrame         uint64
	PixelsPerSecond  float64
	SampleRate       uint32
}

// TileResponse is one tile returned by a query, tagged with the source
// frame range it covers and the mip level it was drawn from.
type TileResponse struct {
	Level      int
	StartFrame uint64
	EndFrame   uint64
	Tiles      []Tile // one per channel
}

// QueryTiles selects the finest mip level whose tile width in seconds,
// multiplied by pixels-per-second, is still >= 1 pixel (see selectLevel),
// then returns every tile of that level overlapping
// [req.StartFrame, req.EndFrame), covering the range without gaps or
// overlaps. If the selected level holds no tiles, the next coarser level
// that holds tiles is used as a stand-in; a level that holds tiles is
// assumed to hold all TileCount of them.
func QueryTiles(f *WfcFile, req TileRequest) []TileResponse {
	if req.SampleRate == 0 || req.EndFrame <= req.StartFrame {
		return nil
	}

	level := selectLevel(&f.Header, req.PixelsPerSecond, req.SampleRate)
	for level < NumMipLevels-1 && len(f.Levels[level]) == 0 {
		level++
	}
	if level >= NumMipLevels || len(f.Levels[level]) == 0 {
		return nil
	}

	channels := int(f.Header.Channels)
	span := uint64(f.Header.BaseTileSamples) << uint(level)
	tileCount := f.Header.TileCount(level)

	firstTile := int(req.StartFrame / span)
	lastTile := int((req.EndFrame - 1) / span)
	if firstTile >= tileCount {
		return nil
	}
	if lastTile >= tileCount {
		lastTile = tileCount - 1
	}

	responses := make([]TileResponse, 0, lastTile-firstTile+1)
	for i := firstTile; i <= lastTile; i++ {
		tiles := make([]Tile, channels)
		for ch := 0; ch < channels; ch++ {
			tiles[ch] = f.Levels[level][i*channels+ch]
		}
		responses = append(responses, TileResponse{
			Level:      level,
			StartFrame: uint64(i) * span,
			EndFrame:   uint64(i+1) * span,
			Tiles:      tiles,
		})
	}
	return responses
}

// selectLevel picks the finest level whose tile width in seconds times
// pixelsPerSecond is still at least one pixel, the level closest to one
// tile per pixel; finer levels would oversample past what the display can
// show. If even the coarsest level's tile is narrower than one pixel, the
// coarsest level is returned.
func selectLevel(h *WfcHeader, pixelsPerSecond float64, sampleRate uint32) int {
	if pixelsPerSecond <= 0 || sampleRate == 0 {
		return 0
	}
	for level := 0; level < NumMipLevels; level++ {
		span := float64(h.BaseTileSamples) * math.Pow(2, float64(level))
		tileSeconds := span / float64(sampleRate)
		if tileSeconds*pixelsPerSecond >= 1 {
			return level
		}
	}
	return NumMipLevels - 1
}
