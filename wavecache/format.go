// Package wavecache implements a mip-mapped, on-disk peak-tile store for
// waveform rendering: build once from decoded PCM, then answer tile
// queries at whatever zoom level a view needs without re-scanning samples.
package wavecache

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	// wfcMagic identifies a wave-cache file; wfcVersion guards the layout.
	wfcMagic   uint32 = 0x31434657 // "WFC1" little-endian
	wfcVersion uint32 = 1

	// NumMipLevels is the number of peak-tile resolutions stored per file,
	// from finest (level 0) to coarsest (level NumMipLevels-1).
	NumMipLevels = 8

	// BaseTileSamples is the number of source samples summarised by a
	// single level-0 tile.
	BaseTileSamples = 256

	tileFieldsPerChannel = 3 // min, max, rms
	tileFieldBytes       = 4 // float32
)

// ErrUnknownVersion is returned by Load when a file's version field does
// not match wfcVersion.
var ErrUnknownVersion = fmt.Errorf("wavecache: unknown file version")

// ErrBadMagic is returned by Load when a file's magic number is wrong.
var ErrBadMagic = fmt.Errorf("wavecache: not a wave-cache file")

// Tile holds the min/max/RMS summary of one channel over a span of source
// samples.
type Tile struct {
	Min float32
	Max float32
	RMS float32
}

// reduceTile merges two child tiles into their parent, per the level-k+1
// reduction rule: min/max propagate, rms combines in quadrature.
func reduceTile(a, b Tile) Tile {
	return Tile{
		Min: minF32(a.Min, b.Min),
		Max: maxF32(a.Max, b.Max),
		RMS: float32(math.Sqrt((float64(a.RMS)*float64(a.RMS) + float64(b.RMS)*float64(b.RMS)) / 2)),
	}
}

func minF32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// WfcHeader is the fixed-size header of a .wfc file.
type WfcHeader struct {
	SampleRate      uint32
	Channels        uint16
	TotalFrames     uint64
	BaseTileSamples uint32
	LevelOffsets    [NumMipLevels]uint64 // byte offsets into the tile region
}

// TileCount reports how many tiles level k holds for this header's frame
// count: ceil(TotalFrames / (BaseTileSamples * 2^k)).
func (h *WfcHeader) TileCount(level int) int {
	span := uint64(h.BaseTileSamples) << uint(level)
	if span == 0 {
		return 0
	}
	return int((h.TotalFrames + span - 1) / span)
}

// WfcFile is the in-memory representation of a loaded or freshly built
// wave-cache file: a header plus, per mip level, a flat per-channel tile
// array (levels[level][channel*tileCount+tileIndex]).
type WfcFile struct {
	Header WfcHeader
	Levels [NumMipLevels][]Tile // each sized Channels * TileCount(level)
}

// Save writes f to path as a .wfc file: header, then each mip level's
// tiles in order, then the header rewritten with final offsets.
func (f *WfcFile) Save(path string) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("wavecache: creating temp file: %w", err)
	}
	ok := false
	defer func() {
		file.Close()
		if !ok {
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(file)
	if err := writeHeaderPlaceholder(w); err != nil {
		return err
	}

	offset := headerSize()
	for level := 0; level < NumMipLevels; level++ {
		f.Header.LevelOffsets[level] = offset
		tiles := f.Levels[level]
		for _, t := range tiles {
			if err := writeFloat32(w, t.Min); err != nil {
				return err
			}
			if err := writeFloat32(w, t.Max); err != nil {
				return err
			}
			if err := writeFloat32(w, t.RMS); err != nil {
				return err
			}
		}
		offset += uint64(len(tiles)) * tileFieldBytes * tileFieldsPerChannel
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("wavecache: flushing tile data: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wavecache: seeking to header: %w", err)
	}
	hw := bufio.NewWriter(file)
	if err := writeHeader(hw, &f.Header); err != nil {
		return err
	}
	if err := hw.Flush(); err != nil {
		return fmt.Errorf("wavecache: rewriting header: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("wavecache: closing file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("wavecache: renaming temp file: %w", err)
	}
	ok = true
	return nil
}

// Load reads a .wfc file from disk, validating magic and version.
func Load(path string) (*WfcFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavecache: opening file: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	f := &WfcFile{Header: *header}
	for level := 0; level < NumMipLevels; level++ {
		count := header.TileCount(level) * int(header.Channels)
		tiles := make([]Tile, count)
		for i := range tiles {
			min, err := readFloat32(r)
			if err != nil {
				return nil, fmt.Errorf("wavecache: reading level %d tile %d: %w", level, i, err)
			}
			max, err := readFloat32(r)
			if err != nil {
				return nil, fmt.Errorf("wavecache: reading level %d tile %d: %w", level, i, err)
			}
			rms, err := readFloat32(r)
			if err != nil {
				return nil, fmt.Errorf("wavecache: reading level %d tile %d: %w", level, i, err)
			}
			tiles[i] = Tile{Min: min, Max: max, RMS: rms}
		}
		f.Levels[level] = tiles
	}
	return f, nil
}

func headerSize() uint64 {
	return 4 + 4 + 4 + 2 + 8 + 4 + NumMipLevels*8
}

func writeHeaderPlaceholder(w io.Writer) error {
	var zero WfcHeader
	return writeHeader(w, &zero)
}

func writeHeader(w io.Writer, h *WfcHeader) error {
	if err := binary.Write(w, binary.LittleEndian, wfcMagic); err != nil {
		return fmt.Errorf("wavecache: writing magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, wfcVersion); err != nil {
		return fmt.Errorf("wavecache: writing version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.SampleRate); err != nil {
		return fmt.Errorf("wavecache: writing sample rate: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.Channels); err != nil {
		return fmt.Errorf("wavecache: writing channel count: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.TotalFrames); err != nil {
		return fmt.Errorf("wavecache: writing total frames: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.BaseTileSamples); err != nil {
		return fmt.Errorf("wavecache: writing base tile samples: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.LevelOffsets); err != nil {
		return fmt.Errorf("wavecache: writing level offsets: %w", err)
	}
	return nil
}

func readHeader(r io.Reader) (*WfcHeader, error) {
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("wavecache: reading magic: %w", err)
	}
	if magic != wfcMagic {
		return nil, ErrBadMagic
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("wavecache: reading version: %w", err)
	}
	if version != wfcVersion {
		return nil, ErrUnknownVersion
	}
	h := &WfcHeader{}
	if err := binary.Read(r, binary.LittleEndian, &h.SampleRate); err != nil {
		return nil, fmt.Errorf("wavecache: reading sample rate: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Channels); err != nil {
		return nil, fmt.Errorf("wavecache: reading channel count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.TotalFrames); err != nil {
		return nil, fmt.Errorf("wavecache: reading total frames: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.BaseTileSamples); err != nil {
		return nil, fmt.Errorf("wavecache: reading base tile samples: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.LevelOffsets); err != nil {
		return nil, fmt.Errorf("wavecache: reading level offsets: %w", err)
	}
	return h, nil
}

func writeFloat32(w io.Writer, v float32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readFloat32(r io.Reader) (float32, error) {
	var v float32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
