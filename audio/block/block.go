// Package block defines the stereo sample buffer exchanged between the
// audio graph, the dual-path engine, and the wave cache builder.
package block

import "fmt"

// Block is a fixed-length stereo sample buffer carrying enough metadata to
// reconstruct its position in a playback timeline. Only Resize reallocates
// the channel slices after construction (when growing past their capacity);
// callers should not append to Left/Right.
type Block struct {
	Left  []float64
	Right []float64

	// Sequence increments by one for every block produced by a given
	// source, regardless of any transport seek. It detects dropped or
	// duplicated blocks independently of SamplePosition.
	Sequence uint64

	// SamplePosition is the index of this block's first sample on the
	// timeline it was produced from. It can jump discontinuously across a
	// transport seek even though Sequence keeps incrementing.
	SamplePosition int64
}

// New allocates a silent Block of the given length. Length must be
// positive.
func New(length int) (*Block, error) {
	if length <= 0 {
		return nil, fmt.Errorf("block: length must be > 0, got %d", length)
	}
	return &Block{
		Left:  make([]float64, length),
		Right: make([]float64, length),
	}, nil
}

// FromSlices builds a Block around existing equal-length slices without
// copying. It returns an error if the slices differ in length.
func FromSlices(left, right []float64, sequence uint64, samplePosition int64) (*Block, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("block: channel length mismatch: left=%d right=%d", len(left), len(right))
	}
	return &Block{
		Left:           left,
		Right:          right,
		Sequence:       sequence,
		SamplePosition: samplePosition,
	}, nil
}

// Len returns the number of frames in the block.
func (b *Block) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Left)
}

// Clear zeroes both channels in place, leaving Sequence and SamplePosition
// untouched.
func (b *Block) Clear() {
	for i := range b.Left {
		b.Left[i] = 0
		b.Right[i] = 0
	}
}

// CopyFrom copies src's sample data into b in place. Both blocks must have
// the same length; CopyFrom returns an error otherwise. Sequence and
// SamplePosition are copied from src.
func (b *Block) CopyFrom(src *Block) error {
	if b.Len() != src.Len() {
		return fmt.Errorf("block: copy length mismatch: dst=%d src=%d", b.Len(), src.Len())
	}
	copy(b.Left, src.Left)
	copy(b.Right, src.Right)
	b.Sequence = src.Sequence
	b.SamplePosition = src.SamplePosition
	return nil
}

// Resize grows or shrinks the block's channel slices to exactly length,
// zero-filling any new samples. It allocates when length exceeds the
// current capacity and is therefore unsuitable for the audio callback
// thread; construction/reconfiguration paths only.
func (b *Block) Resize(length int) error {
	if length <= 0 {
		return fmt.Errorf("block: length must be > 0, got %d", length)
	}
	b.Left = resizeSlice(b.Left, length)
	b.Right = resizeSlice(b.Right, length)
	return nil
}

func resizeSlice(s []float64, length int) []float64 {
	if cap(s) >= length {
		s = s[:length]
		for i := range s {
			s[i] = 0
		}
		return s
	}
	return make([]float64, length)
}
