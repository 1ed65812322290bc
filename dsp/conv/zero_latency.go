package conv

import (
	"fmt"
	"math"
)

// ZeroLatencyConvolver combines a short direct FIR head with a partitioned
// FFT tail so that every input sample yields an output sample immediately
// (no reported processing latency), at the cost of the tail's
// contribution lagging the direct path by one partition: the tail only
// "sees" a completed block of input every partitionSize samples, so its
// output for the current block is read back one block late, queued
// sample by sample. That block boundary is smoothed with a raised-cosine
// crossfade against the tail of the previous block — unlike a reference
// implementation that computes the same crossfade curves but never
// applies them, this one actually blends across the seam.
type ZeroLatencyConvolver struct {
	directLen     int
	partitionSize int
	crossfadeLen  int

	directCoeffs []float64
	directDelay  []float64
	delayPos     int

	tail *UniformPartitionedConvolver

	// tailBufs is a two-slot ping-pong for the tail's per-partition
	// output: currQueue/prevQueue point into these rather than into
	// freshly allocated slices. By the time a slot is due for reuse (two
	// partitions later), every tailSample read from it — including any
	// crossfade-out contribution, which never spans more than the first
	// crossfadeLen samples of a partition — has already completed.
	tailBufs   [2][]float64
	tailBufIdx int

	currQueue []float64
	prevQueue []float64
	queuePos  int

	crossfadeIn  []float64
	crossfadeOut []float64
}

// ZeroLatencyConfig bundles the three structural parameters of a
// ZeroLatencyConvolver.
type ZeroLatencyConfig struct {
	DirectLength   int
	PartitionSize  int
	CrossfadeLength int
}

// DefaultZeroLatencyConfig returns a balanced configuration suitable for
// typical reverb or cabinet impulse responses.
func DefaultZeroLatencyConfig() ZeroLatencyConfig {
	return ZeroLatencyConfig{DirectLength: 128, PartitionSize: 512, CrossfadeLength: 64}
}

// LowLatencyZeroLatencyConfig trades CPU efficiency for a shorter direct
// head and finer partition granularity.
func LowLatencyZeroLatencyConfig() ZeroLatencyConfig {
	return ZeroLatencyConfig{DirectLength: 64, PartitionSize: 256, CrossfadeLength: 32}
}

// HighQualityZeroLatencyConfig favors a longer direct head and coarser,
// more CPU-efficient tail partitioning.
func HighQualityZeroLatencyConfig() ZeroLatencyConfig {
	return ZeroLatencyConfig{DirectLength: 256, PartitionSize: 1024, CrossfadeLength: 128}
}

// NewZeroLatencyConvolver splits ir at cfg.DirectLength into a direct head
// and a partitioned tail.
func NewZeroLatencyConvolver(ir []float64, cfg ZeroLatencyConfig) (*ZeroLatencyConvolver, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyImpulseResponse
	}
	if cfg.DirectLength <= 0 || cfg.PartitionSize <= 0 {
		return nil, fmt.Errorf("%w: direct length and partition size must be > 0", ErrInvalidBlockSize)
	}
	if cfg.CrossfadeLength <= 0 || cfg.CrossfadeLength > cfg.PartitionSize {
		return nil, fmt.Errorf("%w: crossfade length must be in (0, partition size]", ErrInvalidBlockSize)
	}

	directLen := cfg.DirectLength
	if directLen > len(ir) {
		directLen = len(ir)
	}
	directCoeffs := make([]float64, directLen)
	copy(directCoeffs, ir[:directLen])

	var tail *UniformPartitionedConvolver
	if directLen < len(ir) {
		tailIR := ir[directLen:]
		t, err := NewUniformPartitionedConvolver(tailIR, cfg.PartitionSize)
		if err != nil {
			return nil, fmt.Errorf("conv: building tail convolver: %w", err)
		}
		tail = t
	}

	fadeIn, fadeOut := raisedCosineCrossfade(cfg.CrossfadeLength)

	z := &ZeroLatencyConvolver{
		directLen:     directLen,
		partitionSize: cfg.PartitionSize,
		crossfadeLen:  cfg.CrossfadeLength,
		directCoeffs:  directCoeffs,
		directDelay:   make([]float64, directLen),
		tail:          tail,
		crossfadeIn:   fadeIn,
		crossfadeOut:  fadeOut,
	}
	if tail != nil {
		z.tailBufs[0] = make([]float64, cfg.PartitionSize)
		z.tailBufs[1] = make([]float64, cfg.PartitionSize)
	}
	return z, nil
}

// raisedCosineCrossfade returns ascending (fade-in) and descending
// (fade-out) raised-cosine curves of the given length, summing to 1.0 at
// every index.
func raisedCosineCrossfade(length int) (fadeIn, fadeOut []float64) {
	fadeIn = make([]float64, length)
	fadeOut = make([]float64, length)
	for i := 0; i < length; i++ {
		t := float64(i) / float64(length)
		v := 0.5 * (1 - math.Cos(math.Pi*t))
		fadeIn[i] = v
		fadeOut[i] = 1 - v
	}
	return fadeIn, fadeOut
}

// Latency always returns 0: every call to Process consumes one input
// sample and produces one output sample with no added group delay. The
// tail's frequency-domain contribution still lags the direct path by one
// partition internally; that lag is masked by the crossfade rather than
// reported to the caller.
func (z *ZeroLatencyConvolver) Latency() int {
	return 0
}

// Process convolves input against the full impulse response (direct
// head + partitioned tail) and returns a newly allocated output slice of
// the same length.
func (z *ZeroLatencyConvolver) Process(input []float64) []float64 {
	out := make([]float64, len(input))
	z.ProcessInto(out, input)
	return out
}

// ProcessInto convolves src into dst, which must be at least len(src)
// long. Unlike Process, it never allocates, making it the real-time
// entry point.
func (z *ZeroLatencyConvolver) ProcessInto(dst, src []float64) {
	for i, x := range src {
		dst[i] = z.processSample(x)
	}
}

func (z *ZeroLatencyConvolver) processSample(x float64) float64 {
	direct := z.directSample(x)
	if z.tail == nil {
		return direct
	}

	dst := z.tailBufs[z.tailBufIdx]
	if n := z.tail.ProcessSampleInto(x, dst); n > 0 {
		z.prevQueue = z.currQueue
		z.currQueue = dst
		z.queuePos = 0
		z.tailBufIdx = 1 - z.tailBufIdx
	}

	return direct + z.tailSample()
}

func (z *ZeroLatencyConvolver) directSample(x float64) float64 {
	z.directDelay[z.delayPos] = x
	sum := 0.0
	pos := z.delayPos
	for _, c := range z.directCoeffs {
		sum += c * z.directDelay[pos]
		pos--
		if pos < 0 {
			pos = z.directLen - 1
		}
	}
	z.delayPos++
	if z.delayPos == z.directLen {
		z.delayPos = 0
	}
	return sum
}

func (z *ZeroLatencyConvolver) tailSample() float64 {
	if z.currQueue == nil || z.queuePos >= len(z.currQueue) {
		return 0
	}
	i := z.queuePos
	z.queuePos++

	if i < z.crossfadeLen && len(z.prevQueue) == z.partitionSize {
		prevIdx := z.partitionSize - z.crossfadeLen + i
		return z.prevQueue[prevIdx]*z.crossfadeOut[i] + z.currQueue[i]*z.crossfadeIn[i]
	}
	return z.currQueue[i]
}

// Reset clears all internal state, including the direct delay line and
// the tail's frequency-domain delay line.
func (z *ZeroLatencyConvolver) Reset() {
	for i := range z.directDelay {
		z.directDelay[i] = 0
	}
	z.delayPos = 0
	if z.tail != nil {
		z.tail.Reset()
	}
	z.currQueue = nil
	z.prevQueue = nil
	z.queuePos = 0
}

// StereoZeroLatencyConvolver wraps two independent mono
// ZeroLatencyConvolvers with an optional dry/wet mix.
type StereoZeroLatencyConvolver struct {
	Left, Right *ZeroLatencyConvolver
	Mix         float64
}

// NewStereoZeroLatencyConvolver builds a stereo convolver from a stereo
// impulse response, with mix defaulting to fully wet (1.0).
func NewStereoZeroLatencyConvolver(ir *ImpulseResponse, cfg ZeroLatencyConfig) (*StereoZeroLatencyConvolver, error) {
	if ir.Channels() != 2 {
		return nil, fmt.Errorf("%w: stereo convolver requires a 2-channel impulse response, got %d", ErrInvalidChannelCount, ir.Channels())
	}
	left, err := ir.Channel(0)
	if err != nil {
		return nil, err
	}
	right, err := ir.Channel(1)
	if err != nil {
		return nil, err
	}
	l, err := NewZeroLatencyConvolver(left, cfg)
	if err != nil {
		return nil, fmt.Errorf("conv: left channel: %w", err)
	}
	r, err := NewZeroLatencyConvolver(right, cfg)
	if err != nil {
		return nil, fmt.Errorf("conv: right channel: %w", err)
	}
	return &StereoZeroLatencyConvolver{Left: l, Right: r, Mix: 1.0}, nil
}

// SetMix sets the dry/wet balance, clamped to [0, 1].
func (s *StereoZeroLatencyConvolver) SetMix(mix float64) {
	if mix < 0 {
		mix = 0
	}
	if mix > 1 {
		mix = 1
	}
	s.Mix = mix
}

// Process convolves both channels and blends wet output with the dry
// input according to Mix.
func (s *StereoZeroLatencyConvolver) Process(left, right []float64) ([]float64, []float64) {
	wetL := make([]float64, len(left))
	wetR := make([]float64, len(right))
	s.ProcessInto(wetL, wetR, left, right)
	return wetL, wetR
}

// ProcessInto convolves both channels into dstL/dstR, blending with the
// dry input according to Mix. dstL and dstR may alias left and right
// respectively. Unlike Process, it never allocates.
func (s *StereoZeroLatencyConvolver) ProcessInto(dstL, dstR, left, right []float64) {
	// Read each dry sample before its slot is overwritten so aliasing is safe.
	for i, x := range left {
		dstL[i] = x*(1-s.Mix) + s.Left.processSample(x)*s.Mix
	}
	for i, x := range right {
		dstR[i] = x*(1-s.Mix) + s.Right.processSample(x)*s.Mix
	}
}

// Reset clears both channels' state.
func (s *StereoZeroLatencyConvolver) Reset() {
	s.Left.Reset()
	s.Right.Reset()
}
