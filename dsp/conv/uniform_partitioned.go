package conv

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
)

// UniformPartitionedConvolver implements uniformly-partitioned frequency
// domain convolution with a frequency-domain delay line (FDL): the
// impulse response is split into equal-size blocks of partitionSize
// samples, each FFT'd once at construction time, and the input is
// accumulated partitionSize samples at a time before each partition is
// advanced through the FDL and multiply-accumulated against every IR
// partition. This differs from PartitionedConvolutionT's non-uniform,
// modulo-scheduled staging: latency here is always exactly
// partitionSize, with no per-stage schedule to reason about.
type UniformPartitionedConvolver struct {
	partitionSize int
	fftSize       int
	numPartitions int

	irPartitions [][]complex128
	fdl          [][]complex128
	fdlIndex     int

	inputBuffer []float64
	inputPos    int
	overlap     []float64

	plan    *algofft.Plan[complex128]
	freqAcc []complex128
	timeBuf []complex128
	timeIn  []complex128

	pending []float64
}

// NewUniformPartitionedConvolver builds a convolver for the given impulse
// response using the given partition size, which determines the
// algorithm's processing latency.
func NewUniformPartitionedConvolver(ir []float64, partitionSize int) (*UniformPartitionedConvolver, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyImpulseResponse
	}
	if partitionSize <= 0 {
		return nil, fmt.Errorf("%w: partition size must be > 0, got %d", ErrInvalidBlockSize, partitionSize)
	}

	fftSize := 2 * partitionSize
	numPartitions := (len(ir) + partitionSize - 1) / partitionSize

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: building fft plan: %w", err)
	}

	irPartitions := make([][]complex128, numPartitions)
	scratch := make([]complex128, fftSize)
	for p := 0; p < numPartitions; p++ {
		for i := range scratch {
			scratch[i] = 0
		}
		start := p * partitionSize
		end := start + partitionSize
		if end > len(ir) {
			end = len(ir)
		}
		for i := start; i < end; i++ {
			scratch[i-start] = complex(ir[i], 0)
		}
		spectrum := make([]complex128, fftSize)
		if err := plan.Forward(spectrum, scratch); err != nil {
			return nil, fmt.Errorf("conv: forward fft of ir partition %d: %w", p, err)
		}
		irPartitions[p] = spectrum
	}

	fdl := make([][]complex128, numPartitions)
	for i := range fdl {
		fdl[i] = make([]complex128, fftSize)
	}

	return &UniformPartitionedConvolver{
		partitionSize: partitionSize,
		fftSize:       fftSize,
		numPartitions: numPartitions,
		irPartitions:  irPartitions,
		fdl:           fdl,
		inputBuffer:   make([]float64, partitionSize),
		overlap:       make([]float64, partitionSize),
		plan:          plan,
		freqAcc:       make([]complex128, fftSize),
		timeBuf:       make([]complex128, fftSize),
		timeIn:        make([]complex128, fftSize),
	}, nil
}

// Latency returns the processing latency in samples, always equal to the
// configured partition size.
func (c *UniformPartitionedConvolver) Latency() int {
	return c.partitionSize
}

// PartitionSize returns the configured partition size.
func (c *UniformPartitionedConvolver) PartitionSize() int {
	return c.partitionSize
}

// NumPartitions returns the number of FFT'd impulse-response blocks.
func (c *UniformPartitionedConvolver) NumPartitions() int {
	return c.numPartitions
}

// Process appends input to the internal accumulator and returns however
// many output samples became available (a multiple of partitionSize,
// possibly zero if input did not fill a full partition).
func (c *UniformPartitionedConvolver) Process(input []float64) []float64 {
	c.pending = c.pending[:0]
	for _, x := range input {
		c.inputBuffer[c.inputPos] = x
		c.inputPos++
		if c.inputPos == c.partitionSize {
			c.pending = append(c.pending, c.processPartition()...)
			c.inputPos = 0
		}
	}
	return c.pending
}

func (c *UniformPartitionedConvolver) processPartition() []float64 {
	out := make([]float64, c.partitionSize)
	c.processPartitionInto(out)
	return out
}

// processPartitionInto is the allocation-free core of processPartition: it
// writes exactly partitionSize samples into dst, which must be at least
// that long.
func (c *UniformPartitionedConvolver) processPartitionInto(dst []float64) {
	for i := 0; i < c.partitionSize; i++ {
		c.timeIn[i] = complex(c.inputBuffer[i], 0)
	}
	for i := c.partitionSize; i < c.fftSize; i++ {
		c.timeIn[i] = 0
	}

	if err := c.plan.Forward(c.fdl[c.fdlIndex], c.timeIn); err != nil {
		// The plan was validated at construction time against this exact
		// size; a runtime failure here indicates a library invariant
		// violation rather than a recoverable input error.
		panic(fmt.Sprintf("conv: forward fft failed unexpectedly: %v", err))
	}

	for i := range c.freqAcc {
		c.freqAcc[i] = 0
	}
	for p := 0; p < c.numPartitions; p++ {
		idx := c.fdlIndex - p
		if idx < 0 {
			idx += c.numPartitions
		}
		block := c.fdl[idx]
		ir := c.irPartitions[p]
		for i := range c.freqAcc {
			c.freqAcc[i] += block[i] * ir[i]
		}
	}

	if err := c.plan.Inverse(c.timeBuf, c.freqAcc); err != nil {
		panic(fmt.Sprintf("conv: inverse fft failed unexpectedly: %v", err))
	}

	for i := 0; i < c.partitionSize; i++ {
		dst[i] = real(c.timeBuf[i]) + c.overlap[i]
	}
	for i := 0; i < c.partitionSize; i++ {
		c.overlap[i] = real(c.timeBuf[c.partitionSize+i])
	}

	c.fdlIndex++
	if c.fdlIndex == c.numPartitions {
		c.fdlIndex = 0
	}
}

// ProcessSampleInto feeds a single input sample through the accumulator
// and, whenever that completes a partition, writes the partition's
// partitionSize output samples into dst (which must be at least
// PartitionSize() long) and returns partitionSize; otherwise it returns
// 0 and dst is untouched. Unlike Process, it never allocates, making it
// the streaming entry point for real-time callers.
func (c *UniformPartitionedConvolver) ProcessSampleInto(x float64, dst []float64) int {
	c.inputBuffer[c.inputPos] = x
	c.inputPos++
	if c.inputPos != c.partitionSize {
		return 0
	}
	c.inputPos = 0
	c.processPartitionInto(dst)
	return c.partitionSize
}

// Reset clears all internal state, including the frequency-domain delay
// line and overlap buffer.
func (c *UniformPartitionedConvolver) Reset() {
	for _, block := range c.fdl {
		for i := range block {
			block[i] = 0
		}
	}
	c.fdlIndex = 0
	c.inputPos = 0
	for i := range c.inputBuffer {
		c.inputBuffer[i] = 0
	}
	for i := range c.overlap {
		c.overlap[i] = 0
	}
}

// StereoPartitionedConvolver wraps two independent mono convolvers sharing
// the same partition size.
type StereoPartitionedConvolver struct {
	Left, Right *UniformPartitionedConvolver
}

// NewStereoPartitionedConvolver builds a stereo convolver from a stereo
// impulse response.
func NewStereoPartitionedConvolver(ir *ImpulseResponse, partitionSize int) (*StereoPartitionedConvolver, error) {
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
	l, err := NewUniformPartitionedConvolver(left, partitionSize)
	if err != nil {
		return nil, fmt.Errorf("conv: left channel: %w", err)
	}
	r, err := NewUniformPartitionedConvolver(right, partitionSize)
	if err != nil {
		return nil, fmt.Errorf("conv: right channel: %w", err)
	}
	return &StereoPartitionedConvolver{Left: l, Right: r}, nil
}

// Process convolves both channels, returning equal-length output slices.
func (s *StereoPartitionedConvolver) Process(left, right []float64) ([]float64, []float64) {
	return s.Left.Process(left), s.Right.Process(right)
}

// Reset clears both channels' state.
func (s *StereoPartitionedConvolver) Reset() {
	s.Left.Reset()
	s.Right.Reset()
}

// Latency returns the shared processing latency in samples.
func (s *StereoPartitionedConvolver) Latency() int {
	return s.Left.Latency()
}
