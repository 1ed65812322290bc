package stretch

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	defaultGranularGrainMs   = 80.0
	defaultGranularOverlap   = 0.5
	defaultGranularSpray     = 0.1
	maxGranularVoices        = 64
	defaultGranularSeed      = 1
	granularPeakCeiling      = 0.95
)

type grain struct {
	active   bool
	pos      float64
	age      float64
	duration float64
}

// Granular is a buffer-to-buffer time-stretch engine built from
// overlapping Hann-enveloped grains read from the input at a rate of
// 1/ratio, with randomized spawn jitter to avoid metallic periodicity.
// Grounded on a real-time per-sample granular texture effect, generalized
// here into a whole-buffer stretcher: instead of writing into a live
// history ring, grains read directly from the fixed input buffer, and the
// output is built up sample by sample until it covers the stretched
// duration.
type Granular struct {
	sampleRate float64
	grainMs    float64
	overlap    float64
	spray      float64
	seed       int64
	rng        *rand.Rand
	voices     [maxGranularVoices]grain

	// scratchNorm backs the per-sample energy-normalization buffer used
	// by ProcessInto; it grows on demand and is otherwise reused across
	// calls instead of being reallocated.
	scratchNorm []float64
}

// NewGranular creates a granular stretcher for the given sample rate.
func NewGranular(sampleRate float64) (*Granular, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("stretch: sample rate must be > 0, got %g", sampleRate)
	}
	g := &Granular{
		sampleRate: sampleRate,
		grainMs:    defaultGranularGrainMs,
		overlap:    defaultGranularOverlap,
		spray:      defaultGranularSpray,
		seed:       defaultGranularSeed,
	}
	g.rng = rand.New(rand.NewSource(g.seed))
	return g, nil
}

// SetGrainMs sets the grain duration in milliseconds.
func (g *Granular) SetGrainMs(ms float64) error {
	if ms <= 0 {
		return fmt.Errorf("stretch: grain length must be > 0")
	}
	g.grainMs = ms
	return nil
}

// SetOverlap sets the fraction of grain duration by which consecutive
// grains overlap, clamped to [0, 0.95].
func (g *Granular) SetOverlap(overlap float64) {
	g.overlap = clampFloat(overlap, 0, 0.95)
}

// SetSpray sets the random position jitter applied to each grain's read
// start, as a fraction of grain duration, clamped to [0, 1].
func (g *Granular) SetSpray(spray float64) {
	g.spray = clampFloat(spray, 0, 1)
}

// SetRandomSeed reseeds the grain-jitter generator deterministically.
func (g *Granular) SetRandomSeed(seed int64) {
	g.seed = seed
	g.rng.Seed(seed)
}

// Reset rewinds the jitter generator and clears all active grains.
func (g *Granular) Reset() {
	g.rng.Seed(g.seed)
	for i := range g.voices {
		g.voices[i] = grain{}
	}
}

func (g *Granular) grainSamples() int {
	n := int(g.grainMs / 1000 * g.sampleRate)
	if n < 4 {
		n = 4
	}
	return n
}

// outputLenFor returns the number of samples Process/ProcessInto produce
// for inputLen input samples at the given ratio.
func (g *Granular) outputLenFor(inputLen int, ratio float64) int {
	outputLen := int(float64(inputLen) * ratio)
	if grains := g.grainSamples(); outputLen < grains {
		outputLen = grains
	}
	return outputLen
}

// Process stretches input by ratio, reading grains from it at a rate of
// 1/ratio and overlap-adding them into an output buffer approximately
// ratio times as long.
func (g *Granular) Process(input []float64, ratio float64) []float64 {
	if len(input) == 0 || ratio <= 0 {
		return nil
	}
	out := make([]float64, g.outputLenFor(len(input), ratio))
	g.ProcessInto(out, input, ratio)
	return out
}

// ProcessInto stretches input by ratio into dst: the stretched length is
// computed exactly as Process would, then capped to len(dst), so any
// extra stretched audio beyond dst's capacity is simply not produced.
// It returns the number of samples written. Unlike Process, repeated
// calls reuse internal scratch state rather than allocating, as long as
// dst itself is caller-owned and reused.
func (g *Granular) ProcessInto(dst, input []float64, ratio float64) int {
	if len(input) == 0 || ratio <= 0 || len(dst) == 0 {
		return 0
	}
	g.Reset()

	grainSamples := g.grainSamples()
	spawnInterval := float64(grainSamples) * (1 - g.overlap)
	if spawnInterval < 1 {
		spawnInterval = 1
	}
	spraySamples := float64(grainSamples) * g.spray

	outputLen := g.outputLenFor(len(input), ratio)
	if outputLen > len(dst) {
		outputLen = len(dst)
	}
	output := dst[:outputLen]

	if cap(g.scratchNorm) < outputLen {
		g.scratchNorm = make([]float64, outputLen)
	}
	norm := g.scratchNorm[:outputLen]
	for i := range norm {
		norm[i] = 0
	}

	readRate := 1.0 / ratio
	readPos := 0.0
	nextSpawn := 0.0

	for outIdx := 0; outIdx < outputLen; outIdx++ {
		if float64(outIdx) >= nextSpawn {
			g.spawnGrain(readPos, spraySamples, grainSamples, len(input))
			nextSpawn += spawnInterval
		}

		sum := 0.0
		energy := 0.0
		for v := range g.voices {
			voice := &g.voices[v]
			if !voice.active {
				continue
			}
			env := hannEnvelope(voice.age, voice.duration)
			sample := readLinear(input, voice.pos)
			sum += sample * env
			energy += env * env

			voice.pos++
			voice.age++
			if voice.age >= voice.duration {
				voice.active = false
			}
		}
		output[outIdx] = sum
		norm[outIdx] = energy

		readPos += readRate
	}

	for i := range output {
		if norm[i] > 1e-9 {
			output[i] /= math.Sqrt(norm[i])
		}
	}
	normalizePeak(output, granularPeakCeiling)
	return outputLen
}

func (g *Granular) spawnGrain(center, spray float64, length, inputLen int) {
	for i := range g.voices {
		if g.voices[i].active {
			continue
		}
		jitter := (g.rng.Float64()*2 - 1) * spray
		start := center + jitter
		start = math.Max(0, math.Min(start, float64(inputLen-1)))
		g.voices[i] = grain{active: true, pos: start, age: 0, duration: float64(length)}
		return
	}
}

// GranularFreeze extracts a window of input around freezePos and replays
// it through a Granular engine, stretched to fill outputLen samples.
// Grounded on the idea of freezing a short region and re-synthesizing it
// indefinitely, retargeted from a spectral approach to the granular
// engine above.
type GranularFreeze struct {
	engine *Granular
}

// NewGranularFreeze wraps a Granular engine for frozen-region playback.
func NewGranularFreeze(sampleRate float64) (*GranularFreeze, error) {
	g, err := NewGranular(sampleRate)
	if err != nil {
		return nil, err
	}
	return &GranularFreeze{engine: g}, nil
}

// Freeze extracts [freezePos, freezePos+windowLen) from input (clamped to
// bounds) and stretches it to exactly outputLen samples.
func (f *GranularFreeze) Freeze(input []float64, freezePos, windowLen, outputLen int) []float64 {
	if windowLen <= 0 || outputLen <= 0 || len(input) == 0 {
		return make([]float64, outputLen)
	}
	start := clampInt(freezePos, 0, len(input)-1)
	end := clampInt(start+windowLen, 0, len(input))
	if end <= start {
		return make([]float64, outputLen)
	}
	window := input[start:end]
	ratio := float64(outputLen) / float64(len(window))
	return fitLength(f.engine.Process(window, ratio), outputLen)
}

// Reset clears the underlying granular engine's state.
func (f *GranularFreeze) Reset() {
	f.engine.Reset()
}

func hannEnvelope(age, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return 0.5 * (1 - math.Cos(2*math.Pi*age/duration))
}

func readLinear(buf []float64, pos float64) float64 {
	i0 := int(math.Floor(pos))
	frac := pos - float64(i0)
	var a, b float64
	if i0 >= 0 && i0 < len(buf) {
		a = buf[i0]
	}
	if i0+1 >= 0 && i0+1 < len(buf) {
		b = buf[i0+1]
	}
	return a + frac*(b-a)
}

func normalizePeak(buf []float64, ceiling float64) {
	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak <= ceiling || peak == 0 {
		return
	}
	scale := ceiling / peak
	for i := range buf {
		buf[i] *= scale
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
