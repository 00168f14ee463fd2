// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used to convert source audio to 8 kHz or 16 kHz voice rates
package resample

import (
	"math"

	"github.com/Sendspin/sco-go/pkg/audio"
)

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	// position is in input frames; -1 addresses lastSample
	position   float64
	lastSample []int16 // one sample per channel
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]int16, channels),
	}
}

// InputRate returns the source sample rate
func (r *Resampler) InputRate() int { return r.inputRate }

// OutputRate returns the target sample rate
func (r *Resampler) OutputRate() int { return r.outputRate }

// Resample converts interleaved input samples to the output rate.
// It returns the number of samples written to output. Output should be
// sized with OutputSamplesNeeded; input that does not fit is skipped.
func (r *Resampler) Resample(input []int16, output []int16) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}
	outputFrames := len(output) / r.channels

	sample := func(idx, ch int) float64 {
		if idx < 0 {
			return float64(r.lastSample[ch])
		}
		return float64(input[idx*r.channels+ch])
	}

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := int(math.Floor(r.position))
		if inputIdx+1 >= inputFrames {
			break
		}
		frac := r.position - float64(inputIdx)

		for ch := 0; ch < r.channels; ch++ {
			interpolated := sample(inputIdx, ch)*(1.0-frac) + sample(inputIdx+1, ch)*frac
			output[outIdx*r.channels+ch] = audio.Saturate16(interpolated)
		}

		outIdx++
		r.position += r.ratio
	}

	// Re-base on the next chunk, keeping the final frame as index -1
	r.position -= float64(inputFrames)
	if r.position < -1 {
		r.position = -1
	}
	copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(math.Ceil(float64(inputFrames)/r.ratio)) + 1
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(math.Ceil(float64(outputFrames)*r.ratio)) + 1
	return inputFrames * r.channels
}
