// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Brings file audio down to SCO voice rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation and carries the last input frame across
// calls, so a stream resampled in chunks matches one resampled whole.
//
// Example:
//
//	r := resample.New(44100, 16000, 1)
//	out := make([]int16, r.OutputSamplesNeeded(len(in))+1)
//	n := r.Resample(in, out)
package resample
