// ABOUTME: Audio output package for playing decoded voice audio
// ABOUTME: Provides Output interface, an oto implementation and a null sink
// Package output provides audio playback for decoded SCO streams.
//
// Oto plays through the system audio device. Null accepts and counts
// samples, for headless receivers and tests.
//
// Example:
//
//	out := output.NewOto(logger)
//	err := out.Open(16000, 1)
//	err = out.Write(samples)
package output
