// ABOUTME: PCM output interface of the decoder
// ABOUTME: Sink receives one frame per decoded or concealed frame
package sco

// Sink receives PCM frames in stream order. samples is only valid for the
// duration of the call.
type Sink interface {
	OnPCM(samples []int16, numSamples, numChannels, sampleRate int)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(samples []int16, numSamples, numChannels, sampleRate int)

func (f SinkFunc) OnPCM(samples []int16, numSamples, numChannels, sampleRate int) {
	f(samples, numSamples, numChannels, sampleRate)
}
