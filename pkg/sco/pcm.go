// ABOUTME: Pass-through frame decoder for 16-bit PCM payloads
// ABOUTME: Used when the controller transcodes CVSD and delivers linear PCM
package sco

import "github.com/Sendspin/sco-go/pkg/audio"

// PCMDecoder decodes little-endian 16-bit mono PCM frames.
type PCMDecoder struct {
	sampleRate      int
	samplesPerFrame int
}

// NewPCMDecoder returns a decoder for frames of samplesPerFrame samples.
func NewPCMDecoder(sampleRate, samplesPerFrame int) *PCMDecoder {
	return &PCMDecoder{sampleRate: sampleRate, samplesPerFrame: samplesPerFrame}
}

func (p *PCMDecoder) Decode(frame []byte, pcm []int16) Result {
	need := 2 * p.samplesPerFrame
	if len(frame) < need {
		return Result{Status: StatusInsufficientBody}
	}
	n := audio.Int16s(pcm[:p.samplesPerFrame], frame[:need])
	return Result{Status: StatusSuccess, Consumed: need, Samples: n}
}

func (p *PCMDecoder) Reset() error         { return nil }
func (p *PCMDecoder) SamplesPerFrame() int { return p.samplesPerFrame }
func (p *PCMDecoder) Channels() int        { return 1 }
func (p *PCMDecoder) SampleRate() int      { return p.sampleRate }
