// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs 16-bit audio samples (blocks until written)
	Write(samples []int16) error

	// Close releases output resources
	Close() error
}

// VolumeControl is implemented by outputs with software volume
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	Volume() int
	Muted() bool
}
