// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for audio stream decoders
package decode

// Decoder decodes an audio stream to PCM int32 samples
type Decoder interface {
	// Decode converts the next chunk of encoded data to PCM samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}
