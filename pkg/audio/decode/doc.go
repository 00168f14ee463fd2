// ABOUTME: Audio decoder package for SCO voice streams
// ABOUTME: Provides the Decoder interface and an adapter over the SCO pipeline
// Package decode adapts SCO voice streams to a chunk-in, samples-out
// Decoder.
//
// Supports: CVSD (controller-transcoded 16-bit PCM) and mSBC with a caller
// supplied frame decoder. Lost and corrupted frames are concealed.
//
// All decoders output int32 samples in 24-bit range.
//
// Example:
//
//	decoder, err := decode.NewSCO(format, nil)
//	samples, err := decoder.Decode(payload)
package decode
