// ABOUTME: Audio encoder package for SCO payloads
// ABOUTME: Provides the Encoder interface and the 16-bit PCM encoder
// Package encode turns PCM into SCO payload bytes.
//
// Supports: 16-bit little-endian PCM, the format a controller exchanges
// with the host when it transcodes CVSD on the air interface.
//
// Encoders accept int32 samples in 24-bit range.
//
// Example:
//
//	encoder, err := encode.NewPCM(format)
//	payload, err := encoder.Encode(samples)
package encode
