// ABOUTME: Error definitions for the SCO decode pipeline
// ABOUTME: Provides sentinel errors for configuration and decoder reset failures
package sco

import "errors"

var (
	// ErrInvalidConfig is returned when a Config or its collaborators are unusable.
	ErrInvalidConfig = errors.New("sco: invalid configuration")

	// ErrNilPrimitive is returned when no frame decoder is supplied.
	ErrNilPrimitive = errors.New("sco: nil frame decoder")

	// ErrPrimitiveReset is returned from Push when the frame decoder reported
	// invalid parameters and could not be reinitialized. The stream cannot be
	// decoded further until Reset succeeds.
	ErrPrimitiveReset = errors.New("sco: frame decoder reset failed")
)
