// ABOUTME: Fixed-capacity byte accumulator for assembling frames
// ABOUTME: Callers split writes by Free so the buffer never overflows
package sco

import "fmt"

// Accumulator holds bytes not yet consumed into a complete frame.
type Accumulator struct {
	buf []byte
	n   int
}

// NewAccumulator allocates an accumulator of the given capacity.
func NewAccumulator(capacity int) *Accumulator {
	return &Accumulator{buf: make([]byte, capacity)}
}

// Cap returns the capacity.
func (a *Accumulator) Cap() int { return len(a.buf) }

// Len returns the number of buffered bytes.
func (a *Accumulator) Len() int { return a.n }

// Free returns how many bytes can be appended now.
func (a *Accumulator) Free() int { return len(a.buf) - a.n }

// Full reports whether the accumulator holds a complete candidate.
func (a *Accumulator) Full() bool { return a.n == len(a.buf) }

// Bytes returns the buffered bytes. The slice is only valid until the next
// Append, Drop or Reset.
func (a *Accumulator) Bytes() []byte { return a.buf[:a.n] }

// Append copies b into the accumulator. Appending more than Free bytes is a
// programming error and panics.
func (a *Accumulator) Append(b []byte) {
	if len(b) > a.Free() {
		panic(fmt.Sprintf("sco: append of %d bytes exceeds free space %d", len(b), a.Free()))
	}
	a.n += copy(a.buf[a.n:], b)
}

// Drop discards the first n buffered bytes, keeping the rest in order.
func (a *Accumulator) Drop(n int) {
	if n >= a.n {
		a.n = 0
		return
	}
	if n <= 0 {
		return
	}
	a.n = copy(a.buf, a.buf[n:a.n])
}

// Reset empties the accumulator.
func (a *Accumulator) Reset() { a.n = 0 }
