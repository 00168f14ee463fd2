// ABOUTME: Link impairment simulator for SCO packet streams
// ABOUTME: Drops, zeroes, truncates and corrupts HCI packets on a deterministic schedule
package impair

import (
	"fmt"
	"math/rand/v2"

	"github.com/Sendspin/sco-go/internal/hci"
)

// Config selects which packets are impaired. Every* values count packets
// from 1; zero disables the rule.
type Config struct {
	CorruptEvery  int
	ZeroEvery     int
	DropEvery     int
	TruncateEvery int
	LossRate      float64
	Seed          uint64
}

// Enabled reports whether any rule is active
func (c Config) Enabled() bool {
	return c.CorruptEvery > 0 || c.ZeroEvery > 0 || c.DropEvery > 0 || c.TruncateEvery > 0 || c.LossRate > 0
}

// Stats counts applied impairments
type Stats struct {
	Packets   int
	Corrupted int
	Zeroed    int
	Truncated int
	Dropped   int
}

// Impairer applies a Config to a packet stream
type Impairer struct {
	cfg   Config
	rng   *rand.Rand
	stats Stats
}

// New validates cfg and creates an Impairer
func New(cfg Config) (*Impairer, error) {
	if cfg.CorruptEvery < 0 || cfg.ZeroEvery < 0 || cfg.DropEvery < 0 || cfg.TruncateEvery < 0 {
		return nil, fmt.Errorf("impairment intervals must not be negative")
	}
	if cfg.LossRate < 0 || cfg.LossRate > 1 {
		return nil, fmt.Errorf("loss rate %v outside [0, 1]", cfg.LossRate)
	}
	return &Impairer{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Apply returns the packet as it arrives at the receiver. ok is false
// when the packet is lost. The input payload is never modified.
func (im *Impairer) Apply(p hci.Packet) (out hci.Packet, ok bool) {
	im.stats.Packets++
	n := im.stats.Packets

	if every(n, im.cfg.DropEvery) || (im.cfg.LossRate > 0 && im.rng.Float64() < im.cfg.LossRate) {
		im.stats.Dropped++
		return hci.Packet{}, false
	}

	if every(n, im.cfg.ZeroEvery) {
		im.stats.Zeroed++
		p.Payload = make([]byte, len(p.Payload))
		p.Status = hci.StatusNoData
		return p, true
	}

	// A truncated packet keeps its first half, the rest never made it off air.
	if every(n, im.cfg.TruncateEvery) && len(p.Payload) > 1 {
		im.stats.Truncated++
		p.Payload = append([]byte(nil), p.Payload[:len(p.Payload)/2]...)
		p.Status = hci.StatusPartiallyLost
		return p, true
	}

	if every(n, im.cfg.CorruptEvery) && len(p.Payload) > 0 {
		im.stats.Corrupted++
		payload := append([]byte(nil), p.Payload...)
		payload[im.rng.IntN(len(payload))] ^= 0xff
		p.Payload = payload
		p.Status = hci.StatusPossiblyInvalid
		return p, true
	}

	return p, true
}

// Stats returns the impairment counters
func (im *Impairer) Stats() Stats {
	return im.stats
}

func every(n, interval int) bool {
	return interval > 0 && n%interval == 0
}
