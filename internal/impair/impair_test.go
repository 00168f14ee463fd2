// ABOUTME: Tests for the link impairment simulator
// ABOUTME: Verifies schedules, determinism and payload isolation
package impair

import (
	"bytes"
	"testing"

	"github.com/Sendspin/sco-go/internal/hci"
)

func packet(b byte) hci.Packet {
	return hci.Packet{Handle: 1, Payload: bytes.Repeat([]byte{b}, 60)}
}

func TestSchedule(t *testing.T) {
	im, err := New(Config{CorruptEvery: 3, ZeroEvery: 5, DropEvery: 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 1; i <= 35; i++ {
		in := packet(0x11)
		out, ok := im.Apply(in)
		switch {
		case i%7 == 0:
			if ok {
				t.Errorf("packet %d: expected drop", i)
			}
		case i%5 == 0:
			if !ok || out.Status != hci.StatusNoData || !bytes.Equal(out.Payload, make([]byte, 60)) {
				t.Errorf("packet %d: expected zeroed payload", i)
			}
		case i%3 == 0:
			if !ok || out.Status != hci.StatusPossiblyInvalid || bytes.Equal(out.Payload, in.Payload) {
				t.Errorf("packet %d: expected corruption", i)
			}
		default:
			if !ok || out.Corrupted() || !bytes.Equal(out.Payload, in.Payload) {
				t.Errorf("packet %d: expected untouched packet", i)
			}
		}
		if !bytes.Equal(in.Payload, bytes.Repeat([]byte{0x11}, 60)) {
			t.Fatalf("packet %d: input payload modified", i)
		}
	}

	// 35 packets: drops at 7,14,21,28,35; zeroes at 5,10,15,20,25,30;
	// corruption at multiples of 3 not already dropped or zeroed.
	st := im.Stats()
	if st.Packets != 35 || st.Dropped != 5 || st.Zeroed != 6 || st.Corrupted != 8 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestLossRateDeterministic(t *testing.T) {
	run := func() []bool {
		im, err := New(Config{LossRate: 0.3, Seed: 42})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		kept := make([]bool, 200)
		for i := range kept {
			_, kept[i] = im.Apply(packet(1))
		}
		return kept
	}

	a, b := run(), run()
	lost := 0
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("packet %d differs between runs with the same seed", i)
		}
		if !a[i] {
			lost++
		}
	}
	if lost == 0 || lost == len(a) {
		t.Errorf("expected partial loss, lost %d of %d", lost, len(a))
	}
}

func TestConfigValidation(t *testing.T) {
	if _, err := New(Config{LossRate: 1.5}); err == nil {
		t.Error("expected error for loss rate above 1")
	}
	if _, err := New(Config{DropEvery: -1}); err == nil {
		t.Error("expected error for negative interval")
	}
	if (Config{}).Enabled() {
		t.Error("empty config should be disabled")
	}
	if !(Config{ZeroEvery: 2}).Enabled() {
		t.Error("zero rule should enable the config")
	}
}

func TestTruncate(t *testing.T) {
	im, err := New(Config{TruncateEvery: 2, CorruptEvery: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if out, ok := im.Apply(packet(0x22)); !ok || len(out.Payload) != 60 {
		t.Fatalf("first packet should pass untouched")
	}
	out, ok := im.Apply(packet(0x22))
	if !ok {
		t.Fatal("truncated packet should still be delivered")
	}
	if len(out.Payload) != 30 || out.Status != hci.StatusPartiallyLost {
		t.Errorf("got %d bytes status %v, want 30 bytes partially-lost", len(out.Payload), out.Status)
	}
	if st := im.Stats(); st.Truncated != 1 || st.Corrupted != 0 {
		t.Errorf("truncation should take precedence over corruption: %+v", st)
	}
}
