// ABOUTME: Prometheus metrics for the SCO receiver
// ABOUTME: Counts frame outcomes, lost bytes and codec resets across streams
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sendspin/sco-go/pkg/sco"
)

// Gauges
var (
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sco_receiver_active_streams",
		Help: "Number of connected SCO streams",
	})
)

// Counters
var (
	StreamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sco_receiver_streams_total",
		Help: "Total streams opened by codec",
	}, []string{"codec"})
	StreamsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sco_receiver_streams_rejected_total",
		Help: "Streams rejected during handshake",
	})
	PacketsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sco_receiver_packets_total",
		Help: "HCI SCO packets received by packet status",
	}, []string{"status"})
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sco_receiver_frames_total",
		Help: "Frames by outcome",
	}, []string{"outcome"})
	LostBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sco_receiver_lost_bytes_total",
		Help: "Bytes discarded while searching for frame sync",
	})
	ResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sco_receiver_codec_resets_total",
		Help: "Frame decoder resets after faults",
	})
	SequenceJumpsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sco_receiver_sequence_jumps_total",
		Help: "H2 sequence numbers that did not follow the previous frame",
	})
)

// Frame outcome labels
const (
	OutcomeGood      = "good"
	OutcomeBad       = "bad"
	OutcomeZero      = "zero"
	OutcomeConcealed = "concealed"
	OutcomeSilent    = "silent"
)

// Record adds the counter increase of one stream to the global counters
func Record(d sco.Stats) {
	add(FramesTotal.WithLabelValues(OutcomeGood), d.GoodFrames)
	add(FramesTotal.WithLabelValues(OutcomeBad), d.BadFrames)
	add(FramesTotal.WithLabelValues(OutcomeZero), d.ZeroFrames)
	add(FramesTotal.WithLabelValues(OutcomeConcealed), d.ConcealedFrames)
	add(FramesTotal.WithLabelValues(OutcomeSilent), d.SilentFrames)
	add(LostBytesTotal, d.LostBytes)
	add(ResetsTotal, d.Resets)
	add(SequenceJumpsTotal, d.SequenceJumps)
}

func add(c prometheus.Counter, n uint64) {
	if n > 0 {
		c.Add(float64(n))
	}
}
