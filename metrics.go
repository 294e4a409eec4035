// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import "github.com/prometheus/client_golang/prometheus"

// Collector is a prometheus.Collector exposing the transport engine's
// operational counters and gauges: queue depth on both sides, frames
// transmitted/retransmitted, give-ups, RX drops, and receipts by kind. It
// generalizes the "implementations may instrument [RX drops] for
// observability" affordance spec.md §4.D calls out explicitly to the rest
// of the engine's give-up/retransmit/queue-depth surface, grounded on the
// prometheus/client_golang usage in runZeroInc-sockstats and
// Generativebots-ocx-backend-go-svc.
type Collector struct {
	txQueueDepth prometheus.Gauge
	rxQueueDepth prometheus.Gauge

	framesTransmitted   prometheus.Counter
	framesRetransmitted prometheus.Counter
	giveUps             prometheus.Counter
	rxDropped           prometheus.Counter
	receiptsReceived    prometheus.Counter
	receiptsMismatch    prometheus.Counter
}

// NewCollector constructs a Collector under the given metric namespace.
// Queue-depth gauges are updated by Engine on every Send/Receive/Tick call
// that changes occupancy, rather than sampled lazily, since Engine has no
// registry to be scraped from in the single-threaded core.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		txQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tx_queue_depth",
			Help:      "Number of occupied TX queue slots.",
		}),
		rxQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rx_queue_depth",
			Help:      "Number of occupied RX queue slots.",
		}),
		framesTransmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_transmitted_total",
			Help:      "Frames written to the device, including retransmissions.",
		}),
		framesRetransmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_retransmitted_total",
			Help:      "Frames re-sent after a receipt timeout or negative receipt.",
		}),
		giveUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "give_ups_total",
			Help:      "Outbound entries that reached NOTRECEIVED.",
		}),
		rxDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rx_dropped_total",
			Help:      "Inbound messages dropped because the RX queue was full.",
		}),
		receiptsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_received_total",
			Help:      "Positive receipts processed.",
		}),
		receiptsMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_checksum_mismatch_total",
			Help:      "Negative receipts processed.",
		}),
	}
	return c
}

// setTXDepth and setRXDepth are called by Engine after any operation that
// changes queue occupancy (Send, Receive, a give-up, a received receipt).
func (c *Collector) setTXDepth(n int) { c.txQueueDepth.Set(float64(n)) }
func (c *Collector) setRXDepth(n int) { c.rxQueueDepth.Set(float64(n)) }

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range []prometheus.Collector{
		c.txQueueDepth, c.rxQueueDepth,
		c.framesTransmitted, c.framesRetransmitted,
		c.giveUps, c.rxDropped,
		c.receiptsReceived, c.receiptsMismatch,
	} {
		m.Collect(ch)
	}
}
