package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "airtunes"

// Drop reasons recorded by PacketDropped.
const (
	ReasonMalformed = "malformed"
	ReasonNoKey     = "no_key"
	ReasonStale     = "stale"
	ReasonOversized = "oversized"
)

// Collector groups the receiver's metrics behind one registry.
type Collector struct {
	registry *prometheus.Registry

	packetsReceived    *prometheus.CounterVec
	packetsDropped     *prometheus.CounterVec
	packetsSkipped     prometheus.Counter
	retransmitRequests prometheus.Counter
	retransmitPackets  prometheus.Counter
	buffersEnqueued    prometheus.Counter
	underruns          prometheus.Counter
	forcedResets       prometheus.Counter
	rtspRequests       *prometheus.CounterVec
	bufferDistance     prometheus.Gauge
	freeBuffers        prometheus.Gauge
	playing            prometheus.Gauge
	connections        prometheus.Gauge
}

// New creates a collector with all metrics registered, plus the Go runtime
// and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		packetsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rtp",
			Name:      "packets_received_total",
			Help:      "Audio packets parsed, by kind.",
		}, []string{"kind"}),
		packetsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rtp",
			Name:      "packets_dropped_total",
			Help:      "Audio packets discarded before playback, by reason.",
		}, []string{"reason"}),
		packetsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "packets_skipped_total",
			Help:      "Sequence numbers skipped at drain time because no matching packet was buffered.",
		}),
		retransmitRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rtp",
			Name:      "retransmit_requests_total",
			Help:      "Retransmission requests sent to the control peer.",
		}),
		retransmitPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rtp",
			Name:      "retransmit_requested_packets_total",
			Help:      "Packets asked for across all retransmission requests.",
		}),
		buffersEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "buffers_enqueued_total",
			Help:      "Output buffers accepted by the sink.",
		}),
		underruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "enqueue_failures_total",
			Help:      "Output buffers returned to the pool because they were empty or rejected.",
		}),
		forcedResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "forced_resets_total",
			Help:      "Playback stops caused by every output buffer sitting idle.",
		}),
		rtspRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rtsp",
			Name:      "requests_total",
			Help:      "Control requests handled, by method.",
		}, []string{"method"}),
		bufferDistance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "buffer_distance_packets",
			Help:      "Distance between the jitter buffer read and write cursors.",
		}),
		freeBuffers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "free_buffers",
			Help:      "Output buffers currently owned by the scheduler.",
		}),
		playing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "playing",
			Help:      "1 while buffers are being fed to the sink.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rtsp",
			Name:      "connections",
			Help:      "Open control connections.",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.packetsReceived,
		c.packetsDropped,
		c.packetsSkipped,
		c.retransmitRequests,
		c.retransmitPackets,
		c.buffersEnqueued,
		c.underruns,
		c.forcedResets,
		c.rtspRequests,
		c.bufferDistance,
		c.freeBuffers,
		c.playing,
		c.connections,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// PacketReceived counts a parsed packet of the given kind.
func (c *Collector) PacketReceived(kind string) {
	if c == nil {
		return
	}
	c.packetsReceived.WithLabelValues(kind).Inc()
}

// PacketDropped counts a discarded packet.
func (c *Collector) PacketDropped(reason string) {
	if c == nil {
		return
	}
	c.packetsDropped.WithLabelValues(reason).Inc()
}

// PacketSkipped counts a sequence number skipped at drain time.
func (c *Collector) PacketSkipped() {
	if c == nil {
		return
	}
	c.packetsSkipped.Inc()
}

// RetransmitRequested counts one request covering count packets.
func (c *Collector) RetransmitRequested(count int) {
	if c == nil {
		return
	}
	c.retransmitRequests.Inc()
	c.retransmitPackets.Add(float64(count))
}

// BufferEnqueued counts a buffer accepted by the sink.
func (c *Collector) BufferEnqueued() {
	if c == nil {
		return
	}
	c.buffersEnqueued.Inc()
}

// EnqueueFailed counts a buffer returned to the free pool.
func (c *Collector) EnqueueFailed() {
	if c == nil {
		return
	}
	c.underruns.Inc()
}

// ForcedReset counts a playback stop caused by buffer exhaustion.
func (c *Collector) ForcedReset() {
	if c == nil {
		return
	}
	c.forcedResets.Inc()
}

// RTSPRequest counts a handled control request.
func (c *Collector) RTSPRequest(method string) {
	if c == nil {
		return
	}
	c.rtspRequests.WithLabelValues(method).Inc()
}

// SetBufferDistance records the jitter buffer cursor distance.
func (c *Collector) SetBufferDistance(n int) {
	if c == nil {
		return
	}
	c.bufferDistance.Set(float64(n))
}

// SetFreeBuffers records the number of idle output buffers.
func (c *Collector) SetFreeBuffers(n int) {
	if c == nil {
		return
	}
	c.freeBuffers.Set(float64(n))
}

// SetPlaying records whether output is running.
func (c *Collector) SetPlaying(on bool) {
	if c == nil {
		return
	}
	v := 0.0
	if on {
		v = 1
	}
	c.playing.Set(v)
}

// ConnectionOpened increments the open control connection gauge.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connections.Inc()
}

// ConnectionClosed decrements the open control connection gauge.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connections.Dec()
}
