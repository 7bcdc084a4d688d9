// Package metrics exposes Prometheus counters and histograms for a
// connection's wire activity: messages and chunks moved, request
// latency, and how often the session lands in Failed/Interrupted.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the metrics namespace and registry.
type Config struct {
	Namespace   string
	ConstLabels prometheus.Labels
	Buckets     []float64
	Registry    prometheus.Registerer
}

func defaultConfig() Config {
	return Config{
		Namespace: "boltcore",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds every metric a Conn can report against.
type Collector struct {
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	chunksWritten    prometheus.Counter
	chunksRead       prometheus.Counter
	requestDuration  *prometheus.HistogramVec
	sessionFailures  prometheus.Counter
	resetsTotal      prometheus.Counter
	activeConns      prometheus.Gauge
}

var (
	global     *Collector
	globalOnce sync.Once
	globalMu   sync.Mutex
)

func newCollector(cfg Config) *Collector {
	factory := promauto.With(cfg.Registry)
	return &Collector{
		messagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "messages_sent_total",
			Help:        "Protocol request messages sent, by request kind",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"}),

		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "messages_received_total",
			Help:        "Protocol response messages received, by signature",
			ConstLabels: cfg.ConstLabels,
		}, []string{"signature"}),

		chunksWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "chunks_written_total",
			Help:        "Chunk frames written to the transport",
			ConstLabels: cfg.ConstLabels,
		}),

		chunksRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "chunks_read_total",
			Help:        "Chunk frames read from the transport",
			ConstLabels: cfg.ConstLabels,
		}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "request_duration_seconds",
			Help:        "Time from request submission to terminal response, by request kind",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"kind"}),

		sessionFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "session_failures_total",
			Help:        "Times the session transitioned to Failed",
			ConstLabels: cfg.ConstLabels,
		}),

		resetsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "resets_total",
			Help:        "RESET requests submitted",
			ConstLabels: cfg.ConstLabels,
		}),

		activeConns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        "active_connections",
			Help:        "Currently open connections",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// Default returns the process-wide Collector, creating it against the
// default registry on first use.
func Default() *Collector {
	globalOnce.Do(func() {
		global = newCollector(defaultConfig())
	})
	return global
}

// New creates an independent Collector against cfg's registry, for
// callers that want isolated metrics (tests, multiple registries in
// one process) instead of the package-wide singleton.
func New(cfg Config) *Collector {
	globalMu.Lock()
	defer globalMu.Unlock()
	if cfg.Namespace == "" {
		cfg.Namespace = defaultConfig().Namespace
	}
	if cfg.Registry == nil {
		cfg.Registry = defaultConfig().Registry
	}
	if cfg.Buckets == nil {
		cfg.Buckets = defaultConfig().Buckets
	}
	return newCollector(cfg)
}

func (c *Collector) ObserveSent(kind string)      { c.messagesSent.WithLabelValues(kind).Inc() }
func (c *Collector) ObserveReceived(sig string)    { c.messagesReceived.WithLabelValues(sig).Inc() }
func (c *Collector) ObserveChunkWritten()          { c.chunksWritten.Inc() }
func (c *Collector) ObserveChunkRead()             { c.chunksRead.Inc() }
func (c *Collector) ObserveFailure()               { c.sessionFailures.Inc() }
func (c *Collector) ObserveReset()                 { c.resetsTotal.Inc() }
func (c *Collector) ConnOpened()                   { c.activeConns.Inc() }
func (c *Collector) ConnClosed()                   { c.activeConns.Dec() }

func (c *Collector) ObserveRequestSeconds(kind string, seconds float64) {
	c.requestDuration.WithLabelValues(kind).Observe(seconds)
}
