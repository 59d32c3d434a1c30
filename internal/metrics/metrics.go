// Package metrics exposes backend counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several servers can live in one process.
// A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	connections     prometheus.Gauge
	liveRooms       prometheus.Gauge
	eventsPublished *prometheus.CounterVec
	framesDropped   prometheus.Counter
	itemsFlagged    prometheus.Counter
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "helpwave", Name: "ws_connections",
			Help: "Open push-channel connections.",
		}),
		liveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "helpwave", Name: "live_rooms",
			Help: "Rooms with at least one connected member.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helpwave", Name: "events_published_total",
			Help: "Push events fanned out to rooms, by type.",
		}, []string{"type"}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "helpwave", Name: "frames_dropped_total",
			Help: "Frames not delivered because a member's buffer was full.",
		}),
		itemsFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "helpwave", Name: "items_flagged_total",
			Help: "Items flagged as stale.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helpwave", Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "helpwave", Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.connections, m.liveRooms, m.eventsPublished, m.framesDropped,
		m.itemsFlagged, m.requests, m.requestDuration,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware records one sample per request, labelled by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) SetLiveRooms(n int) {
	if m != nil {
		m.liveRooms.Set(float64(n))
	}
}

func (m *Metrics) EventPublished(typ string) {
	if m != nil {
		m.eventsPublished.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) FramesDropped(n int) {
	if m != nil && n > 0 {
		m.framesDropped.Add(float64(n))
	}
}

func (m *Metrics) ItemsFlagged(n int) {
	if m != nil && n > 0 {
		m.itemsFlagged.Add(float64(n))
	}
}
