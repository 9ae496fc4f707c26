package hsms

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the stack's custom prometheus.Collector, grounded on
// runZeroInc-sockstats' TCPInfoCollector: rather than updating global
// promauto counters from scattered call sites, every Session holds a
// reference to one Metrics and mutates plain atomic counters; Collect()
// only runs when prometheus actually scrapes.
type Metrics struct {
	framesSent     uint64
	framesReceived uint64
	transactionsOK uint64
	transactionsTO uint64

	mu           sync.Mutex
	sessionState map[string]State // session id -> current state, for the state gauge

	descFramesSent     *prometheus.Desc
	descFramesReceived *prometheus.Desc
	descTransactionsOK *prometheus.Desc
	descTransactionsTO *prometheus.Desc
	descSessionState   *prometheus.Desc
}

// NewMetrics creates an unregistered Metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		sessionState: make(map[string]State),

		descFramesSent: prometheus.NewDesc(
			"hsms_frames_sent_total", "Total HSMS frames written to the wire.", nil, nil),
		descFramesReceived: prometheus.NewDesc(
			"hsms_frames_received_total", "Total HSMS frames decoded from the wire.", nil, nil),
		descTransactionsOK: prometheus.NewDesc(
			"hsms_transactions_replied_total", "Total Select/Linktest control transactions that received a reply.", nil, nil),
		descTransactionsTO: prometheus.NewDesc(
			"hsms_transactions_timeout_total", "Total Select/Linktest control transactions that timed out (T6).", nil, nil),
		descSessionState: prometheus.NewDesc(
			"hsms_session_state", "Current HSMS session state (0=not-connected, 1=not-selected, 2=selected).",
			[]string{"session_id"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(descs chan<- *prometheus.Desc) {
	descs <- m.descFramesSent
	descs <- m.descFramesReceived
	descs <- m.descTransactionsOK
	descs <- m.descTransactionsTO
	descs <- m.descSessionState
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(out chan<- prometheus.Metric) {
	out <- prometheus.MustNewConstMetric(m.descFramesSent, prometheus.CounterValue, float64(atomic.LoadUint64(&m.framesSent)))
	out <- prometheus.MustNewConstMetric(m.descFramesReceived, prometheus.CounterValue, float64(atomic.LoadUint64(&m.framesReceived)))
	out <- prometheus.MustNewConstMetric(m.descTransactionsOK, prometheus.CounterValue, float64(atomic.LoadUint64(&m.transactionsOK)))
	out <- prometheus.MustNewConstMetric(m.descTransactionsTO, prometheus.CounterValue, float64(atomic.LoadUint64(&m.transactionsTO)))

	m.mu.Lock()
	defer m.mu.Unlock()
	for sessionID, state := range m.sessionState {
		out <- prometheus.MustNewConstMetric(m.descSessionState, prometheus.GaugeValue, float64(state), sessionID)
	}
}

func (m *Metrics) RecordFrameSent()     { atomic.AddUint64(&m.framesSent, 1) }
func (m *Metrics) RecordFrameReceived() { atomic.AddUint64(&m.framesReceived, 1) }
func (m *Metrics) RecordTransactionReplied() { atomic.AddUint64(&m.transactionsOK, 1) }
func (m *Metrics) RecordTransactionTimeout()  { atomic.AddUint64(&m.transactionsTO, 1) }

// SetSessionState records the current state of the session identified by
// sessionID, for the hsms_session_state gauge.
func (m *Metrics) SetSessionState(sessionID string, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionState[sessionID] = state
}

// Handler registers m on a private prometheus.Registry (so a library user
// embedding this stack doesn't collide with their own default registry) and
// returns the scrape endpoint's http.Handler.
func Handler(m *Metrics) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(m)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
