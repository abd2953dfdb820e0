// Package wlanmetrics exposes the Prometheus counters and gauges for the
// CCMP/TKIP cipher engines: frames encrypted/decrypted per suite, replay
// drops, MIC/ICV failures, and countermeasures activations.
package wlanmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/go80211/wlancrypt/internal/wlancrypto"
)

const (
	namespace = "wlancrypt"
	subsystem = "cipher"
)

const (
	labelSuite = "suite"
	labelIface = "iface"
)

// Collector holds all cipher-engine Prometheus metrics and implements
// wlancrypto.MetricsRecorder, the narrow interface the Manager emits
// observability events through.
type Collector struct {
	FramesEncrypted       *prometheus.CounterVec
	FramesDecrypted       *prometheus.CounterVec
	ReplayDrops           *prometheus.CounterVec
	MICFailures           *prometheus.CounterVec
	ICVFailures           prometheus.Counter
	CountermeasuresActive *prometheus.GaugeVec
	CountermeasuresTotal  *prometheus.CounterVec
}

// NewCollector creates a Collector with all metrics registered against reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.FramesEncrypted,
		c.FramesDecrypted,
		c.ReplayDrops,
		c.MICFailures,
		c.ICVFailures,
		c.CountermeasuresActive,
		c.CountermeasuresTotal,
	)

	return c
}

func newMetrics() *Collector {
	suiteLabels := []string{labelSuite}
	ifaceLabels := []string{labelIface}

	return &Collector{
		FramesEncrypted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_encrypted_total",
			Help:      "Total frames successfully encrypted, by cipher suite.",
		}, suiteLabels),

		FramesDecrypted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_decrypted_total",
			Help:      "Total frames successfully decrypted, by cipher suite.",
		}, suiteLabels),

		ReplayDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "replay_drops_total",
			Help:      "Total frames discarded for a non-increasing packet number, by cipher suite.",
		}, suiteLabels),

		MICFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mic_failures_total",
			Help:      "Total frames discarded for a MIC mismatch, by cipher suite.",
		}, suiteLabels),

		ICVFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "icv_failures_total",
			Help:      "Total TKIP frames discarded for a WEP ICV mismatch.",
		}),

		CountermeasuresActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "countermeasures_active",
			Help:      "1 if TKIP countermeasures are currently engaged on the interface, else 0.",
		}, ifaceLabels),

		CountermeasuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "countermeasures_activations_total",
			Help:      "Total times TKIP countermeasures have been engaged, by interface.",
		}, ifaceLabels),
	}
}

// RecordEncrypt implements wlancrypto.MetricsRecorder.
func (c *Collector) RecordEncrypt(suite wlancrypto.CipherSuite) {
	c.FramesEncrypted.WithLabelValues(suite.String()).Inc()
}

// RecordDecrypt implements wlancrypto.MetricsRecorder.
func (c *Collector) RecordDecrypt(suite wlancrypto.CipherSuite) {
	c.FramesDecrypted.WithLabelValues(suite.String()).Inc()
}

// RecordReplayDrop implements wlancrypto.MetricsRecorder.
func (c *Collector) RecordReplayDrop(suite wlancrypto.CipherSuite) {
	c.ReplayDrops.WithLabelValues(suite.String()).Inc()
}

// RecordMICFailure implements wlancrypto.MetricsRecorder.
func (c *Collector) RecordMICFailure(suite wlancrypto.CipherSuite) {
	c.MICFailures.WithLabelValues(suite.String()).Inc()
}

// RecordICVFailure implements wlancrypto.MetricsRecorder.
func (c *Collector) RecordICVFailure() {
	c.ICVFailures.Inc()
}

// RecordCountermeasuresActivation implements wlancrypto.MetricsRecorder.
// It both bumps the lifetime counter and sets the active gauge for iface.
// Only an explicit SetCountermeasuresState call lowers the gauge again.
func (c *Collector) RecordCountermeasuresActivation(iface string) {
	c.CountermeasuresTotal.WithLabelValues(iface).Inc()
	c.CountermeasuresActive.WithLabelValues(iface).Set(1)
}

// SetCountermeasuresState sets the active gauge for iface directly.
// Neither the Manager nor the server calls it; otherwise the gauge only
// changes in RecordCountermeasuresActivation.
func (c *Collector) SetCountermeasuresState(iface string, active bool) {
	v := 0.0
	if active {
		v = 1.0
	}
	c.CountermeasuresActive.WithLabelValues(iface).Set(v)
}

// InterfaceSnapshot is a point-in-time read of the counters reported for
// one interface. Only CountermeasuresActive is per interface: the frame,
// replay, MIC and ICV counts carry no interface label, so they are
// process-wide totals (summed across cipher suites where suite-labeled)
// and read the same for every interface. Backs the server's Stats RPC
// (SPEC_FULL.md section 6); the /metrics endpoint remains the canonical,
// per-suite-broken-out source.
type InterfaceSnapshot struct {
	FramesEncrypted       uint64
	FramesDecrypted       uint64
	ReplayDrops           uint64
	MICFailures           uint64
	ICVFailures           uint64
	CountermeasuresActive bool
}

// Snapshot reads back the current process-wide counter totals and the
// countermeasures gauge of iface.
func (c *Collector) Snapshot(iface string) InterfaceSnapshot {
	var snap InterfaceSnapshot
	for _, suite := range []wlancrypto.CipherSuite{wlancrypto.CipherSuiteCCMP, wlancrypto.CipherSuiteTKIP} {
		label := suite.String()
		snap.FramesEncrypted += counterValue(c.FramesEncrypted.WithLabelValues(label))
		snap.FramesDecrypted += counterValue(c.FramesDecrypted.WithLabelValues(label))
		snap.ReplayDrops += counterValue(c.ReplayDrops.WithLabelValues(label))
		snap.MICFailures += counterValue(c.MICFailures.WithLabelValues(label))
	}
	snap.ICVFailures = counterValue(c.ICVFailures)
	snap.CountermeasuresActive = gaugeValue(c.CountermeasuresActive.WithLabelValues(iface)) != 0
	return snap
}

func counterValue(c prometheus.Counter) uint64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}

func gaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
