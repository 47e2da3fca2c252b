// Package metrics registers the node's Prometheus counters/gauges,
// grounded on leptonai-gpud's component-level MustRegister-at-init
// pattern and go-coffee's promhttp.Handler() exposition, generalized
// into one registry the shell increments as it executes effects.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the node's counters/gauges. The shell updates
// PacketsReceived, PacketsSent and DecodeErrors; the other metrics are
// registered but nothing sets them.
type Registry struct {
	PacketsReceived *prometheus.CounterVec
	PacketsSent     *prometheus.CounterVec
	DecodeErrors    *prometheus.CounterVec
	MergeRejections prometheus.Counter
	FailsafeEngaged prometheus.Counter
	SyncActive      prometheus.Gauge
	DiscoveryPeers  prometheus.Gauge
	RdmTasksQueued  prometheus.Gauge
	FirmwareSessionsActive prometheus.Gauge
}

// New builds and registers every metric against reg, so tests can use a
// scratch registry instead of the global default.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		PacketsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artnode",
			Name:      "packets_received_total",
			Help:      "Art-Net packets received, labeled by opcode.",
		}, []string{"opcode"}),
		PacketsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artnode",
			Name:      "packets_sent_total",
			Help:      "Art-Net packets transmitted, labeled by opcode.",
		}, []string{"opcode"}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artnode",
			Name:      "decode_errors_total",
			Help:      "Packets that failed to decode, labeled by reason.",
		}, []string{"reason"}),
		MergeRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artnode",
			Name:      "merge_rejections_total",
			Help:      "ArtDmx frames an LTP merge rejected in favor of a newer sender.",
		}),
		FailsafeEngaged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artnode",
			Name:      "failsafe_engaged_total",
			Help:      "Times a port's failsafe substitution playback engaged.",
		}),
		SyncActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "artnode",
			Name:      "sync_active",
			Help:      "1 while ArtSync mode is active, 0 otherwise.",
		}),
		DiscoveryPeers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "artnode",
			Name:      "discovery_peers",
			Help:      "Peers currently tracked by the ArtPoll discovery engine.",
		}),
		RdmTasksQueued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "artnode",
			Name:      "rdm_tasks_queued",
			Help:      "RDM discovery tasks waiting in the scheduler.",
		}),
		FirmwareSessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "artnode",
			Name:      "firmware_sessions_active",
			Help:      "ArtFirmwareMaster transfer sessions currently open.",
		}),
	}

	reg.MustRegister(
		m.PacketsReceived, m.PacketsSent, m.DecodeErrors, m.MergeRejections,
		m.FailsafeEngaged, m.SyncActive, m.DiscoveryPeers, m.RdmTasksQueued,
		m.FirmwareSessionsActive,
	)
	return m
}

// Handler returns the HTTP handler that exposes reg in the Prometheus
// exposition format; callers that registered against a scratch registry
// (as New does, for test isolation) must pass the same one here rather
// than the global default.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
