package exporter

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/version"

	"softether-exporter/internal/collector"
	"softether-exporter/internal/model"
)

const namespace = "softether"

type statusGauge struct {
	vec   *prometheus.GaugeVec
	value func(model.HubStatus) float64
}

// Exporter holds the softether_* series on a private registry and implements
// collector.Sink.
type Exporter struct {
	registry *prometheus.Registry

	up             *prometheus.GaugeVec
	status         []statusGauge
	userBytes      *prometheus.GaugeVec
	userPackets    *prometheus.GaugeVec
	scrapeDuration *prometheus.GaugeVec
	scrapeErrors   *prometheus.CounterVec
	buildInfo      *prometheus.GaugeVec

	clearStaleUsers bool
	mu              sync.Mutex
	seenUsers       map[string]map[string]struct{}
}

type Options struct {
	// ClearStaleUsers drops per-user series of users missing from a hub's
	// latest successful scrape.
	ClearStaleUsers bool
	// RuntimeCollectors adds the Go runtime and process collectors.
	RuntimeCollectors bool
}

func New(opts Options) *Exporter {
	hubGauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, []string{"hub"})
	}
	flag := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}

	e := &Exporter{
		registry:        prometheus.NewRegistry(),
		up:              hubGauge("up", "Whether the last scrape of the hub succeeded."),
		clearStaleUsers: opts.ClearStaleUsers,
		seenUsers:       make(map[string]map[string]struct{}),
		userBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "user_transfer_bytes",
			Help:      "Bytes transferred by all sessions of a user.",
		}, []string{"hub", "user"}),
		userPackets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "user_transfer_packets",
			Help:      "Packets transferred by all sessions of a user.",
		}, []string{"hub", "user"}),
		scrapeDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scrape_duration_seconds",
			Help:      "Duration of the last successful scrape of the hub.",
		}, []string{"hub"}),
		scrapeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_errors_total",
			Help:      "Failed hub scrapes by stage.",
		}, []string{"hub", "stage"}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "A metric with a constant '1' value labeled by version, revision and toolchain_version.",
		}, []string{"version", "revision", "toolchain_version"}),
	}

	e.status = []statusGauge{
		{hubGauge("online", "Hub online status."), func(s model.HubStatus) float64 { return flag(s.Online) }},
		{hubGauge("secure_nat", "Whether SecureNAT is enabled on the hub."), func(s model.HubStatus) float64 { return flag(s.SecureNATEnabled) }},
		{hubGauge("sessions", "Number of sessions."), func(s model.HubStatus) float64 { return s.SessionCount }},
		{hubGauge("sessions_client", "Number of client sessions."), func(s model.HubStatus) float64 { return s.ClientSessionCount }},
		{hubGauge("sessions_bridge", "Number of bridge sessions."), func(s model.HubStatus) float64 { return s.BridgeSessionCount }},
		{hubGauge("access_lists", "Number of access list entries."), func(s model.HubStatus) float64 { return s.AccessListCount }},
		{hubGauge("users", "Number of users."), func(s model.HubStatus) float64 { return s.UserCount }},
		{hubGauge("groups", "Number of groups."), func(s model.HubStatus) float64 { return s.GroupCount }},
		{hubGauge("mac_tables", "Number of MAC table entries."), func(s model.HubStatus) float64 { return s.MACTableCount }},
		{hubGauge("ip_tables", "Number of IP table entries."), func(s model.HubStatus) float64 { return s.IPTableCount }},
		{hubGauge("logins", "Number of logins."), func(s model.HubStatus) float64 { return s.LoginCount }},
		{hubGauge("outgoing_unicast_packets", "Outgoing unicast transfer in packets."), func(s model.HubStatus) float64 { return s.OutgoingUnicastPackets }},
		{hubGauge("outgoing_unicast_bytes", "Outgoing unicast transfer in bytes."), func(s model.HubStatus) float64 { return s.OutgoingUnicastBytes }},
		{hubGauge("outgoing_broadcast_packets", "Outgoing broadcast transfer in packets."), func(s model.HubStatus) float64 { return s.OutgoingBroadcastPackets }},
		{hubGauge("outgoing_broadcast_bytes", "Outgoing broadcast transfer in bytes."), func(s model.HubStatus) float64 { return s.OutgoingBroadcastBytes }},
		{hubGauge("incoming_unicast_packets", "Incoming unicast transfer in packets."), func(s model.HubStatus) float64 { return s.IncomingUnicastPackets }},
		{hubGauge("incoming_unicast_bytes", "Incoming unicast transfer in bytes."), func(s model.HubStatus) float64 { return s.IncomingUnicastBytes }},
		{hubGauge("incoming_broadcast_packets", "Incoming broadcast transfer in packets."), func(s model.HubStatus) float64 { return s.IncomingBroadcastPackets }},
		{hubGauge("incoming_broadcast_bytes", "Incoming broadcast transfer in bytes."), func(s model.HubStatus) float64 { return s.IncomingBroadcastBytes }},
	}

	e.registry.MustRegister(e.up, e.userBytes, e.userPackets, e.scrapeDuration, e.scrapeErrors, e.buildInfo)
	for _, g := range e.status {
		e.registry.MustRegister(g.vec)
	}
	if opts.RuntimeCollectors {
		e.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return e
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func (e *Exporter) SetUp(hub string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	e.up.WithLabelValues(hub).Set(v)
}

func (e *Exporter) SetStatus(hub string, status model.HubStatus) {
	for _, g := range e.status {
		g.vec.WithLabelValues(hub).Set(g.value(status))
	}
}

func (e *Exporter) SetUserTransfers(hub string, users []model.UserTransfer) {
	if e.clearStaleUsers {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	for _, u := range users {
		e.userBytes.WithLabelValues(hub, u.User).Set(u.Bytes)
		e.userPackets.WithLabelValues(hub, u.User).Set(u.Packets)
	}
	if !e.clearStaleUsers {
		return
	}

	current := make(map[string]struct{}, len(users))
	for _, u := range users {
		current[u.User] = struct{}{}
	}
	for user := range e.seenUsers[hub] {
		if _, ok := current[user]; ok {
			continue
		}
		e.userBytes.DeleteLabelValues(hub, user)
		e.userPackets.DeleteLabelValues(hub, user)
	}
	e.seenUsers[hub] = current
}

func (e *Exporter) ObserveScrape(hub string, d time.Duration) {
	e.scrapeDuration.WithLabelValues(hub).Set(d.Seconds())
}

func (e *Exporter) IncScrapeError(hub string, stage collector.Stage) {
	e.scrapeErrors.WithLabelValues(hub, string(stage)).Inc()
}

func (e *Exporter) SetBuildInfo() {
	e.buildInfo.WithLabelValues(version.Version, version.Revision, version.GoVersion).Set(1)
}
