package exporter

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/prometheus/common/version"

	"softether-exporter/internal/collector"
	"softether-exporter/internal/model"
)

func TestSetStatus(t *testing.T) {
	e := New(Options{})
	e.SetUp("DEFAULT", true)
	e.SetStatus("DEFAULT", model.HubStatus{
		Name:                   "DEFAULT",
		Online:                 true,
		SessionCount:           4,
		LoginCount:             18965,
		OutgoingUnicastBytes:   4153388417848,
		IncomingBroadcastBytes: 138170046309,
	})

	expected := `
# HELP softether_online Hub online status.
# TYPE softether_online gauge
softether_online{hub="DEFAULT"} 1
# HELP softether_secure_nat Whether SecureNAT is enabled on the hub.
# TYPE softether_secure_nat gauge
softether_secure_nat{hub="DEFAULT"} 0
# HELP softether_sessions Number of sessions.
# TYPE softether_sessions gauge
softether_sessions{hub="DEFAULT"} 4
# HELP softether_up Whether the last scrape of the hub succeeded.
# TYPE softether_up gauge
softether_up{hub="DEFAULT"} 1
`
	err := testutil.GatherAndCompare(e.Registry(), strings.NewReader(expected),
		"softether_online", "softether_secure_nat", "softether_sessions", "softether_up")
	if err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(e.status[len(e.status)-1].vec.WithLabelValues("DEFAULT")); got != 138170046309 {
		t.Fatalf("incoming_broadcast_bytes = %v", got)
	}
}

func TestEveryStatusFieldHasASeries(t *testing.T) {
	e := New(Options{})
	e.SetStatus("HUB", model.HubStatus{})

	n, err := testutil.GatherAndCount(e.Registry())
	if err != nil {
		t.Fatal(err)
	}
	if n != 19 {
		t.Fatalf("got %d series, want 19 status gauges", n)
	}
}

func TestUserTransfersKeepStaleByDefault(t *testing.T) {
	e := New(Options{})
	e.SetUserTransfers("HUB", []model.UserTransfer{{User: "A", Bytes: 120, Packets: 12}, {User: "B", Bytes: 50, Packets: 5}})
	e.SetUserTransfers("HUB", []model.UserTransfer{{User: "A", Bytes: 130, Packets: 13}})

	if got := testutil.ToFloat64(e.userBytes.WithLabelValues("HUB", "A")); got != 130 {
		t.Fatalf("A bytes = %v", got)
	}
	if n := testutil.CollectAndCount(e.userBytes); n != 2 {
		t.Fatalf("got %d user series, want stale B kept", n)
	}
}

func TestUserTransfersClearStale(t *testing.T) {
	e := New(Options{ClearStaleUsers: true})
	e.SetUserTransfers("HUB", []model.UserTransfer{{User: "A", Bytes: 120}, {User: "B", Bytes: 50}})
	e.SetUserTransfers("OTHER", []model.UserTransfer{{User: "B", Bytes: 1}})
	e.SetUserTransfers("HUB", []model.UserTransfer{{User: "A", Bytes: 130}})

	if n := testutil.CollectAndCount(e.userBytes); n != 2 {
		t.Fatalf("got %d user byte series, want HUB/A and OTHER/B", n)
	}
	if n := testutil.CollectAndCount(e.userPackets); n != 2 {
		t.Fatalf("got %d user packet series, want 2", n)
	}
	if got := testutil.ToFloat64(e.userBytes.WithLabelValues("OTHER", "B")); got != 1 {
		t.Fatalf("OTHER/B bytes = %v", got)
	}
}

func TestScrapeObservability(t *testing.T) {
	e := New(Options{})
	e.ObserveScrape("HUB", 1500*time.Millisecond)
	e.IncScrapeError("HUB", collector.StageSessionQuery)
	e.IncScrapeError("HUB", collector.StageSessionQuery)

	if got := testutil.ToFloat64(e.scrapeDuration.WithLabelValues("HUB")); got != 1.5 {
		t.Fatalf("duration = %v", got)
	}
	if got := testutil.ToFloat64(e.scrapeErrors.WithLabelValues("HUB", "session_query")); got != 2 {
		t.Fatalf("errors = %v", got)
	}
}

func TestBuildInfo(t *testing.T) {
	e := New(Options{})
	e.SetBuildInfo()
	e.SetBuildInfo()

	if got := testutil.ToFloat64(e.buildInfo.WithLabelValues(version.Version, version.Revision, version.GoVersion)); got != 1 {
		t.Fatalf("build_info = %v", got)
	}

	mfs, err := e.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "softether_build_info" {
			continue
		}
		labels := map[string]string{}
		for _, lp := range mf.GetMetric()[0].GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		want := map[string]string{
			"version":           version.Version,
			"revision":          version.Revision,
			"toolchain_version": version.GoVersion,
		}
		if len(labels) != len(want) {
			t.Fatalf("build_info labels = %v, want %v", labels, want)
		}
		for k, v := range want {
			if labels[k] != v {
				t.Fatalf("build_info label %s = %q, want %q", k, labels[k], v)
			}
		}
		return
	}
	t.Fatal("softether_build_info not gathered")
}

func TestRuntimeCollectors(t *testing.T) {
	e := New(Options{RuntimeCollectors: true})
	mfs, err := e.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range mfs {
		if mf.GetName() == "go_goroutines" {
			return
		}
	}
	t.Fatal("go_goroutines not exported")
}

var _ collector.Sink = (*Exporter)(nil)
