package stream

import (
	"context"
	"time"

	"softether-exporter/internal/model"
)

type Sink interface {
	SendHubSnapshots(ctx context.Context, snapshots []model.HubSnapshot) error
	Close(ctx context.Context) error
}

// HubSnapshotFrame is one message on the snapshot stream. Server is the VPN
// server the snapshots were read from.
type HubSnapshotFrame struct {
	Server        string              `json:"server"`
	TimestampUnix int64               `json:"timestamp_unix"`
	Snapshots     []model.HubSnapshot `json:"snapshots"`
}

func NewHubSnapshotFrame(server string, snapshots []model.HubSnapshot) HubSnapshotFrame {
	at := time.Now().UTC().Unix()
	if len(snapshots) > 0 && !snapshots[0].Timestamp.IsZero() {
		at = snapshots[0].Timestamp.Unix()
	}
	return HubSnapshotFrame{
		Server:        server,
		TimestampUnix: at,
		Snapshots:     append([]model.HubSnapshot(nil), snapshots...),
	}
}

// NopSink drops everything. It stands in when no backend is configured.
type NopSink struct{}

func (NopSink) SendHubSnapshots(context.Context, []model.HubSnapshot) error { return nil }

func (NopSink) Close(context.Context) error { return nil }
