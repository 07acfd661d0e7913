package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"softether-exporter/internal/model"
)

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// GRPCClient pushes hub snapshots over a long-lived client stream.
type GRPCClient struct {
	mu sync.Mutex

	logger       *slog.Logger
	addr         string
	tlsConfig    *tls.Config
	token        string
	method       string
	server       string
	conn         *grpc.ClientConn
	stream       grpc.ClientStream
	streamCancel context.CancelFunc
	dialTimeout  time.Duration
}

func NewGRPCClient(addr string, tlsCfg *tls.Config, token, method, server string, logger *slog.Logger) *GRPCClient {
	encoding.RegisterCodec(jsonCodec{})
	return &GRPCClient{
		logger:      logger,
		addr:        addr,
		tlsConfig:   tlsCfg,
		token:       token,
		method:      method,
		server:      server,
		dialTimeout: 8 * time.Second,
	}
}

func (c *GRPCClient) SendHubSnapshots(ctx context.Context, snapshots []model.HubSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(ctx); err != nil {
		return err
	}
	if c.stream == nil {
		if err := c.openStreamLocked(); err != nil {
			return err
		}
	}
	frame := NewHubSnapshotFrame(c.server, snapshots)
	if err := c.stream.SendMsg(frame); err != nil {
		c.logger.Warn("grpc snapshot send failed, reopening stream", "error", err)
		c.closeStreamLocked()
		if err2 := c.openStreamLocked(); err2 != nil {
			return fmt.Errorf("reopen snapshot stream: %w", err2)
		}
		if err2 := c.stream.SendMsg(frame); err2 != nil {
			return fmt.Errorf("send snapshot frame: %w", err2)
		}
	}
	return nil
}

func (c *GRPCClient) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		_ = c.stream.CloseSend()
	}
	c.closeStreamLocked()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *GRPCClient) ensureConnLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	var creds credentials.TransportCredentials
	if c.tlsConfig != nil {
		creds = credentials.NewTLS(c.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.DialContext(
		dialCtx,
		c.addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return fmt.Errorf("grpc dial %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Info("grpc stream connected", "addr", c.addr)
	return nil
}

// openStreamLocked opens the stream on its own context; it outlives the
// request that triggered it and ends on Close.
func (c *GRPCClient) openStreamLocked() error {
	if c.conn == nil {
		return fmt.Errorf("grpc conn is nil")
	}
	streamCtx, cancel := context.WithCancel(context.Background())
	if c.token != "" {
		streamCtx = metadata.AppendToOutgoingContext(streamCtx, "authorization", "Bearer "+c.token)
	}
	s, err := c.conn.NewStream(streamCtx, &grpc.StreamDesc{ClientStreams: true}, c.method)
	if err != nil {
		cancel()
		return fmt.Errorf("open snapshot stream: %w", err)
	}
	c.stream = s
	c.streamCancel = cancel
	return nil
}

func (c *GRPCClient) closeStreamLocked() {
	if c.streamCancel != nil {
		c.streamCancel()
		c.streamCancel = nil
	}
	c.stream = nil
}
