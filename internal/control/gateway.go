// Package control wires configuration into a running gateway.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/rpcgate/internal/core/config"
	"github.com/vietddude/rpcgate/internal/gateway"
	"github.com/vietddude/rpcgate/internal/infra/rpc"
	"github.com/vietddude/rpcgate/internal/infra/rpc/endpoint"
	"github.com/vietddude/rpcgate/internal/infra/rpc/retry"
	"github.com/vietddude/rpcgate/internal/infra/rpc/transport"
)

// Config holds the application configuration.
type Config struct {
	Port      int
	Endpoints []config.EndpointConfig
	Retry     config.RetryConfig
	Blacklist config.BlacklistConfig
}

// Gateway is the main application struct that manages the service
// lifecycle.
type Gateway struct {
	cfg    Config
	client *rpc.Client
	server *gateway.Server
	log    *slog.Logger
}

// NewGateway creates a Gateway instance with all dependencies
// initialized.
func NewGateway(ctx context.Context, cfg Config) (*Gateway, error) {
	log := slog.Default()

	// 1. Endpoint pool
	pool := make([]endpoint.Endpoint, 0, len(cfg.Endpoints))
	for _, ec := range cfg.Endpoints {
		pool = append(pool, endpoint.Endpoint{
			Name:     ec.Name,
			URL:      ec.URL,
			Protocol: endpoint.Protocol(ec.Protocol),
		})
	}

	manager, err := endpoint.NewManager(pool)
	if err != nil {
		return nil, fmt.Errorf("failed to init endpoint pool: %w", err)
	}

	// 2. One transport per endpoint
	transports := make(map[string]transport.Transport, len(cfg.Endpoints))
	for _, ec := range cfg.Endpoints {
		switch endpoint.Protocol(ec.Protocol) {
		case endpoint.ProtocolGRPC:
			tr, err := transport.NewGRPCTransport(ctx, ec.Name, ec.URL, manager.Monitor(ec.Name))
			if err != nil {
				return nil, fmt.Errorf("failed to init grpc transport %s: %w", ec.Name, err)
			}
			transports[ec.Name] = tr
		default:
			transports[ec.Name] = transport.NewHTTPTransport(ec.Name, ec.URL, ec.Timeout.Std(), manager.Monitor(ec.Name))
		}
	}

	// 3. Client with retry orchestration
	client, err := rpc.NewClient(
		manager,
		transports,
		retry.Config{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay.Std(),
			MaxDelay:   cfg.Retry.MaxDelay.Std(),
		},
		rpc.BlacklistPolicy{
			MediumDuration: cfg.Blacklist.MediumDuration.Std(),
			HighDuration:   cfg.Blacklist.HighDuration.Std(),
		},
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init client: %w", err)
	}

	return &Gateway{
		cfg:    cfg,
		client: client,
		server: gateway.NewServer(client, cfg.Port, log),
		log:    log,
	}, nil
}

// Client returns the underlying RPC client.
func (g *Gateway) Client() *rpc.Client {
	return g.client
}

// Start launches the HTTP server in the background.
func (g *Gateway) Start(ctx context.Context) error {
	go func() {
		if err := g.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Error("gateway server stopped", "error", err)
		}
	}()

	g.log.Info("gateway started",
		"port", g.cfg.Port,
		"endpoints", len(g.cfg.Endpoints))
	return nil
}

// Stop shuts the server down and releases transports.
func (g *Gateway) Stop(ctx context.Context) error {
	if err := g.server.Stop(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return g.client.Close()
}
