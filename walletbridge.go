// Copyright 2024 Mmate Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package walletbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/glimte/walletbridge/api"
	"github.com/glimte/walletbridge/bridge"
	"github.com/glimte/walletbridge/config"
	"github.com/glimte/walletbridge/health"
	"github.com/glimte/walletbridge/host"
	"github.com/glimte/walletbridge/interceptors"
	"github.com/glimte/walletbridge/internal/rabbitmq"
	"github.com/glimte/walletbridge/internal/reliability"
	"github.com/glimte/walletbridge/router"
	"github.com/glimte/walletbridge/services"
	rabbitmqTransport "github.com/glimte/walletbridge/transports/rabbitmq"
)

// Version is set at build time
var Version = "dev"

// App wires a configured host, the bridge client and the wallet services
type App struct {
	cfg      *config.Config
	host     bridge.Host
	closer   func() error
	client   *bridge.Client
	metrics  *bridge.InMemoryMetricsCollector
	breaker  *reliability.CircuitBreaker
	router   *router.Router
	services *services.Service
	hotline  *services.Hotline
	health   *health.Registry
	logger   *slog.Logger
}

type appConfig struct {
	logger   *slog.Logger
	loopback *host.Loopback
}

// AppOption configures an App
type AppOption func(*appConfig)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) AppOption {
	return func(c *appConfig) {
		c.logger = logger
	}
}

// WithLoopback uses l instead of creating one when the host kind is loopback.
// The caller registers its handlers.
func WithLoopback(l *host.Loopback) AppOption {
	return func(c *appConfig) {
		c.loopback = l
	}
}

// New builds the app from cfg. With an amqp host it connects before returning.
func New(ctx context.Context, cfg *config.Config, opts ...AppOption) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ac := &appConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(ac)
	}

	app := &App{
		cfg:     cfg,
		closer:  func() error { return nil },
		metrics: bridge.NewInMemoryMetricsCollector(),
		router:  router.New(router.DefaultRoutes(), router.WithLogger(ac.logger)),
		health:  health.NewRegistry(),
		logger:  ac.logger,
	}
	store := services.NewMockStore()

	switch cfg.Host.Kind {
	case config.HostAMQP:
		amqpHost, err := rabbitmqTransport.NewHost(ctx, cfg.Host.URL,
			rabbitmqTransport.WithTopology(rabbitmq.Topology{
				BridgeExchange: cfg.Host.BridgeExchange,
				EventExchange:  cfg.Host.EventExchange,
				EventQueue:     cfg.Host.EventQueue,
				Durable:        true,
			}),
			rabbitmqTransport.WithConnectionOptions(
				rabbitmq.WithReconnectDelay(cfg.Host.ReconnectDelay),
				rabbitmq.WithMaxRetries(cfg.Host.MaxRetries),
			),
			rabbitmqTransport.WithLogger(ac.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create amqp host: %w", err)
		}
		app.host = amqpHost
		app.closer = amqpHost.Close
		app.health.Register(health.NewConnectionChecker(amqpHost.ConnectionManager(), cfg.Host.BridgeExchange))
	case config.HostLoopback:
		loopback := ac.loopback
		if loopback == nil {
			loopback = host.NewLoopback(host.WithLoopbackLogger(ac.logger))
			store.Serve(loopback)
		}
		app.host = loopback
		app.closer = loopback.Close
	}

	client, err := bridge.NewClient(app.host,
		bridge.WithDefaultTimeout(cfg.Bridge.DefaultTimeout),
		bridge.WithMaxPendingRequests(cfg.Bridge.MaxPending),
		bridge.WithNavigator(app.router),
		bridge.WithMetrics(app.metrics),
		bridge.WithLogger(ac.logger))
	if err != nil {
		app.closer()
		return nil, err
	}
	app.client = client

	if cfg.Bridge.CircuitFailures > 0 {
		app.breaker = reliability.NewCircuitBreaker(
			reliability.WithName(cfg.Host.Kind),
			reliability.WithFailureThreshold(cfg.Bridge.CircuitFailures),
			reliability.WithTimeout(cfg.Bridge.CircuitOpen),
			reliability.WithFailurePredicate(interceptors.IsTransportFailure))
		app.breaker.AddListener(app)
	}
	chain := interceptors.NewChainBuilder(ac.logger).
		WithLogging().
		WithCircuitBreaker(app.breaker).
		Build()

	app.services = services.New(client,
		services.WithEmbed(cfg.Embed),
		services.WithMockStore(store),
		services.WithInterceptors(chain),
		services.WithLogger(ac.logger))
	app.hotline = services.NewHotline(client)

	app.health.Register(health.NewBridgeChecker(client, cfg.Bridge.MaxPending))
	app.health.Register(health.NewRuntimeChecker(5000, 20000))
	app.health.Register(health.NewCheckerFunc("circuit", app.checkCircuit))
	app.health.SetMetadata("version", Version)
	app.health.SetMetadata("environment", cfg.Environment)
	app.health.SetMetadata("embed", cfg.Embed)
	app.health.SetMetadata("host", cfg.Host.Kind)

	ac.logger.Info("wallet bridge ready",
		"host", cfg.Host.Kind,
		"embed", cfg.Embed,
		"defaultTimeout", cfg.Bridge.DefaultTimeout)
	return app, nil
}

// OnStateChange logs circuit breaker transitions
func (a *App) OnStateChange(from, to reliability.State, reason string) {
	a.logger.Warn("host circuit changed state",
		"from", from.String(),
		"to", to.String(),
		"reason", reason)
}

// CircuitState reports the host circuit breaker state. It is closed when disabled.
func (a *App) CircuitState() reliability.State {
	if a.breaker == nil {
		return reliability.StateClosed
	}
	return a.breaker.State()
}

func (a *App) Client() *bridge.Client {
	return a.client
}

func (a *App) Services() *services.Service {
	return a.services
}

func (a *App) Hotline() *services.Hotline {
	return a.hotline
}

func (a *App) Router() *router.Router {
	return a.router
}

func (a *App) Metrics() *bridge.InMemoryMetricsCollector {
	return a.metrics
}

func (a *App) Health() *health.Registry {
	return a.health
}

// Handler returns the HTTP API
func (a *App) Handler() http.Handler {
	return api.NewServer(a.services,
		api.WithBridge(a.client),
		api.WithHotline(a.hotline),
		api.WithRouter(a.router),
		api.WithHealth(a.health),
		api.WithLogger(a.logger)).Handler()
}

// Serve runs the HTTP API on the configured address until ctx is done
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http api listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http api: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close rejects pending calls and closes the host
func (a *App) Close() error {
	a.client.Close()
	if err := a.closer(); err != nil {
		return fmt.Errorf("failed to close host: %w", err)
	}
	a.logger.Debug("wallet bridge closed")
	return nil
}

func (a *App) checkCircuit(ctx context.Context) health.CheckResult {
	state := a.CircuitState()
	result := health.CheckResult{
		Status:  health.StatusHealthy,
		Message: "host circuit is " + state.String(),
		Details: map[string]interface{}{"state": state.String()},
	}
	if state != reliability.StateClosed {
		result.Status = health.StatusDegraded
	}
	return result
}
