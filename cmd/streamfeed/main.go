// Package main is the entry point for the Streamfeed market-data
// streaming service.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/streamfeed/business/streaming"
	"github.com/fd1az/streamfeed/business/streaming/app"
	streamingDI "github.com/fd1az/streamfeed/business/streaming/di"
	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/fd1az/streamfeed/business/streaming/observer"
	"github.com/fd1az/streamfeed/internal/apm"
	"github.com/fd1az/streamfeed/internal/config"
	"github.com/fd1az/streamfeed/internal/health"
	"github.com/fd1az/streamfeed/internal/logger"
	"github.com/fd1az/streamfeed/internal/metrics"
	"github.com/fd1az/streamfeed/internal/monolith"
	"github.com/fd1az/streamfeed/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("streamfeed %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if tuiMode {
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting streamfeed",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	modules := []monolith.Module{
		&streaming.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if tuiMode {
		startFunc := func() error {
			wireTUICallbacks(mono, cfg)
			return mono.StartModules(ctx, modules...)
		}
		return runTUI(ctx, cfg, startFunc)
	}

	wireLogCallbacks(ctx, mono, cfg, log)
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	log.Info(ctx, "all modules started, streaming market data")
	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}

// wireTUICallbacks attaches each enabled venue's client callbacks to the
// TUI so ticker/orderbook/trade/connection events are reflected live on
// the dashboard.
func wireTUICallbacks(mono monolith.Monolith, cfg *config.Config) {
	sr := mono.Services()

	// Metrics/health snapshots can fire on every inbound message across
	// every venue; relay them through a bounded, drop-oldest buffer so a
	// slow TUI repaint never backs up into the client's own read loop.
	statsRelay := observer.NewBufferedRelay(64, func(s domain.StatisticsSnapshot) {
		ui.Send(ui.StatsMsg{Stats: s})
	})
	healthRelay := observer.NewBufferedRelay(64, func(h domain.HealthSnapshot) {
		ui.Send(ui.HealthMsg{Health: h})
	})
	obs := streamingDI.GetObserver(sr)
	obs.OnMetricsUpdated(func(_ string, s domain.StatisticsSnapshot) { statsRelay.Send(s) })
	obs.OnHealthChanged(func(_ string, h domain.HealthSnapshot) { healthRelay.Send(h) })

	for _, venue := range cfg.Venues.Enabled {
		token, ok := streamingDI.TokenFor(venue)
		if !ok {
			continue
		}
		client := streamingDI.GetClient(sr, token)
		venueName := venue

		client.OnTicker(func(t domain.Ticker) {
			ui.Send(ui.TickerMsg{Ticker: t})
		})
		client.OnOrderbook(func(b domain.OrderbookData) {
			ui.Send(ui.OrderbookMsg{Book: b, Venue: venueName})
		})
		client.OnTrade(func(t domain.Trade) {
			ui.Send(ui.TradeMsg{Trade: t})
		})
		client.OnError(func(v string, err error) {
			ui.Send(ui.ErrorMsg{Error: fmt.Errorf("%s: %w", v, err)})
		})
		client.OnStateChange(func(v string, state app.State) {
			ui.Send(ui.ConnectionStatusMsg{
				Name:      v,
				Connected: state == app.StateStreaming || state == app.StateConnected || state == app.StateSubscribing,
			})
		})
	}
}

// wireLogCallbacks attaches each enabled venue's error/state callbacks to
// structured logging, for CLI mode where there is no TUI to stream to.
func wireLogCallbacks(ctx context.Context, mono monolith.Monolith, cfg *config.Config, log *logger.Logger) {
	sr := mono.Services()
	for _, venue := range cfg.Venues.Enabled {
		token, ok := streamingDI.TokenFor(venue)
		if !ok {
			continue
		}
		client := streamingDI.GetClient(sr, token)

		client.OnError(func(v string, err error) {
			log.Warn(ctx, "venue error", "venue", v, "error", err)
		})
		client.OnStateChange(func(v string, state app.State) {
			log.Info(ctx, "venue state changed", "venue", v, "state", string(state))
		})
	}
}

func runTUI(ctx context.Context, cfg *config.Config, startFunc func() error) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(cfg.Venues.Enabled...), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		<-ctx.Done()
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
