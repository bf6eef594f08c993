package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/tickarena/server/internal/config"
	"github.com/tickarena/server/internal/game"
	"github.com/tickarena/server/internal/metrics"
	gonet "github.com/tickarena/server/internal/net"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	netServer, err := gonet.NewServer(cfg.Network.BindAddress, gonet.SessionOptions{
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		WriteTimeout: cfg.Network.WriteTimeout,
		ReadLimit:    cfg.Network.ReadLimit,
	}, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		netServer.Handle(cfg.Metrics.Path, m.Handler())
	}
	if cfg.Server.StaticDir != "" {
		netServer.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))
	}

	g, err := game.New(cfg, netServer, m, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- netServer.Serve() }()

	loopDone := make(chan error, 1)
	go func() { loopDone <- g.Run(ctx) }()

	log.Info("server listening",
		zap.String("name", cfg.Server.Name),
		zap.String("addr", netServer.Addr().String()),
		zap.Float64("physics_hz", cfg.Game.PhysicsHz),
		zap.Float64("logic_hz", cfg.Game.LogicHz),
		zap.Float64("network_hz", cfg.Network.NetworkHz),
		zap.Duration("heartbeat", cfg.Network.Heartbeat),
	)

	var result *multierror.Error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("serve: %w", err))
		}
		stop()
	}

	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		result = multierror.Append(result, fmt.Errorf("game loop: %w", err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := netServer.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown: %w", err))
	}
	log.Info("server stopped")
	return result.ErrorOrNil()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
