package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/havenmon/sysmond/internal/alert"
	"codeberg.org/havenmon/sysmond/internal/collector"
	"codeberg.org/havenmon/sysmond/internal/config"
	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/mqtt"
	"codeberg.org/havenmon/sysmond/internal/pid"
	"codeberg.org/havenmon/sysmond/internal/web"
)

const shutdownTimeout = 5 * time.Second

var (
	cfg       *config.Config
	registry  *collector.Registry
	engine    *alert.Engine
	publisher *mqtt.Publisher
	journal   *alert.Journal
	store     *web.Store
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	applyLogLevel()
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	registry = collector.NewRegistry(cfg)
	if registry.Count() == 0 {
		logger.Fatal().Msg("no collectors available")
	}

	engine = alert.NewEngine(
		alert.NewPolicy(cfg),
		buildSink(),
		cfg.EnableAlerts,
		time.Duration(cfg.AlertCooldown)*time.Second,
	)

	if !cfg.Monitor {
		publisher = mqtt.NewPublisher(cfg)
		if err := publisher.Connect(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to MQTT broker")
		}
		if err := publisher.PublishDiscovery(registry.Descriptors()); err != nil {
			logger.Fatal().Err(err).Msg("failed to publish discovery configuration")
		}
	} else {
		logger.Info().Msg("Monitor mode activated. Logging metrics without publishing...")
	}

	var server *web.Server
	store = web.NewStore()
	if cfg.Web.Enabled {
		server = web.NewServer(cfg, store, engine)
		server.Start()
	}

	if err := loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	cleanup(server)
}

// buildSink assembles the alert fan-out: MQTT notifications are wired
// in by the publisher later only when publishing is active, so the
// engine always notifies the journal and log regardless of mode.
func buildSink() alert.Sink {
	var sinks alert.MultiSink

	if cfg.Journal.Enabled {
		j, err := alert.NewJournal(cfg.Journal.Database)
		if err != nil {
			logger.Error().Err(err).Msg("failed to open alert journal, continuing without")
		} else {
			journal = j
			sinks = append(sinks, j)
		}
	}

	return &deferredSink{sinks: &sinks}
}

// deferredSink lets the MQTT publisher join the fan-out after the
// engine has been constructed.
type deferredSink struct {
	sinks *alert.MultiSink
}

func (d *deferredSink) Notify(event alert.Event) {
	if publisher != nil {
		publisher.Notify(event)
	}
	d.sinks.Notify(event)
}

func loop(ctx context.Context) error {
	interval := time.Duration(cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run one collection immediately so entities get values without
	// waiting a full interval.
	tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			tick(ctx)
		}
	}
}

func tick(ctx context.Context) {
	started := time.Now()
	batch := registry.CollectAll(ctx)
	store.Update(batch)
	engine.Evaluate(batch)

	if publisher != nil {
		publisher.PublishStates(batch)
	}

	logger.Debug().
		Int("samples", len(batch)).
		Dur("elapsed", time.Since(started)).
		Msg("Tick complete")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup(server *web.Server) {
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to stop dashboard server")
		}
	}
	if publisher != nil {
		publisher.Disconnect()
	}
	if journal != nil {
		if err := journal.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close alert journal")
		}
	}
	logger.Info().Msg("Exiting...")
}

func applyLogLevel() {
	if cfg.Debug || cfg.Verbose {
		return
	}
	switch config.LogLevel(cfg.LogLevel) {
	case config.LogLevelDebug:
		logger.SetLogLevel(logger.DebugLevel)
	case config.LogLevelInfo:
		logger.SetLogLevel(logger.InfoLevel)
	case config.LogLevelWarning:
		logger.SetLogLevel(logger.WarnLevel)
	case config.LogLevelError:
		logger.SetLogLevel(logger.ErrorLevel)
	}
}
