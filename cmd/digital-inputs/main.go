// Command digital-inputs monitors digital input lines and publishes their
// counts and states as retained MQTT services, persisting counts across
// restarts through retained settings topics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keller/digital-inputs/internal/bus"
	"github.com/keller/digital-inputs/internal/edge"
	"github.com/keller/digital-inputs/internal/input"
	"github.com/keller/digital-inputs/internal/metric"
	"github.com/keller/digital-inputs/internal/publish"
	"github.com/keller/digital-inputs/internal/settings"
	"github.com/keller/digital-inputs/internal/status"
	"github.com/keller/digital-inputs/internal/web"
)

func main() {
	serviceBase := flag.String("servicebase", "energy/inputs", "Topic namespace prefix for services and settings")
	debug := flag.Bool("debug", false, "Simulate edge events instead of reading real inputs")
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker address")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	saveInterval := flag.Duration("save-interval", 60*time.Second, "Count checkpoint interval")
	settle := flag.Duration("settle", 2*time.Second, "Wait for retained settings before seeding defaults")
	configPath := flag.String("config", "", "Optional YAML config file (flags override it)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: digital-inputs [flags] <device path>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := daemonConfig{
		Broker:       *broker,
		ServiceBase:  *serviceBase,
		HTTPAddr:     *httpAddr,
		SaveInterval: *saveInterval,
		Settle:       *settle,
		Debug:        *debug,
		Paths:        flag.Args(),
	}

	if *configPath != "" {
		fc, err := loadFileConfig(*configPath)
		if err != nil {
			slog.Error("load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = mergeConfig(cfg, fc, flagsSet())
	}

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// flagsSet reports which flags were given explicitly on the command line.
func flagsSet() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// newSource picks the edge source for the configured device paths. All
// paths must use the same addressing style; --debug overrides both real
// implementations.
func newSource(paths []string, debug bool) (edge.Source, error) {
	if debug {
		return edge.NewSimSource(), nil
	}
	chardev := 0
	for _, p := range paths {
		if edge.IsChardevPath(p) {
			chardev++
		}
	}
	switch chardev {
	case 0:
		return edge.NewSysfsSource()
	case len(paths):
		return edge.NewChardevSource(), nil
	default:
		return nil, errors.New("cannot mix gpiochip:offset and sysfs device paths")
	}
}

func run(cfg daemonConfig) error {
	src, err := newSource(cfg.Paths, cfg.Debug)
	if err != nil {
		return fmt.Errorf("init edge source: %w", err)
	}
	defer src.Close()

	client, err := bus.Connect(cfg.Broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}

	publisher := publish.NewMQTTPublisher(client, cfg.ServiceBase)
	defer publisher.Close()

	store, err := settings.NewMQTTBridge(client, cfg.ServiceBase, len(cfg.Paths), cfg.Settle)
	if err != nil {
		return fmt.Errorf("init settings: %w", err)
	}
	defer store.Close()

	metrics := metric.New()
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	paths := make(map[int]string, len(cfg.Paths))
	for i, p := range cfg.Paths {
		paths[i+1] = p
	}

	mgr := input.NewManager(src, publisher, store, paths, metrics)
	if err := mgr.Start(); err != nil {
		return err
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:       cfg.Broker,
		ServiceBase:  cfg.ServiceBase,
		HTTPAddr:     cfg.HTTPAddr,
		SaveInterval: cfg.SaveInterval,
		Debug:        cfg.Debug,
		Paths:        cfg.Paths,
	})

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, registry)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("http server", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		slog.Info("http status server listening", "addr", cfg.HTTPAddr)
	}

	slog.Info("started",
		"paths", cfg.Paths,
		"broker", cfg.Broker,
		"servicebase", cfg.ServiceBase,
		"save_interval", cfg.SaveInterval,
		"debug", cfg.Debug)

	// The poll worker has no cancellation path: on shutdown it is simply
	// abandoned, its source closed by the deferred Close above.
	fatal := make(chan error, 1)
	go func() {
		fatal <- mgr.Run()
	}()

	saveTicker := time.NewTicker(cfg.SaveInterval)
	defer saveTicker.Stop()
	refreshTicker := time.NewTicker(time.Second)
	defer refreshTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(mgr, tracker, metrics, publisher, store.Changes(), saveTicker.C, refreshTicker.C, sigCh, fatal)
}

// connStatus reports whether the bus connection is up.
type connStatus interface {
	IsConnected() bool
}

// runLoop is the cooperative main loop: it applies settings changes,
// checkpoints counts, refreshes the status tracker and handles shutdown.
// Counts are flushed once more on any exit path.
func runLoop(mgr *input.Manager, tracker *status.Tracker, metrics *metric.Metrics, conn connStatus, changes <-chan input.Change, saveTick, refreshTick <-chan time.Time, sig <-chan os.Signal, fatal <-chan error) error {
	refresh := func() {
		if tracker == nil {
			return
		}
		tracker.SetLines(mgr.Snapshot())
		if conn != nil {
			tracker.SetMQTTConnected(conn.IsConnected())
		}
	}
	refresh()

	for {
		select {
		case s := <-sig:
			slog.Info("received signal, shutting down", "signal", s.String())
			mgr.SaveCounts()
			return nil

		case err := <-fatal:
			mgr.SaveCounts()
			return err

		case ch, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if err := mgr.Apply(ch); err != nil {
				mgr.SaveCounts()
				return fmt.Errorf("apply settings change: %w", err)
			}
			if metrics != nil {
				metrics.RecordSettingsChange(string(ch.Field))
			}
			refresh()

		case <-saveTick:
			mgr.SaveCounts()

		case <-refreshTick:
			refresh()
		}
	}
}
