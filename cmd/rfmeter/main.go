package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rfmeter/rfmeter/internal/config"
	"github.com/rfmeter/rfmeter/internal/fswatch"
	"github.com/rfmeter/rfmeter/internal/meter"
	"github.com/rfmeter/rfmeter/internal/textfile"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	channel := flag.String("channel", "", "channel id for one-shot conversion")
	volts := flag.Float64("volts", math.NaN(), "one-shot: convert this detector voltage and exit")
	watch := flag.Bool("watch", false, "keep running, reconverting when the input file changes")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	m, err := meter.New(cfg.Meter)
	if err != nil {
		slog.Error("failed to build meter", "err", err)
		os.Exit(1)
	}

	// One-shot mode: the conversion surfaced directly on the command line.
	if !math.IsNaN(*volts) {
		if *channel == "" {
			fmt.Fprintln(os.Stderr, "error: -volts requires -channel")
			os.Exit(2)
		}
		r, err := m.Convert(*channel, *volts, time.Now())
		if err != nil {
			slog.Error("conversion failed", "err", err)
			os.Exit(1)
		}
		fmt.Printf("channel %s: %.4g V → Vinpp %.4g V → %.4g W (%.2f dBm)\n",
			r.Channel, r.RawVolts, r.VinPP, r.Watts, r.Dbm)
		return
	}

	if cfg.Meter.Input.Path == "" || cfg.Meter.Output.Path == "" {
		slog.Error("file mode needs meter.input.path and meter.output.path in the config")
		os.Exit(1)
	}

	slog.Info("rfmeter starting",
		"config", *configPath,
		"input", cfg.Meter.Input.Path,
		"output", cfg.Meter.Output.Path,
		"channels", m.Channels(),
	)

	// Config swaps on hot-reload; guard against racing conversions.
	var mu sync.Mutex
	current := cfg

	convert := func() {
		mu.Lock()
		c := current
		mu.Unlock()
		n, err := textfile.ConvertFile(m, c.Meter, time.Now())
		if err != nil {
			slog.Warn("conversion pass failed", "err", err)
			return
		}
		slog.Debug("conversion pass complete", "readings", n)
	}

	convert()
	if !*watch {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hot-reload: re-apply channel calibration without restarting.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			if err := m.Apply(updated.Meter); err != nil {
				slog.Error("config reloaded but not applied", "err", err)
				return
			}
			mu.Lock()
			current = updated
			mu.Unlock()
			slog.Info("config hot-reloaded", "channels", m.Channels())
			convert()
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Input file watcher: reconvert as soon as the ADC exporter writes.
	// The watcher binds at startup; changing input.path needs a restart.
	go func() {
		if err := fswatch.Watch(ctx, cfg.Meter.Input.Path, convert); err != nil {
			slog.Error("input watcher stopped", "err", err)
		}
	}()

	// Periodic rescan as a safety net for missed fsnotify events.
	go func() {
		ticker := time.NewTicker(cfg.Meter.RescanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				convert()
			}
		}
	}()

	<-ctx.Done()
	slog.Info("rfmeter shutting down")
}
