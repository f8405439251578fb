package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/dicetrack/config"
	"github.com/alejandrodnm/dicetrack/internal/adapters/httpapi"
	"github.com/alejandrodnm/dicetrack/internal/adapters/notify"
	"github.com/alejandrodnm/dicetrack/internal/adapters/storage"
	"github.com/alejandrodnm/dicetrack/internal/analytics"
	"github.com/alejandrodnm/dicetrack/internal/domain"
	"github.com/alejandrodnm/dicetrack/internal/tracker"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	serve := flag.Bool("serve", false, "start the HTTP API")
	report := flag.String("report", "", "print reports for a game ID, or 'lifetime'")
	coarse := flag.Bool("coarse", false, "use low/mid/high bins for the independence test")
	simulate := flag.Int("simulate", 0, "create a demo game with N synthetic rolls and report it")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("dicetrack starting",
		"config", *configPath,
		"die_set", cfg.Tracker.DieSetLabel,
		"serve", *serve,
		"report", *report,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	reporter := notify.NewConsole(cfg.Analysis.Alpha)

	trackCfg := tracker.Config{
		DieSet:        dieSetFromConfig(cfg.Tracker),
		CoarseLowMax:  cfg.Tracker.CoarseLowMax,
		CoarseHighMin: cfg.Tracker.CoarseHighMin,
		Analysis: analytics.Config{
			MinExpected: cfg.Analysis.MinExpected,
			Method:      domain.PValueMethod(cfg.Analysis.PValueMethod),
		},
	}

	t, err := tracker.New(trackCfg, store, reporter)
	if err != nil {
		slog.Error("invalid die set configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *simulate > 0:
		if err := runSimulation(ctx, t, store, *simulate, *coarse); err != nil {
			slog.Error("simulation failed", "err", err)
			os.Exit(1)
		}
	case *report == "lifetime":
		if err := t.LifetimeReport(ctx, *coarse); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
	case *report != "":
		if err := t.Report(ctx, *report, *coarse); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
	case *serve:
		srv := httpapi.NewServer(cfg.Server.Addr, t, store, cfg.Server.RateLimit, cfg.Server.RateBurst)
		if err := srv.Run(ctx); err != nil {
			slog.Error("server exited with error", "err", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	slog.Info("dicetrack stopped cleanly")
}

// dieSetFromConfig construye el DieSet declarado en el YAML.
func dieSetFromConfig(cfg config.TrackerConfig) domain.DieSet {
	dice := make([]domain.Die, len(cfg.Dice))
	for i, faces := range cfg.Dice {
		dice[i] = domain.Die{Faces: faces}
	}
	return domain.DieSet{Label: cfg.DieSetLabel, Dice: dice}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
