package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/oklog/run"

	"github.com/pders01/feedhook/internal/api"
	"github.com/pders01/feedhook/internal/config"
	"github.com/pders01/feedhook/internal/dispatch"
	"github.com/pders01/feedhook/internal/feed"
	"github.com/pders01/feedhook/internal/pipeline"
	"github.com/pders01/feedhook/internal/storage"
	"github.com/pders01/feedhook/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

func main() {
	var (
		dbPath         = flag.String("db", "", "Path to database file (overrides config)")
		configPath     = flag.String("config", "", "Path to configuration file")
		generateConfig = flag.Bool("generate-config", false, "Generate default config file")
		once           = flag.Bool("once", false, "Run a single pass and exit")
		permissive     = flag.Bool("permissive-webhooks", false, "Accept localhost/private webhook URLs")
		version        = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("feedhook %s\n", Version)
		fmt.Println("keyword feed relay")
		return
	}

	if *generateConfig {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "feedhook", "config.toml")

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			log.Fatalf("Failed to generate config: %v", err)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	fetcher := feed.NewFetcher(cfg.Feed)
	dispatcher := dispatch.NewDispatcher(cfg.Dispatch)
	pipe := pipeline.New(store, store, fetcher, dispatcher, cfg.Dedupe, cfg.Feed.FetchDelay)

	if *once {
		pipe.RunOnePass(context.Background())
		return
	}

	validator := validation.NewWebhookURLValidator()
	if *permissive {
		validator = validation.NewPermissiveWebhookURLValidator()
	}

	scheduler := pipeline.NewScheduler(pipe, cfg.Pipeline.PassInterval)
	server := api.NewServer(cfg.API.Port, store, validator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	g.Add(func() error {
		return scheduler.Run(ctx)
	}, func(error) {
		cancel()
	})
	g.Add(func() error {
		slog.Info("api listening", "addr", server.Addr)
		return server.ListenAndServe()
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	if err := g.Run(); err != nil {
		var sigErr run.SignalError
		if errors.As(err, &sigErr) || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
			slog.Info("shut down", "reason", err)
			return
		}
		log.Fatalf("exited with error: %v", err)
	}
}
