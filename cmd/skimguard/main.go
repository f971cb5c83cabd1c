package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skimguard/internal/api"
	"skimguard/internal/config"
	"skimguard/internal/detections"
	"skimguard/internal/geoloc"
	"skimguard/internal/ingest"
	"skimguard/internal/logging"
	"skimguard/internal/pipeline"
	"skimguard/internal/reasoning"
	"skimguard/internal/recon"
	"skimguard/internal/reports"
	"skimguard/internal/storage"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "skimguard.yaml", "path to config file (yaml or json)")
	flag.Parse()

	path := config.ResolvePath(*configPath)
	mgr, err := config.NewManager(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg := mgr.Get()
	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("skimguard starting", "version", version, "config", path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	archive, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Error("storage init failed", "err", err)
		os.Exit(1)
	}
	if archive != nil {
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		err := archive.Init(initCtx)
		initCancel()
		if err != nil {
			logger.Error("storage schema init failed", "err", err)
			os.Exit(1)
		}
		defer archive.Close()
		logger.Info("storage enabled", "driver", cfg.Storage.Driver)
	}

	detectionStore := detections.NewStore()
	reportStore := reports.NewStore()
	latest := geoloc.NewLatest()

	assessor := reasoning.NewClient(cfg.Reasoning)
	engine := recon.NewEngine(assessor, detectionStore, archive, logging.Component(logger, "recon"))
	selector := geoloc.NewSelector(cfg.Geolocation, logging.Component(logger, "geoloc"))
	pipe := pipeline.New(engine, selector, latest, logging.Component(logger, "pipeline"))

	ingest.StartKafka(ctx, mgr, pipe, logging.Component(logger, "ingest"))
	api.Start(ctx, mgr, pipe, detectionStore, reportStore, latest, archive, logging.Component(logger, "api"), version)

	stop := make(chan struct{})
	go mgr.Watch(3*time.Second,
		func(next *config.Config) {
			logger.Info("config reloaded", "path", mgr.Path())
		},
		func(err error) {
			logger.Warn("config watch error", "err", err)
		},
		stop)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
	close(stop)
	cancel()
	time.Sleep(200 * time.Millisecond)
}
