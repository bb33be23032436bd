package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterkuimelis/lanesim/internal/config"
	"github.com/peterkuimelis/lanesim/internal/game"
	lanenet "github.com/peterkuimelis/lanesim/internal/net"
	"github.com/peterkuimelis/lanesim/internal/storage"
	"github.com/peterkuimelis/lanesim/internal/web"
)

func main() {
	configPath := flag.String("config", "lanesim.toml", "path to TOML config file")
	libraryPath := flag.String("library", "library.yaml", "path to card library YAML")
	port := flag.Int("port", 0, "HTTP port to listen on (0 uses the config)")
	noStore := flag.Bool("no-store", false, "do not persist runs")
	flag.Parse()

	if err := run(*configPath, *libraryPath, *port, !*noStore); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, libraryPath string, port int, withStore bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	lib, err := game.LoadLibrary(libraryPath)
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	every, err := cfg.GetRateLimit()
	if err != nil {
		return err
	}

	runner := &lanenet.Runner{
		Library:  lib,
		Config:   cfg.Simulator.Options(),
		HandSize: cfg.Simulator.StartingHandSize,
		Limits:   cfg.Server.Limits(),
		Logger:   logger,
	}
	if withStore {
		dbCfg := storage.DefaultConfig(cfg.Storage.Path)
		dbCfg.AutoMigrate = cfg.Storage.AutoMigrate
		db, err := storage.Open(dbCfg)
		if err != nil {
			return err
		}
		defer db.Close()
		runner.Store = db
	}

	if port == 0 {
		port = cfg.Server.Port
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(runner, every, cfg.Server.Burst, logger)
	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
}
