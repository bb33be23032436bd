package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/lanesim/internal/config"
	"github.com/peterkuimelis/lanesim/internal/game"
	lanesimmcp "github.com/peterkuimelis/lanesim/internal/mcp"
	lanenet "github.com/peterkuimelis/lanesim/internal/net"
	"github.com/peterkuimelis/lanesim/internal/storage"
)

func main() {
	configPath := flag.String("config", "lanesim.toml", "path to TOML config file")
	libraryPath := flag.String("library", "library.yaml", "path to card library YAML")
	store := flag.Bool("store", false, "save runs and offer the list_runs tool")
	flag.Parse()

	if err := run(*configPath, *libraryPath, *store); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, libraryPath string, withStore bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// stdout carries the MCP stream; zap's configs log to stderr.
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	lib, err := game.LoadLibrary(libraryPath)
	if err != nil {
		return fmt.Errorf("load library: %w", err)
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

	tools := &lanesimmcp.Tools{Runner: runner, Thresholds: cfg.Analysis.Thresholds(), Logger: logger}
	return server.ServeStdio(lanesimmcp.NewServer(tools, "1.0.0"))
}
