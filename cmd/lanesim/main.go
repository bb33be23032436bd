package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/peterkuimelis/lanesim/internal/config"
	"github.com/peterkuimelis/lanesim/internal/game"
	lanenet "github.com/peterkuimelis/lanesim/internal/net"
	"github.com/peterkuimelis/lanesim/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	cmd := os.Args[1]
	switch cmd {
	case "simulate":
		err = runSimulate(os.Args[2:])
	case "calibrate":
		err = runCalibrate(os.Args[2:])
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "generate":
		err = runGenerate(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "submit":
		err = runSubmit(os.Args[2:])
	case "runs":
		err = runRuns(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  lanesim simulate  --deck NAME [--opponent NAME] [--seed N] [--trace] [--json] [--store]")
	fmt.Println("  lanesim calibrate --deck NAME --opponent NAME [--seed N]")
	fmt.Println("  lanesim analyze   [--min-level N] [--max-level N] [--games N] [--workers N]")
	fmt.Println("  lanesim generate  [--level N] [--seed N] [--name NAME]")
	fmt.Println("  lanesim serve     [--addr ADDR]")
	fmt.Println("  lanesim submit    --deck NAME [--opponent NAME] [--addr ADDR] [--trace]")
	fmt.Println("  lanesim runs      [--limit N] [--id ID]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  simulate   Search every branch of a deck against an opponent script")
	fmt.Println("  calibrate  Grade an opponent script as Easy, Medium or Hard")
	fmt.Println("  analyze    Simulate generated opponents over a range of levels")
	fmt.Println("  generate   Print a generated opponent script as YAML")
	fmt.Println("  serve      Start the TCP simulation service")
	fmt.Println("  submit     Send a simulation request to a running service")
	fmt.Println("  runs       List stored runs or show one run's card stats")
	fmt.Println()
	fmt.Println("Every command accepts --config FILE (default lanesim.toml) and")
	fmt.Println("--library FILE (default library.yaml).")
}

// common holds the flags shared by every subcommand.
type common struct {
	configPath  string
	libraryPath string
}

func addCommon(fs *flag.FlagSet) *common {
	c := &common{}
	fs.StringVar(&c.configPath, "config", "lanesim.toml", "path to TOML config file")
	fs.StringVar(&c.libraryPath, "library", "library.yaml", "path to card library YAML")
	return c
}

// env is the loaded process state a subcommand works with.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	lib    *game.Library
	store  *storage.DB
}

// load reads config and library and builds the logger. The run store is
// opened only when withStore is set.
func (c *common) load(withStore bool) (*env, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	lib, err := game.LoadLibrary(c.libraryPath)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("load library: %w", err)
	}

	e := &env{cfg: cfg, logger: logger, lib: lib}
	if withStore {
		dbCfg := storage.DefaultConfig(cfg.Storage.Path)
		dbCfg.AutoMigrate = cfg.Storage.AutoMigrate
		e.store, err = storage.Open(dbCfg)
		if err != nil {
			logger.Sync()
			return nil, err
		}
		logger.Debug("run store opened", zap.String("path", cfg.Storage.Path))
	}
	return e, nil
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
	e.logger.Sync()
}

func (e *env) runner() *lanenet.Runner {
	return &lanenet.Runner{
		Library:  e.lib,
		Config:   e.cfg.Simulator.Options(),
		HandSize: e.cfg.Simulator.StartingHandSize,
		Store:    e.store,
		Logger:   e.logger,
	}
}

// overrides registers the per-request simulator flags. Only flags the user
// actually set are copied into the request.
type overrides struct {
	fs        *flag.FlagSet
	maxTurns  int
	maxBranch int
	breaker   int
	iterCap   int
	dedupe    bool
}

func addOverrides(fs *flag.FlagSet) *overrides {
	o := &overrides{fs: fs}
	fs.IntVar(&o.maxTurns, "max-turns", 0, "turn limit per branch")
	fs.IntVar(&o.maxBranch, "max-branch", 0, "actions expanded per player turn")
	fs.IntVar(&o.breaker, "circuit-breaker", 0, "queue length that cuts branching to 1 (0 disables)")
	fs.IntVar(&o.iterCap, "iteration-cap", 0, "maximum states dequeued (0 disables)")
	fs.BoolVar(&o.dedupe, "dedupe", true, "prune duplicate states")
	return o
}

func (o *overrides) apply(req *lanenet.RequestView) {
	o.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-turns":
			req.MaxTurns = &o.maxTurns
		case "max-branch":
			req.MaxBranch = &o.maxBranch
		case "circuit-breaker":
			req.CircuitBreaker = &o.breaker
		case "iteration-cap":
			req.IterationCap = &o.iterCap
		case "dedupe":
			req.CheckDuplicates = &o.dedupe
		}
	})
}
