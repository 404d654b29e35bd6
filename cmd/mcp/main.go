package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/emmett/voxkeep/internal/app"
	"github.com/emmett/voxkeep/internal/config"
	"github.com/emmett/voxkeep/internal/logging"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.voxkeeprc or /etc/voxkeep/config.yaml)")
	apiURL      = flag.String("api", "", "Preservation backend base URL")
	audioDevice = flag.String("device", "", "Audio input device name or ID")
	language    = flag.String("language", "", "Default language for submitted clips")
	dialect     = flag.String("dialect", "", "Default dialect for submitted clips")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Voxkeep MCP v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := app.NewMCPHandler(cfg, Version, GitCommit, logger)
	if err := handler.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api":
			cfg.API.BaseURL = *apiURL
		case "device":
			cfg.Audio.Device = *audioDevice
		case "language":
			cfg.Contribution.Language = *language
		case "dialect":
			cfg.Contribution.Dialect = *dialect
		}
	})

	return cfg, cfg.Validate()
}
