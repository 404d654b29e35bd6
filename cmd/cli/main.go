package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/emmett/voxkeep/internal/app"
	"github.com/emmett/voxkeep/internal/audio"
	"github.com/emmett/voxkeep/internal/config"
	"github.com/emmett/voxkeep/internal/input"
	"github.com/emmett/voxkeep/internal/logging"
	"github.com/emmett/voxkeep/internal/output"
	"github.com/emmett/voxkeep/internal/session"
	"github.com/emmett/voxkeep/internal/upload"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file (default: ~/.voxkeeprc or /etc/voxkeep/config.yaml)")
	audioDevice  = flag.String("device", "", "Audio input device name (use -list-devices to see available devices)")
	listDevices  = flag.Bool("list-devices", false, "List all available audio input devices")
	language     = flag.String("language", "", "Language spoken in the recording (required for upload)")
	dialect      = flag.String("dialect", "", "Regional dialect, if any")
	target       = flag.String("target", "", "Language to translate into (default: English)")
	consent      = flag.Bool("consent", false, "Confirm the speaker agrees to the recording being preserved and shared")
	duration     = flag.Int("duration", 0, "Record a single take of N seconds (1-30) and exit")
	hotkeyStr    = flag.String("hotkey", "", "Toggle recording with a global hotkey, e.g. ctrl+shift+r (empty uses input.hotkey from the config)")
	saveDir      = flag.String("save", "", "Directory to save each take as a WAV file")
	noUpload     = flag.Bool("no-upload", false, "Do not upload takes")
	outputFormat = flag.String("format", "", "Output format: text, json")
	apiURL       = flag.String("api", "", "Preservation backend base URL")
	showVersion  = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Voxkeep CLI v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	if *listDevices {
		if err := app.NewDeviceManager().ListDevices(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	_ = godotenv.Load()

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Voxkeep CLI v%s (commit: %s, branch: %s, built: %s)\n",
		Version, GitCommit, GitBranch, BuildTime)
	fmt.Println("Language Preservation Recorder")
	fmt.Println()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags lets explicitly set flags override the config file
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Audio.Device = *audioDevice
		case "language":
			cfg.Contribution.Language = *language
		case "dialect":
			cfg.Contribution.Dialect = *dialect
		case "target":
			cfg.Contribution.TargetLanguage = *target
		case "hotkey":
			cfg.Input.Enabled = true
			if *hotkeyStr != "" {
				cfg.Input.Hotkey = *hotkeyStr
			}
		case "save":
			cfg.Output.SaveDir = *saveDir
		case "format":
			cfg.Output.Format = *outputFormat
		case "api":
			cfg.API.BaseURL = *apiURL
		}
	})
}

func run(cfg *config.Config) error {
	if *duration < 0 || *duration > session.MaxSeconds {
		return fmt.Errorf("-duration must be between 1 and %d", session.MaxSeconds)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	device, err := app.NewDeviceManager().SelectDevice(cfg.Audio.Device)
	if err != nil {
		return err
	}
	fmt.Printf("Using device: %s\n", device.Name)

	source := audio.NewSource(audio.CaptureConfig{
		SampleRate:  cfg.Audio.SampleRate,
		ChunkFrames: cfg.Audio.ChunkFrames,
		DeviceID:    device.ID,
	})

	uploader := upload.NewClient(upload.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	}, logger)

	formatter, err := output.NewFormatter(cfg.Output.Format, os.Stdout)
	if err != nil {
		return err
	}
	defer formatter.Close()

	maxSeconds := cfg.Recording.MaxSeconds
	if *duration > 0 {
		maxSeconds = *duration
	}

	recorder := app.NewRecorder(app.RecorderConfig{
		Metadata: upload.Metadata{
			Language:       cfg.Contribution.Language,
			Dialect:        cfg.Contribution.Dialect,
			TargetLanguage: cfg.Contribution.TargetLanguage,
			Consent:        *consent,
		},
		MaxSeconds:       maxSeconds,
		SilenceThreshold: cfg.Recording.SilenceThreshold,
		SaveDir:          cfg.Output.SaveDir,
		NoUpload:         *noUpload,
	}, source, uploader, output.DefaultConsoleOutput(), formatter, logger)

	if !*noUpload && !*consent {
		fmt.Fprintln(os.Stderr, "Warning: uploads need -consent; takes will be refused by the uploader.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *duration > 0 {
		fmt.Printf("Recording for %ds. Press Ctrl+C to stop early.\n", maxSeconds)
		_, err := recorder.RecordOnce(ctx)
		return err
	}

	presses, cleanup, err := pressSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return recorder.Run(ctx, presses)
}

// pressSource returns the start/stop trigger: the global hotkey when
// input.enabled is set (or -hotkey was given), otherwise Enter on stdin
func pressSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (<-chan struct{}, func(), error) {
	if !cfg.Input.Enabled {
		fmt.Println("Press Enter to start or stop a take. Ctrl+D or Ctrl+C to quit.")
		return app.LinePresses(os.Stdin), func() {}, nil
	}

	presses := make(chan struct{}, 1)
	hk := input.NewHotkeyManager(func() {
		select {
		case presses <- struct{}{}:
		default:
			logger.Debug("hotkey press dropped while busy")
		}
	})
	if err := hk.Start(ctx, cfg.Input.Hotkey); err != nil {
		return nil, nil, err
	}
	fmt.Printf("Press %s to start or stop a take. Ctrl+C to quit.\n", cfg.Input.Hotkey)
	return presses, hk.Stop, nil
}
