package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/memberbooth/internal/config"
	"github.com/existflow/memberbooth/internal/kiosk"
	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/metrics"
	"github.com/existflow/memberbooth/internal/status"
	"github.com/existflow/memberbooth/internal/tui"
)

// Version is set at build time.
var Version = "dev"

var (
	logLevel   string
	logFile    string
	logConsole bool

	loginMethod string
	keyReader   string
	development bool
	noPrinter   bool
	noBackend   bool
	noSlack     bool
)

// cfg is the configuration every command runs with, ready once
// PersistentPreRunE has returned.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "memberbooth",
	Short: "Memberbooth - makerspace label printing kiosk",
	Long: `Memberbooth is the label printing kiosk of the makerspace. Members log in
with their key tag or member number and print storage box, temporary storage
and name tag labels.

Run 'memberbooth' without arguments to start the kiosk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			loaded = config.DefaultConfig()
		}
		cfg = loaded

		// Logging and hardware flags are saved for the next run
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("login") {
			cfg.LoginMethod = loginMethod
			configChanged = true
		}
		if cmd.Flags().Changed("key-reader") {
			cfg.KeyReader = keyReader
			configChanged = true
		}

		// Mode flags only apply to this run
		if cmd.Flags().Changed("development") {
			cfg.Development = development
		}
		if cmd.Flags().Changed("no-printer") {
			cfg.NoPrinter = noPrinter
		}
		if cmd.Flags().Changed("no-backend") {
			cfg.NoBackend = noBackend
		}
		if cmd.Flags().Changed("no-slack") {
			cfg.NoSlack = noSlack
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("Memberbooth started",
			logger.F("command", cmd.Name()),
			logger.F("version", Version),
			logger.F("development", cfg.Development))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return runKiosk(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("Memberbooth exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	// Add booth flags
	rootCmd.PersistentFlags().StringVar(&loginMethod, "login", "", "Login method (tag, pin)")
	rootCmd.PersistentFlags().StringVar(&keyReader, "key-reader", "", "Key reader (em4100, keyboard)")
	rootCmd.PersistentFlags().BoolVar(&development, "development", false, "Development mode: fake data allowed, no alert pings")
	rootCmd.PersistentFlags().BoolVar(&noPrinter, "no-printer", false, "Save labels as PNG files instead of printing")
	rootCmd.PersistentFlags().BoolVar(&noBackend, "no-backend", false, "Use the local development member store")
	rootCmd.PersistentFlags().BoolVar(&noSlack, "no-slack", false, "Log notifications instead of posting to Slack")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(devserverCmd)
}

func runKiosk(ctx context.Context) error {
	b, err := openBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	factory, err := newFactory()
	if err != nil {
		return err
	}

	m := metrics.New()
	shell := tui.NewShell()
	app := kiosk.New(kiosk.Deps{
		Directory:  b.directory,
		Notifier:   b.notifier,
		Printer:    newPrinter(),
		KeyReaders: keyReaders(),
		Shell:      shell,
		Config:     cfg,
		Metrics:    m,
		Labels:     factory,
	})

	srv := status.Start(cfg.StatusAddress, status.NewRouter(m.Registry(), app.StateName, Version))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("Failed to stop status server", logger.Err(err))
		}
	}()

	b.notifier.Info("Memberbooth started")
	return tui.Run(app, shell)
}
