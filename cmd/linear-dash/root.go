package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roeyazroel/linear-dash/internal/config"
	"github.com/roeyazroel/linear-dash/internal/engine"
	"github.com/roeyazroel/linear-dash/internal/linearapi"
	"github.com/roeyazroel/linear-dash/internal/logger"
	"github.com/roeyazroel/linear-dash/internal/sched"
	"github.com/roeyazroel/linear-dash/internal/store"
	"github.com/roeyazroel/linear-dash/internal/tui"
)

// configFile holds the --config flag value, consulted before the default
// config path.
var configFile string

var rootCmd = &cobra.Command{
	Use:   "linear-dash",
	Short: "Read-only terminal dashboard for Linear",
	Long: `linear-dash browses the issues, projects and teams of a Linear workspace
from the terminal. Data refreshes in the background on a fixed interval;
nothing is ever written back to Linear.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd)
	},
}

// Execute runs the root command and its subcommands.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ~/.config/linear-dash/config.yaml)")
	rootCmd.PersistentFlags().String("apikey", "", "Linear API key (overrides environment and config file)")
	rootCmd.PersistentFlags().String("endpoint", "", "Linear GraphQL endpoint")
	rootCmd.PersistentFlags().String("refresh", "", "refresh interval as a Go duration or bare seconds (default 30s)")
	rootCmd.PersistentFlags().String("theme", "", "color theme, dark or light")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warning or error")
	rootCmd.PersistentFlags().String("log-file", "", "log file path (logging is disabled when empty)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.Version = VersionInfo()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// loadConfig resolves configuration for a command, binding its flags so
// explicitly set ones win over the environment and the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		ConfigFile: configFile,
		Flags:      cmd.Flags(),
	})
}

// initLogger starts the file logger and reports configuration warnings
// that were collected before logging was available.
func initLogger(cfg *config.Config) error {
	if err := logger.Init(cfg.LogFile, parseLogLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	for _, w := range cfg.Warnings {
		logger.Warning("config: %s", w)
	}
	return nil
}

func runDashboard(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := initLogger(cfg); err != nil {
		return err
	}
	defer logger.Close()

	logger.Info("Application starting version=%s", Version)
	logger.Debug("Configuration: endpoint=%s refresh=%s pageSize=%d theme=%s",
		cfg.APIEndpoint, cfg.RefreshInterval, cfg.PageSize, cfg.Theme)

	apiClient := linearapi.NewClient(linearapi.ClientConfig{
		Token:    cfg.LinearAPIKey,
		Endpoint: cfg.APIEndpoint,
		Timeout:  cfg.Timeout,
		PageSize: cfg.PageSize,
	})

	// Verify the credential before taking over the terminal, so a bad key
	// surfaces as a plain error instead of a broken screen.
	user, err := apiClient.GetCurrentUser(cmd.Context())
	if err != nil {
		logger.ErrorWithErr(err, "Authentication check failed")
		return fmt.Errorf("authenticating with Linear: %w", err)
	}
	logger.Info("Authenticated user=%s", user.DisplayName)

	stores := store.NewStores(cfg.RefreshInterval)
	scheduler := sched.New(cfg.BackoffBase, cfg.BackoffCap)
	eng := engine.New(engine.Config{
		RefreshInterval: cfg.RefreshInterval,
		DefaultTeamID:   cfg.DefaultTeamID,
	}, apiClient, stores, scheduler)

	app := tui.NewApp(eng, *cfg)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The engine owns all state; the UI only submits events and draws
	// snapshots. When the loop exits, for a quit or a fatal error, the UI
	// is stopped with it.
	engineErr := make(chan error, 1)
	go func() {
		engineErr <- eng.Run(ctx)
		app.Stop()
	}()

	if err := app.Run(); err != nil {
		cancel()
		<-engineErr
		logger.ErrorWithErr(err, "Application error")
		return err
	}

	cancel()
	if err := <-engineErr; err != nil {
		logger.ErrorWithErr(err, "Event loop error")
		return err
	}

	logger.Info("Application shutdown")
	return nil
}

// parseLogLevel converts a string log level to a logger.LogLevel.
func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warning":
		return logger.LevelWarning
	case "error":
		return logger.LevelError
	default:
		return logger.LevelWarning
	}
}
