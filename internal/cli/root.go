// Package cli defines Cobra command definitions for the policydesk CLI.
// This file contains the root command, global flags and the shared setup
// every command builds from the configuration.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/config"
	"github.com/policydesk/policydesk/internal/log"
	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/session"
	"github.com/policydesk/policydesk/internal/tui"
	"github.com/policydesk/policydesk/internal/tui/app"
)

var (
	configDir string
	mockFlag  bool
	logLevel  string
	version   = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "policydesk",
	Short: "Conversational HR policy wizard",
	Long: `PolicyDesk walks you through creating an HR policy: an interview
gathers the requirements, the drafting agents produce a draft with a
compliance check, and the approved draft is finalized for distribution.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Project directory holding .policydesk/ (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&mockFlag, "mock", false, "Answer every agent call with the offline mock agents")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(complianceCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(cleanCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Without a terminal there is nothing to draw; point at the other commands.
	if !tui.IsTTY() {
		return tui.NewFallbackRunner(cmd.OutOrStdout()).Run()
	}

	dir, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so diagnostics go to a file.
	logFile, err := log.OpenDiagnosticFile(dir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger, err := log.NewDiagnostic(cfg.Log.Level, cfg.Log.Format, logFile)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := log.NewLogger(dir)
	if err != nil {
		logger.Warn().Err(err).Msg("event log disabled")
		events = nil
	}

	logger.Info().
		Str("mode", cfg.Agent.Mode).
		Bool("mock", cfg.UseMock()).
		Str("store", cfg.Store.Path).
		Msg("starting policydesk")

	return tui.Run(app.New(app.Deps{
		Cfg:     cfg,
		Dir:     dir,
		Service: newService(cfg, logger),
		Store:   store,
		Events:  events,
		Logger:  logger,
	}))
}

// loadConfig resolves the project directory and loads its configuration
// with the global flags applied on top.
func loadConfig() (string, *config.Config, error) {
	dir := configDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil, fmt.Errorf("getting current directory: %w", err)
		}
		dir = wd
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return "", nil, fmt.Errorf("loading config: %w", err)
	}
	if mockFlag {
		cfg.Agent.Mode = config.ModeMock
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return dir, cfg, nil
}

// newCaller picks the offline mock or the remote endpoint.
func newCaller(cfg *config.Config) agent.Caller {
	if cfg.UseMock() {
		return agent.NewMockClient(cfg.Agent.IDs, cfg.MockDelay())
	}
	return agent.NewHTTPClient(cfg.Agent.Endpoint, cfg.Timeout())
}

func newService(cfg *config.Config, logger zerolog.Logger) *agent.Service {
	return agent.NewService(newCaller(cfg), cfg.Agent.IDs, cfg.Agent.UserID, logger)
}

// openStore opens the session registry and seeds an empty one with the
// sample sessions.
func openStore(ctx context.Context, path string) (*session.Store, error) {
	if path == "" {
		path = session.MemoryPath
	}
	store, err := session.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := store.Seed(ctx, policy.SampleSessions()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seeding session store: %w", err)
	}
	return store, nil
}
