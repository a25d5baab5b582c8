package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"

	"github.com/sauvikbiswas-andromeda/neoclient"
)

// GlobalFlags holds flags shared by every command.
type GlobalFlags struct {
	ConfigFile string
	EnvFile    string
	LogLevel   string
}

var globalFlags = &GlobalFlags{}

var rootCmd = &cobra.Command{
	Use:   "glatency",
	Short: "Run Cypher statements and measure Neo4j write latency",
	Long: `glatency runs Cypher statements through neoclient, one transaction per
statement, and benchmarks batched writes under varying contention.

Connection settings come from --config, then NEO4J_URI, NEO4J_USERNAME,
NEO4J_PASSWORD and NEO4J_DATABASE (optionally loaded from --env-file).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&globalFlags.EnvFile, "env-file", "", "Path to a .env file with NEO4J_* variables")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(benchCmd)
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func parseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "trace") {
		return neoclient.LevelTrace, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func newLogger(flags *GlobalFlags) (*slog.Logger, error) {
	level, err := parseLevel(flags.LogLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

func loadConfig(flags *GlobalFlags, logger *slog.Logger) (neoclient.Config, error) {
	if flags.EnvFile != "" {
		if err := godotenv.Load(flags.EnvFile); err != nil {
			return neoclient.Config{}, fmt.Errorf("failed to load env file: %w", err)
		}
		logger.Debug("loaded env file", "path", flags.EnvFile)
	}

	cfg := neoclient.DefaultConfig()
	if flags.ConfigFile != "" {
		var err error
		if cfg, err = neoclient.LoadConfig(flags.ConfigFile); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// session is what every command works with once connected.
type session struct {
	cfg    neoclient.Config
	logger *slog.Logger
	driver neo4j.DriverWithContext
	client *neoclient.Client
}

func connect(ctx context.Context) (*session, error) {
	logger, err := newLogger(globalFlags)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(globalFlags, logger)
	if err != nil {
		return nil, err
	}
	driver, err := neoclient.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	client := neoclient.New(neoclient.NewEngine(driver), neoclient.WithLogger(logger))
	return &session{cfg: cfg, logger: logger, driver: driver, client: client}, nil
}

func (s *session) Close(ctx context.Context) {
	if err := s.driver.Close(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("failed to close driver", "error", err)
	}
}
