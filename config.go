package neoclient

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gopkg.in/yaml.v3"
)

// Config describes how to reach the database.
type Config struct {
	// URI is the connection URI, e.g. "neo4j://localhost:7687". The scheme
	// selects routing (neo4j://) or direct (bolt://) connections and the +s
	// and +ssc suffixes select TLS.
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Database is used by callers that do not select one per statement.
	// Empty selects the server's default database.
	Database string `yaml:"database"`

	// MaxConnectionPoolSize of zero or less keeps the driver default.
	MaxConnectionPoolSize   int           `yaml:"max_connection_pool_size"`
	ConnectionTimeout       time.Duration `yaml:"connection_timeout"`
	MaxTransactionRetryTime time.Duration `yaml:"max_transaction_retry_time"`

	// ConnectRetries is the number of connectivity checks Connect makes
	// before giving up.
	ConnectRetries int `yaml:"connect_retries"`

	// DriverLogging routes the driver's own log output to the logger passed
	// to Connect.
	DriverLogging bool `yaml:"driver_logging"`
}

// DefaultConfig returns a Config for a local server.
func DefaultConfig() Config {
	return Config{
		URI:                     "neo4j://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
		ConnectRetries:          5,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.URI == "" {
		return newError(KindConfiguration, "config", fmt.Errorf("uri cannot be empty"))
	}
	if c.Username == "" {
		return newError(KindConfiguration, "config", fmt.Errorf("username cannot be empty"))
	}
	if c.ConnectionTimeout <= 0 {
		return newError(KindConfiguration, "config", fmt.Errorf("connection_timeout must be positive"))
	}
	if c.MaxTransactionRetryTime <= 0 {
		return newError(KindConfiguration, "config", fmt.Errorf("max_transaction_retry_time must be positive"))
	}
	if c.ConnectRetries <= 0 {
		return newError(KindConfiguration, "config", fmt.Errorf("connect_retries must be positive"))
	}
	return nil
}

// Server returns the configured server address.
func (c Config) Server() RemoteServer {
	return NewRemoteServer(c.URI)
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides connection settings from NEO4J_URI, NEO4J_USERNAME,
// NEO4J_PASSWORD and NEO4J_DATABASE when they are set.
func (c *Config) ApplyEnv() {
	for env, dst := range map[string]*string{
		"NEO4J_URI":      &c.URI,
		"NEO4J_USERNAME": &c.Username,
		"NEO4J_PASSWORD": &c.Password,
		"NEO4J_DATABASE": &c.Database,
	} {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}
}

// Connect creates a driver for cfg and verifies connectivity, retrying with
// exponential backoff.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (neo4j.DriverWithContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	configure := func(config *neo4j.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			config.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		config.ConnectionAcquisitionTimeout = cfg.ConnectionTimeout
		config.MaxTransactionRetryTime = cfg.MaxTransactionRetryTime
		if cfg.DriverLogging {
			config.Log = &driverLogger{logger: logger.With("component", "neo4j")}
		}
	}

	var driver neo4j.DriverWithContext
	err := retry(ctx, cfg.ConnectRetries, 100*time.Millisecond, cfg.ConnectionTimeout, func(attempt int) error {
		d, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), configure)
		if err != nil {
			return newError(KindConfiguration, "connect", err)
		}
		if err := d.VerifyConnectivity(ctx); err != nil {
			if cerr := d.Close(context.WithoutCancel(ctx)); cerr != nil {
				logger.Warn("failed to close driver", "error", cerr)
			}
			logger.Warn("connectivity check failed", "attempt", attempt, "error", err)
			return err
		}
		driver = d
		return nil
	})
	if err != nil {
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, newError(KindResourceFailure, "connect", err)
	}
	logger.Info("connected", "server", cfg.Server().Redacted())
	return driver, nil
}

// retry calls try until it succeeds, up to attempts times, sleeping between
// failed attempts. The delay doubles after every sleep up to maxDelay. A
// *DataAccessError from try is returned right away.
func retry(ctx context.Context, attempts int, delay, maxDelay time.Duration, try func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = try(attempt)
		if lastErr == nil {
			return nil
		}
		if KindOf(lastErr) != "" {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, maxDelay)
	}
	return fmt.Errorf("failed to connect after %d attempts: %w", attempts, lastErr)
}
