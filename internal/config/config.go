// ABOUTME: Configuration loading and parsing for the p2pclaw cleanup tooling
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath, when set, overrides the default config file location.
const EnvConfigPath = "P2PCLAW_CONFIG"

// Config is the complete configuration for the cleanup tooling.
type Config struct {
	Mesh      MeshConfig      `yaml:"mesh"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Republish RepublishConfig `yaml:"republish"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MeshConfig holds the websocket mesh connection settings.
type MeshConfig struct {
	// Peers are bootstrap endpoint URLs, in http(s) or ws(s) form.
	Peers []string `yaml:"peers"`

	HandshakeTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	HandshakeTimeoutRaw string `yaml:"handshake_timeout"`
}

// SweepConfig holds the match criteria and run window for sweeps.
type SweepConfig struct {
	Collection        string `yaml:"collection"`
	MempoolCollection string `yaml:"mempool_collection"`

	// TitlePrefix and Author are substring criteria; a paper matches when
	// either is contained in the corresponding field.
	TitlePrefix string `yaml:"title_prefix"`
	Author      string `yaml:"author"`

	Window time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	WindowRaw string `yaml:"window"`
}

// GatewayConfig holds the HTTP gateway client settings.
type GatewayConfig struct {
	BaseURL string `yaml:"base_url"`
	AgentID string `yaml:"agent_id"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// RepublishConfig holds the republish pipeline settings.
type RepublishConfig struct {
	Limit         int      `yaml:"limit"`
	MinContentLen int      `yaml:"min_content_len"`
	SkipIDs       []string `yaml:"skip_ids"`
	AuthorTag     string   `yaml:"author_tag"`

	Interval time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	IntervalRaw string `yaml:"interval"`
}

// LedgerConfig holds the run journal settings. An empty path disables
// the ledger.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Mesh: MeshConfig{
			HandshakeTimeout: 10 * time.Second,
		},
		Sweep: SweepConfig{
			Collection:        "papers",
			MempoolCollection: "mempool",
			Window:            30 * time.Second,
		},
		Gateway: GatewayConfig{
			Timeout: 15 * time.Second,
		},
		Republish: RepublishConfig{
			Limit:         20,
			MinContentLen: 200,
			Interval:      1500 * time.Millisecond,
		},
		Ledger: LedgerConfig{
			Path: defaultLedgerPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "color",
		},
	}
}

// DefaultPath returns the config file location: $P2PCLAW_CONFIG when set,
// else p2pclaw/p2pclaw.yaml under the XDG config directory.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		return filepath.Join(x, "p2pclaw", "p2pclaw.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "p2pclaw.yaml"
	}
	return filepath.Join(home, ".config", "p2pclaw", "p2pclaw.yaml")
}

func defaultLedgerPath() string {
	if x := os.Getenv("XDG_DATA_HOME"); x != "" {
		return filepath.Join(x, "p2pclaw", "ledger.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "ledger.db"
	}
	return filepath.Join(home, ".local", "share", "p2pclaw", "ledger.db")
}

// Load reads a configuration file from the given path and returns a parsed
// Config layered over the defaults. Environment variables in the format
// ${VAR_NAME} are expanded. Duration strings are parsed into time.Duration
// values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Resolve loads the config at path when one is given. With an empty path
// it loads the default location when a file exists there, and otherwise
// falls back to DefaultConfig.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	def := DefaultPath()
	if _, err := os.Stat(def); err == nil {
		return Load(def)
	}
	return DefaultConfig(), nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment
// variable values. If the environment variable is not set, it is replaced with
// an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all configuration fields hold usable values.
// Returns an error describing the first validation failure encountered.
// Command-specific requirements (peers for mesh commands, at least one
// sweep criterion) are enforced by the commands themselves, after flag
// overrides are applied.
func (c *Config) Validate() error {
	if c.Mesh.HandshakeTimeout <= 0 {
		return fmt.Errorf("mesh.handshake_timeout must be positive")
	}
	if c.Sweep.Window <= 0 {
		return fmt.Errorf("sweep.window must be positive")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway.timeout must be positive")
	}
	if c.Republish.Interval <= 0 {
		return fmt.Errorf("republish.interval must be positive")
	}
	if c.Republish.Limit < 0 {
		return fmt.Errorf("republish.limit must not be negative")
	}
	if c.Republish.MinContentLen < 0 {
		return fmt.Errorf("republish.min_content_len must not be negative")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "color", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of color, text, json", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Mesh.HandshakeTimeoutRaw != "" {
		cfg.Mesh.HandshakeTimeout, err = time.ParseDuration(cfg.Mesh.HandshakeTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing handshake_timeout %q: %w", cfg.Mesh.HandshakeTimeoutRaw, err)
		}
	}

	if cfg.Sweep.WindowRaw != "" {
		cfg.Sweep.Window, err = time.ParseDuration(cfg.Sweep.WindowRaw)
		if err != nil {
			return fmt.Errorf("parsing window %q: %w", cfg.Sweep.WindowRaw, err)
		}
	}

	if cfg.Gateway.TimeoutRaw != "" {
		cfg.Gateway.Timeout, err = time.ParseDuration(cfg.Gateway.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.Gateway.TimeoutRaw, err)
		}
	}

	if cfg.Republish.IntervalRaw != "" {
		cfg.Republish.Interval, err = time.ParseDuration(cfg.Republish.IntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing interval %q: %w", cfg.Republish.IntervalRaw, err)
		}
	}

	return nil
}
