// Package config handles reading and writing .policydesk/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/policydesk/policydesk/internal/agent"
)

// Config is the top-level structure for .policydesk/config.yaml.
type Config struct {
	Version      int                `yaml:"version"`
	Agent        AgentConfig        `yaml:"agent"`
	Organization agent.Organization `yaml:"organization"`
	Server       ServerConfig       `yaml:"server"`
	Store        StoreConfig        `yaml:"store"`
	Log          LogConfig          `yaml:"log"`
}

// AgentConfig controls how the wizard reaches the policy agents.
type AgentConfig struct {
	Mode           string       `yaml:"mode"`     // "auto" | "remote" | "mock"
	Endpoint       string       `yaml:"endpoint"` // e.g. http://localhost:8080/api/agent
	UserID         string       `yaml:"user_id"`
	TimeoutSeconds int          `yaml:"timeout_seconds"` // 0 = no timeout
	MockDelayMs    int          `yaml:"mock_delay_ms"`
	IDs            agent.Agents `yaml:"ids"`
}

// ServerConfig controls the /api/agent proxy started by `policydesk serve`.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	UpstreamURL    string   `yaml:"upstream_url"`
	APIKey         string   `yaml:"-"` // env only
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StoreConfig locates the session registry.
type StoreConfig struct {
	Path string `yaml:"path"` // ":memory:" keeps sessions for the lifetime of the process
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // zerolog level name
	Format string `yaml:"format"` // "console" | "json"
}

const (
	ModeAuto   = "auto"
	ModeRemote = "remote"
	ModeMock   = "mock"
)

// Dir is the per-project state directory.
const Dir = ".policydesk"

const configFile = "config.yaml"

// ExportsDir returns where finalized policies are exported for the project
// rooted at dir.
func ExportsDir(dir string) string {
	return filepath.Join(dir, Dir, "exports")
}

// ReadConfig reads .policydesk/config.yaml from the given project directory.
// dir is the project root (not .policydesk/ itself).
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, Dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Load reads the config from dir, falling back to defaults when no config
// file exists, then applies .env and environment overrides.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}
	if err := LoadEnv(dir); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteConfig writes cfg to .policydesk/config.yaml in the given project directory.
// Creates the .policydesk/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, Dir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Agent: AgentConfig{
			Mode:        ModeAuto,
			UserID:      "hr-admin@policydesk.local",
			MockDelayMs: 1500,
			IDs: agent.Agents{
				Interview:          "policy-interview-agent",
				ComplianceResearch: "compliance-research-agent",
				DraftCoordinator:   "policy-drafting-coordinator",
				Finalizer:          "policy-finalization-agent",
			},
		},
		Organization: agent.Organization{
			Name:          "Acme Corporation",
			Industry:      "Technology",
			EmployeeCount: "250",
			Headquarters:  "San Francisco, CA",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Store: StoreConfig{
			Path: ":memory:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// UseMock reports whether the offline mock agent should answer requests.
func (c *Config) UseMock() bool {
	switch c.Agent.Mode {
	case ModeMock:
		return true
	case ModeRemote:
		return false
	default:
		return c.Agent.Endpoint == ""
	}
}

// Timeout returns the agent request timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Agent.TimeoutSeconds) * time.Second
}

// MockDelay returns the simulated agent latency.
func (c *Config) MockDelay() time.Duration {
	return time.Duration(c.Agent.MockDelayMs) * time.Millisecond
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// Validate checks the configuration for values the wizard cannot run with.
func (c *Config) Validate() error {
	switch c.Agent.Mode {
	case ModeAuto, ModeMock:
	case ModeRemote:
		if c.Agent.Endpoint == "" {
			return errors.New("agent.endpoint is required when agent.mode is remote")
		}
	default:
		return fmt.Errorf("agent.mode must be auto, remote or mock, got %q", c.Agent.Mode)
	}

	ids := c.Agent.IDs
	for name, id := range map[string]string{
		"interview":           ids.Interview,
		"compliance_research": ids.ComplianceResearch,
		"draft_coordinator":   ids.DraftCoordinator,
		"finalizer":           ids.Finalizer,
	} {
		if id == "" {
			return fmt.Errorf("agent.ids.%s is required", name)
		}
	}

	if c.Agent.TimeoutSeconds < 0 {
		return errors.New("agent.timeout_seconds must not be negative")
	}
	if c.Agent.MockDelayMs < 0 {
		return errors.New("agent.mock_delay_ms must not be negative")
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("log.level %q is not a known level", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
