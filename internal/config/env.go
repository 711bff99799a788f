package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override config.yaml.
const (
	EnvAgentEndpoint = "POLICYDESK_AGENT_ENDPOINT"
	EnvAgentMode     = "POLICYDESK_AGENT_MODE"
	EnvAgentTimeout  = "POLICYDESK_AGENT_TIMEOUT"
	EnvUserID        = "POLICYDESK_USER_ID"
	EnvUpstreamURL   = "POLICYDESK_UPSTREAM_URL"
	EnvAPIKey        = "POLICYDESK_AGENT_API_KEY"
	EnvServerAddr    = "POLICYDESK_ADDR"
	EnvStorePath     = "POLICYDESK_STORE_PATH"
	EnvLogLevel      = "POLICYDESK_LOG_LEVEL"
	EnvLogFormat     = "POLICYDESK_LOG_FORMAT"
	EnvOrigins       = "POLICYDESK_ALLOWED_ORIGINS"
)

// LoadEnv loads dir/.env into the process environment. Variables that are
// already set win. A missing file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields with any POLICYDESK_* variables that are set.
func (c *Config) ApplyEnv() {
	c.Agent.Endpoint = getEnv(EnvAgentEndpoint, c.Agent.Endpoint)
	c.Agent.Mode = getEnv(EnvAgentMode, c.Agent.Mode)
	c.Agent.TimeoutSeconds = getEnvInt(EnvAgentTimeout, c.Agent.TimeoutSeconds)
	c.Agent.UserID = getEnv(EnvUserID, c.Agent.UserID)
	c.Server.UpstreamURL = getEnv(EnvUpstreamURL, c.Server.UpstreamURL)
	c.Server.APIKey = getEnv(EnvAPIKey, c.Server.APIKey)
	c.Server.Addr = getEnv(EnvServerAddr, c.Server.Addr)
	c.Store.Path = getEnv(EnvStorePath, c.Store.Path)
	c.Log.Level = strings.ToLower(getEnv(EnvLogLevel, c.Log.Level))
	c.Log.Format = strings.ToLower(getEnv(EnvLogFormat, c.Log.Format))
	if origins := getEnv(EnvOrigins, ""); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
