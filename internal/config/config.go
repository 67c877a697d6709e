// Package config provides configuration loading and defaults for the
// pipefy-mcp server and the pipefyctl command line.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the public Pipefy GraphQL endpoint.
const DefaultEndpoint = "https://api.pipefy.com/graphql"

// IDFilter holds allowlist and denylist patterns for a category of Pipefy
// identifiers (pipes or tables).
type IDFilter struct {
	Allowlist []string `yaml:"allowlist" toml:"allowlist"`
	Denylist  []string `yaml:"denylist" toml:"denylist"`
}

// SafetyConfig groups id filters applied by the MCP tools.
type SafetyConfig struct {
	Pipes  IDFilter `yaml:"pipes" toml:"pipes"`
	Tables IDFilter `yaml:"tables" toml:"tables"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	LogPath string `yaml:"log_path" toml:"log_path"`
}

// ServerConfig holds network and authentication settings for the MCP server.
type ServerConfig struct {
	Port      int    `yaml:"port" toml:"port"`
	AuthToken string `yaml:"auth_token" toml:"auth_token"`
}

// PipefyConfig holds connection details for the Pipefy GraphQL API.
type PipefyConfig struct {
	Endpoint       string `yaml:"endpoint" toml:"endpoint"`
	Token          string `yaml:"token" toml:"token"`
	OrganizationID string `yaml:"organization_id" toml:"organization_id"`
	// TimeZone is an IANA zone name used to stamp log-table rows.
	TimeZone string `yaml:"time_zone" toml:"time_zone"`
	// Locale is a BCP 47 language tag such as "es-AR" or "en-US".
	Locale   string `yaml:"locale" toml:"locale"`
	LogTable string `yaml:"log_table" toml:"log_table"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout        int `yaml:"timeout" toml:"timeout"`
	MaxConcurrency int `yaml:"max_concurrency" toml:"max_concurrency"`
	MaxClearRounds int `yaml:"max_clear_rounds" toml:"max_clear_rounds"`
}

// S3Config describes an S3-compatible bucket used as an upload source.
type S3Config struct {
	Endpoint     string `yaml:"endpoint" toml:"endpoint"`
	Region       string `yaml:"region" toml:"region"`
	AccessKey    string `yaml:"access_key" toml:"access_key"`
	SecretKey    string `yaml:"secret_key" toml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style" toml:"use_path_style"`
}

// StorageConfig groups optional object storage sources.
type StorageConfig struct {
	S3 S3Config `yaml:"s3" toml:"s3"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Safety  SafetyConfig  `yaml:"safety" toml:"safety"`
	Audit   AuditConfig   `yaml:"audit" toml:"audit"`
	Pipefy  PipefyConfig  `yaml:"pipefy" toml:"pipefy"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
}

// LoadConfig reads and parses a configuration file from the given path. Files
// ending in .toml are decoded as TOML; anything else is treated as YAML.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		return &cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/config/audit.log",
		},
		Pipefy: PipefyConfig{
			Endpoint:       DefaultEndpoint,
			TimeZone:       "UTC",
			Locale:         "en-US",
			Timeout:        30,
			MaxConcurrency: 8,
			MaxClearRounds: 100,
		},
		Storage: StorageConfig{
			S3: S3Config{
				Region: "us-east-1",
			},
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - PIPEFY_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - PIPEFY_API_TOKEN overrides cfg.Pipefy.Token
//   - PIPEFY_ORGANIZATION_ID overrides cfg.Pipefy.OrganizationID
//   - PIPEFY_GRAPHQL_URL overrides cfg.Pipefy.Endpoint
//   - PIPEFY_LOG_TABLE overrides cfg.Pipefy.LogTable
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv("PIPEFY_MCP_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if token := os.Getenv("PIPEFY_API_TOKEN"); token != "" {
		cfg.Pipefy.Token = token
	}
	if org := os.Getenv("PIPEFY_ORGANIZATION_ID"); org != "" {
		cfg.Pipefy.OrganizationID = org
	}
	if url := os.Getenv("PIPEFY_GRAPHQL_URL"); url != "" {
		cfg.Pipefy.Endpoint = url
	}
	if table := os.Getenv("PIPEFY_LOG_TABLE"); table != "" {
		cfg.Pipefy.LogTable = table
	}
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
