// Package config provides configuration for the delivery agent.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	ClassifierRules = "rules"
	ClassifierLLM   = "llm"
)

// Config holds the agent configuration.
type Config struct {
	// Server settings
	HTTPPort int `yaml:"http_port"`
	RPCPort  int `yaml:"rpc_port"`

	// Upstream delivery API
	SenpexAPIBase   string        `yaml:"senpex_api_base"`
	SenpexClientID  string        `yaml:"senpex_client_id"`
	SenpexSecretID  string        `yaml:"senpex_secret_id"`
	SenpexCountry   string        `yaml:"senpex_country"`
	DeliveryTimeout time.Duration `yaml:"-"`

	// Storage
	StoreDriver       string        `yaml:"store_driver"`
	DatabaseURL       string        `yaml:"database_url"`
	ToolLogMaxEntries int           `yaml:"tool_log_max_entries"`
	SessionIdleTTL    time.Duration `yaml:"-"`

	// Intent classification
	Classifier    string `yaml:"classifier"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`
	LLMMode       string `yaml:"llm_mode"`

	// Policy
	PolicyFile string `yaml:"policy_file"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
}

// fileConfig mirrors the duration fields as milliseconds for YAML files.
type fileConfig struct {
	Config            `yaml:",inline"`
	DeliveryTimeoutMs int `yaml:"delivery_timeout_ms"`
	SessionIdleTTLMs  int `yaml:"session_idle_ttl_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPPort:          8080,
		RPCPort:           8081,
		SenpexAPIBase:     "https://api.sandbox.senpex.com/api/restfull/v4",
		SenpexCountry:     "US",
		DeliveryTimeout:   30 * time.Second,
		StoreDriver:       StoreMemory,
		DatabaseURL:       "file:deliveryagent?mode=memory&cache=shared",
		ToolLogMaxEntries: 10000,
		Classifier:        ClassifierRules,
		OpenAIModel:       "gpt-4o-mini",
		LogLevel:          "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by AGENT_CONFIG_FILE, and environment variables, in that order.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("AGENT_CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays values from a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return c.parseYAML(data)
}

func (c *Config) parseYAML(data []byte) error {
	fc := fileConfig{
		Config:            *c,
		DeliveryTimeoutMs: int(c.DeliveryTimeout / time.Millisecond),
		SessionIdleTTLMs:  int(c.SessionIdleTTL / time.Millisecond),
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	*c = fc.Config
	c.DeliveryTimeout = time.Duration(fc.DeliveryTimeoutMs) * time.Millisecond
	c.SessionIdleTTL = time.Duration(fc.SessionIdleTTLMs) * time.Millisecond
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPPort = getEnvInt("HTTP_PORT", c.HTTPPort)
	c.RPCPort = getEnvInt("RPC_PORT", c.RPCPort)
	c.SenpexAPIBase = getEnv("SENPEX_API_BASE", c.SenpexAPIBase)
	c.SenpexClientID = getEnv("SENPEX_CLIENT_ID", c.SenpexClientID)
	c.SenpexSecretID = getEnv("SENPEX_SECRET_ID", c.SenpexSecretID)
	c.SenpexCountry = getEnv("SENPEX_COUNTRY", c.SenpexCountry)
	c.DeliveryTimeout = getEnvMillis("DELIVERY_TIMEOUT_MS", c.DeliveryTimeout)
	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.ToolLogMaxEntries = getEnvInt("TOOL_LOG_MAX_ENTRIES", c.ToolLogMaxEntries)
	c.SessionIdleTTL = getEnvMillis("SESSION_IDLE_TTL_MS", c.SessionIdleTTL)
	c.Classifier = getEnv("CLASSIFIER", c.Classifier)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = getEnv("OPENAI_MODEL", c.OpenAIModel)
	c.LLMMode = getEnv("AGENT_LLM_MODE", c.LLMMode)
	c.PolicyFile = getEnv("POLICY_FILE", c.PolicyFile)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPretty = getEnvBool("LOG_PRETTY", c.LogPretty)
}

// Validate rejects configurations the agent cannot start with. Missing
// upstream credentials are not an error: the tools report them as text.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	switch c.Classifier {
	case ClassifierRules, ClassifierLLM:
	default:
		errs = append(errs, fmt.Errorf("unknown classifier %q", c.Classifier))
	}
	if c.DeliveryTimeout <= 0 {
		errs = append(errs, errors.New("delivery timeout must be positive"))
	}
	if c.ToolLogMaxEntries < 0 {
		errs = append(errs, errors.New("tool log max entries must not be negative"))
	}
	if c.SessionIdleTTL < 0 {
		errs = append(errs, errors.New("session idle ttl must not be negative"))
	}
	if strings.TrimSpace(c.SenpexAPIBase) == "" {
		errs = append(errs, errors.New("senpex api base is required"))
	}
	return errors.Join(errs...)
}

// HasCredentials reports whether both upstream credentials are set.
func (c *Config) HasCredentials() bool {
	return c.SenpexClientID != "" && c.SenpexSecretID != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvMillis(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
