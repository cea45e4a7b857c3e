package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type ModelConfig struct {
	Provider string `toml:"provider"`
	Host     string `toml:"host"`
	Name     string `toml:"name"`
	APIKey   string `toml:"api_key,omitempty"`
}

type ToolsConfig struct {
	URL         string `toml:"url"`
	DefaultCity string `toml:"default_city"`
}

type AlertsConfig struct {
	Keywords []string `toml:"keywords"`
}

type RetryConfig struct {
	ModelAttempts  int `toml:"model_attempts"`
	ToolAttempts   int `toml:"tool_attempts"`
	DelayMs        int `toml:"delay_ms"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

type LoggingConfig struct {
	Debug         bool   `toml:"debug"`
	Level         string `toml:"level"`
	DataDirectory string `toml:"data_directory"`
}

// UserConfig mirrors config.toml.
type UserConfig struct {
	Model   ModelConfig   `toml:"model"`
	Tools   ToolsConfig   `toml:"tools"`
	Alerts  AlertsConfig  `toml:"alerts"`
	Retry   RetryConfig   `toml:"retry"`
	Logging LoggingConfig `toml:"logging"`
}

// Config is the resolved, process-wide configuration. It is built once by Load
// and never mutated afterwards; components receive it (or values from it) at
// construction.
type Config struct {
	DataDirectory string

	Provider     string
	ProviderHost string
	Model        string
	APIKey       string

	MCPURL      string
	DefaultCity string

	AlertKeywords []string

	ModelAttempts  int
	ToolAttempts   int
	RetryDelay     time.Duration
	RequestTimeout time.Duration

	Debug    bool
	LogLevel string
}

// Overrides carries command-line flag values. Empty fields are ignored.
type Overrides struct {
	Provider   string
	Host       string
	Model      string
	MCPURL     string
	Debug      bool
	LogLevel   string
	DataDir    string
	RetryDelay time.Duration
}

// Environment variables recognised by Load.
const (
	EnvProvider   = "MCPBRIDGE_PROVIDER"
	EnvOllamaHost = "MCPBRIDGE_OLLAMA_HOST"
	EnvModel      = "MCPBRIDGE_MODEL"
	EnvAPIKey     = "MCPBRIDGE_API_KEY"
	EnvMCPURL     = "MCPBRIDGE_MCP_URL"
	EnvDebug      = "MCPBRIDGE_DEBUG"
	EnvDataDir    = "MCPBRIDGE_DATA_DIR"
)

var knownProviders = map[string]bool{
	"ollama":     true,
	"openai":     true,
	"openrouter": true,
	"anthropic":  true,
}

func (c *Config) ModelHost() string {
	return c.ProviderHost
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// AlertTrigger returns a copy of the alert keyword set.
func (c *Config) AlertTrigger() []string {
	out := make([]string, len(c.AlertKeywords))
	copy(out, c.AlertKeywords)
	return out
}

func fromUserConfig(u *UserConfig) *Config {
	return &Config{
		DataDirectory:  u.Logging.DataDirectory,
		Provider:       u.Model.Provider,
		ProviderHost:   u.Model.Host,
		Model:          u.Model.Name,
		APIKey:         u.Model.APIKey,
		MCPURL:         u.Tools.URL,
		DefaultCity:    u.Tools.DefaultCity,
		AlertKeywords:  u.Alerts.Keywords,
		ModelAttempts:  u.Retry.ModelAttempts,
		ToolAttempts:   u.Retry.ToolAttempts,
		RetryDelay:     time.Duration(u.Retry.DelayMs) * time.Millisecond,
		RequestTimeout: time.Duration(u.Retry.TimeoutSeconds) * time.Second,
		Debug:          u.Logging.Debug,
		LogLevel:       u.Logging.Level,
	}
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv(EnvProvider); p != "" {
		c.Provider = p
	}
	if host := os.Getenv(EnvOllamaHost); host != "" {
		c.ProviderHost = host
	}
	if model := os.Getenv(EnvModel); model != "" {
		c.Model = model
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.APIKey = key
	}
	if u := os.Getenv(EnvMCPURL); u != "" {
		c.MCPURL = u
	}
	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if CheckDebug() {
		c.Debug = true
	}
}

func (c *Config) applyOverrides(o Overrides) {
	if o.Provider != "" {
		c.Provider = o.Provider
	}
	if o.Host != "" {
		c.ProviderHost = o.Host
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.MCPURL != "" {
		c.MCPURL = o.MCPURL
	}
	if o.DataDir != "" {
		c.DataDirectory = o.DataDir
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.RetryDelay > 0 {
		c.RetryDelay = o.RetryDelay
	}
	if o.Debug {
		c.Debug = true
	}
}

// normalize fills provider-dependent defaults after all sources are merged.
func (c *Config) normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Provider == "ollama" {
		if c.ProviderHost == "" {
			c.ProviderHost = DefaultOllamaHost
		}
		if c.Model == "" {
			c.Model = DefaultModel
		}
	} else {
		// Ollama defaults left in a file mean nothing to a cloud API; empty
		// values let the backend pick its own.
		if c.ProviderHost == DefaultOllamaHost {
			c.ProviderHost = ""
		}
		if c.Model == DefaultModel {
			c.Model = ""
		}
	}
	if c.DataDirectory == "" {
		c.DataDirectory = GetDefaultDataDir()
	}
}

// Validate rejects configurations the gateways cannot run with.
func (c *Config) Validate() error {
	if !knownProviders[c.Provider] {
		return errors.Errorf("unknown provider %q", c.Provider)
	}
	if c.Provider != "ollama" && c.APIKey == "" {
		return errors.Errorf("provider %q requires an API key (set %s or [model] api_key)", c.Provider, EnvAPIKey)
	}
	if c.ProviderHost != "" {
		if _, err := url.ParseRequestURI(c.ProviderHost); err != nil {
			return errors.Wrap(err, "invalid model host")
		}
	}
	if _, err := url.ParseRequestURI(c.MCPURL); err != nil {
		return errors.Wrap(err, "invalid MCP URL")
	}
	if c.ModelAttempts < 1 {
		return errors.Errorf("retry.model_attempts must be at least 1, got %d", c.ModelAttempts)
	}
	if c.ToolAttempts < 1 {
		return errors.Errorf("retry.tool_attempts must be at least 1, got %d", c.ToolAttempts)
	}
	if c.RetryDelay < 0 {
		return errors.Errorf("retry.delay_ms must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return errors.Errorf("retry.timeout_seconds must be positive")
	}
	if strings.TrimSpace(c.DefaultCity) == "" {
		return errors.New("tools.default_city must not be empty")
	}
	return nil
}

func CheckDebug() bool {
	debug := os.Getenv(EnvDebug)
	if debug == "" {
		return false
	}
	v, err := strconv.ParseBool(debug)
	return err == nil && v
}

// Load builds the configuration from, in increasing precedence: compiled-in
// defaults, the TOML file at path (GetConfigFilePath when empty), environment
// variables, and flag overrides. A missing file is not an error.
func Load(path string, overrides Overrides) (*Config, error) {
	if path == "" {
		path = GetConfigFilePath()
	}

	userCfg, err := LoadUserConfig(path)
	if err != nil {
		return nil, err
	}

	cfg := fromUserConfig(userCfg)
	cfg.applyEnvOverrides()
	cfg.applyOverrides(overrides)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}
