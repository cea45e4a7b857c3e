package config

const (
	DefaultProvider    = "ollama"
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultModel       = "phi3:mini"
	DefaultMCPURL      = "http://localhost:9000/mcp"
	DefaultCity        = "Chennai"
	DefaultLogLevel    = "info"
	DefaultLogFileName = "debug.log"
)

// DefaultAlertKeywords trigger a weather alert notification.
var DefaultAlertKeywords = []string{"rain", "drizzle", "shower", "storm"}

func DefaultUserConfig() *UserConfig {
	keywords := make([]string, len(DefaultAlertKeywords))
	copy(keywords, DefaultAlertKeywords)

	return &UserConfig{
		// Host and Name stay empty so each provider falls back to its own
		// defaults in normalize or in the backend constructor.
		Model: ModelConfig{
			Provider: DefaultProvider,
		},
		Tools: ToolsConfig{
			URL:         DefaultMCPURL,
			DefaultCity: DefaultCity,
		},
		Alerts: AlertsConfig{
			Keywords: keywords,
		},
		Retry: RetryConfig{
			ModelAttempts:  3,
			ToolAttempts:   2,
			DelayMs:        1000,
			TimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

func GenerateUserConfigTemplate() string {
	return `# mcpbridge configuration
# Location: ~/.config/mcpbridge/config.toml
# This file uses TOML format: https://toml.io

[model]
# Completion backend: "ollama", "openai", "openrouter" or "anthropic"
provider = "ollama"

# Backend URL. Defaults to http://localhost:11434 for ollama and to the
# public API of each cloud provider.
# host = "http://localhost:11434"

# Model identifier sent with every request. Defaults to phi3:mini for ollama,
# gpt-4o-mini for openai, meta-llama/llama-3.2-3b-instruct for openrouter and
# claude-3-5-haiku-20241022 for anthropic.
# name = "phi3:mini"

# API key for cloud providers (prefer MCPBRIDGE_API_KEY)
# api_key = ""

[tools]
# JSON-RPC endpoint of the tool server
url = "http://localhost:9000/mcp"

# City used when a weather request names none
default_city = "Chennai"

[alerts]
# A get_weather result containing any of these words sends a weather alert
keywords = ["rain", "drizzle", "shower", "storm"]

[retry]
# Attempts per model request / per tool call
model_attempts = 3
tool_attempts = 2

# Fixed delay between attempts, in milliseconds
delay_ms = 1000

# Upper bound for a single attempt, in seconds
timeout_seconds = 60

[logging]
# Write JSON debug logs to <data_directory>/debug.log
debug = false

# trace, debug, info, warn, error
level = "info"

# data_directory = "~/.local/share/mcpbridge"
`
}
