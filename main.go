package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mcpbridge/alert"
	"mcpbridge/chat"
	"mcpbridge/config"
	"mcpbridge/intent"
	"mcpbridge/mcp"
	"mcpbridge/model"
	"mcpbridge/provider"
	"mcpbridge/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

// Global flags
var (
	configPath   string
	flagProvider string
	flagModel    string
	flagHost     string
	flagMCPURL   string
	flagDebug    bool
	flagLogLevel string
	flagDataDir  string
	flagRetry    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "mcpbridge",
	Short: "Bridge a local language model to MCP weather and notification tools",
	Long: `mcpbridge connects a text-completion model (Ollama by default) to a
JSON-RPC tool server offering get_weather and send_notification.

Each request is sent to the model with a tools-only reminder. The bridge
extracts the JSON tool call from the reply, or infers one from your input
when the model ignores the contract, runs it, sends a weather alert when
rain is reported, and prints a one-line summary.

Run without arguments to start the interactive chat.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session (default)",
	RunE:  runChat,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ~/.config/mcpbridge/config.toml)")
	pf.StringVar(&flagProvider, "provider", "", "model provider: ollama, openai, openrouter, anthropic")
	pf.StringVar(&flagModel, "model", "", "model name")
	pf.StringVar(&flagHost, "ollama-host", "", "model server base URL")
	pf.StringVar(&flagMCPURL, "mcp-url", "", "tool server JSON-RPC endpoint")
	pf.BoolVar(&flagDebug, "debug", false, "debug logging, also written to <data dir>/debug.log")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flagDataDir, "data-dir", "", "directory for debug.log (default ~/.local/share/mcpbridge)")
	pf.DurationVar(&flagRetry, "retry-delay", 0, "wait between retry attempts, e.g. 500ms")

	rootCmd.AddCommand(chatCmd, probeCmd, toolsCmd, configCmd)
	configCmd.AddCommand(configInitCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	closer   io.Closer
	backend  model.Provider
	gateway  *provider.Gateway
	tools    *mcp.Client
	catalog  *mcp.Catalog
	resolver *intent.Resolver
	alerts   *alert.Policy
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath, config.Overrides{
		Provider:   flagProvider,
		Host:       flagHost,
		Model:      flagModel,
		MCPURL:     flagMCPURL,
		Debug:      flagDebug,
		LogLevel:   flagLogLevel,
		DataDir:    flagDataDir,
		RetryDelay: flagRetry,
	})
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closer, err := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	backend, err := provider.InitializeProvider(cfg, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	tools, err := mcp.NewClient(mcp.Options{
		Endpoint:    cfg.MCPURL,
		MaxAttempts: cfg.ToolAttempts,
		Delay:       cfg.RetryDelay,
		Timeout:     cfg.RequestTimeout,
	}, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		closer:  closer,
		backend: backend,
		gateway: provider.NewGateway(backend, provider.GatewayOptions{
			MaxAttempts:    cfg.ModelAttempts,
			Delay:          cfg.RetryDelay,
			AttemptTimeout: cfg.RequestTimeout,
		}, logger),
		tools:    tools,
		catalog:  mcp.NewCatalog(nil, cfg.DefaultCity, logger),
		resolver: intent.NewResolver(cfg.DefaultCity),
		alerts:   alert.NewPolicy(cfg.AlertTrigger(), tools, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.closer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	console := ui.NewTerminalConsole(os.Stdout)

	if err := a.tools.Health(ctx); err != nil {
		a.logger.Warn().Err(err).Str("endpoint", a.tools.Endpoint()).Msg("tool server is not healthy, calls will be retried per turn")
	}

	session := chat.NewSession(chat.Deps{
		Model:     a.gateway,
		Tools:     a.tools,
		Resolver:  a.resolver,
		Catalog:   a.catalog,
		Alerts:    a.alerts,
		Presenter: console,
	}, a.logger)

	console.Banner(a.gateway.Model(), a.tools.Endpoint())
	a.logger.Info().
		Str("session", session.ID()).
		Str("provider", a.cfg.Provider).
		Str("model", a.gateway.Model()).
		Msg("starting session")

	_ = session.Prime(ctx)

	if err := session.Run(ctx, os.Stdin); err != nil {
		return errors.Wrap(err, "session failed")
	}
	return nil
}

func contextWithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
