package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"mcpbridge/config"
	"mcpbridge/provider"
	"mcpbridge/ui"
)

const defaultProbePrompt = "Hello! What model are you running?"

var probeCmd = &cobra.Command{
	Use:   "probe [prompt]",
	Short: "Send one prompt to the model and print the raw reply",
	Long: `Checks that the configured model answers. The prompt is sent once,
without retries, and the reply is printed as-is.

For Ollama the installed models are listed first so a missing pull is
obvious.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProbe,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools advertised by the tool server",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var forceInit bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.GetConfigFilePath()
		}
		if err := config.CreateDefaultUserConfig(path, forceInit); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
}

func runProbe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	console := ui.NewTerminalConsole(os.Stdout)

	prompt := defaultProbePrompt
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		prompt = args[0]
	}

	if ollamaBackend, ok := a.backend.(*provider.OllamaProvider); ok {
		models, err := ollamaBackend.ListModels(ctx)
		if err != nil {
			console.Status(false, "Server:", err.Error())
			return errors.Wrap(err, "model server unreachable")
		}
		found := false
		for _, m := range models {
			if m.Name == ollamaBackend.GetModel() {
				found = true
				console.Status(true, "Model:", fmt.Sprintf("%s (%s)", m.Name, humanize.Bytes(uint64(m.Size))))
			}
		}
		if !found {
			console.Warn(fmt.Sprintf("Model %s is not installed; run `ollama pull %s`", ollamaBackend.GetModel(), ollamaBackend.GetModel()))
		}
		if !ollamaBackend.SupportsToolCalling() {
			console.Warn("This model often ignores tool-call instructions; input heuristics will do most of the work.")
		}
	} else if err := a.backend.Ping(ctx); err != nil {
		console.Status(false, "Server:", err.Error())
		return errors.Wrap(err, "model server unreachable")
	}

	console.Line(fmt.Sprintf("Sending prompt to %s (%s) ...", a.cfg.Provider, a.backend.GetModel()))

	callCtx, cancel := contextWithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	reply, err := a.backend.Complete(callCtx, prompt)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		console.Status(false, "Failed:", err.Error())
		return errors.Wrap(err, "probe failed")
	}

	console.Status(true, "OK", "reply in "+elapsed.String())
	console.Line("")
	console.Line(reply)
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	console := ui.NewTerminalConsole(os.Stdout)

	if err := a.tools.Health(ctx); err != nil {
		console.Warn("Health check failed: " + err.Error())
	}

	tools, err := a.tools.ListTools(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list tools")
	}

	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	console.Status(true, "Tools:", fmt.Sprintf("%d at %s", len(tools), a.tools.Endpoint()))
	for _, t := range tools {
		line := fmt.Sprintf("  %s(%s)", t.Name, strings.Join(t.InputSchema.Required, ", "))
		if t.Description != "" {
			line += "  " + t.Description
		}
		if _, known := a.catalog.Lookup(t.Name); !known {
			line += "  [not used by the bridge]"
		}
		console.Line(line)
	}
	return nil
}
