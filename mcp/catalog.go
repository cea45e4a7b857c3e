package mcp

import (
	"fmt"
	"sort"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"

	"mcpbridge/model"
)

// Catalog describes the tools the bridge knows how to call and owns the
// contract the model is asked to follow.
type Catalog struct {
	tools       []mcptypes.Tool
	byName      map[string]mcptypes.Tool
	defaultCity string
	logger      zerolog.Logger
}

// DefaultTools returns the definitions of the tools served by the tool server.
func DefaultTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		mcptypes.NewTool(model.ToolGetWeather,
			mcptypes.WithDescription("Fetches current weather for a given city."),
			mcptypes.WithString(model.ArgCity,
				mcptypes.Required(),
				mcptypes.Description("City name to get weather for"),
			),
		),
		mcptypes.NewTool(model.ToolSendNotification,
			mcptypes.WithDescription("Sends a push notification. Format: 'message|topic'."),
			mcptypes.WithString(model.ArgNotificationInput,
				mcptypes.Required(),
				mcptypes.Description("Input format: 'message|topic'"),
			),
		),
	}
}

// NewCatalog builds a catalog over tools. A nil slice means DefaultTools.
func NewCatalog(tools []mcptypes.Tool, defaultCity string, logger zerolog.Logger) *Catalog {
	if tools == nil {
		tools = DefaultTools()
	}
	byName := make(map[string]mcptypes.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}
	return &Catalog{
		tools:       tools,
		byName:      byName,
		defaultCity: defaultCity,
		logger:      logger.With().Str("component", "catalog").Logger(),
	}
}

// Tools returns the catalog's tool definitions.
func (c *Catalog) Tools() []mcptypes.Tool {
	return c.tools
}

// Lookup returns the definition of name.
func (c *Catalog) Lookup(name string) (mcptypes.Tool, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Instruction renders the system instruction sent once when a session starts.
func (c *Catalog) Instruction() string {
	var b strings.Builder
	b.WriteString("SYSTEM INSTRUCTION:\n")
	b.WriteString("You are an AI assistant connected to a local MCP server.\n")
	b.WriteString("You cannot write or show code.\n")
	b.WriteString("You must call tools for all external actions.\n")
	b.WriteString("Available tools:\n")
	for i, t := range c.tools {
		fmt.Fprintf(&b, "%d. %s(%s)\n", i+1, t.Name, signature(t))
	}
	b.WriteString("Always respond ONLY in JSON format like:\n")
	b.WriteString(`{ "name": "<tool_name>", "arguments": { ... } }` + "\n")
	return b.String()
}

// signature renders "arg: type" pairs in schema order (required first).
func signature(t mcptypes.Tool) string {
	names := make([]string, 0, len(t.InputSchema.Properties))
	seen := make(map[string]bool)
	for _, r := range t.InputSchema.Required {
		names = append(names, r)
		seen[r] = true
	}
	var rest []string
	for name := range t.InputSchema.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		typ := "string"
		if prop, ok := t.InputSchema.Properties[name].(map[string]any); ok {
			if s, ok := prop["type"].(string); ok {
				typ = s
			}
		}
		parts = append(parts, name+": "+typ)
	}
	return strings.Join(parts, ", ")
}

// Validate checks call against the required-argument contract of its tool.
// Unknown tools are not an error here: the server decides what it serves.
func (c *Catalog) Validate(call model.ToolCall) error {
	if call.Name == "" {
		return errors.New("tool call has no name")
	}
	t, ok := c.byName[call.Name]
	if !ok {
		return nil
	}
	for _, req := range t.InputSchema.Required {
		v, present := call.Arguments[req]
		if !present {
			return errors.Errorf("%s: missing required argument %q", call.Name, req)
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return errors.Errorf("%s: argument %q is empty", call.Name, req)
		}
	}
	return nil
}

// Normalize returns a copy of call repaired to the server's expectations: a
// notification without a topic is sent to general_alerts, and a weather call
// without a city uses the default city.
func (c *Catalog) Normalize(call model.ToolCall) model.ToolCall {
	out := model.ToolCall{
		Name:      call.Name,
		Arguments: make(map[string]any, len(call.Arguments)+1),
	}
	for k, v := range call.Arguments {
		out.Arguments[k] = v
	}

	switch call.Name {
	case model.ToolGetWeather:
		city, _ := out.Arguments[model.ArgCity].(string)
		if strings.TrimSpace(city) == "" {
			out.Arguments[model.ArgCity] = c.defaultCity
		}
	case model.ToolSendNotification:
		input, ok := out.Arguments[model.ArgNotificationInput].(string)
		if ok && !strings.Contains(input, model.NotificationSeparator) {
			out.Arguments[model.ArgNotificationInput] = input + model.NotificationSeparator + model.TopicGeneralAlerts
		}
	default:
		if suggestion, ok := c.Suggest(call.Name); ok {
			c.logger.Warn().Str("tool", call.Name).Str("did_you_mean", suggestion).Msg("unknown tool requested")
		} else {
			c.logger.Warn().Str("tool", call.Name).Msg("unknown tool requested")
		}
	}

	return out
}

// Suggest returns the known tool name closest to name.
func (c *Catalog) Suggest(name string) (string, bool) {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = t.Name
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
