// Package alert fires a weather notification when a weather result mentions
// precipitation.
package alert

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"mcpbridge/model"
)

// Outcome reports what CheckAndFire did.
type Outcome struct {
	// Fired is true when a keyword matched and a notification was dispatched.
	Fired bool
	// Keyword is the first trigger keyword found in the result.
	Keyword string
	// Notification is the dispatch response, successful or not.
	Notification model.ToolResponse
}

// Policy holds the trigger keywords and the gateway used for notifications.
type Policy struct {
	keywords []string
	tools    model.ToolCaller
	logger   zerolog.Logger
}

// NewPolicy lowercases keywords once; matching is case-insensitive.
func NewPolicy(keywords []string, tools model.ToolCaller, logger zerolog.Logger) *Policy {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &Policy{
		keywords: lowered,
		tools:    tools,
		logger:   logger.With().Str("component", "alert").Logger(),
	}
}

// Match returns the first keyword contained in text.
func (p *Policy) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, k := range p.keywords {
		if strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}

// CheckAndFire applies the policy to the result of tool. Only non-empty
// get_weather results are considered. On a match it sends the result to the
// weather_alerts topic; a failed dispatch is logged and reported in the
// outcome, never returned as an error.
func (p *Policy) CheckAndFire(ctx context.Context, tool, resultText string) Outcome {
	if tool != model.ToolGetWeather || resultText == "" {
		return Outcome{}
	}

	keyword, ok := p.Match(resultText)
	if !ok {
		return Outcome{}
	}

	p.logger.Info().Str("keyword", keyword).Msg("weather alert detected, sending notification")

	call := model.NewNotificationCall(resultText, model.TopicWeatherAlerts)
	resp := p.tools.CallTool(ctx, call.Name, call.Arguments)

	if resp.Failed() {
		p.logger.Warn().Str("error", resp.Err).Msg("weather alert notification failed")
	} else {
		p.logger.Info().Str("notification", resp.Text).Msg("weather alert notification sent")
	}

	return Outcome{Fired: true, Keyword: keyword, Notification: resp}
}
