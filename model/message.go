package model

import (
	"fmt"
	"sort"
	"strings"
)

// Tool names understood by the tool server.
const (
	ToolGetWeather       = "get_weather"
	ToolSendNotification = "send_notification"
)

// Argument keys and notification topics.
const (
	ArgCity              = "city"
	ArgNotificationInput = "notification_input"

	// NotificationSeparator divides message from topic in notification_input.
	NotificationSeparator = "|"

	TopicGeneralAlerts = "general_alerts"
	TopicWeatherAlerts = "weather_alerts"
)

// ToolCall is a resolved tool invocation ready for dispatch.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// NewWeatherCall builds a get_weather call for city.
func NewWeatherCall(city string) ToolCall {
	return ToolCall{
		Name:      ToolGetWeather,
		Arguments: map[string]any{ArgCity: city},
	}
}

// NewNotificationCall builds a send_notification call posting message to topic.
func NewNotificationCall(message, topic string) ToolCall {
	return ToolCall{
		Name:      ToolSendNotification,
		Arguments: map[string]any{ArgNotificationInput: message + NotificationSeparator + topic},
	}
}

// String renders the call for logs with arguments in stable key order.
func (c ToolCall) String() string {
	keys := make([]string, 0, len(c.Arguments))
	for k := range c.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, c.Arguments[k]))
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ToolResponse is the normalized result of a dispatch. Exactly one of Text or
// Err is populated, except for the "no result" case where the server replied
// successfully without any text.
type ToolResponse struct {
	Text string
	Err  string
}

// TextResponse wraps a successful tool result.
func TextResponse(text string) ToolResponse {
	return ToolResponse{Text: text}
}

// ErrorResponse wraps a failed dispatch.
func ErrorResponse(msg string) ToolResponse {
	return ToolResponse{Err: msg}
}

// OK reports whether the response carries usable text. Empty text is "no
// result", not success.
func (r ToolResponse) OK() bool {
	return r.Err == "" && r.Text != ""
}

// Failed reports whether the response is error-tagged.
func (r ToolResponse) Failed() bool {
	return r.Err != ""
}
