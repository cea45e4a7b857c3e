package testutil

import (
	"context"
	"time"
)

// Model replies used across package tests.
const (
	// WeatherCallReply is a well-formed structured tool call.
	WeatherCallReply = `{"name": "get_weather", "arguments": {"city": "Chennai"}}`

	// WrappedWeatherCallReply surrounds the call with prose and a code fence,
	// the way small local models tend to answer.
	WrappedWeatherCallReply = "Sure! Here is the call:\n```json\n" +
		`{"name": "get_weather", "arguments": {"city": "Paris"}}` +
		"\n```\nLet me know if you need anything else."

	// NotifyCallReply asks for a notification without the topic separator.
	NotifyCallReply = `{"name": "send_notification", "arguments": {"notification_input": "Meeting at 5"}}`

	// ChattyReply contains no tool call at all.
	ChattyReply = "I am just a language model and cannot check the weather."

	// RainyWeather is a tool result that trips the default alert keywords.
	RainyWeather = "Chennai: light rain, 27°C, humidity 88%"

	// SunnyWeather is a tool result that does not trip any alert keyword.
	SunnyWeather = "Paris: clear sky, 21°C"
)

// NoSleep is a retry.Sleeper that returns immediately, honouring ctx.
func NoSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
