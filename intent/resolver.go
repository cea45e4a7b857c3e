// Package intent turns a model reply and the user's input into a tool call.
//
// Resolution has two stages and the first that produces a call wins:
// structured extraction of a {"name": ..., "arguments": {...}} object from the
// model text, then keyword heuristics on the user input for models that ignore
// the JSON contract. Resolve is pure; the same inputs always give the same
// result.
package intent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"mcpbridge/model"
)

// cityPattern captures the words after the first standalone "in".
var cityPattern = regexp.MustCompile(`(?i)\bin\s+(\p{L}[\p{L}\p{M} ]*)`)

// Resolution is a resolved call and the stage that produced it.
type Resolution struct {
	Call   model.ToolCall
	Source model.Source
}

// Resolver holds the only configuration resolution needs.
type Resolver struct {
	defaultCity string
}

// NewResolver returns a resolver that falls back to defaultCity for weather
// requests naming no city.
func NewResolver(defaultCity string) *Resolver {
	return &Resolver{defaultCity: defaultCity}
}

// Resolve returns the tool call for one turn, or false when neither stage
// produced one. A miss is a normal outcome, not an error.
func (r *Resolver) Resolve(userInput, modelText string) (Resolution, bool) {
	if call, ok := ExtractCall(modelText); ok {
		return Resolution{Call: call, Source: model.SourceStructured}, true
	}
	if call, ok := r.Heuristic(userInput); ok {
		return Resolution{Call: call, Source: model.SourceHeuristic}, true
	}
	return Resolution{}, false
}

// ExtractCall finds the first plausible tool call object in text. A candidate
// is plausible when it is valid JSON with a non-empty string "name" and an
// "arguments" member that is an object, a string holding a JSON object, or
// null. Candidates that are
// not plausible are searched for nested calls before moving on.
func ExtractCall(text string) (model.ToolCall, bool) {
	return extract(text, 0)
}

func extract(text string, level int) (model.ToolCall, bool) {
	if level > MaxDepth {
		return model.ToolCall{}, false
	}
	for _, candidate := range Candidates(text) {
		if call, ok := parseCall(candidate); ok {
			return call, true
		}
		if call, ok := extract(candidate[1:len(candidate)-1], level+1); ok {
			return call, true
		}
	}
	return model.ToolCall{}, false
}

func parseCall(candidate string) (model.ToolCall, bool) {
	if !gjson.Valid(candidate) {
		return model.ToolCall{}, false
	}

	name := gjson.Get(candidate, "name")
	if name.Type != gjson.String || strings.TrimSpace(name.Str) == "" {
		return model.ToolCall{}, false
	}

	args, ok := parseArguments(gjson.Get(candidate, "arguments"))
	if !ok {
		return model.ToolCall{}, false
	}

	return model.ToolCall{Name: strings.TrimSpace(name.Str), Arguments: args}, true
}

func parseArguments(v gjson.Result) (map[string]any, bool) {
	if !v.Exists() {
		return nil, false
	}
	// An explicit null is a call without arguments.
	if v.Type == gjson.Null {
		return map[string]any{}, true
	}

	raw := v.Raw
	if v.Type == gjson.String {
		// Some models double-encode the arguments object.
		if !gjson.Valid(v.Str) || !gjson.Parse(v.Str).IsObject() {
			return nil, false
		}
		raw = v.Str
	} else if !v.IsObject() {
		return nil, false
	}

	args := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, false
	}
	return args, true
}

// Heuristic maps keywords in the user input to a call: "weather" asks for the
// weather in the city named after "in" (or the default city), "notify" or
// "alert" posts the input itself to general_alerts.
func (r *Resolver) Heuristic(userInput string) (model.ToolCall, bool) {
	lower := strings.ToLower(userInput)

	switch {
	case strings.Contains(lower, "weather"):
		return model.NewWeatherCall(r.cityFrom(userInput)), true
	case strings.Contains(lower, "notify"), strings.Contains(lower, "alert"):
		return model.NewNotificationCall(userInput, model.TopicGeneralAlerts), true
	default:
		return model.ToolCall{}, false
	}
}

func (r *Resolver) cityFrom(userInput string) string {
	m := cityPattern.FindStringSubmatch(userInput)
	if m == nil {
		return r.defaultCity
	}
	if city := strings.TrimSpace(m[1]); city != "" {
		return city
	}
	return r.defaultCity
}
