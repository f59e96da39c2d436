// Package extract converts raw agent responses into structured records.
//
// Agents reply with free-form natural language wrapped in a JSON-RPC
// envelope; nothing about the shape is guaranteed. Every function in this
// package is total: unrecognized input degrades to an empty result or a
// verbatim fallback entry, never an error.
package extract

import (
	"strings"

	"otto/internal/jsonx"
)

// textRule probes one known envelope shape for the embedded reply text.
// Rules run in declaration order; the first hit wins.
type textRule struct {
	name string
	fn   func(map[string]any) (string, bool)
}

var textRules = []textRule{
	{"status-message", statusMessageText},
	{"artifact", artifactText},
}

// Text locates the natural-language reply inside a raw agent response.
// It returns the empty string when no recognized shape matches.
func Text(raw any) string {
	switch v := decode(raw).(type) {
	case string:
		return v
	case map[string]any:
		for _, rule := range textRules {
			if text, ok := rule.fn(v); ok {
				return text
			}
		}
	}
	return ""
}

// result.status.message.parts[].text
func statusMessageText(m map[string]any) (string, bool) {
	result, ok := childMap(m, "result")
	if !ok {
		return "", false
	}
	status, ok := childMap(result, "status")
	if !ok {
		return "", false
	}
	message, ok := childMap(status, "message")
	if !ok {
		return "", false
	}
	return firstPartText(message["parts"])
}

// result.artifacts[].parts[].text
func artifactText(m map[string]any) (string, bool) {
	result, ok := childMap(m, "result")
	if !ok {
		return "", false
	}
	artifacts, ok := result["artifacts"].([]any)
	if !ok {
		return "", false
	}
	for _, artifact := range artifacts {
		am, ok := artifact.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := firstPartText(am["parts"]); ok {
			return text, true
		}
	}
	return "", false
}

func firstPartText(parts any) (string, bool) {
	list, ok := parts.([]any)
	if !ok {
		return "", false
	}
	for _, part := range list {
		pm, ok := part.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := pm["text"].(string); ok && text != "" {
			return text, true
		}
	}
	return "", false
}

func childMap(m map[string]any, key string) (map[string]any, bool) {
	child, ok := m[key].(map[string]any)
	return child, ok
}

// decode normalizes raw inputs: byte payloads are unmarshalled, everything
// else passes through. Undecodable bytes are treated as plain reply text.
func decode(raw any) any {
	switch v := raw.(type) {
	case jsonx.RawMessage:
		return decodeBytes(v)
	case []byte:
		return decodeBytes(v)
	default:
		return raw
	}
}

func decodeBytes(b []byte) any {
	var v any
	if err := jsonx.Unmarshal(b, &v); err != nil {
		return strings.TrimSpace(string(b))
	}
	return v
}
