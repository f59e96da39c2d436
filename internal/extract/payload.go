package extract

import (
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"otto/internal/jsonx"
)

var (
	jsonFenceRe = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	anyFenceRe  = regexp.MustCompile("```\\s*([\\s\\S]*?)\\s*```")
)

// Payload extracts the JSON document an agent embedded in its reply text,
// unwrapping markdown code fences when present. The second return is false
// when the reply holds no parseable JSON, even after a repair pass.
func Payload(raw any) (jsonx.RawMessage, bool) {
	text := Text(raw)
	if text == "" {
		return nil, false
	}

	candidate := text
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if m := anyFenceRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, false
	}
	// Prose replies are not payloads; a repair pass would happily quote
	// arbitrary text into a JSON string, so gate on a document opener.
	if candidate[0] != '{' && candidate[0] != '[' {
		return nil, false
	}

	if jsonx.Valid([]byte(candidate)) {
		return jsonx.RawMessage(candidate), true
	}
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil || !jsonx.Valid([]byte(repaired)) {
		return nil, false
	}
	return jsonx.RawMessage(repaired), true
}
