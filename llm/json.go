package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// StripCodeFence removes a surrounding ``` or ```json fence from model output.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractObject returns the outermost {...} span of s, or s when there is none.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// DecodeJSON unmarshals JSON produced by a model into v. Code fences and
// surrounding prose are dropped, and malformed JSON is repaired before a
// second attempt.
func DecodeJSON(text string, v any) error {
	s := StripCodeFence(text)
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	s = extractObject(s)
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return fmt.Errorf("repair model json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode repaired json %q: %w", repaired, err)
	}
	return nil
}
