// Package json provides JSON extraction utilities for parsing LLM responses.
//
// Models often return JSON embedded in prose or wrapped in markdown fences.
// This package pulls the object out of such responses on a best-effort basis.
package json

import (
	"encoding/json"
	"strings"
)

// ObjectFromResponse extracts a JSON object from an LLM response.
// It handles common response patterns:
// 1. Pure JSON response - parsed as-is
// 2. JSON wrapped in markdown code blocks (```json ... ```)
// 3. JSON object embedded in text - first '{' through last '}'
//
// Returns nil when no parseable object is found. An absent object is an
// expected outcome for free-text model replies, not an error.
func ObjectFromResponse(response string) map[string]any {
	jsonStr, ok := extractJSON(response)
	if !ok {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		return nil
	}
	return obj
}

// extractJSON finds the JSON portion of a response string.
//
// Limitations:
// - Only handles JSON objects, not arrays
// - Uses simple brace matching, not full JSON parsing
// - May fail if braces appear in strings or are unbalanced
func extractJSON(response string) (string, bool) {
	// Strip markdown code blocks if present
	response = stripMarkdownCodeBlocks(response)

	// Try full response first
	var test any
	if err := json.Unmarshal([]byte(response), &test); err == nil {
		return response, true
	}

	// Fall back to the first '{' .. last '}' substring
	start := strings.Index(response, "{")
	if start != -1 {
		end := strings.LastIndex(response, "}")
		if end != -1 && end > start {
			jsonStr := response[start : end+1]
			var test any
			if err := json.Unmarshal([]byte(jsonStr), &test); err == nil {
				return jsonStr, true
			}
		}
	}

	return "", false
}

// stripMarkdownCodeBlocks removes markdown code block markers from a response.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimSpace(trimmed)
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}
