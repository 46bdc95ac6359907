// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes the event-stream response body produced by the chat
// backend into text deltas.
package sse

import "strings"

// =============================================================================
// PAYLOAD TEXT EXTRACTION
// =============================================================================

// textKeys are the object fields that may carry a text delta, in priority
// order. The first key whose value is a string wins outright; keys present
// with a non-string value are kept as fallback candidates in the same order.
var textKeys = [...]string{"delta", "text", "content", "output", "value"}

// ExtractText pulls the text delta out of a polymorphic payload value.
// It never fails: payloads with no recognizable text yield the empty string,
// which the caller treats as a no-op delta for that record.
func ExtractText(data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		var sb strings.Builder
		for _, elem := range v {
			sb.WriteString(ExtractText(elem))
		}
		return sb.String()
	case map[string]any:
		return extractFromObject(v)
	default:
		// Numbers, booleans and other scalars carry no text.
		return ""
	}
}

// extractFromObject applies the priority rules for object payloads: direct
// string hit on a known key, then nested "message", then nested "data", then
// queued non-string candidates in key order.
func extractFromObject(obj map[string]any) string {
	var fallbacks []any
	for _, key := range textKeys {
		val, ok := obj[key]
		if !ok {
			continue
		}
		if s, isStr := val.(string); isStr {
			return s
		}
		fallbacks = append(fallbacks, val)
	}

	if msg, ok := obj["message"]; ok {
		if s := ExtractText(msg); s != "" {
			return s
		}
	}
	if nested, ok := obj["data"]; ok {
		if s := ExtractText(nested); s != "" {
			return s
		}
	}
	for _, candidate := range fallbacks {
		if s := ExtractText(candidate); s != "" {
			return s
		}
	}
	return ""
}
