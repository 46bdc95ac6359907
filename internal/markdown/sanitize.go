// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts assistant message text into sanitized HTML.
package markdown

import "strings"

// =============================================================================
// URL SANITIZATION
// =============================================================================

// blockedSchemes are rejected case-insensitively: script-execution schemes
// and data URIs, either of which would turn a link into an injection vector.
var blockedSchemes = []string{"javascript:", "vbscript:", "data:"}

// SanitizeURL validates a candidate link or image target. It rejects empty
// values, blocked schemes, and protocol-relative prefixes. Everything else
// passes through unchanged: relative paths, https, mailto, and schemes not
// explicitly blocked are deliberately allowed.
func SanitizeURL(raw string) (string, bool) {
	url := strings.TrimSpace(raw)
	if url == "" {
		return "", false
	}
	lower := strings.ToLower(url)
	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}
	if strings.HasPrefix(url, "//") {
		return "", false
	}
	return url, true
}
