// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts assistant message text into sanitized HTML.
package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// PLACEHOLDER VAULT
// =============================================================================

// Sentinel boundary markers. Both are non-printable controls that never occur
// in ordinary text; Render strips them from the input before any pass runs,
// so a sentinel in the working string always refers to a stored fragment.
const (
	sentinelOpen  = "\x00"
	sentinelClose = "\x01"
)

// sentinelPattern matches one full sentinel token.
var sentinelPattern = regexp.MustCompile(sentinelOpen + `(\d+)` + sentinelClose)

// sentinelStripper removes reserved markers from untrusted input.
var sentinelStripper = strings.NewReplacer(sentinelOpen, "", sentinelClose, "")

// vault holds the opaque HTML fragments of one top-level render call. Indices
// are assigned densely in encounter order and never reused; every recursive
// block/inline call shares the same vault, and restore runs exactly once at
// the end of the top-level call.
type vault struct {
	frags []string
}

// store appends a fragment and returns its sentinel token.
func (v *vault) store(html string) string {
	v.frags = append(v.frags, html)
	return sentinelOpen + strconv.Itoa(len(v.frags)-1) + sentinelClose
}

// restore replaces every sentinel occurrence with its stored fragment.
// Fragments may themselves embed sentinels of earlier-stored fragments (an
// anchor wrapping a protected code span, for instance), so substitution
// repeats until none remain. Embedding is acyclic, so this terminates.
func (v *vault) restore(s string) string {
	for strings.Contains(s, sentinelOpen) {
		replaced := sentinelPattern.ReplaceAllStringFunc(s, func(token string) string {
			idx, err := strconv.Atoi(token[1 : len(token)-1])
			if err != nil || idx >= len(v.frags) {
				return ""
			}
			return v.frags[idx]
		})
		if replaced == s {
			break
		}
		s = replaced
	}
	return s
}
