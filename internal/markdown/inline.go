// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts assistant message text into sanitized HTML.
package markdown

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// INLINE GRAMMAR
// =============================================================================

var (
	codeSpanPattern = regexp.MustCompile("`([^`\n]+)`")
	imagePattern    = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
	linkPattern     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]*)\)`)
	autolinkPattern = regexp.MustCompile(`(^|[\s(])((?:https?|mailto):[^\s<]+)`)
	escapePattern   = regexp.MustCompile("\\\\([\\\\`*_{}\\[\\]()#+\\-.!~|])")
)

// renderInline applies the inline rules in fixed order. The order is
// load-bearing: code spans are protected before any other rule can mistake
// their payload for markup, URLs are handled before the escape pass so their
// fragments are placeholder-protected exactly once, and escaping runs before
// emphasis so emphasis never wraps raw markup.
func (r *Renderer) renderInline(text string, v *vault) string {
	text = r.protectCodeSpans(text, v)
	text = r.renderImages(text, v)
	text = r.renderLinks(text, v)
	text = r.renderAutolinks(text, v)
	text = html.EscapeString(text)
	text = applySpan(text, "~~", "del")
	text = applySpan(text, "**", "strong")
	text = applySpan(text, "*", "em")
	text = escapePattern.ReplaceAllString(text, "$1")
	return text
}

// protectCodeSpans escapes and vaults inline code before anything else runs.
func (r *Renderer) protectCodeSpans(text string, v *vault) string {
	return codeSpanPattern.ReplaceAllStringFunc(text, func(m string) string {
		inner := m[1 : len(m)-1]
		return v.store("<code>" + html.EscapeString(inner) + "</code>")
	})
}

// renderImages emits a protected <img> for accepted targets; rejected targets
// degrade to the alt text, which the later escape pass covers.
func (r *Renderer) renderImages(text string, v *vault) string {
	return imagePattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := imagePattern.FindStringSubmatch(m)
		alt, target := parts[1], parts[2]
		url, ok := SanitizeURL(target)
		if !ok {
			return alt
		}
		return v.store(`<img src="` + html.EscapeString(url) + `" alt="` + html.EscapeString(alt) + `">`)
	})
}

// renderLinks inline-renders the label first (sharing the vault), then wraps
// it in a protected anchor. On rejection the markup is dropped and only the
// rendered label remains; the label is vaulted either way because it has
// already been through the escape pass.
func (r *Renderer) renderLinks(text string, v *vault) string {
	return linkPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := linkPattern.FindStringSubmatch(m)
		label := r.renderInline(parts[1], v)
		url, ok := SanitizeURL(parts[2])
		if !ok {
			return v.store(label)
		}
		return v.store(`<a href="` + html.EscapeString(url) + `">` + label + `</a>`)
	})
}

// renderAutolinks wraps bare http/https/mailto URLs bounded by start of
// text, whitespace, or an open parenthesis. Trailing closing punctuation is
// left outside the link.
func (r *Renderer) renderAutolinks(text string, v *vault) string {
	return autolinkPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := autolinkPattern.FindStringSubmatch(m)
		prefix, url := parts[1], parts[2]
		trimmed := strings.TrimRight(url, `.,;:!?)]'"`)
		tail := url[len(trimmed):]
		escaped := html.EscapeString(trimmed)
		return prefix + v.store(`<a href="`+escaped+`">`+escaped+`</a>`) + tail
	})
}

// =============================================================================
// EMPHASIS SPANS
// =============================================================================

// applySpan wraps marker-delimited runs in the given tag. Both ends carry a
// boundary guard so mid-word markers (file*name*, 2*3) never misfire: the
// opener must follow start-of-text, whitespace, or a quote-like character,
// and the closer must precede end-of-text, whitespace, or punctuation. The
// content may not begin or end with whitespace.
func applySpan(s, marker, tag string) string {
	var sb strings.Builder
	mlen := len(marker)
	i := 0
	for i < len(s) {
		if strings.HasPrefix(s[i:], marker) && openerBoundary(s, i) {
			if j := findSpanClose(s, i+mlen, marker); j >= 0 {
				sb.WriteString("<" + tag + ">" + s[i+mlen:j] + "</" + tag + ">")
				i = j + mlen
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

// findSpanClose locates the closing marker for a span opened just before
// start, or -1 when no boundary-respecting closer exists.
func findSpanClose(s string, start int, marker string) int {
	if start >= len(s) || s[start] == ' ' || s[start] == '\n' {
		return -1
	}
	for j := start + 1; j+len(marker) <= len(s); j++ {
		if !strings.HasPrefix(s[j:], marker) {
			continue
		}
		if s[j-1] == ' ' || s[j-1] == '\n' {
			continue
		}
		if closerBoundary(s, j+len(marker)) {
			return j
		}
	}
	return -1
}

// openerBoundary: start-of-text, whitespace, or quote-like before the opener.
func openerBoundary(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsSpace(r) || r == '"' || r == '\'' || r == '(' ||
		r == '‘' || r == '’' || r == '“' || r == '”'
}

// closerBoundary: end-of-text, whitespace, or punctuation after the closer.
// A placeholder sentinel also counts, so a span can butt against a protected
// fragment.
func closerBoundary(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r) || unicode.IsPunct(r) || r == rune(sentinelOpen[0])
}
