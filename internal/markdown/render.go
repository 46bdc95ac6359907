// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts assistant message text into sanitized HTML.
package markdown

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// RENDERER
// =============================================================================

// maxNestDepth caps recursive block parsing inside blockquotes. Deeper quote
// markers are treated as literal paragraph text.
const maxNestDepth = 16

// Options configures rendering.
type Options struct {
	// HighlightCode enables chroma syntax highlighting for fenced code
	// blocks carrying a known language tag. When off (the default), fenced
	// content is HTML-escaped verbatim.
	HighlightCode bool

	// CodeStyle is the chroma style name used when HighlightCode is on
	// (default: "monokai").
	CodeStyle string
}

// Renderer converts plain text to sanitized HTML. It is stateless between
// calls and safe for concurrent use; each Render call owns a fresh
// placeholder vault.
type Renderer struct {
	opts Options
}

// New creates a renderer with the given options.
func New(opts Options) *Renderer {
	if opts.CodeStyle == "" {
		opts.CodeStyle = "monokai"
	}
	return &Renderer{opts: opts}
}

// Render converts text with default options.
func Render(text string) string {
	return New(Options{}).Render(text)
}

// Render converts one text to one HTML string. It never fails: sanitization
// rejections degrade to escaped plain text.
func (r *Renderer) Render(text string) string {
	v := &vault{}
	text = sentinelStripper.Replace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	out := r.renderBlocks(strings.Split(text, "\n"), v, 0)
	return v.restore(out)
}

// =============================================================================
// BLOCK GRAMMAR
// =============================================================================

var (
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	rulePattern    = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
	quotePattern   = regexp.MustCompile(`^ {0,3}> ?`)
	bulletPattern  = regexp.MustCompile(`^ {0,3}[-*+]\s+(.*)$`)
	orderedPattern = regexp.MustCompile(`^ {0,3}\d+[.)]\s+(.*)$`)
)

const fenceMarker = "```"

// renderBlocks scans lines with a non-decreasing cursor; each construct
// consumes a contiguous run and advances past it. Lines matching nothing
// start a paragraph run.
func (r *Renderer) renderBlocks(lines []string, v *vault, depth int) string {
	var blocks []string
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		var block string
		switch {
		case trimmed == "":
			i++
			continue
		case strings.HasPrefix(line, fenceMarker):
			block, i = r.renderFence(lines, i, v)
		case headingPattern.MatchString(line):
			block, i = r.renderHeading(line, i, v)
		case rulePattern.MatchString(trimmed):
			block, i = "<hr>", i+1
		case quotePattern.MatchString(line):
			block, i = r.renderQuote(lines, i, v, depth)
		case bulletPattern.MatchString(line):
			block, i = r.renderList(lines, i, v, bulletPattern, "ul")
		case orderedPattern.MatchString(line):
			block, i = r.renderList(lines, i, v, orderedPattern, "ol")
		default:
			block, i = r.renderParagraph(lines, i, v)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n")
}

// startsBlock reports whether a line opens a non-paragraph construct,
// terminating a paragraph run.
func startsBlock(line string) bool {
	if strings.HasPrefix(line, fenceMarker) {
		return true
	}
	return headingPattern.MatchString(line) ||
		rulePattern.MatchString(strings.TrimSpace(line)) ||
		quotePattern.MatchString(line) ||
		bulletPattern.MatchString(line) ||
		orderedPattern.MatchString(line)
}

// renderFence consumes a fenced code block: everything after the opening
// marker line, verbatim, until a closing fence or end of input. The whole
// fragment is placeholder-protected so later passes cannot alter it.
func (r *Renderer) renderFence(lines []string, i int, v *vault) (string, int) {
	lang := strings.TrimSpace(lines[i][len(fenceMarker):])
	i++
	var content []string
	for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), fenceMarker) {
		content = append(content, lines[i])
		i++
	}
	if i < len(lines) {
		i++ // closing fence
	}
	source := strings.Join(content, "\n")

	if r.opts.HighlightCode && lang != "" {
		if highlighted, ok := highlightCode(source, lang, r.opts.CodeStyle); ok {
			return v.store(highlighted), i
		}
	}

	var sb strings.Builder
	sb.WriteString("<pre><code")
	if lang != "" {
		sb.WriteString(` class="language-` + html.EscapeString(lang) + `"`)
	}
	sb.WriteString(">")
	sb.WriteString(html.EscapeString(source))
	sb.WriteString("</code></pre>")
	return v.store(sb.String()), i
}

// renderHeading emits h1..h6 from the marker count.
func (r *Renderer) renderHeading(line string, i int, v *vault) (string, int) {
	m := headingPattern.FindStringSubmatch(line)
	level := strconv.Itoa(len(m[1]))
	return "<h" + level + ">" + r.renderInline(m[2], v) + "</h" + level + ">", i + 1
}

// renderQuote consumes a contiguous run of quoted lines, strips the marker,
// and recursively block-parses the dedented content, so quotes may contain
// any construct including nested quotes. Nesting past maxNestDepth falls back
// to paragraph text.
func (r *Renderer) renderQuote(lines []string, i int, v *vault, depth int) (string, int) {
	var inner []string
	for i < len(lines) && quotePattern.MatchString(lines[i]) {
		inner = append(inner, quotePattern.ReplaceAllString(lines[i], ""))
		i++
	}

	var body string
	if depth < maxNestDepth {
		body = r.renderBlocks(inner, v, depth+1)
	} else {
		text := r.renderInline(strings.Join(inner, "\n"), v)
		body = "<p>" + strings.ReplaceAll(text, "\n", "<br>") + "</p>"
	}
	return "<blockquote>" + body + "</blockquote>", i
}

// renderList consumes a contiguous run of list items. Item text is
// inline-rendered as a flat string; items do not nest block content.
func (r *Renderer) renderList(lines []string, i int, v *vault, pattern *regexp.Regexp, tag string) (string, int) {
	var sb strings.Builder
	sb.WriteString("<" + tag + ">")
	for i < len(lines) && pattern.MatchString(lines[i]) {
		m := pattern.FindStringSubmatch(lines[i])
		sb.WriteString("<li>" + r.renderInline(m[1], v) + "</li>")
		i++
	}
	sb.WriteString("</" + tag + ">")
	return sb.String(), i
}

// renderParagraph consumes unmatched lines until a blank line or the start of
// another construct, inline-renders the run as one unit, and inserts a break
// at each original line boundary.
func (r *Renderer) renderParagraph(lines []string, i int, v *vault) (string, int) {
	var run []string
	for i < len(lines) && strings.TrimSpace(lines[i]) != "" && !startsBlock(lines[i]) {
		run = append(run, lines[i])
		i++
	}
	text := r.renderInline(strings.Join(run, "\n"), v)
	return "<p>" + strings.ReplaceAll(text, "\n", "<br>") + "</p>", i
}
