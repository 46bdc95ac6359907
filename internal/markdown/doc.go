// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts assistant message text into sanitized HTML.
//
// The renderer is two-pass: a block-level scanner partitions the input into
// structural units (paragraphs, headings, lists, blockquotes, fenced code,
// rules), then an inline transformer rewrites each unit's text (code spans,
// images, links, autolinks, emphasis, backslash escapes). Fully-formed HTML
// fragments are swapped for sentinel placeholders so that later passes cannot
// re-process them; a final substitution restores them.
//
// # Key Types
//
//   - Renderer: converts one text to one HTML string per call
//   - Options: opt-in chroma syntax highlighting for fenced code blocks
//
// # Usage
//
//	html := markdown.Render("**bold** and `code`")
//	// => <p><strong>bold</strong> and <code>code</code></p>
//
// Render never fails. URL sanitization rejections degrade to plain escaped
// text, and every literal <, >, &, ", ' outside the tags the renderer emits
// itself is escaped, so the output is safe to hand to a display surface.
package markdown
