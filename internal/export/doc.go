// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations to standalone files.
//
// # Supported Formats
//
//   - HTML: self-contained document with embedded CSS; message bodies go
//     through the markdown renderer, so script injection attempts in chat
//     content arrive escaped
//   - Markdown: human-readable transcript with YAML frontmatter
//
// # Usage
//
//	path, err := export.ExportHTML(conversation, export.DefaultOptions())
//
// Files are written atomically; an interrupted export never leaves a
// half-written file behind.
package export
