// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/crashchat/internal/model"
)

func sampleConversation() *model.Conversation {
	conv := model.NewConversation()
	conv.AddUserMessage("Tell me about **pedestrian** crashes")
	msg := conv.AddAssistantMessage()
	msg.AppendDelta("There were **312** incidents.\n\n")
	msg.AppendDelta("See [the dashboard](https://example.com/dash) for details.")
	msg.FinalizeStream()
	return conv
}

// =============================================================================
// HTML EXPORT
// =============================================================================

func TestHTMLExporter_RendersMarkdownBodies(t *testing.T) {
	content, err := NewHTMLExporter(nil).Export(sampleConversation())
	require.NoError(t, err)

	out := string(content)
	assert.Contains(t, out, "<strong>312</strong>")
	assert.Contains(t, out, `<a href="https://example.com/dash"`)
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "dark-theme")
}

func TestHTMLExporter_EscapesScriptInContent(t *testing.T) {
	conv := model.NewConversation()
	conv.AddUserMessage(`<script>alert("xss")</script>`)

	content, err := NewHTMLExporter(nil).Export(conv)
	require.NoError(t, err)

	out := string(content)
	assert.NotContains(t, out, `<script>alert`)
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestHTMLExporter_EmptyConversation(t *testing.T) {
	_, err := NewHTMLExporter(nil).Export(model.NewConversation())
	assert.Error(t, err)

	_, err = NewHTMLExporter(nil).Export(nil)
	assert.Error(t, err)
}

func TestHTMLExporter_ErrorBadge(t *testing.T) {
	conv := model.NewConversation()
	conv.AddUserMessage("q")
	msg := conv.AddAssistantMessage()
	msg.AppendDelta("partial answer")
	msg.MarkError()

	content, err := NewHTMLExporter(nil).Export(conv)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[Interrupted]")
}

// =============================================================================
// MARKDOWN EXPORT
// =============================================================================

func TestMarkdownExporter_Transcript(t *testing.T) {
	content, err := NewMarkdownExporter(nil).Export(sampleConversation())
	require.NoError(t, err)

	out := string(content)
	assert.True(t, strings.HasPrefix(out, "---\n"), "frontmatter expected")
	assert.Contains(t, out, "### You")
	assert.Contains(t, out, "### Assistant")
	assert.Contains(t, out, "There were **312** incidents.")
}

// =============================================================================
// FILE EXPORT
// =============================================================================

func TestExportToFile_WritesHTML(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportHTML(sampleConversation(), opts)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".html"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<strong>pedestrian</strong>")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
	assert.Equal(t, "conversation", sanitizeFilename(""))
}
