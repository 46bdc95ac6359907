// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the HTTP client and session orchestration for the
// chat backend.
//
// # Architecture
//
// Client handles the wire protocol: prompt submission (POST /api/chat, which
// streams the reply as framed event records), history retrieval (GET
// /api/chat), session cookie management, and client-side rate limiting.
//
// Session sits above Client and owns the conversation: it appends the user
// prompt, streams deltas into an assistant message, and re-renders markdown
// to HTML after each delta so callers can repaint incrementally.
//
// # Usage
//
//	client := chat.NewClient()
//	session := chat.NewSession(client, markdown.New(markdown.Options{}))
//
//	msg, err := session.Ask(ctx, "hello", func(m *model.Message, html string) {
//	    repaint(html)
//	})
//
// # Error Handling
//
// Transport and protocol failures surface as *ClientError with a Type for
// programmatic handling; a server-sent error event surfaces as
// *sse.ProtocolError. In both cases the partial assistant message is kept
// and marked with HasError.
package chat
