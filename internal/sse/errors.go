// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes the event-stream response body produced by the chat
// backend into text deltas.
package sse

// =============================================================================
// ERROR TYPES
// =============================================================================

// ProtocolError is raised when the stream carries an explicit "error" event.
// It is fatal: decoding stops and the underlying read is cancelled.
type ProtocolError struct {
	// Detail is the error message extracted from the event payload.
	Detail string
}

func (e *ProtocolError) Error() string {
	return "stream error event: " + e.Detail
}

// genericErrorDetail is used when an error payload carries no usable message.
const genericErrorDetail = "the server reported an error"
