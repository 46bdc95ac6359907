// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes the event-stream response body produced by the chat
// backend into text deltas.
package sse

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

// =============================================================================
// RECORD TYPE
// =============================================================================

// Field markers recognized inside a record. Anything else (id:, retry:, ...)
// is ignored.
const (
	eventMarker = "event:"
	dataMarker  = "data:"
)

// eventError is the reserved event name that signals a server-side failure.
const eventError = "error"

// Record is one framed unit of the stream: an optional event name and a data
// payload. Data is nil when the record had no data lines, a string when the
// joined data lines were not valid JSON, and the decoded JSON value otherwise.
type Record struct {
	Event string
	Data  any
}

// Handler consumes one parsed record. Returning a non-nil error aborts the
// stream.
type Handler func(*Record) error

// =============================================================================
// RECORD PARSING
// =============================================================================

// ParseRecord parses one raw framed record (a run of lines with no blank-line
// separator inside it) into a Record. It returns a *ProtocolError when the
// record is the reserved "error" event or its payload carries an error detail
// object.
func ParseRecord(raw string) (*Record, error) {
	rec := &Record{}
	eventLines := 0
	var dataLines []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, eventMarker):
			// Last one wins. Multiple event lines in one record are unusual
			// input, not a merge: keep assignment semantics but warn.
			rec.Event = trimFieldValue(line[len(eventMarker):])
			eventLines++
		case strings.HasPrefix(line, dataMarker):
			dataLines = append(dataLines, trimFieldValue(line[len(dataMarker):]))
		}
	}

	if eventLines > 1 {
		log.Warn().
			Str("component", "sse").
			Int("event_lines", eventLines).
			Str("event", rec.Event).
			Msg("record carried multiple event lines; using the last")
	}

	payload := strings.Join(dataLines, "\n")
	if payload != "" {
		var decoded any
		if err := json.Unmarshal([]byte(payload), &decoded); err == nil {
			rec.Data = decoded
		} else {
			rec.Data = payload
		}
	}

	if err := checkErrorEvent(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// trimFieldValue strips the single optional space that event-stream producers
// put after the field colon.
func trimFieldValue(v string) string {
	return strings.TrimPrefix(v, " ")
}

// checkErrorEvent detects the reserved "error" event, or a bare payload of
// the same shape, and converts it into a ProtocolError.
func checkErrorEvent(rec *Record) error {
	isErrorShape := false
	if rec.Event == "" {
		if obj, ok := rec.Data.(map[string]any); ok {
			_, isErrorShape = obj["error"].(string)
		}
	}
	if rec.Event != eventError && !isErrorShape {
		return nil
	}
	return &ProtocolError{Detail: errorDetail(rec.Data)}
}

// errorDetail pulls a human-readable message out of an error payload: the
// payload itself when it is a string, its "error" field when it is an object
// with a string there, a generic fallback otherwise.
func errorDetail(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["error"].(string); ok {
			return msg
		}
	}
	return genericErrorDetail
}
