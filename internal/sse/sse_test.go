// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes the event-stream response body produced by the chat
// backend into text deltas.
package sse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// RECORD PARSER TESTS
// =============================================================================

func TestParseRecord_DataOnly(t *testing.T) {
	rec, err := ParseRecord(`data: {"delta":"Hi"}`)
	require.NoError(t, err)
	assert.Empty(t, rec.Event)
	assert.Equal(t, "Hi", ExtractText(rec.Data))
}

func TestParseRecord_MultipleDataLines(t *testing.T) {
	rec, err := ParseRecord("data: first\ndata: second")
	require.NoError(t, err)

	// Joined payload is not JSON, so it stays a raw string.
	payload, ok := rec.Data.(string)
	require.True(t, ok)
	assert.Equal(t, "first\nsecond", payload)
}

func TestParseRecord_EventNameOnly(t *testing.T) {
	rec, err := ParseRecord("event: complete")
	require.NoError(t, err)
	assert.Equal(t, "complete", rec.Event)
	assert.Nil(t, rec.Data)
}

func TestParseRecord_LastEventNameWins(t *testing.T) {
	rec, err := ParseRecord("event: first\nevent: second\ndata: x")
	require.NoError(t, err)
	assert.Equal(t, "second", rec.Event)
}

func TestParseRecord_IgnoresUnknownFields(t *testing.T) {
	rec, err := ParseRecord("id: 42\nretry: 1000\ndata: \"hello\"")
	require.NoError(t, err)
	assert.Equal(t, "hello", rec.Data)
}

func TestParseRecord_ErrorEvent(t *testing.T) {
	_, err := ParseRecord("event: error\ndata: {\"error\":\"boom\"}")

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "boom", perr.Detail)
}

func TestParseRecord_ErrorEventStringPayload(t *testing.T) {
	_, err := ParseRecord("event: error\ndata: \"it broke\"")

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "it broke", perr.Detail)
}

func TestParseRecord_ErrorEventOpaquePayload(t *testing.T) {
	_, err := ParseRecord("event: error\ndata: {\"code\":500}")

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, genericErrorDetail, perr.Detail)
}

func TestParseRecord_ErrorShapedPayloadWithoutEventName(t *testing.T) {
	_, err := ParseRecord(`data: {"error":"backend gone"}`)

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "backend gone", perr.Detail)
}

// =============================================================================
// PAYLOAD TEXT EXTRACTION TESTS
// =============================================================================

func TestExtractText_Shapes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "plain", "plain"},
		{"number", 42.0, ""},
		{"array concatenation", []any{"a", "b", "c"}, "abc"},
		{"delta key", map[string]any{"delta": "Hi"}, "Hi"},
		{"text key", map[string]any{"text": "Hi"}, "Hi"},
		{"key priority", map[string]any{"text": "second", "delta": "first"}, "first"},
		{"nested message", map[string]any{"message": map[string]any{"content": "Hi"}}, "Hi"},
		{"nested data", map[string]any{"data": map[string]any{"text": "deep"}}, "deep"},
		{"fallback candidate", map[string]any{"content": []any{"x", "y"}}, "xy"},
		{"message beats fallback", map[string]any{
			"content": []any{"fallback"},
			"message": map[string]any{"text": "direct"},
		}, "direct"},
		{"no text anywhere", map[string]any{"done": true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(tt.in))
		})
	}
}

// =============================================================================
// FRAME DECODER TESTS
// =============================================================================

// collect returns a handler that appends extracted text to out.
func collect(out *[]string) Handler {
	return func(rec *Record) error {
		*out = append(*out, ExtractText(rec.Data))
		return nil
	}
}

func TestFrameDecoder_SingleChunk(t *testing.T) {
	var got []string
	dec := NewFrameDecoder(collect(&got))

	require.NoError(t, dec.Feed([]byte("data: \"a\"\n\ndata: \"b\"\n\n")))
	require.NoError(t, dec.Flush())
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFrameDecoder_ChunkSplitIdempotence(t *testing.T) {
	input := "data: {\"delta\":\"Hello \"}\n\ndata: {\"delta\":\"world\"}\n\nevent: complete\n\n"

	// Reference: the whole stream in one chunk.
	var whole []string
	dec := NewFrameDecoder(collect(&whole))
	require.NoError(t, dec.Feed([]byte(input)))
	require.NoError(t, dec.Flush())

	// Every possible 1..N byte chunking must emit the identical sequence.
	for size := 1; size <= len(input); size++ {
		var got []string
		dec := NewFrameDecoder(collect(&got))
		for start := 0; start < len(input); start += size {
			end := start + size
			if end > len(input) {
				end = len(input)
			}
			require.NoError(t, dec.Feed([]byte(input[start:end])))
		}
		require.NoError(t, dec.Flush())
		assert.Equal(t, whole, got, "chunk size %d", size)
	}
}

func TestFrameDecoder_MultiByteCharacterSplitAcrossChunks(t *testing.T) {
	payload := "data: \"héllo ✓\"\n\n"
	raw := []byte(payload)

	// Split in the middle of the two-byte 'é'.
	split := bytes.IndexByte(raw, 0xc3) + 1

	var got []string
	dec := NewFrameDecoder(collect(&got))
	require.NoError(t, dec.Feed(raw[:split]))
	require.NoError(t, dec.Feed(raw[split:]))
	require.NoError(t, dec.Flush())

	require.Len(t, got, 1)
	assert.Equal(t, "héllo ✓", got[0])
}

func TestFrameDecoder_CRLFBoundaries(t *testing.T) {
	var got []string
	dec := NewFrameDecoder(collect(&got))

	require.NoError(t, dec.Feed([]byte("data: \"a\"\r\n\r\ndata: \"b\"\r\n\r\n")))
	require.NoError(t, dec.Flush())
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFrameDecoder_FlushEmitsTrailingRecord(t *testing.T) {
	var got []string
	dec := NewFrameDecoder(collect(&got))

	// No trailing blank-line boundary.
	require.NoError(t, dec.Feed([]byte("data: \"tail\"")))
	require.NoError(t, dec.Flush())
	assert.Equal(t, []string{"tail"}, got)
}

func TestFrameDecoder_FlushIgnoresWhitespaceTail(t *testing.T) {
	var got []string
	dec := NewFrameDecoder(collect(&got))

	require.NoError(t, dec.Feed([]byte("data: \"a\"\n\n  \n")))
	require.NoError(t, dec.Flush())
	assert.Equal(t, []string{"a"}, got)
}

func TestFrameDecoder_HandlerErrorStopsDecoding(t *testing.T) {
	sentinel := errors.New("stop")
	calls := 0
	dec := NewFrameDecoder(func(*Record) error {
		calls++
		return sentinel
	})

	err := dec.Feed([]byte("data: \"a\"\n\ndata: \"b\"\n\n"))
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)

	// Poisoned decoder refuses further input.
	assert.ErrorIs(t, dec.Feed([]byte("data: \"c\"\n\n")), io.ErrClosedPipe)
	assert.ErrorIs(t, dec.Flush(), io.ErrClosedPipe)
}

func TestFrameDecoder_Stream(t *testing.T) {
	var got []string
	dec := NewFrameDecoder(collect(&got))

	body := strings.NewReader("data: {\"delta\":\"Hi\"}\n\ndata: {\"delta\":\"!\"}\n\n")
	require.NoError(t, dec.Stream(context.Background(), body))
	assert.Equal(t, []string{"Hi", "!"}, got)
}

func TestFrameDecoder_StreamAbortsOnErrorEvent(t *testing.T) {
	var got []string
	dec := NewFrameDecoder(collect(&got))

	body := strings.NewReader("data: \"partial\"\n\nevent: error\ndata: {\"error\":\"boom\"}\n\ndata: \"never\"\n\n")
	err := dec.Stream(context.Background(), body)

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "boom", perr.Detail)
	// Deltas before the failure were applied; nothing after it.
	assert.Equal(t, []string{"partial"}, got)
}

func TestFrameDecoder_StreamHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dec := NewFrameDecoder(func(*Record) error { return nil })
	err := dec.Stream(ctx, strings.NewReader("data: \"a\"\n\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
