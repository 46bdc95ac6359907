// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes the event-stream response body produced by the chat
// backend into text deltas.
//
// The stream is a sequence of records separated by a blank line. Each record
// carries an optional "event:" name and zero or more "data:" lines whose
// remainders form the payload. Other event-stream field types (id, retry)
// are ignored.
//
// # Key Types
//
//   - FrameDecoder: reassembles framed records from arbitrarily-split byte
//     chunks, preserving partial UTF-8 sequences across chunk boundaries
//   - Record: one parsed record (event name plus raw or JSON-decoded payload)
//   - ProtocolError: raised for the reserved "error" event, aborts the stream
//
// # Usage
//
// Feed chunks as they arrive and flush at end of stream:
//
//	dec := sse.NewFrameDecoder(func(rec *sse.Record) error {
//	    fmt.Print(sse.ExtractText(rec.Data))
//	    return nil
//	})
//	for chunk := range chunks {
//	    if err := dec.Feed(chunk); err != nil {
//	        return err
//	    }
//	}
//	return dec.Flush()
//
// Or let the decoder drive the read loop from an io.Reader:
//
//	err := dec.Stream(ctx, resp.Body)
//
// A non-nil error returned by the handler (including the ProtocolError the
// parser raises for "error" events) stops decoding immediately; no further
// chunks are processed.
package sse
