// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes the event-stream response body produced by the chat
// backend into text deltas.
package sse

import (
	"context"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// FRAME DECODER
// =============================================================================

// recordBoundary separates framed records: two consecutive line terminators,
// with either bare LF or CRLF line endings.
var recordBoundary = regexp.MustCompile("\r?\n\r?\n")

// streamReadSize is the chunk size used by Stream's read loop.
const streamReadSize = 4096

// FrameDecoder consumes raw byte chunks of a response body and emits complete
// records to its handler. Chunks may be split anywhere, including inside a
// multi-byte character: decoding is incremental and carries partial sequences
// over to the next chunk.
//
// A FrameDecoder is single-use and not safe for concurrent use; create one
// per response body.
type FrameDecoder struct {
	handler Handler
	utf8    transform.Transformer
	carry   []byte // undecoded trailing bytes of the previous chunk
	buf     string // decoded text not yet resolved into a complete record
	failed  bool
}

// NewFrameDecoder creates a decoder that delivers each complete record to
// handler, in network arrival order.
func NewFrameDecoder(handler Handler) *FrameDecoder {
	return &FrameDecoder{
		handler: handler,
		utf8:    unicode.UTF8.NewDecoder(),
	}
}

// Feed appends one chunk and emits every complete record now present in the
// buffer. The first error returned by record parsing or the handler poisons
// the decoder: further Feed and Flush calls return io.ErrClosedPipe.
func (d *FrameDecoder) Feed(chunk []byte) error {
	if d.failed {
		return io.ErrClosedPipe
	}
	d.buf += d.decode(chunk, false)
	return d.drain()
}

// Flush signals end of stream. Any remaining non-whitespace buffered content
// is emitted as one final record even without a trailing boundary.
func (d *FrameDecoder) Flush() error {
	if d.failed {
		return io.ErrClosedPipe
	}
	d.buf += d.decode(nil, true)
	if err := d.drain(); err != nil {
		return err
	}
	tail := d.buf
	d.buf = ""
	if strings.TrimSpace(tail) == "" {
		return nil
	}
	return d.emit(tail)
}

// Stream drives the read loop itself: it reads chunks from r until EOF,
// feeding each one, then flushes. Any error aborts the read immediately.
func (d *FrameDecoder) Stream(ctx context.Context, r io.Reader) error {
	chunk := make([]byte, streamReadSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.Read(chunk)
		if n > 0 {
			if feedErr := d.Feed(chunk[:n]); feedErr != nil {
				return feedErr
			}
		}
		if err == io.EOF {
			return d.Flush()
		}
		if err != nil {
			return err
		}
	}
}

// decode converts raw bytes to text, keeping any trailing partial UTF-8
// sequence buffered until the next chunk (or replacing it at end of stream).
func (d *FrameDecoder) decode(chunk []byte, atEOF bool) string {
	src := chunk
	if len(d.carry) > 0 {
		src = append(d.carry, chunk...)
		d.carry = nil
	}
	if len(src) == 0 {
		return ""
	}

	var out strings.Builder
	dst := make([]byte, len(src)+utf8.UTFMax)
	for {
		nDst, nSrc, err := d.utf8.Transform(dst, src, atEOF)
		out.Write(dst[:nDst])
		src = src[nSrc:]
		if err == transform.ErrShortDst {
			continue
		}
		if err == transform.ErrShortSrc {
			d.carry = append([]byte(nil), src...)
		}
		return out.String()
	}
}

// drain splits off and emits every complete record in the buffer. Afterwards
// the buffer holds no unconsumed record boundary.
func (d *FrameDecoder) drain() error {
	for {
		loc := recordBoundary.FindStringIndex(d.buf)
		if loc == nil {
			return nil
		}
		raw := d.buf[:loc[0]]
		d.buf = d.buf[loc[1]:]
		if err := d.emit(raw); err != nil {
			return err
		}
	}
}

// emit parses one raw record and hands it to the handler.
func (d *FrameDecoder) emit(raw string) error {
	rec, err := ParseRecord(raw)
	if err != nil {
		d.failed = true
		return err
	}
	if err := d.handler(rec); err != nil {
		d.failed = true
		return err
	}
	return nil
}
