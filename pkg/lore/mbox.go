// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lore

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedMbox is returned when an archive payload cannot be
// decompressed or split into messages.
var ErrMalformedMbox = errors.New("malformed mbox archive")

var mboxBoundary = []byte("From ")

// SplitMboxGz decompresses a gzipped mbox (the t.mbox.gz payload served
// by public-inbox) and returns the raw RFC822 messages it contains.
func SplitMboxGz(data []byte) ([][]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrMalformedMbox, err)
	}
	defer gz.Close()
	return SplitMbox(gz)
}

// SplitMbox splits a plain mbox stream into messages. Only lines that
// start with `From ` at column zero are boundaries; everything between
// them is returned byte for byte, so quoted `>From ` lines and line
// endings pass through untouched.
func SplitMbox(r io.Reader) ([][]byte, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMbox, err)
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil, nil
	}

	var msgs [][]byte
	var cur []byte
	inMessage := false
	flush := func() {
		if inMessage && len(bytes.TrimSpace(cur)) > 0 {
			msgs = append(msgs, cur)
		}
		cur = nil
	}
	for len(buf) > 0 {
		line := buf
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			line, buf = buf[:i+1], buf[i+1:]
		} else {
			buf = nil
		}
		if bytes.HasPrefix(line, mboxBoundary) {
			flush()
			inMessage = true
			continue
		}
		if inMessage {
			cur = append(cur, line...)
		}
	}
	flush()

	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: no message boundary found", ErrMalformedMbox)
	}
	return msgs, nil
}
