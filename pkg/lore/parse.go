// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-message"
	// Registers decoders for the long tail of legacy charsets seen on LKML.
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// ErrUnparseableMessage is returned when a message cannot be identified:
// without a Message-Id it can be neither threaded nor referenced.
var ErrUnparseableMessage = errors.New("unparseable message")

// Message is one email from an archive, immutable once constructed.
// Search results produce metadata-only messages with an empty body.
type Message struct {
	ID         string    `json:"message_id"`
	InReplyTo  string    `json:"in_reply_to,omitempty"`
	References []string  `json:"references,omitempty"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	Date       time.Time `json:"date,omitempty"`
	RawDate    string    `json:"raw_date,omitempty"`
	Body       string    `json:"body,omitempty"`
	Patch      string    `json:"patch,omitempty"`
	Bot        bool      `json:"is_bot"`
}

// Parse decodes one raw RFC822 message. Missing Subject/From/Date degrade
// to empty fields, a missing Message-Id is an error. MIME trees are
// flattened to text: text/plain parts win, multiple text parts are joined
// with a blank line, quoted reply lines are kept verbatim. An inline
// unified diff, if present, is additionally exposed via Patch.
func Parse(raw []byte) (*Message, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableMessage, err)
	}
	mr := mail.NewReader(entity)
	header := mr.Header

	id, err := header.MessageID()
	if err != nil || id == "" {
		// Some senders emit ids the address parser chokes on; take the
		// raw header value instead of dropping the message.
		id, err = NormalizeMessageID(header.Get("Message-Id"))
		if err != nil {
			return nil, fmt.Errorf("%w: missing or malformed Message-Id", ErrUnparseableMessage)
		}
	}

	msg := &Message{
		ID:      id,
		RawDate: strings.TrimSpace(header.Get("Date")),
	}
	if subject, err := header.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = strings.TrimSpace(header.Get("Subject"))
	}
	if from, err := header.Text("From"); err == nil {
		msg.From = strings.TrimSpace(from)
	} else {
		msg.From = strings.TrimSpace(header.Get("From"))
	}
	if date, err := header.Date(); err == nil {
		msg.Date = date
		msg.RawDate = ""
	}
	if refs, err := header.MsgIDList("References"); err == nil {
		msg.References = refs
	}
	if ids, err := header.MsgIDList("In-Reply-To"); err == nil && len(ids) > 0 {
		msg.InReplyTo = ids[0]
	} else if n := len(msg.References); n > 0 {
		// The direct parent is conventionally the last entry.
		msg.InReplyTo = msg.References[n-1]
	}

	msg.Body = flattenBody(mr)
	msg.Patch = extractPatch(msg.Body)
	return msg, nil
}

// flattenBody walks the MIME parts and concatenates the readable text.
func flattenBody(mr *mail.Reader) string {
	var plain, other []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
			// Truncated or damaged MIME structure; keep what we have.
			break
		}
		if part == nil {
			break
		}
		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ctype, _, _ := header.ContentType()
		if ctype != "text/plain" && !strings.HasPrefix(ctype, "text/") {
			continue
		}
		data, err := io.ReadAll(part.Body)
		if len(data) == 0 && err != nil {
			continue
		}
		text := strings.TrimRight(string(data), "\r\n")
		if ctype == "text/plain" {
			plain = append(plain, text)
		} else {
			other = append(other, text)
		}
	}
	if len(plain) > 0 {
		return strings.Join(plain, "\n\n")
	}
	return strings.Join(other, "\n\n")
}

var diffStatRe = regexp.MustCompile(`^\s+\S+\s+\|\s+\d+`)

// extractPatch returns the inline unified diff carried by a patch email,
// or "" when the body holds no diff. The `---` scissor line below the
// commit message starts the diff region.
func extractPatch(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "diff --git") {
			return strings.Join(lines[i:], "\n")
		}
		if strings.HasPrefix(line, "---") && i+1 < len(lines) {
			next := lines[i+1]
			if strings.HasPrefix(next, "+++") || strings.TrimSpace(next) == "" || diffStatRe.MatchString(next) {
				rest := strings.Join(lines[i:], "\n")
				if strings.Contains(rest, "diff --git") || strings.Contains(rest, "\n+++ ") {
					return rest
				}
			}
		}
	}
	return ""
}
