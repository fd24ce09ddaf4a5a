// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lore

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleMessage(t *testing.T) {
	raw := []byte(`Date: Sun, 7 May 2017 19:54:00 -0700
Subject: [PATCH] fix the frobnicator
Message-ID: <base@example.org>
From: Alice <alice@example.org>
Content-Type: text/plain

Some text.

> quoted line
>> doubly quoted
Reply text.
`)
	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "base@example.org", msg.ID)
	assert.Equal(t, "[PATCH] fix the frobnicator", msg.Subject)
	assert.Equal(t, "Alice <alice@example.org>", msg.From)
	assert.Equal(t, "", msg.InReplyTo)
	zone := time.FixedZone("", -7*60*60)
	assert.True(t, msg.Date.Equal(time.Date(2017, time.May, 7, 19, 54, 0, 0, zone)))
	// Quoted lines survive verbatim.
	assert.Contains(t, msg.Body, "> quoted line")
	assert.Contains(t, msg.Body, ">> doubly quoted")
}

func TestParseFoldedHeaders(t *testing.T) {
	raw := []byte("Subject: a subject\r\n folded across two lines\r\nMessage-ID: <folded@example.org>\r\nFrom: Bob <bob@example.org>\r\n\r\nbody\r\n")
	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "folded@example.org", msg.ID)
	assert.Equal(t, "a subject folded across two lines", msg.Subject)
}

func TestParseMissingHeadersDegrade(t *testing.T) {
	raw := []byte(`Message-ID: <bare@example.org>

just a body
`)
	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "bare@example.org", msg.ID)
	assert.Empty(t, msg.Subject)
	assert.Empty(t, msg.From)
	assert.True(t, msg.Date.IsZero())
}

func TestParseMissingMessageID(t *testing.T) {
	raw := []byte(`Subject: no id here
From: Carol <carol@example.org>

body
`)
	_, err := Parse(raw)
	if !errors.Is(err, ErrUnparseableMessage) {
		t.Fatalf("expected ErrUnparseableMessage, got %v", err)
	}
}

func TestParseUnparseableDate(t *testing.T) {
	raw := []byte(`Date: not a date at all
Message-ID: <baddate@example.org>

body
`)
	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.True(t, msg.Date.IsZero())
	assert.Equal(t, "not a date at all", msg.RawDate)
}

func TestParseMultipart(t *testing.T) {
	raw := []byte("Message-ID: <multi@example.org>\r\n" +
		"Subject: mixed content\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"first part\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<b>ignored html</b>\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"second part\r\n" +
		"--XYZ--\r\n")
	msg, err := Parse(raw)
	require.NoError(t, err)
	// text/plain parts joined with a blank line, html skipped.
	assert.Equal(t, "first part\n\nsecond part", strings.ReplaceAll(msg.Body, "\r", ""))
}

func TestParseReferencesFallback(t *testing.T) {
	raw := []byte(`Message-ID: <child@example.org>
References: <grandparent@example.org> <parent@example.org>

body
`)
	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"grandparent@example.org", "parent@example.org"}, msg.References)
	assert.Equal(t, "parent@example.org", msg.InReplyTo)
}

func TestParseInReplyToWins(t *testing.T) {
	raw := []byte(`Message-ID: <child@example.org>
In-Reply-To: <direct@example.org>
References: <grandparent@example.org> <other@example.org>

body
`)
	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "direct@example.org", msg.InReplyTo)
}

func TestParsePatchExtraction(t *testing.T) {
	raw := []byte(`Message-ID: <patch@example.org>
Subject: [PATCH 1/1] mm: fix a leak
From: Dev <dev@example.org>

Fix a memory leak in the widget path.

Signed-off-by: Dev <dev@example.org>
---
 mm/widget.c | 2 +-
 1 file changed, 1 insertion(+), 1 deletion(-)

diff --git a/mm/widget.c b/mm/widget.c
index 111..222 100644
--- a/mm/widget.c
+++ b/mm/widget.c
@@ -1,2 +1,2 @@
-old
+new
`)
	msg, err := Parse(raw)
	require.NoError(t, err)
	require.NotEmpty(t, msg.Patch)
	assert.Contains(t, msg.Patch, "diff --git a/mm/widget.c")
	assert.Contains(t, msg.Body, "Fix a memory leak")

	summary := msg.Summary(5)
	assert.Contains(t, summary, "Fix a memory leak")
	assert.Contains(t, summary, "Files changed: mm/widget.c")
	assert.Contains(t, summary, "1 file changed, 1 insertion(+), 1 deletion(-)")
	assert.NotContains(t, summary, "@@ -1,2 +1,2 @@")
}

func TestParseNoPatchInPlainReply(t *testing.T) {
	raw := []byte(`Message-ID: <reply@example.org>
Subject: Re: [PATCH] mm: fix a leak

> old context line one
> old context line two
Looks good to me.

--
Dev
`)
	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, msg.Patch)

	summary := msg.Summary(1)
	// Only the last quoted line is kept, and the signature is gone.
	assert.NotContains(t, summary, "context line one")
	assert.Contains(t, summary, "> old context line two")
	assert.Contains(t, summary, "Looks good to me.")
	assert.NotContains(t, summary, "Dev")
}

func TestParseEncodedSubject(t *testing.T) {
	raw := []byte(`Message-ID: <enc@example.org>
Subject: =?utf-8?q?caf=C3=A9_fix?=
From: =?utf-8?q?Ren=C3=A9?= <rene@example.org>

body
`)
	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "café fix", msg.Subject)
	assert.Contains(t, msg.From, "René")
}
