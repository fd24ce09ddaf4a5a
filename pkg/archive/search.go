// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package archive

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"

	"github.com/zampierilucas/lkml-mcp/pkg/lore"
)

// QueryOptions are the supported public-inbox search filters. All
// fields are optional, but at least one must be set.
type QueryOptions struct {
	Keywords  string
	Subsystem string
	Author    string
	// Since restricts results to messages after this date, YYYYMMDD.
	Since string
}

// BuildQuery composes the instance's search syntax: free keywords plus
// field-qualified terms, joined by implicit AND.
func BuildQuery(opts QueryOptions) (string, error) {
	var terms []string
	if kw := strings.TrimSpace(opts.Keywords); kw != "" {
		terms = append(terms, kw)
	}
	if s := strings.TrimSpace(opts.Subsystem); s != "" {
		terms = append(terms, "s:"+s)
	}
	if a := strings.TrimSpace(opts.Author); a != "" {
		terms = append(terms, "f:"+a)
	}
	if d := strings.TrimSpace(opts.Since); d != "" {
		terms = append(terms, "dt:"+d+"..")
	}
	if len(terms) == 0 {
		return "", ErrEmptyQuery
	}
	return strings.Join(terms, " "), nil
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string     `xml:"title"`
	Updated string     `xml:"updated"`
	Author  atomAuthor `xml:"author"`
	Links   []atomLink `xml:"link"`
}

type atomAuthor struct {
	Name  string `xml:"name"`
	Email string `xml:"email"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

// ParseAtomResults decodes a public-inbox Atom results page into
// metadata-only messages (no body), preserving ranking order. The
// message id is recovered from each entry's permalink.
func ParseAtomResults(data []byte) ([]*lore.Message, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	// public-inbox declares encoding="us-ascii" on its Atom pages.
	decoder.CharsetReader = charset.Reader
	var feed atomFeed
	if err := decoder.Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to parse search results page: %w", err)
	}
	var msgs []*lore.Message
	for _, entry := range feed.Entries {
		msg := &lore.Message{
			Subject: strings.TrimSpace(entry.Title),
			From:    formatAuthor(entry.Author),
		}
		for _, link := range entry.Links {
			if id := idFromPermalink(link.Href); id != "" {
				msg.ID = id
				break
			}
		}
		if msg.ID == "" {
			continue
		}
		if date, err := time.Parse(time.RFC3339, entry.Updated); err == nil {
			msg.Date = date
		} else {
			msg.RawDate = entry.Updated
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func formatAuthor(author atomAuthor) string {
	name := strings.TrimSpace(author.Name)
	email := strings.TrimSpace(author.Email)
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case email != "":
		return email
	default:
		return name
	}
}

// idFromPermalink takes the last path segment of an entry URL like
// https://lore.kernel.org/lkml/20240101.1-1-a@b/.
func idFromPermalink(href string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(href), "/")
	if trimmed == "" {
		return ""
	}
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	seg := trimmed[idx+1:]
	id, err := lore.NormalizeMessageID(seg)
	if err != nil {
		return ""
	}
	return id
}
