// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lore

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Series is a cover letter plus its numbered patches. Total is the
// declared patch count from the subject marker and may exceed
// len(Patches) when parts are missing from the fetch window.
type Series struct {
	Cover   *Message   `json:"cover_letter,omitempty"`
	Patches []*Message `json:"patches"`
	Total   int        `json:"total"`
}

// SearchResult is the grouped view of a message listing.
type SearchResult struct {
	Series     []*Series  `json:"series"`
	Standalone []*Message `json:"standalone"`
}

// PatchMarker is the parsed `[PATCH ...]` subject tag.
type PatchMarker struct {
	Index    int  // i of i/n; 0 marks a cover letter
	Total    int  // n of i/n
	Version  int  // K of vK, 0 when absent
	Numbered bool // subject carried an explicit i/n
}

var (
	patchTagRe = regexp.MustCompile(`(?i)^\s*\[([^\[\]]*\bpatch\b[^\[\]]*)\]\s*(.*)$`)
	patchNumRe = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
	patchVerRe = regexp.MustCompile(`(?i)\bv(\d+)\b`)
	replyRe    = regexp.MustCompile(`(?i)^\s*re:`)
	// Message ids generated by git format-patch share a timestamp.pid
	// prefix across one submission; it keys a series more reliably
	// than the subject.
	seriesIDRe = regexp.MustCompile(`^(\d+\.\d+)-\d+-`)
)

// ParsePatchMarker extracts the patch tag from a subject line, also
// returning the subject base with the tag stripped. Tags with extra
// tokens ([RFC PATCH v3 net-next 2/7]) are recognized, "Re:" replies
// are not.
func ParsePatchMarker(subject string) (PatchMarker, string, bool) {
	match := patchTagRe.FindStringSubmatch(subject)
	if match == nil {
		return PatchMarker{}, "", false
	}
	tag, base := match[1], strings.TrimSpace(match[2])
	var marker PatchMarker
	if m := patchNumRe.FindStringSubmatch(tag); m != nil {
		marker.Index, _ = strconv.Atoi(m[1])
		marker.Total, _ = strconv.Atoi(m[2])
		marker.Numbered = true
	}
	if m := patchVerRe.FindStringSubmatch(tag); m != nil {
		marker.Version, _ = strconv.Atoi(m[1])
	}
	return marker, base, true
}

// ExtractPatchNumber returns the i/n marker of a subject, if any.
func ExtractPatchNumber(subject string) (index, total int, ok bool) {
	marker, _, ok := ParsePatchMarker(subject)
	if !ok || !marker.Numbered {
		return 0, 0, false
	}
	return marker.Index, marker.Total, true
}

// IsReply reports whether the subject carries a Re: prefix.
func IsReply(subject string) bool {
	return replyRe.MatchString(subject)
}

// GroupSeries partitions a listing of messages into patch series and
// standalone messages. Series are keyed by the format-patch message-id
// prefix when present, else by (sender, subject base, version), so a
// resent or re-versioned set with a reused cover subject stays a
// separate series. Series come newest first (by their earliest
// message), standalone messages newest first as well.
func GroupSeries(msgs []*Message) *SearchResult {
	type group struct {
		key     string
		members []*Message
		markers []PatchMarker
	}
	groups := map[string]*group{}
	var groupOrder []*group
	var standalone []*Message

	for _, msg := range msgs {
		marker, base, ok := ParsePatchMarker(msg.Subject)
		if !ok {
			standalone = append(standalone, msg)
			continue
		}
		key := seriesKey(msg, base, marker)
		g := groups[key]
		if g == nil {
			g = &group{key: key}
			groups[key] = g
			groupOrder = append(groupOrder, g)
		}
		g.members = append(g.members, msg)
		g.markers = append(g.markers, marker)
	}

	result := &SearchResult{}
	for _, g := range groupOrder {
		result.Series = append(result.Series, buildSeries(g.members, g.markers)...)
	}

	sort.SliceStable(result.Series, func(i, j int) bool {
		return earliestDate(result.Series[j]).Before(earliestDate(result.Series[i]))
	})
	sort.SliceStable(standalone, func(i, j int) bool {
		return standalone[j].Date.Before(standalone[i].Date)
	})
	result.Standalone = standalone
	return result
}

func buildSeries(members []*Message, markers []PatchMarker) []*Series {
	var numbered []*Message
	var loose []*Message
	series := &Series{}
	for i, msg := range members {
		marker := markers[i]
		switch {
		case marker.Numbered && marker.Index == 0:
			if series.Cover == nil {
				series.Cover = msg
			}
			if marker.Total > series.Total {
				series.Total = marker.Total
			}
		case marker.Numbered:
			numbered = append(numbered, msg)
			if marker.Total > series.Total {
				series.Total = marker.Total
			}
		default:
			loose = append(loose, msg)
		}
	}

	if len(numbered) == 0 && series.Cover == nil {
		// No i/n markers at all: each [PATCH] is its own single-patch
		// series.
		var out []*Series
		for _, msg := range loose {
			out = append(out, &Series{Patches: []*Message{msg}, Total: 1})
		}
		return out
	}

	sort.SliceStable(numbered, func(i, j int) bool {
		a, _, _ := ExtractPatchNumber(numbered[i].Subject)
		b, _, _ := ExtractPatchNumber(numbered[j].Subject)
		return a < b
	})
	series.Patches = numbered
	// An unnumbered [PATCH] among numbered peers is the cover letter.
	for _, msg := range loose {
		if series.Cover == nil {
			series.Cover = msg
		} else {
			series.Patches = append(series.Patches, msg)
		}
	}
	if series.Total == 0 {
		series.Total = len(series.Patches)
	}
	return []*Series{series}
}

func seriesKey(msg *Message, base string, marker PatchMarker) string {
	if m := seriesIDRe.FindStringSubmatch(msg.ID); m != nil {
		return "id:" + m[1]
	}
	return fmt.Sprintf("subj:%s|%s|v%d", senderEmail(msg.From), strings.ToLower(base), marker.Version)
}

func senderEmail(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.TrimSpace(from))
}

func earliestDate(s *Series) time.Time {
	var earliest time.Time
	consider := func(msg *Message) {
		if msg == nil || msg.Date.IsZero() {
			return
		}
		if earliest.IsZero() || msg.Date.Before(earliest) {
			earliest = msg.Date
		}
	}
	consider(s.Cover)
	for _, p := range s.Patches {
		consider(p)
	}
	return earliest
}
