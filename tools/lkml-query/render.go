// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/zampierilucas/lkml-mcp/pkg/lkml"
	"github.com/zampierilucas/lkml-mcp/pkg/lore"
)

func renderThread(w io.Writer, result *lkml.ThreadResult) {
	fmt.Fprintf(w, "Thread: %s\n", result.MessageID)
	fmt.Fprintf(w, "Messages: %d\n\n", len(result.Messages))
	for i, msg := range result.Messages {
		fmt.Fprintf(w, "[%d] %s\n", i+1, msg.Subject)
		fmt.Fprintf(w, "    From: %s\n", msg.From)
		fmt.Fprintf(w, "    Date: %s\n", dateString(msg))
		if msg.InReplyTo != "" {
			fmt.Fprintf(w, "    Reply-To: %s\n", msg.InReplyTo)
		}
		if msg.Bot {
			fmt.Fprintf(w, "    Bot: yes\n")
		}
		fmt.Fprintln(w)
		for _, line := range strings.Split(msg.Summary(5), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
		fmt.Fprintln(w)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func renderRaw(w io.Writer, result *lkml.RawResult) {
	fmt.Fprintf(w, "Raw message %s\n\n", result.MessageID)
	fmt.Fprintln(w, result.Raw)
}

func renderSeries(w io.Writer, email string, result *lore.SearchResult) {
	fmt.Fprintf(w, "Recent patch series for %s\n", email)
	fmt.Fprintf(w, "Found %d series, %d standalone messages\n\n", len(result.Series), len(result.Standalone))
	for i, series := range result.Series {
		root := series.Cover
		kind := "cover letter"
		if root == nil && len(series.Patches) > 0 {
			root = series.Patches[0]
			kind = "first patch"
		}
		if root == nil {
			continue
		}
		fmt.Fprintf(w, "[%d] %s\n", i+1, root.Subject)
		fmt.Fprintf(w, "    Message ID: %s\n", root.ID)
		fmt.Fprintf(w, "    Root: %s\n", kind)
		fmt.Fprintf(w, "    Patches: %d of %d\n", len(series.Patches), series.Total)
		fmt.Fprintf(w, "    Date: %s\n\n", dateString(root))
	}
	for _, msg := range result.Standalone {
		fmt.Fprintf(w, "  - %s (%s)\n", msg.Subject, msg.ID)
	}
}

func renderSearch(w io.Writer, result *lkml.SearchPatchesResult) {
	fmt.Fprintf(w, "Search results for: %s\n", result.Query)
	fmt.Fprintf(w, "Found %d results\n\n", len(result.Hits))
	for i, hit := range result.Hits {
		msg := hit.Message
		fmt.Fprintf(w, "[%d] %s\n", i+1, msg.Subject)
		fmt.Fprintf(w, "    Message ID: %s\n", msg.ID)
		fmt.Fprintf(w, "    From: %s\n", msg.From)
		fmt.Fprintf(w, "    Date: %s\n", dateString(msg))
		if hit.Patch != nil {
			var parts []string
			if hit.Patch.Version > 0 {
				parts = append(parts, fmt.Sprintf("v%d", hit.Patch.Version))
			}
			if hit.Patch.Numbered {
				parts = append(parts, fmt.Sprintf("patch %d/%d", hit.Patch.Index, hit.Patch.Total))
			} else {
				parts = append(parts, "standalone patch")
			}
			fmt.Fprintf(w, "    Patch: %s\n", strings.Join(parts, ", "))
		}
		fmt.Fprintln(w)
	}
}

func dateString(msg *lore.Message) string {
	if !msg.Date.IsZero() {
		return msg.Date.Format("Mon, 2 Jan 2006 15:04:05 -0700")
	}
	return msg.RawDate
}
