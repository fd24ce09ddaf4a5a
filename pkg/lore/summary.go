// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lore

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	diffFileRe  = regexp.MustCompile(`^diff --git a/.* b/(.+)$`)
	diffStatsRe = regexp.MustCompile(`\d+ files? changed`)
)

// Summary condenses a message body into the part worth reading: for
// patch emails the commit message, changed-file list and diffstat line;
// for replies the text with each quoted block trimmed to its last
// maxQuoted lines. Signatures (after the "--" marker) are dropped.
func (m *Message) Summary(maxQuoted int) string {
	if m.Patch != "" {
		return patchSummary(m.Body, m.Patch)
	}
	return replySummary(m.Body, maxQuoted)
}

func patchSummary(body, patch string) string {
	commit := strings.TrimSpace(strings.TrimSuffix(body, patch))
	var parts []string
	if commit != "" {
		parts = append(parts, commit)
	}

	var files []string
	var stats string
	for _, line := range strings.Split(patch, "\n") {
		if match := diffFileRe.FindStringSubmatch(line); match != nil {
			files = append(files, match[1])
		}
		if stats == "" && diffStatsRe.MatchString(line) {
			stats = strings.TrimSpace(line)
		}
	}
	if len(files) > 0 {
		shown := files
		if len(shown) > 5 {
			shown = shown[:5]
		}
		part := "Files changed: " + strings.Join(shown, ", ")
		if len(files) > 5 {
			part += fmt.Sprintf(" ... and %d more", len(files)-5)
		}
		parts = append(parts, part)
	}
	if stats != "" {
		parts = append(parts, stats)
	}
	return strings.Join(parts, "\n\n")
}

func replySummary(body string, maxQuoted int) string {
	if maxQuoted <= 0 {
		maxQuoted = 5
	}
	var out []string
	var quoted []string
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed == "--" {
			break
		}
		if strings.HasPrefix(line, ">") {
			quoted = append(quoted, line)
			continue
		}
		if len(quoted) > 0 {
			if len(quoted) > maxQuoted {
				quoted = quoted[len(quoted)-maxQuoted:]
			}
			out = append(out, quoted...)
			quoted = nil
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
