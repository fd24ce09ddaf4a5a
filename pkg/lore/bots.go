// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lore

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// BotRules classifies automated senders (CI robots, patch trackers).
// The rule set is data, not code: sites with their own bot zoo can load
// a YAML file instead of patching the defaults.
type BotRules struct {
	// Senders are matched as case-insensitive substrings of From.
	Senders []string `yaml:"senders"`
	// SubjectPrefixes are matched case-insensitively at the start of
	// the subject.
	SubjectPrefixes []string `yaml:"subject_prefixes"`
	// AllowSenders override a Senders match (e.g. a human on a
	// bot-looking address).
	AllowSenders []string `yaml:"allow_senders"`
}

// DefaultBotRules carries the heuristics observed on lore.kernel.org:
// the 0-day robot, generic bot/no-reply local parts, syzbot and the tip
// tree bot.
func DefaultBotRules() *BotRules {
	return &BotRules{
		Senders: []string{
			"lkp@intel.com",
			"bot@",
			"bot+",
			"no-reply@",
			"noreply@",
			"robot@",
			"syzbot",
			"tip-bot",
			"patchwork@",
			"bluez.test.bot",
		},
		SubjectPrefixes: []string{
			"automated test results",
			"[auto]",
			"autobuild failure",
		},
	}
}

// LoadBotRules reads a YAML rule file.
func LoadBotRules(path string) (*BotRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot rules: %w", err)
	}
	rules := &BotRules{}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse bot rules %q: %w", path, err)
	}
	return rules, nil
}

// IsBot reports whether the message looks machine-generated. Pure
// function over the message; callers decide whether to filter.
func (r *BotRules) IsBot(msg *Message) bool {
	from := strings.ToLower(msg.From)
	for _, allow := range r.AllowSenders {
		if strings.Contains(from, strings.ToLower(allow)) {
			return false
		}
	}
	for _, pattern := range r.Senders {
		if strings.Contains(from, strings.ToLower(pattern)) {
			return true
		}
	}
	subject := strings.ToLower(msg.Subject)
	for _, prefix := range r.SubjectPrefixes {
		if strings.HasPrefix(subject, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}
