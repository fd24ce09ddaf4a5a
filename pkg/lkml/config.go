// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lkml

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/zampierilucas/lkml-mcp/pkg/archive"
)

// Config is constructed once at startup and passed into NewService,
// never read from ambient globals, so tests can run several instances
// side by side.
type Config struct {
	BaseURL       string
	Inbox         string
	RequiresInbox *bool
	Timeout       time.Duration
	// BotRulesPath points to a YAML bot rule file; empty means the
	// built-in defaults.
	BotRulesPath string
	// Retries > 0 enables the bounded exponential-backoff transport.
	Retries int
}

// LoadConfig reads the process environment (optionally seeded from a
// .env file):
//
//	LKML_BASE_URL        archive base URL (default https://lore.kernel.org)
//	LKML_INBOX           default inbox for per-inbox instances
//	LKML_REQUIRES_INBOX  override instance detection (bool)
//	LKML_TIMEOUT         per-fetch timeout (Go duration, default 30s)
//	LKML_BOT_RULES       path to a YAML bot rule file
//	LKML_RETRIES         retry attempts for transient fetch failures
func LoadConfig() (Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := Config{
		BaseURL: archive.DefaultBaseURL,
		Timeout: archive.DefaultTimeout,
	}
	if v := os.Getenv("LKML_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	cfg.Inbox = os.Getenv("LKML_INBOX")
	cfg.BotRulesPath = os.Getenv("LKML_BOT_RULES")
	if v := os.Getenv("LKML_REQUIRES_INBOX"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LKML_REQUIRES_INBOX value %q: %w", v, err)
		}
		cfg.RequiresInbox = &b
	}
	if v := os.Getenv("LKML_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LKML_TIMEOUT value %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("LKML_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid LKML_RETRIES value %q", v)
		}
		cfg.Retries = n
	}
	return cfg, nil
}
