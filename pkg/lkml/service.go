// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package lkml wires the four archive operations: thread retrieval,
// raw message retrieval, per-author series discovery and patch search.
// All state is request-scoped; a Service is safe for concurrent use.
package lkml

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/zampierilucas/lkml-mcp/pkg/archive"
	"github.com/zampierilucas/lkml-mcp/pkg/lore"
)

const (
	defaultSeriesResults = 50
	maxSeriesResults     = 200
	defaultSearchResults = 20
	maxSearchResults     = 100
)

type Service struct {
	client *archive.Client
	bots   *lore.BotRules
}

func NewService(cfg Config) (*Service, error) {
	rules := lore.DefaultBotRules()
	if cfg.BotRulesPath != "" {
		var err error
		rules, err = lore.LoadBotRules(cfg.BotRulesPath)
		if err != nil {
			return nil, err
		}
	}
	acfg := archive.Config{
		BaseURL:       cfg.BaseURL,
		Inbox:         cfg.Inbox,
		RequiresInbox: cfg.RequiresInbox,
		Timeout:       cfg.Timeout,
	}
	var hc *http.Client
	if cfg.Retries > 0 {
		policy := archive.DefaultRetryPolicy()
		policy.MaxRetries = cfg.Retries
		hc = policy.Client(cfg.Timeout)
	} else {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return NewServiceWith(archive.NewClientWithHTTP(acfg, hc), rules), nil
}

// NewServiceWith injects a prebuilt client and rule set (tests, custom
// transports).
func NewServiceWith(client *archive.Client, rules *lore.BotRules) *Service {
	if rules == nil {
		rules = lore.DefaultBotRules()
	}
	return &Service{client: client, bots: rules}
}

// ThreadOptions adjust GetThread. Bots are excluded unless IncludeBots
// is set; the flag stays visible on every returned message either way.
type ThreadOptions struct {
	IncludeBots bool
	Inbox       string
}

// ThreadResult is the reconstructed discussion: the reply forest plus
// its pre-order flattening. Warnings record messages that were dropped
// because they could not be parsed.
type ThreadResult struct {
	MessageID string             `json:"message_id"`
	Roots     []*lore.ThreadNode `json:"thread"`
	Messages  []*lore.Message    `json:"messages"`
	Warnings  []string           `json:"warnings,omitempty"`
}

// GetThread fetches and reconstructs the whole thread containing the
// message. Individual unparseable messages are skipped with a warning;
// the request only fails when no message survives.
func (s *Service) GetThread(ctx context.Context, rawID string, opts ThreadOptions) (*ThreadResult, error) {
	id, err := lore.NormalizeMessageID(rawID)
	if err != nil {
		return nil, err
	}
	data, err := s.client.WithInbox(opts.Inbox).FetchThread(ctx, id)
	if err != nil {
		return nil, err
	}
	rawMsgs, err := lore.SplitMboxGz(data)
	if err != nil {
		return nil, err
	}

	msgs := make([]*lore.Message, len(rawMsgs))
	warnings := make([]string, len(rawMsgs))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, raw := range rawMsgs {
		i, raw := i, raw
		g.Go(func() error {
			msg, err := lore.Parse(raw)
			if err != nil {
				warnings[i] = fmt.Sprintf("skipped message %d: %v", i+1, err)
				return nil
			}
			msg.Bot = s.bots.IsBot(msg)
			msgs[i] = msg
			return nil
		})
	}
	g.Wait()

	result := &ThreadResult{MessageID: id}
	var parsed []*lore.Message
	for i, msg := range msgs {
		if msg == nil {
			result.Warnings = append(result.Warnings, warnings[i])
			continue
		}
		if !opts.IncludeBots && msg.Bot {
			continue
		}
		parsed = append(parsed, msg)
	}
	if len(parsed) == 0 && len(result.Warnings) == len(rawMsgs) {
		return nil, fmt.Errorf("%w: all %d messages in thread failed to parse",
			lore.ErrUnparseableMessage, len(rawMsgs))
	}
	result.Roots = lore.Threads(parsed)
	result.Messages = lore.Flatten(result.Roots)
	return result, nil
}

// RawResult carries one message verbatim.
type RawResult struct {
	MessageID string `json:"message_id"`
	Raw       string `json:"raw"`
}

// GetRaw fetches a single message in RFC822 form.
func (s *Service) GetRaw(ctx context.Context, rawID, inbox string) (*RawResult, error) {
	id, err := lore.NormalizeMessageID(rawID)
	if err != nil {
		return nil, err
	}
	data, err := s.client.WithInbox(inbox).FetchRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RawResult{MessageID: id, Raw: string(data)}, nil
}

// SeriesOptions adjust GetUserSeries.
type SeriesOptions struct {
	MaxResults int
	Inbox      string
}

// GetUserSeries lists the recent patch series authored by the given
// address, newest first, with cover letters and numbered patches
// grouped. Replies are excluded from the listing.
func (s *Service) GetUserSeries(ctx context.Context, email string, opts SeriesOptions) (*lore.SearchResult, error) {
	query, err := archive.BuildQuery(archive.QueryOptions{Author: email})
	if err != nil {
		return nil, err
	}
	data, err := s.client.WithInbox(opts.Inbox).FetchSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	entries, err := archive.ParseAtomResults(data)
	if err != nil {
		return nil, err
	}
	entries = capResults(entries, opts.MaxResults, defaultSeriesResults, maxSeriesResults)

	var msgs []*lore.Message
	for _, msg := range entries {
		if lore.IsReply(msg.Subject) {
			continue
		}
		msg.Bot = s.bots.IsBot(msg)
		msgs = append(msgs, msg)
	}
	return lore.GroupSeries(msgs), nil
}

// SearchOptions adjust SearchPatches; see archive.QueryOptions for the
// filter semantics.
type SearchOptions struct {
	Keywords   string
	Subsystem  string
	Author     string
	Since      string
	MaxResults int
	Inbox      string
}

// SearchHit is one result with its parsed patch marker, when the
// subject carries one.
type SearchHit struct {
	Message *lore.Message     `json:"message"`
	Patch   *lore.PatchMarker `json:"patch_info,omitempty"`
}

// SearchPatchesResult holds the ranked hits and their series grouping.
type SearchPatchesResult struct {
	Query   string             `json:"query"`
	Hits    []*SearchHit       `json:"hits"`
	Grouped *lore.SearchResult `json:"grouped"`
}

// SearchPatches runs a keyword/subsystem/author search against the
// archive. At least one filter must be non-empty.
func (s *Service) SearchPatches(ctx context.Context, opts SearchOptions) (*SearchPatchesResult, error) {
	query, err := archive.BuildQuery(archive.QueryOptions{
		Keywords:  opts.Keywords,
		Subsystem: opts.Subsystem,
		Author:    opts.Author,
		Since:     opts.Since,
	})
	if err != nil {
		return nil, err
	}
	data, err := s.client.WithInbox(opts.Inbox).FetchSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	entries, err := archive.ParseAtomResults(data)
	if err != nil {
		return nil, err
	}
	entries = capResults(entries, opts.MaxResults, defaultSearchResults, maxSearchResults)

	result := &SearchPatchesResult{Query: query}
	for _, msg := range entries {
		msg.Bot = s.bots.IsBot(msg)
		hit := &SearchHit{Message: msg}
		if marker, _, ok := lore.ParsePatchMarker(msg.Subject); ok {
			hit.Patch = &marker
		}
		result.Hits = append(result.Hits, hit)
	}
	result.Grouped = lore.GroupSeries(entries)
	return result, nil
}

func capResults(msgs []*lore.Message, requested, def, max int) []*lore.Message {
	n := requested
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	if len(msgs) > n {
		return msgs[:n]
	}
	return msgs
}
