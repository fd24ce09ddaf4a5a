// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// lkml-query exposes the archive operations on the command line:
// thread reconstruction, raw message retrieval, per-author series and
// patch search, plus a JSON-over-HTTP serve mode for agents.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zampierilucas/lkml-mcp/pkg/lkml"
)

var (
	flagBaseURL       string
	flagInbox         string
	flagRequiresInbox string
	flagTimeout       time.Duration
	flagRetries       int
	flagBotRules      string

	// LKML_REQUIRES_INBOX has no flag default to inherit (the flag is a
	// tri-state string), so the env value is kept separately and applied
	// whenever the flag is left empty.
	envRequiresInbox *bool
)

func main() {
	cfg, err := lkml.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	envRequiresInbox = cfg.RequiresInbox

	root := &cobra.Command{
		Use:           "lkml-query",
		Short:         "Query public-inbox mailing list archives (lore.kernel.org and friends)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&flagBaseURL, "base-url", cfg.BaseURL, "archive base URL")
	flags.StringVar(&flagInbox, "inbox", cfg.Inbox, "inbox name for per-inbox instances")
	flags.StringVar(&flagRequiresInbox, "requires-inbox", "", "override instance detection: true or false")
	flags.DurationVar(&flagTimeout, "timeout", cfg.Timeout, "per-fetch timeout")
	flags.IntVar(&flagRetries, "retries", cfg.Retries, "retry attempts for transient fetch failures")
	flags.StringVar(&flagBotRules, "bot-rules", cfg.BotRulesPath, "path to a YAML bot rule file")

	root.AddCommand(
		threadCmd(),
		rawCmd(),
		seriesCmd(),
		searchCmd(),
		serveCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Fatalf("%s: %v", lkml.ErrorKind(err), err)
	}
}

func newService() (*lkml.Service, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	return lkml.NewService(cfg)
}

// buildConfig merges the persistent flags over the environment-loaded
// defaults. An empty --requires-inbox keeps the LKML_REQUIRES_INBOX
// setting; an explicit flag value overrides it.
func buildConfig() (lkml.Config, error) {
	cfg := lkml.Config{
		BaseURL:       flagBaseURL,
		Inbox:         flagInbox,
		RequiresInbox: envRequiresInbox,
		Timeout:       flagTimeout,
		Retries:       flagRetries,
		BotRulesPath:  flagBotRules,
	}
	switch flagRequiresInbox {
	case "":
	case "true":
		v := true
		cfg.RequiresInbox = &v
	case "false":
		v := false
		cfg.RequiresInbox = &v
	default:
		return lkml.Config{}, fmt.Errorf("invalid --requires-inbox value %q", flagRequiresInbox)
	}
	return cfg, nil
}

func threadCmd() *cobra.Command {
	var includeBots bool
	cmd := &cobra.Command{
		Use:   "thread <message-id>",
		Short: "Fetch a full discussion thread by message id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			result, err := svc.GetThread(cmd.Context(), args[0], lkml.ThreadOptions{
				IncludeBots: includeBots,
			})
			if err != nil {
				return err
			}
			renderThread(os.Stdout, result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeBots, "include-bots", false, "keep automated bot messages in the output")
	return cmd
}

func rawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "raw <message-id>",
		Short: "Fetch a single message in raw RFC822 form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			result, err := svc.GetRaw(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			renderRaw(os.Stdout, result)
			return nil
		},
	}
}

func seriesCmd() *cobra.Command {
	var max int
	cmd := &cobra.Command{
		Use:   "series <email>",
		Short: "List recent patch series authored by an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			result, err := svc.GetUserSeries(cmd.Context(), args[0], lkml.SeriesOptions{
				MaxResults: max,
			})
			if err != nil {
				return err
			}
			renderSeries(os.Stdout, args[0], result)
			return nil
		},
	}
	cmd.Flags().IntVar(&max, "max", 0, "maximum number of listing entries to consider")
	return cmd
}

func searchCmd() *cobra.Command {
	var subsystem, author, since string
	var max int
	cmd := &cobra.Command{
		Use:   "search [keywords]",
		Short: "Search patches by keywords, subsystem or author",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			var keywords string
			if len(args) > 0 {
				keywords = args[0]
			}
			result, err := svc.SearchPatches(cmd.Context(), lkml.SearchOptions{
				Keywords:   keywords,
				Subsystem:  subsystem,
				Author:     author,
				Since:      since,
				MaxResults: max,
			})
			if err != nil {
				return err
			}
			renderSearch(os.Stdout, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&subsystem, "subsystem", "", "subsystem filter (e.g. net, kvm, mm)")
	cmd.Flags().StringVar(&author, "author", "", "author email or name filter")
	cmd.Flags().StringVar(&since, "since", "", "only results after this date, YYYYMMDD")
	cmd.Flags().IntVar(&max, "max", 0, "maximum number of results")
	return cmd
}
