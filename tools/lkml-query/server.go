// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/zampierilucas/lkml-mcp/pkg/archive"
	"github.com/zampierilucas/lkml-mcp/pkg/lkml"
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "lkml_request_duration_seconds",
		Help:    "Duration of archive operations served over HTTP.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"op", "kind"},
)

func init() {
	prometheus.MustRegister(requestDuration)
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the archive operations as a JSON HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			return serveHTTP(addr, svc)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func serveHTTP(addr string, svc *lkml.Service) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/thread", func(w http.ResponseWriter, r *http.Request) {
		handleOp(w, r, "thread", func() (any, error) {
			includeBots, _ := strconv.ParseBool(r.URL.Query().Get("include_bots"))
			return svc.GetThread(r.Context(), r.URL.Query().Get("message_id"), lkml.ThreadOptions{
				IncludeBots: includeBots,
				Inbox:       r.URL.Query().Get("inbox"),
			})
		})
	})
	mux.HandleFunc("/v1/raw", func(w http.ResponseWriter, r *http.Request) {
		handleOp(w, r, "raw", func() (any, error) {
			return svc.GetRaw(r.Context(), r.URL.Query().Get("message_id"), r.URL.Query().Get("inbox"))
		})
	})
	mux.HandleFunc("/v1/series", func(w http.ResponseWriter, r *http.Request) {
		handleOp(w, r, "series", func() (any, error) {
			max, _ := strconv.Atoi(r.URL.Query().Get("max"))
			return svc.GetUserSeries(r.Context(), r.URL.Query().Get("email"), lkml.SeriesOptions{
				MaxResults: max,
				Inbox:      r.URL.Query().Get("inbox"),
			})
		})
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		handleOp(w, r, "search", func() (any, error) {
			q := r.URL.Query()
			max, _ := strconv.Atoi(q.Get("max"))
			return svc.SearchPatches(r.Context(), lkml.SearchOptions{
				Keywords:   q.Get("q"),
				Subsystem:  q.Get("subsystem"),
				Author:     q.Get("author"),
				Since:      q.Get("since"),
				MaxResults: max,
				Inbox:      q.Get("inbox"),
			})
		})
	})

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("listening on %s", listener.Addr())
	handler := handlers.CombinedLoggingHandler(os.Stderr, handlers.CompressHandler(mux))
	return http.Serve(listener, handler)
}

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func handleOp(w http.ResponseWriter, r *http.Request, op string, fn func() (any, error)) {
	start := time.Now()
	result, err := fn()
	kind := lkml.ErrorKind(err)
	requestDuration.WithLabelValues(op, orOK(kind)).Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(statusForError(err, kind))
		json.NewEncoder(w).Encode(map[string]apiError{
			"error": {Kind: kind, Message: err.Error()},
		})
		return
	}
	json.NewEncoder(w).Encode(result)
}

func orOK(kind string) string {
	if kind == "" {
		return "ok"
	}
	return kind
}

func statusForError(err error, kind string) int {
	switch kind {
	case "InvalidIdentifier", "EmptyQuery", "MissingInboxParameter":
		return http.StatusBadRequest
	case "FetchTimeout":
		return http.StatusGatewayTimeout
	case "MalformedMbox", "UnparseableMessage":
		return http.StatusBadGateway
	case "FetchFailed":
		var fetchErr *archive.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
