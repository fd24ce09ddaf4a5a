// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package archive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestMessageURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		url  string
		err  error
	}{
		{
			name: "universal redirect host",
			cfg:  Config{},
			url:  "https://lore.kernel.org/r/msg@example.org/t.mbox.gz",
		},
		{
			name: "per-inbox instance",
			cfg:  Config{BaseURL: "https://inbox.example.com", Inbox: "netdev"},
			url:  "https://inbox.example.com/netdev/msg@example.org/t.mbox.gz",
		},
		{
			name: "unknown host without inbox",
			cfg:  Config{BaseURL: "https://inbox.example.com"},
			err:  ErrMissingInbox,
		},
		{
			name: "override forces /r/ on unknown host",
			cfg:  Config{BaseURL: "https://mirror.example.com", RequiresInbox: boolPtr(false)},
			url:  "https://mirror.example.com/r/msg@example.org/t.mbox.gz",
		},
		{
			name: "override forces inbox on lore",
			cfg:  Config{RequiresInbox: boolPtr(true)},
			err:  ErrMissingInbox,
		},
		{
			name: "trailing slash trimmed",
			cfg:  Config{BaseURL: "https://lore.kernel.org/"},
			url:  "https://lore.kernel.org/r/msg@example.org/t.mbox.gz",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := NewClient(test.cfg)
			u, err := c.messageURL("msg@example.org", "t.mbox.gz")
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.url, u)
		})
	}
}

func TestSearchURL(t *testing.T) {
	c := NewClient(Config{})
	u, err := c.searchURL(`f:dev@example.org s:mm`)
	require.NoError(t, err)
	assert.Equal(t, "https://lore.kernel.org/all/?q=f%3Adev%40example.org+s%3Amm&x=A", u)

	c = NewClient(Config{BaseURL: "https://inbox.example.com", Inbox: "netdev"})
	u, err = c.searchURL("query")
	require.NoError(t, err)
	assert.Equal(t, "https://inbox.example.com/netdev/?q=query&x=A", u)
}

func TestFetchThread(t *testing.T) {
	var gotPath, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("mbox payload"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RequiresInbox: boolPtr(false)})
	body, err := c.FetchThread(context.Background(), "msg@example.org")
	require.NoError(t, err)
	assert.Equal(t, "mbox payload", string(body))
	assert.Equal(t, "/r/msg@example.org/t.mbox.gz", gotPath)
	assert.Equal(t, userAgent, gotAgent)
}

func TestFetchFollowsRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/lkml/msg@example.org/raw" {
			w.Write([]byte("raw message"))
			return
		}
		http.Redirect(w, r, "/lkml/msg@example.org/raw", http.StatusFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RequiresInbox: boolPtr(false)})
	body, err := c.FetchRaw(context.Background(), "msg@example.org")
	require.NoError(t, err)
	assert.Equal(t, "raw message", string(body))
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RequiresInbox: boolPtr(false)})
	_, err := c.FetchRaw(context.Background(), "missing@example.org")
	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusNotFound, ferr.Status)
	assert.Contains(t, ferr.URL, "missing@example.org")
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RequiresInbox: boolPtr(false), Timeout: 50 * time.Millisecond})
	_, err := c.FetchThread(context.Background(), "slow@example.org")
	require.ErrorIs(t, err, ErrFetchTimeout)
}

func TestMissingInboxSkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.FetchThread(context.Background(), "msg@example.org")
	require.ErrorIs(t, err, ErrMissingInbox)
	_, err = c.FetchSearch(context.Background(), "query")
	require.ErrorIs(t, err, ErrMissingInbox)
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits))
}

func TestWithInbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	base := NewClient(Config{BaseURL: srv.URL})
	// Same inbox (empty) returns the client itself.
	assert.Same(t, base, base.WithInbox(""))

	scoped := base.WithInbox("netdev")
	u, err := scoped.messageURL("msg@example.org", "raw")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/netdev/msg@example.org/raw", u)
	// The original stays inbox-less.
	_, err = base.messageURL("msg@example.org", "raw")
	require.ErrorIs(t, err, ErrMissingInbox)
}

func TestFetchSearchEmptyQuery(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.FetchSearch(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestFetchErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &FetchError{URL: "http://x", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, (&FetchError{Status: 503, URL: "http://x"}).Error(), "503")
}
