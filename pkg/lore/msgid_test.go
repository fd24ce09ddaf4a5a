// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lore

import (
	"errors"
	"testing"
)

func TestNormalizeMessageID(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"<a@b>", "a@b", false},
		{"a@b", "a@b", false},
		{"  <20251111105634.1684751-1-lzampier@redhat.com>\n", "20251111105634.1684751-1-lzampier@redhat.com", false},
		{"<a@b", "a@b", false},
		{"a@b>", "a@b", false},
		{"", "", true},
		{"<>", "", true},
		{"   ", "", true},
		{"<a b@c>", "", true},
	}
	for _, test := range tests {
		got, err := NormalizeMessageID(test.raw)
		if test.wantErr {
			if !errors.Is(err, ErrInvalidMessageID) {
				t.Errorf("NormalizeMessageID(%q) = %q, %v; want ErrInvalidMessageID", test.raw, got, err)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("NormalizeMessageID(%q) = %q, %v; want %q", test.raw, got, err, test.want)
		}
	}
}

func TestNormalizeMessageIDIdempotent(t *testing.T) {
	for _, raw := range []string{"<a@b>", "a@b", " <x.y-1@z.org> "} {
		once, err := NormalizeMessageID(raw)
		if err != nil {
			t.Fatal(err)
		}
		twice, err := NormalizeMessageID(once)
		if err != nil {
			t.Fatal(err)
		}
		if once != twice {
			t.Errorf("normalization of %q is not idempotent: %q != %q", raw, once, twice)
		}
	}
}

func TestBracketMessageID(t *testing.T) {
	if got := BracketMessageID("a@b"); got != "<a@b>" {
		t.Errorf("BracketMessageID(a@b) = %q", got)
	}
	if got := BracketMessageID("<a@b>"); got != "<a@b>" {
		t.Errorf("BracketMessageID(<a@b>) = %q", got)
	}
	id, err := NormalizeMessageID(BracketMessageID("a@b"))
	if err != nil || id != "a@b" {
		t.Errorf("round trip = %q, %v", id, err)
	}
}
