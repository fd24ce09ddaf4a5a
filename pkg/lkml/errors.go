// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lkml

import (
	"errors"

	"github.com/zampierilucas/lkml-mcp/pkg/archive"
	"github.com/zampierilucas/lkml-mcp/pkg/lore"
)

// ErrorKind maps an error to its machine-readable kind, for protocol
// layers that cannot carry Go error values.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, lore.ErrInvalidMessageID):
		return "InvalidIdentifier"
	case errors.Is(err, archive.ErrMissingInbox):
		return "MissingInboxParameter"
	case errors.Is(err, archive.ErrEmptyQuery):
		return "EmptyQuery"
	case errors.Is(err, archive.ErrFetchTimeout):
		return "FetchTimeout"
	case errors.Is(err, lore.ErrMalformedMbox):
		return "MalformedMbox"
	case errors.Is(err, lore.ErrUnparseableMessage):
		return "UnparseableMessage"
	}
	var fetchErr *archive.FetchError
	if errors.As(err, &fetchErr) {
		return "FetchFailed"
	}
	return "Internal"
}
