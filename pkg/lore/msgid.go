// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMessageID is returned when an input message id cannot be
// brought into canonical form.
var ErrInvalidMessageID = errors.New("invalid message id")

// NormalizeMessageID converts a message id to its canonical bracket-free
// form: surrounding whitespace and a single <...> pair are stripped.
// All internal lookups and map keys use this form. The operation is
// idempotent.
func NormalizeMessageID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if strings.HasPrefix(id, "<") {
		id = id[1:]
	}
	if strings.HasSuffix(id, ">") {
		id = id[:len(id)-1]
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty after normalization (%q)", ErrInvalidMessageID, raw)
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalidMessageID, raw)
	}
	return id, nil
}

// BracketMessageID is the inverse of NormalizeMessageID, for building
// header values and URLs that require the <...> form.
func BracketMessageID(id string) string {
	if strings.HasPrefix(id, "<") && strings.HasSuffix(id, ">") {
		return id
	}
	return "<" + id + ">"
}
