// Package idgen generates the identifiers handed out by domoutline: session
// IDs for the HTTP and MCP surfaces and record IDs for the history store.
//
// Generators are plain functions so callers can swap the strategy in tests.
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator of RFC 9562 UUID v7 strings. They sort by
// creation time, which keeps history listings in capture order.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends prefix to every ID produced by gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Sequence returns a deterministic Generator ("<prefix>1", "<prefix>2", ...)
// for tests. It is not safe for concurrent use.
func Sequence(prefix string) Generator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// Session generates session IDs.
var Session Generator = UUIDv7()

// Capture generates history record IDs.
var Capture Generator = Prefixed("cap_", UUIDv7())

// New produces a session ID.
func New() string {
	return Session()
}

// Parse validates a UUID, optionally carrying one of the known prefixes, and
// returns it unchanged.
func Parse(s string) (string, error) {
	if _, err := uuid.Parse(strings.TrimPrefix(s, "cap_")); err != nil {
		return "", fmt.Errorf("idgen: invalid id %q: %w", s, err)
	}
	return s, nil
}
