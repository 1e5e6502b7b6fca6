package querycache

import (
	"slices"
	"strings"
)

// Key identifies a cached query, e.g. Key{"quest", "today"}.
type Key []string

// String joins the parts with "/". It is the entry's identity in the cache.
func (k Key) String() string { return strings.Join(k, "/") }

// HasPrefix reports whether k starts with every part of prefix. An empty
// prefix matches all keys.
func (k Key) HasPrefix(prefix Key) bool {
	return len(prefix) <= len(k) && slices.Equal(k[:len(prefix)], prefix)
}
