// Package safety provides id filtering, confirmation, and audit logging for
// destructive or sensitive Pipefy MCP operations.
package safety

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNotAllowed is wrapped by Filter.Check when an id is rejected.
var ErrNotAllowed = errors.New("not allowed by safety filter")

// Filter restricts which Pipefy ids (pipes or tables) the MCP tools may
// touch. Glob patterns (as understood by filepath.Match) are supported in
// both lists.
//
// Rules:
//   - If both lists are empty (or nil), every id is allowed.
//   - Denylist always takes priority over the allowlist.
//   - A non-empty allowlist requires a match after the denylist check.
type Filter struct {
	kind      string
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter for ids of the given kind ("pipe", "table")
// from the provided allowlist and denylist pattern slices. Either or both
// may be nil or empty.
func NewFilter(kind string, allowlist, denylist []string) *Filter {
	return &Filter{
		kind:      kind,
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// IsAllowed reports whether id is permitted by this filter. A nil filter
// allows everything.
func (f *Filter) IsAllowed(id string) bool {
	if f == nil {
		return true
	}
	for _, pattern := range f.denylist {
		if matchGlob(pattern, id) {
			return false
		}
	}

	if len(f.allowlist) == 0 {
		return true
	}

	for _, pattern := range f.allowlist {
		if matchGlob(pattern, id) {
			return true
		}
	}

	return false
}

// Check returns an error wrapping ErrNotAllowed when id is rejected.
func (f *Filter) Check(id string) error {
	if f.IsAllowed(id) {
		return nil
	}
	return fmt.Errorf("%s %q: %w", f.kind, id, ErrNotAllowed)
}

// matchGlob returns true when name matches the given glob pattern.
// Malformed patterns never match.
func matchGlob(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}
