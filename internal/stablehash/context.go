package stablehash

import (
	"path/filepath"
	"strings"
)

// Context canonicalizes session-specific values before they reach the
// accumulator. Absolute paths differ between machines and checkouts, so they
// are resolved to their root-relative, slash-separated form; feeding the raw
// spelling into the hasher would break cross-session determinism.
//
// A Context is immutable after construction and safe for concurrent use.
type Context struct {
	root string
}

// NewContext returns a canonicalization context anchored at root. An empty
// root disables path rebasing; paths are then only cleaned.
func NewContext(root string) *Context {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &Context{root: root}
}

// Root returns the anchor directory, or "" if none was configured.
func (c *Context) Root() string { return c.root }

// CanonicalPath rebases p against the context root and normalizes it to a
// slash-separated, cleaned form. Paths outside the root (or when no root is
// set) are returned in cleaned slash form unchanged, so the result is still
// deterministic for a fixed input.
func (c *Context) CanonicalPath(p string) string {
	p = filepath.Clean(p)
	if c.root != "" && filepath.IsAbs(p) {
		if rel, err := filepath.Rel(c.root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	return filepath.ToSlash(p)
}

// HashPath accumulates a path in its canonical form.
func (c *Context) HashPath(h *Hasher, p string) {
	h.String(c.CanonicalPath(p))
}
