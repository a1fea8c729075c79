package loader

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mrwogu/promptscript/internal/document"
)

// Source resolves one identifier (plus optional version constraint) to a
// parsed document.
type Source interface {
	Load(ctx context.Context, identifier, versionConstraint string) (*document.Document, error)
}

// NotFoundError reports an identifier the loader cannot produce a
// document for.
type NotFoundError struct {
	Identifier string
	Constraint string
	Err        error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("document %q not found", e.Identifier)
	if e.Constraint != "" {
		msg += fmt.Sprintf(" (version %q)", e.Constraint)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Router dispatches registry identifiers ("@collection/name") to the
// registry source and everything else to the local source.
type Router struct {
	Local    Source
	Registry Source
}

func (r *Router) Load(ctx context.Context, identifier, constraint string) (*document.Document, error) {
	if strings.HasPrefix(identifier, "@") {
		if r.Registry == nil {
			return nil, &NotFoundError{
				Identifier: identifier,
				Constraint: constraint,
				Err:        fmt.Errorf("no registry configured for collection identifiers"),
			}
		}
		return r.Registry.Load(ctx, identifier, constraint)
	}
	return r.Local.Load(ctx, identifier, constraint)
}

// Cached wraps a source with a per-run cache keyed by
// identifier+constraint. Entries are written once, on first completion,
// and never mutated; failures are cached too, so a failed fetch is
// reported once and never silently retried within the run. Concurrent
// loads of the same key share one underlying fetch.
type Cached struct {
	inner Source

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	done chan struct{}
	doc  *document.Document
	err  error
}

// NewCached wraps inner with a fresh cache.
func NewCached(inner Source) *Cached {
	return &Cached{inner: inner, entries: make(map[string]*cacheEntry)}
}

func (c *Cached) Load(ctx context.Context, identifier, constraint string) (*document.Document, error) {
	key := identifier + "@" + constraint

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.mu.Unlock()
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return e.doc, e.err
	}
	e = &cacheEntry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.doc, e.err = c.inner.Load(ctx, identifier, constraint)
	close(e.done)
	return e.doc, e.err
}
