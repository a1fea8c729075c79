// Package testutil provides in-memory document sources and compile
// helpers shared by the package tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrwogu/promptscript/internal/document"
	"github.com/mrwogu/promptscript/internal/loader"
	"github.com/mrwogu/promptscript/internal/parser"
	"github.com/mrwogu/promptscript/internal/resolver"
)

// MemorySource is a resolver source backed by in-memory document text,
// keyed by identifier and optionally by version constraint. It counts
// loads per key so tests can assert memoization behavior.
type MemorySource struct {
	mu        sync.Mutex
	plain     map[string]string
	versioned map[string]map[string]string
	loads     map[string]int
}

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		plain:     make(map[string]string),
		versioned: make(map[string]map[string]string),
		loads:     make(map[string]int),
	}
}

// Add registers document text for an identifier, served for any version
// constraint that has no dedicated AddVersion entry.
func (s *MemorySource) Add(identifier, src string) *MemorySource {
	s.plain[identifier] = src
	return s
}

// AddVersion registers document text served only for an exact version
// constraint string.
func (s *MemorySource) AddVersion(identifier, constraint, src string) *MemorySource {
	if s.versioned[identifier] == nil {
		s.versioned[identifier] = make(map[string]string)
	}
	s.versioned[identifier][constraint] = src
	return s
}

// Loads reports how many times the identifier+constraint key was
// requested.
func (s *MemorySource) Loads(identifier, constraint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads[identifier+"@"+constraint]
}

func (s *MemorySource) Load(ctx context.Context, identifier, constraint string) (*document.Document, error) {
	s.mu.Lock()
	s.loads[identifier+"@"+constraint]++
	s.mu.Unlock()

	if byConstraint, ok := s.versioned[identifier]; ok {
		if src, ok := byConstraint[constraint]; ok {
			return parser.Parse(identifier, identifier+loader.Extension, []byte(src))
		}
	}
	if src, ok := s.plain[identifier]; ok {
		return parser.Parse(identifier, identifier+loader.Extension, []byte(src))
	}
	return nil, &loader.NotFoundError{Identifier: identifier, Constraint: constraint}
}

// Resolve runs a fresh resolver over the source and fails the test on
// error.
func Resolve(t *testing.T, src *MemorySource, entry string) *document.ResolvedTree {
	t.Helper()
	tree, err := resolver.New(src).Resolve(context.Background(), entry, "")
	require.NoError(t, err)
	return tree
}

// MustParse parses document text and fails the test on error.
func MustParse(t *testing.T, identifier, src string) *document.Document {
	t.Helper()
	doc, err := parser.Parse(identifier, identifier+loader.Extension, []byte(src))
	require.NoError(t, err)
	return doc
}
