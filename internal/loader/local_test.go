package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrwogu/promptscript/internal/document"
	"github.com/mrwogu/promptscript/internal/loader"
)

func writeDoc(t *testing.T, root, rel, src string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func TestLocalLoad(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "team/backend.prs", `
meta {
  id      = "team/backend"
  version = "1.0.0"
}
standards = "Local rule."
`)

	local := loader.NewLocal(root)

	t.Run("with extension", func(t *testing.T) {
		doc, err := local.Load(context.Background(), "team/backend.prs", "")
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", doc.Version)
	})

	t.Run("extension optional", func(t *testing.T) {
		doc, err := local.Load(context.Background(), "team/backend", "")
		require.NoError(t, err)
		b, ok := doc.Blocks["standards"]
		require.True(t, ok)
		assert.Equal(t, "Local rule.", b.Text())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := local.Load(context.Background(), "team/nothing", "")
		var nf *loader.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "team/nothing", nf.Identifier)
	})

	t.Run("constraint rejected", func(t *testing.T) {
		_, err := local.Load(context.Background(), "team/backend", ">= 1.0")
		var nf *loader.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Contains(t, nf.Error(), "version constraints")
	})
}

func TestFindDocuments(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.prs", "standards = \"x\"\n")
	writeDoc(t, root, "nested/b.prs", "standards = \"y\"\n")
	writeDoc(t, root, "notes.txt", "not a document\n")

	files, err := loader.FindDocuments(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(root, "a.prs"), files[0])
	assert.Equal(t, filepath.Join(root, "nested", "b.prs"), files[1])
}

// countingSource records loads so cache behavior is observable.
type countingSource struct {
	mu    sync.Mutex
	loads map[string]int
	docs  map[string]*document.Document
	errs  map[string]error
}

func newCountingSource() *countingSource {
	return &countingSource{
		loads: make(map[string]int),
		docs:  make(map[string]*document.Document),
		errs:  make(map[string]error),
	}
}

func (s *countingSource) Load(ctx context.Context, identifier, constraint string) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[identifier]++
	if err, ok := s.errs[identifier]; ok {
		return nil, err
	}
	return s.docs[identifier], nil
}

func TestCachedLoadsOnce(t *testing.T) {
	inner := newCountingSource()
	inner.docs["a"] = &document.Document{Identifier: "a"}
	cached := loader.NewCached(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := cached.Load(context.Background(), "a", "")
			assert.NoError(t, err)
			assert.Equal(t, "a", doc.Identifier)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inner.loads["a"])
}

func TestCachedCachesFailures(t *testing.T) {
	inner := newCountingSource()
	inner.errs["broken"] = &loader.NotFoundError{Identifier: "broken"}
	cached := loader.NewCached(inner)

	for i := 0; i < 3; i++ {
		_, err := cached.Load(context.Background(), "broken", "")
		var nf *loader.NotFoundError
		require.ErrorAs(t, err, &nf)
	}
	assert.Equal(t, 1, inner.loads["broken"])
}

func TestCachedKeysIncludeConstraint(t *testing.T) {
	inner := newCountingSource()
	inner.docs["lib"] = &document.Document{Identifier: "lib"}
	cached := loader.NewCached(inner)

	_, err := cached.Load(context.Background(), "lib", "1.0.0")
	require.NoError(t, err)
	_, err = cached.Load(context.Background(), "lib", "2.0.0")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.loads["lib"])
}

func TestRouterDispatch(t *testing.T) {
	local := newCountingSource()
	local.docs["team/backend"] = &document.Document{Identifier: "team/backend"}
	registry := newCountingSource()
	registry.docs["@company/base"] = &document.Document{Identifier: "@company/base"}

	router := &loader.Router{Local: local, Registry: registry}

	_, err := router.Load(context.Background(), "team/backend", "")
	require.NoError(t, err)
	_, err = router.Load(context.Background(), "@company/base", "")
	require.NoError(t, err)

	assert.Equal(t, 1, local.loads["team/backend"])
	assert.Equal(t, 1, registry.loads["@company/base"])
}

func TestRouterWithoutRegistry(t *testing.T) {
	router := &loader.Router{Local: newCountingSource()}

	_, err := router.Load(context.Background(), "@company/base", "")
	var nf *loader.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Error(), "no registry configured")
}
