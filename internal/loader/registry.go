package loader

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	goversion "github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
	"resty.dev/v3"

	"github.com/mrwogu/promptscript/internal/ctxlog"
	"github.com/mrwogu/promptscript/internal/document"
	"github.com/mrwogu/promptscript/internal/parser"
)

// Index is the registry's collection index, served as YAML at
// /index.yaml. Each entry publishes one version of one document.
type Index struct {
	Documents []IndexEntry `yaml:"documents"`
}

// IndexEntry is one published document version.
type IndexEntry struct {
	// Name is the registry-wide document name, e.g. "company/base".
	Name string `yaml:"name"`

	// Version is a semantic version string.
	Version string `yaml:"version"`

	// Path is the document location relative to the registry base URL.
	Path string `yaml:"path"`
}

// Registry loads documents from a versioned remote collection over
// HTTP. The index is fetched once per run; document fetches are retried
// at this layer only.
type Registry struct {
	client *resty.Client

	mu    sync.Mutex
	index *Index
}

// NewRegistry creates a registry source for the given base URL.
func NewRegistry(baseURL string) *Registry {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetRetryCount(2)
	return &Registry{client: client}
}

// Close releases the underlying HTTP client.
func (r *Registry) Close() error {
	return r.client.Close()
}

func (r *Registry) Load(ctx context.Context, identifier, constraint string) (*document.Document, error) {
	name := strings.TrimPrefix(identifier, "@")

	idx, err := r.loadIndex(ctx)
	if err != nil {
		return nil, &NotFoundError{Identifier: identifier, Constraint: constraint, Err: err}
	}

	entry, err := selectVersion(idx, name, constraint)
	if err != nil {
		return nil, &NotFoundError{Identifier: identifier, Constraint: constraint, Err: err}
	}

	body, err := r.fetch(ctx, entry.Path)
	if err != nil {
		return nil, &NotFoundError{Identifier: identifier, Constraint: constraint, Err: err}
	}

	ctxlog.FromContext(ctx).Debug("Fetched registry document.",
		"identifier", identifier, "version", entry.Version, "path", entry.Path)

	doc, err := parser.Parse(identifier, entry.Path, body)
	if err != nil {
		return nil, err
	}
	doc.Version = entry.Version
	return doc, nil
}

func (r *Registry) loadIndex(ctx context.Context) (*Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index != nil {
		return r.index, nil
	}

	body, err := r.fetch(ctx, "index.yaml")
	if err != nil {
		return nil, fmt.Errorf("fetch registry index: %w", err)
	}
	var idx Index
	if err := yaml.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("decode registry index: %w", err)
	}
	r.index = &idx
	return r.index, nil
}

func (r *Registry) fetch(ctx context.Context, path string) ([]byte, error) {
	res, err := r.client.R().SetContext(ctx).Get("/" + strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("registry returned %d for %s", res.StatusCode(), path)
	}
	return res.Bytes(), nil
}

// selectVersion picks the highest published version of name satisfying
// the constraint. An empty constraint selects the highest version.
func selectVersion(idx *Index, name, constraint string) (*IndexEntry, error) {
	var constraints goversion.Constraints
	if constraint != "" {
		var err error
		constraints, err = goversion.NewConstraint(constraint)
		if err != nil {
			return nil, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
		}
	}

	type candidate struct {
		entry   IndexEntry
		version *goversion.Version
	}
	var candidates []candidate
	for _, entry := range idx.Documents {
		if entry.Name != name {
			continue
		}
		v, err := goversion.NewVersion(entry.Version)
		if err != nil {
			return nil, fmt.Errorf("registry entry %s has invalid version %q: %w", name, entry.Version, err)
		}
		if constraints != nil && !constraints.Check(v) {
			continue
		}
		candidates = append(candidates, candidate{entry: entry, version: v})
	}

	if len(candidates) == 0 {
		if constraint != "" {
			return nil, fmt.Errorf("no published version of %s satisfies %q", name, constraint)
		}
		return nil, fmt.Errorf("no published versions of %s", name)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].version.LessThan(candidates[j].version)
	})
	best := candidates[len(candidates)-1].entry
	return &best, nil
}
