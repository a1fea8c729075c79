package resolver

import (
	"context"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"

	"github.com/mrwogu/promptscript/internal/binder"
	"github.com/mrwogu/promptscript/internal/ctxlog"
	"github.com/mrwogu/promptscript/internal/document"
	"github.com/mrwogu/promptscript/internal/merge"
)

// Source produces parsed documents for identifiers. Implementations own
// caching and any I/O retry policy; the resolver never retries a failed
// load.
type Source interface {
	Load(ctx context.Context, identifier, versionConstraint string) (*document.Document, error)
}

// status is the per-node resolution state.
type status int

const (
	statusUnvisited status = iota
	statusResolving
	statusResolved
	statusFailed
)

// Edge records one resolved reference for diagnostics.
type Edge struct {
	From string
	To   string
	Kind document.RefKind
}

// node is the memoized outcome of resolving one identifier+constraint.
// The tree is kept uninterpolated; parameter binding applies per
// reference, so two call sites with different arguments share one merge.
type node struct {
	tree   *document.ResolvedTree
	params []document.ParameterDeclaration
}

// Resolver resolves documents into merged trees. Its caches are scoped
// to the Resolver value: construct one per compile invocation so state
// never leaks between runs.
type Resolver struct {
	source Source

	states   map[string]status
	memo     map[string]*node
	failures map[string]error

	// stack is the active resolution chain, used for cycle reporting
	// and for attaching identifier chains to propagated errors.
	stack []string

	// constraints tracks which version constraints each identifier was
	// requested under, to warn when one identifier resolves under two.
	constraints map[string]map[string]bool

	edges []Edge
}

// New creates a Resolver with fresh per-run caches.
func New(source Source) *Resolver {
	return &Resolver{
		source:      source,
		states:      make(map[string]status),
		memo:        make(map[string]*node),
		failures:    make(map[string]error),
		constraints: make(map[string]map[string]bool),
	}
}

// Resolve produces the fully merged, parameter-bound tree for the entry
// document. The entry's own parameters are bound with no call-site
// arguments, so declared defaults apply and missing required parameters
// fail here.
func (r *Resolver) Resolve(ctx context.Context, identifier, versionConstraint string) (*document.ResolvedTree, error) {
	n, err := r.resolveNode(ctx, identifier, versionConstraint)
	if err != nil {
		return nil, err
	}
	return r.bindNode(n, nil)
}

// Edges returns the reference edges traversed during resolution, in a
// stable order, for diagnostic reporting.
func (r *Resolver) Edges() []Edge {
	out := append([]Edge(nil), r.edges...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func (r *Resolver) resolveNode(ctx context.Context, identifier, constraint string) (*node, error) {
	logger := ctxlog.FromContext(ctx)
	key := nodeKey(identifier, constraint)

	switch r.states[key] {
	case statusResolving:
		return nil, &CycleError{Chain: r.cycleChain(identifier)}
	case statusResolved:
		logger.Debug("Resolution cache hit.", "identifier", identifier, "constraint", constraint)
		return r.memo[key], nil
	case statusFailed:
		// Failures are terminal for the run; propagate immediately.
		return nil, r.failures[key]
	}

	r.noteConstraint(ctx, identifier, constraint)
	r.states[key] = statusResolving
	r.stack = append(r.stack, identifier)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	n, err := r.expand(ctx, identifier, constraint)
	if err != nil {
		err = r.withChain(err)
		r.states[key] = statusFailed
		r.failures[key] = err
		return nil, err
	}

	r.states[key] = statusResolved
	r.memo[key] = n
	logger.Debug("Document resolved.", "identifier", identifier, "blocks", n.tree.Len())
	return n, nil
}

// expand loads a document and folds its ancestor, fragments, local
// blocks, and extension patches into one tree.
func (r *Resolver) expand(ctx context.Context, identifier, constraint string) (*node, error) {
	doc, err := r.source.Load(ctx, identifier, constraint)
	if err != nil {
		return nil, err
	}

	r.prefetch(ctx, doc)

	var ancestor *document.ResolvedTree
	if inh := doc.Inherit(); inh != nil {
		r.edges = append(r.edges, Edge{From: identifier, To: inh.Target, Kind: document.RefInherit})
		child, err := r.resolveNode(ctx, inh.Target, inh.Version)
		if err != nil {
			return nil, err
		}
		ancestor, err = r.bindNode(child, inh.Arguments)
		if err != nil {
			return nil, err
		}
	}

	var fragments []merge.Fragment
	for _, use := range doc.Uses() {
		r.edges = append(r.edges, Edge{From: identifier, To: use.Target, Kind: document.RefUse})
		child, err := r.resolveNode(ctx, use.Target, use.Version)
		if err != nil {
			return nil, err
		}
		tree, err := r.bindNode(child, use.Arguments)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, merge.Fragment{Alias: use.Alias, Tree: tree})
	}

	tree, err := merge.Merge(identifier, ancestor, fragments, doc.Blocks, doc.BlockOrder)
	if err != nil {
		return nil, err
	}

	for _, ext := range doc.Extends() {
		tree, err = merge.ApplyExtend(tree, ext.Path, ext.Patch)
		if err != nil {
			return nil, err
		}
	}

	return &node{tree: tree, params: doc.Params}, nil
}

// bindNode applies call-site arguments against the node's declared
// parameters and interpolates the bound literals into text content.
func (r *Resolver) bindNode(n *node, args map[string]cty.Value) (*document.ResolvedTree, error) {
	bound, err := binder.Bind(n.params, args)
	if err != nil {
		return nil, r.withChain(err)
	}
	tree, err := binder.Interpolate(n.tree, bound)
	if err != nil {
		return nil, r.withChain(err)
	}
	return tree, nil
}

// prefetch warms the source cache for all sibling reference targets in
// parallel. Errors are ignored here: the sequential resolution pass
// re-requests each target and reports failures with proper chain
// context.
func (r *Resolver) prefetch(ctx context.Context, doc *document.Document) {
	type target struct{ id, constraint string }
	seen := make(map[target]bool)
	g, gctx := errgroup.WithContext(ctx)
	for i := range doc.References {
		ref := doc.References[i]
		if ref.Kind == document.RefExtend {
			continue
		}
		t := target{ref.Target, ref.Version}
		if seen[t] {
			continue
		}
		seen[t] = true
		g.Go(func() error {
			if _, err := r.source.Load(gctx, t.id, t.constraint); err != nil {
				ctxlog.FromContext(gctx).Debug("Prefetch failed; sequential pass will report.", "identifier", t.id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// cycleChain builds the reported chain from the first active occurrence
// of the repeated identifier back to itself.
func (r *Resolver) cycleChain(repeated string) []string {
	for i, id := range r.stack {
		if id == repeated {
			chain := append([]string(nil), r.stack[i:]...)
			return append(chain, repeated)
		}
	}
	return []string{repeated, repeated}
}

// withChain attaches the current identifier chain to an error, unless
// it already carries one.
func (r *Resolver) withChain(err error) error {
	switch err.(type) {
	case *ChainError, *CycleError:
		return err
	}
	if len(r.stack) == 0 {
		return err
	}
	return &ChainError{Chain: append([]string(nil), r.stack...), Err: err}
}

func (r *Resolver) noteConstraint(ctx context.Context, identifier, constraint string) {
	set := r.constraints[identifier]
	if set == nil {
		set = make(map[string]bool)
		r.constraints[identifier] = set
	}
	if !set[constraint] && len(set) > 0 {
		others := make([]string, 0, len(set))
		for c := range set {
			others = append(others, c)
		}
		sort.Strings(others)
		ctxlog.FromContext(ctx).Warn("Identifier referenced under multiple version constraints; resolving independently.",
			"identifier", identifier, "constraint", constraint, "previous", others)
	}
	set[constraint] = true
}

func nodeKey(identifier, constraint string) string {
	return identifier + "@" + constraint
}
