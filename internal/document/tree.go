package document

import "sort"

// ResolvedTree is the fully merged output of resolving one document. It
// is immutable once built: merge and extension always produce a new
// tree, and downstream validation and formatting only read it.
type ResolvedTree struct {
	// SourceID identifies the document this tree was resolved for.
	SourceID string

	blocks map[string]*BlockContent
	order  []string

	// aliases retains the unmodified resolved tree of each aliased
	// fragment, so extension paths can target the fragment's own
	// content rather than the merged accumulator.
	aliases map[string]*ResolvedTree
}

// NewResolvedTree builds a tree from blocks in the given name order.
// Names missing from order are appended in lexical order so every block
// has a stable position.
func NewResolvedTree(sourceID string, blocks map[string]*BlockContent, order []string) *ResolvedTree {
	t := &ResolvedTree{
		SourceID: sourceID,
		blocks:   make(map[string]*BlockContent, len(blocks)),
		aliases:  make(map[string]*ResolvedTree),
	}
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if _, ok := blocks[name]; ok && !seen[name] {
			t.order = append(t.order, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range blocks {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	t.order = append(t.order, rest...)
	for name, b := range blocks {
		t.blocks[name] = b
	}
	return t
}

// Block returns the content merged under name.
func (t *ResolvedTree) Block(name string) (*BlockContent, bool) {
	b, ok := t.blocks[name]
	return b, ok
}

// BlockNames returns block names in merge order.
func (t *ResolvedTree) BlockNames() []string {
	return append([]string(nil), t.order...)
}

// Len reports the number of blocks.
func (t *ResolvedTree) Len() int { return len(t.blocks) }

// Alias returns the retained resolved tree of an aliased fragment.
func (t *ResolvedTree) Alias(name string) (*ResolvedTree, bool) {
	a, ok := t.aliases[name]
	return a, ok
}

// AliasNames returns the known alias names in lexical order.
func (t *ResolvedTree) AliasNames() []string {
	names := make([]string, 0, len(t.aliases))
	for name := range t.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithAlias returns a copy of the tree with the alias bound. Binding an
// existing alias name replaces it in the copy.
func (t *ResolvedTree) WithAlias(name string, sub *ResolvedTree) *ResolvedTree {
	out := t.shallowCopy()
	out.aliases[name] = sub
	return out
}

// WithBlock returns a copy of the tree with one block replaced or added.
func (t *ResolvedTree) WithBlock(name string, b *BlockContent) *ResolvedTree {
	out := t.shallowCopy()
	if _, existed := out.blocks[name]; !existed {
		out.order = append(out.order, name)
	}
	out.blocks[name] = b
	return out
}

// Transform returns a copy with every block rewritten through fn. Used
// by parameter interpolation, which rewrites text content wholesale.
func (t *ResolvedTree) Transform(fn func(name string, b *BlockContent) (*BlockContent, error)) (*ResolvedTree, error) {
	out := t.shallowCopy()
	for name, b := range t.blocks {
		nb, err := fn(name, b)
		if err != nil {
			return nil, err
		}
		out.blocks[name] = nb
	}
	return out, nil
}

func (t *ResolvedTree) shallowCopy() *ResolvedTree {
	out := &ResolvedTree{
		SourceID: t.SourceID,
		blocks:   make(map[string]*BlockContent, len(t.blocks)),
		order:    append([]string(nil), t.order...),
		aliases:  make(map[string]*ResolvedTree, len(t.aliases)),
	}
	for name, b := range t.blocks {
		out.blocks[name] = b
	}
	for name, a := range t.aliases {
		out.aliases[name] = a
	}
	return out
}
