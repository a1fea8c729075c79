package merge

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/mrwogu/promptscript/internal/document"
)

// Fragment pairs a composed document's resolved tree with the alias it
// was imported under, if any.
type Fragment struct {
	Alias string
	Tree  *document.ResolvedTree
}

// Merge folds an optional ancestor tree, fragment trees in declared
// order, and the document's own local blocks into one resolved tree.
// Aliased fragments additionally keep their own unmodified tree
// addressable on the result, so later extension paths can target the
// fragment's contribution directly.
func Merge(sourceID string, ancestor *document.ResolvedTree, fragments []Fragment, localBlocks map[string]*document.BlockContent, localOrder []string) (*document.ResolvedTree, error) {
	acc := make(map[string]*document.BlockContent)
	var order []string

	fold := func(name string, incoming *document.BlockContent) error {
		existing := acc[name]
		merged, err := mergeBlock(name, existing, incoming)
		if err != nil {
			return err
		}
		if existing == nil {
			order = append(order, name)
		}
		acc[name] = merged
		return nil
	}

	if ancestor != nil {
		for _, name := range ancestor.BlockNames() {
			b, _ := ancestor.Block(name)
			if err := fold(name, b); err != nil {
				return nil, err
			}
		}
	}
	for _, frag := range fragments {
		for _, name := range frag.Tree.BlockNames() {
			b, _ := frag.Tree.Block(name)
			if err := fold(name, b); err != nil {
				return nil, err
			}
		}
	}
	for _, name := range localOrder {
		if err := fold(name, localBlocks[name]); err != nil {
			return nil, err
		}
	}

	tree := document.NewResolvedTree(sourceID, acc, order)
	for _, frag := range fragments {
		if frag.Alias != "" {
			tree = tree.WithAlias(frag.Alias, frag.Tree)
		}
	}
	return tree, nil
}

// mergeBlock combines an incoming block with the accumulated value of
// the same name, dispatching on the shared shape. A nil existing value
// adopts the incoming content.
func mergeBlock(name string, existing, incoming *document.BlockContent) (*document.BlockContent, error) {
	if incoming == nil {
		return existing, nil
	}
	if existing == nil {
		return incoming.Copy(), nil
	}
	if existing.Kind != incoming.Kind {
		return nil, &ConflictError{Block: name, Existing: existing.Kind, Incoming: incoming.Kind}
	}

	switch existing.Kind {
	case document.KindText:
		return mergeText(existing, incoming), nil
	case document.KindArray:
		return mergeArray(existing, incoming), nil
	case document.KindObject:
		return document.NewObject(mergeObjectValues(existing.Object, incoming.Object)), nil
	default:
		return mergeKeyedMap(existing, incoming), nil
	}
}

// mergeText appends incoming paragraphs, skipping any that are
// textually identical to one already present.
func mergeText(existing, incoming *document.BlockContent) *document.BlockContent {
	out := existing.Copy()
	seen := make(map[string]bool, len(out.Paragraphs))
	for _, p := range out.Paragraphs {
		seen[p] = true
	}
	for _, p := range incoming.Paragraphs {
		if !seen[p] {
			out.Paragraphs = append(out.Paragraphs, p)
			seen[p] = true
		}
	}
	return out
}

// mergeArray appends incoming entries after the existing ones,
// preserving order and dropping entries equal to an existing literal.
func mergeArray(existing, incoming *document.BlockContent) *document.BlockContent {
	out := existing.Copy()
	for _, item := range incoming.Items {
		if !containsValue(out.Items, item) {
			out.Items = append(out.Items, item)
		}
	}
	return out
}

// mergeKeyedMap replaces entries wholesale per key: an incoming key's
// value entirely supersedes any existing value for that key.
func mergeKeyedMap(existing, incoming *document.BlockContent) *document.BlockContent {
	out := existing.Copy()
	if out.Entries == nil {
		out.Entries = make(map[string]cty.Value, len(incoming.Entries))
	}
	for k, v := range incoming.Entries {
		out.Entries[k] = v
	}
	return out
}

// mergeObjectValues deep-merges two cty object values: keys present on
// both sides recurse when both values are themselves objects, and
// otherwise the incoming value replaces the existing one.
func mergeObjectValues(existing, incoming cty.Value) cty.Value {
	attrs := make(map[string]cty.Value)
	for it := existing.ElementIterator(); it.Next(); {
		k, v := it.Element()
		attrs[k.AsString()] = v
	}
	for it := incoming.ElementIterator(); it.Next(); {
		k, v := it.Element()
		key := k.AsString()
		if prev, ok := attrs[key]; ok && isObjectShaped(prev) && isObjectShaped(v) {
			attrs[key] = mergeObjectValues(prev, v)
			continue
		}
		attrs[key] = v
	}
	return cty.ObjectVal(attrs)
}

func isObjectShaped(v cty.Value) bool {
	if v.IsNull() || !v.IsKnown() {
		return false
	}
	ty := v.Type()
	return ty.IsObjectType() || ty.IsMapType()
}

func containsValue(items []cty.Value, v cty.Value) bool {
	for _, item := range items {
		if item.RawEquals(v) {
			return true
		}
	}
	return false
}
