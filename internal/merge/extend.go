package merge

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/mrwogu/promptscript/internal/document"
)

// ApplyExtend folds a patch onto the value at a dotted path. When the
// first segment names an imported alias, the patch applies to that
// fragment's retained tree rather than the merged accumulator, so the
// patch lands on the fragment's own contribution. The tree is never
// mutated; a patched copy is returned.
func ApplyExtend(tree *document.ResolvedTree, path string, patch *document.BlockContent) (*document.ResolvedTree, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	if sub, ok := tree.Alias(segments[0]); ok {
		if len(segments) == 1 {
			return nil, &PathError{Path: path, Detail: "an alias path must name a block within the aliased fragment"}
		}
		patched, err := applySegments(sub, path, segments[1:], patch)
		if err != nil {
			return nil, err
		}
		return tree.WithAlias(segments[0], patched), nil
	}

	// A multi-segment path whose head matches nothing at all is most
	// likely a misspelled or never-imported alias; creating a whole
	// block tree for it would hide the mistake.
	if _, ok := tree.Block(segments[0]); !ok && len(segments) > 1 {
		return nil, &PathError{Path: path, Detail: fmt.Sprintf("%q is neither an imported alias nor an existing block", segments[0])}
	}

	return applySegments(tree, path, segments, patch)
}

func applySegments(tree *document.ResolvedTree, path string, segments []string, patch *document.BlockContent) (*document.ResolvedTree, error) {
	name := segments[0]
	existing, ok := tree.Block(name)

	if len(segments) == 1 {
		merged, err := mergeBlock(path, existing, patch)
		if err != nil {
			return nil, err
		}
		return tree.WithBlock(name, merged), nil
	}

	// Deeper paths walk inside an object block, creating intermediate
	// objects as needed.
	root := cty.EmptyObjectVal
	if ok {
		if existing.Kind != document.KindObject {
			return nil, &PathError{Path: path, Detail: fmt.Sprintf("segment %q addresses %s content, not an object", name, existing.Kind)}
		}
		root = existing.Object
	}
	patched, err := setPath(root, path, segments[1:], patch)
	if err != nil {
		return nil, err
	}
	return tree.WithBlock(name, document.NewObject(patched)), nil
}

// setPath descends through obj along segments, creating empty objects
// for missing intermediates, and merges the patch at the final segment
// using the policy selected by the existing value's shape.
func setPath(obj cty.Value, path string, segments []string, patch *document.BlockContent) (cty.Value, error) {
	attrs := make(map[string]cty.Value)
	for it := obj.ElementIterator(); it.Next(); {
		k, v := it.Element()
		attrs[k.AsString()] = v
	}

	seg := segments[0]
	existing, exists := attrs[seg]

	if len(segments) == 1 {
		merged, err := mergeLeaf(path, existing, exists, patch)
		if err != nil {
			return cty.NilVal, err
		}
		attrs[seg] = merged
		return cty.ObjectVal(attrs), nil
	}

	child := cty.EmptyObjectVal
	if exists {
		kind, ok := document.ClassifyValue(existing)
		if !ok || kind != document.KindObject {
			return cty.NilVal, &PathError{Path: path, Detail: fmt.Sprintf("segment %q addresses a non-object value", seg)}
		}
		child = existing
	}
	patched, err := setPath(child, path, segments[1:], patch)
	if err != nil {
		return cty.NilVal, err
	}
	attrs[seg] = patched
	return cty.ObjectVal(attrs), nil
}

// mergeLeaf merges the patch onto an existing leaf value, dispatching on
// the existing value's shape. When no value exists yet the patch's own
// shape is adopted.
func mergeLeaf(path string, existing cty.Value, exists bool, patch *document.BlockContent) (cty.Value, error) {
	if !exists {
		return valueFromContent(patch), nil
	}
	if _, ok := document.ClassifyValue(existing); !ok {
		// Scalar leaves (numbers, bools) have no merge policy of their
		// own; the later value replaces them, matching object merge.
		return valueFromContent(patch), nil
	}

	existingContent, _ := document.FromValue(existing)
	merged, err := mergeBlock(path, existingContent, patch)
	if err != nil {
		return cty.NilVal, err
	}
	return valueFromContent(merged), nil
}

// valueFromContent lowers block content back into a cty value for
// storage inside an object.
func valueFromContent(b *document.BlockContent) cty.Value {
	switch b.Kind {
	case document.KindText:
		return cty.StringVal(b.Text())
	case document.KindArray:
		if len(b.Items) == 0 {
			return cty.EmptyTupleVal
		}
		return cty.TupleVal(b.Items)
	case document.KindObject:
		return b.Object
	default:
		if len(b.Entries) == 0 {
			return cty.EmptyObjectVal
		}
		entries := make(map[string]cty.Value, len(b.Entries))
		for k, v := range b.Entries {
			entries[k] = v
		}
		return cty.ObjectVal(entries)
	}
}

func splitPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &PathError{Path: path, Detail: "path is empty"}
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, &PathError{Path: path, Detail: "path contains an empty segment"}
		}
	}
	return segments, nil
}
