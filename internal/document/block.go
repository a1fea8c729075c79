package document

import (
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// BlockKind tags the runtime shape of a block's content. The kind is a
// property of the value, not of the block name: the same name may hold
// text in one document and a list in another, and the merge engine
// dispatches on whatever shape it finds.
type BlockKind int

const (
	// KindText is prose content, held as an ordered list of paragraphs.
	KindText BlockKind = iota
	// KindArray is an ordered list of literal values.
	KindArray
	// KindObject is a structured value with identifier keys, merged
	// recursively.
	KindObject
	// KindKeyedMap is a map whose entries are replaced wholesale per
	// key, modelling "override by key" (shortcut tables and the like).
	KindKeyedMap
)

func (k BlockKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindKeyedMap:
		return "keyed map"
	default:
		return "unknown"
	}
}

// BlockContent is the tagged variant over the four block shapes. Exactly
// one of the payload fields is meaningful, selected by Kind.
type BlockContent struct {
	Kind BlockKind

	// Paragraphs holds KindText content in declaration order.
	Paragraphs []string

	// Items holds KindArray entries in declaration order.
	Items []cty.Value

	// Object holds KindObject content as a cty object value.
	Object cty.Value

	// Entries holds KindKeyedMap content.
	Entries map[string]cty.Value
}

// NewText builds a text block from raw prose, splitting it into
// paragraphs on blank lines.
func NewText(raw string) *BlockContent {
	return &BlockContent{Kind: KindText, Paragraphs: SplitParagraphs(raw)}
}

// NewArray builds an array block from literal values.
func NewArray(items []cty.Value) *BlockContent {
	return &BlockContent{Kind: KindArray, Items: items}
}

// NewObject builds an object block from a cty object value.
func NewObject(v cty.Value) *BlockContent {
	return &BlockContent{Kind: KindObject, Object: v}
}

// NewKeyedMap builds a keyed-map block.
func NewKeyedMap(entries map[string]cty.Value) *BlockContent {
	return &BlockContent{Kind: KindKeyedMap, Entries: entries}
}

// Text joins the paragraphs of a text block back into prose.
func (b *BlockContent) Text() string {
	return strings.Join(b.Paragraphs, "\n\n")
}

// Copy returns an independent clone. cty values are immutable and shared
// as-is; only the Go-level containers are duplicated.
func (b *BlockContent) Copy() *BlockContent {
	if b == nil {
		return nil
	}
	out := &BlockContent{Kind: b.Kind, Object: b.Object}
	if b.Paragraphs != nil {
		out.Paragraphs = append([]string(nil), b.Paragraphs...)
	}
	if b.Items != nil {
		out.Items = append([]cty.Value(nil), b.Items...)
	}
	if b.Entries != nil {
		out.Entries = make(map[string]cty.Value, len(b.Entries))
		for k, v := range b.Entries {
			out.Entries[k] = v
		}
	}
	return out
}

// SortedEntryKeys returns a keyed-map block's keys in lexical order, for
// deterministic rendering and diagnostics.
func (b *BlockContent) SortedEntryKeys() []string {
	keys := make([]string, 0, len(b.Entries))
	for k := range b.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SplitParagraphs splits prose into paragraphs on blank lines, trimming
// each paragraph's edges and dropping empty ones.
func SplitParagraphs(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsIdentifierKey reports whether a map key is a plain identifier. Maps
// with only identifier keys classify as objects; any other key ("/test",
// "run:lint") makes the map a keyed map.
func IsIdentifierKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' || r == '-':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ClassifyValue maps a literal cty value to the block kind its shape
// implies. Unsupported shapes (null, functions, capsules) report false.
func ClassifyValue(v cty.Value) (BlockKind, bool) {
	if v.IsNull() || !v.IsKnown() {
		return 0, false
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return KindText, true
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		return KindArray, true
	case ty.IsObjectType() || ty.IsMapType():
		for it := v.ElementIterator(); it.Next(); {
			k, _ := it.Element()
			if !IsIdentifierKey(k.AsString()) {
				return KindKeyedMap, true
			}
		}
		return KindObject, true
	default:
		return 0, false
	}
}

// FromValue converts a literal cty value into block content using
// ClassifyValue. The second result is false for shapes that cannot be
// block content.
func FromValue(v cty.Value) (*BlockContent, bool) {
	kind, ok := ClassifyValue(v)
	if !ok {
		return nil, false
	}
	switch kind {
	case KindText:
		return NewText(v.AsString()), true
	case KindArray:
		var items []cty.Value
		for it := v.ElementIterator(); it.Next(); {
			_, item := it.Element()
			items = append(items, item)
		}
		return NewArray(items), true
	case KindKeyedMap:
		entries := make(map[string]cty.Value)
		for it := v.ElementIterator(); it.Next(); {
			k, item := it.Element()
			entries[k.AsString()] = item
		}
		return NewKeyedMap(entries), true
	default:
		return NewObject(normalizeObject(v)), true
	}
}

// normalizeObject re-packs map-typed values as object values so that
// merge and rendering only ever deal with one structured representation.
func normalizeObject(v cty.Value) cty.Value {
	if v.Type().IsObjectType() {
		return v
	}
	attrs := make(map[string]cty.Value)
	for it := v.ElementIterator(); it.Next(); {
		k, item := it.Element()
		attrs[k.AsString()] = item
	}
	return cty.ObjectVal(attrs)
}
