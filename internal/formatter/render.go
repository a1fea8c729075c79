// This file contains the shared Markdown rendering core. Targets differ
// in framing (title, preamble, heading style) but share the per-block
// rendering rules.

package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/mrwogu/promptscript/internal/document"
)

// canonicalOrder fixes the position of the well-known sections; blocks
// outside this list render after it in lexical order.
var canonicalOrder = []string{
	"identity",
	"standards",
	"restrictions",
	"shortcuts",
	"agents",
	"skills",
}

// sectionTitles maps block names to human headings; unlisted blocks use
// a capitalized form of their name.
var sectionTitles = map[string]string{
	"identity":     "Identity",
	"standards":    "Standards",
	"restrictions": "Restrictions",
	"shortcuts":    "Shortcuts",
	"agents":       "Agents",
	"skills":       "Skills",
}

type renderOptions struct {
	// heading renders a section heading line for the given title.
	heading func(title string) string
}

func renderBody(tree *document.ResolvedTree, opts renderOptions) string {
	var sb strings.Builder
	for _, name := range sectionOrder(tree) {
		b, _ := tree.Block(name)
		sb.WriteString(opts.heading(sectionTitle(name)))
		sb.WriteString("\n\n")
		sb.WriteString(renderBlock(b))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// sectionOrder returns the canonical sections present in the tree
// followed by the remaining blocks in lexical order. The meta block is
// excluded; targets fold it into their framing.
func sectionOrder(tree *document.ResolvedTree) []string {
	present := make(map[string]bool, tree.Len())
	for _, name := range tree.BlockNames() {
		present[name] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, name := range canonicalOrder {
		if present[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range present {
		if !seen[name] && name != "meta" {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func sectionTitle(name string) string {
	if t, ok := sectionTitles[name]; ok {
		return t
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func renderBlock(b *document.BlockContent) string {
	switch b.Kind {
	case document.KindText:
		return b.Text() + "\n"
	case document.KindArray:
		var sb strings.Builder
		for _, item := range b.Items {
			sb.WriteString("- ")
			sb.WriteString(renderScalar(item))
			sb.WriteString("\n")
		}
		return sb.String()
	case document.KindKeyedMap:
		var sb strings.Builder
		for _, key := range b.SortedEntryKeys() {
			sb.WriteString(fmt.Sprintf("- `%s` — %s\n", key, renderScalar(b.Entries[key])))
		}
		return sb.String()
	default:
		return renderObject(b.Object, 0)
	}
}

func renderObject(obj cty.Value, depth int) string {
	keys := make([]string, 0)
	values := make(map[string]cty.Value)
	for it := obj.ElementIterator(); it.Next(); {
		k, v := it.Element()
		keys = append(keys, k.AsString())
		values[k.AsString()] = v
	}
	sort.Strings(keys)

	indent := strings.Repeat("  ", depth)
	var sb strings.Builder
	for _, key := range keys {
		v := values[key]
		if !v.IsNull() && (v.Type().IsObjectType() || v.Type().IsMapType()) {
			sb.WriteString(fmt.Sprintf("%s- **%s**:\n", indent, key))
			sb.WriteString(renderObject(v, depth+1))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s- **%s**: %s\n", indent, key, renderScalar(v)))
	}
	return sb.String()
}

func renderScalar(v cty.Value) string {
	if v.IsNull() {
		return ""
	}
	ty := v.Type()
	switch {
	case ty == cty.String, ty == cty.Number, ty == cty.Bool:
		return document.FormatValue(v)
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			_, item := it.Element()
			parts = append(parts, renderScalar(item))
		}
		return strings.Join(parts, ", ")
	default:
		return v.GoString()
	}
}

// metaLine extracts a string attribute from the tree's meta block.
func metaLine(tree *document.ResolvedTree, attr string) string {
	meta, ok := tree.Block("meta")
	if !ok || meta.Kind != document.KindObject {
		return ""
	}
	if !meta.Object.Type().HasAttribute(attr) {
		return ""
	}
	v := meta.Object.GetAttr(attr)
	if v.IsNull() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

// title picks the display title for a tree: meta name, then meta id,
// then the source identifier.
func title(tree *document.ResolvedTree) string {
	if name := metaLine(tree, "name"); name != "" {
		return name
	}
	if id := metaLine(tree, "id"); id != "" {
		return id
	}
	return tree.SourceID
}
