package parser

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/mrwogu/promptscript/internal/document"
	"github.com/mrwogu/promptscript/internal/schema"
)

// Reserved block types consumed by the parser itself. Everything else in
// a document body is content.
const (
	blockInherit = "inherit"
	blockUse     = "use"
	blockExtend  = "extend"
	blockParam   = "param"
)

// Parse translates one .prs file into a Document. The identifier is the
// name the document was requested under; filename is used for
// diagnostic positions only.
func Parse(identifier, filename string, src []byte) (*document.Document, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("parse %s: unexpected body type %T", filename, file.Body)
	}

	doc := &document.Document{
		Identifier: identifier,
		Source:     filename,
		Blocks:     make(map[string]*document.BlockContent),
	}

	var all hcl.Diagnostics
	for _, item := range bodyItems(body) {
		switch it := item.(type) {
		case *hclsyntax.Attribute:
			all = append(all, translateContentAttr(doc, it)...)
		case *hclsyntax.Block:
			all = append(all, translateBlock(doc, it)...)
		}
	}
	if all.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, all)
	}

	if meta, ok := doc.Blocks["meta"]; ok && meta.Kind == document.KindObject {
		doc.Version = metaString(meta.Object, "version")
		if doc.Identifier == "" {
			doc.Identifier = metaString(meta.Object, "id")
		}
	}

	return doc, nil
}

// bodyItems returns the body's attributes and blocks interleaved in
// source order. HCL stores attributes in a map, so declaration order has
// to be recovered from byte offsets.
func bodyItems(body *hclsyntax.Body) []hclsyntax.Node {
	items := make([]hclsyntax.Node, 0, len(body.Attributes)+len(body.Blocks))
	for _, attr := range body.Attributes {
		items = append(items, attr)
	}
	for _, block := range body.Blocks {
		items = append(items, block)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Range().Start.Byte < items[j].Range().Start.Byte
	})
	return items
}

func translateContentAttr(doc *document.Document, attr *hclsyntax.Attribute) hcl.Diagnostics {
	if isReserved(attr.Name) {
		return hcl.Diagnostics{&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Reserved name used as attribute",
			Detail:   fmt.Sprintf("%q is a reference declaration and must be written as a block.", attr.Name),
			Subject:  &attr.SrcRange,
		}}
	}
	content, diags := exprToContent(attr.Expr)
	if diags.HasErrors() {
		return diags
	}
	return addBlock(doc, attr.Name, content, attr.SrcRange)
}

func translateBlock(doc *document.Document, block *hclsyntax.Block) hcl.Diagnostics {
	switch block.Type {
	case blockInherit:
		return translateInherit(doc, block)
	case blockUse:
		return translateUse(doc, block)
	case blockExtend:
		return translateExtend(doc, block)
	case blockParam:
		return translateParam(doc, block)
	}

	if len(block.Labels) != 0 {
		return hcl.Diagnostics{&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unexpected label on content block",
			Detail:   fmt.Sprintf("Content block %q does not take labels.", block.Type),
			Subject:  &block.TypeRange,
		}}
	}

	obj, diags := blockToObjectValue(block.Body)
	if diags.HasErrors() {
		return diags
	}
	return addBlock(doc, block.Type, document.NewObject(obj), block.TypeRange)
}

func translateInherit(doc *document.Document, block *hclsyntax.Block) hcl.Diagnostics {
	target, diags := singleLabel(block, "inherit requires a target identifier label")
	if diags.HasErrors() {
		return diags
	}
	if doc.Inherit() != nil {
		return hcl.Diagnostics{&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Multiple inherit declarations",
			Detail:   "A document may declare at most one ancestor.",
			Subject:  &block.TypeRange,
		}}
	}

	var b schema.InheritBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
		return diags
	}
	args, diags := literalArguments(b.With)
	if diags.HasErrors() {
		return diags
	}

	doc.References = append(doc.References, document.Reference{
		Kind:      document.RefInherit,
		Target:    target,
		Version:   b.Version,
		Arguments: args,
		DeclRange: block.DefRange(),
	})
	return nil
}

func translateUse(doc *document.Document, block *hclsyntax.Block) hcl.Diagnostics {
	target, diags := singleLabel(block, "use requires a target identifier label")
	if diags.HasErrors() {
		return diags
	}

	var b schema.UseBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
		return diags
	}
	if b.As != "" && !document.IsIdentifierKey(b.As) {
		return hcl.Diagnostics{&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid alias",
			Detail:   fmt.Sprintf("Alias %q must be a plain identifier.", b.As),
			Subject:  &block.TypeRange,
		}}
	}
	args, diags := literalArguments(b.With)
	if diags.HasErrors() {
		return diags
	}

	doc.References = append(doc.References, document.Reference{
		Kind:      document.RefUse,
		Target:    target,
		Version:   b.Version,
		Alias:     b.As,
		Arguments: args,
		DeclRange: block.DefRange(),
	})
	return nil
}

func translateExtend(doc *document.Document, block *hclsyntax.Block) hcl.Diagnostics {
	path, diags := singleLabel(block, "extend requires a dotted path label")
	if diags.HasErrors() {
		return diags
	}

	patch, diags := extendPatch(block.Body)
	if diags.HasErrors() {
		return diags
	}

	doc.References = append(doc.References, document.Reference{
		Kind:      document.RefExtend,
		Path:      path,
		Patch:     patch,
		DeclRange: block.DefRange(),
	})
	return nil
}

func translateParam(doc *document.Document, block *hclsyntax.Block) hcl.Diagnostics {
	name, diags := singleLabel(block, "param requires a name label")
	if diags.HasErrors() {
		return diags
	}
	if !document.IsIdentifierKey(name) {
		return hcl.Diagnostics{&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid parameter name",
			Detail:   fmt.Sprintf("Parameter name %q must be a plain identifier.", name),
			Subject:  &block.TypeRange,
		}}
	}
	for _, p := range doc.Params {
		if p.Name == name {
			return hcl.Diagnostics{&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate parameter declaration",
				Detail:   fmt.Sprintf("Parameter %q is already declared.", name),
				Subject:  &block.TypeRange,
			}}
		}
	}

	var b schema.ParamBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
		return diags
	}

	ptype, diags := parseParamType(b.Type)
	if diags.HasErrors() {
		return diags
	}

	def := cty.NilVal
	if b.Default != nil {
		v, valDiags := b.Default.Value(nil)
		if valDiags.HasErrors() {
			return valDiags
		}
		if !v.IsNull() {
			def = v
		}
	}

	doc.Params = append(doc.Params, document.ParameterDeclaration{
		Name:        name,
		Type:        ptype,
		Default:     def,
		Required:    b.Required,
		Description: b.Description,
	})
	return nil
}

func addBlock(doc *document.Document, name string, content *document.BlockContent, rng hcl.Range) hcl.Diagnostics {
	if _, exists := doc.Blocks[name]; exists {
		return hcl.Diagnostics{&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Duplicate block",
			Detail:   fmt.Sprintf("Block %q is already declared in this document.", name),
			Subject:  &rng,
		}}
	}
	doc.Blocks[name] = content
	doc.BlockOrder = append(doc.BlockOrder, name)
	return nil
}

func singleLabel(block *hclsyntax.Block, detail string) (string, hcl.Diagnostics) {
	if len(block.Labels) != 1 || block.Labels[0] == "" {
		return "", hcl.Diagnostics{&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Invalid %s declaration", block.Type),
			Detail:   detail,
			Subject:  &block.TypeRange,
		}}
	}
	return block.Labels[0], nil
}

func isReserved(name string) bool {
	switch name {
	case blockInherit, blockUse, blockExtend, blockParam:
		return true
	}
	return false
}

func metaString(obj cty.Value, attr string) string {
	if !obj.Type().HasAttribute(attr) {
		return ""
	}
	v := obj.GetAttr(attr)
	if v.IsNull() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}
