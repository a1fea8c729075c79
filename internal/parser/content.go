// This file contains the translation of HCL expressions and blocks into
// block content, including the rule that parameter placeholders survive
// only inside text content and never evaluate as expressions.

package parser

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/mrwogu/promptscript/internal/document"
)

// exprToContent classifies an attribute expression into block content.
// String-shaped expressions take the text path, which preserves
// ${name} placeholders literally instead of evaluating them; all other
// shapes must be fully literal.
func exprToContent(expr hclsyntax.Expression) (*document.BlockContent, hcl.Diagnostics) {
	if isTextExpr(expr) {
		text, diags := templateText(expr)
		if diags.HasErrors() {
			return nil, diags
		}
		return document.NewText(text), nil
	}

	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	content, ok := document.FromValue(v)
	if !ok {
		rng := expr.Range()
		return nil, hcl.Diagnostics{&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported block content",
			Detail:   fmt.Sprintf("Block content must be text, a list, or a map; got %s.", v.Type().FriendlyName()),
			Subject:  &rng,
		}}
	}
	return content, nil
}

// isTextExpr reports whether the expression is string-shaped and should
// be translated through the placeholder-preserving text path.
func isTextExpr(expr hclsyntax.Expression) bool {
	switch e := expr.(type) {
	case *hclsyntax.TemplateExpr, *hclsyntax.TemplateWrapExpr:
		return true
	case *hclsyntax.LiteralValueExpr:
		return e.Val.Type() == cty.String
	}
	return false
}

// templateText reconstructs the literal text of a string expression.
// Interpolation parts that are single-name traversals are re-emitted as
// ${name} placeholder tokens for the binder; anything richer is an
// error, because placeholders are never expressions.
func templateText(expr hclsyntax.Expression) (string, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return e.Val.AsString(), nil

	case *hclsyntax.TemplateWrapExpr:
		return placeholderToken(e.Wrapped)

	case *hclsyntax.TemplateExpr:
		var out string
		for _, part := range e.Parts {
			switch p := part.(type) {
			case *hclsyntax.LiteralValueExpr:
				if p.Val.Type() != cty.String {
					out += document.FormatValue(p.Val)
					continue
				}
				out += p.Val.AsString()
			default:
				token, diags := placeholderToken(part)
				if diags.HasErrors() {
					return "", diags
				}
				out += token
			}
		}
		return out, nil
	}

	rng := expr.Range()
	return "", hcl.Diagnostics{&hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Unsupported text expression",
		Detail:   "Text content must be a literal string or heredoc.",
		Subject:  &rng,
	}}
}

// placeholderToken renders an interpolation part back into its ${name}
// source form.
func placeholderToken(expr hclsyntax.Expression) (string, hcl.Diagnostics) {
	if trav, ok := expr.(*hclsyntax.ScopeTraversalExpr); ok && len(trav.Traversal) == 1 {
		return "${" + trav.Traversal.RootName() + "}", nil
	}
	rng := expr.Range()
	return "", hcl.Diagnostics{&hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid placeholder",
		Detail:   "Placeholders are literal parameter names like ${port}; expressions are never evaluated.",
		Subject:  &rng,
	}}
}

// blockToObjectValue folds a content block body into a cty object.
// Nested blocks become nested object attributes.
func blockToObjectValue(body *hclsyntax.Body) (cty.Value, hcl.Diagnostics) {
	attrs := make(map[string]cty.Value)
	var diags hcl.Diagnostics

	for _, item := range bodyItems(body) {
		switch it := item.(type) {
		case *hclsyntax.Attribute:
			if _, dup := attrs[it.Name]; dup {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate attribute",
					Detail:   fmt.Sprintf("Attribute %q is already set in this block.", it.Name),
					Subject:  &it.SrcRange,
				})
				continue
			}
			v, valDiags := it.Expr.Value(nil)
			if valDiags.HasErrors() {
				diags = append(diags, valDiags...)
				continue
			}
			attrs[it.Name] = v

		case *hclsyntax.Block:
			if len(it.Labels) != 0 {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unexpected label on nested block",
					Detail:   fmt.Sprintf("Nested block %q does not take labels.", it.Type),
					Subject:  &it.TypeRange,
				})
				continue
			}
			if _, dup := attrs[it.Type]; dup {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate nested block",
					Detail:   fmt.Sprintf("Block %q is already set in this block.", it.Type),
					Subject:  &it.TypeRange,
				})
				continue
			}
			v, nested := blockToObjectValue(it.Body)
			if nested.HasErrors() {
				diags = append(diags, nested...)
				continue
			}
			attrs[it.Type] = v
		}
	}

	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return cty.ObjectVal(attrs), nil
}

// literalArguments evaluates a `with = { ... }` expression into the
// argument map of a parameterized reference. Values must be scalar
// literals.
func literalArguments(expr hcl.Expression) (map[string]cty.Value, hcl.Diagnostics) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() {
		return nil, nil
	}
	rng := expr.Range()
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, hcl.Diagnostics{&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid arguments",
			Detail:   "with must be an object of named literal arguments.",
			Subject:  &rng,
		}}
	}

	args := make(map[string]cty.Value)
	for it := v.ElementIterator(); it.Next(); {
		k, item := it.Element()
		name := k.AsString()
		switch item.Type() {
		case cty.String, cty.Number, cty.Bool:
			args[name] = item
		default:
			return nil, hcl.Diagnostics{&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid argument value",
				Detail:   fmt.Sprintf("Argument %q must be a literal string, number, or bool.", name),
				Subject:  &rng,
			}}
		}
	}
	return args, nil
}

// extendPatch translates an extend block body into patch content. A body
// holding exactly one `content` attribute patches with that value's own
// shape (text, array or keyed map); any other body is an object patch.
func extendPatch(body *hclsyntax.Body) (*document.BlockContent, hcl.Diagnostics) {
	if len(body.Blocks) == 0 && len(body.Attributes) == 1 {
		if attr, ok := body.Attributes["content"]; ok {
			return exprToContent(attr.Expr)
		}
	}
	obj, diags := blockToObjectValue(body)
	if diags.HasErrors() {
		return nil, diags
	}
	return document.NewObject(obj), nil
}
