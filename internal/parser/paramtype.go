// This file contains the logic for parsing parameter type expressions
// (e.g. `string`, `enum("a", "b")`, `range(1, 65535)`) into their typed
// declaration form.

package parser

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/mrwogu/promptscript/internal/document"
)

// parseParamType converts a param block's type expression into a
// ParamType. A type switch over the concrete hclsyntax expression nodes
// is the correct way to tell keyword types from constructor calls.
func parseParamType(expr hcl.Expression) (document.ParamType, hcl.Diagnostics) {
	switch v := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		// Primitive type keywords: string, number, bool.
		if len(v.Traversal) != 1 {
			return document.ParamType{}, typeDiag(expr, "type keyword must be a single identifier")
		}
		switch v.Traversal.RootName() {
		case "string":
			return document.ParamType{Kind: document.ParamString}, nil
		case "number":
			return document.ParamType{Kind: document.ParamNumber}, nil
		case "bool":
			return document.ParamType{Kind: document.ParamBool}, nil
		default:
			return document.ParamType{}, typeDiag(expr, fmt.Sprintf("unknown parameter type %q", v.Traversal.RootName()))
		}

	case *hclsyntax.FunctionCallExpr:
		switch v.Name {
		case "enum":
			return parseEnumType(v)
		case "range":
			return parseRangeType(v)
		default:
			return document.ParamType{}, typeDiag(expr, fmt.Sprintf("unknown type constructor %q; expected enum or range", v.Name))
		}
	}

	return document.ParamType{}, typeDiag(expr, fmt.Sprintf("unsupported expression for type definition: %T", expr))
}

func parseEnumType(call *hclsyntax.FunctionCallExpr) (document.ParamType, hcl.Diagnostics) {
	if len(call.Args) == 0 {
		return document.ParamType{}, typeDiag(call, "enum requires at least one value")
	}
	values := make([]string, 0, len(call.Args))
	for _, arg := range call.Args {
		v, diags := arg.Value(nil)
		if diags.HasErrors() {
			return document.ParamType{}, diags
		}
		if v.IsNull() || v.Type() != cty.String {
			return document.ParamType{}, typeDiag(arg, "enum values must be literal strings")
		}
		values = append(values, v.AsString())
	}
	return document.ParamType{Kind: document.ParamEnum, Values: values}, nil
}

func parseRangeType(call *hclsyntax.FunctionCallExpr) (document.ParamType, hcl.Diagnostics) {
	if len(call.Args) != 2 {
		return document.ParamType{}, typeDiag(call, fmt.Sprintf("range requires exactly two bounds, got %d", len(call.Args)))
	}
	bounds := make([]cty.Value, 2)
	for i, arg := range call.Args {
		v, diags := arg.Value(nil)
		if diags.HasErrors() {
			return document.ParamType{}, diags
		}
		if v.IsNull() || v.Type() != cty.Number {
			return document.ParamType{}, typeDiag(arg, "range bounds must be literal numbers")
		}
		bounds[i] = v
	}
	if bounds[1].LessThan(bounds[0]).True() {
		return document.ParamType{}, typeDiag(call, "range upper bound is below the lower bound")
	}
	return document.ParamType{Kind: document.ParamRange, Min: bounds[0], Max: bounds[1]}, nil
}

func typeDiag(expr hcl.Expression, detail string) hcl.Diagnostics {
	rng := expr.Range()
	return hcl.Diagnostics{&hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid parameter type",
		Detail:   detail,
		Subject:  &rng,
	}}
}
