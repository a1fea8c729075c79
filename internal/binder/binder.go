// Package binder validates call-site arguments against a document's
// declared parameters and substitutes the bound literals into text
// content. Substitution is literal text replacement only; placeholders
// are never evaluated.
package binder

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/mrwogu/promptscript/internal/document"
)

// BindingError reports a parameter validation or placeholder-resolution
// failure.
type BindingError struct {
	Param  string
	Detail string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Param, e.Detail)
}

// placeholderPattern matches ${name} tokens inside text content.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_-]*)\}`)

// Bind validates arguments against the declarations and returns the
// substitution map. Arguments are checked for unknown names, missing
// required parameters, and type mismatches; declared defaults fill
// absent optional arguments. Optional parameters with neither argument
// nor default stay unbound, which only becomes an error if a
// placeholder references them.
func Bind(decls []document.ParameterDeclaration, args map[string]cty.Value) (map[string]cty.Value, error) {
	declared := make(map[string]document.ParameterDeclaration, len(decls))
	for _, d := range decls {
		declared[d.Name] = d
	}

	for _, name := range sortedKeys(args) {
		if _, ok := declared[name]; !ok {
			return nil, &BindingError{Param: name, Detail: "no such parameter is declared"}
		}
	}

	bound := make(map[string]cty.Value, len(decls))
	for _, d := range decls {
		val, given := args[d.Name]
		if !given {
			if d.Default != cty.NilVal {
				val = d.Default
			} else if d.Required {
				return nil, &BindingError{Param: d.Name, Detail: "required parameter has no argument and no default"}
			} else {
				continue
			}
		}
		if err := checkType(d, val); err != nil {
			return nil, err
		}
		bound[d.Name] = val
	}
	return bound, nil
}

// checkType enforces the declared parameter type, including enum value
// sets and inclusive range bounds.
func checkType(d document.ParameterDeclaration, val cty.Value) error {
	want := d.Type.CtyType()
	if !val.Type().Equals(want) {
		return &BindingError{
			Param:  d.Name,
			Detail: fmt.Sprintf("expected %s, got %s", d.Type, val.Type().FriendlyName()),
		}
	}

	switch d.Type.Kind {
	case document.ParamEnum:
		s := val.AsString()
		for _, allowed := range d.Type.Values {
			if s == allowed {
				return nil
			}
		}
		return &BindingError{
			Param:  d.Name,
			Detail: fmt.Sprintf("value %q is not in %s", s, d.Type),
		}
	case document.ParamRange:
		if val.LessThan(d.Type.Min).True() || val.GreaterThan(d.Type.Max).True() {
			return &BindingError{
				Param:  d.Name,
				Detail: fmt.Sprintf("value %s is outside %s", document.FormatValue(val), d.Type),
			}
		}
	}
	return nil
}

// Interpolate returns a copy of the tree with every ${name} placeholder
// in text content replaced by the bound literal's textual form. A
// placeholder naming an undeclared or unbound parameter is an error;
// unresolved output is never produced.
func Interpolate(tree *document.ResolvedTree, bound map[string]cty.Value) (*document.ResolvedTree, error) {
	return tree.Transform(func(name string, b *document.BlockContent) (*document.BlockContent, error) {
		if b.Kind != document.KindText {
			return b, nil
		}
		out := b.Copy()
		for i, p := range out.Paragraphs {
			replaced, err := substitute(p, bound)
			if err != nil {
				return nil, err
			}
			out.Paragraphs[i] = replaced
		}
		return out, nil
	})
}

func substitute(text string, bound map[string]cty.Value) (string, error) {
	var failed *BindingError
	out := placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		val, ok := bound[name]
		if !ok {
			if failed == nil {
				failed = &BindingError{Param: name, Detail: "placeholder references an unbound parameter"}
			}
			return token
		}
		return document.FormatValue(val)
	})
	if failed != nil {
		return "", failed
	}
	return out, nil
}

func sortedKeys(m map[string]cty.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
