package document

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// ParamKind is the declared type of a template parameter.
type ParamKind int

const (
	ParamString ParamKind = iota
	ParamNumber
	ParamBool
	// ParamEnum restricts a string parameter to a declared value set.
	ParamEnum
	// ParamRange restricts a number parameter to an inclusive interval.
	ParamRange
)

// ParamType couples the kind with its constraint payload.
type ParamType struct {
	Kind ParamKind

	// Values is the allowed set for ParamEnum.
	Values []string

	// Min and Max bound ParamRange, inclusive.
	Min cty.Value
	Max cty.Value
}

// CtyType returns the wire type arguments must convert to.
func (t ParamType) CtyType() cty.Type {
	switch t.Kind {
	case ParamNumber, ParamRange:
		return cty.Number
	case ParamBool:
		return cty.Bool
	default:
		return cty.String
	}
}

func (t ParamType) String() string {
	switch t.Kind {
	case ParamString:
		return "string"
	case ParamNumber:
		return "number"
	case ParamBool:
		return "bool"
	case ParamEnum:
		return fmt.Sprintf("enum(%s)", strings.Join(t.Values, ", "))
	case ParamRange:
		return fmt.Sprintf("range(%s, %s)", FormatValue(t.Min), FormatValue(t.Max))
	default:
		return "unknown"
	}
}

// ParameterDeclaration is one declared template parameter of a document.
type ParameterDeclaration struct {
	Name        string
	Type        ParamType
	Description string

	// Default is cty.NilVal when the declaration has no default.
	Default cty.Value

	Required bool
}

// FormatValue renders a literal cty value the way it appears after
// placeholder substitution: bare text for strings, canonical decimal for
// numbers, true/false for bools.
func FormatValue(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return ""
	}
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	default:
		return v.GoString()
	}
}
