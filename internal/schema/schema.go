// Package schema declares the HCL structures of the reference and
// parameter blocks in a .prs document. Free-form content blocks are not
// schematized; the parser classifies their shapes at translation time.
package schema

import "github.com/hashicorp/hcl/v2"

// InheritBlock is the body of `inherit "<target>" { ... }`. A document
// may declare at most one.
type InheritBlock struct {
	// Version is an opaque constraint string handed to the source
	// loader unmodified.
	Version string `hcl:"version,optional"`

	// With holds literal call-site arguments for a parameterized
	// ancestor. Kept as an expression so the parser can insist on
	// literals.
	With hcl.Expression `hcl:"with,optional"`
}

// UseBlock is the body of `use "<target>" { ... }`.
type UseBlock struct {
	// As binds a local alias to the fragment for later extension paths.
	As string `hcl:"as,optional"`

	Version string `hcl:"version,optional"`

	With hcl.Expression `hcl:"with,optional"`
}

// ParamBlock is the body of `param "<name>" { ... }`.
type ParamBlock struct {
	// Type is a type expression: string, number, bool, enum(...) or
	// range(min, max).
	Type hcl.Expression `hcl:"type"`

	Default hcl.Expression `hcl:"default,optional"`

	Required bool `hcl:"required,optional"`

	Description string `hcl:"description,optional"`
}
