package document

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// RefKind discriminates the three relationship forms a document can
// declare towards other documents.
type RefKind int

const (
	// RefInherit names the single ancestor document.
	RefInherit RefKind = iota
	// RefUse composes a fragment document, optionally aliased and
	// parameterized.
	RefUse
	// RefExtend patches a dotted path in the merged tree.
	RefExtend
)

func (k RefKind) String() string {
	switch k {
	case RefInherit:
		return "inherit"
	case RefUse:
		return "use"
	case RefExtend:
		return "extend"
	default:
		return "unknown"
	}
}

// Reference is one declared relationship. Target and Version address
// another document for inherit/use; Path and Patch carry the extension
// payload for extend.
type Reference struct {
	Kind    RefKind
	Target  string
	Version string

	// Alias is the local name bound to a use fragment, enabling later
	// alias-qualified extension paths. Empty when unaliased.
	Alias string

	// Arguments are the literal call-site arguments of a parameterized
	// inherit/use reference.
	Arguments map[string]cty.Value

	// Path is the dotted target of an extend reference.
	Path string

	// Patch is the content an extend reference folds in at Path.
	Patch *BlockContent

	// DeclRange locates the declaration for diagnostics.
	DeclRange hcl.Range
}
