package merge

import (
	"fmt"

	"github.com/mrwogu/promptscript/internal/document"
)

// ConflictError reports an attempt to combine two block values whose
// shapes are structurally incompatible, such as merging an array into
// text.
type ConflictError struct {
	// Block names the colliding block, or the extension path when the
	// conflict arose from a patch.
	Block    string
	Existing document.BlockKind
	Incoming document.BlockKind
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict in %q: cannot merge %s content into existing %s content", e.Block, e.Incoming, e.Existing)
}

// PathError reports a malformed extension path, a reference to an alias
// that was never imported, or an intermediate path segment that
// addresses a non-object value.
type PathError struct {
	Path   string
	Detail string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid extension path %q: %s", e.Path, e.Detail)
}
