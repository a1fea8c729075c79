package resolver

import (
	"fmt"
	"strings"
)

// CycleError reports a circular reference chain. Chain holds the
// identifiers from the repeated node back to itself, e.g. [A, B, A].
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular reference chain: %s", strings.Join(e.Chain, " -> "))
}

// ChainError wraps a failure from deeper in the graph with the
// identifier chain that led to the failing node, so a user can trace
// which inheritance or composition edge introduced the problem.
type ChainError struct {
	Chain []string
	Err   error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("resolving %s: %v", strings.Join(e.Chain, " -> "), e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }
