// Package formatter renders a resolved tree into the instruction file
// formats of the supported assistant targets. Rendering is
// deterministic: a fixed canonical section order, lexically sorted
// remainders, and sorted map keys.
package formatter

import (
	"fmt"
	"sort"

	"github.com/mrwogu/promptscript/internal/document"
)

// Formatter renders one target format.
type Formatter interface {
	// Name is the target name used on the command line.
	Name() string

	// Filename is the output path relative to the output directory.
	Filename() string

	Render(tree *document.ResolvedTree) ([]byte, error)
}

// Registry maps target names to formatters.
type Registry struct {
	formatters map[string]Formatter
	names      []string
}

// NewRegistry creates a registry holding the given formatters.
func NewRegistry(formatters ...Formatter) *Registry {
	r := &Registry{formatters: make(map[string]Formatter)}
	for _, f := range formatters {
		if _, dup := r.formatters[f.Name()]; dup {
			continue
		}
		r.formatters[f.Name()] = f
		r.names = append(r.names, f.Name())
	}
	sort.Strings(r.names)
	return r
}

// Default returns a registry with all built-in targets.
func Default() *Registry {
	return NewRegistry(Claude{}, Copilot{}, Cursor{}, Agents{})
}

// Get returns the formatter for a target name.
func (r *Registry) Get(name string) (Formatter, error) {
	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("unknown target %q; available: %v", name, r.names)
	}
	return f, nil
}

// Names returns the registered target names in lexical order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
