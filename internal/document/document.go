package document

// Document is one parsed configuration file: its attribute tree plus the
// relationships and parameters it declares. Documents are built once by
// the parser and never mutated afterwards.
type Document struct {
	// Identifier is the name the document was requested under.
	Identifier string

	// Version is the document's own declared version from its meta
	// block, if any.
	Version string

	// Source locates the raw bytes (file path or URL) for diagnostics.
	Source string

	Blocks map[string]*BlockContent

	// BlockOrder lists block names in source order; merge folds local
	// blocks in this order so output stays deterministic.
	BlockOrder []string

	// References lists inherit/use/extend declarations in source order.
	References []Reference

	Params []ParameterDeclaration
}

// Inherit returns the document's single ancestor reference, or nil. The
// parser rejects documents with more than one.
func (d *Document) Inherit() *Reference {
	for i := range d.References {
		if d.References[i].Kind == RefInherit {
			return &d.References[i]
		}
	}
	return nil
}

// Uses returns the composition references in declared order.
func (d *Document) Uses() []*Reference {
	var out []*Reference
	for i := range d.References {
		if d.References[i].Kind == RefUse {
			out = append(out, &d.References[i])
		}
	}
	return out
}

// Extends returns the extension references in declared order.
func (d *Document) Extends() []*Reference {
	var out []*Reference
	for i := range d.References {
		if d.References[i].Kind == RefExtend {
			out = append(out, &d.References[i])
		}
	}
	return out
}
