// Package parser turns raw .prs bytes into the document model. It owns
// the HCL translation rules: which block types are references, how
// free-form content classifies into the four block shapes, and how
// parameter type expressions map onto typed declarations.
package parser
