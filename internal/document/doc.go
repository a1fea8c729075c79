// Package document defines the format-agnostic model shared by every
// compiler phase: the parsed Document, the tagged BlockContent variant
// that drives merge strategy selection, reference and parameter
// declarations, and the immutable ResolvedTree handed to validation and
// formatting.
package document
