// Package loader resolves document identifiers to parsed documents.
// Identifiers starting with "@" name entries in a versioned remote
// collection served by a registry; everything else is a path under the
// local root. The loader owns fetch caching and network retries; the
// resolver above it never retries.
package loader
