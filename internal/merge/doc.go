// Package merge combines resolved ancestor, fragment, and local block
// content into one tree, and applies path-targeted extension patches.
//
// Precedence is strictly ordered: ancestor, then each fragment in
// declared order, then local blocks. Later sources override earlier ones
// for object keys and keyed-map entries, while text and arrays
// concatenate with duplicate suppression. The policy is dispatched on
// each block's runtime shape, never on its name.
package merge
