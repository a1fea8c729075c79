// Package resolver builds the dependency graph of a document and drives
// it to a single resolved tree. Each node moves through an explicit
// status machine (unvisited, resolving, resolved, failed) with an active
// resolution stack, so circular references are reported with their full
// identifier chain instead of overflowing the call stack.
//
// Reference targets of a node are prefetched concurrently, because
// fetching is side-effect free and cached; merging then proceeds
// strictly in declared order on one goroutine, which is what makes the
// output byte-deterministic regardless of fetch completion order.
package resolver
