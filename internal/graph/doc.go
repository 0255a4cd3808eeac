// Package graph provides the read-only dataflow graph view that partition
// rules enumerate over.
//
// A Graph is immutable once built. Nodes are stored in topological order and
// a node's NodeID is its position, so NodeIDs are dense, stable and ordered.
// Sets of nodes are represented as IndexSet bitsets; candidates never hold
// copies of graph expressions, only index sets.
package graph
