// Package graph defines the attributed graph model for robogram.
// A Graph is an index-addressed snapshot of nodes (link types), edges
// (link placements) and subgraphs (attribute scopes). Snapshots are never
// mutated once built; every transformation produces a new graph, so
// indices and mappings computed against an older snapshot stay meaningful.
package graph
