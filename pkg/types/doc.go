// Package types defines the core data model shared by every lexigraph
// subsystem: documents, chunks, extracted entities and relationships, ranked
// search results, and derived knowledge-graph nodes and edges.
//
// The types here are plain values with validation methods. Behaviour lives in
// the subsystem packages (pkg/chunker, pkg/extractor, pkg/retrieval,
// pkg/graph); this package stays dependency-free so all of them can share it.
package types
