// Package lexigraph ingests documents into chunked, embedded, searchable
// form and derives a per-document knowledge graph from the entities and
// relationships found in the text.
//
// The Engine at the root of the package wires the pipeline together:
// chunking (pkg/chunker), entity and relationship extraction
// (pkg/extractor), vector indexing (pkg/vectorindex), cached and
// circuit-broken retrieval with hybrid ranking (pkg/retrieval, pkg/cache)
// and graph construction with centrality and path analytics (pkg/graph).
// Persistence is pluggable through pkg/store with memory, Badger and Neo4j
// backends.
package lexigraph
