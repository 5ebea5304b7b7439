// Package qmap provides the grid model and the similarity transfer heuristic for
// mapping logical qubits onto the physical sites of a 2-D architecture.
//
// # Reading Guide
//
// Start with these files to understand the core:
//   - architecture.go: Architecture (grid extents, algorithmic and magic-state sites)
//   - circuit.go: Circuit (gates over logical qubits) and its deterministic qubit order
//   - mapping.go: Mapping (qubit → site) and Routing (Mapping plus scheduled steps)
//   - similarity.go: SimilarityMapper, which adapts a donor Mapping to a new Circuit
//
// # Sub-packages
//
//   - qmap/optimize/: deadline-bounded orchestration of placement and routing searches
//   - qmap/anneal/: reference placement and routing searches
//   - qmap/store/: pgvector-backed donor retrieval
//   - qmap/embedding/: embedding text and solver-output ingestion
//   - qmap/qasm/: OpenQASM reader and random circuit generator
//   - qmap/bench/: baseline vs similarity benchmarks
//   - qmap/trace/: transfer decision traces
//
// Values constructed by this package are treated as immutable. Accessors that
// expose slices return copies, and no function mutates a caller-owned Circuit.
package qmap
