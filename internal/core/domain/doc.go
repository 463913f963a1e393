// Package domain defines the core types of the manual question-answering
// pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - PageRecord: One page of extracted source text with provenance
//   - Chunk: A bounded, retrievable unit of text
//   - Session: The conversation context passed to the answer engine
//   - Config: The typed, validated application configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
