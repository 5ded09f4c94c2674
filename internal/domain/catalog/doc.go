// Package catalog provides the pure domain layer for the content registry
// with no infrastructure dependencies.
//
// This package follows Domain-Driven Design (DDD) principles:
//   - Contains only pure Go code with standard library imports
//   - Defines the Source, ContentItem, and ProcessingRecord entities with
//     encapsulated state and behavior
//   - Defines deterministic resource identifiers (RIDs) for sources and content
//   - Defines the Store and repository interfaces for persistence abstraction
//   - Provides domain-specific error types
//
// The domain layer has no knowledge of infrastructure concerns (databases,
// file I/O, caches, etc.). Identifier generation is deterministic: calling the
// same generator twice with identical inputs yields byte-identical RIDs in the
// same or a different process, which is what lets re-running ingestion over
// the same data converge on the same catalog state instead of accumulating
// duplicates.
package catalog
