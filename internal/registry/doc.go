// Package registry implements the application layer for the content
// registry: the single handle every caller routes through.
//
// This package serves as a facade that bridges the domain layer to
// infrastructure concerns:
//   - Opens the SQLite store and owns it for the process lifetime
//     (explicit Initialize/Close lifecycle, no ambient singletons)
//   - Registers sources and tracks content with dedup guarantees
//   - Records per-(content, agent) processing completions
//   - Rolls up statistics with defensive anomaly filtering
//   - Exports the JSON-LD manifest and the RID-keyed query projection
//
// # Architecture
//
// The application layer depends on:
//   - Domain layer (internal/domain/catalog): pure domain types and identifiers
//   - Infrastructure (internal/infrastructure/sqlite): the Store implementation
//   - internal/cachemanager: read-through cache keeping the dedup hit path O(1)
//   - internal/agents: display names for reports and manifests
//
// All registry operations are synchronous storage operations. Callers doing
// network-bound work around ingestion pace it outside this contract; the
// registry never throttles or retries on the caller's behalf.
package registry
