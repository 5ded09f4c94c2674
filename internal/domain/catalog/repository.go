package catalog

import "context"

// SourceRepository defines persistence for Source entities.
type SourceRepository interface {
	// Save persists a source. Saving a RID that already exists is a no-op:
	// the stored record is left unchanged (upsert-by-identity, not overwrite).
	Save(ctx context.Context, source *Source) error

	// FindByRID retrieves a source by identifier.
	// Returns SourceNotFoundError if no matching source exists.
	FindByRID(ctx context.Context, rid RID) (*Source, error)

	// FindByType retrieves one source of the given type, if any.
	// Returns SourceNotFoundError when none exists.
	FindByType(ctx context.Context, sourceType SourceType) (*Source, error)

	// List returns all registered sources. Order is not semantically
	// significant to callers.
	List(ctx context.Context) ([]*Source, error)

	// CountByType returns source counts grouped by type.
	CountByType(ctx context.Context) (map[SourceType]int, error)
}

// ContentRepository defines persistence for ContentItem entities.
type ContentRepository interface {
	// Insert persists a content item idempotently: if a row already exists
	// for the RID, the (source, originalID) pair, or the fingerprint, the
	// existing row is returned unchanged and no write occurs. Two concurrent
	// first-trackings of the same logical item converge to one stored row.
	Insert(ctx context.Context, item *ContentItem) (*ContentItem, error)

	// FindByRID retrieves a content item by identifier.
	// Returns ContentNotFoundError if no matching item exists.
	FindByRID(ctx context.Context, rid RID) (*ContentItem, error)

	// FindByOrigin retrieves the item tracked for (sourceRID, originalID).
	// This is the cheap indexed dedup lookup; returns ContentNotFoundError
	// on a miss.
	FindByOrigin(ctx context.Context, sourceRID RID, originalID string) (*ContentItem, error)

	// FindByFingerprint retrieves the item with the given content
	// fingerprint. Returns ContentNotFoundError on a miss.
	FindByFingerprint(ctx context.Context, fingerprint string) (*ContentItem, error)

	// List returns all content items ordered by creation time.
	List(ctx context.Context) ([]*ContentItem, error)

	// Count returns the number of distinct content items.
	Count(ctx context.Context) (int, error)
}

// ProcessingRepository defines persistence for ProcessingRecord entities.
type ProcessingRepository interface {
	// Upsert records a completion. At most one record exists per
	// (content, agent) pair; a second upsert updates fragment count,
	// duration, document id, and timestamp in place.
	Upsert(ctx context.Context, record *ProcessingRecord) error

	// Find retrieves the record for (contentRID, agentID), or nil when the
	// pair is unrecorded.
	Find(ctx context.Context, contentRID RID, agentID string) (*ProcessingRecord, error)

	// List returns all processing records.
	List(ctx context.Context) ([]*ProcessingRecord, error)

	// Count returns the total number of processing records across agents.
	Count(ctx context.Context) (int, error)

	// CountDistinctContent returns how many distinct content items have at
	// least one processing record.
	CountDistinctContent(ctx context.Context) (int, error)

	// CountByAgent returns processing record counts grouped by agent id.
	CountByAgent(ctx context.Context) (map[string]int, error)
}

// Store bundles the repositories over one shared backing store. The registry
// handle exclusively owns a Store for its process lifetime.
type Store interface {
	Sources() SourceRepository
	Content() ContentRepository
	Processing() ProcessingRepository

	// WithTx runs fn against a transaction-bound view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// WithSavepoint runs fn inside a named savepoint. Only meaningful on a
	// transaction-bound store: a failure rolls back to the savepoint,
	// leaving earlier work in the transaction intact.
	WithSavepoint(ctx context.Context, name string, fn func() error) error

	// Close releases the underlying store connection.
	Close() error
}
