package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kberg/koireg/internal/agents"
	"github.com/kberg/koireg/internal/cachemanager"
	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/infrastructure/sqlite"
	"github.com/kberg/koireg/internal/log"
)

// Options tunes a Registry. Zero values fall back to defaults.
type Options struct {
	// BatchSize is how many items one ingestion transaction covers.
	BatchSize int

	// MaxContentBytes is the oversized-content safety threshold.
	MaxContentBytes int

	// CacheTTL bounds how long dedup lookups are served from memory.
	CacheTTL time.Duration

	// Roster supplies agent display names. Optional.
	Roster *agents.Roster

	// Tracer records spans for registry operations. Optional.
	Tracer trace.Tracer
}

const defaultBatchSize = 500

// Registry is the single handle to the content catalog. It exclusively owns
// the underlying store for its process lifetime; construct one per process
// with Initialize (or New for an existing store) and release it with Close.
type Registry struct {
	store  catalog.Store
	roster *agents.Roster
	tracer trace.Tracer

	batchSize       int
	maxContentBytes int
	cacheTTL        time.Duration

	// originCache keeps the (source, originalID) dedup hit path O(1):
	// repeated tracking of an already-seen item never recomputes anything.
	originCache *cachemanager.ReadThroughCache[string, *catalog.ContentItem, originKey]
}

type originKey struct {
	sourceRID  catalog.RID
	originalID string
}

// New builds a Registry over an existing store.
func New(store catalog.Store, opts Options) *Registry {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxContentBytes <= 0 {
		opts.MaxContentBytes = catalog.DefaultMaxContentBytes
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cachemanager.DefaultExpiration
	}
	if opts.Roster == nil {
		opts.Roster = agents.Empty()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("registry")
	}

	r := &Registry{
		store:           store,
		roster:          opts.Roster,
		tracer:          opts.Tracer,
		batchSize:       opts.BatchSize,
		maxContentBytes: opts.MaxContentBytes,
		cacheTTL:        opts.CacheTTL,
	}

	cache := cachemanager.NewInMemoryCacheManager[string, *catalog.ContentItem](
		"dedup", opts.CacheTTL, cachemanager.DefaultCleanupInterval)
	r.originCache = cachemanager.NewReadThroughCache[string, *catalog.ContentItem, originKey](
		cache,
		func(ctx context.Context, key originKey) (*catalog.ContentItem, error) {
			return store.Content().FindByOrigin(ctx, key.sourceRID, key.originalID)
		},
		false,
	)
	return r
}

// Initialize opens (creating if needed) the registry database at dbPath and
// returns the owning handle. Store failures surface as
// RegistryUnavailableError; callers are expected to halt rather than continue
// partially initialized.
func Initialize(dbPath string, opts Options) (*Registry, error) {
	db, err := sqlite.NewDB(dbPath)
	if err != nil {
		return nil, &catalog.RegistryUnavailableError{Path: dbPath, Err: err}
	}
	return New(sqlite.NewStore(db), opts), nil
}

// Close releases the underlying store connection.
func (r *Registry) Close() error {
	return r.store.Close()
}

// Store exposes the underlying store for read-only collaborators.
func (r *Registry) Store() catalog.Store {
	return r.store
}

// Roster returns the agent roster in use.
func (r *Registry) Roster() *agents.Roster {
	return r.roster
}

// RegisterSource registers a content origin. Registration is idempotent by
// identity: the same (type, name) always derives the same RID, and a second
// registration returns the first record unchanged.
func (r *Registry) RegisterSource(ctx context.Context, sourceType catalog.SourceType, name, description, url string, metadata catalog.Metadata) (*catalog.Source, error) {
	ctx, span := r.tracer.Start(ctx, "registry.RegisterSource",
		trace.WithAttributes(attribute.String("source.type", sourceType.String())))
	defer span.End()

	source, err := catalog.NewSource(sourceType, name, description, url, metadata)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.Sources().FindByRID(ctx, source.RID())
	if err == nil {
		log.Debug(log.CatIngest, "source already registered", "rid", existing.RID())
		return existing, nil
	}
	var notFound *catalog.SourceNotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	if err := r.store.Sources().Save(ctx, source); err != nil {
		return nil, err
	}
	// Re-read in case a concurrent writer won the insert race.
	stored, err := r.store.Sources().FindByRID(ctx, source.RID())
	if err != nil {
		return nil, err
	}
	log.Info(log.CatIngest, "source registered", "rid", stored.RID(), "type", sourceType)
	return stored, nil
}

// ListSources returns all registered sources.
func (r *Registry) ListSources(ctx context.Context) ([]*catalog.Source, error) {
	return r.store.Sources().List(ctx)
}

// FindSourceByType returns one source of the given type, for best-effort
// fallback source selection.
func (r *Registry) FindSourceByType(ctx context.Context, sourceType catalog.SourceType) (*catalog.Source, error) {
	return r.store.Sources().FindByType(ctx, sourceType)
}

// TrackRequest carries the inputs for tracking one content item.
type TrackRequest struct {
	SourceRID   catalog.RID
	URL         string
	Title       string
	Content     string
	OriginalID  string
	ContentType string
	Metadata    catalog.Metadata

	// Tier, ObjectType, and Version default to relevant/document/v1.
	Tier       catalog.RelevanceTier
	ObjectType string
	Version    string
}

// TrackContent records one content item against its source, deduplicated by
// (source, originalID) and by content fingerprint. A dedup hit returns the
// existing item with zero writes; a miss performs exactly one write.
func (r *Registry) TrackContent(ctx context.Context, req TrackRequest) (*catalog.ContentItem, error) {
	ctx, span := r.tracer.Start(ctx, "registry.TrackContent",
		trace.WithAttributes(
			attribute.String("content.source", req.SourceRID.String()),
			attribute.String("content.original_id", req.OriginalID),
		))
	defer span.End()

	// Hot path: repeated tracking of an already-seen (source, originalID)
	// is served from memory without touching the store.
	if req.SourceRID != "" && req.OriginalID != "" {
		key := originKey{sourceRID: req.SourceRID, originalID: req.OriginalID}
		item, err := r.originCache.Get(ctx, originCacheKey(key), key, r.cacheTTL)
		if err == nil {
			log.Debug(log.CatIngest, "dedup hit", "rid", item.RID())
			return item, nil
		}
		var notFound *catalog.ContentNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	item, err := r.trackWith(ctx, r.store, req)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// trackWith runs the dedup-then-create algorithm against the given store
// view, so batch ingestion can reuse it inside a transaction.
func (r *Registry) trackWith(ctx context.Context, store catalog.Store, req TrackRequest) (*catalog.ContentItem, error) {
	item, err := catalog.NewContentItem(catalog.NewContentItemParams{
		SourceRID:       req.SourceRID,
		URL:             req.URL,
		Title:           req.Title,
		Content:         req.Content,
		OriginalID:      req.OriginalID,
		ContentType:     req.ContentType,
		Metadata:        req.Metadata,
		Tier:            req.Tier,
		ObjectType:      req.ObjectType,
		Version:         req.Version,
		MaxContentBytes: r.maxContentBytes,
	})
	if err != nil {
		return nil, err
	}

	// Fingerprint dedup before the insert keeps the common re-ingestion
	// case a read; the insert itself is still a conflict-safe upsert, so
	// concurrent first-trackings converge on one stored row either way.
	existing, err := store.Content().FindByFingerprint(ctx, item.Fingerprint())
	if err == nil {
		log.Debug(log.CatIngest, "fingerprint dedup hit", "rid", existing.RID())
		return existing, nil
	}
	var notFound *catalog.ContentNotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	stored, err := store.Content().Insert(ctx, item)
	if err != nil {
		return nil, err
	}
	if stored.RID() == item.RID() {
		log.Info(log.CatIngest, "content tracked", "rid", stored.RID(), "truncated", stored.Truncated())
	} else {
		log.Debug(log.CatIngest, "dedup hit on insert", "rid", stored.RID())
	}
	return stored, nil
}

// GetContent retrieves a content item by identifier.
func (r *Registry) GetContent(ctx context.Context, rid catalog.RID) (*catalog.ContentItem, error) {
	return r.store.Content().FindByRID(ctx, rid)
}

// MarkAsProcessed records that an agent finished processing a content item.
// The first call transitions the (content, agent) pair from unrecorded to
// processed; later calls update fragment count and duration in place.
// An empty documentID is assigned a fresh identifier.
func (r *Registry) MarkAsProcessed(ctx context.Context, contentRID catalog.RID, agentID, documentID string, fragmentCount int, duration time.Duration) (*catalog.ProcessingRecord, error) {
	ctx, span := r.tracer.Start(ctx, "registry.MarkAsProcessed",
		trace.WithAttributes(
			attribute.String("content.rid", contentRID.String()),
			attribute.String("agent.id", agentID),
		))
	defer span.End()

	return r.markWith(ctx, r.store, contentRID, agentID, documentID, fragmentCount, duration)
}

func (r *Registry) markWith(ctx context.Context, store catalog.Store, contentRID catalog.RID, agentID, documentID string, fragmentCount int, duration time.Duration) (*catalog.ProcessingRecord, error) {
	// The foreign key would reject this too, but checking first gives the
	// caller a typed not-found instead of a constraint error.
	if _, err := store.Content().FindByRID(ctx, contentRID); err != nil {
		return nil, err
	}

	if documentID == "" {
		documentID = newDocumentID()
	}
	record, err := catalog.NewProcessingRecord(contentRID, agentID, documentID, fragmentCount, duration)
	if err != nil {
		return nil, err
	}
	if err := store.Processing().Upsert(ctx, record); err != nil {
		return nil, err
	}
	log.Debug(log.CatIngest, "processing recorded", "rid", contentRID, "agent", agentID, "fragments", fragmentCount)
	return record, nil
}

// GetStatus reports the processing state for a (content, agent) pair.
func (r *Registry) GetStatus(ctx context.Context, contentRID catalog.RID, agentID string) (catalog.ProcessingStatus, error) {
	record, err := r.store.Processing().Find(ctx, contentRID, agentID)
	if err != nil {
		return "", err
	}
	if record == nil {
		return catalog.StatusUnrecorded, nil
	}
	return catalog.StatusProcessed, nil
}

func originCacheKey(key originKey) string {
	return fmt.Sprintf("%s|%s", key.sourceRID, key.originalID)
}

func newDocumentID() string {
	return uuid.NewString()
}
