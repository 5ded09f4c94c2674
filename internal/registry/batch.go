package registry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/log"
)

// BatchItem is one unit of work in a bulk ingestion run. The tracking fields
// mirror TrackRequest; the optional processing fields additionally record an
// agent completion for the item once it is tracked.
type BatchItem struct {
	Track TrackRequest

	// AgentID, when set, records processing by that agent after tracking.
	AgentID       string
	DocumentID    string
	FragmentCount int
}

// BatchSummary reports the outcome of one ingestion run.
type BatchSummary struct {
	// RunID identifies this run in logs and traces.
	RunID string

	Attempted int
	Succeeded int
	Failed    int

	// Failures holds one ItemTrackingError per failed item, in input order.
	Failures []*catalog.ItemTrackingError
}

// IngestBatch tracks a slice of items in chunks of the configured batch size,
// one transaction per chunk. Each item runs inside its own savepoint so a bad
// item rolls back alone while the rest of its chunk commits. Items that track
// successfully and carry an agent id also get a processing record in the same
// transaction, so no record ever references content whose insert rolled back.
func (r *Registry) IngestBatch(ctx context.Context, items []BatchItem) (*BatchSummary, error) {
	runID := uuid.NewString()
	ctx, span := r.tracer.Start(ctx, "registry.IngestBatch",
		trace.WithAttributes(
			attribute.String("batch.run_id", runID),
			attribute.Int("batch.size", len(items)),
		))
	defer span.End()

	summary := &BatchSummary{RunID: runID, Attempted: len(items)}

	for start := 0; start < len(items); start += r.batchSize {
		end := start + r.batchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		err := r.store.WithTx(ctx, func(tx catalog.Store) error {
			for i, item := range chunk {
				idx := start + i
				err := tx.WithSavepoint(ctx, fmt.Sprintf("item_%d", idx), func() error {
					return r.ingestOne(ctx, tx, item)
				})
				if err != nil {
					summary.Failed++
					summary.Failures = append(summary.Failures, &catalog.ItemTrackingError{
						OriginalID: item.Track.OriginalID,
						Err:        err,
					})
					log.Warn(log.CatIngest, "batch item failed", "run", runID, "index", idx, "error", err)
					continue
				}
				summary.Succeeded++
			}
			return nil
		})
		if err != nil {
			// The whole chunk rolled back; its successes are gone.
			return nil, fmt.Errorf("ingesting batch %s items %d-%d: %w", runID, start, end-1, err)
		}
		log.Info(log.CatIngest, "batch chunk committed", "run", runID, "from", start, "to", end-1)
	}

	log.Info(log.CatIngest, "batch finished",
		"run", runID, "attempted", summary.Attempted,
		"succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}

func (r *Registry) ingestOne(ctx context.Context, tx catalog.Store, item BatchItem) error {
	tracked, err := r.trackWith(ctx, tx, item.Track)
	if err != nil {
		return err
	}
	if item.AgentID == "" {
		return nil
	}
	_, err = r.markWith(ctx, tx, tracked.RID(), item.AgentID, item.DocumentID, item.FragmentCount, 0)
	return err
}
