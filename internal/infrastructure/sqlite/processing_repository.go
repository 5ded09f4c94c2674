package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kberg/koireg/internal/domain/catalog"
)

// processingColumns is the list of columns to select for processing queries.
const processingColumns = `content_rid, agent_id, document_id, fragment_count, processing_ms, processed_at`

// processingRepository implements catalog.ProcessingRepository using SQLite.
type processingRepository struct {
	q dbtx
}

// Ensure processingRepository implements catalog.ProcessingRepository.
var _ catalog.ProcessingRepository = (*processingRepository)(nil)

// scanProcessing scans a row into a ProcessingModel.
func scanProcessing(scanner interface{ Scan(...any) error }) (*ProcessingModel, error) {
	var model ProcessingModel
	err := scanner.Scan(
		&model.ContentRID, &model.AgentID, &model.DocumentID,
		&model.FragmentCount, &model.ProcessingMS, &model.ProcessedAt,
	)
	return &model, err
}

// Upsert records a completion. The (content_rid, agent_id) primary key makes
// re-recording an in-place update of the counts, never a second row.
func (r *processingRepository) Upsert(ctx context.Context, record *catalog.ProcessingRecord) error {
	model := toProcessingModel(record)
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO processing_records (
			content_rid, agent_id, document_id, fragment_count, processing_ms, processed_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_rid, agent_id) DO UPDATE SET
			document_id = excluded.document_id,
			fragment_count = excluded.fragment_count,
			processing_ms = excluded.processing_ms,
			processed_at = excluded.processed_at`,
		model.ContentRID, model.AgentID, model.DocumentID,
		model.FragmentCount, model.ProcessingMS, model.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert processing record: %w", err)
	}
	return nil
}

// Find retrieves the record for (contentRID, agentID), or nil when the pair
// is unrecorded.
func (r *processingRepository) Find(ctx context.Context, contentRID catalog.RID, agentID string) (*catalog.ProcessingRecord, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+processingColumns+` FROM processing_records WHERE content_rid = ? AND agent_id = ?`,
		contentRID.String(), agentID)
	model, err := scanProcessing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find processing record: %w", err)
	}
	return model.toDomain(), nil
}

// List returns all processing records.
func (r *processingRepository) List(ctx context.Context) ([]*catalog.ProcessingRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+processingColumns+` FROM processing_records ORDER BY content_rid, agent_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing records: %w", err)
	}
	defer rows.Close()

	var records []*catalog.ProcessingRecord
	for rows.Next() {
		model, err := scanProcessing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan processing record: %w", err)
		}
		records = append(records, model.toDomain())
	}
	return records, rows.Err()
}

// Count returns the total number of processing records across agents.
func (r *processingRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM processing_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count processing records: %w", err)
	}
	return count, nil
}

// CountDistinctContent returns how many distinct content items have at least
// one processing record.
func (r *processingRepository) CountDistinctContent(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT content_rid) FROM processing_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count processed content: %w", err)
	}
	return count, nil
}

// CountByAgent returns processing record counts grouped by agent id.
func (r *processingRepository) CountByAgent(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT agent_id, COUNT(*) FROM processing_records GROUP BY agent_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count records by agent: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var agentID string
		var count int
		if err := rows.Scan(&agentID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan agent count: %w", err)
		}
		counts[agentID] = count
	}
	return counts, rows.Err()
}
