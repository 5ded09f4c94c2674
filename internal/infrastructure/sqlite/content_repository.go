package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kberg/koireg/internal/domain/catalog"
)

// contentColumns is the list of columns to select for content queries.
const contentColumns = `rid, source_rid, url, title, content, content_hash,
	original_id, content_type, metadata_json, truncated, created_at`

// contentRepository implements catalog.ContentRepository using SQLite.
type contentRepository struct {
	q dbtx
}

// Ensure contentRepository implements catalog.ContentRepository.
var _ catalog.ContentRepository = (*contentRepository)(nil)

// scanContent scans a row into a ContentModel.
func scanContent(scanner interface{ Scan(...any) error }) (*ContentModel, error) {
	var model ContentModel
	err := scanner.Scan(
		&model.RID, &model.SourceRID, &model.URL, &model.Title, &model.Content,
		&model.ContentHash, &model.OriginalID, &model.ContentType,
		&model.MetadataJSON, &model.Truncated, &model.CreatedAt,
	)
	return &model, err
}

// Insert persists a content item idempotently. ON CONFLICT DO NOTHING covers
// every uniqueness rule at once (rid, (source, original_id), content hash),
// so two concurrent first-trackings of the same logical item converge: the
// loser of the race reads back the winner's row.
func (r *contentRepository) Insert(ctx context.Context, item *catalog.ContentItem) (*catalog.ContentItem, error) {
	model, err := toContentModel(item)
	if err != nil {
		return nil, err
	}
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO content_items (
			rid, source_rid, url, title, content, content_hash,
			original_id, content_type, metadata_json, truncated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		model.RID, model.SourceRID, model.URL, model.Title, model.Content,
		model.ContentHash, model.OriginalID, model.ContentType,
		model.MetadataJSON, model.Truncated, model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert content item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected > 0 {
		return item, nil
	}

	// Dedup hit: return whichever stored row claimed one of the unique keys.
	existing, err := r.FindByOrigin(ctx, item.SourceRID(), item.OriginalID())
	if err == nil {
		return existing, nil
	}
	var notFound *catalog.ContentNotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}
	return r.FindByFingerprint(ctx, item.Fingerprint())
}

// FindByRID retrieves a content item by identifier.
func (r *contentRepository) FindByRID(ctx context.Context, rid catalog.RID) (*catalog.ContentItem, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_items WHERE rid = ?`, rid.String())
	return r.one(row, rid)
}

// FindByOrigin retrieves the item tracked for (sourceRID, originalID). This
// is the indexed dedup lookup and stays O(1) on the hit path.
func (r *contentRepository) FindByOrigin(ctx context.Context, sourceRID catalog.RID, originalID string) (*catalog.ContentItem, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_items WHERE source_rid = ? AND original_id = ?`,
		sourceRID.String(), originalID)
	return r.one(row, "")
}

// FindByFingerprint retrieves the item with the given content fingerprint.
func (r *contentRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*catalog.ContentItem, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_items WHERE content_hash = ?`, fingerprint)
	return r.one(row, "")
}

func (r *contentRepository) one(row *sql.Row, rid catalog.RID) (*catalog.ContentItem, error) {
	model, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &catalog.ContentNotFoundError{RID: rid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find content item: %w", err)
	}
	return model.toDomain()
}

// List returns all content items ordered by creation time.
func (r *contentRepository) List(ctx context.Context) ([]*catalog.ContentItem, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content_items ORDER BY created_at, rid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list content items: %w", err)
	}
	defer rows.Close()

	var items []*catalog.ContentItem
	for rows.Next() {
		model, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		item, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the number of distinct content items.
func (r *contentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count content items: %w", err)
	}
	return count, nil
}
