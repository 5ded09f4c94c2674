package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kberg/koireg/internal/domain/catalog"
)

// sourceColumns is the list of columns to select for source queries.
const sourceColumns = `rid, source_type, name, description, url, metadata_json, created_at`

// sourceRepository implements catalog.SourceRepository using SQLite.
type sourceRepository struct {
	q dbtx
}

// Ensure sourceRepository implements catalog.SourceRepository.
var _ catalog.SourceRepository = (*sourceRepository)(nil)

// scanSource scans a row into a SourceModel.
func scanSource(scanner interface{ Scan(...any) error }) (*SourceModel, error) {
	var model SourceModel
	err := scanner.Scan(
		&model.RID, &model.SourceType, &model.Name, &model.Description,
		&model.URL, &model.MetadataJSON, &model.CreatedAt,
	)
	return &model, err
}

// Save persists a source. An existing RID is left unchanged: registration is
// idempotent by identity, never an overwrite.
func (r *sourceRepository) Save(ctx context.Context, source *catalog.Source) error {
	model, err := toSourceModel(source)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO sources (rid, source_type, name, description, url, metadata_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		model.RID, model.SourceType, model.Name, model.Description,
		model.URL, model.MetadataJSON, model.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}
	return nil
}

// FindByRID retrieves a source by identifier.
func (r *sourceRepository) FindByRID(ctx context.Context, rid catalog.RID) (*catalog.Source, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE rid = ?`, rid.String())
	model, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &catalog.SourceNotFoundError{RID: rid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find source by rid: %w", err)
	}
	return model.toDomain()
}

// FindByType retrieves one source of the given type. When several exist the
// earliest registration wins; callers use this for best-effort fallback
// source selection only.
func (r *sourceRepository) FindByType(ctx context.Context, sourceType catalog.SourceType) (*catalog.Source, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE source_type = ? ORDER BY created_at, rid LIMIT 1`,
		sourceType.String())
	model, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &catalog.SourceNotFoundError{Type: sourceType}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find source by type: %w", err)
	}
	return model.toDomain()
}

// List returns all registered sources.
func (r *sourceRepository) List(ctx context.Context) ([]*catalog.Source, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM sources ORDER BY created_at, rid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []*catalog.Source
	for rows.Next() {
		model, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		source, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// CountByType returns source counts grouped by type.
func (r *sourceRepository) CountByType(ctx context.Context) (map[catalog.SourceType]int, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT source_type, COUNT(*) FROM sources GROUP BY source_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sources: %w", err)
	}
	defer rows.Close()

	counts := make(map[catalog.SourceType]int)
	for rows.Next() {
		var sourceType string
		var count int
		if err := rows.Scan(&sourceType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		counts[catalog.SourceType(sourceType)] = count
	}
	return counts, rows.Err()
}
