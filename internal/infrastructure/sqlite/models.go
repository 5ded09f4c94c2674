package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kberg/koireg/internal/domain/catalog"
)

// SourceModel represents the database row for the sources table.
// Fields map directly to SQL columns with Unix timestamps for time values.
type SourceModel struct {
	RID          string
	SourceType   string
	Name         string
	Description  string
	URL          string
	MetadataJSON string
	CreatedAt    int64
}

// ContentModel represents the database row for the content_items table.
type ContentModel struct {
	RID          string
	SourceRID    string
	URL          string
	Title        string
	Content      string
	ContentHash  string
	OriginalID   string
	ContentType  string
	MetadataJSON string
	Truncated    bool
	CreatedAt    int64
}

// ProcessingModel represents the database row for the processing_records table.
type ProcessingModel struct {
	ContentRID    string
	AgentID       string
	DocumentID    string
	FragmentCount int
	ProcessingMS  int64
	ProcessedAt   int64
}

// toSourceModel converts a domain Source to its database row.
func toSourceModel(s *catalog.Source) (*SourceModel, error) {
	metadataJSON, err := marshalMetadata(s.Metadata())
	if err != nil {
		return nil, err
	}
	return &SourceModel{
		RID:          s.RID().String(),
		SourceType:   s.Type().String(),
		Name:         s.Name(),
		Description:  s.Description(),
		URL:          s.URL(),
		MetadataJSON: metadataJSON,
		CreatedAt:    s.CreatedAt().Unix(),
	}, nil
}

// toDomain converts a sources row back to the domain entity.
func (m *SourceModel) toDomain() (*catalog.Source, error) {
	metadata, err := unmarshalMetadata(m.MetadataJSON)
	if err != nil {
		return nil, fmt.Errorf("source %s metadata: %w", m.RID, err)
	}
	return catalog.RestoreSource(
		catalog.RID(m.RID),
		catalog.SourceType(m.SourceType),
		m.Name,
		m.Description,
		m.URL,
		metadata,
		time.Unix(m.CreatedAt, 0).UTC(),
	), nil
}

// toContentModel converts a domain ContentItem to its database row.
func toContentModel(c *catalog.ContentItem) (*ContentModel, error) {
	metadataJSON, err := marshalMetadata(c.Metadata())
	if err != nil {
		return nil, err
	}
	return &ContentModel{
		RID:          c.RID().String(),
		SourceRID:    c.SourceRID().String(),
		URL:          c.URL(),
		Title:        c.Title(),
		Content:      c.Content(),
		ContentHash:  c.Fingerprint(),
		OriginalID:   c.OriginalID(),
		ContentType:  c.ContentType(),
		MetadataJSON: metadataJSON,
		Truncated:    c.Truncated(),
		CreatedAt:    c.CreatedAt().Unix(),
	}, nil
}

// toDomain converts a content_items row back to the domain entity.
func (m *ContentModel) toDomain() (*catalog.ContentItem, error) {
	metadata, err := unmarshalMetadata(m.MetadataJSON)
	if err != nil {
		return nil, fmt.Errorf("content %s metadata: %w", m.RID, err)
	}
	return catalog.RestoreContentItem(
		catalog.RID(m.RID),
		catalog.RID(m.SourceRID),
		m.URL,
		m.Title,
		m.Content,
		m.ContentHash,
		m.OriginalID,
		m.ContentType,
		metadata,
		m.Truncated,
		time.Unix(m.CreatedAt, 0).UTC(),
	), nil
}

// toProcessingModel converts a domain ProcessingRecord to its database row.
func toProcessingModel(r *catalog.ProcessingRecord) *ProcessingModel {
	return &ProcessingModel{
		ContentRID:    r.ContentRID().String(),
		AgentID:       r.AgentID(),
		DocumentID:    r.DocumentID(),
		FragmentCount: r.FragmentCount(),
		ProcessingMS:  r.Duration().Milliseconds(),
		ProcessedAt:   r.ProcessedAt().Unix(),
	}
}

// toDomain converts a processing_records row back to the domain entity.
func (m *ProcessingModel) toDomain() *catalog.ProcessingRecord {
	return catalog.RestoreProcessingRecord(
		catalog.RID(m.ContentRID),
		m.AgentID,
		m.DocumentID,
		m.FragmentCount,
		time.Duration(m.ProcessingMS)*time.Millisecond,
		time.Unix(m.ProcessedAt, 0).UTC(),
	)
}

func marshalMetadata(m catalog.Metadata) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}
	return string(data), nil
}

func unmarshalMetadata(raw string) (catalog.Metadata, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var m catalog.Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}
