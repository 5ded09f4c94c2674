package catalog

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Content size policy. Content longer than MaxContentBytes is never persisted
// as a single unit: only the first TruncatedPrefixBytes are stored, with a
// marker appended and the original size recorded in metadata.
const (
	DefaultMaxContentBytes = 512 * 1024
	TruncatedPrefixBytes   = 64 * 1024
	truncationMarker       = "\n[truncated]"

	// MetaKeyOriginalSize records the pre-truncation byte length.
	MetaKeyOriginalSize = "original_size_bytes"

	// DefaultObjectType is used when callers supply no object type.
	DefaultObjectType = "document"

	// DefaultContentVersion is used when callers do no content-level versioning.
	DefaultContentVersion = "v1"
)

// BoundContent applies the oversized-content policy. The returned string is
// the stored body: the original content when it fits, otherwise a bounded
// prefix plus marker. The prefix is trimmed back to a UTF-8 boundary.
func BoundContent(content string, maxBytes int) (stored string, truncated bool) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxContentBytes
	}
	if len(content) <= maxBytes {
		return content, false
	}
	cut := TruncatedPrefixBytes
	if cut > maxBytes {
		cut = maxBytes
	}
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + truncationMarker, true
}

// ContentItem is one trackable unit of knowledge, owned by a source and
// deduplicated by (source, originalID) and by content fingerprint.
type ContentItem struct {
	rid         RID
	sourceRID   RID
	url         string
	title       string
	content     string
	fingerprint string
	originalID  string
	contentType string
	metadata    Metadata
	truncated   bool
	createdAt   time.Time
}

// NewContentItemParams carries the inputs for creating a content item.
// Content is the full raw content; fingerprinting and truncation are applied
// here so every construction path shares the same policy.
type NewContentItemParams struct {
	SourceRID   RID
	URL         string
	Title       string
	Content     string
	OriginalID  string
	ContentType string
	Metadata    Metadata

	// Tier defaults to TierRelevant, ObjectType to "document", and Version
	// to "v1" when unset.
	Tier       RelevanceTier
	ObjectType string
	Version    string

	// MaxContentBytes defaults to DefaultMaxContentBytes when zero.
	MaxContentBytes int
}

// NewContentItem builds a content item with its deterministic RID. The
// fingerprint always covers the full original content, so re-ingesting the
// same oversized document still dedups even though only a prefix is stored.
func NewContentItem(p NewContentItemParams) (*ContentItem, error) {
	if p.SourceRID == "" {
		return nil, fmt.Errorf("content item requires a source rid: %w", ErrInvalidIdentifierInput)
	}
	if p.OriginalID == "" {
		return nil, fmt.Errorf("content item requires an original id: %w", ErrInvalidIdentifierInput)
	}
	tier := p.Tier
	if tier == "" {
		tier = TierRelevant
	}
	objectType := p.ObjectType
	if objectType == "" {
		objectType = DefaultObjectType
	}
	version := p.Version
	if version == "" {
		version = DefaultContentVersion
	}

	fingerprint := Fingerprint(p.Content)
	rid, err := ContentRID(tier, objectType, Slugify(p.OriginalID), version, fingerprint)
	if err != nil {
		return nil, err
	}

	stored, truncated := BoundContent(p.Content, p.MaxContentBytes)
	metadata := p.Metadata
	if truncated {
		if metadata == nil {
			metadata = Metadata{}
		} else {
			copied := make(Metadata, len(metadata)+1)
			for k, v := range metadata {
				copied[k] = v
			}
			metadata = copied
		}
		metadata[MetaKeyOriginalSize] = IntValue(int64(len(p.Content)))
	}

	return &ContentItem{
		rid:         rid,
		sourceRID:   p.SourceRID,
		url:         p.URL,
		title:       p.Title,
		content:     stored,
		fingerprint: fingerprint,
		originalID:  p.OriginalID,
		contentType: p.ContentType,
		metadata:    metadata,
		truncated:   truncated,
		createdAt:   time.Now().UTC(),
	}, nil
}

// RestoreContentItem rehydrates a content item from persistence.
func RestoreContentItem(rid, sourceRID RID, url, title, content, fingerprint, originalID, contentType string, metadata Metadata, truncated bool, createdAt time.Time) *ContentItem {
	return &ContentItem{
		rid:         rid,
		sourceRID:   sourceRID,
		url:         url,
		title:       title,
		content:     content,
		fingerprint: fingerprint,
		originalID:  originalID,
		contentType: contentType,
		metadata:    metadata,
		truncated:   truncated,
		createdAt:   createdAt,
	}
}

// RID returns the deterministic content identifier.
func (c *ContentItem) RID() RID { return c.rid }

// SourceRID returns the owning source identifier.
func (c *ContentItem) SourceRID() RID { return c.sourceRID }

// URL returns the source URL, if any.
func (c *ContentItem) URL() string { return c.url }

// Title returns the content title.
func (c *ContentItem) Title() string { return c.title }

// Content returns the stored body, possibly a truncated prefix.
func (c *ContentItem) Content() string { return c.content }

// Fingerprint returns the full sha256 hex digest of the original content.
func (c *ContentItem) Fingerprint() string { return c.fingerprint }

// OriginalID returns the caller-supplied external identifier.
func (c *ContentItem) OriginalID() string { return c.originalID }

// ContentType returns the caller-supplied content type.
func (c *ContentItem) ContentType() string { return c.contentType }

// Metadata returns the free-form metadata document.
func (c *ContentItem) Metadata() Metadata { return c.metadata }

// Truncated reports whether the stored body was bounded by the size policy.
func (c *ContentItem) Truncated() bool { return c.truncated }

// CreatedAt returns the tracking time.
func (c *ContentItem) CreatedAt() time.Time { return c.createdAt }
