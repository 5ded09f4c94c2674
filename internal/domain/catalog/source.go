package catalog

import (
	"strings"
	"time"
)

// SourceType is the closed set of content origins the registry understands.
type SourceType string

const (
	SourceGitHub  SourceType = "github"
	SourceGitLab  SourceType = "gitlab"
	SourceWebsite SourceType = "website"
	SourcePodcast SourceType = "podcast"
	SourceMedium  SourceType = "medium"
	SourceTwitter SourceType = "twitter"
	SourceNotion  SourceType = "notion"
	SourceDiscord SourceType = "discord"
	SourceUnknown SourceType = "unknown"
)

// String returns the string representation of the source type.
func (t SourceType) String() string {
	return string(t)
}

// IsValid returns true if the type is a recognized source type.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceGitHub, SourceGitLab, SourceWebsite, SourcePodcast,
		SourceMedium, SourceTwitter, SourceNotion, SourceDiscord, SourceUnknown:
		return true
	default:
		return false
	}
}

// classifierRule maps a URL/name substring to a source type. Rules are
// evaluated in fixed order; the first match wins.
type classifierRule struct {
	needle string
	result SourceType
}

// classifierRules is ordered: host-specific rules before generic ones.
var classifierRules = []classifierRule{
	{"github.com", SourceGitHub},
	{"github", SourceGitHub},
	{"gitlab.com", SourceGitLab},
	{"gitlab", SourceGitLab},
	{"medium.com", SourceMedium},
	{"medium", SourceMedium},
	{"twitter.com", SourceTwitter},
	{"x.com", SourceTwitter},
	{"tweet", SourceTwitter},
	{"notion.so", SourceNotion},
	{"notion", SourceNotion},
	{"discord.com", SourceDiscord},
	{"discord", SourceDiscord},
	{"podcast", SourcePodcast},
	{"episode", SourcePodcast},
	{"http://", SourceWebsite},
	{"https://", SourceWebsite},
	{"www.", SourceWebsite},
}

// ClassifySourceType infers a source type from a URL or name hint.
// Returns SourceUnknown when no rule matches.
func ClassifySourceType(hint string) SourceType {
	h := strings.ToLower(hint)
	for _, rule := range classifierRules {
		if strings.Contains(h, rule.needle) {
			return rule.result
		}
	}
	return SourceUnknown
}

// Source is a registered origin of ingested content. All fields are
// unexported to enforce encapsulation; use NewSource and the getters.
type Source struct {
	rid         RID
	sourceType  SourceType
	name        string
	description string
	url         string
	metadata    Metadata
	createdAt   time.Time
}

// NewSource builds a source with its deterministic RID derived from
// (type, slugified name). Registration with the same inputs always produces
// the same RID, which makes registration idempotent by identity.
func NewSource(sourceType SourceType, name, description, url string, metadata Metadata) (*Source, error) {
	rid, err := SourceRID(sourceType, Slugify(name))
	if err != nil {
		return nil, err
	}
	return &Source{
		rid:         rid,
		sourceType:  sourceType,
		name:        name,
		description: description,
		url:         url,
		metadata:    metadata,
		createdAt:   time.Now().UTC(),
	}, nil
}

// RestoreSource rehydrates a source from persistence. No RID derivation is
// performed; the stored identifier is authoritative.
func RestoreSource(rid RID, sourceType SourceType, name, description, url string, metadata Metadata, createdAt time.Time) *Source {
	return &Source{
		rid:         rid,
		sourceType:  sourceType,
		name:        name,
		description: description,
		url:         url,
		metadata:    metadata,
		createdAt:   createdAt,
	}
}

// RID returns the deterministic source identifier.
func (s *Source) RID() RID { return s.rid }

// Type returns the source type.
func (s *Source) Type() SourceType { return s.sourceType }

// Name returns the human-readable display name.
func (s *Source) Name() string { return s.name }

// Description returns the source description.
func (s *Source) Description() string { return s.description }

// URL returns the source URL.
func (s *Source) URL() string { return s.url }

// Metadata returns the free-form metadata document.
func (s *Source) Metadata() Metadata { return s.metadata }

// CreatedAt returns the registration time.
func (s *Source) CreatedAt() time.Time { return s.createdAt }
