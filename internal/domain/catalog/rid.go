package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// RID is a deterministic resource identifier assigned to a source, content
// item, or agent. RIDs follow the ORN convention: orn:{namespace}:{reference}.
type RID string

// String returns the identifier text.
func (r RID) String() string {
	return string(r)
}

// RID namespace components.
const (
	ridScheme          = "orn"
	sourceNamespace    = "koi.source"
	contentNamespace   = "koi.content"
	agentNamespace     = "koi.agent"
	fingerprintPrefixN = 12
)

// RelevanceTier is the caller-supplied coarse relevance tag folded into a
// content identifier.
type RelevanceTier string

const (
	TierCore       RelevanceTier = "core"
	TierRelevant   RelevanceTier = "relevant"
	TierBackground RelevanceTier = "background"
)

// IsValid returns true if the tier is one of the closed set.
func (t RelevanceTier) IsValid() bool {
	switch t {
	case TierCore, TierRelevant, TierBackground:
		return true
	default:
		return false
	}
}

// SourceRIDParts holds the parsed components of a source identifier.
type SourceRIDParts struct {
	Type SourceType
	Slug string
}

// ContentRIDParts holds the parsed components of a content identifier.
type ContentRIDParts struct {
	Tier              RelevanceTier
	ObjectType        string
	Subject           string
	Version           string
	FingerprintPrefix string
}

// Fingerprint returns the hex sha256 digest of content. The fingerprint is
// the content-addressable half of a content RID: two different contents
// always produce different fingerprints and therefore different RIDs.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// SourceRID builds the deterministic identifier for a source.
// Format: orn:koi.source.{type}:{slug}
//
// The same (type, slug) pair yields a byte-identical RID on every call, in
// any process. Returns ErrInvalidIdentifierInput if either component is
// empty or the slug contains reserved delimiter characters.
func SourceRID(sourceType SourceType, slug string) (RID, error) {
	if sourceType == "" || slug == "" {
		return "", fmt.Errorf("source rid requires type and slug: %w", ErrInvalidIdentifierInput)
	}
	if !sourceType.IsValid() {
		return "", fmt.Errorf("unknown source type %q: %w", sourceType, ErrInvalidIdentifierInput)
	}
	if strings.ContainsAny(slug, ":/") {
		return "", fmt.Errorf("slug %q contains reserved characters: %w", slug, ErrInvalidIdentifierInput)
	}
	return RID(fmt.Sprintf("%s:%s.%s:%s", ridScheme, sourceNamespace, sourceType, slug)), nil
}

// ContentRID builds the deterministic identifier for a content item.
// Format: orn:koi.content.{tier}:{objectType}/{subject}/{version}/{fp}
//
// fp is the first 12 hex characters of the content fingerprint, so two
// versions of the same subject with different content are distinct RIDs.
func ContentRID(tier RelevanceTier, objectType, subject, version, fingerprint string) (RID, error) {
	if !tier.IsValid() {
		return "", fmt.Errorf("invalid relevance tier %q: %w", tier, ErrInvalidIdentifierInput)
	}
	if objectType == "" || subject == "" || version == "" {
		return "", fmt.Errorf("content rid requires objectType, subject, and version: %w", ErrInvalidIdentifierInput)
	}
	if len(fingerprint) < fingerprintPrefixN {
		return "", fmt.Errorf("fingerprint %q shorter than %d characters: %w", fingerprint, fingerprintPrefixN, ErrInvalidIdentifierInput)
	}
	for _, component := range []string{objectType, subject, version} {
		if strings.ContainsAny(component, ":/") {
			return "", fmt.Errorf("component %q contains reserved characters: %w", component, ErrInvalidIdentifierInput)
		}
	}
	return RID(fmt.Sprintf("%s:%s.%s:%s/%s/%s/%s",
		ridScheme, contentNamespace, tier,
		objectType, subject, version, fingerprint[:fingerprintPrefixN])), nil
}

// AgentRID builds the identifier for an agent node in exported manifests.
// Agents are external consumers; the id is opaque to the registry.
func AgentRID(agentID string) (RID, error) {
	if agentID == "" {
		return "", fmt.Errorf("agent rid requires an id: %w", ErrInvalidIdentifierInput)
	}
	return RID(fmt.Sprintf("%s:%s:%s", ridScheme, agentNamespace, agentID)), nil
}

// ParseSourceRID parses a source identifier back into its components.
func ParseSourceRID(rid RID) (*SourceRIDParts, error) {
	namespace, reference, err := splitORN(rid)
	if err != nil {
		return nil, err
	}
	typeSuffix, ok := strings.CutPrefix(namespace, sourceNamespace+".")
	if !ok {
		return nil, fmt.Errorf("%q is not a source rid: %w", rid, ErrInvalidRID)
	}
	sourceType := SourceType(typeSuffix)
	if !sourceType.IsValid() || reference == "" {
		return nil, fmt.Errorf("malformed source rid %q: %w", rid, ErrInvalidRID)
	}
	return &SourceRIDParts{Type: sourceType, Slug: reference}, nil
}

// ParseContentRID parses a content identifier back into its components.
func ParseContentRID(rid RID) (*ContentRIDParts, error) {
	namespace, reference, err := splitORN(rid)
	if err != nil {
		return nil, err
	}
	tierSuffix, ok := strings.CutPrefix(namespace, contentNamespace+".")
	if !ok {
		return nil, fmt.Errorf("%q is not a content rid: %w", rid, ErrInvalidRID)
	}
	tier := RelevanceTier(tierSuffix)
	parts := strings.Split(reference, "/")
	if !tier.IsValid() || len(parts) != 4 {
		return nil, fmt.Errorf("malformed content rid %q: %w", rid, ErrInvalidRID)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("malformed content rid %q: %w", rid, ErrInvalidRID)
		}
	}
	return &ContentRIDParts{
		Tier:              tier,
		ObjectType:        parts[0],
		Subject:           parts[1],
		Version:           parts[2],
		FingerprintPrefix: parts[3],
	}, nil
}

// splitORN splits orn:{namespace}:{reference}, validating the scheme.
func splitORN(rid RID) (namespace, reference string, err error) {
	parts := strings.SplitN(string(rid), ":", 3)
	if len(parts) != 3 || parts[0] != ridScheme || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed rid %q: %w", rid, ErrInvalidRID)
	}
	return parts[1], parts[2], nil
}

// Slugify normalizes a display name into a RID-safe slug: lower case, spaces
// and reserved delimiters collapsed to single dashes.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
