package catalog

import (
	"fmt"
	"time"
)

// ProcessingStatus is the per-(content, agent) state. The only transition is
// unrecorded -> processed, on the first MarkAsProcessed call. There is no
// persisted failed state at this layer; failures are a caller-side concern.
type ProcessingStatus string

const (
	StatusUnrecorded ProcessingStatus = "unrecorded"
	StatusProcessed  ProcessingStatus = "processed"
)

// String returns the string representation of the status.
func (s ProcessingStatus) String() string {
	return string(s)
}

// ProcessingRecord is evidence that one agent finished processing one content
// item. At most one record exists per (content, agent) pair; re-recording
// updates the counts in place.
type ProcessingRecord struct {
	contentRID    RID
	agentID       string
	documentID    string
	fragmentCount int
	duration      time.Duration
	processedAt   time.Time
}

// NewProcessingRecord builds a processing record for an agent completion.
func NewProcessingRecord(contentRID RID, agentID, documentID string, fragmentCount int, duration time.Duration) (*ProcessingRecord, error) {
	if contentRID == "" {
		return nil, fmt.Errorf("processing record requires a content rid: %w", ErrInvalidIdentifierInput)
	}
	if agentID == "" {
		return nil, fmt.Errorf("processing record requires an agent id: %w", ErrInvalidIdentifierInput)
	}
	if fragmentCount < 0 {
		return nil, fmt.Errorf("fragment count must not be negative: %w", ErrInvalidIdentifierInput)
	}
	return &ProcessingRecord{
		contentRID:    contentRID,
		agentID:       agentID,
		documentID:    documentID,
		fragmentCount: fragmentCount,
		duration:      duration,
		processedAt:   time.Now().UTC(),
	}, nil
}

// RestoreProcessingRecord rehydrates a processing record from persistence.
func RestoreProcessingRecord(contentRID RID, agentID, documentID string, fragmentCount int, duration time.Duration, processedAt time.Time) *ProcessingRecord {
	return &ProcessingRecord{
		contentRID:    contentRID,
		agentID:       agentID,
		documentID:    documentID,
		fragmentCount: fragmentCount,
		duration:      duration,
		processedAt:   processedAt,
	}
}

// ContentRID returns the processed content identifier.
func (r *ProcessingRecord) ContentRID() RID { return r.contentRID }

// AgentID returns the opaque agent identifier.
func (r *ProcessingRecord) AgentID() string { return r.agentID }

// DocumentID returns the caller-supplied document identifier.
func (r *ProcessingRecord) DocumentID() string { return r.documentID }

// FragmentCount returns the number of fragments the agent produced.
func (r *ProcessingRecord) FragmentCount() int { return r.fragmentCount }

// Duration returns how long the agent spent processing.
func (r *ProcessingRecord) Duration() time.Duration { return r.duration }

// ProcessedAt returns the completion timestamp.
func (r *ProcessingRecord) ProcessedAt() time.Time { return r.processedAt }
