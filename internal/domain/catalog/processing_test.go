package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewProcessingRecord(t *testing.T) {
	srcRID, err := SourceRID(SourceGitHub, "demo")
	require.NoError(t, err)
	item, err := NewContentItem(NewContentItemParams{
		SourceRID:  srcRID,
		OriginalID: "doc-1",
		Content:    "hello world",
	})
	require.NoError(t, err)

	rec, err := NewProcessingRecord(item.RID(), "governance-agent", "doc-uuid", 3, 1500*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, item.RID(), rec.ContentRID())
	require.Equal(t, "governance-agent", rec.AgentID())
	require.Equal(t, 3, rec.FragmentCount())
	require.Equal(t, 1500*time.Millisecond, rec.Duration())
	require.False(t, rec.ProcessedAt().IsZero())
}

func TestNewProcessingRecord_Validation(t *testing.T) {
	_, err := NewProcessingRecord("", "agent", "", 1, 0)
	require.ErrorIs(t, err, ErrInvalidIdentifierInput, "missing content rid")

	_, err = NewProcessingRecord("orn:koi.content.core:a/b/v1/abcdef012345", "", "", 1, 0)
	require.ErrorIs(t, err, ErrInvalidIdentifierInput, "missing agent id")

	_, err = NewProcessingRecord("orn:koi.content.core:a/b/v1/abcdef012345", "agent", "", -1, 0)
	require.ErrorIs(t, err, ErrInvalidIdentifierInput, "negative fragment count")
}
