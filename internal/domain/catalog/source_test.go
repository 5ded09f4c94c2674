package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifySourceType(t *testing.T) {
	tests := []struct {
		hint string
		want SourceType
	}{
		{"https://github.com/regen-network/docs", SourceGitHub},
		{"https://gitlab.com/some/project", SourceGitLab},
		{"https://medium.com/@writer/post", SourceMedium},
		{"https://twitter.com/handle/status/1", SourceTwitter},
		{"https://x.com/handle/status/1", SourceTwitter},
		{"https://www.notion.so/workspace/page", SourceNotion},
		{"https://discord.com/channels/1/2", SourceDiscord},
		{"planetary-regeneration-podcast", SourcePodcast},
		{"https://example.org/blog", SourceWebsite},
		{"www.example.org", SourceWebsite},
		{"local-notes.txt", SourceUnknown},
		{"", SourceUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifySourceType(tt.hint))
		})
	}
}

// TestClassifySourceType_OrderedRules verifies first-match-wins ordering:
// a github URL is github, not website, even though both rules match.
func TestClassifySourceType_OrderedRules(t *testing.T) {
	require.Equal(t, SourceGitHub, ClassifySourceType("https://github.com/x"))
	require.Equal(t, SourceMedium, ClassifySourceType("https://medium.com/x"))
}

func TestSourceTypeIsValid(t *testing.T) {
	for _, valid := range []SourceType{
		SourceGitHub, SourceGitLab, SourceWebsite, SourcePodcast,
		SourceMedium, SourceTwitter, SourceNotion, SourceDiscord, SourceUnknown,
	} {
		require.True(t, valid.IsValid(), "%s should be valid", valid)
	}
	require.False(t, SourceType("rss").IsValid())
	require.False(t, SourceType("").IsValid())
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(SourceGitHub, "Regen Docs", "documentation repo", "https://github.com/regen-network/docs", nil)
	require.NoError(t, err)
	require.Equal(t, RID("orn:koi.source.github:regen-docs"), src.RID())
	require.Equal(t, SourceGitHub, src.Type())
	require.Equal(t, "Regen Docs", src.Name())
	require.False(t, src.CreatedAt().IsZero())

	// Identical inputs derive the identical identifier.
	again, err := NewSource(SourceGitHub, "Regen Docs", "other description", "", nil)
	require.NoError(t, err)
	require.Equal(t, src.RID(), again.RID())

	_, err = NewSource(SourceGitHub, "", "", "", nil)
	require.ErrorIs(t, err, ErrInvalidIdentifierInput, "empty name slugifies to empty")
}
