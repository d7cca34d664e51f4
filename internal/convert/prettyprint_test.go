package convert

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/queryconv/internal/platform"
)

func TestRenderOverrideDiffShowsChangedQueries(testInstance *testing.T) {
	currentGroups := []platform.QueryGroup{
		{
			Name:         "General",
			LanguageName: "Java",
			Queries: []platform.Query{
				{Identifier: 50, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "old body"},
			},
		},
	}
	mergedGroups := []platform.QueryGroup{
		{
			Name:         "General",
			LanguageName: "Java",
			Queries: []platform.Query{
				{Identifier: 0, Name: "Q1", Enabled: true, Severity: platform.SeverityLow, Source: "new body"},
			},
		},
	}

	renderedDiff, renderError := renderOverrideDiff(currentGroups, mergedGroups)
	require.NoError(testInstance, renderError)
	require.Contains(testInstance, renderedDiff, "--- current")
	require.Contains(testInstance, renderedDiff, "+++ merged")
	require.Contains(testInstance, renderedDiff, "-      severity: High")
	require.Contains(testInstance, renderedDiff, "+      severity: Low")
}

func TestRenderOverrideDiffIgnoresIdentifiersAndOrdering(testInstance *testing.T) {
	firstGroups := []platform.QueryGroup{
		{
			Name:         "General",
			LanguageName: "Java",
			Queries: []platform.Query{
				{Identifier: 50, Name: "Q2", Enabled: false, Severity: platform.SeverityLow, Source: "body two"},
				{Identifier: 51, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "body one"},
			},
		},
	}
	secondGroups := []platform.QueryGroup{
		{
			Name:         "General",
			LanguageName: "Java",
			Queries: []platform.Query{
				{Identifier: 900, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "body one"},
				{Identifier: 901, Name: "Q2", Enabled: false, Severity: platform.SeverityLow, Source: "body two"},
			},
		},
	}

	renderedDiff, renderError := renderOverrideDiff(firstGroups, secondGroups)
	require.NoError(testInstance, renderError)
	require.Equal(testInstance, unchangedDiffPlaceholderConstant, renderedDiff)
}

func TestSourceDigest(testInstance *testing.T) {
	require.Equal(testInstance, noSourceDigestPlaceholderConstant, sourceDigest(""))
	require.Len(testInstance, sourceDigest("some body"), 32)
	require.Equal(testInstance, sourceDigest("some body"), sourceDigest("some body"))
	require.NotEqual(testInstance, sourceDigest("some body"), sourceDigest("other body"))
}

func TestSavedQueryFileName(testInstance *testing.T) {
	group := platform.QueryGroup{Name: "General", LanguageName: "Java"}
	query := platform.Query{Name: "Q1"}
	require.Equal(testInstance, "Java_General__Q1", savedQueryFileName(group, query))
}
