package convert

import (
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/temirov/queryconv/internal/platform"
)

const (
	diffFromLabelConstant            = "current"
	diffToLabelConstant              = "merged"
	diffContextLinesConstant         = 3
	renderingErrorTemplateConstant   = "unable to render override diff: %w"
	unchangedDiffPlaceholderConstant = "(representation identical)\n"
)

// renderedQuery is the canonical diff representation of one query. Level
// assigned identifiers are omitted so the diff shows only effective
// customization.
type renderedQuery struct {
	Name     string            `yaml:"name"`
	Enabled  bool              `yaml:"enabled"`
	Severity platform.Severity `yaml:"severity"`
	Source   string            `yaml:"source,omitempty"`
}

type renderedGroup struct {
	Name     string          `yaml:"group"`
	Language string          `yaml:"language"`
	Queries  []renderedQuery `yaml:"queries"`
}

// renderOverrideDiff produces a unified diff of the canonical YAML
// rendering of the current and merged override sets.
func renderOverrideDiff(currentGroups []platform.QueryGroup, mergedGroups []platform.QueryGroup) (string, error) {
	currentRendering, currentError := renderGroups(currentGroups)
	if currentError != nil {
		return "", fmt.Errorf(renderingErrorTemplateConstant, currentError)
	}
	mergedRendering, mergedError := renderGroups(mergedGroups)
	if mergedError != nil {
		return "", fmt.Errorf(renderingErrorTemplateConstant, mergedError)
	}

	unifiedDiff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(currentRendering),
		B:        difflib.SplitLines(mergedRendering),
		FromFile: diffFromLabelConstant,
		ToFile:   diffToLabelConstant,
		Context:  diffContextLinesConstant,
	}
	diffText, diffError := difflib.GetUnifiedDiffString(unifiedDiff)
	if diffError != nil {
		return "", fmt.Errorf(renderingErrorTemplateConstant, diffError)
	}
	if len(diffText) == 0 {
		return unchangedDiffPlaceholderConstant, nil
	}
	return diffText, nil
}

func renderGroups(queryGroups []platform.QueryGroup) (string, error) {
	rendered := make([]renderedGroup, 0, len(queryGroups))
	for _, group := range queryGroups {
		renderedQueries := make([]renderedQuery, 0, len(group.Queries))
		for _, query := range group.Queries {
			renderedQueries = append(renderedQueries, renderedQuery{
				Name:     query.Name,
				Enabled:  query.Enabled,
				Severity: query.Severity,
				Source:   query.Source,
			})
		}
		sort.Slice(renderedQueries, func(first, second int) bool {
			return renderedQueries[first].Name < renderedQueries[second].Name
		})
		rendered = append(rendered, renderedGroup{
			Name:     group.Name,
			Language: group.LanguageName,
			Queries:  renderedQueries,
		})
	}
	sort.Slice(rendered, func(first, second int) bool {
		if rendered[first].Language != rendered[second].Language {
			return rendered[first].Language < rendered[second].Language
		}
		return rendered[first].Name < rendered[second].Name
	})

	encoded, encodeError := yaml.Marshal(rendered)
	if encodeError != nil {
		return "", encodeError
	}
	return string(encoded), nil
}
