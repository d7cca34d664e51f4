package overrides

import (
	"strings"

	"github.com/temirov/queryconv/internal/platform"
)

// Collector serves per-level override sets from a snapshot fetched once per
// run. It never mutates the snapshot; an empty result for a level is a
// normal, non-error outcome.
type Collector struct {
	groupsByTeam    map[int64][]platform.QueryGroup
	groupsByProject map[int64][]platform.QueryGroup
}

// NewCollector indexes the provided query groups by owning team and by
// project. Groups in other scopes are ignored.
func NewCollector(queryGroups []platform.QueryGroup) *Collector {
	collector := &Collector{
		groupsByTeam:    map[int64][]platform.QueryGroup{},
		groupsByProject: map[int64][]platform.QueryGroup{},
	}
	for _, group := range queryGroups {
		switch group.Scope {
		case platform.PackageScopeTeam:
			collector.groupsByTeam[group.OwningTeamIdentifier] = append(collector.groupsByTeam[group.OwningTeamIdentifier], group)
		case platform.PackageScopeProject:
			collector.groupsByProject[group.ProjectIdentifier] = append(collector.groupsByProject[group.ProjectIdentifier], group)
		}
	}
	return collector
}

// TeamOverrides returns the query groups defined exactly at the given team
// level, not including anything inherited from ancestors.
func (collector *Collector) TeamOverrides(teamIdentifier int64) []platform.QueryGroup {
	return collector.groupsByTeam[teamIdentifier]
}

// ProjectOverrides returns the query groups defined at the given project.
func (collector *Collector) ProjectOverrides(projectIdentifier int64) []platform.QueryGroup {
	return collector.groupsByProject[projectIdentifier]
}

// FilterByLanguages drops groups whose language the project does not scan.
// An empty language set disables filtering: a project with no finished
// scans merges every override rather than none.
func FilterByLanguages(queryGroups []platform.QueryGroup, scannedLanguages []string) []platform.QueryGroup {
	if len(scannedLanguages) == 0 {
		return queryGroups
	}

	scannedSet := make(map[string]struct{}, len(scannedLanguages))
	for _, language := range scannedLanguages {
		scannedSet[strings.ToLower(strings.TrimSpace(language))] = struct{}{}
	}

	var retainedGroups []platform.QueryGroup
	for _, group := range queryGroups {
		if _, scanned := scannedSet[strings.ToLower(strings.TrimSpace(group.LanguageName))]; scanned {
			retainedGroups = append(retainedGroups, group)
		}
	}
	return retainedGroups
}
