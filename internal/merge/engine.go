package merge

import (
	"fmt"
	"sort"

	"github.com/temirov/queryconv/internal/platform"
)

const groupKeyTemplateConstant = "%s:%s"

// LevelKind distinguishes team levels from the project level.
type LevelKind string

// Supported level kinds.
const (
	LevelKindTeam    LevelKind = "team"
	LevelKindProject LevelKind = "project"
)

// Level identifies one hierarchy level contributing overrides.
type Level struct {
	Kind        LevelKind
	Identifier  int64
	DisplayName string
}

// LevelOverrides pairs a level with the override groups defined exactly at
// that level.
type LevelOverrides struct {
	Level  Level
	Groups []platform.QueryGroup
}

// GroupKey identifies a query group independently of the level that
// defined it. The same group name exists once per language.
type GroupKey struct {
	Name         string
	LanguageName string
}

// String renders the key in Language:Name form.
func (key GroupKey) String() string {
	return fmt.Sprintf(groupKeyTemplateConstant, key.LanguageName, key.Name)
}

// MergedGroup is the accumulated state for one group key: the merged
// queries plus, per query name, the most specific level that customized it.
type MergedGroup struct {
	Key     GroupKey
	Group   platform.QueryGroup
	origins map[string]Level
}

// Origin reports which level most specifically customized the named query.
func (mergedGroup MergedGroup) Origin(queryName string) (Level, bool) {
	level, found := mergedGroup.origins[queryName]
	return level, found
}

// Result holds the merged override state for one project.
type Result struct {
	groupsByKey map[GroupKey]*MergedGroup
}

// Merge folds the chain of level overrides, ordered root team first and
// project last, into one Result. The first level to customize a group
// establishes the baseline; each later level replaces matching queries
// whole-record by query name and appends queries new to the group. Merge
// is deterministic and idempotent: re-merging a result's output changes
// nothing.
func Merge(chain []LevelOverrides) Result {
	result := Result{groupsByKey: map[GroupKey]*MergedGroup{}}

	for _, levelOverrides := range chain {
		for _, group := range levelOverrides.Groups {
			key := GroupKey{Name: group.Name, LanguageName: group.LanguageName}

			accumulated, found := result.groupsByKey[key]
			if !found {
				result.groupsByKey[key] = newMergedGroup(key, group, levelOverrides.Level)
				continue
			}
			accumulated.apply(group, levelOverrides.Level)
		}
	}

	return result
}

func newMergedGroup(key GroupKey, group platform.QueryGroup, level Level) *MergedGroup {
	mergedGroup := &MergedGroup{
		Key:     key,
		Group:   platform.CloneGroup(group),
		origins: make(map[string]Level, len(group.Queries)),
	}
	for _, query := range group.Queries {
		mergedGroup.origins[query.Name] = level
	}
	return mergedGroup
}

func (mergedGroup *MergedGroup) apply(incoming platform.QueryGroup, level Level) {
	for _, incomingQuery := range incoming.Queries {
		mergedGroup.origins[incomingQuery.Name] = level

		replaced := false
		for index, accumulatedQuery := range mergedGroup.Group.Queries {
			if accumulatedQuery.Name == incomingQuery.Name {
				mergedGroup.Group.Queries[index] = incomingQuery
				replaced = true
				break
			}
		}
		if !replaced {
			mergedGroup.Group.Queries = append(mergedGroup.Group.Queries, incomingQuery)
		}
	}
}

// IsEmpty reports whether no level contributed any override.
func (result Result) IsEmpty() bool {
	return len(result.groupsByKey) == 0
}

// Groups returns the merged groups ordered by group key, with queries
// ordered by name.
func (result Result) Groups() []MergedGroup {
	mergedGroups := make([]MergedGroup, 0, len(result.groupsByKey))
	for _, mergedGroup := range result.groupsByKey {
		ordered := *mergedGroup
		ordered.Group = platform.CloneGroup(mergedGroup.Group)
		sortQueries(ordered.Group.Queries)
		mergedGroups = append(mergedGroups, ordered)
	}
	sort.Slice(mergedGroups, func(first, second int) bool {
		return lessGroupKey(mergedGroups[first].Key, mergedGroups[second].Key)
	})
	return mergedGroups
}

// ProjectGroups re-targets the merged state to the project level: every
// group is stamped with project scope and the given project identifier,
// and queries whose most specific customization came from a team level get
// a zeroed identifier and New status so the platform creates fresh
// project-level records instead of touching team ones.
func (result Result) ProjectGroups(projectIdentifier int64) []platform.QueryGroup {
	mergedGroups := result.Groups()

	projectGroups := make([]platform.QueryGroup, 0, len(mergedGroups))
	for _, mergedGroup := range mergedGroups {
		group := mergedGroup.Group
		group.Scope = platform.PackageScopeProject
		group.ProjectIdentifier = projectIdentifier
		group.OwningTeamIdentifier = 0

		for index, query := range group.Queries {
			origin, originKnown := mergedGroup.Origin(query.Name)
			if originKnown && origin.Kind == LevelKindTeam {
				query.Identifier = 0
				query.VersionCode = 0
				query.Status = platform.QueryStatusNew
				group.Queries[index] = query
			}
		}

		projectGroups = append(projectGroups, group)
	}
	return projectGroups
}

// EquivalentGroups reports whether two override sets describe the same
// effective customization. Identifiers and version codes are excluded
// because the platform assigns them per level; comparison covers group
// keys and each query's name, enabled state, severity, and body.
func EquivalentGroups(firstGroups []platform.QueryGroup, secondGroups []platform.QueryGroup) bool {
	firstCanonical := canonicalize(firstGroups)
	secondCanonical := canonicalize(secondGroups)

	if len(firstCanonical) != len(secondCanonical) {
		return false
	}
	for index := range firstCanonical {
		if !equivalentGroup(firstCanonical[index], secondCanonical[index]) {
			return false
		}
	}
	return true
}

func equivalentGroup(first platform.QueryGroup, second platform.QueryGroup) bool {
	if first.Name != second.Name || first.LanguageName != second.LanguageName {
		return false
	}
	if len(first.Queries) != len(second.Queries) {
		return false
	}
	for index := range first.Queries {
		firstQuery := first.Queries[index]
		secondQuery := second.Queries[index]
		if firstQuery.Name != secondQuery.Name ||
			firstQuery.Enabled != secondQuery.Enabled ||
			firstQuery.Severity != secondQuery.Severity ||
			firstQuery.Source != secondQuery.Source {
			return false
		}
	}
	return true
}

func canonicalize(queryGroups []platform.QueryGroup) []platform.QueryGroup {
	canonical := make([]platform.QueryGroup, 0, len(queryGroups))
	for _, group := range queryGroups {
		duplicated := platform.CloneGroup(group)
		sortQueries(duplicated.Queries)
		canonical = append(canonical, duplicated)
	}
	sort.Slice(canonical, func(first, second int) bool {
		firstKey := GroupKey{Name: canonical[first].Name, LanguageName: canonical[first].LanguageName}
		secondKey := GroupKey{Name: canonical[second].Name, LanguageName: canonical[second].LanguageName}
		return lessGroupKey(firstKey, secondKey)
	})
	return canonical
}

func sortQueries(queries []platform.Query) {
	sort.Slice(queries, func(first, second int) bool {
		return queries[first].Name < queries[second].Name
	})
}

func lessGroupKey(first GroupKey, second GroupKey) bool {
	if first.LanguageName != second.LanguageName {
		return first.LanguageName < second.LanguageName
	}
	return first.Name < second.Name
}
