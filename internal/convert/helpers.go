package convert

import (
	"crypto/md5"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/temirov/queryconv/internal/platform"
)

const (
	unknownSelectorTemplateConstant    = "unknown project selector %q"
	debugDumpHeaderTemplateConstant    = "DEBUG: ---- %s ----\n"
	debugGroupLineTemplateConstant     = "DEBUG: group %s (%s) scope=%s team=%d project=%d\n"
	debugQueryLineTemplateConstant     = "DEBUG:   query %s id=%d md5=%s status=%s\n"
	debugProcessingTemplateConstant    = "DEBUG: processing project %d (%s)\n"
	noSourceDigestPlaceholderConstant  = "no source"
	savedQueryFileNameTemplateConstant = "%s_%s__%s"
)

// selectProjects restricts the project snapshot to the requested selectors.
// A selector matches a numeric project identifier or an exact project name.
// No selectors means every visible project. An unmatched selector is a
// configuration error reported before any project is processed.
func selectProjects(projects []platform.Project, selectors []string) ([]platform.Project, error) {
	if len(selectors) == 0 {
		return projects, nil
	}

	projectsByIdentifier := make(map[int64]platform.Project, len(projects))
	projectsByName := make(map[string]platform.Project, len(projects))
	for _, project := range projects {
		projectsByIdentifier[project.Identifier] = project
		projectsByName[project.Name] = project
	}

	var selected []platform.Project
	seen := map[int64]struct{}{}
	for _, selector := range selectors {
		trimmedSelector := strings.TrimSpace(selector)

		var project platform.Project
		var found bool
		if identifier, parseError := strconv.ParseInt(trimmedSelector, 10, 64); parseError == nil {
			project, found = projectsByIdentifier[identifier]
		}
		if !found {
			project, found = projectsByName[trimmedSelector]
		}
		if !found {
			return nil, fmt.Errorf(unknownSelectorTemplateConstant, selector)
		}

		if _, alreadySelected := seen[project.Identifier]; alreadySelected {
			continue
		}
		seen[project.Identifier] = struct{}{}
		selected = append(selected, project)
	}
	return selected, nil
}

func dumpQueryGroups(destination io.Writer, queryGroups []platform.QueryGroup, header string) {
	fmt.Fprintf(destination, debugDumpHeaderTemplateConstant, header)
	for _, group := range queryGroups {
		fmt.Fprintf(destination, debugGroupLineTemplateConstant, group.Name, group.LanguageName, group.Scope, group.OwningTeamIdentifier, group.ProjectIdentifier)
		for _, query := range group.Queries {
			fmt.Fprintf(destination, debugQueryLineTemplateConstant, query.Name, query.Identifier, sourceDigest(query.Source), query.Status)
		}
	}
}

func sourceDigest(source string) string {
	if len(source) == 0 {
		return noSourceDigestPlaceholderConstant
	}
	return fmt.Sprintf("%x", md5.Sum([]byte(source)))
}

func savedQueryFileName(group platform.QueryGroup, query platform.Query) string {
	return fmt.Sprintf(savedQueryFileNameTemplateConstant, group.LanguageName, group.Name, query.Name)
}
