package convert

import (
	"context"
	"fmt"

	"github.com/temirov/queryconv/internal/merge"
	"github.com/temirov/queryconv/internal/overrides"
	"github.com/temirov/queryconv/internal/platform"
)

const (
	noChangeTemplateConstant             = "no change for project %d (%s)\n"
	dryRunPlanTemplateConstant           = "DRY-RUN: project %d (%s) would update %d query group(s)\n"
	writeSuccessTemplateConstant         = "updated %d query group(s) for project %d (%s)\n"
	uploadErrorTemplateConstant          = "unable to upload query groups: %w"
	validationFetchErrorTemplateConstant = "unable to re-fetch query collection for validation: %w"
	validationFailedTemplateConstant     = "upload validation failed: %d group(s) and %d query(ies) missing after write"
)

// applyMerge implements the writer step: compare the merged result with the
// project's current override set, report "no change" when identical, and
// otherwise write it back unless dry-run mode is enabled. Pretty-print
// renders the old/new difference without affecting control flow.
func (service *Service) applyMerge(executionContext context.Context, project platform.Project, currentGroups []platform.QueryGroup, mergedGroups []platform.QueryGroup, options CommandOptions) error {
	if merge.EquivalentGroups(currentGroups, mergedGroups) {
		fmt.Fprintf(service.outputWriter, noChangeTemplateConstant, project.Identifier, project.Name)
		return nil
	}

	if options.PrettyPrint {
		renderedDiff, renderError := renderOverrideDiff(currentGroups, mergedGroups)
		if renderError != nil {
			return renderError
		}
		fmt.Fprint(service.outputWriter, renderedDiff)
	}

	if options.DryRun {
		fmt.Fprintf(service.outputWriter, dryRunPlanTemplateConstant, project.Identifier, project.Name, len(mergedGroups))
		return nil
	}

	if uploadError := service.api.UploadQueryGroups(executionContext, mergedGroups); uploadError != nil {
		return fmt.Errorf(uploadErrorTemplateConstant, uploadError)
	}

	fmt.Fprintf(service.outputWriter, writeSuccessTemplateConstant, len(mergedGroups), project.Identifier, project.Name)

	return service.validateUpload(executionContext, project, mergedGroups)
}

// validateUpload re-fetches the override collection and verifies that every
// written group and query is now present at the project level.
func (service *Service) validateUpload(executionContext context.Context, project platform.Project, writtenGroups []platform.QueryGroup) error {
	refetchedCollection, fetchError := service.api.QueryCollection(executionContext)
	if fetchError != nil {
		return fmt.Errorf(validationFetchErrorTemplateConstant, fetchError)
	}

	refetchedGroups := overrides.NewCollector(refetchedCollection).ProjectOverrides(project.Identifier)

	refetchedByKey := make(map[merge.GroupKey]platform.QueryGroup, len(refetchedGroups))
	for _, group := range refetchedGroups {
		refetchedByKey[merge.GroupKey{Name: group.Name, LanguageName: group.LanguageName}] = group
	}

	missingGroups := 0
	missingQueries := 0
	for _, writtenGroup := range writtenGroups {
		refetchedGroup, groupFound := refetchedByKey[merge.GroupKey{Name: writtenGroup.Name, LanguageName: writtenGroup.LanguageName}]
		if !groupFound {
			missingGroups++
			continue
		}
		for _, writtenQuery := range writtenGroup.Queries {
			if !containsQuery(refetchedGroup.Queries, writtenQuery) {
				missingQueries++
			}
		}
	}

	if missingGroups > 0 || missingQueries > 0 {
		return fmt.Errorf(validationFailedTemplateConstant, missingGroups, missingQueries)
	}
	return nil
}

func containsQuery(queries []platform.Query, candidate platform.Query) bool {
	for _, query := range queries {
		if query.Name == candidate.Name && query.Source == candidate.Source {
			return true
		}
	}
	return false
}
