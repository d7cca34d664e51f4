package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/queryconv/internal/hierarchy"
	"github.com/temirov/queryconv/internal/merge"
	"github.com/temirov/queryconv/internal/overrides"
	"github.com/temirov/queryconv/internal/platform"
)

const (
	listTeamsErrorTemplateConstant         = "unable to list teams: %w"
	listProjectsErrorTemplateConstant      = "unable to list projects: %w"
	queryCollectionErrorTemplateConstant   = "unable to retrieve query collection: %w"
	scanLanguagesErrorTemplateConstant     = "unable to determine scanned languages: %w"
	saveDirectoryErrorTemplateConstant     = "unable to create query directory %s: %w"
	saveFileErrorTemplateConstant          = "unable to write query file %s: %w"
	oldGroupsDumpHeaderConstant            = "current override collection"
	mergedGroupsDumpHeaderTemplateConstant = "merged overrides for project %d"
	projectFailedMessageConstant           = "project processing failed"
	noScansMessageConstant                 = "no finished scans for project, language filter skipped"
	chainResolvedMessageConstant           = "team chain resolved"
	logFieldProjectIdentifierConstant      = "project_id"
	logFieldProjectNameConstant            = "project_name"
	logFieldChainLengthConstant            = "chain_length"
	savedQueryFilePermissionsConstant      = 0o644
	savedQueryDirectoryPermissionsConstant = 0o755
)

// Service coordinates hierarchy resolution, override collection, merging,
// and writing for every selected project. Processing is strictly
// sequential; projects share no mutable state and a failure in one never
// aborts the rest of the run.
type Service struct {
	api          PlatformAPI
	fileSystem   FileSystem
	logger       *zap.Logger
	outputWriter io.Writer
	errorWriter  io.Writer
}

// NewService constructs a Service using the provided dependencies.
func NewService(api PlatformAPI, fileSystem FileSystem, logger *zap.Logger, outputWriter io.Writer, errorWriter io.Writer) *Service {
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:          api,
		fileSystem:   fileSystem,
		logger:       logger,
		outputWriter: outputWriter,
		errorWriter:  errorWriter,
	}
}

// Run executes the conversion according to the provided options. Failures
// during global setup (team listing, project listing, query collection
// retrieval, project selection) abort immediately; failures local to one
// project are recorded and the run continues. The returned error joins all
// per-project failures, so a nil result means every selected project was
// processed.
func (service *Service) Run(executionContext context.Context, options CommandOptions) error {
	teams, teamsError := service.api.ListTeams(executionContext)
	if teamsError != nil {
		return fmt.Errorf(listTeamsErrorTemplateConstant, teamsError)
	}

	projects, projectsError := service.api.ListProjects(executionContext)
	if projectsError != nil {
		return fmt.Errorf(listProjectsErrorTemplateConstant, projectsError)
	}

	selectedProjects, selectionError := selectProjects(projects, options.ProjectSelectors)
	if selectionError != nil {
		return selectionError
	}

	queryCollection, collectionError := service.api.QueryCollection(executionContext)
	if collectionError != nil {
		return fmt.Errorf(queryCollectionErrorTemplateConstant, collectionError)
	}

	if options.DebugOutput {
		dumpQueryGroups(service.errorWriter, queryCollection, oldGroupsDumpHeaderConstant)
	}

	resolver := hierarchy.NewResolver(teams)
	collector := overrides.NewCollector(queryCollection)

	var projectFailures []error
	for _, project := range selectedProjects {
		if options.DebugOutput {
			fmt.Fprintf(service.errorWriter, debugProcessingTemplateConstant, project.Identifier, project.Name)
		}

		if processError := service.processProject(executionContext, resolver, collector, project, options); processError != nil {
			service.logger.Error(
				projectFailedMessageConstant,
				zap.Int64(logFieldProjectIdentifierConstant, project.Identifier),
				zap.String(logFieldProjectNameConstant, project.Name),
				zap.Error(processError),
			)
			projectFailures = append(projectFailures, &ProjectError{
				ProjectIdentifier: project.Identifier,
				ProjectName:       project.Name,
				Cause:             processError,
			})
		}
	}

	if len(projectFailures) > 0 {
		return errors.Join(projectFailures...)
	}
	return nil
}

func (service *Service) processProject(executionContext context.Context, resolver *hierarchy.Resolver, collector *overrides.Collector, project platform.Project, options CommandOptions) error {
	teamChain, chainError := resolver.Chain(project.TeamIdentifier)
	if chainError != nil {
		return chainError
	}

	service.logger.Debug(
		chainResolvedMessageConstant,
		zap.Int64(logFieldProjectIdentifierConstant, project.Identifier),
		zap.Int(logFieldChainLengthConstant, len(teamChain)),
	)

	scannedLanguages, languagesError := service.api.ProjectScanLanguages(executionContext, project.Identifier)
	if languagesError != nil {
		return fmt.Errorf(scanLanguagesErrorTemplateConstant, languagesError)
	}
	if len(scannedLanguages) == 0 {
		service.logger.Warn(
			noScansMessageConstant,
			zap.Int64(logFieldProjectIdentifierConstant, project.Identifier),
		)
	}

	mergeChain := make([]merge.LevelOverrides, 0, len(teamChain)+1)
	for _, team := range teamChain {
		mergeChain = append(mergeChain, merge.LevelOverrides{
			Level: merge.Level{
				Kind:        merge.LevelKindTeam,
				Identifier:  team.Identifier,
				DisplayName: team.FullName,
			},
			Groups: overrides.FilterByLanguages(collector.TeamOverrides(team.Identifier), scannedLanguages),
		})
	}

	// applyMerge must compare against the same language-filtered set the
	// merge consumed.
	currentGroups := overrides.FilterByLanguages(collector.ProjectOverrides(project.Identifier), scannedLanguages)
	mergeChain = append(mergeChain, merge.LevelOverrides{
		Level: merge.Level{
			Kind:        merge.LevelKindProject,
			Identifier:  project.Identifier,
			DisplayName: project.Name,
		},
		Groups: currentGroups,
	})

	mergedResult := merge.Merge(mergeChain)
	mergedGroups := mergedResult.ProjectGroups(project.Identifier)

	if options.DebugOutput {
		dumpQueryGroups(service.errorWriter, mergedGroups, fmt.Sprintf(mergedGroupsDumpHeaderTemplateConstant, project.Identifier))
	}

	if options.SaveQueries {
		if saveError := service.saveQuerySources(mergedGroups, options.SaveQueriesDirectory); saveError != nil {
			return saveError
		}
	}

	return service.applyMerge(executionContext, project, currentGroups, mergedGroups, options)
}

func (service *Service) saveQuerySources(queryGroups []platform.QueryGroup, directory string) error {
	if len(directory) == 0 {
		directory = defaultSaveQueriesDirectoryConstant
	}
	if mkdirError := service.fileSystem.MkdirAll(directory, savedQueryDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(saveDirectoryErrorTemplateConstant, directory, mkdirError)
	}

	for _, group := range queryGroups {
		for _, query := range group.Queries {
			if len(query.Source) == 0 {
				continue
			}
			filePath := filepath.Join(directory, savedQueryFileName(group, query))
			if writeError := service.fileSystem.WriteFile(filePath, []byte(query.Source), savedQueryFilePermissionsConstant); writeError != nil {
				return fmt.Errorf(saveFileErrorTemplateConstant, filePath, writeError)
			}
		}
	}
	return nil
}
