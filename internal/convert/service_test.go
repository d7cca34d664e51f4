package convert_test

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/queryconv/internal/convert"
	"github.com/temirov/queryconv/internal/platform"
)

type platformAPIStub struct {
	teams                  []platform.Team
	teamsError             error
	projects               []platform.Project
	projectsError          error
	collections            [][]platform.QueryGroup
	collectionCallCount    int
	collectionError        error
	scanLanguagesByProject map[int64][]string
	scanLanguagesError     error
	uploadedBatches        [][]platform.QueryGroup
	uploadError            error
}

func (stub *platformAPIStub) ListTeams(executionContext context.Context) ([]platform.Team, error) {
	return stub.teams, stub.teamsError
}

func (stub *platformAPIStub) ListProjects(executionContext context.Context) ([]platform.Project, error) {
	return stub.projects, stub.projectsError
}

func (stub *platformAPIStub) QueryCollection(executionContext context.Context) ([]platform.QueryGroup, error) {
	if stub.collectionError != nil {
		return nil, stub.collectionError
	}
	collectionIndex := stub.collectionCallCount
	stub.collectionCallCount++
	if collectionIndex >= len(stub.collections) {
		collectionIndex = len(stub.collections) - 1
	}
	if collectionIndex < 0 {
		return nil, nil
	}
	return stub.collections[collectionIndex], nil
}

func (stub *platformAPIStub) UploadQueryGroups(executionContext context.Context, queryGroups []platform.QueryGroup) error {
	if stub.uploadError != nil {
		return stub.uploadError
	}
	stub.uploadedBatches = append(stub.uploadedBatches, queryGroups)
	return nil
}

func (stub *platformAPIStub) ProjectScanLanguages(executionContext context.Context, projectIdentifier int64) ([]string, error) {
	if stub.scanLanguagesError != nil {
		return nil, stub.scanLanguagesError
	}
	return stub.scanLanguagesByProject[projectIdentifier], nil
}

type memoryFileSystem struct {
	createdDirectories []string
	writtenFiles       map[string][]byte
	writeError         error
}

func (fileSystem *memoryFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	fileSystem.createdDirectories = append(fileSystem.createdDirectories, path)
	return nil
}

func (fileSystem *memoryFileSystem) WriteFile(path string, data []byte, permissions fs.FileMode) error {
	if fileSystem.writeError != nil {
		return fileSystem.writeError
	}
	if fileSystem.writtenFiles == nil {
		fileSystem.writtenFiles = map[string][]byte{}
	}
	fileSystem.writtenFiles[path] = data
	return nil
}

func singleTeamHierarchy() []platform.Team {
	return []platform.Team{
		{Identifier: 1, Name: "Root", FullName: "/Root"},
	}
}

func storefrontProject() platform.Project {
	return platform.Project{Identifier: 7, Name: "Storefront", TeamIdentifier: 1}
}

func teamGroup(queries ...platform.Query) platform.QueryGroup {
	return platform.QueryGroup{
		Name:                 "General",
		LanguageName:         "Java",
		Scope:                platform.PackageScopeTeam,
		OwningTeamIdentifier: 1,
		Queries:              queries,
	}
}

func projectGroup(projectIdentifier int64, queries ...platform.Query) platform.QueryGroup {
	return platform.QueryGroup{
		Name:              "General",
		LanguageName:      "Java",
		Scope:             platform.PackageScopeProject,
		ProjectIdentifier: projectIdentifier,
		Queries:           queries,
	}
}

func newTestService(api convert.PlatformAPI, fileSystem convert.FileSystem) (*convert.Service, *bytes.Buffer, *bytes.Buffer) {
	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	service := convert.NewService(api, fileSystem, zap.NewNop(), outputBuffer, errorBuffer)
	return service, outputBuffer, errorBuffer
}

func TestRunReportsNoChangeWhenProjectAlreadyMatches(testInstance *testing.T) {
	existingQuery := platform.Query{Identifier: 50, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "existing body"}
	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{projectGroup(7, existingQuery)},
		},
	}

	service, outputBuffer, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, outputBuffer.String(), "no change for project 7 (Storefront)")
	require.Empty(testInstance, apiStub.uploadedBatches)
}

func TestRunDryRunComputesWithoutWriting(testInstance *testing.T) {
	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{teamGroup(platform.Query{Identifier: 10, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "team body"})},
		},
	}

	service, outputBuffer, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{DryRun: true})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, outputBuffer.String(), "DRY-RUN: project 7 (Storefront) would update 1 query group(s)")
	require.Empty(testInstance, apiStub.uploadedBatches)
}

func TestRunWritesRetargetedGroupsAndValidates(testInstance *testing.T) {
	teamQuery := platform.Query{Identifier: 10, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "team body", VersionCode: 3, Status: "Edited"}
	writtenProjectGroup := projectGroup(7, platform.Query{Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "team body", Status: platform.QueryStatusNew})

	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{teamGroup(teamQuery)},
			{teamGroup(teamQuery), writtenProjectGroup},
		},
	}

	service, outputBuffer, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, outputBuffer.String(), "updated 1 query group(s) for project 7 (Storefront)")

	require.Len(testInstance, apiStub.uploadedBatches, 1)
	uploadedGroups := apiStub.uploadedBatches[0]
	require.Len(testInstance, uploadedGroups, 1)
	require.Equal(testInstance, platform.PackageScopeProject, uploadedGroups[0].Scope)
	require.Equal(testInstance, int64(7), uploadedGroups[0].ProjectIdentifier)
	require.Equal(testInstance, int64(0), uploadedGroups[0].OwningTeamIdentifier)

	require.Len(testInstance, uploadedGroups[0].Queries, 1)
	uploadedQuery := uploadedGroups[0].Queries[0]
	require.Equal(testInstance, int64(0), uploadedQuery.Identifier)
	require.Equal(testInstance, int64(0), uploadedQuery.VersionCode)
	require.Equal(testInstance, platform.QueryStatusNew, uploadedQuery.Status)
}

func TestRunFailsWhenUploadValidationFindsMissingGroups(testInstance *testing.T) {
	teamQuery := platform.Query{Identifier: 10, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "team body"}
	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{teamGroup(teamQuery)},
			{teamGroup(teamQuery)},
		},
	}

	service, _, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "upload validation failed: 1 group(s) and 0 query(ies) missing after write")

	var projectError *convert.ProjectError
	require.ErrorAs(testInstance, runError, &projectError)
	require.Equal(testInstance, int64(7), projectError.ProjectIdentifier)
}

func TestRunIsolatesPerProjectFailures(testInstance *testing.T) {
	brokenProject := platform.Project{Identifier: 8, Name: "Orphaned", TeamIdentifier: 99}
	healthyQuery := platform.Query{Identifier: 50, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "existing body"}

	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{brokenProject, storefrontProject()},
		collections: [][]platform.QueryGroup{
			{projectGroup(7, healthyQuery)},
		},
	}

	service, outputBuffer, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{})
	require.Error(testInstance, runError)

	var projectError *convert.ProjectError
	require.ErrorAs(testInstance, runError, &projectError)
	require.Equal(testInstance, int64(8), projectError.ProjectIdentifier)
	require.Equal(testInstance, "Orphaned", projectError.ProjectName)

	require.Contains(testInstance, outputBuffer.String(), "no change for project 7 (Storefront)")
}

func TestRunFailsFastOnUnknownProjectSelector(testInstance *testing.T) {
	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
	}

	service, _, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{ProjectSelectors: []string{"missing-project"}})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), `unknown project selector "missing-project"`)
	require.Zero(testInstance, apiStub.collectionCallCount)
}

func TestRunSelectsProjectsByIdentifierAndName(testInstance *testing.T) {
	otherProject := platform.Project{Identifier: 8, Name: "Billing", TeamIdentifier: 1}
	storefrontQuery := platform.Query{Identifier: 50, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "existing body"}
	billingQuery := platform.Query{Identifier: 60, Name: "Q2", Enabled: true, Severity: platform.SeverityLow, Source: "billing body"}

	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject(), otherProject},
		collections: [][]platform.QueryGroup{
			{projectGroup(7, storefrontQuery), projectGroup(8, billingQuery)},
		},
	}

	service, outputBuffer, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{ProjectSelectors: []string{"7", "Billing", "7"}})
	require.NoError(testInstance, runError)

	renderedOutput := outputBuffer.String()
	require.Contains(testInstance, renderedOutput, "no change for project 7 (Storefront)")
	require.Contains(testInstance, renderedOutput, "no change for project 8 (Billing)")
}

func TestRunFiltersTeamOverridesByScannedLanguages(testInstance *testing.T) {
	javaQuery := platform.Query{Identifier: 10, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "java body"}
	csharpGroup := platform.QueryGroup{
		Name:                 "General",
		LanguageName:         "CSharp",
		Scope:                platform.PackageScopeTeam,
		OwningTeamIdentifier: 1,
		Queries:              []platform.Query{{Identifier: 11, Name: "Q9", Enabled: true, Severity: platform.SeverityLow, Source: "csharp body"}},
	}

	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{teamGroup(javaQuery), csharpGroup},
		},
		scanLanguagesByProject: map[int64][]string{7: {"Java"}},
	}

	service, outputBuffer, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{DryRun: true})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, outputBuffer.String(), "would update 1 query group(s)")
}

func TestRunReportsNoChangeWhenOnlyOverrideIsInUnscannedLanguage(testInstance *testing.T) {
	csharpOverride := platform.QueryGroup{
		Name:              "General",
		LanguageName:      "CSharp",
		Scope:             platform.PackageScopeProject,
		ProjectIdentifier: 7,
		Queries:           []platform.Query{{Identifier: 70, Name: "Q9", Enabled: true, Severity: platform.SeverityLow, Source: "csharp body"}},
	}

	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{csharpOverride},
		},
		scanLanguagesByProject: map[int64][]string{7: {"Java"}},
	}

	service, outputBuffer, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, outputBuffer.String(), "no change for project 7 (Storefront)")
	require.Empty(testInstance, apiStub.uploadedBatches)
}

func TestRunMergesEveryOverrideWhenProjectWasNeverScanned(testInstance *testing.T) {
	javaQuery := platform.Query{Identifier: 10, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "java body"}
	csharpGroup := platform.QueryGroup{
		Name:                 "General",
		LanguageName:         "CSharp",
		Scope:                platform.PackageScopeTeam,
		OwningTeamIdentifier: 1,
		Queries:              []platform.Query{{Identifier: 11, Name: "Q9", Enabled: true, Severity: platform.SeverityLow, Source: "csharp body"}},
	}

	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{teamGroup(javaQuery), csharpGroup},
		},
	}

	service, outputBuffer, _ := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{DryRun: true})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, outputBuffer.String(), "would update 2 query group(s)")
}

func TestRunSavesMergedQuerySources(testInstance *testing.T) {
	teamQuery := platform.Query{Identifier: 10, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "team body"}
	sourcelessQuery := platform.Query{Identifier: 11, Name: "Q2", Enabled: false, Severity: platform.SeverityLow}

	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{teamGroup(teamQuery, sourcelessQuery)},
		},
	}
	fileSystem := &memoryFileSystem{}

	service, _, _ := newTestService(apiStub, fileSystem)

	runError := service.Run(context.Background(), convert.CommandOptions{
		DryRun:               true,
		SaveQueries:          true,
		SaveQueriesDirectory: "saved",
	})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, []string{"saved"}, fileSystem.createdDirectories)
	require.Len(testInstance, fileSystem.writtenFiles, 1)
	require.Equal(testInstance, []byte("team body"), fileSystem.writtenFiles["saved/Java_General__Q1"])
}

func TestRunEmitsDebugDumps(testInstance *testing.T) {
	teamQuery := platform.Query{Identifier: 10, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "team body"}
	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{teamGroup(teamQuery)},
		},
	}

	service, _, errorBuffer := newTestService(apiStub, nil)

	runError := service.Run(context.Background(), convert.CommandOptions{DryRun: true, DebugOutput: true})
	require.NoError(testInstance, runError)

	renderedDebug := errorBuffer.String()
	require.Contains(testInstance, renderedDebug, "DEBUG: ---- current override collection ----")
	require.Contains(testInstance, renderedDebug, "DEBUG: processing project 7 (Storefront)")
	require.Contains(testInstance, renderedDebug, "DEBUG: ---- merged overrides for project 7 ----")
	require.Contains(testInstance, renderedDebug, "DEBUG:   query Q1")
}

func TestRunAbortsWhenSetupCallsFail(testInstance *testing.T) {
	setupFailure := errors.New("platform unavailable")

	testCases := []struct {
		name string
		stub *platformAPIStub
	}{
		{name: "teams_listing", stub: &platformAPIStub{teamsError: setupFailure}},
		{name: "projects_listing", stub: &platformAPIStub{projectsError: setupFailure}},
		{name: "query_collection", stub: &platformAPIStub{collectionError: setupFailure}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			service, _, _ := newTestService(testCase.stub, nil)

			runError := service.Run(context.Background(), convert.CommandOptions{})
			require.ErrorIs(testInstance, runError, setupFailure)
			require.Empty(testInstance, testCase.stub.uploadedBatches)
		})
	}
}
