package convert_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/queryconv/internal/convert"
	"github.com/temirov/queryconv/internal/platform"
)

func TestCommandBuilderRegistersFlags(testInstance *testing.T) {
	builder := convert.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, "convert", command.Use)

	for _, flagName := range []string{"debug", "dry-run", "pretty-print", "project", "save-queries", "save-queries-directory"} {
		require.NotNil(testInstance, command.Flags().Lookup(flagName), flagName)
	}
	require.Equal(testInstance, "project", command.Flags().ShorthandLookup("p").Name)
	require.Equal(testInstance, "save-queries", command.Flags().ShorthandLookup("s").Name)
}

func TestCommandUsesConfigurationDefaults(testInstance *testing.T) {
	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject()},
		collections: [][]platform.QueryGroup{
			{teamGroup(platform.Query{Identifier: 10, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "team body"})},
		},
	}

	builder := convert.CommandBuilder{
		ConfigurationProvider: func() convert.CommandConfiguration {
			configuration := convert.DefaultCommandConfiguration()
			configuration.DryRun = true
			configuration.Projects = []any{7}
			return configuration
		},
		PlatformAPIResolver: func(executionContext context.Context) (convert.PlatformAPI, error) {
			return apiStub, nil
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetContext(context.Background())
	command.SetArgs([]string{})

	require.NoError(testInstance, command.Execute())
	require.Contains(testInstance, outputBuffer.String(), "DRY-RUN: project 7 (Storefront)")
	require.Empty(testInstance, apiStub.uploadedBatches)
}

func TestCommandFlagsOverrideConfiguration(testInstance *testing.T) {
	billingProject := platform.Project{Identifier: 8, Name: "Billing", TeamIdentifier: 1}
	apiStub := &platformAPIStub{
		teams:    singleTeamHierarchy(),
		projects: []platform.Project{storefrontProject(), billingProject},
		collections: [][]platform.QueryGroup{
			{teamGroup(platform.Query{Identifier: 10, Name: "Q1", Enabled: true, Severity: platform.SeverityHigh, Source: "team body"})},
		},
	}

	builder := convert.CommandBuilder{
		ConfigurationProvider: func() convert.CommandConfiguration {
			configuration := convert.DefaultCommandConfiguration()
			configuration.Projects = []any{"Storefront"}
			return configuration
		},
		PlatformAPIResolver: func(executionContext context.Context) (convert.PlatformAPI, error) {
			return apiStub, nil
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetContext(context.Background())
	command.SetArgs([]string{"--dry-run", "--project", "Billing"})

	require.NoError(testInstance, command.Execute())

	renderedOutput := outputBuffer.String()
	require.Contains(testInstance, renderedOutput, "project 8 (Billing)")
	require.NotContains(testInstance, renderedOutput, "Storefront")
	require.Empty(testInstance, apiStub.uploadedBatches)
}

func TestCommandSurfacesResolverFailure(testInstance *testing.T) {
	builder := convert.CommandBuilder{
		PlatformAPIResolver: func(executionContext context.Context) (convert.PlatformAPI, error) {
			return nil, platform.ErrMissingCredentials
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetContext(context.Background())
	command.SetArgs([]string{})

	require.ErrorIs(testInstance, command.Execute(), platform.ErrMissingCredentials)
}
