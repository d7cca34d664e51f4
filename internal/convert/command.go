package convert

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/queryconv/internal/platform"
)

const (
	commandNameConstant              = "convert"
	commandShortDescriptionConstant  = "Merge team-level query overrides into project-level overrides"
	commandLongDescriptionConstant   = "convert resolves each project's team chain, folds every level's query-group overrides into one effective project-level set, and writes the result back unless dry-run mode is enabled."
	flagDebugNameConstant            = "debug"
	flagDebugDescriptionConstant     = "Enable debug output"
	flagDryRunNameConstant           = "dry-run"
	flagDryRunDescriptionConstant    = "Compute and report changes without writing anything back"
	flagPrettyPrintNameConstant      = "pretty-print"
	flagPrettyPrintDescription       = "Render a diff of the old and new query group overrides"
	flagProjectNameConstant          = "project"
	flagProjectShorthandConstant     = "p"
	flagProjectDescriptionConstant   = "Only process the specified project, by identifier or exact name (repeatable)"
	flagSaveQueriesNameConstant      = "save-queries"
	flagSaveQueriesShorthandConstant = "s"
	flagSaveQueriesDescription       = "Write the source of each merged query to disk"
	flagSaveDirectoryNameConstant    = "save-queries-directory"
	flagSaveDirectoryDescription     = "Directory receiving saved query sources"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the convert cobra command with configurable
// dependencies. PlatformAPIResolver overrides the default client
// construction, which resolves credentials from the environment and
// authenticates against the configured platform.
type CommandBuilder struct {
	LoggerProvider                LoggerProvider
	ConfigurationProvider         func() CommandConfiguration
	PlatformConfigurationProvider func() platform.Configuration
	PlatformAPIResolver           func(executionContext context.Context) (PlatformAPI, error)
	FileSystem                    FileSystem
}

// Build constructs the cobra command for the conversion workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagDebugNameConstant, false, flagDebugDescriptionConstant)
	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)
	command.Flags().Bool(flagPrettyPrintNameConstant, false, flagPrettyPrintDescription)
	command.Flags().StringArrayP(flagProjectNameConstant, flagProjectShorthandConstant, nil, flagProjectDescriptionConstant)
	command.Flags().BoolP(flagSaveQueriesNameConstant, flagSaveQueriesShorthandConstant, false, flagSaveQueriesDescription)
	command.Flags().String(flagSaveDirectoryNameConstant, "", flagSaveDirectoryDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	api, apiError := builder.resolvePlatformAPI(command.Context())
	if apiError != nil {
		return apiError
	}

	service := NewService(api, builder.FileSystem, builder.resolveLogger(), command.OutOrStdout(), command.ErrOrStderr())
	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (CommandOptions, error) {
	configuration := builder.resolveConfiguration()
	flagSet := command.Flags()

	selectors, selectorsError := configuration.ProjectSelectors()
	if selectorsError != nil {
		return CommandOptions{}, selectorsError
	}
	if flagSet.Changed(flagProjectNameConstant) {
		selectors, _ = flagSet.GetStringArray(flagProjectNameConstant)
	}

	options := CommandOptions{
		ProjectSelectors:     selectors,
		DryRun:               boolFlagOrFallback(flagSet, flagDryRunNameConstant, configuration.DryRun),
		PrettyPrint:          boolFlagOrFallback(flagSet, flagPrettyPrintNameConstant, configuration.PrettyPrint),
		SaveQueries:          boolFlagOrFallback(flagSet, flagSaveQueriesNameConstant, configuration.SaveQueries),
		SaveQueriesDirectory: configuration.SaveQueriesDirectory,
	}

	options.DebugOutput, _ = flagSet.GetBool(flagDebugNameConstant)
	if flagSet.Changed(flagSaveDirectoryNameConstant) {
		options.SaveQueriesDirectory, _ = flagSet.GetString(flagSaveDirectoryNameConstant)
	}

	return options, nil
}

// boolFlagOrFallback prefers an explicitly set flag over the configured
// value.
func boolFlagOrFallback(flagSet *pflag.FlagSet, flagName string, configuredValue bool) bool {
	if !flagSet.Changed(flagName) {
		return configuredValue
	}
	flagValue, _ := flagSet.GetBool(flagName)
	return flagValue
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolvePlatformAPI(executionContext context.Context) (PlatformAPI, error) {
	if builder.PlatformAPIResolver != nil {
		return builder.PlatformAPIResolver(executionContext)
	}

	platformConfiguration := platform.DefaultConfiguration()
	if builder.PlatformConfigurationProvider != nil {
		platformConfiguration = builder.PlatformConfigurationProvider()
	}

	credentials, credentialsError := platform.ResolveCredentials(nil)
	if credentialsError != nil {
		return nil, credentialsError
	}

	return platform.NewClient(executionContext, platform.ClientConfiguration{
		BaseURL:        platformConfiguration.BaseURL,
		Credentials:    credentials,
		RequestTimeout: platformConfiguration.RequestTimeout(),
		MaxRetries:     platformConfiguration.MaxRetries,
	})
}
