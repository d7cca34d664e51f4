package convert

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	configurationDryRunKeyConstant               = "dry_run"
	configurationPrettyPrintKeyConstant          = "pretty_print"
	configurationSaveQueriesKeyConstant          = "save_queries"
	configurationSaveQueriesDirectoryKeyConstant = "save_queries_directory"
	configurationProjectsKeyConstant             = "projects"
	defaultSaveQueriesDirectoryConstant          = "queries"
	selectorDecodeErrorTemplateConstant          = "invalid project selection: %w"
)

// CommandConfiguration captures configuration values for the convert
// command. Projects accepts numeric identifiers or project names; YAML may
// deliver either as numbers or strings, so normalization happens in
// ProjectSelectors.
type CommandConfiguration struct {
	DryRun               bool   `mapstructure:"dry_run"`
	PrettyPrint          bool   `mapstructure:"pretty_print"`
	SaveQueries          bool   `mapstructure:"save_queries"`
	SaveQueriesDirectory string `mapstructure:"save_queries_directory"`
	Projects             []any  `mapstructure:"projects"`
}

// DefaultCommandConfiguration provides baseline configuration values for
// the convert command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		DryRun:               false,
		PrettyPrint:          false,
		SaveQueries:          false,
		SaveQueriesDirectory: defaultSaveQueriesDirectoryConstant,
		Projects:             nil,
	}
}

// DefaultConfigurationValues exposes the defaults keyed for the
// configuration loader under the provided root key.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationDryRunKeyConstant:               defaults.DryRun,
		rootKey + "." + configurationPrettyPrintKeyConstant:          defaults.PrettyPrint,
		rootKey + "." + configurationSaveQueriesKeyConstant:          defaults.SaveQueries,
		rootKey + "." + configurationSaveQueriesDirectoryKeyConstant: defaults.SaveQueriesDirectory,
		rootKey + "." + configurationProjectsKeyConstant:             defaults.Projects,
	}
}

// ProjectSelectors normalizes the configured project selection to strings,
// tolerating numeric YAML scalars. A selector that cannot be represented as
// a string is a configuration error.
func (configuration CommandConfiguration) ProjectSelectors() ([]string, error) {
	if len(configuration.Projects) == 0 {
		return nil, nil
	}

	var selectors []string
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &selectors,
		WeaklyTypedInput: true,
	})
	if decoderError != nil {
		return nil, fmt.Errorf(selectorDecodeErrorTemplateConstant, decoderError)
	}
	if decodeError := decoder.Decode(configuration.Projects); decodeError != nil {
		return nil, fmt.Errorf(selectorDecodeErrorTemplateConstant, decodeError)
	}

	trimmed := make([]string, 0, len(selectors))
	for _, selector := range selectors {
		selector = strings.TrimSpace(selector)
		if len(selector) > 0 {
			trimmed = append(trimmed, selector)
		}
	}
	return trimmed, nil
}
