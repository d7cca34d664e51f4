package platform

import (
	"time"
)

const (
	configurationBaseURLKeyConstant        = "base_url"
	configurationRequestTimeoutKeyConstant = "request_timeout_seconds"
	configurationMaxRetriesKeyConstant     = "max_retries"
	defaultRequestTimeoutSecondsConstant   = 30
)

// Configuration captures the persisted settings for reaching the platform.
// Credentials are deliberately absent; they are resolved from the
// environment (see ResolveCredentials).
type Configuration struct {
	BaseURL               string `mapstructure:"base_url"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	MaxRetries            int    `mapstructure:"max_retries"`
}

// DefaultConfiguration provides baseline platform settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		BaseURL:               "",
		RequestTimeoutSeconds: defaultRequestTimeoutSecondsConstant,
		MaxRetries:            defaultMaxRetriesConstant,
	}
}

// DefaultConfigurationValues exposes the defaults keyed for the
// configuration loader under the provided root key.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		rootKey + "." + configurationBaseURLKeyConstant:        defaults.BaseURL,
		rootKey + "." + configurationRequestTimeoutKeyConstant: defaults.RequestTimeoutSeconds,
		rootKey + "." + configurationMaxRetriesKeyConstant:     defaults.MaxRetries,
	}
}

// RequestTimeout converts the configured timeout to a duration.
func (configuration Configuration) RequestTimeout() time.Duration {
	return time.Duration(configuration.RequestTimeoutSeconds) * time.Second
}
