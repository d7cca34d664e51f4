package platform

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names consulted when resolving platform credentials.
const (
	EnvPlatformUsername       = "QUERYCONV_PLATFORM_USERNAME"
	EnvPlatformPassword       = "QUERYCONV_PLATFORM_PASSWORD"
	EnvLegacyPlatformUsername = "CX_USERNAME"
	EnvLegacyPlatformPassword = "CX_PASSWORD"
)

const missingCredentialsMessageConstant = "platform credentials not found in environment"

var usernamePreference = []string{
	EnvPlatformUsername,
	EnvLegacyPlatformUsername,
}

var passwordPreference = []string{
	EnvPlatformPassword,
	EnvLegacyPlatformPassword,
}

// ErrMissingCredentials indicates no usable credential pair was resolved.
var ErrMissingCredentials = errors.New(missingCredentialsMessageConstant)

// Credentials holds the username/password pair used for the platform's
// resource-owner password grant.
type Credentials struct {
	Username string
	Password string
}

// ResolveCredentials returns the first non-empty credential pair observed in
// the provided environment map or the process environment. A .env file in
// the working directory is merged into the process environment beforehand
// when present; its absence is not an error.
func ResolveCredentials(environment map[string]string) (Credentials, error) {
	_ = godotenv.Load()

	username, usernameFound := lookupFirst(environment, usernamePreference)
	password, passwordFound := lookupFirst(environment, passwordPreference)
	if !usernameFound || !passwordFound {
		return Credentials{}, ErrMissingCredentials
	}

	return Credentials{Username: username, Password: password}, nil
}

func lookupFirst(environment map[string]string, keys []string) (string, bool) {
	for _, key := range keys {
		if value, found := lookup(environment, key); found {
			return value, true
		}
	}
	for _, key := range keys {
		if value, found := os.LookupEnv(key); found {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
