package credential

import (
	"fmt"
	"os"
	"strings"
)

// Keyring keys for stored credentials.
const (
	KeyEmailAddress  = "email"
	KeyEmailPassword = "email_password"
	KeyAPIKey        = "openrouter_api_key"
)

// Environment variable names, matching the common deployment setup.
const (
	envEmailAddress  = "EMAIL"
	envEmailPassword = "EMAIL_PASSWORD"
	envAPIKey        = "OPENROUTER_API_KEY"
)

// Credentials holds everything a run needs to authenticate: the
// mailbox address, its app-specific password, and the classification
// provider API key. Values are opaque strings, trimmed of surrounding
// whitespace and otherwise untouched. They must never be logged.
type Credentials struct {
	Address  string
	Password string
	APIKey   string
}

// Load resolves credentials from the environment first, falling back
// to the system keyring for any value the environment does not supply.
func Load() (Credentials, error) {
	creds := Credentials{
		Address:  resolve(envEmailAddress, KeyEmailAddress),
		Password: resolve(envEmailPassword, KeyEmailPassword),
		APIKey:   resolve(envAPIKey, KeyAPIKey),
	}

	var missing []string
	if creds.Address == "" {
		missing = append(missing, envEmailAddress)
	}
	if creds.Password == "" {
		missing = append(missing, envEmailPassword)
	}
	if creds.APIKey == "" {
		missing = append(missing, envAPIKey)
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf(
			"missing credentials: set %s or store them in the keyring",
			strings.Join(missing, ", "),
		)
	}

	return creds, nil
}

// resolve returns the trimmed environment value for envName, or the
// keyring value under key when the environment variable is unset.
func resolve(envName, key string) string {
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v
	}

	v, err := Get(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}
