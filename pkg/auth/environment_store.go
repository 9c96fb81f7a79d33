package auth

import (
	"os"
	"time"
)

// providerEnvVars maps a provider to the environment variable carrying its
// token.
var providerEnvVars = map[string]string{
	"apify":   "APIFY_TOKEN",
	"youtube": "YOUTUBE_API_KEY",
	"openai":  "IDENTIVIBE_AI_TOKEN",
}

// EnvironmentStore implements CredentialStore using environment variables.
// Read-only; primarily for CI and containers.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets a provider's token from its environment variable
func (e *EnvironmentStore) Retrieve(provider string) (*Credential, error) {
	envVar, ok := providerEnvVars[provider]
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	token := os.Getenv(envVar)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credential{
		Provider:     provider,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

// List returns the credentials present in the environment
func (e *EnvironmentStore) List() ([]*Credential, error) {
	var creds []*Credential
	for provider := range providerEnvVars {
		if cred, err := e.Retrieve(provider); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(provider string) error {
	return ErrStoreUnavailable
}

// Exists checks if a provider's environment variable is set
func (e *EnvironmentStore) Exists(provider string) bool {
	envVar, ok := providerEnvVars[provider]
	return ok && os.Getenv(envVar) != ""
}
