package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvAccount     = "TWEETKIT_ACCOUNT"
	EnvAuthToken   = "TWEETKIT_AUTH_TOKEN"
	EnvCSRFToken   = "TWEETKIT_CSRF_TOKEN"
	EnvBearerToken = "TWEETKIT_BEARER_TOKEN"
	EnvUserAgent   = "TWEETKIT_USER_AGENT"
)

// EnvironmentStore is a read-only CredentialStore over environment variables
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment session. The name is ignored unless it
// differs from TWEETKIT_ACCOUNT, in which case nothing is found.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	authToken := os.Getenv(EnvAuthToken)
	csrfToken := os.Getenv(EnvCSRFToken)
	if authToken == "" || csrfToken == "" {
		return nil, ErrCredentialsNotFound
	}

	envName := os.Getenv(EnvAccount)
	if envName == "" {
		envName = "default"
	}
	if name != "" && name != envName {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:         envName,
		AuthToken:    authToken,
		CSRFToken:    csrfToken,
		BearerToken:  os.Getenv(EnvBearerToken),
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if the environment carries a session
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
