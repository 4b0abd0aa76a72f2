package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"tweetkit/pkg/config"
	"tweetkit/pkg/logger"
)

// Account is a stored web session
type Account struct {
	Name         string    `json:"name"`
	AuthToken    string    `json:"auth_token"`
	CSRFToken    string    `json:"csrf_token"`
	BearerToken  string    `json:"bearer_token,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Apply fills the session fields of cfg that are still empty
func (a *Account) Apply(cfg *config.AccountConfig) {
	if cfg.Name == "" {
		cfg.Name = a.Name
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = a.AuthToken
	}
	if cfg.CSRFToken == "" {
		cfg.CSRFToken = a.CSRFToken
	}
	if cfg.BearerToken == "" {
		cfg.BearerToken = a.BearerToken
	}
	if a.UserAgent != "" && (cfg.UserAgent == "" || cfg.UserAgent == config.DefaultUserAgent) {
		cfg.UserAgent = a.UserAgent
	}
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials by account name
	Retrieve(name string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials by account name
	Delete(name string) error

	// Exists checks if credentials exist for an account name
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
	logger logger.Logger
}

// NewManager creates a credential manager over the keychain, the encrypted
// file and the environment, in that order.
func NewManager(log logger.Logger) (*Manager, error) {
	log = logger.OrGlobal(log)
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	} else {
		log.WithError(err).Debug("system keychain unavailable, using encrypted file")
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores, logger: log}, nil
}

// NewManagerWithStores creates a Manager over the given stores
func NewManagerWithStores(log logger.Logger, stores ...CredentialStore) *Manager {
	return &Manager{stores: stores, logger: logger.OrGlobal(log)}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if account.Name == "" {
		return errors.New("account name is required")
	}
	if account.AuthToken == "" {
		return errors.New("auth_token is required")
	}
	if account.CSRFToken == "" {
		return errors.New("ct0 (CSRF token) is required")
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			m.logger.WithField("account", account.Name).Debug("credentials stored")
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(name); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault returns the environment session if set, otherwise the
// most recently stored account.
func (m *Manager) RetrieveDefault() (*Account, error) {
	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if account, err := envStore.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrCredentialsNotFound
	}
	latest := accounts[0]
	for _, a := range accounts[1:] {
		if a.LastModified.After(latest.LastModified) {
			latest = a
		}
	}
	return latest, nil
}

// List returns the accounts of every store, sorted by name. When several
// stores hold the same name the most recently modified copy wins.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			m.logger.WithError(err).Debug("listing credential store failed")
			continue
		}
		for _, account := range accounts {
			if existing, ok := byName[account.Name]; !ok || account.LastModified.After(existing.LastModified) {
				byName[account.Name] = account
			}
		}
	}

	result := make([]*Account, 0, len(byName))
	for _, account := range byName {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		err := store.Delete(name)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// Resolve fills cfg.Account from the store when the configuration does not
// already carry a session. A named account must exist; otherwise the default
// account is used when there is one.
func (m *Manager) Resolve(cfg *config.Config) error {
	if cfg.Account.HasSession() || cfg.OAuth1.Enabled() {
		return nil
	}

	var account *Account
	var err error
	if cfg.Account.Name != "" {
		account, err = m.Retrieve(cfg.Account.Name)
		if err != nil {
			return err
		}
	} else {
		account, err = m.RetrieveDefault()
		if errors.Is(err, ErrCredentialsNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	account.Apply(&cfg.Account)
	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "tweetkit")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "tweetkit")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "tweetkit")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "tweetkit")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeAccount creates a copy of the account with the tokens masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Name:         account.Name,
		AuthToken:    maskString(account.AuthToken),
		CSRFToken:    maskString(account.CSRFToken),
		BearerToken:  maskString(account.BearerToken),
		UserAgent:    account.UserAgent,
		LastModified: account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
