package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// PassphraseEnv overrides the generated passphrase of the encrypted store
const PassphraseEnv = "TWEETKIT_PASSPHRASE"

// vaultVersion is the layout written by this build
const vaultVersion = 2

// ErrUnsupportedVault is returned for credential files written by a newer
// or unknown layout.
var ErrUnsupportedVault = errors.New("unsupported credentials file version")

// vaultFile is the on-disk envelope. Salt and Sessions are base64 in JSON.
type vaultFile struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Sessions []byte    `json:"sessions"`
	Updated  time.Time `json:"updated"`
}

// sessionRecord is one sealed cookie session, keyed by account name
type sessionRecord struct {
	AuthToken string    `json:"auth_token"`
	CT0       string    `json:"ct0"`
	Bearer    string    `json:"bearer,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Updated   time.Time `json:"updated"`
}

func recordOf(a *Account) sessionRecord {
	return sessionRecord{
		AuthToken: a.AuthToken,
		CT0:       a.CSRFToken,
		Bearer:    a.BearerToken,
		UserAgent: a.UserAgent,
		Updated:   a.LastModified,
	}
}

func (r sessionRecord) account(name string) *Account {
	return &Account{
		Name:         name,
		AuthToken:    r.AuthToken,
		CSRFToken:    r.CT0,
		BearerToken:  r.Bearer,
		UserAgent:    r.UserAgent,
		LastModified: r.Updated,
	}
}

// EncryptedFileStore keeps sessions in one passphrase-encrypted file
type EncryptedFileStore struct {
	path   string
	sealer sealer
	now    func() time.Time
	mu     sync.RWMutex
}

// NewEncryptedFileStore creates an encrypted file-based credential store.
// An empty passphrase falls back to TWEETKIT_PASSPHRASE, then to a generated
// passphrase kept in a .passphrase file next to the store.
func NewEncryptedFileStore(filePath, passphrase string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if passphrase == "" {
		passphrase = os.Getenv(PassphraseEnv)
	}
	if passphrase == "" {
		p, err := loadOrCreatePassphrase(filepath.Join(dir, ".passphrase"))
		if err != nil {
			return nil, fmt.Errorf("failed to get passphrase: %w", err)
		}
		passphrase = p
	}

	return &EncryptedFileStore{
		path:   filePath,
		sealer: sealer{passphrase: []byte(passphrase)},
		now:    time.Now,
	}, nil
}

// Store saves the session under account.Name. A zero LastModified is
// stamped with the current time so the manager can pick the newest session.
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if account.LastModified.IsZero() {
		account.LastModified = e.now()
	}
	return e.update(func(sessions map[string]sessionRecord) error {
		sessions[account.Name] = recordOf(account)
		return nil
	})
}

func (e *EncryptedFileStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	sessions, err := e.read()
	if err != nil {
		return nil, err
	}
	rec, ok := sessions[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return rec.account(name), nil
}

// List returns every session ordered by name
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sessions, err := e.read()
	if errors.Is(err, ErrCredentialsNotFound) {
		return []*Account{}, nil
	}
	if err != nil {
		return nil, err
	}

	accounts := make([]*Account, 0, len(sessions))
	for name, rec := range sessions {
		accounts = append(accounts, rec.account(name))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

// Delete removes one session. The file goes away with the last one.
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.update(func(sessions map[string]sessionRecord) error {
		if _, ok := sessions[name]; !ok {
			return ErrCredentialsNotFound
		}
		delete(sessions, name)
		return nil
	})
}

func (e *EncryptedFileStore) Exists(name string) bool {
	account, err := e.Retrieve(name)
	return err == nil && account != nil
}

// read decodes the vault. A missing file is ErrCredentialsNotFound.
func (e *EncryptedFileStore) read() (map[string]sessionRecord, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var vf vaultFile
	if err := json.Unmarshal(content, &vf); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if vf.Version != vaultVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVault, vf.Version)
	}

	plain, err := e.sealer.open(vf.Salt, vf.Sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	sessions := make(map[string]sessionRecord)
	if err := json.Unmarshal(plain, &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}
	return sessions, nil
}

// update applies fn to the current sessions and writes the result back.
// Callers hold the write lock.
func (e *EncryptedFileStore) update(fn func(map[string]sessionRecord) error) error {
	sessions, err := e.read()
	if errors.Is(err, ErrCredentialsNotFound) {
		sessions = make(map[string]sessionRecord)
	} else if err != nil {
		return err
	}

	if err := fn(sessions); err != nil {
		return err
	}
	if len(sessions) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return e.write(sessions)
}

// write seals sessions under a fresh salt and replaces the file atomically
func (e *EncryptedFileStore) write(sessions map[string]sessionRecord) error {
	plain, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	salt, box, err := e.sealer.seal(plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt sessions: %w", err)
	}

	content, err := json.MarshalIndent(vaultFile{
		Version:  vaultVersion,
		Salt:     salt,
		Sessions: box,
		Updated:  e.now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return os.Rename(tmp, e.path)
}
