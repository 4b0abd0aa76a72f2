package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"time"

	"tweetkit/pkg/logger"
	"tweetkit/pkg/timeline"
)

const currentVersion = 1

// Checkpoint records how far a listing walk got
type Checkpoint struct {
	Listing    string `json:"listing"`
	Argument   string `json:"argument,omitempty"`
	NextCursor string `json:"next_cursor"`
	Pages      int    `json:"pages"`
	Entities   int    `json:"entities"`
	// Exhausted is set once the walk reached the end of the listing.
	Exhausted bool      `json:"exhausted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Manager handles the checkpoint file of one listing walk
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key returns the file key of a listing walk
func Key(listing, argument string) string {
	if argument == "" {
		return unsafeKeyChars.ReplaceAllString(listing, "_")
	}
	return unsafeKeyChars.ReplaceAllString(listing+"-"+argument, "_")
}

// NewManager creates a checkpoint manager under the user data directory
func NewManager(key string, log logger.Logger) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerInDir(filepath.Join(dataDir, "checkpoints"), key, log)
}

// NewManagerInDir creates a checkpoint manager storing its file in dir
func NewManagerInDir(dir, key string, log logger.Logger) (*Manager, error) {
	if key == "" {
		return nil, fmt.Errorf("checkpoint key is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(dir, key+".checkpoint.json"),
		logger:         logger.OrGlobal(log),
	}, nil
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create starts a fresh checkpoint and saves it
func (m *Manager) Create(listing, argument string) (*Checkpoint, error) {
	now := time.Now()
	cp := &Checkpoint{
		Listing:   listing,
		Argument:  argument,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   currentVersion,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"listing": listing,
		"path":    m.checkpointPath,
	})
	return cp, nil
}

// Load reads the checkpoint. It returns nil without error when none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Version > currentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported version %d", cp.Version, currentVersion)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"listing":     cp.Listing,
		"pages":       cp.Pages,
		"next_cursor": cp.NextCursor,
		"updated_at":  cp.UpdatedAt,
	})
	return &cp, nil
}

// Save writes the checkpoint atomically
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()
	if cp.Version == 0 {
		cp.Version = currentVersion
	}

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"listing":     cp.Listing,
		"pages":       cp.Pages,
		"next_cursor": cp.NextCursor,
	})
	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// Advance records one fetched page. A page without a next cursor keeps the
// previous cursor so a later resume restarts from the last known position.
func (m *Manager) Advance(cp *Checkpoint, page timeline.Page) error {
	cp.Pages++
	cp.Entities += page.Len()
	if page.NextCursor != "" {
		cp.NextCursor = page.NextCursor
	}
	return m.Save(cp)
}

// Finish marks the walk as complete
func (m *Manager) Finish(cp *Checkpoint, res timeline.Result) error {
	cp.Exhausted = res.Exhausted
	if res.Cursor != "" {
		cp.NextCursor = res.Cursor
	}
	return m.Save(cp)
}

// Track attaches the checkpoint to a walker: the walk starts from the saved
// cursor and every page is recorded.
func (m *Manager) Track(cp *Checkpoint, w *timeline.Walker) {
	w.StartCursor = cp.NextCursor
	next := w.OnPage
	w.OnPage = func(n int, p timeline.Page) error {
		if err := m.Advance(cp, p); err != nil {
			return err
		}
		if next != nil {
			return next(n, p)
		}
		return nil
	}
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "tweetkit")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "tweetkit")
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "tweetkit")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "tweetkit")
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}

// DataDir returns the tweetkit data directory, creating it if needed
func DataDir() (string, error) {
	return getDataDirectory()
}
