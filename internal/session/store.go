// Package session persists assistant sessions as JSON files on disk.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"otto/internal/jsonx"
	"otto/internal/logging"
	id "otto/internal/utils/id"
)

// Record is one persisted assistant session.
type Record struct {
	ID          string           `json:"id"`
	User        string           `json:"user,omitempty"`
	Preferences jsonx.RawMessage `json:"preferences,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Store keeps one JSON file per session under a base directory.
type Store struct {
	baseDir string
	logger  logging.Logger
}

func New(baseDir string) (*Store, error) {
	if strings.HasPrefix(baseDir, "~/") {
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		logger:  logging.NewComponentLogger("SessionStore"),
	}, nil
}

// Create allocates a fresh session for the given user.
func (s *Store) Create(user string) (*Record, error) {
	now := time.Now()
	rec := &Record{
		ID:        id.NewSessionID(),
		User:      user,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := jsonx.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, err
	}

	// Create file exclusively (fail if exists)
	path := s.path(rec.ID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create session file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}
	return rec, nil
}

func (s *Store) Get(sessionID string) (*Record, error) {
	path := s.path(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	var rec Record
	if err := jsonx.Unmarshal(data, &rec); err != nil {
		s.logger.Error("Failed to decode session file %s: %v. Preview: %s", path, err, previewJSON(data))
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &rec, nil
}

func (s *Store) Save(rec *Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("session has no id")
	}
	rec.UpdatedAt = time.Now()
	data, err := jsonx.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(rec.ID), data, 0644)
}

// List returns the IDs of all readable sessions. Corrupt files are logged
// and skipped rather than failing the whole listing.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if readErr != nil {
			s.logger.Error("Failed to read session file %s: %v", entry.Name(), readErr)
			continue
		}
		var rec Record
		if jsonErr := jsonx.Unmarshal(data, &rec); jsonErr != nil {
			s.logger.Error("Failed to decode session file %s: %v", entry.Name(), jsonErr)
			continue
		}
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

func (s *Store) Delete(sessionID string) error {
	err := os.Remove(s.path(sessionID))
	// Ignore error if file doesn't exist - deletion goal achieved
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s.json", sessionID))
}

func previewJSON(data []byte) string {
	const maxPreview = 512
	preview := strings.TrimSpace(string(data))
	preview = strings.ReplaceAll(preview, "\n", " ")
	preview = strings.ReplaceAll(preview, "\t", " ")
	if len(preview) > maxPreview {
		preview = preview[:maxPreview] + "... (truncated)"
	}
	return preview
}
