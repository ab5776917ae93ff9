package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aio-labs/aio-bot/internal/models"
)

// FileProfileStore persists profiles as a single JSON file keyed by user ID.
// Every write loads the whole mapping, mutates it, and rewrites the file.
type FileProfileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileProfileStore creates a profile store backed by the given file. The
// file is created lazily on the first write.
func NewFileProfileStore(path string) *FileProfileStore {
	slog.Debug("FileProfileStore.New: creating store", "path", path)
	return &FileProfileStore{path: path}
}

// load reads the entire profile mapping from disk. Read or parse failure is
// non-fatal: it logs a warning and behaves as an empty store.
func (s *FileProfileStore) load() map[string]models.UserProfile {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("FileProfileStore.load: read failed, treating as empty", "path", s.path, "error", err)
		}
		return map[string]models.UserProfile{}
	}
	profiles := map[string]models.UserProfile{}
	if err := json.Unmarshal(data, &profiles); err != nil {
		slog.Warn("FileProfileStore.load: parse failed, treating as empty", "path", s.path, "error", err)
		return map[string]models.UserProfile{}
	}
	return profiles
}

// Get returns the profile for the user, and whether one exists.
func (s *FileProfileStore) Get(userID string) (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.load()[userID]
	return profile, ok
}

// Contains reports whether a profile exists for the user.
func (s *FileProfileStore) Contains(userID string) bool {
	_, ok := s.Get(userID)
	return ok
}

// Upsert stores the profile under the user ID, rewriting the whole file. A
// returned error means persistence failed; callers must not assume the write
// succeeded.
func (s *FileProfileStore) Upsert(userID string, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := s.load()
	profiles[userID] = profile

	data, err := json.MarshalIndent(profiles, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		slog.Error("FileProfileStore.Upsert: write failed", "path", s.path, "userID", userID, "error", err)
		return fmt.Errorf("write profiles file: %w", err)
	}
	slog.Debug("FileProfileStore.Upsert: profile saved", "userID", userID)
	return nil
}
