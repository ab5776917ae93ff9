package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aio-labs/aio-bot/internal/models"
)

// storedReminder is the on-disk shape of one reminder. DueAt serializes as
// RFC3339 with a UTC offset so reloading reconstructs the same instant; the
// store then renders it in the fixed civil timezone.
type storedReminder struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	DueAt string `json:"due_at"`
}

// FileReminderStore holds every user's reminders in memory and mirrors each
// mutation to a single JSON file. The store exclusively owns the in-memory
// collection; the session engine and the scheduler both mutate through it
// and serialize on its lock, which spans read-mutate-persist as one critical
// section.
type FileReminderStore struct {
	mu    sync.Mutex
	path  string
	loc   *time.Location
	items map[string][]models.Reminder
}

// NewFileReminderStore creates the store and loads existing reminders from
// disk. A missing, unreadable, or corrupt file degrades to an empty store
// with a warning; entries with malformed timestamps are skipped.
func NewFileReminderStore(path string, loc *time.Location) *FileReminderStore {
	s := &FileReminderStore{
		path:  path,
		loc:   loc,
		items: make(map[string][]models.Reminder),
	}
	s.loadLocked()
	return s
}

func (s *FileReminderStore) loadLocked() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("FileReminderStore.load: read failed, starting empty", "path", s.path, "error", err)
		}
		return
	}
	raw := map[string][]storedReminder{}
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("FileReminderStore.load: parse failed, starting empty", "path", s.path, "error", err)
		return
	}
	total := 0
	for userID, stored := range raw {
		reminders := make([]models.Reminder, 0, len(stored))
		for _, sr := range stored {
			dueAt, err := time.Parse(time.RFC3339, sr.DueAt)
			if err != nil {
				slog.Warn("FileReminderStore.load: skipping reminder with bad timestamp", "userID", userID, "name", sr.Name, "due_at", sr.DueAt, "error", err)
				continue
			}
			id := sr.ID
			if id == "" {
				id = uuid.NewString()
			}
			reminders = append(reminders, models.Reminder{
				ID:    id,
				Name:  sr.Name,
				DueAt: dueAt.In(s.loc),
			})
		}
		if len(reminders) > 0 {
			s.items[userID] = reminders
			total += len(reminders)
		}
	}
	slog.Info("FileReminderStore.load: reminders loaded", "path", s.path, "users", len(s.items), "reminders", total)
}

// persistLocked writes the full store to disk. Callers must hold s.mu.
func (s *FileReminderStore) persistLocked() error {
	raw := make(map[string][]storedReminder, len(s.items))
	for userID, reminders := range s.items {
		stored := make([]storedReminder, 0, len(reminders))
		for _, r := range reminders {
			stored = append(stored, storedReminder{
				ID:    r.ID,
				Name:  r.Name,
				DueAt: r.DueAt.Format(time.RFC3339),
			})
		}
		raw[userID] = stored
	}
	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal reminders: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write reminders file: %w", err)
	}
	return nil
}

// List returns a stable copy of the user's reminders in insertion order.
func (s *FileReminderStore) List(userID string) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	reminders := s.items[userID]
	out := make([]models.Reminder, len(reminders))
	copy(out, reminders)
	return out
}

// Count returns the number of reminders held for the user.
func (s *FileReminderStore) Count(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items[userID])
}

// Add appends a reminder and persists the store. On a persistence failure
// the in-memory addition is kept and the error surfaced; the next
// successful mutation writes it out.
func (s *FileReminderStore) Add(userID string, r models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.DueAt = r.DueAt.In(s.loc)
	s.items[userID] = append(s.items[userID], r)

	if err := s.persistLocked(); err != nil {
		slog.Error("FileReminderStore.Add: persist failed", "userID", userID, "name", r.Name, "error", err)
		return err
	}
	slog.Debug("FileReminderStore.Add: reminder stored", "userID", userID, "id", r.ID, "dueAt", r.DueAt)
	return nil
}

// RemoveAt deletes the reminder at the 1-based position, preserving the
// order of the remaining reminders, and persists the store.
func (s *FileReminderStore) RemoveAt(userID string, pos int) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders := s.items[userID]
	if pos < 1 || pos > len(reminders) {
		return models.Reminder{}, ErrIndexOutOfRange
	}
	removed := reminders[pos-1]
	s.items[userID] = append(reminders[:pos-1], reminders[pos:]...)
	if len(s.items[userID]) == 0 {
		delete(s.items, userID)
	}

	if err := s.persistLocked(); err != nil {
		slog.Error("FileReminderStore.RemoveAt: persist failed", "userID", userID, "pos", pos, "error", err)
		return removed, err
	}
	slog.Debug("FileReminderStore.RemoveAt: reminder removed", "userID", userID, "id", removed.ID)
	return removed, nil
}

// Due returns a snapshot of every reminder with DueAt <= now. The snapshot
// is safe to iterate while the authoritative store is mutated.
func (s *FileReminderStore) Due(now time.Time) []DueReminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []DueReminder
	for userID, reminders := range s.items {
		for _, r := range reminders {
			if !r.DueAt.After(now) {
				due = append(due, DueReminder{UserID: userID, Reminder: r})
			}
		}
	}
	return due
}

// Remove deletes the reminder with the given ID and persists the store. A
// reminder already gone (deleted by the user between snapshot and removal)
// is not an error.
func (s *FileReminderStore) Remove(userID, reminderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders := s.items[userID]
	found := false
	for i, r := range reminders {
		if r.ID == reminderID {
			s.items[userID] = append(reminders[:i], reminders[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	if len(s.items[userID]) == 0 {
		delete(s.items, userID)
	}

	if err := s.persistLocked(); err != nil {
		slog.Error("FileReminderStore.Remove: persist failed", "userID", userID, "id", reminderID, "error", err)
		return err
	}
	return nil
}
