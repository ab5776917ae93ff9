// Package store provides file-backed persistence for the AIO bot.
//
// Profiles and reminders each persist as a single UTF-8 JSON file. Writes are
// full-file read-modify-write cycles guarded against partial files by writing
// a temp file and renaming it into place. Concurrent writers from multiple
// processes are not supported; within one process every reminder mutation is
// serialized by a single lock that also covers persistence.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/aio-labs/aio-bot/internal/models"
)

// Sentinel errors surfaced to flow handlers.
var (
	// ErrIndexOutOfRange reports a 1-based reminder position outside the
	// user's current list.
	ErrIndexOutOfRange = errors.New("reminder index out of range")
)

// ProfileStore is the persistence contract for registered-user profiles.
type ProfileStore interface {
	// Get returns the profile for the user, and whether one exists.
	Get(userID string) (models.UserProfile, bool)
	// Contains reports whether a profile exists for the user.
	Contains(userID string) bool
	// Upsert stores the profile. An error means persistence failed and
	// callers must not assume the write survived a restart.
	Upsert(userID string, profile models.UserProfile) error
}

// DueReminder pairs a due reminder with its owning user.
type DueReminder struct {
	UserID   string
	Reminder models.Reminder
}

// ReminderStore is the persistence contract for scheduled reminders. All
// mutating methods persist the full store before returning.
type ReminderStore interface {
	// List returns a stable copy of the user's reminders in insertion order.
	List(userID string) []models.Reminder
	// Count returns the number of reminders held for the user.
	Count(userID string) int
	// Add appends a reminder for the user and persists. On a persistence
	// failure the in-memory addition is kept and the error is surfaced;
	// the next successful mutation re-persists it.
	Add(userID string, r models.Reminder) error
	// RemoveAt deletes the reminder at the 1-based position, preserving the
	// order of the rest. Returns ErrIndexOutOfRange for positions outside
	// 1..Count(userID).
	RemoveAt(userID string, pos int) (models.Reminder, error)
	// Due returns a snapshot of every reminder with DueAt <= now.
	Due(now time.Time) []DueReminder
	// Remove deletes the reminder with the given ID, if still present.
	Remove(userID, reminderID string) error
}

// writeFileAtomic writes data to path via a temp file in the same directory
// followed by a rename, so a crash mid-write cannot leave a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
