// Package models defines shared data structures for the AIO bot.
package models

import "time"

// UserProfile holds the committed registration data for a single user.
// At most one profile exists per user ID; it is created only on a confirmed
// registration and mutated only through the single-field editing flow.
type UserProfile struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	UniqueCode string `json:"unique_code"`
}

// Reminder is a one-time scheduled notification owned by exactly one user.
// DueAt carries the fixed civil timezone; it must be strictly in the future
// at creation time.
type Reminder struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	DueAt time.Time `json:"due_at"`
}

// ProfileField names the profile fields reachable through the editing flow.
type ProfileField string

const (
	FieldName    ProfileField = "name"
	FieldSurname ProfileField = "surname"
	FieldPhone   ProfileField = "phone"
	FieldEmail   ProfileField = "email"
)

// ChatMessage is a single role-tagged turn of the GPT chat history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
