// Package models defines state management structures for AIO bot flows.
package models

// StateType represents a named stage of a multi-step conversation flow.
type StateType string

// Session states. StateIdle is the initial state; every flow terminates
// back to it.
const (
	StateIdle StateType = "IDLE"

	StateRegistrationName         StateType = "REGISTRATION_COLLECTING_NAME"
	StateRegistrationSurname      StateType = "REGISTRATION_COLLECTING_SURNAME"
	StateRegistrationPhone        StateType = "REGISTRATION_COLLECTING_PHONE"
	StateRegistrationEmail        StateType = "REGISTRATION_COLLECTING_EMAIL"
	StateRegistrationConfirmation StateType = "REGISTRATION_AWAITING_CONFIRMATION"

	StateEditSelectingField  StateType = "EDIT_SELECTING_FIELD"
	StateEditCollectingValue StateType = "EDIT_COLLECTING_VALUE"

	StateTaskName  StateType = "TASK_COLLECTING_NAME"
	StateTaskDueAt StateType = "TASK_COLLECTING_DUE_AT"

	StateTaskDeletionIndex StateType = "TASK_DELETION_AWAITING_INDEX"

	StateChatActive StateType = "CHAT_ACTIVE"
)

// DataKey represents a key for pending per-flow data collected mid-flow.
type DataKey string

// Pending-field keys. Cleared on every terminal transition.
const (
	DataKeyName      DataKey = "name"
	DataKeySurname   DataKey = "surname"
	DataKeyPhone     DataKey = "phone"
	DataKeyEmail     DataKey = "email"
	DataKeyEditField DataKey = "editField"
	DataKeyTaskName  DataKey = "taskName"
)
