package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aio-labs/aio-bot/internal/blob"
	"github.com/aio-labs/aio-bot/internal/models"
	"github.com/aio-labs/aio-bot/internal/observability"
	"github.com/aio-labs/aio-bot/internal/store"
)

// CompletionPipeline is the chat-mode request path to the completion
// backend.
type CompletionPipeline interface {
	Ask(ctx context.Context, history []models.ChatMessage, userInput string) (string, []models.ChatMessage, error)
}

// FileFetcher downloads an uploaded document's bytes from the messaging
// channel.
type FileFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// Deps carries the collaborators the engine drives as flow side effects.
type Deps struct {
	Profiles   store.ProfileStore
	Reminders  store.ReminderStore
	Blobs      *blob.Store
	Completion CompletionPipeline
	Files      FileFetcher
	Location   *time.Location
	Metrics    *observability.Metrics
	// Now is the clock; defaults to time.Now. Tests swap it.
	Now func() time.Time
}

// Engine is the session state machine. A single dispatch function advances
// one user's session per inbound event and returns the outbound replies;
// store side effects are committed only on terminal transitions.
type Engine struct {
	sessions *SessionManager
	deps     Deps
}

// NewEngine creates the engine and its session manager.
func NewEngine(deps Deps) *Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &Engine{
		sessions: NewSessionManager(deps.Metrics),
		deps:     deps,
	}
}

// Sessions exposes the session manager (used by the admin surface).
func (e *Engine) Sessions() *SessionManager { return e.sessions }

// now returns the current time in the fixed civil timezone.
func (e *Engine) now() time.Time {
	return e.deps.Now().In(e.deps.Location)
}

// HandleEvent advances the user's session for one inbound event and returns
// the replies to deliver. Events for the same user are processed strictly
// sequentially.
func (e *Engine) HandleEvent(ctx context.Context, ev models.Event) []models.Reply {
	session, release := e.sessions.Acquire(ev.UserID)
	defer release()

	e.deps.Metrics.ObserveEvent(string(ev.Kind))
	slog.Debug("Engine.HandleEvent: dispatching", "userID", ev.UserID, "kind", ev.Kind, "state", session.State)

	switch ev.Kind {
	case models.EventCommand:
		return e.handleCommand(session, ev.Text)
	case models.EventCallback:
		return e.handleCallback(ctx, session, ev.Text)
	case models.EventDocument:
		return e.handleDocument(ctx, session, ev.Document)
	default:
		return e.handleText(ctx, session, ev.Text)
	}
}

// handleCommand processes slash commands. They work from any state.
func (e *Engine) handleCommand(session *Session, command string) []models.Reply {
	switch command {
	case "start":
		session.ClearHistory()
		session.ClearFlow()
		return []models.Reply{models.KeyboardReply(
			"Привет! Я AIO и помогу тебе с задачами, файлами и GPT. Используй меню ниже.",
			MainKeyboard(),
		)}
	case "cancel":
		if session.State == models.StateChatActive {
			session.ClearHistory()
		}
		session.ClearFlow()
		return []models.Reply{models.KeyboardReply("Действие отменено.", MainKeyboard())}
	case "help":
		return []models.Reply{models.TextReply("Команды: /start /cancel /help. Используйте клавиатуру для функций.")}
	default:
		return []models.Reply{models.TextReply("Не понял. Используй меню или /help.")}
	}
}

// handleText routes free text by the session's current state; at Idle it
// matches the menu labels.
func (e *Engine) handleText(ctx context.Context, session *Session, text string) []models.Reply {
	switch session.State {
	case models.StateRegistrationName,
		models.StateRegistrationSurname,
		models.StateRegistrationPhone,
		models.StateRegistrationEmail,
		models.StateRegistrationConfirmation:
		return e.advanceRegistration(session, text)
	case models.StateEditSelectingField:
		return []models.Reply{models.KeyboardReply("Что вы хотите изменить?", EditFieldKeyboard())}
	case models.StateEditCollectingValue:
		return e.applyEdit(session, text)
	case models.StateTaskName, models.StateTaskDueAt:
		return e.advanceTaskCreation(session, text)
	case models.StateTaskDeletionIndex:
		return e.applyTaskDeletion(session, text)
	case models.StateChatActive:
		return e.chatTurn(ctx, session, text)
	}

	return e.handleMenu(session, strings.TrimSpace(text))
}

// handleMenu matches menu labels at Idle.
func (e *Engine) handleMenu(session *Session, text string) []models.Reply {
	switch text {
	case MenuRegister:
		return e.startRegistration(session)
	case MenuMyData:
		return e.showProfile(session)
	case MenuEditData:
		return e.startEdit(session)
	case MenuCreateTask:
		return e.startTaskCreation(session)
	case MenuShowSchedule:
		return e.showSchedule(session)
	case MenuDeleteTask:
		return e.startTaskDeletion(session)
	case MenuGPTChat:
		return e.startChat(session)
	case MenuUploadFile:
		return []models.Reply{models.TextReply("Отправь файл. Имя будет безопасно сохранено.")}
	case MenuFiles:
		return e.listFiles()
	default:
		return []models.Reply{models.TextReply("Не понял. Используй меню или /help.")}
	}
}

// handleCallback processes inline-button presses.
func (e *Engine) handleCallback(ctx context.Context, session *Session, data string) []models.Reply {
	switch {
	case data == CallbackCancelRegistration:
		session.ClearFlow()
		return []models.Reply{models.KeyboardReply("Регистрация отменена.", MainKeyboard())}
	case data == CallbackCloseGPT:
		session.ClearHistory()
		session.ClearFlow()
		return []models.Reply{models.KeyboardReply("GPT чат закрыт.", MainKeyboard())}
	case strings.HasPrefix(data, CallbackEditPrefix):
		return e.selectEditField(session, strings.TrimPrefix(data, CallbackEditPrefix))
	case strings.HasPrefix(data, CallbackDownloadPrefix):
		return e.sendFile(strings.TrimPrefix(data, CallbackDownloadPrefix))
	default:
		slog.Debug("Engine.handleCallback: ignoring unknown callback", "userID", session.UserID, "data", data)
		return nil
	}
}
