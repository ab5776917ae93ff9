package flow

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aio-labs/aio-bot/internal/models"
	"github.com/aio-labs/aio-bot/internal/store"
)

// startTaskCreation opens the two-step reminder creation flow.
func (e *Engine) startTaskCreation(session *Session) []models.Reply {
	session.State = models.StateTaskName
	return []models.Reply{models.KeyboardReply("Название задачи?", MainKeyboard())}
}

// advanceTaskCreation collects the name then the due time. A past due time
// re-prompts and keeps the collected name; a parse failure aborts the flow
// back to Idle.
func (e *Engine) advanceTaskCreation(session *Session, text string) []models.Reply {
	switch session.State {
	case models.StateTaskName:
		session.SetPending(models.DataKeyTaskName, text)
		session.State = models.StateTaskDueAt
		return []models.Reply{models.TextReply(fmt.Sprintf("Дата и время в формате '%s' (часовой пояс %s).", "YYYY-MM-DD HH:MM", e.deps.Location))}

	case models.StateTaskDueAt:
		name := session.PendingValue(models.DataKeyTaskName)
		dueAt, err := ParseDueAt(text, e.deps.Location)
		if err != nil {
			session.ClearFlow()
			return []models.Reply{models.TextReply("Неверный формат. Пример: 2025-12-31 14:30")}
		}
		if !dueAt.After(e.now()) {
			// Keep the name; only the due time is re-collected.
			return []models.Reply{models.TextReply("Время уже прошло. Укажи будущее.")}
		}

		addErr := e.deps.Reminders.Add(session.UserID, models.Reminder{Name: name, DueAt: dueAt})
		session.ClearFlow()
		if addErr != nil {
			slog.Error("Engine.advanceTaskCreation: reminder persist failed", "userID", session.UserID, "name", name, "error", addErr)
			return []models.Reply{models.TextReply(fmt.Sprintf("Задача '%s' добавлена, но сохранить на диск не удалось. Она может пропасть после перезапуска.", name))}
		}
		return []models.Reply{models.TextReply(fmt.Sprintf("Задача '%s' на %s добавлена.", name, dueAt.Format(DueAtLayout)))}
	}
	return nil
}

// showSchedule lists the user's reminders with 1-based positions.
func (e *Engine) showSchedule(session *Session) []models.Reply {
	reminders := e.deps.Reminders.List(session.UserID)
	if len(reminders) == 0 {
		return []models.Reply{models.TextReply("Расписание пусто.")}
	}
	lines := []string{"Ваши задачи:"}
	for i, r := range reminders {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, r.Name, r.DueAt.Format(DueAtLayout)))
	}
	return []models.Reply{models.TextReply(strings.Join(lines, "\n"))}
}

// startTaskDeletion lists the reminders and awaits a 1-based position. With
// no reminders the flow does not open.
func (e *Engine) startTaskDeletion(session *Session) []models.Reply {
	reminders := e.deps.Reminders.List(session.UserID)
	if len(reminders) == 0 {
		return []models.Reply{models.TextReply("Нет задач.")}
	}
	lines := []string{"Номер для удаления:"}
	for i, r := range reminders {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, r.Name, r.DueAt.Format(DueAtLayout)))
	}
	session.State = models.StateTaskDeletionIndex
	return []models.Reply{models.TextReply(strings.Join(lines, "\n"))}
}

// applyTaskDeletion deletes by 1-based position. Non-numeric input
// re-prompts without leaving the state; out-of-range input and successful
// deletion both terminate the flow.
func (e *Engine) applyTaskDeletion(session *Session, text string) []models.Reply {
	pos, ok := ParseIndex(text)
	if !ok {
		return []models.Reply{models.TextReply("Введите номер (цифра). /cancel для выхода.")}
	}

	removed, err := e.deps.Reminders.RemoveAt(session.UserID, pos)
	session.ClearFlow()
	if err != nil {
		if err == store.ErrIndexOutOfRange {
			return []models.Reply{models.TextReply("Неверный номер.")}
		}
		// Removed in memory but not persisted; surfaced in logs, the user
		// still sees the deletion.
		slog.Error("Engine.applyTaskDeletion: persist failed", "userID", session.UserID, "pos", pos, "error", err)
	}
	return []models.Reply{models.TextReply(fmt.Sprintf("Удалено: %s", removed.Name))}
}
