package flow

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aio-labs/aio-bot/internal/models"
)

// showProfile renders the committed profile fields plus the unique code.
func (e *Engine) showProfile(session *Session) []models.Reply {
	profile, ok := e.deps.Profiles.Get(session.UserID)
	if !ok {
		return []models.Reply{models.TextReply("Вы не зарегистрированы.")}
	}
	text := fmt.Sprintf(
		"Ваши данные:\nИмя: %s\nФамилия: %s\nТелефон: %s\nEmail: %s\nУникальный код: %s",
		profile.Name, profile.Surname, profile.Phone, profile.Email, profile.UniqueCode,
	)
	return []models.Reply{models.TextReply(text)}
}

// startEdit opens the editing flow. It requires an existing profile.
func (e *Engine) startEdit(session *Session) []models.Reply {
	if !e.deps.Profiles.Contains(session.UserID) {
		return []models.Reply{models.TextReply("Вы не зарегистрированы.")}
	}
	session.State = models.StateEditSelectingField
	return []models.Reply{models.KeyboardReply("Что вы хотите изменить?", EditFieldKeyboard())}
}

// selectEditField records which field to replace and prompts for the value.
func (e *Engine) selectEditField(session *Session, field string) []models.Reply {
	if !e.deps.Profiles.Contains(session.UserID) {
		session.ClearFlow()
		return []models.Reply{models.TextReply("Вы не зарегистрированы.")}
	}
	switch models.ProfileField(field) {
	case models.FieldName, models.FieldSurname, models.FieldPhone, models.FieldEmail:
	default:
		slog.Debug("Engine.selectEditField: unknown field", "userID", session.UserID, "field", field)
		return nil
	}
	session.SetPending(models.DataKeyEditField, field)
	session.State = models.StateEditCollectingValue
	return []models.Reply{models.TextReply(fmt.Sprintf("Введите новое значение для %s:", field))}
}

// applyEdit validates and writes the single replaced field, then returns to
// Idle. Validation failures re-prompt without leaving the state.
func (e *Engine) applyEdit(session *Session, value string) []models.Reply {
	profile, ok := e.deps.Profiles.Get(session.UserID)
	if !ok {
		session.ClearFlow()
		return []models.Reply{models.TextReply("Вы не зарегистрированы.")}
	}

	field := models.ProfileField(session.PendingValue(models.DataKeyEditField))
	value = strings.TrimSpace(value)
	switch field {
	case models.FieldName:
		profile.Name = value
	case models.FieldSurname:
		profile.Surname = value
	case models.FieldPhone:
		if !ValidPhone(value) {
			return []models.Reply{models.TextReply("Номер телефона неверен. Формат: только цифры, можно '+' в начале, длина 10-15.")}
		}
		profile.Phone = value
	case models.FieldEmail:
		if !ValidEmail(value) {
			return []models.Reply{models.TextReply("Неправильный формат email. Пожалуйста, введите корректный адрес.")}
		}
		profile.Email = value
	default:
		session.ClearFlow()
		return []models.Reply{models.TextReply("Неизвестное поле. Начните редактирование заново.")}
	}

	if err := e.deps.Profiles.Upsert(session.UserID, profile); err != nil {
		slog.Error("Engine.applyEdit: profile update failed", "userID", session.UserID, "field", field, "error", err)
		session.ClearFlow()
		return []models.Reply{models.TextReply("Не удалось сохранить изменения. Попробуйте позже.")}
	}
	session.ClearFlow()

	label := string(field)
	label = strings.ToUpper(label[:1]) + label[1:]
	return []models.Reply{models.TextReply(fmt.Sprintf("%s успешно обновлено.", label))}
}
