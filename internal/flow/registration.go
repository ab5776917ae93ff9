package flow

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aio-labs/aio-bot/internal/models"
	"github.com/aio-labs/aio-bot/internal/util"
)

// startRegistration opens the registration flow. Re-registration is
// rejected while a profile exists.
func (e *Engine) startRegistration(session *Session) []models.Reply {
	if e.deps.Profiles.Contains(session.UserID) {
		return []models.Reply{models.TextReply("Вы уже зарегистрированы. Регистрация повторно невозможна.")}
	}
	session.State = models.StateRegistrationName
	return []models.Reply{models.KeyboardReply("Введите ваше имя:", CancelRegistrationKeyboard())}
}

// advanceRegistration collects one field per message. Validation errors
// re-render the current prompt without advancing or clearing state; the
// profile is committed only on an explicit "да" at confirmation.
func (e *Engine) advanceRegistration(session *Session, text string) []models.Reply {
	switch session.State {
	case models.StateRegistrationName:
		session.SetPending(models.DataKeyName, text)
		session.State = models.StateRegistrationSurname
		return []models.Reply{models.KeyboardReply("Введите вашу фамилию:", CancelRegistrationKeyboard())}

	case models.StateRegistrationSurname:
		session.SetPending(models.DataKeySurname, text)
		session.State = models.StateRegistrationPhone
		return []models.Reply{models.KeyboardReply("Введите ваш номер телефона:", CancelRegistrationKeyboard())}

	case models.StateRegistrationPhone:
		if !ValidPhone(text) {
			return []models.Reply{models.TextReply("Номер телефона неверен. Формат: только цифры, можно '+' в начале, длина 10-15.")}
		}
		session.SetPending(models.DataKeyPhone, strings.TrimSpace(text))
		session.State = models.StateRegistrationEmail
		return []models.Reply{models.KeyboardReply("Введите вашу электронную почту:", CancelRegistrationKeyboard())}

	case models.StateRegistrationEmail:
		if !ValidEmail(text) {
			return []models.Reply{models.TextReply("Неправильный формат email. Пожалуйста, введите корректный адрес.")}
		}
		session.SetPending(models.DataKeyEmail, strings.TrimSpace(text))
		session.State = models.StateRegistrationConfirmation
		confirmation := fmt.Sprintf(
			"Пожалуйста, подтвердите введенные данные:\nИмя: %s\nФамилия: %s\nТелефон: %s\nEmail: %s\n\nЕсли все верно, введите 'да'. Если нет, введите 'нет'.",
			session.PendingValue(models.DataKeyName),
			session.PendingValue(models.DataKeySurname),
			session.PendingValue(models.DataKeyPhone),
			session.PendingValue(models.DataKeyEmail),
		)
		return []models.Reply{models.KeyboardReply(confirmation, CancelRegistrationKeyboard())}

	case models.StateRegistrationConfirmation:
		return e.confirmRegistration(session, text)
	}
	return nil
}

// confirmRegistration commits or discards the pending profile. Unrecognized
// input is a silent no-op: the machine stays at confirmation without
// re-prompting.
func (e *Engine) confirmRegistration(session *Session, text string) []models.Reply {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "да":
		profile := models.UserProfile{
			UserID:     session.UserID,
			Name:       session.PendingValue(models.DataKeyName),
			Surname:    session.PendingValue(models.DataKeySurname),
			Phone:      session.PendingValue(models.DataKeyPhone),
			Email:      session.PendingValue(models.DataKeyEmail),
			UniqueCode: util.GenerateUserCode(),
		}
		if err := e.deps.Profiles.Upsert(session.UserID, profile); err != nil {
			slog.Error("Engine.confirmRegistration: profile commit failed", "userID", session.UserID, "error", err)
			session.ClearFlow()
			return []models.Reply{models.TextReply("Не удалось сохранить данные. Попробуйте зарегистрироваться позже.")}
		}
		session.ClearFlow()
		slog.Info("Engine.confirmRegistration: profile committed", "userID", session.UserID)
		return []models.Reply{models.TextReply(fmt.Sprintf("Ваши данные сохранены. Ваш уникальный код: %s", profile.UniqueCode))}

	case "нет":
		session.ClearFlow()
		return []models.Reply{models.TextReply("Вы хотите отредактировать данные. Введите 'Регистрация' для повторного ввода.")}

	default:
		// Source behavior: unrecognized confirmation input is swallowed.
		return nil
	}
}
