package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aio-labs/aio-bot/internal/genai"
	"github.com/aio-labs/aio-bot/internal/models"
)

// startChat enters GPT chat mode with a fresh history.
func (e *Engine) startChat(session *Session) []models.Reply {
	session.ClearHistory()
	session.State = models.StateChatActive
	return []models.Reply{models.KeyboardReply(
		"Вы в GPT чате. Напишите сообщение. /cancel или кнопка для выхода.",
		CloseGPTKeyboard(),
	)}
}

// chatTurn forwards one chat message through the completion pipeline.
// History is replaced only when the pipeline confirms success.
func (e *Engine) chatTurn(ctx context.Context, session *Session, text string) []models.Reply {
	if ContainsProhibitedLink(text) {
		return []models.Reply{models.TextReply("Ссылка запрещена.")}
	}

	replies := []models.Reply{models.TextReply("Обрабатываю...")}

	answer, updated, err := e.deps.Completion.Ask(ctx, session.History, text)
	if err != nil {
		return append(replies, models.KeyboardReply(completionErrorText(err), CloseGPTKeyboard()))
	}

	session.History = updated
	return append(replies, models.KeyboardReply(fmt.Sprintf("AIO:\n%s", answer), CloseGPTKeyboard()))
}

// completionErrorText phrases a classified pipeline failure for the user.
func completionErrorText(err error) string {
	var callErr *genai.CallError
	if !errors.As(err, &callErr) {
		slog.Warn("completionErrorText: unclassified error", "error", err)
		return fmt.Sprintf("Ошибка GPT: %v", err)
	}
	switch {
	case callErr.Class == genai.ClassQuota:
		return "Недостаточно квоты OpenAI."
	case callErr.RetriesExhausted:
		return fmt.Sprintf("Ошибка GPT после повторов: %v", callErr.Err)
	default:
		return fmt.Sprintf("Ошибка GPT: %v", callErr.Err)
	}
}
