package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aio-labs/aio-bot/internal/models"
)

// handleDocument stores an uploaded file in the blob store.
func (e *Engine) handleDocument(ctx context.Context, session *Session, doc *models.DocumentRef) []models.Reply {
	if doc == nil {
		return nil
	}
	data, err := e.deps.Files.Fetch(ctx, doc.FileID)
	if err != nil {
		slog.Error("Engine.handleDocument: download failed", "userID", session.UserID, "fileID", doc.FileID, "error", err)
		return []models.Reply{models.TextReply("Не удалось получить файл. Попробуйте ещё раз.")}
	}
	name, err := e.deps.Blobs.Save(data, doc.FileName)
	if err != nil {
		return []models.Reply{models.TextReply("Не удалось сохранить файл.")}
	}
	return []models.Reply{models.TextReply(fmt.Sprintf("Файл '%s' сохранён.", name))}
}

// listFiles renders the stored files as an inline download keyboard.
func (e *Engine) listFiles() []models.Reply {
	names, err := e.deps.Blobs.List()
	if err != nil {
		slog.Error("Engine.listFiles: listing failed", "error", err)
		return []models.Reply{models.TextReply("Не удалось получить список файлов.")}
	}
	if len(names) == 0 {
		return []models.Reply{models.TextReply("Нет файлов.")}
	}
	return []models.Reply{models.KeyboardReply("Выбери файл:", FileListKeyboard(names))}
}

// sendFile resolves a download callback to the stored file.
func (e *Engine) sendFile(name string) []models.Reply {
	path, ok := e.deps.Blobs.Path(name)
	if !ok {
		return []models.Reply{models.TextReply("Файл не найден.")}
	}
	return []models.Reply{{DocumentPath: path}}
}
