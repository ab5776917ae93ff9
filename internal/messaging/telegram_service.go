package messaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aio-labs/aio-bot/internal/models"
)

// TelegramService implements Service over the Telegram Bot API. User IDs on
// the wire are the decimal Telegram user IDs; for private chats they double
// as the chat ID.
type TelegramService struct {
	bot    *tgbotapi.BotAPI
	events chan models.Event
	done   chan struct{}
}

// NewTelegramService authenticates against the Bot API with the given token.
func NewTelegramService(token string) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	slog.Info("TelegramService: authenticated", "username", bot.Self.UserName)
	return &TelegramService{
		bot:    bot,
		events: make(chan models.Event, DefaultChannelBufferSize),
		done:   make(chan struct{}),
	}, nil
}

// Start begins long-polling for updates and pumping them into Events.
func (s *TelegramService) Start(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := s.bot.GetUpdatesChan(cfg)

	go func() {
		defer close(s.events)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				s.handleUpdate(update)
			}
		}
	}()
	slog.Debug("TelegramService: update pump started")
	return nil
}

// Stop stops polling. The events channel closes once the pump drains.
func (s *TelegramService) Stop() error {
	s.bot.StopReceivingUpdates()
	close(s.done)
	slog.Info("TelegramService: stopped")
	return nil
}

// Events returns the channel of inbound events.
func (s *TelegramService) Events() <-chan models.Event {
	return s.events
}

func (s *TelegramService) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		// Acknowledge so the client stops the button spinner.
		if _, err := s.bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			slog.Warn("TelegramService: callback ack failed", "error", err)
		}
	}
	event, ok := convertUpdate(update)
	if !ok {
		return
	}
	select {
	case s.events <- event:
	default:
		slog.Warn("TelegramService: events channel full, dropping update", "userID", event.UserID, "kind", event.Kind)
	}
}

// convertUpdate maps a Telegram update to an inbound engine event.
func convertUpdate(update tgbotapi.Update) (models.Event, bool) {
	if cq := update.CallbackQuery; cq != nil && cq.From != nil {
		return models.Event{
			Kind:   models.EventCallback,
			UserID: strconv.FormatInt(cq.From.ID, 10),
			Text:   cq.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return models.Event{}, false
	}
	userID := strconv.FormatInt(msg.From.ID, 10)

	if msg.Document != nil {
		return models.Event{
			Kind:   models.EventDocument,
			UserID: userID,
			Document: &models.DocumentRef{
				FileID:   msg.Document.FileID,
				FileName: msg.Document.FileName,
			},
		}, true
	}
	if msg.IsCommand() {
		return models.Event{Kind: models.EventCommand, UserID: userID, Text: msg.Command()}, true
	}
	if msg.Text != "" {
		return models.Event{Kind: models.EventText, UserID: userID, Text: msg.Text}, true
	}
	return models.Event{}, false
}

// SendMessage sends plain text to the user.
func (s *TelegramService) SendMessage(ctx context.Context, userID string, body string) error {
	return s.SendReply(ctx, userID, models.TextReply(body))
}

// SendReply delivers one engine reply.
func (s *TelegramService) SendReply(ctx context.Context, userID string, reply models.Reply) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	var msg tgbotapi.Chattable
	if reply.DocumentPath != "" {
		msg = tgbotapi.NewDocument(chatID, tgbotapi.FilePath(reply.DocumentPath))
	} else {
		text := tgbotapi.NewMessage(chatID, reply.Text)
		text.ReplyMarkup = toReplyMarkup(reply.Keyboard)
		msg = text
	}

	if _, err := s.bot.Send(msg); err != nil {
		slog.Error("TelegramService.SendReply: send failed", "userID", userID, "error", err)
		return fmt.Errorf("send to %s: %w", userID, err)
	}
	return nil
}

// toReplyMarkup converts the engine's keyboard model to Bot API markup.
// Returns nil for a nil keyboard.
func toReplyMarkup(kb *models.Keyboard) interface{} {
	if kb == nil {
		return nil
	}
	if kb.Inline {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
			}
			rows = append(rows, buttons)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Label))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}

// Fetch downloads an uploaded document's bytes by file ID.
func (s *TelegramService) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	file, err := s.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}
	url := file.Link(s.bot.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file %s: unexpected status %d", fileID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
