// Package bot exposes the league operations as Telegram commands.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/omarshaarawi/leaguedesk/internal/service"
)

const (
	// maxMessageLen is Telegram's limit on message text.
	maxMessageLen  = 4096
	commandTimeout = 2 * time.Minute
)

var ErrNoChat = errors.New("chat ID not set")

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramBot struct {
	api     *tgbotapi.BotAPI
	out     sender
	handler *Handler
	chatID  int64
	logger  *slog.Logger
}

// NewTelegramBot connects to Telegram. chatID is where scheduled reports go;
// commands are answered in whichever chat they arrive from.
func NewTelegramBot(token string, chatID int64, fantasyService *service.FantasyService, leagueID string, logger *slog.Logger) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TelegramBot{
		api:     api,
		out:     api,
		handler: NewHandler(fantasyService, leagueID, logger),
		chatID:  chatID,
		logger:  logger,
	}, nil
}

// Start answers commands until ctx is cancelled.
func (t *TelegramBot) Start(ctx context.Context) error {
	t.logger.Info("Authorized on account", "username", t.api.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			t.handle(ctx, update)
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *TelegramBot) handle(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	started := time.Now()
	reply := t.handler.HandleCommand(ctx, update)
	if err := t.send(reply.ChatID, reply.Text); err != nil {
		t.logger.Error("Error sending message", "command", update.Message.Command(), "error", err)
		return
	}
	t.logger.Debug("Command answered",
		"command", update.Message.Command(),
		"chat_id", reply.ChatID,
		"duration", time.Since(started),
	)
}

// SendMessage posts Markdown text to the league chat.
func (t *TelegramBot) SendMessage(text string) error {
	if t.chatID == 0 {
		return ErrNoChat
	}
	return t.send(t.chatID, text)
}

func (t *TelegramBot) send(chatID int64, text string) error {
	for _, part := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := t.out.Send(msg); err != nil {
			return fmt.Errorf("error sending message: %w", err)
		}
	}
	return nil
}

// splitMessage breaks text into chunks of at most limit bytes, preferring
// line boundaries. A single line longer than limit is cut on a rune boundary.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			flush()
		}
		cur.WriteString(line)
	}
	flush()
	return parts
}
