// Package bot runs the Telegram support bot: users submit questions that
// are forwarded to a support chat, and staff answer or moderate with
// access-gated commands.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// API is the Telegram surface the bot uses. *tgbotapi.BotAPI satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// Config carries the chat wiring and user-facing texts.
type Config struct {
	// SupportChatID receives forwarded questions.
	SupportChatID int64
	// DevChatID receives handler error reports.
	DevChatID int64

	WelcomeMessage    string
	ErrorMessage      string
	QuestionPrompt    string
	QuestionSent      string
	NewQuestionButton string

	Level1Name string
	Level2Name string
	Level3Name string
}

// chatState is the per-chat conversation state.
type chatState int

const (
	stateIdle chatState = iota
	stateAwaitingQuestion
)

// Bot dispatches incoming Telegram updates to handlers.
type Bot struct {
	api    API
	store  ProfileStore
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	states map[int64]chatState
}

// New builds a bot over an API connection and a profile store.
func New(api API, store ProfileStore, cfg Config, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:    api,
		store:  store,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "bot")),
		states: make(map[int64]chatState),
	}
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.HandleMessage(ctx, update.Message)
		}
	}
}

// HandleMessage routes one incoming message. Handler errors are reported to
// the user and forwarded to the dev chat.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if b.state(msg.Chat.ID) == stateAwaitingQuestion {
		b.report(msg, b.handleQuestion(ctx, msg))
		return
	}

	var err error
	switch command(msg.Text) {
	case "/ответ", "/ot":
		err = b.handleAnswer(ctx, msg)
	case "/доступ", "/access":
		err = b.handleGiveAccess(ctx, msg)
	case "/бан", "/ban":
		err = b.handleBan(ctx, msg)
	case "/разбан", "/unban":
		err = b.handleUnban(ctx, msg)
	case "/айди", "/id":
		err = b.handleID(ctx, msg)
	case "/start":
		err = b.handleStart(ctx, msg)
	case "/getchatid":
		err = b.handleGetChatID(ctx, msg)
	default:
		if msg.Text == b.cfg.NewQuestionButton {
			err = b.handleNewQuestion(ctx, msg)
		}
	}
	b.report(msg, err)
}

// command returns the first word of the text, which may be a Cyrillic
// command Telegram does not mark as a bot_command entity.
func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// args returns the command arguments, the words after the command itself.
func args(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

func (b *Bot) state(chatID int64) chatState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.states[chatID]
}

func (b *Bot) setState(chatID int64, s chatState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == stateIdle {
		delete(b.states, chatID)
		return
	}
	b.states[chatID] = s
}

// access returns the caller's access level; unknown users have none.
func (b *Bot) access(ctx context.Context, userID int64) (int, error) {
	profile, ok, err := b.store.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return AccessNone, nil
	}
	return profile.Access, nil
}

func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) reply(to *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(to.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyToMessageID = to.MessageID
	_, err := b.api.Send(msg)
	return err
}

// report funnels a handler error to the user and to the dev chat.
func (b *Bot) report(msg *tgbotapi.Message, err error) {
	if err == nil {
		return
	}
	b.logger.Error("handler failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	_ = b.send(msg.Chat.ID, b.cfg.ErrorMessage)
	_ = b.send(b.cfg.DevChatID, fmt.Sprintf("Случилась *ошибка* в чате *%d*\nСтатус ошибки: `%v`", msg.Chat.ID, err))
}
