package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	msgNoSuchUser  = "⚠ Этого пользователя *не* существует!"
	msgBadArgs     = "⚠ Укажите аргументы команды\nПример: %s"
	msgBanned      = "⚠ Ви *заблоковані* у боті!"
	msgPrivateOnly = "Данную команду можно использовать только в личных сообщениях с ботом."
)

// handleStart registers the user on first contact and shows the main menu.
// Works only in private chats.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.Chat.IsPrivate() {
		return b.reply(msg, msgPrivateOnly)
	}

	_, exists, err := b.store.Get(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if !exists {
		if err := b.store.Create(ctx, Profile{
			ID:       msg.From.ID,
			Username: msg.From.UserName,
			Access:   AccessNone,
		}); err != nil {
			return err
		}
		b.logger.Info("new user", zap.Int64("user_id", msg.From.ID), zap.String("username", msg.From.UserName))
	}

	welcome := tgbotapi.NewMessage(msg.Chat.ID, b.cfg.WelcomeMessage)
	welcome.ParseMode = tgbotapi.ModeMarkdown
	welcome.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(b.cfg.NewQuestionButton)),
	)
	_, err = b.api.Send(welcome)
	return err
}

// handleGetChatID reports the chat and user identifiers, mainly for wiring
// the support and dev chats.
func (b *Bot) handleGetChatID(_ context.Context, msg *tgbotapi.Message) error {
	return b.send(msg.Chat.ID, fmt.Sprintf("Chat id is: *%d*\nYour id is: *%d*", msg.Chat.ID, msg.From.ID))
}

// handleNewQuestion puts the chat into question mode unless the user is
// banned.
func (b *Bot) handleNewQuestion(ctx context.Context, msg *tgbotapi.Message) error {
	profile, ok, err := b.store.Get(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if ok && profile.Banned {
		return b.send(msg.Chat.ID, msgBanned)
	}

	if err := b.send(msg.Chat.ID, b.cfg.QuestionPrompt); err != nil {
		return err
	}
	b.setState(msg.Chat.ID, stateAwaitingQuestion)
	return nil
}

// handleQuestion forwards the pending question, text or photo, to the
// support chat with a ready-made answer command.
func (b *Bot) handleQuestion(_ context.Context, msg *tgbotapi.Message) error {
	b.setState(msg.Chat.ID, stateIdle)

	who := "Ник не установлен"
	if msg.Chat.UserName != "" {
		who = "@" + msg.Chat.UserName
	}

	text := msg.Text
	if len(msg.Photo) > 0 {
		text = msg.Caption
	}
	forwarded := fmt.Sprintf(
		"✉ | Новый вопрос\nОт: %s\nВопрос: `%s`\n\n📝 Чтобы ответить на вопрос введите `/ответ %d Ваш ответ`",
		who, text, msg.Chat.ID,
	)

	if err := b.reply(msg, b.cfg.QuestionSent); err != nil {
		return err
	}

	if len(msg.Photo) > 0 {
		photo := tgbotapi.NewPhoto(b.cfg.SupportChatID, tgbotapi.FileID(msg.Photo[0].FileID))
		photo.Caption = forwarded
		photo.ParseMode = tgbotapi.ModeMarkdown
		_, err := b.api.Send(photo)
		return err
	}
	return b.send(b.cfg.SupportChatID, forwarded)
}

// handleAnswer delivers a staff answer to the asking chat. Requires support
// access.
func (b *Bot) handleAnswer(ctx context.Context, msg *tgbotapi.Message) error {
	level, err := b.access(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if level < AccessSupport {
		return nil
	}

	arguments := args(msg.Text)
	if len(arguments) < 2 {
		return b.reply(msg, fmt.Sprintf(msgBadArgs, "`/ответ 516712732 Ваш ответ`"))
	}

	chatID, err := strconv.ParseInt(arguments[0], 10, 64)
	if err != nil {
		return err
	}
	answer := strings.Join(arguments[1:], " ")

	if err := b.reply(msg, "✅ Вы успешно ответили на вопрос!"); err != nil {
		return err
	}
	return b.send(chatID, fmt.Sprintf("✉ Новое уведомление!\n\n`%s`", answer))
}

// handleGiveAccess sets a user's access level, 0 through 3. Requires admin
// access.
func (b *Bot) handleGiveAccess(ctx context.Context, msg *tgbotapi.Message) error {
	level, err := b.access(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if level < AccessAdmin {
		return nil
	}

	arguments := args(msg.Text)
	if len(arguments) != 2 {
		return b.reply(msg, fmt.Sprintf(msgBadArgs, "`/доступ 516712372 1`"))
	}

	userID, err := strconv.ParseInt(arguments[0], 10, 64)
	if err != nil {
		return err
	}
	granted, err := strconv.Atoi(arguments[1])
	if err != nil {
		return err
	}

	var outcome string
	switch granted {
	case AccessNone:
		outcome = "✅ Вы успешно сняли все доступы с этого человека!"
	case AccessSupport:
		outcome = fmt.Sprintf("✅ Вы успешно выдали доступ *%s* данному человеку!", b.cfg.Level1Name)
	case AccessModer:
		outcome = fmt.Sprintf("✅ Вы успешно выдали доступ *%s* данному человеку!", b.cfg.Level2Name)
	case AccessAdmin:
		outcome = fmt.Sprintf("✅ Вы успешно выдали доступ *%s* данному человеку!", b.cfg.Level3Name)
	default:
		return b.reply(msg, "⚠ Максимальный уровень доступа: *3*")
	}

	_, exists, err := b.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return b.reply(msg, msgNoSuchUser)
	}

	if err := b.store.SetAccess(ctx, userID, granted); err != nil {
		return err
	}
	return b.reply(msg, outcome)
}

// handleBan bans a user and notifies them with the reason. Requires
// moderator access.
func (b *Bot) handleBan(ctx context.Context, msg *tgbotapi.Message) error {
	level, err := b.access(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if level < AccessModer {
		return nil
	}

	arguments := args(msg.Text)
	if len(arguments) != 2 {
		return b.reply(msg, fmt.Sprintf(msgBadArgs, "`/бан 51623722 Причина`"))
	}

	userID, err := strconv.ParseInt(arguments[0], 10, 64)
	if err != nil {
		return err
	}
	reason := arguments[1]

	_, exists, err := b.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return b.reply(msg, msgNoSuchUser)
	}

	if err := b.store.SetBan(ctx, userID, true); err != nil {
		return err
	}
	if err := b.reply(msg, fmt.Sprintf("✅ Вы успешно забанили этого пользователя\nПричина: `%s`", reason)); err != nil {
		return err
	}
	return b.send(userID, fmt.Sprintf("⚠ Администратор *заблокировал* Вас в боте\nПричина: `%s`", reason))
}

// handleUnban lifts a ban and notifies the user. Requires moderator access.
func (b *Bot) handleUnban(ctx context.Context, msg *tgbotapi.Message) error {
	level, err := b.access(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if level < AccessModer {
		return nil
	}

	arguments := args(msg.Text)
	if len(arguments) != 1 {
		return b.reply(msg, fmt.Sprintf(msgBadArgs, "`/разбан 516272834`"))
	}

	userID, err := strconv.ParseInt(arguments[0], 10, 64)
	if err != nil {
		return err
	}

	_, exists, err := b.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return b.reply(msg, msgNoSuchUser)
	}

	if err := b.store.SetBan(ctx, userID, false); err != nil {
		return err
	}
	if err := b.reply(msg, "✅ Вы успешно разблокировали этого пользователя"); err != nil {
		return err
	}
	return b.send(userID, "⚠ Администратор *разблокировал* Вас в боте!")
}

// handleID resolves a username to a user ID.
func (b *Bot) handleID(ctx context.Context, msg *tgbotapi.Message) error {
	arguments := args(msg.Text)
	if len(arguments) != 1 {
		return b.reply(msg, fmt.Sprintf(msgBadArgs, "`/айди nosemka`"))
	}

	username := strings.TrimPrefix(arguments[0], "@")
	userID, exists, err := b.store.IDByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return b.reply(msg, msgNoSuchUser)
	}
	return b.reply(msg, fmt.Sprintf("🆔 %d", userID))
}
