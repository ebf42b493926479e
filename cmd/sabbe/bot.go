package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mckalmarchik/sabbe/internal/bot"
	"github.com/mckalmarchik/sabbe/internal/config"
	"github.com/mckalmarchik/sabbe/internal/storage/postgres"
)

func runBot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.BotToken == "" {
		return fmt.Errorf("bot token is required")
	}
	if cfg.SupportChatID == 0 {
		return fmt.Errorf("support chat id is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("telegram init: %w", err)
	}

	b := bot.New(api, store, bot.Config{
		SupportChatID:     cfg.SupportChatID,
		DevChatID:         cfg.DevChatID,
		WelcomeMessage:    cfg.WelcomeMessage,
		ErrorMessage:      cfg.ErrorMessage,
		QuestionPrompt:    cfg.QuestionPrompt,
		QuestionSent:      cfg.QuestionSent,
		NewQuestionButton: cfg.NewQuestionButton,
		Level1Name:        cfg.Level1Name,
		Level2Name:        cfg.Level2Name,
		Level3Name:        cfg.Level3Name,
	}, logger)

	logger.Info("bot start",
		zap.Int64("support_chat_id", cfg.SupportChatID),
		zap.Int64("dev_chat_id", cfg.DevChatID),
	)

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
