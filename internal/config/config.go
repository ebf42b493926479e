package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Network    string
	RPCURL     string
	PrivateKey string
	MinDelay   time.Duration
	MaxDelay   time.Duration
	LogLevel   string

	BotToken      string
	SupportChatID int64
	DevChatID     int64
	PGDSN         string

	WelcomeMessage    string
	ErrorMessage      string
	QuestionPrompt    string
	QuestionSent      string
	NewQuestionButton string
	Level1Name        string
	Level2Name        string
	Level3Name        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SABBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", "zkEra")
	v.SetDefault("min-delay", 30*time.Second)
	v.SetDefault("max-delay", 60*time.Second)
	v.SetDefault("log-level", "info")

	v.SetDefault("welcome-message", "👋 Добро пожаловать в бота поддержки!")
	v.SetDefault("error-message", "⚠ Произошла ошибка, попробуйте позже")
	v.SetDefault("question-prompt", "✏ Напишите Ваш вопрос одним сообщением")
	v.SetDefault("question-sent", "✅ Ваш вопрос отправлен в поддержку!")
	v.SetDefault("new-question-button", "❓ Новый вопрос")
	v.SetDefault("level1-name", "Саппорт")
	v.SetDefault("level2-name", "Модератор")
	v.SetDefault("level3-name", "Администратор")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Network:    v.GetString("network"),
		RPCURL:     v.GetString("rpc"),
		PrivateKey: v.GetString("private-key"),
		MinDelay:   v.GetDuration("min-delay"),
		MaxDelay:   v.GetDuration("max-delay"),
		LogLevel:   v.GetString("log-level"),

		BotToken:      v.GetString("bot-token"),
		SupportChatID: v.GetInt64("support-chat-id"),
		DevChatID:     v.GetInt64("dev-chat-id"),
		PGDSN:         v.GetString("pg-dsn"),

		WelcomeMessage:    v.GetString("welcome-message"),
		ErrorMessage:      v.GetString("error-message"),
		QuestionPrompt:    v.GetString("question-prompt"),
		QuestionSent:      v.GetString("question-sent"),
		NewQuestionButton: v.GetString("new-question-button"),
		Level1Name:        v.GetString("level1-name"),
		Level2Name:        v.GetString("level2-name"),
		Level3Name:        v.GetString("level3-name"),
	}

	return cfg, nil
}
