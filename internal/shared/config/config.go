package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type Config struct {
	HTTPPort       string `koanf:"http_port"`
	WebhookMaxBody int64  `koanf:"webhook_max_body"`

	StoragePath   string `koanf:"storage_path"`
	SettingsFile  string `koanf:"settings_file"`
	WatchSettings bool   `koanf:"watch_settings"`

	LineAPIURL     string  `koanf:"line_api_url"`
	LineAPITimeout int     `koanf:"line_api_timeout"`
	LineAPIRate    float64 `koanf:"line_api_rate"`

	AdminUsername     string `koanf:"admin_username"`
	AdminPasswordHash string `koanf:"admin_password_hash"`

	HistoryDriver HistoryDriver `koanf:"history_driver"`
	HistoryDBPath string        `koanf:"history_db_path"`

	TelegramBotToken string `koanf:"telegram_bot_token"`
	TelegramAPIURL   string `koanf:"telegram_api_url"`
	TelegramChatID   int64  `koanf:"telegram_chat_id"`

	AppEnv AppEnv `koanf:"app_env"`
}

// LineTimeout is the per-request deadline for outbound messaging API calls.
func (c *Config) LineTimeout() time.Duration {
	return time.Duration(c.LineAPITimeout) * time.Second
}

// AlertsEnabled reports whether operator alerts should be sent over Telegram.
func (c *Config) AlertsEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

var configFiles = []string{
	"config.yaml",
	"config.yml",
	"config.json",
	"config.toml",
}

func Load() (*Config, error) {
	k := koanf.New(".")

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	driver, err := ParseHistoryDriver(k.String("history_driver"))
	if err != nil {
		return nil, oops.With("history_driver", k.String("history_driver")).Wrap(errors.ErrInvalidConfig)
	}
	cfg.HistoryDriver = driver

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID == 0 {
		return nil, oops.With("context", "telegram_chat_id is required when telegram_bot_token is set").Wrap(errors.ErrInvalidConfig)
	}

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	if !k.Exists("http_port") {
		k.Set("http_port", "3000")
	}
	if !k.Exists("webhook_max_body") {
		k.Set("webhook_max_body", 1<<20)
	}
	if !k.Exists("storage_path") {
		k.Set("storage_path", "./data")
	}
	if !k.Exists("settings_file") {
		k.Set("settings_file", filepath.Join(k.String("storage_path"), "config.json"))
	}
	if !k.Exists("watch_settings") {
		k.Set("watch_settings", true)
	}
	if !k.Exists("line_api_url") {
		k.Set("line_api_url", "https://api.line.me")
	}
	if !k.Exists("line_api_timeout") {
		k.Set("line_api_timeout", 15)
	}
	if !k.Exists("line_api_rate") {
		k.Set("line_api_rate", 20.0)
	}
	if !k.Exists("admin_username") {
		k.Set("admin_username", "admin")
	}
	if !k.Exists("history_driver") {
		k.Set("history_driver", "memory")
	}
	if !k.Exists("history_db_path") {
		k.Set("history_db_path", filepath.Join(k.String("storage_path"), "history.db"))
	}
	if !k.Exists("telegram_api_url") {
		k.Set("telegram_api_url", "https://api.telegram.org")
	}
	if !k.Exists("app_env") {
		k.Set("app_env", "production")
	}
}
