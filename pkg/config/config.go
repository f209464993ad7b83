// pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config содержит все настройки сервиса. Секреты читаются только из
// переменных окружения, остальное может быть переопределено TOML-файлом,
// путь к которому задаётся переменной NEXUSTAG_CONFIG.
type Config struct {
	BotToken       string `toml:"-"`
	ProjectID      string `toml:"-"`
	RedisAddress   string `toml:"redis_address"`
	SpoolDir       string `toml:"spool_dir"`
	FFmpegPath     string `toml:"ffmpeg_path"`
	RecognitionURL string `toml:"recognition_url"`
	RecognitionKey string `toml:"-"`
	CatalogURL     string `toml:"catalog_url"`
	TaskTopic      string `toml:"task_topic"`
	TaskSub        string `toml:"task_subscription"`
	Port           string `toml:"port"`
	Workers        int    `toml:"workers"`

	TranscodeTimeoutSec int `toml:"transcode_timeout_sec"`
	RequestTimeoutSec   int `toml:"request_timeout_sec"`
	PendingTTLHours     int `toml:"pending_ttl_hours"`
}

// TranscodeTimeout возвращает лимит времени на один запуск транскодера.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.TranscodeTimeoutSec) * time.Second
}

// RequestTimeout возвращает лимит времени на один удалённый вызов.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// PendingTTL возвращает срок хранения незавершённых ручных корректировок.
func (c *Config) PendingTTL() time.Duration {
	return time.Duration(c.PendingTTLHours) * time.Hour
}

// Load собирает конфигурацию из значений по умолчанию, TOML-файла и окружения.
// Отсутствие BOT_TOKEN — фатальная ошибка запуска.
func Load() (*Config, error) {
	cfg := &Config{
		RedisAddress:        "localhost:6379",
		SpoolDir:            os.TempDir(),
		FFmpegPath:          "ffmpeg",
		RecognitionURL:      "https://amp.shazam.com/discovery/v5/recognize",
		CatalogURL:          "https://music-catalog.clean1ines.dev",
		TaskTopic:           "nexustag-tasks",
		TaskSub:             "nexustag-tasks-sub",
		Port:                "8080",
		Workers:             5,
		TranscodeTimeoutSec: 120,
		RequestTimeoutSec:   15,
		PendingTTLHours:     24,
	}

	if path := os.Getenv("NEXUSTAG_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
		}
	}

	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.RedisAddress = v
	}
	cfg.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	cfg.RecognitionKey = os.Getenv("RECOGNITION_API_KEY")
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	cfg.BotToken = os.Getenv("BOT_TOKEN")
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("переменная окружения BOT_TOKEN обязательна")
	}
	return cfg, nil
}
