// pkg/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresBotToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("NEXUSTAG_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("Ожидалась ошибка при отсутствии BOT_TOKEN")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("NEXUSTAG_CONFIG", "")
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RedisAddress != "localhost:6379" {
		t.Errorf("Адрес Redis по умолчанию: %q", cfg.RedisAddress)
	}
	if cfg.Port != "8080" || cfg.Workers != 5 {
		t.Errorf("Порт/воркеры по умолчанию: %q/%d", cfg.Port, cfg.Workers)
	}
	if cfg.TranscodeTimeout() != 120*time.Second {
		t.Errorf("Таймаут транскодирования: %v", cfg.TranscodeTimeout())
	}
	if cfg.PendingTTL() != 24*time.Hour {
		t.Errorf("TTL отложенных задач: %v", cfg.PendingTTL())
	}
}

func TestLoadTOMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexustag.toml")
	body := "redis_address = \"toml-redis:6379\"\nport = \"9000\"\nworkers = 2\npending_ttl_hours = 6\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("NEXUSTAG_CONFIG", path)
	t.Setenv("REDIS_ADDRESS", "env-redis:6379")
	t.Setenv("PORT", "")
	t.Setenv("RECOGNITION_API_KEY", "rk")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Окружение сильнее файла, файл сильнее значений по умолчанию.
	if cfg.RedisAddress != "env-redis:6379" {
		t.Errorf("Адрес Redis: %q", cfg.RedisAddress)
	}
	if cfg.Port != "9000" || cfg.Workers != 2 {
		t.Errorf("Порт/воркеры из файла: %q/%d", cfg.Port, cfg.Workers)
	}
	if cfg.PendingTTL() != 6*time.Hour {
		t.Errorf("TTL из файла: %v", cfg.PendingTTL())
	}
	if cfg.RecognitionKey != "rk" {
		t.Errorf("Ключ распознавания: %q", cfg.RecognitionKey)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("port = "), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("NEXUSTAG_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatal("Ожидалась ошибка разбора TOML")
	}
}
