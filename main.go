// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Clean1ines/nexustag/pkg/api"
	"github.com/Clean1ines/nexustag/pkg/api/client"
	"github.com/Clean1ines/nexustag/pkg/audio"
	"github.com/Clean1ines/nexustag/pkg/config"
	"github.com/Clean1ines/nexustag/pkg/health"
	"github.com/Clean1ines/nexustag/pkg/lifecycle"
	"github.com/Clean1ines/nexustag/pkg/logging"
	"github.com/Clean1ines/nexustag/pkg/metadata"
	"github.com/Clean1ines/nexustag/pkg/pipeline"
	"github.com/Clean1ines/nexustag/pkg/pubsub"
	"github.com/Clean1ines/nexustag/pkg/storage"
	"github.com/Clean1ines/nexustag/pkg/tagging"
	"github.com/Clean1ines/nexustag/pkg/telegram"
	"github.com/Clean1ines/nexustag/pkg/telegram/handler"
	"github.com/Clean1ines/nexustag/pkg/telegram/middleware"
	"github.com/Clean1ines/nexustag/pkg/telegram/service"
)

func main() {
	// Конфигурация: отсутствие BOT_TOKEN — фатальная ошибка запуска.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	// Инициализация Cloud Logging для структурированных логов.
	logger, err := logging.New(cfg.ProjectID, "nexustag")
	if err != nil {
		log.Fatalf("Ошибка инициализации Cloud Logging: %v", err)
	}
	defer logger.Flush()

	// Подключение к Redis: отложенные корректировки и rate limiting.
	rdb, err := storage.NewClient(cfg.RedisAddress)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	pending := storage.NewPendingStore(rdb, cfg.PendingTTL())

	ctx := context.Background()

	// Очередь фоновых задач в Pub/Sub.
	queue, err := pubsub.NewTaskQueue(ctx, cfg.ProjectID, cfg.TaskTopic, cfg.TaskSub, logger)
	if err != nil {
		log.Fatalf("Ошибка инициализации Pub/Sub: %v", err)
	}

	botAPI, err := telegram.NewAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Ошибка инициализации Telegram-бота: %v", err)
	}

	httpClient := client.New(client.DefaultConcurrencyLimit, cfg.RequestTimeout())

	// Конвейер разрешения метаданных: отпечаток, затем каталожный поиск.
	engines := []metadata.Identifier{
		api.NewFingerprintService(cfg.RecognitionURL, cfg.RecognitionKey, httpClient, logger),
		api.NewCatalogService(cfg.CatalogURL, httpClient, logger),
	}
	normalizer := audio.NewNormalizer(cfg.FFmpegPath, cfg.SpoolDir, cfg.TranscodeTimeout(), logger)
	pipe := pipeline.New(normalizer, engines, httpClient, tagging.NewInjector(), pending, logger)

	// Пул воркеров обработки задач.
	processor := service.NewProcessor(botAPI, pipe, logger)
	go queue.StartWorkerPool(ctx, cfg.Workers, processor.HandleTask)

	// Уборка просроченных артефактов брошенных корректировок.
	go lifecycle.Sweep(ctx, cfg.SpoolDir, cfg.PendingTTL(), time.Hour, logger)

	// HTTP-сервер для проверки работоспособности.
	go func() {
		http.HandleFunc("/health", health.HealthHandler)
		srv := &http.Server{
			Addr:         ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		logger.Infof("HTTP-сервер слушает порт %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil {
			logger.Errorf("Ошибка HTTP-сервера: %v", err)
		}
	}()

	// Приём сообщений Telegram.
	ms := service.NewMessageService(botAPI, queue, pending, httpClient, cfg.SpoolDir, logger)
	h := handler.NewMessageHandler(ms, middleware.NewRateLimiter(rdb))
	telegram.NewBot(botAPI, h, logger).Start()
}
