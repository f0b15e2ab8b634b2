// main.go — точка входа Download Module.
// Собирает зависимости: config, logger, scratch-каталог со sweep'ом,
// runner, клиент yt-dlp, сервисы, HTTP-сервер с admission control.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/exec"

	"github.com/joho/godotenv"

	"github.com/bigkaa/orbit/download-module/internal/api/handlers"
	"github.com/bigkaa/orbit/download-module/internal/api/middleware"
	"github.com/bigkaa/orbit/download-module/internal/artifact"
	"github.com/bigkaa/orbit/download-module/internal/config"
	"github.com/bigkaa/orbit/download-module/internal/runner"
	"github.com/bigkaa/orbit/download-module/internal/server"
	"github.com/bigkaa/orbit/download-module/internal/service"
	"github.com/bigkaa/orbit/download-module/internal/ytdlp"
)

func main() {
	// 1. Загрузка .env (отсутствие файла — не ошибка) и конфигурации
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Download Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("downloads_dir", cfg.DownloadsDir),
	)

	// 3. Проверка доступности yt-dlp
	if _, err := exec.LookPath(cfg.YtdlpPath); err != nil {
		logger.Warn("yt-dlp не найден, extract/download будут завершаться ошибкой",
			slog.String("path", cfg.YtdlpPath),
			slog.String("error", err.Error()),
		)
	}

	// 4. Scratch-каталог артефактов + периодический sweep
	artifacts, err := artifact.New(cfg.DownloadsDir, cfg.RetentionWindow, cfg.SweepInterval, logger)
	if err != nil {
		log.Fatalf("Ошибка инициализации scratch-каталога: %v", err)
	}
	artifacts.Start(context.Background())
	defer artifacts.Stop()

	// 5. Runner и клиент yt-dlp
	procRunner := runner.New(cfg.MaxOutputBytes, logger)
	ytdlpClient := ytdlp.New(
		procRunner,
		cfg.YtdlpPath,
		cfg.ExtractTimeout,
		cfg.DownloadTimeout,
		cfg.StreamTimeout,
		logger,
	)

	// 6. Сервисный слой
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	extractSvc := service.NewExtractService(ytdlpClient, cache, logger)
	downloadSvc := service.NewDownloadService(ytdlpClient, artifacts, logger)
	streamSvc := service.NewStreamService(ytdlpClient, logger)

	// 7. HTTP-обработчики
	healthHandler := handlers.NewHealthHandler()
	apiHandler := handlers.NewAPIHandler(healthHandler, extractSvc, downloadSvc, streamSvc, logger)

	// 8. Admission control — только для маршрутов /api/
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)

	// 9. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, apiHandler,
		[]func(http.Handler) http.Handler{
			middleware.MetricsMiddleware(),
			middleware.RequestLogger(logger),
		},
		[]func(http.Handler) http.Handler{
			rateLimiter.Middleware(),
		},
	)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("Download Module остановлен")
}
