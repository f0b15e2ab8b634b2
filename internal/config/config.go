// Пакет config — загрузка и валидация конфигурации Download Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Download Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера. Должен превышать DownloadTimeout,
	// иначе streaming длинных скачиваний будет оборван сервером.
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- yt-dlp ---

	// Путь к бинарнику yt-dlp (по умолчанию из PATH)
	YtdlpPath string
	// Таймаут извлечения метаданных (по умолчанию 30s)
	ExtractTimeout time.Duration
	// Таймаут скачивания — щедрый, транскодирование/merge медленные
	// (по умолчанию 300s)
	DownloadTimeout time.Duration
	// Таймаут резолва прямого URL потока (по умолчанию 15s)
	StreamTimeout time.Duration
	// Максимум байт захвата stdout/stderr подпроцесса (по умолчанию 32 MiB)
	MaxOutputBytes int64

	// --- Артефакты ---

	// Scratch-каталог transient-файлов (по умолчанию ./downloads)
	DownloadsDir string
	// Интервал периодического sweep (по умолчанию 1h)
	SweepInterval time.Duration
	// Окно retention: файлы строго старше удаляются sweep'ом (по умолчанию 1h)
	RetentionWindow time.Duration

	// --- Admission control ---

	// Максимум запросов на клиента за окно (по умолчанию 20)
	RateLimit int
	// Окно rate limit (по умолчанию 15m)
	RateWindow time.Duration

	// --- Кэш extract ---

	// Максимум записей LRU-кэша (по умолчанию 256)
	CacheSize int
	// TTL записи кэша (по умолчанию 5m)
	CacheTTL time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DM_PORT — порт HTTP-сервера (по умолчанию 3001)
	cfg.Port, err = getEnvInt("DM_PORT", 3001)
	if err != nil {
		return nil, fmt.Errorf("DM_PORT: %w", err)
	}

	// DM_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("DM_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("DM_LOG_LEVEL: %w", err)
	}

	// DM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DM_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("DM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_HTTP_READ_TIMEOUT: %w", err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration("DM_HTTP_WRITE_TIMEOUT", 600*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("DM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("DM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- yt-dlp ---

	cfg.YtdlpPath = getEnvDefault("DM_YTDLP_PATH", "yt-dlp")

	cfg.ExtractTimeout, err = getEnvDuration("DM_EXTRACT_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_EXTRACT_TIMEOUT: %w", err)
	}

	cfg.DownloadTimeout, err = getEnvDuration("DM_DOWNLOAD_TIMEOUT", 300*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_DOWNLOAD_TIMEOUT: %w", err)
	}

	cfg.StreamTimeout, err = getEnvDuration("DM_STREAM_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_STREAM_TIMEOUT: %w", err)
	}

	cfg.MaxOutputBytes, err = getEnvInt64("DM_MAX_OUTPUT_BYTES", 32<<20)
	if err != nil {
		return nil, fmt.Errorf("DM_MAX_OUTPUT_BYTES: %w", err)
	}
	if cfg.MaxOutputBytes <= 0 {
		return nil, fmt.Errorf("DM_MAX_OUTPUT_BYTES: значение должно быть > 0")
	}

	// --- Артефакты ---

	cfg.DownloadsDir = getEnvDefault("DM_DOWNLOADS_DIR", "./downloads")

	cfg.SweepInterval, err = getEnvDuration("DM_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DM_SWEEP_INTERVAL: %w", err)
	}

	cfg.RetentionWindow, err = getEnvDuration("DM_RETENTION_WINDOW", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DM_RETENTION_WINDOW: %w", err)
	}

	// --- Admission control ---

	cfg.RateLimit, err = getEnvInt("DM_RATE_LIMIT", 20)
	if err != nil {
		return nil, fmt.Errorf("DM_RATE_LIMIT: %w", err)
	}
	if cfg.RateLimit < 1 {
		return nil, fmt.Errorf("DM_RATE_LIMIT: значение должно быть >= 1")
	}

	cfg.RateWindow, err = getEnvDuration("DM_RATE_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DM_RATE_WINDOW: %w", err)
	}

	// --- Кэш extract ---

	cfg.CacheSize, err = getEnvInt("DM_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("DM_CACHE_SIZE: %w", err)
	}

	cfg.CacheTTL, err = getEnvDuration("DM_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DM_CACHE_TTL: %w", err)
	}

	// Write timeout обязан покрывать самое долгое скачивание
	if cfg.HTTPWriteTimeout <= cfg.DownloadTimeout {
		return nil, fmt.Errorf("DM_HTTP_WRITE_TIMEOUT (%s) должен превышать DM_DOWNLOAD_TIMEOUT (%s)",
			cfg.HTTPWriteTimeout, cfg.DownloadTimeout)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64-значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
