// extract.go — сервис извлечения метаданных видео.
// Pipeline: кэш → yt-dlp --dump-json → нормализация → кэш.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/orbit/download-module/internal/domain/model"
	"github.com/bigkaa/orbit/download-module/internal/ytdlp"
)

// Prometheus-метрики extract.
var (
	extractsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_extracts_total",
		Help: "Общее количество запросов extract (по статусу).",
	}, []string{"status"})

	extractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dm_extract_duration_seconds",
		Help:    "Длительность извлечения метаданных (включая подпроцесс).",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// MetadataDumper — источник сырых метаданных видео.
// Реализуется *ytdlp.Client.
type MetadataDumper interface {
	DumpMetadata(ctx context.Context, url string) ([]byte, error)
}

// ExtractService — сервис извлечения метаданных.
type ExtractService struct {
	dumper MetadataDumper
	cache  *CacheService
	logger *slog.Logger
}

// NewExtractService создаёт сервис извлечения метаданных.
func NewExtractService(dumper MetadataDumper, cache *CacheService, logger *slog.Logger) *ExtractService {
	return &ExtractService{
		dumper: dumper,
		cache:  cache,
		logger: logger.With(slog.String("component", "extract_service")),
	}
}

// Extract возвращает нормализованные метаданные видео по URL.
// Результат кэшируется по URL; повторный запрос в пределах TTL кэша
// не запускает подпроцесс.
func (es *ExtractService) Extract(ctx context.Context, url string) (*model.ExtractionResult, error) {
	start := time.Now()

	if result, ok := es.cache.Get(url); ok {
		extractsTotal.WithLabelValues("cache_hit").Inc()
		return result, nil
	}

	raw, err := es.dumper.DumpMetadata(ctx, url)
	if err != nil {
		extractsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	result, err := ytdlp.Normalize(raw, url)
	if err != nil {
		extractsTotal.WithLabelValues("malformed").Inc()
		return nil, err
	}

	es.cache.Set(url, result)

	extractsTotal.WithLabelValues("success").Inc()
	extractDuration.Observe(time.Since(start).Seconds())

	es.logger.Info("Extract завершён",
		slog.String("title", result.Title),
		slog.String("platform", result.PlatformKey),
		slog.Int("formats", len(result.FormatsByQuality)),
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}
