// stream.go — резолв прямого воспроизводимого URL для формата.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики stream.
var streamResolvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dm_stream_resolves_total",
	Help: "Общее количество резолвов прямого URL потока (по статусу).",
}, []string{"status"})

// StreamURLResolver — резолвер прямого URL потока.
// Реализуется *ytdlp.Client.
type StreamURLResolver interface {
	ResolveStreamURL(ctx context.Context, formatID, url string) (string, error)
}

// StreamService — сервис резолва прямых URL потоков.
type StreamService struct {
	resolver StreamURLResolver
	logger   *slog.Logger
}

// NewStreamService создаёт сервис резолва потоков.
func NewStreamService(resolver StreamURLResolver, logger *slog.Logger) *StreamService {
	return &StreamService{
		resolver: resolver,
		logger:   logger.With(slog.String("component", "stream_service")),
	}
}

// Resolve возвращает прямой воспроизводимый URL для формата.
func (ss *StreamService) Resolve(ctx context.Context, formatID, url string) (string, error) {
	start := time.Now()

	streamURL, err := ss.resolver.ResolveStreamURL(ctx, formatID, url)
	if err != nil {
		streamResolvesTotal.WithLabelValues("error").Inc()
		return "", err
	}

	streamResolvesTotal.WithLabelValues("success").Inc()
	ss.logger.Debug("Прямой URL потока получен",
		slog.String("format_id", formatID),
		slog.Duration("duration", time.Since(start)),
	)
	return streamURL, nil
}
