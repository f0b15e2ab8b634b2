// handler.go — основной обработчик API Download Module.
// Объединяет health и бизнес-обработчики, объявляет маршруты и 404.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/orbit/download-module/internal/domain/model"
)

// Extractor — сервис извлечения метаданных.
type Extractor interface {
	Extract(ctx context.Context, url string) (*model.ExtractionResult, error)
}

// Downloader — оркестратор скачивания, стримит артефакт прямо в ResponseWriter.
type Downloader interface {
	Download(ctx context.Context, w http.ResponseWriter, req model.DownloadRequest) error
}

// StreamResolver — резолвер прямого URL потока.
type StreamResolver interface {
	Resolve(ctx context.Context, formatID, url string) (string, error)
}

// availableEndpoints — список маршрутов для тела 404-ответа.
var availableEndpoints = []string{
	"GET /health",
	"POST /api/extract",
	"POST /api/download",
	"GET /api/stream/{format_id}?url=...",
}

// APIHandler — основной обработчик API Download Module.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	health     *HealthHandler
	extractor  Extractor
	downloader Downloader
	streams    StreamResolver
	logger     *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	extractor Extractor,
	downloader Downloader,
	streams StreamResolver,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:     health,
		extractor:  extractor,
		downloader: downloader,
		streams:    streams,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// Register объявляет маршруты API на router.
// apiMiddlewares применяются только к маршрутам под /api/ (admission control).
func (h *APIHandler) Register(router chi.Router, apiMiddlewares ...func(http.Handler) http.Handler) {
	router.Get("/health", h.health.Health)
	router.Get("/metrics", h.health.GetMetrics)

	router.Route("/api", func(r chi.Router) {
		for _, mw := range apiMiddlewares {
			r.Use(mw)
		}
		r.Post("/extract", h.HandleExtract)
		r.Post("/download", h.HandleDownload)
		r.Get("/stream/{format_id}", h.HandleStream)
	})

	router.NotFound(h.NotFound)
	router.MethodNotAllowed(h.NotFound)
}

// NotFound — ответ на несуществующий маршрут: 404 со списком endpoints.
func (h *APIHandler) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":              "Endpoint not found",
		"availableEndpoints": availableEndpoints,
	})
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
