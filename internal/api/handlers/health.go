// health.go — обработчики health endpoint и Prometheus метрик.
// /health — состояние сервиса (процесс жив)
// /metrics — Prometheus метрики
package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/orbit/download-module/internal/config"
)

// serviceName — имя сервиса в ответах health.
const serviceName = "download-module"

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		promHandler: promhttp.Handler(),
	}
}

// healthResponse — ответ health endpoint.
type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Health — возвращает 200, если процесс жив.
// Доступность yt-dlp и scratch-каталога проверяется при старте сервиса.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Service:   serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
	})
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
