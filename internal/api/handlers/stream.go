// stream.go — обработчик GET /api/stream/{format_id}?url=...
// Редиректит клиента на прямой воспроизводимый URL, полученный от yt-dlp.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/orbit/download-module/internal/api/errors"
	"github.com/bigkaa/orbit/download-module/internal/domain/model"
)

// HandleStream — реализация GET /api/stream/{format_id}.
func (h *APIHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	formatID := chi.URLParam(r, "format_id")
	url := r.URL.Query().Get("url")

	if url == "" {
		apierrors.BadRequest(w, "URL is required")
		return
	}
	if err := model.ValidateURL(url); err != nil {
		apierrors.BadRequest(w, "Invalid URL format.")
		return
	}

	streamURL, err := h.streams.Resolve(r.Context(), formatID, url)
	if err != nil {
		h.logger.Error("Ошибка резолва потока",
			slog.String("format_id", formatID),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Streaming failed", "")
		return
	}

	http.Redirect(w, r, streamURL, http.StatusFound)
}
