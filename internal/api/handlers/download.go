// download.go — обработчик POST /api/download.
// Принимает {url, formatId?, muteAudio?}, стримит готовый артефакт клиенту.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/orbit/download-module/internal/api/errors"
	"github.com/bigkaa/orbit/download-module/internal/domain/model"
)

// downloadRequest — тело запроса download.
type downloadRequest struct {
	URL       string `json:"url"`
	FormatID  string `json:"formatId"`
	MuteAudio bool   `json:"muteAudio"`
}

// HandleDownload — реализация POST /api/download.
// При успехе тело ответа — бинарный поток артефакта; сервис удаляет
// файл сразу после завершения стрима.
func (h *APIHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		apierrors.BadRequest(w, "URL is required")
		return
	}
	if err := model.ValidateURL(req.URL); err != nil {
		apierrors.BadRequest(w, "Invalid URL format.")
		return
	}

	h.logger.Info("Download запрошен",
		slog.String("url", req.URL),
		slog.String("format_id", req.FormatID),
		slog.Bool("mute_audio", req.MuteAudio),
	)

	err := h.downloader.Download(r.Context(), w, model.DownloadRequest{
		SourceURL: req.URL,
		FormatID:  req.FormatID,
		MuteAudio: req.MuteAudio,
	})
	if err != nil {
		// Ошибка до начала streaming — заголовки ещё не отправлены
		h.logger.Error("Ошибка download",
			slog.String("url", req.URL),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Download failed. Please try again.", err.Error())
	}
}
