// extract.go — обработчик POST /api/extract.
// Принимает {url}, возвращает нормализованные метаданные с картой
// directLinks (tier → format id, недоступный tier → null).
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/orbit/download-module/internal/api/errors"
	"github.com/bigkaa/orbit/download-module/internal/domain/model"
	"github.com/bigkaa/orbit/download-module/internal/runner"
	"github.com/bigkaa/orbit/download-module/internal/ytdlp"
)

// extractRequest — тело запроса extract.
type extractRequest struct {
	URL string `json:"url"`
}

// directLinks — карта tier → format id; недоступный tier сериализуется в null.
type directLinks struct {
	Q1080 *string `json:"1080p"`
	Q720  *string `json:"720p"`
	Q480  *string `json:"480p"`
	Q360  *string `json:"360p"`
	Audio *string `json:"audio"`
}

// extractResponse — тело ответа extract.
type extractResponse struct {
	Title           string      `json:"title"`
	Thumbnail       string      `json:"thumbnail"`
	Duration        string      `json:"duration"`
	DurationSeconds float64     `json:"durationSeconds"`
	Size            string      `json:"size"`
	Format          string      `json:"format"`
	Author          string      `json:"author"`
	Platform        string      `json:"platform"`
	DirectLinks     directLinks `json:"directLinks"`
	OriginalURL     string      `json:"originalUrl"`
}

// HandleExtract — реализация POST /api/extract.
func (h *APIHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		apierrors.BadRequest(w, "URL is required")
		return
	}
	if err := model.ValidateURL(req.URL); err != nil {
		apierrors.BadRequest(w, "Invalid URL format.")
		return
	}

	h.logger.Info("Extract запрошен", slog.String("url", req.URL))

	result, err := h.extractor.Extract(r.Context(), req.URL)
	if err != nil {
		h.writeExtractError(w, req.URL, err)
		return
	}

	writeJSON(w, http.StatusOK, toExtractResponse(result))
}

// writeExtractError транслирует доменную ошибку extract в HTTP-ответ.
func (h *APIHandler) writeExtractError(w http.ResponseWriter, url string, err error) {
	switch {
	case errors.Is(err, ytdlp.ErrUnsupportedPlatform):
		apierrors.BadRequest(w, "This platform is not supported yet.")
	case errors.Is(err, ytdlp.ErrVideoUnavailable):
		apierrors.NotFound(w, "Video not found or is private.")
	default:
		h.logger.Error("Ошибка extract",
			slog.String("url", url),
			slog.Bool("timeout", errors.Is(err, runner.ErrTimedOut)),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w,
			"Failed to extract video. Please check the URL and try again.",
			err.Error(),
		)
	}
}

// toExtractResponse конвертирует доменную модель в API-тип ответа.
func toExtractResponse(result *model.ExtractionResult) extractResponse {
	author := result.Author
	if author == "" {
		author = "Unknown"
	}
	platform := result.PlatformKey
	if platform == "" {
		platform = "Unknown"
	}

	return extractResponse{
		Title:           result.Title,
		Thumbnail:       result.ThumbnailURL,
		Duration:        model.FormatDuration(result.DurationSeconds),
		DurationSeconds: result.DurationSeconds,
		Size:            model.FormatBytes(result.ApproxSizeBytes),
		Format:          strings.ToUpper(result.ContainerFormat),
		Author:          author,
		Platform:        platform,
		DirectLinks: directLinks{
			Q1080: formatIDPtr(result, model.Quality1080p),
			Q720:  formatIDPtr(result, model.Quality720p),
			Q480:  formatIDPtr(result, model.Quality480p),
			Q360:  formatIDPtr(result, model.Quality360p),
			Audio: formatIDPtr(result, model.QualityAudio),
		},
		OriginalURL: result.SourceURL,
	}
}

// formatIDPtr возвращает указатель на format id или nil для недоступного tier.
func formatIDPtr(result *model.ExtractionResult, tier model.QualityTier) *string {
	if id, ok := result.FormatsByQuality[tier]; ok {
		return &id
	}
	return nil
}
