// download.go — оркестратор скачивания видео.
// Полный pipeline: job id → директива формата → yt-dlp → поиск артефакта →
// streaming клиенту → удаление артефакта.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/orbit/download-module/internal/artifact"
	"github.com/bigkaa/orbit/download-module/internal/domain/model"
	"github.com/bigkaa/orbit/download-module/internal/runner"
	"github.com/bigkaa/orbit/download-module/internal/ytdlp"
)

// downloadFilename — имя файла, под которым артефакт отдаётся клиенту.
const downloadFilename = "orbit_video.mp4"

// Prometheus-метрики download.
var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_downloads_total",
		Help: "Общее количество запросов на скачивание (по статусу).",
	}, []string{"status"})

	downloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dm_download_duration_seconds",
		Help:    "Длительность скачивания (от запроса до завершения streaming).",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	downloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_download_bytes_total",
		Help: "Общее количество байт, переданных клиентам при скачивании.",
	})

	activeDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dm_active_downloads",
		Help: "Количество активных (in-progress) скачиваний.",
	})
)

// VideoDownloader — исполнитель скачивания по директиве формата.
// Реализуется *ytdlp.Client.
type VideoDownloader interface {
	Download(ctx context.Context, d ytdlp.Directive, url, outputPath string) error
}

// DownloadService — оркестратор скачивания.
type DownloadService struct {
	downloader VideoDownloader
	artifacts  *artifact.Store
	logger     *slog.Logger
}

// NewDownloadService создаёт оркестратор скачивания.
func NewDownloadService(downloader VideoDownloader, artifacts *artifact.Store, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		downloader: downloader,
		artifacts:  artifacts,
		logger:     logger.With(slog.String("component", "download_service")),
	}
}

// Download выполняет полный pipeline скачивания и стримит артефакт в w.
//
// Pipeline:
//  1. Создать job с уникальным id (UUID — отсутствие коллизий при
//     конкурентных скачиваниях в один тик часов)
//  2. Разрешить директиву формата (политика выбора)
//  3. Запустить yt-dlp с детерминированным выходным путём
//  4. Найти артефакт (ровно один файл job'а)
//  5. Стримить файл клиенту с заголовками attachment
//  6. Удалить артефакт после завершения стрима (успех или обрыв)
//
// После начала streaming ошибку клиенту вернуть нельзя — заголовки уже
// отправлены; обрыв фиксируется в логе, артефакт всё равно удаляется.
// Артефакты неудачных скачиваний удаляются немедленно, не дожидаясь sweep.
func (ds *DownloadService) Download(ctx context.Context, w http.ResponseWriter, req model.DownloadRequest) error {
	start := time.Now()
	activeDownloads.Inc()
	defer activeDownloads.Dec()

	job := &model.DownloadJob{
		ID:        uuid.NewString(),
		Status:    model.JobPending,
		CreatedAt: start,
	}
	job.OutputPath = ds.artifacts.OutputPath(job.ID)

	directive := ytdlp.Resolve(req)

	ds.logger.Info("Download запущен",
		slog.String("job_id", job.ID),
		slog.String("url", req.SourceURL),
		slog.String("format", directive.Format),
		slog.Bool("mute_audio", req.MuteAudio),
	)

	// Удержание регистрируется до запуска подпроцесса: файл job'а не может
	// быть удалён sweep'ом, пока идёт скачивание или streaming.
	ds.artifacts.Hold(job.ID)
	defer ds.artifacts.Release(job.ID)

	// 3. Внешний процесс
	job.Status = model.JobRunning
	if err := ds.downloader.Download(ctx, directive, req.SourceURL, job.OutputPath); err != nil {
		if errors.Is(err, runner.ErrTimedOut) {
			job.Status = model.JobTimedOut
			downloadsTotal.WithLabelValues("timeout").Inc()
		} else {
			job.Status = model.JobFailed
			downloadsTotal.WithLabelValues("error").Inc()
		}
		ds.artifacts.Remove(job.ID)
		return fmt.Errorf("скачивание job %s: %w", job.ID, err)
	}
	job.Status = model.JobSucceeded

	// 4. Поиск артефакта
	path, err := ds.artifacts.Resolve(job.ID)
	if err != nil {
		job.Status = model.JobFailed
		downloadsTotal.WithLabelValues("not_found").Inc()
		ds.artifacts.Remove(job.ID)
		return err
	}

	// 5. Streaming
	job.Status = model.JobStreaming
	written, err := ds.stream(w, path)

	// 6. Удаление после стрима — в любом исходе
	ds.artifacts.Remove(job.ID)
	job.Status = model.JobDeleted

	if err != nil {
		// Заголовки уже отправлены — клиенту ошибку не вернуть
		ds.logger.Error("Ошибка streaming артефакта",
			slog.String("job_id", job.ID),
			slog.Int64("bytes_written", written),
			slog.String("error", err.Error()),
		)
		downloadsTotal.WithLabelValues("stream_error").Inc()
		return nil
	}

	duration := time.Since(start)
	downloadsTotal.WithLabelValues("success").Inc()
	downloadDuration.Observe(duration.Seconds())
	downloadBytesTotal.Add(float64(written))

	ds.logger.Info("Download завершён",
		slog.String("job_id", job.ID),
		slog.Int64("bytes", written),
		slog.Duration("duration", duration),
	)

	return nil
}

// stream отдаёт файл артефакта клиенту с заголовками attachment.
func (ds *DownloadService) stream(w http.ResponseWriter, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("открытие артефакта %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat артефакта %s: %w", path, err)
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadFilename+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)

	return io.Copy(w, f)
}
