// metadata.go — нормализация JSON-вывода yt-dlp --dump-json
// в доменную модель ExtractionResult.
package ytdlp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bigkaa/orbit/download-module/internal/domain/model"
)

// Ошибки нормализации метаданных.
var (
	// ErrMalformedMetadata — вывод инструмента не парсится как JSON.
	ErrMalformedMetadata = errors.New("метаданные не являются корректным JSON")
	// ErrMissingTitle — в метаданных отсутствует обязательное поле title.
	ErrMissingTitle = errors.New("в метаданных отсутствует title")
)

// targetContainer — целевой контейнер сервиса.
const targetContainer = "mp4"

// rawMetadata — подмножество полей --dump-json, нужное сервису.
type rawMetadata struct {
	Title          string      `json:"title"`
	Thumbnail      string      `json:"thumbnail"`
	Duration       float64     `json:"duration"`
	FilesizeApprox int64       `json:"filesize_approx"`
	Ext            string      `json:"ext"`
	Uploader       string      `json:"uploader"`
	Channel        string      `json:"channel"`
	ExtractorKey   string      `json:"extractor_key"`
	Formats        []rawFormat `json:"formats"`
}

// rawFormat — один формат из списка formats.
// vcodec/acodec == "none" означает отсутствие соответствующего потока.
type rawFormat struct {
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
	Height   int    `json:"height"`
}

// hasVideo сообщает, несёт ли формат видеопоток.
func (f rawFormat) hasVideo() bool { return f.VCodec != "" && f.VCodec != "none" }

// hasAudio сообщает, несёт ли формат аудиопоток.
func (f rawFormat) hasAudio() bool { return f.ACodec != "" && f.ACodec != "none" }

// Normalize разбирает сырой JSON yt-dlp и строит ExtractionResult.
//
// Правила выбора форматов:
//   - кандидаты видео-tier'ов — форматы с видео И аудио в целевом контейнере;
//   - для каждого tier — первый формат с точным совпадением height
//     (порядок инструмента, первое совпадение выигрывает);
//   - audio — первый формат с аудио и без видео по полному списку;
//   - недоступный tier — отсутствующий ключ, не ошибка.
func Normalize(raw []byte, sourceURL string) (*model.ExtractionResult, error) {
	var meta rawMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedMetadata, err)
	}

	if meta.Title == "" {
		return nil, ErrMissingTitle
	}

	formats := make(map[model.QualityTier]string)

	// Комбинированные форматы в целевом контейнере
	var combined []rawFormat
	for _, f := range meta.Formats {
		if f.hasVideo() && f.hasAudio() && f.Ext == targetContainer {
			combined = append(combined, f)
		}
	}

	for _, vt := range model.VideoTiers {
		for _, f := range combined {
			if f.Height == vt.Height {
				formats[vt.Tier] = f.FormatID
				break
			}
		}
	}

	// Audio-only — по всему списку форматов
	for _, f := range meta.Formats {
		if f.hasAudio() && !f.hasVideo() {
			formats[model.QualityAudio] = f.FormatID
			break
		}
	}

	author := meta.Uploader
	if author == "" {
		author = meta.Channel
	}

	container := strings.ToLower(meta.Ext)
	if container == "" {
		container = targetContainer
	}

	return &model.ExtractionResult{
		Title:            meta.Title,
		ThumbnailURL:     meta.Thumbnail,
		DurationSeconds:  meta.Duration,
		ApproxSizeBytes:  meta.FilesizeApprox,
		ContainerFormat:  container,
		Author:           author,
		PlatformKey:      meta.ExtractorKey,
		SourceURL:        sourceURL,
		FormatsByQuality: formats,
	}, nil
}
