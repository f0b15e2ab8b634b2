// Пакет model — доменные модели Download Module.
// ExtractionResult — нормализованные метаданные видео, полученные от yt-dlp.
// Структура неизменяема после создания, живёт в рамках одного запроса
// (плюс LRU-кэш), нигде не персистится.
package model

import (
	"fmt"
	"math"
	"net/url"
	"time"
)

// QualityTier — клиентский уровень качества. Отделён от format id:
// tier — корзина разрешения, format id — конкретная кодировка,
// которую репортит yt-dlp.
type QualityTier string

// Уровни качества.
const (
	Quality1080p QualityTier = "1080p"
	Quality720p  QualityTier = "720p"
	Quality480p  QualityTier = "480p"
	Quality360p  QualityTier = "360p"
	QualityAudio QualityTier = "audio"
	// QualityBest — директива политики выбора, не конкретный формат.
	QualityBest QualityTier = "best"
)

// VideoTiers — видео-уровни в порядке убывания качества.
// Для каждого ищется точное совпадение вертикального разрешения.
var VideoTiers = []struct {
	Tier   QualityTier
	Height int
}{
	{Quality1080p, 1080},
	{Quality720p, 720},
	{Quality480p, 480},
	{Quality360p, 360},
}

// ExtractionResult — нормализованные метаданные одного видео.
type ExtractionResult struct {
	// Title — заголовок видео (обязательное поле)
	Title string
	// ThumbnailURL — URL превью
	ThumbnailURL string
	// DurationSeconds — длительность в секундах
	DurationSeconds float64
	// ApproxSizeBytes — приблизительный размер файла в байтах
	ApproxSizeBytes int64
	// ContainerFormat — контейнер (расширение), например "mp4"
	ContainerFormat string
	// Author — автор/канал
	Author string
	// PlatformKey — ключ платформы-источника (extractor_key yt-dlp)
	PlatformKey string
	// SourceURL — исходный URL, как его прислал клиент
	SourceURL string
	// FormatsByQuality — tier → format id. Недоступный tier — отсутствующий
	// ключ, не ошибка.
	FormatsByQuality map[QualityTier]string
}

// DownloadRequest — запрос на скачивание.
type DownloadRequest struct {
	// SourceURL — URL видео (обязателен, проверяется ValidateURL)
	SourceURL string
	// FormatID — конкретный format id или "best"/пусто для политики по умолчанию
	FormatID string
	// MuteAudio — скачать видео без звуковой дорожки
	MuteAudio bool
}

// JobStatus — статус задачи скачивания.
type JobStatus string

// Машина состояний: Pending → Running → {Succeeded → Streaming → Deleted,
// Failed, TimedOut}. Failed и TimedOut терминальны, до Streaming не доходят.
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobStreaming JobStatus = "streaming"
	JobDeleted   JobStatus = "deleted"
	JobFailed    JobStatus = "failed"
	JobTimedOut  JobStatus = "timed_out"
)

// DownloadJob — transient-задача одного скачивания.
type DownloadJob struct {
	// ID — уникальный идентификатор (UUID), ключ артефакта в scratch-каталоге
	ID string
	// OutputPath — детерминированный путь выходного файла
	OutputPath string
	// Status — текущий статус задачи
	Status JobStatus
	// CreatedAt — время создания задачи
	CreatedAt time.Time
}

// ValidateURL проверяет, что строка синтаксически похожа на http(s)-URL.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL не задан")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("некорректный URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("некорректная схема URL: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL без host")
	}
	return nil
}

// byteSizes — единицы измерения размера (как в клиентском API).
var byteSizes = []string{"Bytes", "KB", "MB", "GB"}

// FormatBytes форматирует размер в человекочитаемый вид:
// 15728640 → "15 MB". Нулевой/неизвестный размер → "Unknown".
// Округление до двух знаков после запятой.
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "Unknown"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(byteSizes) {
		i = len(byteSizes) - 1
	}
	v := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	// Целые значения без дробной части: "15 MB", не "15.00 MB"
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d %s", int64(v), byteSizes[i])
	}
	return fmt.Sprintf("%g %s", v, byteSizes[i])
}

// FormatDuration форматирует длительность в "M:SS".
// Нулевая/неизвестная длительность → "Unknown".
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "Unknown"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
