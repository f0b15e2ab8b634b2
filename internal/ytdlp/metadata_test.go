package ytdlp

import (
	"errors"
	"testing"

	"github.com/bigkaa/orbit/download-module/internal/domain/model"
)

// sampleMetadata — вывод yt-dlp с форматами 1080p/720p и audio-only.
// 247 — webm-дубликат 720p после 136, video-only-1080 — mp4 без аудио:
// оба не должны выигрывать у комбинированных mp4-форматов.
const sampleMetadata = `{
	"title": "Test Video",
	"thumbnail": "https://example.com/thumb.jpg",
	"duration": 212,
	"filesize_approx": 15728640,
	"ext": "mp4",
	"uploader": "Test Channel",
	"extractor_key": "Youtube",
	"formats": [
		{"format_id": "140", "ext": "m4a", "vcodec": "none", "acodec": "mp4a.40.2", "height": 0},
		{"format_id": "251", "ext": "webm", "vcodec": "none", "acodec": "opus", "height": 0},
		{"format_id": "137", "ext": "mp4", "vcodec": "avc1", "acodec": "mp4a.40.2", "height": 1080},
		{"format_id": "136", "ext": "mp4", "vcodec": "avc1", "acodec": "mp4a.40.2", "height": 720},
		{"format_id": "247", "ext": "webm", "vcodec": "vp9", "acodec": "opus", "height": 720},
		{"format_id": "video-only-1080", "ext": "mp4", "vcodec": "avc1", "acodec": "none", "height": 1080}
	]
}`

// TestNormalize_QualityMap проверяет карту tier → format id:
// точное совпадение height, первое совпадение выигрывает,
// недоступные tier'ы отсутствуют.
func TestNormalize_QualityMap(t *testing.T) {
	result, err := Normalize([]byte(sampleMetadata), "https://example.com/video123")
	if err != nil {
		t.Fatalf("Normalize ошибка: %v", err)
	}

	want := map[model.QualityTier]string{
		model.Quality1080p: "137",
		model.Quality720p:  "136",
		model.QualityAudio: "140",
	}
	for tier, id := range want {
		if got := result.FormatsByQuality[tier]; got != id {
			t.Errorf("FormatsByQuality[%s] = %q, ожидался %q", tier, got, id)
		}
	}

	// 480p и 360p недоступны — отсутствующие ключи, не ошибка
	for _, tier := range []model.QualityTier{model.Quality480p, model.Quality360p} {
		if id, ok := result.FormatsByQuality[tier]; ok {
			t.Errorf("FormatsByQuality[%s] = %q, ожидалось отсутствие ключа", tier, id)
		}
	}
}

// TestNormalize_Fields проверяет нормализацию скалярных полей.
func TestNormalize_Fields(t *testing.T) {
	result, err := Normalize([]byte(sampleMetadata), "https://example.com/video123")
	if err != nil {
		t.Fatalf("Normalize ошибка: %v", err)
	}

	if result.Title != "Test Video" {
		t.Errorf("Title = %q", result.Title)
	}
	if result.DurationSeconds != 212 {
		t.Errorf("DurationSeconds = %v, ожидался 212", result.DurationSeconds)
	}
	if result.ApproxSizeBytes != 15728640 {
		t.Errorf("ApproxSizeBytes = %d, ожидался 15728640", result.ApproxSizeBytes)
	}
	if result.ContainerFormat != "mp4" {
		t.Errorf("ContainerFormat = %q, ожидался mp4", result.ContainerFormat)
	}
	if result.Author != "Test Channel" {
		t.Errorf("Author = %q", result.Author)
	}
	if result.PlatformKey != "Youtube" {
		t.Errorf("PlatformKey = %q", result.PlatformKey)
	}
	if result.SourceURL != "https://example.com/video123" {
		t.Errorf("SourceURL = %q", result.SourceURL)
	}
}

// TestNormalize_AudioOnlySelection проверяет, что audio — первый формат
// с аудио и без видео по полному списку, а video-only форматы не попадают
// в видео-tier'ы.
func TestNormalize_AudioOnlySelection(t *testing.T) {
	raw := `{
		"title": "t",
		"formats": [
			{"format_id": "vo", "ext": "mp4", "vcodec": "avc1", "acodec": "none", "height": 1080},
			{"format_id": "a1", "ext": "webm", "vcodec": "none", "acodec": "opus", "height": 0},
			{"format_id": "a2", "ext": "m4a", "vcodec": "none", "acodec": "mp4a", "height": 0}
		]
	}`
	result, err := Normalize([]byte(raw), "https://example.com/v")
	if err != nil {
		t.Fatalf("Normalize ошибка: %v", err)
	}

	if got := result.FormatsByQuality[model.QualityAudio]; got != "a1" {
		t.Errorf("audio = %q, ожидался a1 (первый по порядку инструмента)", got)
	}
	if id, ok := result.FormatsByQuality[model.Quality1080p]; ok {
		t.Errorf("1080p = %q, video-only формат не должен попадать в видео-tier", id)
	}
}

// TestNormalize_NonTargetContainerExcluded проверяет, что комбинированные
// форматы вне целевого контейнера не участвуют в выборе видео-tier'ов.
func TestNormalize_NonTargetContainerExcluded(t *testing.T) {
	raw := `{
		"title": "t",
		"formats": [
			{"format_id": "webm720", "ext": "webm", "vcodec": "vp9", "acodec": "opus", "height": 720}
		]
	}`
	result, err := Normalize([]byte(raw), "https://example.com/v")
	if err != nil {
		t.Fatalf("Normalize ошибка: %v", err)
	}
	if id, ok := result.FormatsByQuality[model.Quality720p]; ok {
		t.Errorf("720p = %q, webm-формат не должен выбираться", id)
	}
}

// TestNormalize_Malformed проверяет ErrMalformedMetadata для не-JSON.
func TestNormalize_Malformed(t *testing.T) {
	_, err := Normalize([]byte("not json at all"), "https://example.com/v")
	if !errors.Is(err, ErrMalformedMetadata) {
		t.Fatalf("err = %v, ожидался ErrMalformedMetadata", err)
	}
}

// TestNormalize_MissingTitle проверяет ErrMissingTitle.
func TestNormalize_MissingTitle(t *testing.T) {
	_, err := Normalize([]byte(`{"formats": []}`), "https://example.com/v")
	if !errors.Is(err, ErrMissingTitle) {
		t.Fatalf("err = %v, ожидался ErrMissingTitle", err)
	}
}
