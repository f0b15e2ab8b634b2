// selector.go — политика выбора формата для скачивания.
// Превращает DownloadRequest в конкретную директиву -f для yt-dlp.
package ytdlp

import (
	"github.com/bigkaa/orbit/download-module/internal/domain/model"
)

// Директивы формата.
//
// Порядок fallback в bestFallback определяет долю успешных скачиваний
// и должен сохраняться ровно таким: (лучшее видео + лучшее аудио в
// целевом контейнере) → (лучший комбинированный поток в контейнере) →
// (лучший комбинированный поток в любом контейнере).
const (
	videoOnlyBest = "bestvideo[ext=" + targetContainer + "]"
	bestFallback  = "bestvideo[ext=" + targetContainer + "]+bestaudio[ext=m4a]" +
		"/best[ext=" + targetContainer + "]/best"
)

// Directive — разрешённая директива скачивания.
type Directive struct {
	// Format — значение аргумента -f
	Format string
	// VideoOnly — формат заведомо без аудиопотока (muteAudio)
	VideoOnly bool
}

// Resolve выбирает директиву формата для запроса:
//   - MuteAudio → лучший video-only поток в целевом контейнере, аудио
//     исключено на уровне селектора (bestvideo никогда не несёт аудио);
//     явный FormatID при этом игнорируется;
//   - конкретный FormatID (не "best") → используется как есть;
//   - иначе → трёхступенчатый fallback bestFallback.
//
// Слияние в целевой контейнер (--merge-output-format) добавляет клиент
// для всех директив.
func Resolve(req model.DownloadRequest) Directive {
	if req.MuteAudio {
		return Directive{Format: videoOnlyBest, VideoOnly: true}
	}
	if req.FormatID != "" && req.FormatID != string(model.QualityBest) {
		return Directive{Format: req.FormatID}
	}
	return Directive{Format: bestFallback}
}
