// Пакет ytdlp — обёртка над внешним инструментом yt-dlp.
// Клиент собирает структурированные аргументы (без shell), запускает
// инструмент через runner и классифицирует сбои по stderr. Сервис доверяет
// структурированному выводу инструмента и сам медиаформаты не разбирает.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bigkaa/orbit/download-module/internal/runner"
)

// Ошибки классификации сбоев yt-dlp.
var (
	// ErrUnsupportedPlatform — платформа-источник не поддерживается инструментом.
	ErrUnsupportedPlatform = errors.New("платформа не поддерживается")
	// ErrVideoUnavailable — видео недоступно или приватное.
	ErrVideoUnavailable = errors.New("видео недоступно или приватное")
)

// Client — клиент yt-dlp.
type Client struct {
	runner          *runner.Runner
	binPath         string
	extractTimeout  time.Duration
	downloadTimeout time.Duration
	streamTimeout   time.Duration
	logger          *slog.Logger
}

// New создаёт клиент yt-dlp.
// binPath — путь к бинарнику (обычно просто "yt-dlp" из PATH).
func New(
	r *runner.Runner,
	binPath string,
	extractTimeout, downloadTimeout, streamTimeout time.Duration,
	logger *slog.Logger,
) *Client {
	return &Client{
		runner:          r,
		binPath:         binPath,
		extractTimeout:  extractTimeout,
		downloadTimeout: downloadTimeout,
		streamTimeout:   streamTimeout,
		logger:          logger.With(slog.String("component", "ytdlp")),
	}
}

// DumpMetadata возвращает сырой JSON метаданных видео без скачивания
// (yt-dlp --dump-json).
func (c *Client) DumpMetadata(ctx context.Context, url string) ([]byte, error) {
	args := []string{"--dump-json", "--no-warnings", "--", url}

	res, err := c.runner.Run(ctx, c.binPath, args, c.extractTimeout)
	if err != nil {
		return nil, c.classify(res, err)
	}
	return res.Stdout, nil
}

// Download скачивает видео по директиве формата в outputPath.
// Путь детерминирован и передаётся literal (без шаблона %(ext)s),
// итоговый файл — ровно outputPath.
func (c *Client) Download(ctx context.Context, d Directive, url, outputPath string) error {
	args := []string{
		"-f", d.Format,
		"--merge-output-format", targetContainer,
		"--no-warnings",
		"-o", outputPath,
		"--", url,
	}

	c.logger.Info("Запуск скачивания",
		slog.String("format", d.Format),
		slog.String("output", outputPath),
	)

	res, err := c.runner.Run(ctx, c.binPath, args, c.downloadTimeout)
	if err != nil {
		return c.classify(res, err)
	}
	return nil
}

// ResolveStreamURL возвращает прямой воспроизводимый URL для формата
// (yt-dlp -g). Если инструмент вернул несколько URL (video + audio),
// берётся первый.
func (c *Client) ResolveStreamURL(ctx context.Context, formatID, url string) (string, error) {
	args := []string{"-f", formatID, "-g", "--no-warnings", "--", url}

	res, err := c.runner.Run(ctx, c.binPath, args, c.streamTimeout)
	if err != nil {
		return "", c.classify(res, err)
	}

	out := strings.TrimSpace(string(res.Stdout))
	if out == "" {
		return "", fmt.Errorf("yt-dlp вернул пустой URL потока")
	}
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = strings.TrimSpace(out[:i])
	}
	return out, nil
}

// maxStderrDetail — сколько байт stderr попадает в текст ошибки.
const maxStderrDetail = 512

// classify переводит сбой подпроцесса в доменную ошибку по содержимому
// stderr. Таймаут пробрасывается как есть (runner.ErrTimedOut в цепочке).
func (c *Client) classify(res *runner.Result, err error) error {
	if errors.Is(err, runner.ErrTimedOut) {
		return err
	}

	var stderr string
	if res != nil {
		stderr = string(bytes.TrimSpace(res.Stderr))
	}

	switch {
	case strings.Contains(stderr, "Unsupported URL"):
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, firstLine(stderr))
	case strings.Contains(stderr, "Video unavailable"),
		strings.Contains(stderr, "Private video"):
		return fmt.Errorf("%w: %s", ErrVideoUnavailable, firstLine(stderr))
	}

	if stderr != "" {
		if len(stderr) > maxStderrDetail {
			stderr = stderr[:maxStderrDetail]
		}
		return fmt.Errorf("yt-dlp: %s: %w", stderr, err)
	}
	return fmt.Errorf("yt-dlp: %w", err)
}

// firstLine возвращает первую непустую строку текста.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return s
}
