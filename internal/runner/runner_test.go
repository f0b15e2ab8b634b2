package runner

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestRunner(maxOutput int64) *Runner {
	return New(maxOutput, slog.Default())
}

// TestRunner_CapturesOutput проверяет захват stdout и stderr.
func TestRunner_CapturesOutput(t *testing.T) {
	r := newTestRunner(1 << 20)

	res, err := r.Run(context.Background(), "sh",
		[]string{"-c", "echo out; echo err >&2"}, 5*time.Second)
	if err != nil {
		t.Fatalf("Run ошибка: %v", err)
	}

	if got := strings.TrimSpace(string(res.Stdout)); got != "out" {
		t.Errorf("Stdout = %q, ожидался %q", got, "out")
	}
	if got := strings.TrimSpace(string(res.Stderr)); got != "err" {
		t.Errorf("Stderr = %q, ожидался %q", got, "err")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, ожидался 0", res.ExitCode)
	}
}

// TestRunner_Timeout проверяет, что зависший процесс завершается
// по таймауту и возвращается ErrTimedOut, а не бесконечное ожидание.
func TestRunner_Timeout(t *testing.T) {
	r := newTestRunner(1 << 20)

	start := time.Now()
	_, err := r.Run(context.Background(), "sh",
		[]string{"-c", "sleep 5"}, 100*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("err = %v, ожидался ErrTimedOut", err)
	}
	if elapsed > 3*time.Second {
		t.Errorf("Run длился %s — процесс не был завершён по таймауту", elapsed)
	}
}

// TestRunner_NonZeroExit проверяет, что ненулевой код завершения
// возвращает ошибку вместе с захваченным stderr.
func TestRunner_NonZeroExit(t *testing.T) {
	r := newTestRunner(1 << 20)

	res, err := r.Run(context.Background(), "sh",
		[]string{"-c", "echo broken >&2; exit 3"}, 5*time.Second)
	if err == nil {
		t.Fatal("ожидалась ошибка при ненулевом коде завершения")
	}
	if res == nil {
		t.Fatal("Result должен возвращаться и при ошибке — stderr нужен для классификации")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, ожидался 3", res.ExitCode)
	}
	if !strings.Contains(string(res.Stderr), "broken") {
		t.Errorf("Stderr = %q, ожидалось содержание %q", res.Stderr, "broken")
	}
}

// TestRunner_OutputCap проверяет ограничение буфера захвата:
// избыточный вывод обрезается, не растя память безгранично.
func TestRunner_OutputCap(t *testing.T) {
	r := newTestRunner(10)

	res, err := r.Run(context.Background(), "sh",
		[]string{"-c", "printf 'aaaaaaaaaaaaaaaaaaaaaaaaa'"}, 5*time.Second)
	if err != nil {
		t.Fatalf("Run ошибка: %v", err)
	}

	if len(res.Stdout) != 10 {
		t.Errorf("len(Stdout) = %d, ожидался 10 (обрезка по лимиту)", len(res.Stdout))
	}
}

// TestRunner_BinaryNotFound проверяет ошибку при отсутствующем бинарнике.
func TestRunner_BinaryNotFound(t *testing.T) {
	r := newTestRunner(1 << 20)

	res, err := r.Run(context.Background(), "definitely-not-a-binary-xyz", nil, time.Second)
	if err == nil {
		t.Fatal("ожидалась ошибка для отсутствующего бинарника")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, ожидался -1 (процесс не стартовал)", res.ExitCode)
	}
}
