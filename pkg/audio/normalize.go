// pkg/audio/normalize.go
package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/Clean1ines/nexustag/pkg/lifecycle"
	"github.com/Clean1ines/nexustag/pkg/logging"
)

// TranscodeError — фатальный для запроса сбой транскодера: ненулевой код
// выхода либо отсутствующий выходной файл. Повторы не выполняются,
// транскодирование не бывает транзиентным.
type TranscodeError struct {
	Output string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed: %v", e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// Normalizer приводит произвольный входной контейнер к целевому кодеку,
// единому для отпечатка и тегирования. Шаг обязателен даже для входа,
// который уже выглядит как mp3: контейнер пересобирается заново.
type Normalizer struct {
	ffmpegPath string
	spoolDir   string
	timeout    time.Duration
	logger     *logging.Logger
}

// NewNormalizer создаёт нормализатор с лимитом времени на один запуск.
func NewNormalizer(ffmpegPath, spoolDir string, timeout time.Duration, logger *logging.Logger) *Normalizer {
	return &Normalizer{ffmpegPath: ffmpegPath, spoolDir: spoolDir, timeout: timeout, logger: logger}
}

// Normalize перекодирует rawPath в целевой формат и возвращает путь к
// новому файлу. Исходный файл удаляется сразу после успеха; владение
// результатом переходит вызывающему.
func (n *Normalizer) Normalize(ctx context.Context, rawPath string) (string, error) {
	outPath := lifecycle.SpoolPath(n.spoolDir, ".mp3")

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, n.ffmpegPath,
		"-y",
		"-i", rawPath,
		"-vn",
		"-codec:a", "libmp3lame",
		"-q:a", "2",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outPath)
		return "", &TranscodeError{Output: string(out), Err: err}
	}
	if info, statErr := os.Stat(outPath); statErr != nil || info.Size() == 0 {
		os.Remove(outPath)
		return "", &TranscodeError{Output: string(out), Err: fmt.Errorf("выходной файл отсутствует")}
	}

	if err := os.Remove(rawPath); err != nil {
		n.logger.Warningf("normalize: не удалось удалить исходник %s: %v", rawPath, err)
	}
	return outPath, nil
}
