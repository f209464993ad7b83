// pkg/pipeline/correction.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Clean1ines/nexustag/pkg/lifecycle"
	"github.com/Clean1ines/nexustag/pkg/metadata"
)

// ErrSyntax — корректировка не разобрана; отложенная запись сохраняется,
// пользователь может повторить ввод.
var ErrSyntax = errors.New(`ожидается формат "Artist - Title"`)

// ErrNoPending — для пользователя нет отложенной записи; сообщение
// игнорируется, этим же каналом ходят посторонние реплики.
var ErrNoPending = errors.New("нет отложенной задачи")

// ParseCorrection разбирает строгий синтаксис "Artist - Title": разрез по
// первому дефису, остальные дефисы остаются в названии.
func ParseCorrection(text string) (artist, title string, err error) {
	idx := strings.Index(text, "-")
	if idx < 0 {
		return "", "", ErrSyntax
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:]), nil
}

// Correct — точка входа ручной корректировки. Синтаксис проверяется до
// извлечения записи: при ошибке ввода запись остаётся на месте. Валидный
// ввод потребляет запись, собирает минимальные метаданные и проходит тот
// же хвост конвейера, что и автоматический путь.
func (p *Pipeline) Correct(ctx context.Context, userID int64, text string, status StatusFunc, deliver DeliverFunc) error {
	artist, title, err := ParseCorrection(text)
	if err != nil {
		return err
	}

	normPath, ok, err := p.pending.Consume(ctx, userID)
	if err != nil {
		return fmt.Errorf("чтение отложенной задачи: %w", err)
	}
	if !ok {
		return ErrNoPending
	}

	arts := lifecycle.NewSet()
	defer arts.ReleaseAll()
	arts.Register(normPath)

	meta := metadata.Metadata{Title: title, Artist: artist}
	status(fmt.Sprintf("[+] Manual override: %s - %s\n[*] Injecting metadata binary...", meta.ArtistOrUnknown(), meta.TitleOrUnknown()))
	return p.finalize(arts, normPath, meta, status, deliver)
}
