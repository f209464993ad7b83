// pkg/metadata/metadata.go
package metadata

import "context"

// Unknown — значение по умолчанию для обязательных полей тега.
const Unknown = "Unknown"

// Metadata описывает канонические сведения о треке. Каждый движок отдаёт
// запись целиком либо не отдаёт ничего: поля между движками не сливаются.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Year     string
	Genre    string
	Lyrics   string
	CoverURL string
	Cover    []byte
}

// TitleOrUnknown возвращает название либо "Unknown".
func (m Metadata) TitleOrUnknown() string {
	if m.Title == "" {
		return Unknown
	}
	return m.Title
}

// ArtistOrUnknown возвращает исполнителя либо "Unknown".
func (m Metadata) ArtistOrUnknown() string {
	if m.Artist == "" {
		return Unknown
	}
	return m.Artist
}

// Probe — вход движка идентификации: нормализованный файл на диске и
// текстовый запрос (пустой, если извлечь его не удалось).
type Probe struct {
	Path  string
	Query string
}

// Result — единый ответ любого движка. Промах (Found=false) не является
// ошибкой: конвейер просто переходит к следующему движку.
type Result struct {
	Found  bool
	Engine string
	Meta   Metadata
}

// Identifier — полиморфный движок идентификации. Реализации обязаны
// укладываться в дедлайн контекста и превращать любые сетевые сбои и
// некорректные ответы в промах, а не в ошибку; error зарезервирован за
// отменой контекста.
type Identifier interface {
	Name() string
	Identify(ctx context.Context, probe Probe) (Result, error)
}
