// pkg/metadata/query.go
package metadata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Hints — подсказки для построения текстового запроса: пара название и
// исполнитель из вложения плюс имя исходного файла.
type Hints struct {
	Title     string
	Performer string
	FileName  string
}

// ExtractQuery строит текстовый запрос для каталожного поиска. Приоритет:
// пара исполнитель+название, если оба непусты; иначе имя файла без
// расширения с разделителями "-" и "_", заменёнными на пробелы. Пустая
// строка означает "каталожный движок не запускать".
func ExtractQuery(h Hints) string {
	title := strings.TrimSpace(h.Title)
	performer := strings.TrimSpace(h.Performer)
	if title != "" && performer != "" {
		return performer + " " + title
	}

	name := strings.TrimSpace(h.FileName)
	if name == "" {
		return ""
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// ReadEmbeddedHints читает пару название+исполнитель из тег-контейнера
// самого файла. Любая ошибка чтения даёт пустые подсказки: это лишь
// дополнительный источник, когда транспорт подсказок не принёс.
func ReadEmbeddedHints(path string) Hints {
	f, err := os.Open(path)
	if err != nil {
		return Hints{}
	}
	defer f.Close()
	m, err := tag.ReadFrom(f)
	if err != nil {
		return Hints{}
	}
	return Hints{Title: m.Title(), Performer: m.Artist()}
}
