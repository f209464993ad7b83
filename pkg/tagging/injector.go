// pkg/tagging/injector.go
package tagging

import (
	"fmt"
	"net/http"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/Clean1ines/nexustag/pkg/metadata"
)

// Injector записывает Metadata в тег-контейнер аудиофайла. Версия тега
// фиксирована (ID3v2.4) ради совместимости с максимумом плееров.
type Injector struct{}

// NewInjector создаёт инжектор тегов.
func NewInjector() *Injector {
	return &Injector{}
}

// Inject пишет теги в файл по месту. Отсутствие контейнера — не ошибка:
// пустой создаётся автоматически. Название и исполнитель пишутся всегда
// (при отсутствии — "Unknown"), остальные поля — только когда они есть в
// метаданных: затирать существующее пустым нельзя. Ошибка записи фатальна
// для запроса, частичной записи не бывает.
func (in *Injector) Inject(path string, meta metadata.Metadata) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("открытие тег-контейнера: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	tag.SetTitle(meta.TitleOrUnknown())
	tag.SetArtist(meta.ArtistOrUnknown())
	if meta.Album != "" {
		tag.SetAlbum(meta.Album)
	}
	if meta.Genre != "" {
		tag.SetGenre(meta.Genre)
	}
	if meta.Year != "" {
		tag.SetYear(meta.Year)
	}
	if meta.Lyrics != "" {
		// Повторная инъекция не должна плодить кадры.
		tag.DeleteFrames(tag.CommonID("Unsynchronised lyrics/text transcription"))
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "eng",
			ContentDescriptor: "",
			Lyrics:            meta.Lyrics,
		})
	}
	if len(meta.Cover) > 0 {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    http.DetectContentType(meta.Cover),
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     meta.Cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("запись тег-контейнера: %w", err)
	}
	return nil
}
