// pkg/api/fingerprint.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/Clean1ines/nexustag/pkg/api/client"
	"github.com/Clean1ines/nexustag/pkg/logging"
	"github.com/Clean1ines/nexustag/pkg/metadata"
)

// recognitionResponse — ответ сервиса акустического распознавания.
// Отсутствие секции track означает, что сигнатура не распознана.
type recognitionResponse struct {
	Track *struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
		Sections []struct {
			Type     string `json:"type"`
			Metadata []struct {
				Title string `json:"title"`
				Text  string `json:"text"`
			} `json:"metadata"`
			Text []string `json:"text"`
		} `json:"sections"`
		Images struct {
			CoverArtHQ string `json:"coverarthq"`
			CoverArt   string `json:"coverart"`
		} `json:"images"`
		Genres struct {
			Primary string `json:"primary"`
		} `json:"genres"`
	} `json:"track"`
}

// FingerprintService распознаёт трек по акустическому отпечатку через
// удалённый сервис. Любой сбой запроса или непригодный ответ — промах,
// а не ошибка: конвейер уходит на следующий движок.
type FingerprintService struct {
	endpoint string
	apiKey   string
	http     *client.Client
	logger   *logging.Logger
}

// NewFingerprintService создаёт движок распознавания по отпечатку.
func NewFingerprintService(endpoint, apiKey string, httpClient *client.Client, logger *logging.Logger) *FingerprintService {
	return &FingerprintService{endpoint: endpoint, apiKey: apiKey, http: httpClient, logger: logger}
}

// Name возвращает имя движка.
func (s *FingerprintService) Name() string { return "fingerprint" }

// Identify отправляет нормализованное аудио сервису распознавания и
// превращает ответ в Metadata.
func (s *FingerprintService) Identify(ctx context.Context, probe metadata.Probe) (metadata.Result, error) {
	miss := metadata.Result{Engine: s.Name()}

	audio, err := os.ReadFile(probe.Path)
	if err != nil {
		s.logger.Errorf("fingerprint: чтение файла %s: %v", probe.Path, err)
		return miss, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(audio))
	if err != nil {
		return miss, nil
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, body, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return miss, ctx.Err()
		}
		s.logger.Warningf("fingerprint: запрос не удался: %v", err)
		return miss, nil
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.Warningf("fingerprint: статус %d", resp.StatusCode)
		return miss, nil
	}

	var rec recognitionResponse
	if err := json.Unmarshal(body, &rec); err != nil || rec.Track == nil {
		return miss, nil
	}

	meta := metadata.Metadata{
		Title:  rec.Track.Title,
		Artist: rec.Track.Subtitle,
		Genre:  rec.Track.Genres.Primary,
	}
	meta.CoverURL = rec.Track.Images.CoverArtHQ
	if meta.CoverURL == "" {
		meta.CoverURL = rec.Track.Images.CoverArt
	}

	// Альбом и год лежат в секциях с переменной структурой: берём первое
	// совпадение по подписи, дубликаты дальше по списку игнорируются.
	for _, section := range rec.Track.Sections {
		for _, m := range section.Metadata {
			switch m.Title {
			case "Album":
				if meta.Album == "" {
					meta.Album = m.Text
				}
			case "Released":
				if meta.Year == "" {
					meta.Year = m.Text
				}
			}
		}
		if section.Type == "LYRICS" && len(section.Text) > 0 && meta.Lyrics == "" {
			meta.Lyrics = strings.Join(section.Text, "\n")
		}
	}

	if meta.Title == "" && meta.Artist == "" {
		return miss, nil
	}
	return metadata.Result{Found: true, Engine: s.Name(), Meta: meta}, nil
}
