// pkg/api/catalog.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/Clean1ines/nexustag/pkg/api/client"
	"github.com/Clean1ines/nexustag/pkg/logging"
	"github.com/Clean1ines/nexustag/pkg/matching"
	"github.com/Clean1ines/nexustag/pkg/metadata"
)

// catalogTrack — запись результата каталожного поиска.
type catalogTrack struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	Year       int `json:"year"`
	Thumbnails []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"thumbnails"`
}

type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
	Synced string `json:"synced"`
}

// CatalogService ищет трек в музыкальном каталоге по текстовому запросу и
// дополняет результат обложкой и текстом песни.
type CatalogService struct {
	baseURL string
	http    *client.Client
	logger  *logging.Logger
}

// NewCatalogService создаёт движок каталожного поиска.
func NewCatalogService(baseURL string, httpClient *client.Client, logger *logging.Logger) *CatalogService {
	return &CatalogService{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, logger: logger}
}

// Name возвращает имя движка.
func (s *CatalogService) Name() string { return "catalog" }

// NeedsQuery сообщает конвейеру, что без текстового запроса движок
// вызывать бессмысленно.
func (s *CatalogService) NeedsQuery() bool { return true }

// Identify запрашивает ровно один верхний результат поиска. Пустой запрос —
// сразу промах: без текста движку нечего искать, конвейер обязан его даже
// не вызывать.
func (s *CatalogService) Identify(ctx context.Context, probe metadata.Probe) (metadata.Result, error) {
	miss := metadata.Result{Engine: s.Name()}
	if strings.TrimSpace(probe.Query) == "" {
		return miss, nil
	}

	searchURL := fmt.Sprintf("%s/search?q=%s&limit=1", s.baseURL, url.QueryEscape(probe.Query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return miss, nil
	}
	resp, body, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return miss, ctx.Err()
		}
		s.logger.Warningf("catalog: поиск не удался: %v", err)
		return miss, nil
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.Warningf("catalog: статус %d", resp.StatusCode)
		return miss, nil
	}

	var tracks []catalogTrack
	if err := json.Unmarshal(body, &tracks); err != nil || len(tracks) == 0 {
		return miss, nil
	}
	top := tracks[0]

	meta := metadata.Metadata{
		Title: top.Title,
		Album: top.Album.Name,
	}
	if len(top.Artists) > 0 {
		meta.Artist = top.Artists[0].Name
	}
	if top.Year > 0 {
		meta.Year = strconv.Itoa(top.Year)
	}
	if n := len(top.Thumbnails); n > 0 {
		meta.CoverURL = UpgradeThumbnail(top.Thumbnails[n-1].URL)
	}

	score := matching.QueryScore(probe.Query, matching.TrackMetadata{Title: meta.Title, Artist: meta.Artist})
	s.logger.Infof("catalog: %q -> %q / %q (score=%d)", probe.Query, meta.Artist, meta.Title, score)

	if top.VideoID != "" {
		meta.Lyrics = s.fetchLyrics(ctx, top.VideoID)
	}

	return metadata.Result{Found: true, Engine: s.Name(), Meta: meta}, nil
}

// fetchLyrics подтягивает текст песни по идентификатору. Текст — строго
// best-effort: любой сбой возвращает пустую строку и не валит движок.
func (s *CatalogService) fetchLyrics(ctx context.Context, videoID string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/lyrics/"+url.PathEscape(videoID), nil)
	if err != nil {
		return ""
	}
	resp, body, err := s.http.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return ""
	}
	var lr lyricsResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return ""
	}
	if lr.Synced != "" {
		return lr.Synced
	}
	return lr.Lyrics
}

// thumbSizeRe распознаёт хвостовой размерный параметр CDN-миниатюр.
var thumbSizeRe = regexp.MustCompile(`=w\d+-h\d+`)

// UpgradeThumbnail переписывает миниатюру известного CDN на максимальное
// разрешение. Каталог отдаёт квадратные обложки 60x60/120x120 — для
// встраивания в тег этого мало. Неопознанные адреса проходят без изменений.
func UpgradeThumbnail(u string) string {
	if !strings.Contains(u, "googleusercontent.com") {
		return u
	}
	if !thumbSizeRe.MatchString(u) {
		return u
	}
	return thumbSizeRe.ReplaceAllString(u, "=w1600-h1600")
}
