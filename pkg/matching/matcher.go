// pkg/matching/matcher.go
package matching

import (
	"strings"

	"github.com/xrash/smetrics"
)

// TrackMetadata содержит данные трека для сравнения.
type TrackMetadata struct {
	Title       string
	Artist      string
	Album       string
	ReleaseYear string
}

// FuzzyMatch возвращает процент совпадения между двумя треками с учётом всех полей.
func FuzzyMatch(a, b TrackMetadata) int {
	titleScore := Similarity(a.Title, b.Title)
	artistScore := Similarity(a.Artist, b.Artist)
	albumScore := Similarity(a.Album, b.Album)
	yearScore := Similarity(a.ReleaseYear, b.ReleaseYear)
	// Весовые коэффициенты: название и исполнитель важнее остальных.
	return (titleScore*45 + artistScore*35 + albumScore*12 + yearScore*8) / 100
}

// QueryScore оценивает, насколько найденный трек соответствует текстовому
// запросу вида "исполнитель название".
func QueryScore(query string, t TrackMetadata) int {
	return Similarity(query, strings.TrimSpace(t.Artist+" "+t.Title))
}

// Similarity возвращает процент схожести двух строк по Вагнеру-Фишеру.
func Similarity(s1, s2 string) int {
	s1, s2 = strings.ToLower(s1), strings.ToLower(s2)
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 100
	}
	distance := smetrics.WagnerFischer(s1, s2, 1, 1, 2)
	score := 100 - (distance * 100 / maxLen)
	if score < 0 {
		score = 0
	}
	return score
}
