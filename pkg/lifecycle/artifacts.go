// pkg/lifecycle/artifacts.go
package lifecycle

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Set — набор временных файлов одного запроса. Каждый созданный путь
// регистрируется здесь в момент создания; ReleaseAll выполняется
// безусловно на выходе из задачи и удаляет всё, чем набор ещё владеет.
// Файл удаляется ровно один раз: передача владения снимает путь с учёта.
type Set struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewSet создаёт пустой набор артефактов.
func NewSet() *Set {
	return &Set{paths: make(map[string]struct{})}
}

// Register берёт путь под управление набора.
func (s *Set) Register(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[path] = struct{}{}
}

// Disown снимает путь с учёта без удаления: владение ушло наружу
// (файл передан хранилищу отложенных задач либо уже удалён владельцем).
func (s *Set) Disown(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.paths, path)
}

// Rename переименовывает файл внутри набора: старый путь снимается с
// учёта, новый регистрируется.
func (s *Set) Rename(oldPath, newPath string) (string, error) {
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.paths, oldPath)
	s.paths[newPath] = struct{}{}
	return newPath, nil
}

// ReleaseAll удаляет все файлы и каталоги, которыми набор ещё владеет.
// RemoveAll терпим и к уже исчезнувшим путям, и к вложенности: порядок
// обхода не важен.
func (s *Set) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path := range s.paths {
		os.RemoveAll(path)
		delete(s.paths, path)
	}
}

// SpoolPath выделяет уникальный путь во временном каталоге.
func SpoolPath(dir, ext string) string {
	return filepath.Join(dir, uuid.NewString()+ext)
}

// DeliveredName строит имя отдаваемого файла "<artist> - <title>.<ext>".
// Разделители путей заменяются подчёркиванием: имя не должно ни выходить
// из каталога, ни создавать подкаталоги.
func DeliveredName(artist, title, ext string) string {
	sanitize := strings.NewReplacer("/", "_", "\\", "_")
	return sanitize.Replace(artist) + " - " + sanitize.Replace(title) + ext
}
