// pkg/lifecycle/sweeper.go
package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/Clean1ines/nexustag/pkg/logging"
)

// Sweep периодически удаляет из spool-каталога файлы старше ttl. Записи об
// отложенных корректировках истекают в Redis по тому же ttl, так что
// брошенные пользователями нормализованные файлы не копятся бесконечно.
func Sweep(ctx context.Context, dir string, ttl, interval time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(dir, ttl, logger)
		}
	}
}

func sweepOnce(dir string, ttl time.Duration, logger *logging.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warningf("sweep: чтение каталога %s: %v", dir, err)
		return
	}
	cutoff := time.Now().Add(-ttl)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err == nil {
				logger.Infof("sweep: удалён просроченный артефакт %s", path)
			}
		}
	}
}
