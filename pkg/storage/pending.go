// pkg/storage/pending.go
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// PendingStore хранит незавершённые запросы ручной корректировки: по одному
// нормализованному файлу на пользователя. Повторная запись для того же
// пользователя молча перезаписывает предыдущую (last-write-wins), запись
// живёт не дольше ttl — брошенные корректировки вычищаются самим Redis.
type PendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPendingStore создаёт хранилище с заданным сроком жизни записей.
func NewPendingStore(client *redis.Client, ttl time.Duration) *PendingStore {
	return &PendingStore{client: client, ttl: ttl}
}

func pendingKey(userID int64) string {
	return fmt.Sprintf("pending:%d", userID)
}

// Record сохраняет путь к нормализованному файлу для пользователя.
func (s *PendingStore) Record(ctx context.Context, userID int64, path string) error {
	return s.client.Set(ctx, pendingKey(userID), path, s.ttl).Err()
}

// Exists сообщает, ждёт ли пользователь ручной корректировки.
func (s *PendingStore) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := s.client.Exists(ctx, pendingKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Consume атомарно извлекает и удаляет запись пользователя. Отсутствие
// записи — не ошибка: возвращается ok=false. Транзакция WATCH закрывает
// гонку между новой загрузкой и обработчиком корректировки.
func (s *PendingStore) Consume(ctx context.Context, userID int64) (string, bool, error) {
	key := pendingKey(userID)
	var path string
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		v, err := tx.Get(ctx, key).Result()
		if err != nil {
			return err
		}
		path = v
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}
