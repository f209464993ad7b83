// pkg/pubsub/dispatcher.go
package pubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"

	"github.com/Clean1ines/nexustag/pkg/logging"
)

// Виды фоновых задач.
const (
	TaskProcess = "process" // обработать загруженный аудиофайл
	TaskCorrect = "correct" // применить ручную корректировку
)

// Task — фоновая задача обработки одного запроса. Файл скачивается до
// публикации, задача несёт только локальный путь.
type Task struct {
	Kind            string `json:"kind"`
	ChatID          int64  `json:"chat_id"`
	UserID          int64  `json:"user_id"`
	StatusMessageID int    `json:"status_message_id"`
	FilePath        string `json:"file_path,omitempty"`
	FileName        string `json:"file_name,omitempty"`
	Title           string `json:"title,omitempty"`
	Performer       string `json:"performer,omitempty"`
	Text            string `json:"text,omitempty"`
}

// TaskHandler обрабатывает одну задачу из очереди.
type TaskHandler func(ctx context.Context, task Task)

// TaskQueue инкапсулирует клиента, топик и подписку.
type TaskQueue struct {
	Client       *pubsub.Client
	Topic        *pubsub.Topic
	Subscription *pubsub.Subscription
	logger       *logging.Logger
}

// NewTaskQueue инициализирует клиента Pub/Sub для проекта.
func NewTaskQueue(ctx context.Context, projectID, topicID, subID string, logger *logging.Logger) (*TaskQueue, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &TaskQueue{
		Client:       client,
		Topic:        client.Topic(topicID),
		Subscription: client.Subscription(subID),
		logger:       logger,
	}, nil
}

// PublishTask публикует задачу в очередь.
func (q *TaskQueue) PublishTask(ctx context.Context, task Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	result := q.Topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = result.Get(ctx)
	return err
}

// StartWorkerPool запускает пул воркеров с заданным числом параллельных
// задач. Блокирует до отмены контекста.
func (q *TaskQueue) StartWorkerPool(ctx context.Context, workerCount int, handler TaskHandler) {
	q.Subscription.ReceiveSettings.MaxOutstandingMessages = workerCount
	err := q.Subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var task Task
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			q.logger.Errorf("pubsub: разбор задачи: %v", err)
			msg.Nack()
			return
		}
		handler(ctx, task)
		msg.Ack()
	})
	if err != nil && ctx.Err() == nil {
		q.logger.Errorf("pubsub: получение задач остановлено: %v", err)
	}
}
