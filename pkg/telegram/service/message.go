package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Clean1ines/nexustag/pkg/api/client"
	"github.com/Clean1ines/nexustag/pkg/lifecycle"
	"github.com/Clean1ines/nexustag/pkg/logging"
	"github.com/Clean1ines/nexustag/pkg/pubsub"
	"github.com/Clean1ines/nexustag/pkg/storage"
)

type messageServiceImpl struct {
	sender
	queue    *pubsub.TaskQueue
	pending  *storage.PendingStore
	http     *client.Client
	spoolDir string
}

func NewMessageService(api *tgbotapi.BotAPI, queue *pubsub.TaskQueue, pending *storage.PendingStore, httpClient *client.Client, spoolDir string, logger *logging.Logger) MessageService {
	return &messageServiceImpl{
		sender:   sender{api: api, logger: logger},
		queue:    queue,
		pending:  pending,
		http:     httpClient,
		spoolDir: spoolDir,
	}
}

func (s *messageServiceImpl) SendErrorMessage(chatID int64, text string) {
	s.sendText(chatID, text)
}

func (s *messageServiceImpl) HandleStart(msg *tgbotapi.Message) {
	s.sendText(msg.Chat.ID, "Send me an audio file and I will identify it and inject clean metadata.")
}

func (s *messageServiceImpl) HandleHelp(msg *tgbotapi.Message) {
	s.sendText(msg.Chat.ID, "Upload an audio file or document. When automatic identification fails, reply with \"Artist - Title\" to tag it manually.")
}

func (s *messageServiceImpl) SendUnknownCommand(chatID int64) {
	s.SendErrorMessage(chatID, "Unknown command. Use /start.")
}

// audioAttachment достаёт из сообщения сведения о вложении. Документы
// принимаются только с похожим на аудио расширением.
func audioAttachment(msg *tgbotapi.Message) (fileID, fileName, title, performer string, ok bool) {
	if msg.Audio != nil {
		return msg.Audio.FileID, msg.Audio.FileName, msg.Audio.Title, msg.Audio.Performer, true
	}
	if msg.Document != nil && isAudioName(msg.Document.FileName) {
		return msg.Document.FileID, msg.Document.FileName, "", "", true
	}
	return "", "", "", "", false
}

func isAudioName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".m4a", ".aac", ".flac", ".ogg", ".opus", ".wav", ".wma":
		return true
	}
	return false
}

// ProcessAudio скачивает вложение и ставит задачу обработки в очередь.
// Сообщение-трекер создаётся здесь и дальше редактируется воркером.
func (s *messageServiceImpl) ProcessAudio(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	fileID, fileName, title, performer, ok := audioAttachment(msg)
	if !ok {
		return
	}

	status, err := s.sendText(chatID, "[~] Downloading audio stream...")
	if err != nil {
		s.logger.Errorf("telegram: отправка трекера: %v", err)
		return
	}

	fileURL, err := s.api.GetFileDirectURL(fileID)
	if err != nil {
		s.logger.Errorf("telegram: получение ссылки на файл: %v", err)
		s.editText(chatID, status.MessageID, "[-] Error: could not fetch the file.")
		return
	}

	ext := filepath.Ext(fileName)
	if ext == "" {
		ext = ".bin"
	}
	rawPath := lifecycle.SpoolPath(s.spoolDir, ext)

	ctx := context.Background()
	if err := s.http.DownloadFile(ctx, fileURL, rawPath); err != nil {
		s.logger.Errorf("telegram: скачивание файла: %v", err)
		s.editText(chatID, status.MessageID, "[-] Error: download failed.")
		return
	}

	task := pubsub.Task{
		Kind:            pubsub.TaskProcess,
		ChatID:          chatID,
		UserID:          msg.From.ID,
		StatusMessageID: status.MessageID,
		FilePath:        rawPath,
		FileName:        fileName,
		Title:           title,
		Performer:       performer,
	}
	if err := s.queue.PublishTask(ctx, task); err != nil {
		s.logger.Errorf("telegram: публикация задачи: %v", err)
		os.Remove(rawPath)
		s.editText(chatID, status.MessageID, "[-] Error: processing queue unavailable.")
	}
}

// ProcessReply принимает текстовую реплику. Если пользователь ждёт ручную
// корректировку — реплика уходит воркеру; иначе молча игнорируется, этим
// каналом ходят и посторонние сообщения.
func (s *messageServiceImpl) ProcessReply(msg *tgbotapi.Message) {
	ctx := context.Background()
	waiting, err := s.pending.Exists(ctx, msg.From.ID)
	if err != nil {
		s.logger.Errorf("telegram: проверка отложенной задачи: %v", err)
		return
	}
	if !waiting {
		return
	}

	status, err := s.sendText(msg.Chat.ID, "[*] Applying manual override...")
	if err != nil {
		return
	}
	task := pubsub.Task{
		Kind:            pubsub.TaskCorrect,
		ChatID:          msg.Chat.ID,
		UserID:          msg.From.ID,
		StatusMessageID: status.MessageID,
		Text:            msg.Text,
	}
	if err := s.queue.PublishTask(ctx, task); err != nil {
		s.logger.Errorf("telegram: публикация корректировки: %v", err)
		s.editText(msg.Chat.ID, status.MessageID, "[-] Error: processing queue unavailable.")
	}
}
