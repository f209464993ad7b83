package service

import (
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Clean1ines/nexustag/pkg/logging"
)

// sender оборачивает Bot API и обрабатывает флуд-лимиты Telegram:
// "retry after N" приостанавливает только текущий шаг на указанный срок и
// повторяет его же. Это не отмена — очистку артефактов не запускает и
// как сбой пользователю не показывается.
type sender struct {
	api    *tgbotapi.BotAPI
	logger *logging.Logger
}

func (s *sender) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	for {
		m, err := s.api.Send(c)
		if err == nil {
			return m, nil
		}
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
			s.logger.Warningf("telegram: флуд-лимит, пауза %d с", tgErr.RetryAfter)
			time.Sleep(time.Duration(tgErr.RetryAfter) * time.Second)
			continue
		}
		return m, err
	}
}

func (s *sender) sendText(chatID int64, text string) (tgbotapi.Message, error) {
	return s.send(tgbotapi.NewMessage(chatID, text))
}

func (s *sender) editText(chatID int64, messageID int, text string) {
	if _, err := s.send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		s.logger.Warningf("telegram: правка статуса: %v", err)
	}
}

func (s *sender) deleteMessage(chatID int64, messageID int) {
	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		s.logger.Warningf("telegram: удаление статуса: %v", err)
	}
}
