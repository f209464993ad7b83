// pkg/telegram/bot.go
package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Clean1ines/nexustag/pkg/logging"
	"github.com/Clean1ines/nexustag/pkg/telegram/handler"
)

// Bot представляет Telegram-бота.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *handler.MessageHandler
	logger  *logging.Logger
}

// NewAPI создаёт клиента Bot API по токену.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = false
	return api, nil
}

// NewBot создаёт нового Telegram-бота.
func NewBot(api *tgbotapi.BotAPI, h *handler.MessageHandler, logger *logging.Logger) *Bot {
	return &Bot{api: api, handler: h, logger: logger}
}

// Start запускает получение обновлений от Telegram. Блокирует вызывающего;
// каждое сообщение обрабатывается своей горутиной.
func (b *Bot) Start() {
	b.logger.Infof("telegram: бот %s запущен", b.api.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	for update := range updates {
		if update.Message != nil {
			go b.handler.HandleMessage(update.Message)
		}
	}
}
