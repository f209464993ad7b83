package handler

import (
	"github.com/Clean1ines/nexustag/pkg/telegram/middleware"
	"github.com/Clean1ines/nexustag/pkg/telegram/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type MessageHandler struct {
	messageService service.MessageService
	limiter        *middleware.RateLimiter
}

func NewMessageHandler(ms service.MessageService, limiter *middleware.RateLimiter) *MessageHandler {
	return &MessageHandler{messageService: ms, limiter: limiter}
}

func (h *MessageHandler) HandleMessage(msg *tgbotapi.Message) {
	if !h.limiter.Allow(msg.From.ID) {
		h.messageService.SendErrorMessage(msg.Chat.ID, "Please wait before sending another request")
		return
	}

	if msg.IsCommand() {
		h.handleCommand(msg)
		return
	}

	if msg.Audio != nil || msg.Document != nil {
		h.messageService.ProcessAudio(msg)
		return
	}

	if msg.Text != "" {
		h.messageService.ProcessReply(msg)
	}
}

func (h *MessageHandler) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.messageService.HandleStart(msg)
	case "help":
		h.messageService.HandleHelp(msg)
	default:
		h.messageService.SendUnknownCommand(msg.Chat.ID)
	}
}
