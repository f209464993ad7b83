package service

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Clean1ines/nexustag/pkg/audio"
	"github.com/Clean1ines/nexustag/pkg/logging"
	"github.com/Clean1ines/nexustag/pkg/metadata"
	"github.com/Clean1ines/nexustag/pkg/pipeline"
	"github.com/Clean1ines/nexustag/pkg/pubsub"
)

// Processor выполняет фоновые задачи: прогоняет запрос через конвейер
// разрешения метаданных и отдаёт результат в чат.
type Processor struct {
	sender
	pipe *pipeline.Pipeline
}

func NewProcessor(api *tgbotapi.BotAPI, pipe *pipeline.Pipeline, logger *logging.Logger) *Processor {
	return &Processor{sender: sender{api: api, logger: logger}, pipe: pipe}
}

// HandleTask — точка входа пула воркеров.
func (p *Processor) HandleTask(ctx context.Context, t pubsub.Task) {
	switch t.Kind {
	case pubsub.TaskProcess:
		p.handleProcess(ctx, t)
	case pubsub.TaskCorrect:
		p.handleCorrect(ctx, t)
	default:
		p.logger.Errorf("processor: неизвестный вид задачи %q", t.Kind)
	}
}

func (p *Processor) handleProcess(ctx context.Context, t pubsub.Task) {
	req := pipeline.Request{
		UserID:  t.UserID,
		RawPath: t.FilePath,
		Hints: metadata.Hints{
			Title:     t.Title,
			Performer: t.Performer,
			FileName:  t.FileName,
		},
	}

	outcome, err := p.pipe.Resolve(ctx, req, p.statusFunc(t), p.deliverFunc(t))
	if err != nil {
		p.reportFailure(t, err)
		return
	}

	switch outcome {
	case pipeline.OutcomeResolved:
		p.deleteMessage(t.ChatID, t.StatusMessageID)
	case pipeline.OutcomeAwaitingCorrection:
		p.editText(t.ChatID, t.StatusMessageID,
			"[-] Error: Acoustic signature unrecognized.\nReply with \"Artist - Title\" to tag the file manually.")
	}
}

func (p *Processor) handleCorrect(ctx context.Context, t pubsub.Task) {
	err := p.pipe.Correct(ctx, t.UserID, t.Text, p.statusFunc(t), p.deliverFunc(t))
	switch {
	case err == nil:
		p.deleteMessage(t.ChatID, t.StatusMessageID)
	case errors.Is(err, pipeline.ErrSyntax):
		// Отложенная запись сохранена, пользователь может повторить.
		p.editText(t.ChatID, t.StatusMessageID,
			"[-] Syntax error: reply exactly as \"Artist - Title\".")
	case errors.Is(err, pipeline.ErrNoPending):
		p.deleteMessage(t.ChatID, t.StatusMessageID)
	default:
		p.reportFailure(t, err)
	}
}

func (p *Processor) statusFunc(t pubsub.Task) pipeline.StatusFunc {
	return func(text string) {
		p.editText(t.ChatID, t.StatusMessageID, text)
	}
}

func (p *Processor) deliverFunc(t pubsub.Task) pipeline.DeliverFunc {
	return func(d pipeline.Delivery) error {
		audioMsg := tgbotapi.NewAudio(t.ChatID, tgbotapi.FilePath(d.Path))
		audioMsg.Title = d.Meta.TitleOrUnknown()
		audioMsg.Performer = d.Meta.ArtistOrUnknown()
		audioMsg.Caption = fmt.Sprintf("Title: %s\nArtist: %s\nAlbum: %s",
			d.Meta.TitleOrUnknown(), d.Meta.ArtistOrUnknown(), d.Meta.Album)
		_, err := p.send(audioMsg)
		return err
	}
}

func (p *Processor) reportFailure(t pubsub.Task, err error) {
	p.logger.Errorf("processor: задача chatID=%d завершилась ошибкой: %v", t.ChatID, err)
	var te *audio.TranscodeError
	if errors.As(err, &te) {
		p.editText(t.ChatID, t.StatusMessageID, "[-] Error: audio transcoding failed.")
		return
	}
	p.editText(t.ChatID, t.StatusMessageID, fmt.Sprintf("[-] Fault Exception: %v", err))
}
