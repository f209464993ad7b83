// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Clean1ines/nexustag/pkg/lifecycle"
	"github.com/Clean1ines/nexustag/pkg/logging"
	"github.com/Clean1ines/nexustag/pkg/metadata"
)

// Normalizer приводит входной файл к целевому формату.
type Normalizer interface {
	Normalize(ctx context.Context, rawPath string) (string, error)
}

// Injector записывает метаданные в тег-контейнер файла.
type Injector interface {
	Inject(path string, meta metadata.Metadata) error
}

// CoverFetcher скачивает обложку; сбой — пустой результат, не ошибка.
type CoverFetcher interface {
	FetchBytes(ctx context.Context, url string) []byte
}

// PendingStore — хранилище отложенных ручных корректировок, единственное
// разделяемое состояние между запросами.
type PendingStore interface {
	Record(ctx context.Context, userID int64, path string) error
	Consume(ctx context.Context, userID int64) (string, bool, error)
}

// QueryEngine отмечает движки, которым нужен непустой текстовый запрос.
// Конвейер такие движки при пустом запросе не вызывает вовсе.
type QueryEngine interface {
	NeedsQuery() bool
}

// Request — один входной файл от одного пользователя.
type Request struct {
	UserID  int64
	RawPath string
	Hints   metadata.Hints
}

// Delivery — готовый к отдаче файл с итоговыми метаданными.
type Delivery struct {
	Path string
	Meta metadata.Metadata
}

// Outcome — терминальное состояние разрешения.
type Outcome int

const (
	// OutcomeResolved — метаданные найдены, файл отдан.
	OutcomeResolved Outcome = iota
	// OutcomeAwaitingCorrection — движки исчерпаны, ждём ручной ввод.
	OutcomeAwaitingCorrection
)

// StatusFunc принимает человекочитаемые отметки о ходе обработки.
type StatusFunc func(text string)

// DeliverFunc отдаёт затегированный файл получателю. Вызывается ровно один
// раз на успешно затегированный файл.
type DeliverFunc func(d Delivery) error

// Pipeline — конвейер разрешения метаданных: нормализация, упорядоченный
// перебор движков, инъекция тега, передача на доставку. Движки строго
// последовательны: каталожный поиск не запускается, пока дешёвый путь
// через отпечаток не промахнулся.
type Pipeline struct {
	normalizer Normalizer
	engines    []metadata.Identifier
	covers     CoverFetcher
	injector   Injector
	pending    PendingStore
	logger     *logging.Logger
}

// New собирает конвейер. Порядок engines — порядок приоритета.
func New(n Normalizer, engines []metadata.Identifier, covers CoverFetcher, inj Injector, pending PendingStore, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		normalizer: n,
		engines:    engines,
		covers:     covers,
		injector:   inj,
		pending:    pending,
		logger:     logger,
	}
}

// Resolve ведёт запрос от сырого файла до терминального состояния.
// Владение req.RawPath переходит конвейеру при вызове; на любом выходе —
// успех, исчерпание движков, ошибка — все артефакты запроса, которыми
// конвейер ещё владеет, удаляются.
func (p *Pipeline) Resolve(ctx context.Context, req Request, status StatusFunc, deliver DeliverFunc) (Outcome, error) {
	arts := lifecycle.NewSet()
	defer arts.ReleaseAll()
	arts.Register(req.RawPath)

	normPath, err := p.normalizer.Normalize(ctx, req.RawPath)
	if err != nil {
		return 0, err
	}
	// Исходник удалён нормализатором, дальше живёт только normPath.
	arts.Disown(req.RawPath)
	arts.Register(normPath)

	status("[*] Computing acoustic fingerprint...")

	res, err := p.identify(ctx, req.Hints, normPath)
	if err != nil {
		return 0, err
	}

	if !res.Found {
		if err := p.pending.Record(ctx, req.UserID, normPath); err != nil {
			return 0, fmt.Errorf("сохранение отложенной задачи: %w", err)
		}
		// Файл теперь принадлежит хранилищу отложенных задач.
		arts.Disown(normPath)
		p.logger.Infof("pipeline: движки исчерпаны для userID=%d, ждём корректировку", req.UserID)
		return OutcomeAwaitingCorrection, nil
	}

	meta := res.Meta
	status(fmt.Sprintf("[+] Match: %s - %s\n[*] Injecting metadata binary...", meta.ArtistOrUnknown(), meta.TitleOrUnknown()))

	if meta.CoverURL != "" && len(meta.Cover) == 0 {
		meta.Cover = p.covers.FetchBytes(ctx, meta.CoverURL)
	}

	if err := p.finalize(arts, normPath, meta, status, deliver); err != nil {
		return 0, err
	}
	return OutcomeResolved, nil
}

// identify перебирает движки в порядке приоритета и останавливается на
// первом найденном результате. Текстовый запрос извлекается лениво — лишь
// когда до него доходит очередь; пустой запрос означает, что каталожные
// движки не запускаются вовсе.
func (p *Pipeline) identify(ctx context.Context, hints metadata.Hints, normPath string) (metadata.Result, error) {
	probe := metadata.Probe{Path: normPath}
	queryReady := false

	for _, eng := range p.engines {
		if qe, ok := eng.(QueryEngine); ok && qe.NeedsQuery() {
			if !queryReady {
				probe.Query = p.buildQuery(hints, normPath)
				queryReady = true
			}
			if probe.Query == "" {
				p.logger.Infof("pipeline: движок %s пропущен — запрос пуст", eng.Name())
				continue
			}
		}
		res, err := eng.Identify(ctx, probe)
		if err != nil {
			return metadata.Result{}, err
		}
		if res.Found {
			p.logger.Infof("pipeline: движок %s нашёл %q / %q", eng.Name(), res.Meta.Artist, res.Meta.Title)
			return res, nil
		}
		p.logger.Infof("pipeline: движок %s промахнулся", eng.Name())
	}
	return metadata.Result{}, nil
}

// buildQuery собирает подсказки: транспортные в приоритете, пробелы в них
// добивает тег-контейнер самого файла, последний резерв — имя файла.
func (p *Pipeline) buildQuery(hints metadata.Hints, normPath string) string {
	if hints.Title == "" || hints.Performer == "" {
		embedded := metadata.ReadEmbeddedHints(normPath)
		if hints.Title == "" {
			hints.Title = embedded.Title
		}
		if hints.Performer == "" {
			hints.Performer = embedded.Performer
		}
	}
	return metadata.ExtractQuery(hints)
}

// finalize — общий хвост автоматического и ручного путей: инъекция тега,
// переименование в отдаваемое имя, доставка. Затегированный файл удаляется
// набором артефактов и после успешной доставки, и после любого её сбоя.
func (p *Pipeline) finalize(arts *lifecycle.Set, normPath string, meta metadata.Metadata, status StatusFunc, deliver DeliverFunc) error {
	if err := p.injector.Inject(normPath, meta); err != nil {
		return err
	}

	destDir := strings.TrimSuffix(normPath, filepath.Ext(normPath)) + ".out"
	if err := os.Mkdir(destDir, 0o755); err != nil {
		return err
	}
	arts.Register(destDir)

	delivered, err := arts.Rename(normPath, filepath.Join(destDir, lifecycle.DeliveredName(meta.ArtistOrUnknown(), meta.TitleOrUnknown(), ".mp3")))
	if err != nil {
		return err
	}

	status("[^] Uploading modified payload...")
	return deliver(Delivery{Path: delivered, Meta: meta})
}
