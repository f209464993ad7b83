// pkg/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Clean1ines/nexustag/pkg/logging"
	"github.com/Clean1ines/nexustag/pkg/metadata"
)

// fakeNormalizer повторяет контракт настоящего нормализатора: на успехе
// исходник удаляется, результат появляется рядом в той же директории.
type fakeNormalizer struct {
	fail bool
}

func (n *fakeNormalizer) Normalize(ctx context.Context, rawPath string) (string, error) {
	if n.fail {
		return "", errors.New("ffmpeg упал")
	}
	out := strings.TrimSuffix(rawPath, filepath.Ext(rawPath)) + ".norm.mp3"
	data, err := os.ReadFile(rawPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", err
	}
	os.Remove(rawPath)
	return out, nil
}

type fakeEngine struct {
	name       string
	needsQuery bool
	result     metadata.Result
	calls      int
	probes     []metadata.Probe
}

func (e *fakeEngine) Name() string     { return e.name }
func (e *fakeEngine) NeedsQuery() bool { return e.needsQuery }

func (e *fakeEngine) Identify(ctx context.Context, probe metadata.Probe) (metadata.Result, error) {
	e.calls++
	e.probes = append(e.probes, probe)
	res := e.result
	res.Engine = e.name
	return res, nil
}

type fakeCovers struct {
	data []byte
}

func (c *fakeCovers) FetchBytes(ctx context.Context, url string) []byte { return c.data }

type fakeInjector struct {
	err  error
	last metadata.Metadata
}

func (i *fakeInjector) Inject(path string, meta metadata.Metadata) error {
	if i.err != nil {
		return i.err
	}
	i.last = meta
	return nil
}

// memPending — карта в памяти с семантикой настоящего хранилища:
// повторная запись затирает предыдущую, Consume атомарно извлекает.
type memPending struct {
	mu sync.Mutex
	m  map[int64]string
}

func newMemPending() *memPending { return &memPending{m: make(map[int64]string)} }

func (p *memPending) Record(ctx context.Context, userID int64, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[userID] = path
	return nil
}

func (p *memPending) Consume(ctx context.Context, userID int64) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	path, ok := p.m[userID]
	delete(p.m, userID)
	return path, ok, nil
}

type env struct {
	spool    string
	fp       *fakeEngine
	catalog  *fakeEngine
	injector *fakeInjector
	pending  *memPending
	pipe     *Pipeline
	statuses []string
	delivers []Delivery
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger, err := logging.New("", "test")
	if err != nil {
		t.Fatal(err)
	}
	e := &env{
		spool:    t.TempDir(),
		fp:       &fakeEngine{name: "fingerprint"},
		catalog:  &fakeEngine{name: "catalog", needsQuery: true},
		injector: &fakeInjector{},
		pending:  newMemPending(),
	}
	e.pipe = New(&fakeNormalizer{}, []metadata.Identifier{e.fp, e.catalog}, &fakeCovers{}, e.injector, e.pending, logger)
	return e
}

func (e *env) rawFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.spool, name)
	if err := os.WriteFile(path, []byte("raw-audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (e *env) status(text string) { e.statuses = append(e.statuses, text) }

func (e *env) deliver(d Delivery) error {
	e.delivers = append(e.delivers, d)
	return nil
}

// spoolEntries — всё, что осталось в спуле после терминального состояния.
func (e *env) spoolEntries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.spool)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestResolveFingerprintHitSkipsCatalog(t *testing.T) {
	e := newEnv(t)
	e.fp.result = metadata.Result{Found: true, Meta: metadata.Metadata{Title: "One More Time", Artist: "Daft Punk"}}

	outcome, err := e.pipe.Resolve(context.Background(), Request{UserID: 1, RawPath: e.rawFile(t, "a.raw")}, e.status, e.deliver)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome != OutcomeResolved {
		t.Fatalf("Ожидалось OutcomeResolved, получено %v", outcome)
	}
	if e.fp.calls != 1 {
		t.Errorf("Движок отпечатка должен вызываться ровно один раз, получено %d", e.fp.calls)
	}
	if e.catalog.calls != 0 {
		t.Errorf("После попадания каталог вызываться не должен, получено %d вызовов", e.catalog.calls)
	}
	if len(e.delivers) != 1 {
		t.Fatalf("Ожидалась одна доставка, получено %d", len(e.delivers))
	}
	if got := filepath.Base(e.delivers[0].Path); got != "Daft Punk - One More Time.mp3" {
		t.Errorf("Имя отдаваемого файла: %q", got)
	}
	if left := e.spoolEntries(t); len(left) != 0 {
		t.Errorf("Спул должен быть пуст после успеха, осталось %v", left)
	}
}

func TestResolveEmptyQuerySkipsCatalog(t *testing.T) {
	e := newEnv(t)
	// Промах отпечатка, подсказок нет вовсе: запрос пуст, каталог молчит.
	outcome, err := e.pipe.Resolve(context.Background(), Request{UserID: 2, RawPath: e.rawFile(t, "b.raw")}, e.status, e.deliver)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome != OutcomeAwaitingCorrection {
		t.Fatalf("Ожидалось OutcomeAwaitingCorrection, получено %v", outcome)
	}
	if e.catalog.calls != 0 {
		t.Errorf("При пустом запросе каталог вызываться не должен, получено %d вызовов", e.catalog.calls)
	}
	path, ok, _ := e.pending.Consume(context.Background(), 2)
	if !ok {
		t.Fatal("Ожидалась отложенная запись")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Файл отложенной задачи должен пережить Resolve: %v", err)
	}
}

func TestResolveCatalogFallback(t *testing.T) {
	e := newEnv(t)
	e.catalog.result = metadata.Result{Found: true, Meta: metadata.Metadata{Title: "One More Time", Artist: "Daft Punk", Album: "Discovery"}}

	req := Request{UserID: 3, RawPath: e.rawFile(t, "c.raw"), Hints: metadata.Hints{FileName: "Daft_Punk-One_More_Time.mp3"}}
	outcome, err := e.pipe.Resolve(context.Background(), req, e.status, e.deliver)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome != OutcomeResolved {
		t.Fatalf("Ожидалось OutcomeResolved, получено %v", outcome)
	}
	if e.fp.calls != 1 || e.catalog.calls != 1 {
		t.Errorf("Порядок движков нарушен: fingerprint=%d catalog=%d", e.fp.calls, e.catalog.calls)
	}
	if q := e.catalog.probes[0].Query; q != "Daft Punk One More Time" {
		t.Errorf("Запрос каталога: %q", q)
	}
	if e.injector.last.Album != "Discovery" {
		t.Errorf("В тег ушли не те метаданные: %+v", e.injector.last)
	}
}

func TestResolveNormalizeFailureCleansRaw(t *testing.T) {
	e := newEnv(t)
	logger, _ := logging.New("", "test")
	e.pipe = New(&fakeNormalizer{fail: true}, []metadata.Identifier{e.fp}, &fakeCovers{}, e.injector, e.pending, logger)

	raw := e.rawFile(t, "d.raw")
	if _, err := e.pipe.Resolve(context.Background(), Request{UserID: 4, RawPath: raw}, e.status, e.deliver); err == nil {
		t.Fatal("Ожидалась ошибка нормализации")
	}
	if _, err := os.Stat(raw); !os.IsNotExist(err) {
		t.Error("Исходник должен быть удалён после сбоя нормализации")
	}
}

func TestResolveInjectFailureCleansSpool(t *testing.T) {
	e := newEnv(t)
	e.fp.result = metadata.Result{Found: true, Meta: metadata.Metadata{Title: "X", Artist: "Y"}}
	e.injector.err = errors.New("битый контейнер")

	if _, err := e.pipe.Resolve(context.Background(), Request{UserID: 5, RawPath: e.rawFile(t, "e.raw")}, e.status, e.deliver); err == nil {
		t.Fatal("Ожидалась ошибка инъекции")
	}
	if left := e.spoolEntries(t); len(left) != 0 {
		t.Errorf("Спул должен быть пуст после сбоя, осталось %v", left)
	}
}

func TestResolveDeliverFailureCleansSpool(t *testing.T) {
	e := newEnv(t)
	e.fp.result = metadata.Result{Found: true, Meta: metadata.Metadata{Title: "X", Artist: "Y"}}

	deliver := func(d Delivery) error { return errors.New("сеть недоступна") }
	if _, err := e.pipe.Resolve(context.Background(), Request{UserID: 6, RawPath: e.rawFile(t, "f.raw")}, e.status, deliver); err == nil {
		t.Fatal("Ожидалась ошибка доставки")
	}
	if left := e.spoolEntries(t); len(left) != 0 {
		t.Errorf("Затегированный файл должен удаляться и после сбоя доставки, осталось %v", left)
	}
}

func TestCorrect(t *testing.T) {
	e := newEnv(t)
	norm := e.rawFile(t, "pending.mp3")
	e.pending.Record(context.Background(), 7, norm)

	if err := e.pipe.Correct(context.Background(), 7, "Daft Punk - One More Time", e.status, e.deliver); err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if len(e.delivers) != 1 {
		t.Fatalf("Ожидалась одна доставка, получено %d", len(e.delivers))
	}
	d := e.delivers[0]
	if d.Meta.Artist != "Daft Punk" || d.Meta.Title != "One More Time" {
		t.Errorf("Метаданные корректировки: %+v", d.Meta)
	}
	if got := filepath.Base(d.Path); got != "Daft Punk - One More Time.mp3" {
		t.Errorf("Имя отдаваемого файла: %q", got)
	}
	if _, ok, _ := e.pending.Consume(context.Background(), 7); ok {
		t.Error("Запись должна быть потреблена")
	}
	if left := e.spoolEntries(t); len(left) != 0 {
		t.Errorf("Спул должен быть пуст, осталось %v", left)
	}
}

func TestCorrectSyntaxErrorKeepsPending(t *testing.T) {
	e := newEnv(t)
	norm := e.rawFile(t, "pending.mp3")
	e.pending.Record(context.Background(), 8, norm)

	err := e.pipe.Correct(context.Background(), 8, "NoHyphenHere", e.status, e.deliver)
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("Ожидалась ErrSyntax, получено %v", err)
	}
	path, ok, _ := e.pending.Consume(context.Background(), 8)
	if !ok || path != norm {
		t.Error("Запись должна пережить синтаксическую ошибку")
	}
	if _, err := os.Stat(norm); err != nil {
		t.Errorf("Файл должен остаться на месте: %v", err)
	}
}

func TestCorrectNoPending(t *testing.T) {
	e := newEnv(t)
	err := e.pipe.Correct(context.Background(), 9, "Daft Punk - One More Time", e.status, e.deliver)
	if !errors.Is(err, ErrNoPending) {
		t.Fatalf("Ожидалась ErrNoPending, получено %v", err)
	}
}

func TestParseCorrection(t *testing.T) {
	cases := []struct {
		in            string
		artist, title string
		err           error
	}{
		{"Daft Punk - One More Time", "Daft Punk", "One More Time", nil},
		// Разрез строго по первому дефису.
		{"Jay-Z - 99 Problems", "Jay", "Z - 99 Problems", nil},
		{"Artist-Title", "Artist", "Title", nil},
		{"NoHyphenHere", "", "", ErrSyntax},
		{"", "", "", ErrSyntax},
	}
	for _, c := range cases {
		artist, title, err := ParseCorrection(c.in)
		if !errors.Is(err, c.err) {
			t.Errorf("ParseCorrection(%q): ошибка %v, ожидалось %v", c.in, err, c.err)
			continue
		}
		if artist != c.artist || title != c.title {
			t.Errorf("ParseCorrection(%q) = %q/%q, ожидалось %q/%q", c.in, artist, title, c.artist, c.title)
		}
	}
}

func TestPendingOverwrite(t *testing.T) {
	e := newEnv(t)
	first := e.rawFile(t, "first.raw")
	second := e.rawFile(t, "second.raw")

	if _, err := e.pipe.Resolve(context.Background(), Request{UserID: 10, RawPath: first}, e.status, e.deliver); err != nil {
		t.Fatal(err)
	}
	if _, err := e.pipe.Resolve(context.Background(), Request{UserID: 10, RawPath: second}, e.status, e.deliver); err != nil {
		t.Fatal(err)
	}

	path, ok, _ := e.pending.Consume(context.Background(), 10)
	if !ok {
		t.Fatal("Ожидалась отложенная запись")
	}
	if filepath.Base(path) != "second.norm.mp3" {
		t.Errorf("Побеждать должна последняя запись, получено %q", path)
	}
	if _, ok, _ := e.pending.Consume(context.Background(), 10); ok {
		t.Error("Запись может быть потреблена только один раз")
	}
}

func TestPendingConcurrentUploads(t *testing.T) {
	e := newEnv(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		raw := e.rawFile(t, fmt.Sprintf("u%d.raw", i))
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			status := func(string) {}
			deliver := func(Delivery) error { return nil }
			if _, err := e.pipe.Resolve(context.Background(), Request{UserID: 11, RawPath: path}, status, deliver); err != nil {
				t.Errorf("Resolve: %v", err)
			}
		}(raw)
	}
	wg.Wait()

	// Гонка загрузок не должна ломать хранилище: ровно одна целостная запись.
	path, ok, _ := e.pending.Consume(context.Background(), 11)
	if !ok {
		t.Fatal("Ожидалась ровно одна отложенная запись")
	}
	if !strings.HasSuffix(path, ".norm.mp3") {
		t.Errorf("Запись указывает не на нормализованный файл: %q", path)
	}
	if _, ok, _ := e.pending.Consume(context.Background(), 11); ok {
		t.Error("После потребления записей оставаться не должно")
	}
}
