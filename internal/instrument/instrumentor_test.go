package instrument

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/calltrace/internal/dispatch"
	"github.com/shaiso/calltrace/internal/domain"
	"github.com/shaiso/calltrace/internal/sink"
)

var errNegativePrice = &ValueError{Msg: "가격은 음수일 수 없습니다."}

// ValueError — ошибка бизнес-логики для тестов.
type ValueError struct {
	Msg string
}

func (e *ValueError) Error() string { return e.Msg }

func calculatePayment(price, taxRate float64) (float64, error) {
	if price < 0 {
		return 0, errNegativePrice
	}
	return price * (1 + taxRate), nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) (*Instrumentor, *sink.MemorySink, *dispatch.Dispatcher) {
	t.Helper()
	d := dispatch.New(dispatch.Config{Logger: discard()})
	mem := sink.NewMemorySink("traces")
	in := New(Config{
		Dispatcher: d,
		Channel:    "calltrace",
		Sink:       mem,
		Logger:     discard(),
	})
	return in, mem, d
}

func onlyDocument(t *testing.T, mem *sink.MemorySink) domain.Payload {
	t.Helper()
	docs := mem.Documents()
	if len(docs) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(docs))
	}
	return docs[0]
}

// --- End-to-end scenarios ---

func TestScenarioA_Success(t *testing.T) {
	in, mem, _ := setup(t)
	f := Wrap2(in, "f", calculatePayment)

	got, err := f(1000, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1100.0 {
		t.Errorf("expected 1100.0, got %v", got)
	}

	doc := onlyDocument(t, mem)
	if doc["function"] != "f" {
		t.Errorf("expected function f, got %v", doc["function"])
	}
	if doc["status"] != "success" {
		t.Errorf("expected success, got %v", doc["status"])
	}
	if doc["result"] != "1100.0" {
		t.Errorf("expected result 1100.0, got %v", doc["result"])
	}
	if doc["exception"] != nil {
		t.Errorf("exception should be absent, got %v", doc["exception"])
	}
	if doc["args"] != "(1000.0, 0.1)" {
		t.Errorf("unexpected args: %v", doc["args"])
	}
	if doc["kwargs"] != "{}" {
		t.Errorf("unexpected kwargs: %v", doc["kwargs"])
	}
	if doc["level"] != "INFO" {
		t.Errorf("expected INFO, got %v", doc["level"])
	}
	if d, _ := doc["duration_ms"].(float64); d < 0 {
		t.Errorf("duration should be >= 0, got %v", d)
	}
}

func TestScenarioB_Failure(t *testing.T) {
	in, mem, _ := setup(t)
	f := Wrap2(in, "f", calculatePayment)

	_, err := f(-100, 0.1)
	if err != errNegativePrice {
		t.Fatalf("expected the original error value, got %v", err)
	}
	var ve *ValueError
	if !errors.As(err, &ve) || ve.Msg != "가격은 음수일 수 없습니다." {
		t.Errorf("error type or message changed: %v", err)
	}

	doc := onlyDocument(t, mem)
	if doc["status"] != "error" {
		t.Errorf("expected error, got %v", doc["status"])
	}
	if doc["exception"] != "가격은 음수일 수 없습니다." {
		t.Errorf("unexpected exception: %v", doc["exception"])
	}
	if doc["result"] != nil {
		t.Errorf("result should be absent, got %v", doc["result"])
	}
	if doc["level"] != "ERROR" {
		t.Errorf("expected ERROR, got %v", doc["level"])
	}
}

func TestScenarioC_ConcurrentCalls(t *testing.T) {
	d := dispatch.New(dispatch.Config{Logger: discard()})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Каждый вызов создаёт свой Instrumentor с эквивалентным Sink
			in := New(Config{
				Dispatcher: d,
				Channel:    "calltrace",
				Sink:       sink.NewMemorySink("traces"),
				Logger:     discard(),
			})
			f := Wrap2(in, "f", calculatePayment)
			f(1000, 0.1)
		}()
	}
	wg.Wait()

	sinks := d.GetOrCreateChannel("calltrace").Sinks()
	if len(sinks) != 1 {
		t.Fatalf("expected exactly one registered sink, got %d", len(sinks))
	}
	mem := sinks[0].(*sink.MemorySink)
	if mem.Len() != 2 {
		t.Errorf("expected exactly two records, got %d", mem.Len())
	}
}

// --- Properties ---

func TestSinkFailureIsolation(t *testing.T) {
	in, mem, _ := setup(t)
	mem.FailWith(errors.New("storage unavailable"))

	f := Wrap2(in, "f", calculatePayment)

	got, err := f(1000, 0.1)
	if err != nil || got != 1100.0 {
		t.Errorf("sink failure must not affect the result, got %v, %v", got, err)
	}

	_, err = f(-1, 0)
	if err != errNegativePrice {
		t.Errorf("sink failure must not affect the error, got %v", err)
	}
}

func TestDuration_Sleep(t *testing.T) {
	in, mem, _ := setup(t)
	sleep := WrapErr0(in, "sleep", func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})

	if err := sleep(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := onlyDocument(t, mem)["duration_ms"].(float64)
	if d < 20 {
		t.Errorf("expected duration >= 20ms, got %v", d)
	}
	if math.Abs(d*100-math.Round(d*100)) > 1e-6 {
		t.Errorf("duration should be rounded to 2 decimals, got %v", d)
	}
}

// slowArg форматируется медленно.
type slowArg struct{}

func (slowArg) String() string {
	time.Sleep(50 * time.Millisecond)
	return "slow"
}

func TestDuration_ExcludesStringification(t *testing.T) {
	in, mem, _ := setup(t)
	f := Wrap1(in, "fast", func(slowArg) (slowArg, error) { return slowArg{}, nil })

	if _, err := f(slowArg{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := onlyDocument(t, mem)
	if doc["args"] != "(slow)" || doc["result"] != "slow" {
		t.Fatalf("unexpected document: %v", doc)
	}
	if d := doc["duration_ms"].(float64); d >= 20 {
		t.Errorf("duration should not include formatting time, got %vms", d)
	}
}

func TestClock_TimestampAtDispatch(t *testing.T) {
	d := dispatch.New(dispatch.Config{Logger: discard()})
	mem := sink.NewMemorySink("traces")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	ticks := 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		ticks++
		return base.Add(time.Duration(ticks) * 1500 * time.Microsecond)
	}

	in := New(Config{Dispatcher: d, Sink: mem, Logger: discard(), Clock: clock})
	Wrap0(in, "noop", func() (int, error) { return 1, nil })()

	doc := onlyDocument(t, mem)
	// tick 1 — старт, tick 2 — конец вызова, tick 3 — передача в Dispatcher
	if doc["duration_ms"] != 1.5 {
		t.Errorf("expected 1.5ms, got %v", doc["duration_ms"])
	}
	if doc["emitted_at"] != base.Add(3*1500*time.Microsecond) {
		t.Errorf("unexpected emitted_at: %v", doc["emitted_at"])
	}
}

func TestPanic_RecordedAndRepanicked(t *testing.T) {
	in, mem, _ := setup(t)
	boom := WrapFunc(in, "boom", func() { panic("kaboom") })

	defer func() {
		r := recover()
		if r != "kaboom" {
			t.Errorf("expected original panic value, got %v", r)
		}
		doc := onlyDocument(t, mem)
		if doc["status"] != "error" || doc["exception"] != "kaboom" {
			t.Errorf("unexpected record: %v", doc)
		}
	}()

	boom()
	t.Fatal("panic should propagate")
}

func TestGoexit_Recorded(t *testing.T) {
	in, mem, _ := setup(t)
	exit := WrapFunc(in, "exit", func() { runtime.Goexit() })

	done := make(chan struct{})
	go func() {
		defer close(done)
		exit()
	}()
	<-done

	doc := onlyDocument(t, mem)
	if doc["exception"] != ErrGoexit.Error() {
		t.Errorf("expected goexit record, got %v", doc)
	}
}

func TestNoReturnValue(t *testing.T) {
	in, mem, _ := setup(t)
	WrapFunc(in, "noop", func() {})()

	doc := onlyDocument(t, mem)
	if doc["status"] != "success" || doc["result"] != NoValue {
		t.Errorf("expected success with %q, got %v", NoValue, doc)
	}
}

func TestWrapErr1_Error(t *testing.T) {
	in, mem, _ := setup(t)
	sentinel := errors.New("bad input")
	validate := WrapErr1(in, "validate", func(s string) error {
		if s == "" {
			return sentinel
		}
		return nil
	})

	if err := validate(""); err != sentinel {
		t.Fatalf("expected sentinel, got %v", err)
	}
	doc := onlyDocument(t, mem)
	if doc["args"] != `("")` {
		t.Errorf("unexpected args: %v", doc["args"])
	}
}

func TestWrapCtx1_ForwardsContext(t *testing.T) {
	in, mem, _ := setup(t)
	type key struct{}

	f := WrapCtx1(in, "lookup", func(ctx context.Context, id int) (string, error) {
		return fmt.Sprint(ctx.Value(key{})), nil
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "v"))
	cancel()

	got, err := f(ctx, 7)
	if err != nil || got != "v" {
		t.Fatalf("unexpected result: %v, %v", got, err)
	}
	// Отменённый контекст не мешает записи
	if doc := onlyDocument(t, mem); doc["args"] != "(7)" {
		t.Errorf("unexpected args: %v", doc["args"])
	}
}

func TestCall_Kwargs(t *testing.T) {
	in, mem, _ := setup(t)

	res, err := in.Call(context.Background(), "charge", Args{
		Positional: []any{"order-1"},
		Keyword:    map[string]any{"tax_rate": 0.1, "currency": "KRW"},
	}, func() (any, error) {
		return 42, nil
	})
	if err != nil || res != 42 {
		t.Fatalf("unexpected result: %v, %v", res, err)
	}

	doc := onlyDocument(t, mem)
	if doc["args"] != `("order-1")` {
		t.Errorf("unexpected args: %v", doc["args"])
	}
	if doc["kwargs"] != `{currency: "KRW", tax_rate: 0.1}` {
		t.Errorf("unexpected kwargs: %v", doc["kwargs"])
	}
	if doc["result"] != "42" {
		t.Errorf("unexpected result: %v", doc["result"])
	}
}

func TestThreshold_FiltersSuccess(t *testing.T) {
	d := dispatch.New(dispatch.Config{Logger: discard()})
	mem := sink.NewMemorySink("traces")
	level := slog.LevelError
	in := New(Config{Dispatcher: d, Sink: mem, Level: &level, Logger: discard()})

	f := Wrap2(in, "f", calculatePayment)
	f(1000, 0.1)
	f(-1, 0.1)

	doc := onlyDocument(t, mem)
	if doc["status"] != "error" {
		t.Errorf("only the error record should pass, got %v", doc)
	}
}

func TestFuncName(t *testing.T) {
	if got := FuncName(calculatePayment); got != "calculatePayment" {
		t.Errorf("expected calculatePayment, got %s", got)
	}
	if got := FuncName(nil); got != "unknown" {
		t.Errorf("expected unknown, got %s", got)
	}

	in, mem, _ := setup(t)
	Wrap2(in, "", calculatePayment)(1, 0)
	if doc := onlyDocument(t, mem); doc["function"] != "calculatePayment" {
		t.Errorf("expected derived name, got %v", doc["function"])
	}
}
