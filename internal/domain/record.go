package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ошибки валидации записи.
var (
	// ErrInvalidRecord — запись нарушает инвариант result/exception.
	ErrInvalidRecord = errors.New("invalid record")
)

// Record — одно событие телеметрии о вызове функции.
//
// Ровно одно из полей Result и Exception заполнено: вызов либо вернул
// значение, либо завершился ошибкой. После передачи в Dispatcher запись
// не изменяется.
type Record struct {
	// ID — уникальный идентификатор вызова.
	ID uuid.UUID `json:"call_id"`

	// Function — имя инструментированной функции.
	Function string `json:"function"`

	// Args — строковые представления позиционных аргументов.
	Args []string `json:"args"`

	// Kwargs — строковые представления именованных аргументов.
	Kwargs map[string]string `json:"kwargs"`

	// Result — строковое представление результата. Nil при ошибке.
	Result *string `json:"result"`

	// Exception — сообщение ошибки. Nil при успехе.
	Exception *string `json:"exception"`

	// Status — исход вызова.
	Status Status `json:"status"`

	// DurationMS — длительность вызова в миллисекундах (2 знака).
	DurationMS float64 `json:"duration_ms"`

	// Timestamp — момент передачи записи в Dispatcher.
	Timestamp time.Time `json:"timestamp"`
}

// CallInfo — общие поля вызова для конструкторов записи.
type CallInfo struct {
	Function string
	Args     []string
	Kwargs   map[string]string
	Duration time.Duration
}

// NewSuccess создаёт запись об успешном вызове.
func NewSuccess(info CallInfo, result string) Record {
	return Record{
		ID:         uuid.New(),
		Function:   info.Function,
		Args:       info.Args,
		Kwargs:     info.Kwargs,
		Result:     &result,
		Status:     StatusSuccess,
		DurationMS: RoundMS(info.Duration),
	}
}

// NewFailure создаёт запись о вызове, завершившемся ошибкой.
func NewFailure(info CallInfo, message string) Record {
	return Record{
		ID:         uuid.New(),
		Function:   info.Function,
		Args:       info.Args,
		Kwargs:     info.Kwargs,
		Exception:  &message,
		Status:     StatusError,
		DurationMS: RoundMS(info.Duration),
	}
}

// Stamp возвращает копию записи с выставленным Timestamp.
func (r Record) Stamp(now time.Time) Record {
	r.Timestamp = now
	return r
}

// Level возвращает уровень, соответствующий статусу записи.
func (r Record) Level() Level {
	return LevelFor(r.Status)
}

// Validate проверяет инварианты записи.
func (r Record) Validate() error {
	if (r.Result == nil) == (r.Exception == nil) {
		return errors.Join(ErrInvalidRecord, errors.New("exactly one of result and exception must be set"))
	}
	if r.Status == StatusSuccess && r.Result == nil {
		return errors.Join(ErrInvalidRecord, errors.New("success record without result"))
	}
	if r.Status == StatusError && r.Exception == nil {
		return errors.Join(ErrInvalidRecord, errors.New("error record without exception"))
	}
	if r.DurationMS < 0 {
		return errors.Join(ErrInvalidRecord, errors.New("negative duration"))
	}
	return nil
}

// Payload возвращает документ записи для Sink.
//
// Поля timestamp и level добавляет сам Sink; момент передачи в Dispatcher
// хранится в emitted_at.
func (r Record) Payload() Payload {
	p := Payload{
		"call_id":     r.ID.String(),
		"function":    r.Function,
		"args":        FormatArgs(r.Args),
		"kwargs":      FormatKwargs(r.Kwargs),
		"result":      nil,
		"exception":   nil,
		"status":      string(r.Status),
		"duration_ms": r.DurationMS,
	}
	if r.Result != nil {
		p["result"] = *r.Result
	}
	if r.Exception != nil {
		p["exception"] = *r.Exception
	}
	if !r.Timestamp.IsZero() {
		p["emitted_at"] = r.Timestamp
	}
	return p
}

// RoundMS переводит длительность в миллисекунды с округлением до 2 знаков.
func RoundMS(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}

// FormatArgs форматирует позиционные аргументы как кортеж: (1000, 0.1).
func FormatArgs(args []string) string {
	return "(" + strings.Join(args, ", ") + ")"
}

// FormatKwargs форматирует именованные аргументы: {rate: 0.1}.
// Ключи выводятся в отсортированном порядке.
func FormatKwargs(kwargs map[string]string) string {
	keys := sortedKeys(kwargs)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+kwargs[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
