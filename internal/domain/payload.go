package domain

import (
	"fmt"
	"maps"
)

// Payload — структурированный документ, который получает Sink.
//
// Это либо документ вызова (Record.Payload), либо обычное сообщение,
// обёрнутое в {"message": ...}.
type Payload map[string]any

// Message оборачивает строку в Payload.
func Message(msg string) Payload {
	return Payload{"message": msg}
}

// PayloadOf приводит произвольное значение к Payload.
func PayloadOf(v any) Payload {
	switch p := v.(type) {
	case Payload:
		return p
	case map[string]any:
		return Payload(p)
	case Record:
		return p.Payload()
	case *Record:
		if p == nil {
			return Message("<nil>")
		}
		return p.Payload()
	case string:
		return Message(p)
	case error:
		return Message(p.Error())
	case fmt.Stringer:
		return Message(p.String())
	default:
		return Message(fmt.Sprint(v))
	}
}

// Clone возвращает поверхностную копию документа.
func (p Payload) Clone() Payload {
	if p == nil {
		return Payload{}
	}
	return maps.Clone(p)
}
