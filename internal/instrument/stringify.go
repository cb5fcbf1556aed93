package instrument

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unprintable подставляется вместо значения, которое не удалось отформатировать.
const Unprintable = "<unprintable>"

// NoValue — представление отсутствующего результата.
const NoValue = "<nil>"

// Stringify возвращает строковое представление результата.
// Вторым значением сообщает, удалось ли форматирование.
func Stringify(v any) (string, bool) {
	return format(v, false)
}

// Repr возвращает представление аргумента: строки берутся в кавычки.
func Repr(v any) (string, bool) {
	return format(v, true)
}

func format(v any, quote bool) (s string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s, ok = Unprintable, false
		}
	}()

	switch x := v.(type) {
	case nil:
		return NoValue, true
	case string:
		if quote {
			return strconv.Quote(x), true
		}
		return x, true
	case float64:
		return formatFloat(x, 64), true
	case float32:
		return formatFloat(float64(x), 32), true
	case error:
		return x.Error(), true
	case fmt.Stringer:
		return x.String(), true
	}

	s = fmt.Sprintf("%v", v)
	if strings.Contains(s, "(PANIC=") {
		return Unprintable, false
	}
	return s, true
}

// formatFloat форматирует float так, чтобы целые значения сохраняли ".0":
// 1100 → "1100.0".
func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func panicMessage(r any) *string {
	msg, _ := Stringify(r)
	return &msg
}

func (in *Instrumentor) stringify(v any) string {
	s, ok := Stringify(v)
	if !ok {
		in.logger.Debug("result stringification failed", "type", fmt.Sprintf("%T", v))
	}
	return s
}

func (in *Instrumentor) errorMessage(err error) string {
	s, ok := Stringify(err)
	if !ok {
		in.logger.Debug("error stringification failed", "type", fmt.Sprintf("%T", err))
	}
	return s
}

func (in *Instrumentor) positional(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		s, ok := Repr(a)
		if !ok {
			in.logger.Debug("argument stringification failed", "index", i, "type", fmt.Sprintf("%T", a))
		}
		out[i] = s
	}
	return out
}

func (in *Instrumentor) keyword(kwargs map[string]any) map[string]string {
	out := make(map[string]string, len(kwargs))
	for k, v := range kwargs {
		s, ok := Repr(v)
		if !ok {
			in.logger.Debug("argument stringification failed", "name", k, "type", fmt.Sprintf("%T", v))
		}
		out[k] = s
	}
	return out
}
