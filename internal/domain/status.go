package domain

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
)

// Status — исход инструментированного вызова.
type Status string

const (
	// StatusSuccess — функция вернула результат.
	StatusSuccess Status = "success"

	// StatusError — функция вернула ошибку или запаниковала.
	StatusError Status = "error"
)

// Level — уровень важности записи. Совпадает с уровнями slog.
type Level = slog.Level

// LevelAll — минимальный порог: пропускает записи любого уровня.
const LevelAll Level = math.MinInt

// LevelFor отображает статус вызова на уровень:
//
//	success → INFO
//	error   → ERROR
func LevelFor(s Status) Level {
	if s == StatusError {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ParseLevel парсит имя уровня из конфигурации.
// Возможные значения: ALL, DEBUG, INFO, WARN (WARNING), ERROR.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ALL":
		return LevelAll, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
