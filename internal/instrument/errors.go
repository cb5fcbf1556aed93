package instrument

import "errors"

// Ошибки инструментатора.
var (
	// ErrGoexit — функция завершила горутину через runtime.Goexit.
	// Используется только как сообщение в записи.
	ErrGoexit = errors.New("goroutine exited")
)
