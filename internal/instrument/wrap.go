package instrument

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// FuncName возвращает короткое имя функции fn: "calculatePayment".
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "unknown"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "unknown"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func nameOf(name string, fn any) string {
	if name != "" {
		return name
	}
	return FuncName(fn)
}

func positional(args ...any) Args {
	return Args{Positional: args}
}

// Wrap0 оборачивает func() (R, error).
// Пустое name заменяется именем функции.
func Wrap0[R any](in *Instrumentor, name string, fn func() (R, error)) func() (R, error) {
	name = nameOf(name, fn)
	return func() (R, error) {
		return invoke(context.Background(), in, name, Args{}, fn)
	}
}

// Wrap1 оборачивает func(A) (R, error).
func Wrap1[A, R any](in *Instrumentor, name string, fn func(A) (R, error)) func(A) (R, error) {
	name = nameOf(name, fn)
	return func(a A) (R, error) {
		return invoke(context.Background(), in, name, positional(a), func() (R, error) {
			return fn(a)
		})
	}
}

// Wrap2 оборачивает func(A, B) (R, error).
func Wrap2[A, B, R any](in *Instrumentor, name string, fn func(A, B) (R, error)) func(A, B) (R, error) {
	name = nameOf(name, fn)
	return func(a A, b B) (R, error) {
		return invoke(context.Background(), in, name, positional(a, b), func() (R, error) {
			return fn(a, b)
		})
	}
}

// Wrap3 оборачивает func(A, B, C) (R, error).
func Wrap3[A, B, C, R any](in *Instrumentor, name string, fn func(A, B, C) (R, error)) func(A, B, C) (R, error) {
	name = nameOf(name, fn)
	return func(a A, b B, c C) (R, error) {
		return invoke(context.Background(), in, name, positional(a, b, c), func() (R, error) {
			return fn(a, b, c)
		})
	}
}

// WrapCtx1 оборачивает func(ctx, A) (R, error).
// ctx передаётся в fn как есть, в Dispatcher — без отмены.
func WrapCtx1[A, R any](in *Instrumentor, name string, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	name = nameOf(name, fn)
	return func(ctx context.Context, a A) (R, error) {
		return invoke(ctx, in, name, positional(a), func() (R, error) {
			return fn(ctx, a)
		})
	}
}

// WrapCtx2 оборачивает func(ctx, A, B) (R, error).
func WrapCtx2[A, B, R any](in *Instrumentor, name string, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	name = nameOf(name, fn)
	return func(ctx context.Context, a A, b B) (R, error) {
		return invoke(ctx, in, name, positional(a, b), func() (R, error) {
			return fn(ctx, a, b)
		})
	}
}

// WrapErr0 оборачивает func() error. Результат успешного вызова — NoValue.
func WrapErr0(in *Instrumentor, name string, fn func() error) func() error {
	name = nameOf(name, fn)
	return func() error {
		_, err := invoke(context.Background(), in, name, Args{}, func() (any, error) {
			return nil, fn()
		})
		return err
	}
}

// WrapErr1 оборачивает func(A) error.
func WrapErr1[A any](in *Instrumentor, name string, fn func(A) error) func(A) error {
	name = nameOf(name, fn)
	return func(a A) error {
		_, err := invoke(context.Background(), in, name, positional(a), func() (any, error) {
			return nil, fn(a)
		})
		return err
	}
}

// WrapFunc оборачивает func(). Ошибкой считается только паника.
func WrapFunc(in *Instrumentor, name string, fn func()) func() {
	name = nameOf(name, fn)
	return func() {
		invoke(context.Background(), in, name, Args{}, func() (any, error) {
			fn()
			return nil, nil
		})
	}
}
