// Package dispatch — ядро логирования calltrace.
//
// Dispatcher хранит именованные каналы. У каждого канала есть порог
// уровня и набор Sink. Emit пропускает записи ниже порога и передаёт
// остальные каждому зарегистрированному Sink.
//
// Гарантии:
//   - GetOrCreateChannel идемпотентен и никогда не сбрасывает состояние;
//   - Register не добавляет эквивалентный Sink (тот же ID) повторно,
//     поэтому повторная инициализация не приводит к двойной записи;
//   - Emit никогда не возвращает ошибку и не паникует из-за Sink:
//     сбои уходят в ErrorHook.
//
// Пример:
//
//	d := dispatch.New(dispatch.Config{Logger: logger})
//	d.RegisterSink("calltrace", sink.NewMemorySink("demo"))
//	d.Emit(ctx, "calltrace", slog.LevelInfo, domain.Message("hello"))
package dispatch
