// Package instrument оборачивает функции телеметрией вызова.
//
// Обёртка сохраняет контракт вызова: те же аргументы, тот же результат,
// та же ошибка (тот же экземпляр), та же паника. После каждого вызова,
// на любом пути выхода, собирается domain.Record и передаётся в
// Dispatcher:
//
//	success → INFO
//	error   → ERROR (возвращённая ошибка или паника)
//
// Пример:
//
//	in := instrument.New(instrument.Config{
//	    Dispatcher: dispatch.Default(),
//	    Channel:    "calltrace",
//	    Sink:       pgSink,
//	})
//	calculate := instrument.Wrap2(in, "calculate_payment", calculatePayment)
//	total, err := calculate(1000, 0.1)
//
// Аргументы и результат приводятся к строкам по принципу best effort:
// если форматирование паникует, подставляется Unprintable. duration_ms
// не включает время этого форматирования.
//
// Все обёртки Wrap* и Call пробрасывают панику повторно по значению.
// recover выше по стеку получит исходное значение, но аварийный вывод
// runtime покажет стек повторного panic.
package instrument
