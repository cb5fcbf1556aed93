// Package ingest сохраняет записи телеметрии, опубликованные AMQPSink.
//
// Worker потребляет очередь records.persist и пишет каждый документ
// в коллекцию Postgres через RecordStore:
//
//   - некорректное сообщение — nack без requeue (уходит в dlq.records);
//   - ошибка БД — nack с requeue;
//   - запись с уже сохранённым call_id — ack (повторная доставка).
package ingest
