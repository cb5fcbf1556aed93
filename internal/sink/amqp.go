package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/calltrace/internal/domain"
	"github.com/shaiso/calltrace/internal/mq"
)

// RecordPublisher — публикация записи в очередь. Реализуется *mq.Publisher.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, level string, document map[string]any) error
}

// AMQPSink публикует документы в RabbitMQ (exchange calltrace.records).
// В БД их сохраняет ingest worker.
type AMQPSink struct {
	id        string
	publisher RecordPublisher
	now       func() time.Time
}

// NewAMQPSink создаёт AMQPSink для брокера brokerURL.
// URL нужен только для идентификатора Sink; публикует publisher.
func NewAMQPSink(publisher RecordPublisher, brokerURL string) (*AMQPSink, error) {
	endpoint, err := mq.Endpoint(brokerURL)
	if err != nil {
		return nil, err
	}

	return &AMQPSink{
		id:        fmt.Sprintf("amqp:%s/%s@%s", mq.ExchangeRecords, mq.RoutingKeyRecord, endpoint),
		publisher: publisher,
		now:       time.Now,
	}, nil
}

// ID возвращает "amqp:<exchange>/<routing key>@<host:port/vhost>" без учётных данных.
func (s *AMQPSink) ID() string {
	return s.id
}

// Persist публикует одно сообщение.
func (s *AMQPSink) Persist(ctx context.Context, level slog.Level, payload domain.Payload) error {
	doc := Enrich(payload, level, s.now())

	if err := s.publisher.PublishRecord(ctx, level.String(), doc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, s.id, err)
	}
	return nil
}
