package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/calltrace/internal/config"
	"github.com/shaiso/calltrace/internal/mq"
	"github.com/shaiso/calltrace/internal/repo"
	"github.com/shaiso/calltrace/internal/sink"
)

// Resources — внешние ресурсы, открытые для Sink.
type Resources struct {
	Sink   sink.Sink
	closes []func()
}

// Close освобождает ресурсы в обратном порядке.
func (r *Resources) Close() {
	for i := len(r.closes) - 1; i >= 0; i-- {
		r.closes[i]()
	}
}

// OpenSink создаёт Sink по cfg.Sink.
func OpenSink(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Resources, error) {
	res := &Resources{}

	switch cfg.Sink {
	case config.SinkMemory:
		res.Sink = sink.NewMemorySink(cfg.Collection)

	case config.SinkPostgres:
		pool, err := repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		res.closes = append(res.closes, pool.Close)

		pg, err := sink.NewPostgresSink(pool, sink.Options{
			Endpoint:   cfg.DBURL,
			Database:   cfg.DBName,
			Collection: cfg.Collection,
		})
		if err != nil {
			res.Close()
			return nil, err
		}
		if err := pg.Repo().EnsureCollection(ctx); err != nil {
			res.Close()
			return nil, err
		}
		res.Sink = pg

	case config.SinkAMQP:
		conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		res.closes = append(res.closes, func() { conn.Close() })

		if err := mq.SetupTopology(ctx, conn); err != nil {
			res.Close()
			return nil, fmt.Errorf("setup topology: %w", err)
		}
		amqpSink, err := sink.NewAMQPSink(mq.NewPublisher(conn, logger), cfg.RabbitMQURL)
		if err != nil {
			res.Close()
			return nil, err
		}
		res.Sink = amqpSink

	default:
		return nil, fmt.Errorf("%w: unknown sink %q", config.ErrInvalid, cfg.Sink)
	}

	logger.Info("sink ready", "sink", res.Sink.ID())
	return res, nil
}
