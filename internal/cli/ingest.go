package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/calltrace/internal/config"
	"github.com/shaiso/calltrace/internal/ingest"
	"github.com/shaiso/calltrace/internal/mq"
	"github.com/shaiso/calltrace/internal/repo"
	"github.com/shaiso/calltrace/internal/telemetry"
)

// NewIngestCmd создаёт команду ingest.
func NewIngestCmd(configFn func() (config.Config, error), outputFn func() *Output) *cobra.Command {
	var prefetch int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Move records from RabbitMQ into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFn()
			if err != nil {
				return err
			}
			logger := telemetry.SetupLogger(cfg.Log())
			ctx := cmd.Context()

			pool, err := repo.NewPool(ctx, cfg.DBURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			logger.Info("database connected")

			records, err := repo.NewRecordRepo(pool, cfg.DBName, cfg.Collection)
			if err != nil {
				return err
			}
			if err := records.EnsureCollection(ctx); err != nil {
				return err
			}

			conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
			if err != nil {
				return fmt.Errorf("connect rabbitmq: %w", err)
			}
			defer conn.Close()

			if err := mq.SetupTopology(ctx, conn); err != nil {
				return fmt.Errorf("setup topology: %w", err)
			}

			w := ingest.New(ingest.Config{
				Store:    records,
				Conn:     conn,
				Prefetch: prefetch,
				Logger:   logger,
			})
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			server := &http.Server{
				Addr:    cfg.MetricsAddr,
				Handler: healthMux(conn),
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("listening", "addr", cfg.MetricsAddr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			err = g.Wait()
			outputFn().Info("ingest stopped")
			return err
		},
	}

	cmd.Flags().IntVar(&prefetch, "prefetch", 0, "Messages in flight (default 20)")

	return cmd
}

// healthMux отдаёт /healthz и /metrics.
func healthMux(conn interface{ IsConnected() bool }) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !conn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("rabbitmq disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	return mux
}
