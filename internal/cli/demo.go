package cli

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shaiso/calltrace/internal/config"
	"github.com/shaiso/calltrace/internal/dispatch"
	"github.com/shaiso/calltrace/internal/instrument"
	"github.com/shaiso/calltrace/internal/sink"
	"github.com/shaiso/calltrace/internal/telemetry"
)

// ErrNegativePrice — цена не может быть отрицательной.
var ErrNegativePrice = errors.New("가격은 음수일 수 없습니다.")

// failingPrice — цена для вызова, завершающегося ошибкой.
const failingPrice = -100

// CalculatePayment возвращает цену с налогом.
func CalculatePayment(price, taxRate float64) (float64, error) {
	if price < 0 {
		return 0, ErrNegativePrice
	}
	return price * (1 + taxRate), nil
}

// NewDemoCmd создаёт команду demo.
func NewDemoCmd(configFn func() (config.Config, error), outputFn func() *Output) *cobra.Command {
	var price float64
	var taxRate float64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Instrument calculate_payment and run a success and a failure call",
		RunE: func(cmd *cobra.Command, args []string) error {
			if price <= 0 {
				return fmt.Errorf("%w: --price must be positive, got %v", config.ErrInvalid, price)
			}

			cfg, err := configFn()
			if err != nil {
				return err
			}
			out := outputFn()
			logger := telemetry.SetupLogger(cfg.Log())

			res, err := OpenSink(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer res.Close()

			metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
			d := dispatch.Init(dispatch.Config{Metrics: metrics, Logger: logger})

			level := cfg.ChannelLevel()
			in := instrument.New(instrument.Config{
				Dispatcher: d,
				Channel:    cfg.Channel,
				Sink:       res.Sink,
				Level:      &level,
				Metrics:    metrics,
				Logger:     logger,
			})
			calculate := instrument.Wrap2(in, "calculate_payment", CalculatePayment)

			total, err := calculate(price, taxRate)
			if err != nil {
				return err
			}
			out.Info("Run 1: %s", formatTotal(total))

			if _, err := calculate(failingPrice, taxRate); errors.Is(err, ErrNegativePrice) {
				out.Info("Run 2: error was recorded")
			} else {
				return fmt.Errorf("expected negative price error, got %v", err)
			}

			if mem, ok := res.Sink.(*sink.MemorySink); ok {
				out.Records(mem.Documents())
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&price, "price", 1000, "Price for the successful call")
	cmd.Flags().Float64Var(&taxRate, "tax-rate", 0.1, "Tax rate")

	return cmd
}

func formatTotal(total float64) string {
	s, _ := instrument.Stringify(total)
	return s
}
