// calltrace — телеметрия вызовов функций.
//
// Использование:
//
//	calltrace [--json] <command> [flags]
//
// Команды:
//
//	demo     Инструментировать calculate_payment и записать два вызова
//	migrate  Создать коллекцию записей в Postgres
//	ingest   Переносить записи из RabbitMQ в Postgres
//
// Конфигурация читается из переменных окружения (CALLTRACE_*, RABBITMQ_URL,
// LOG_LEVEL, LOG_FORMAT, METRICS_ADDR).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/calltrace/internal/cli"
	"github.com/shaiso/calltrace/internal/config"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "calltrace",
		Short:         "calltrace — structured telemetry for function calls",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	configFn := config.Load
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewDemoCmd(configFn, outputFn),
		cli.NewMigrateCmd(configFn, outputFn),
		cli.NewIngestCmd(configFn, outputFn),
	)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
