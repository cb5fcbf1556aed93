package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/calltrace/internal/domain"
)

// recordColumns — колонки таблицы записей и соответствующие ключи документа.
var recordColumns = []struct {
	header string
	key    string
}{
	{"FUNCTION", "function"},
	{"STATUS", "status"},
	{"LEVEL", "level"},
	{"RESULT", "result"},
	{"EXCEPTION", "exception"},
	{"DURATION_MS", "duration_ms"},
}

// Output управляет форматированием вывода команд.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output в stdout/stderr. Если jsonMode=true, записи выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(jsonMode, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными writer'ами.
func NewOutputTo(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        w,
		errW:     errW,
	}
}

// Records выводит сохранённые документы: таблицей или JSON массивом.
func (o *Output) Records(docs []domain.Payload) {
	if o.jsonMode {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		enc.Encode(docs)
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	headers := make([]string, len(recordColumns))
	dashes := make([]string, len(recordColumns))
	for i, c := range recordColumns {
		headers[i] = c.header
		dashes[i] = strings.Repeat("-", len(c.header))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	row := make([]string, len(recordColumns))
	for _, d := range docs {
		for i, c := range recordColumns {
			row[i] = cell(d[c.key])
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
}

// Info выводит служебное сообщение в stderr.
func (o *Output) Info(format string, args ...any) {
	fmt.Fprintf(o.errW, format+"\n", args...)
}

// cell форматирует значение поля документа. Отсутствующее значение — "-".
func cell(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}
