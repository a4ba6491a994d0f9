package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Output форматирует результаты команд pipectl.
//
// Данные идут в stdout (таблица или JSON), служебные сообщения —
// в stderr, чтобы вывод можно было передавать по конвейеру.
type Output struct {
	json bool
	out  io.Writer
	msg  io.Writer
}

// NewOutput создаёт Output. При jsonMode данные печатаются как JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		json: jsonMode,
		out:  os.Stdout,
		msg:  os.Stderr,
	}
}

// Print выводит данные в активном режиме: таблицей или как jsonData.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.json {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table печатает выровненную таблицу с заголовком и разделителем.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.out, 4, 0, 3, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, separator(headers))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// separator строит строку-разделитель под заголовками.
func separator(headers []string) string {
	parts := make([]string, len(headers))
	for i, h := range headers {
		n := len(h)
		if n < 3 {
			n = 3
		}
		parts[i] = strings.Repeat("-", n)
	}
	return strings.Join(parts, "\t")
}

// JSON печатает значение с отступами. Ошибка сериализации
// уходит в stderr вместо обрезанного вывода.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		o.Error("encode output: " + err.Error())
	}
}

// Success печатает сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.msg, msg)
}

// Error печатает сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.msg, "Error: "+msg)
}
