package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// Output форматирует вывод CLI: таблицы для человека, JSON для скриптов.
type Output struct {
	jsonMode bool
	w        io.Writer // данные
	errW     io.Writer // сообщения
}

// NewOutput создаёт Output поверх stdout/stderr.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(os.Stdout, os.Stderr, jsonMode)
}

// NewOutputTo создаёт Output с заданными writer'ами.
func NewOutputTo(w, errW io.Writer, jsonMode bool) *Output {
	return &Output{jsonMode: jsonMode, w: w, errW: errW}
}

// Print выводит таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит строки через tabwriter с линией под заголовком.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// Fields выводит пары "ключ: значение" в колонку.
func (o *Output) Fields(pairs [][2]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s:\t%s\n", p[0], p[1])
	}
	tw.Flush()
}

// Raw выводит строку как есть (выход цепочки).
func (o *Output) Raw(s string) {
	fmt.Fprintln(o.w, s)
}

// JSON выводит v с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

// Success пишет сообщение в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Warn пишет предупреждение в stderr.
func (o *Output) Warn(msg string) {
	fmt.Fprintln(o.errW, "Warning: "+msg)
}

// Error пишет ошибку в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

// ChainResult выводит результат выполнения.
//
// С verbose печатается таблица шагов, затем финальный выход отдельной
// строкой. Без verbose только выход, чтобы его можно было передать дальше по pipe.
func (o *Output) ChainResult(res *domain.ChainExecutionResult, verbose bool) {
	if o.jsonMode {
		o.JSON(res)
		return
	}

	if verbose {
		rows := make([][]string, 0, len(res.Steps))
		for i, sr := range res.Steps {
			status := "ok"
			if !sr.Success {
				status = "FAILED: " + sr.Error
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				sr.StepID,
				string(sr.StepType),
				fmt.Sprintf("%.2fms", sr.Duration),
				status,
			})
		}
		o.Table([]string{"#", "STEP", "TYPE", "DURATION", "STATUS"}, rows)
		fmt.Fprintln(o.w)
	}

	for _, w := range res.Warnings() {
		o.Warn(w)
	}

	if failed, pos := res.FailedStep(); failed != nil {
		o.Error(fmt.Sprintf("step %d (%s) failed: %s", pos, failed.StepType, failed.Error))
		return
	}
	o.Raw(res.FinalOutput)
}

// truncate обрезает s до n рун для таблиц.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
