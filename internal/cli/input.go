package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// ErrReported — команда уже вывела причину неудачи, main только
// выставляет код выхода.
var ErrReported = errors.New("failure already reported")

// readInput возвращает текст для цепочки: флаг --input, иначе stdin.
// Интерактивный терминал не читается, чтобы команда не зависала.
func readInput(cmd *cobra.Command, value string) (string, error) {
	if cmd.Flags().Changed("input") {
		return value, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("no input: pass --input or pipe data on stdin")
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// readFile читает путь или stdin для "-".
func readFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// stepsDoc — файл цепочки: либо массив шагов, либо объект с полем steps
// (так выглядит экспорт шаблона).
type stepsDoc struct {
	Steps []domain.Step `json:"steps"`
}

// decodeSteps разбирает шаги из JSON или YAML.
func decodeSteps(data []byte) ([]domain.Step, error) {
	data, err := toJSON(data)
	if err != nil {
		return nil, err
	}

	var chainSteps []domain.Step
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		if err := json.Unmarshal(data, &chainSteps); err != nil {
			return nil, fmt.Errorf("decode steps: %w", err)
		}
	} else {
		var doc stepsDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode steps: %w", err)
		}
		chainSteps = doc.Steps
	}

	if len(chainSteps) == 0 {
		return nil, errors.New("steps file contains no steps")
	}
	return chainSteps, nil
}

// toJSON приводит YAML к JSON. Валидный JSON возвращается как есть.
// Шаги декодируются через JSON, потому что параметры зависят от типа шага.
func toJSON(data []byte) ([]byte, error) {
	if json.Valid(data) {
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if v == nil {
		return nil, errors.New("empty document")
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return out, nil
}
