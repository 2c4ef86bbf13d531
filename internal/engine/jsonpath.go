package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// ExtractJSONPath извлекает значение из JSON документа по JSONPath.
//
// Префикс "$" необязателен: "data.items[0].id" и "$.data.items[0].id"
// эквивалентны. Пустой путь возвращает документ целиком. Скаляры
// возвращаются текстом, объекты и массивы — компактным JSON. Если путь
// с wildcard или фильтром совпал с несколькими значениями, возвращается
// JSON массив совпадений.
func ExtractJSONPath(doc, path string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return "", fmt.Errorf("%w: input is not JSON: %v", ErrJSONPath, err)
	}

	p := normalizeJSONPath(path)
	if p == "$" {
		return renderJSONValue(root)
	}

	expr, err := jp.ParseString(p)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrJSONPath, path, err)
	}

	found := expr.Get(root)
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: %s: no match", ErrJSONPath, path)
	case 1:
		return renderJSONValue(found[0])
	default:
		return renderJSONValue(found)
	}
}

// normalizeJSONPath добавляет корень "$", если его нет.
func normalizeJSONPath(path string) string {
	p := strings.TrimSpace(path)
	switch {
	case p == "":
		return "$"
	case strings.HasPrefix(p, "$"):
		return p
	case strings.HasPrefix(p, "["):
		return "$" + p
	default:
		return "$." + strings.TrimPrefix(p, ".")
	}
}

// renderJSONValue превращает значение в текст для следующего шага.
func renderJSONValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrJSONPath, err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
