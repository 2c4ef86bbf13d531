package domain

import (
	"encoding/json"
	"fmt"
)

// Params — параметры шага.
//
// Закрытый набор вариантов: RSAParams, HTTPParseParams, HTTPBuildParams
// и RawParams (параметры шага неизвестного типа).
type Params interface {
	isParams()
}

// Algorithm — схема дополнения RSA.
type Algorithm string

const (
	// AlgorithmOAEP — RSA-OAEP (SHA-256), используется по умолчанию.
	AlgorithmOAEP Algorithm = "RSA-OAEP"

	// AlgorithmPKCS1 — RSAES-PKCS1-v1_5.
	AlgorithmPKCS1 Algorithm = "RSA-PKCS1"
)

// ParseAlgorithm парсит строку в Algorithm. Пустая строка — OAEP.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "":
		return AlgorithmOAEP, nil
	case AlgorithmOAEP, AlgorithmPKCS1:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unknown RSA algorithm %q (expected %s or %s)", s, AlgorithmOAEP, AlgorithmPKCS1)
	}
}

// RSAParams — параметры rsa-encrypt / rsa-decrypt.
type RSAParams struct {
	// KeyID — ссылка на SavedKey. Обязателен.
	KeyID string `json:"keyId,omitempty"`

	// Algorithm — схема дополнения. Пусто — предпочтительный алгоритм ключа или OAEP.
	Algorithm Algorithm `json:"algorithm,omitempty"`
}

func (RSAParams) isParams() {}

// Проекции результата http-parse.
const (
	OutputTypeJSON        = "json"
	OutputTypePathParams  = "pathParams"
	OutputTypeQueryParams = "queryParams"
	OutputTypeField       = "field"
	OutputTypeParam       = "param"
)

// HTTPParseParams — параметры http-parse.
type HTTPParseParams struct {
	// PathTemplate — шаблон пути с плейсхолдерами :name или {name}.
	PathTemplate string `json:"pathTemplate,omitempty"`

	// QueryTemplate — JSON-массив ожидаемых query ключей.
	// Пусто — извлекаются все query параметры.
	QueryTemplate string `json:"queryTemplate,omitempty"`

	// OutputType — проекция результата: json (по умолчанию), pathParams,
	// queryParams, field, param.
	OutputType string `json:"outputType,omitempty"`

	// OutputField — поле результата для OutputType=field.
	OutputField string `json:"outputField,omitempty"`

	// OutputParam — имя параметра для OutputType=param.
	OutputParam string `json:"outputParam,omitempty"`
}

func (HTTPParseParams) isParams() {}

// MappingSource — источник значения параметра http-build.
type MappingSource string

const (
	// MappingAuto — значение равно выходу предыдущего шага.
	MappingAuto MappingSource = "auto"

	// MappingField — значение извлекается из выхода предыдущего шага (JSON path).
	MappingField MappingSource = "field"

	// MappingFixed — фиксированное значение.
	MappingFixed MappingSource = "fixed"
)

// ParamMapping — откуда брать значение параметра.
type ParamMapping struct {
	// Source — auto, field или fixed. Пусто — auto.
	Source MappingSource `json:"source,omitempty"`

	// Value — JSON path для field, литерал для fixed.
	Value string `json:"value,omitempty"`
}

// HTTPBuildParams — параметры http-build.
type HTTPBuildParams struct {
	// BaseURL — базовый URL. Пусто — используется вход шага.
	BaseURL string `json:"baseUrl,omitempty"`

	// PathTemplate — шаблон пути с плейсхолдерами :name или {name}.
	PathTemplate string `json:"pathTemplate,omitempty"`

	// ParamMappings — значения плейсхолдеров пути.
	ParamMappings map[string]ParamMapping `json:"paramMappings,omitempty"`

	// QueryMappings — значения query параметров.
	QueryMappings map[string]ParamMapping `json:"queryMappings,omitempty"`
}

func (HTTPBuildParams) isParams() {}

// RawParams — параметры шага неизвестного типа, сохранённые как есть.
type RawParams json.RawMessage

func (RawParams) isParams() {}

// MarshalJSON возвращает исходный JSON.
func (p RawParams) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}
