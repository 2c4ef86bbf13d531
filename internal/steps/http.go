package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/engine"
)

// ParsedURL — полный результат http-parse (outputType "json").
type ParsedURL struct {
	URL         string            `json:"url"`
	Origin      string            `json:"origin"`
	Host        string            `json:"host"`
	Path        string            `json:"path"`
	PathParams  map[string]string `json:"pathParams"`
	QueryParams map[string]string `json:"queryParams"`
}

// HTTPParseStep — разбор URL на параметры пути и query.
//
// Параметры (domain.HTTPParseParams):
//
//	{
//	    "pathTemplate": "/users/:userId/posts",
//	    "queryTemplate": "[\"page\"]",
//	    "outputType": "param",
//	    "outputParam": "userId"
//	}
//
// outputType:
//   - "" / "json"   — ParsedURL целиком (JSON)
//   - "pathParams"  — только параметры пути (JSON)
//   - "queryParams" — только query параметры (JSON)
//   - "field"       — значение по outputField (JSON path по ParsedURL)
//   - "param"       — значение параметра outputParam (сначала путь, потом query)
type HTTPParseStep struct{}

// NewHTTPParseStep создаёт новый HTTPParseStep.
func NewHTTPParseStep() *HTTPParseStep {
	return &HTTPParseStep{}
}

// Type возвращает тип шага.
func (s *HTTPParseStep) Type() domain.StepType {
	return domain.StepTypeHTTPParse
}

// Execute разбирает URL из входа.
func (s *HTTPParseStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	params := req.Step.HTTPParse()
	parsed, warnings, err := ParseURL(req.Input, params.PathTemplate, params.QueryTemplate)
	if err != nil {
		return nil, err
	}

	out, err := projectParsedURL(parsed, params)
	if err != nil {
		return nil, err
	}

	return NewResponse(out, warnings...), nil
}

// ParseURL разбирает URL по шаблонам пути и query.
//
// Если queryTemplate пуст, извлекаются все query параметры (первое
// значение каждого ключа). Ожидаемые, но отсутствующие ключи дают
// предупреждение.
func ParseURL(raw, pathTemplate, queryTemplate string) (*ParsedURL, []string, error) {
	u, err := engine.ParseURL(raw)
	if err != nil {
		return nil, nil, err
	}

	expected, err := engine.ParseQueryTemplate(queryTemplate)
	if err != nil {
		return nil, nil, err
	}

	pathParams := make(map[string]string)
	if pathTemplate != "" {
		pathParams = engine.ExtractPathParams(pathTemplate, u.EscapedPath())
	}

	var warnings []string
	for _, name := range engine.PlaceholderNames(pathTemplate) {
		if _, ok := pathParams[name]; !ok {
			warnings = append(warnings, fmt.Sprintf("path parameter %q not found in URL", name))
		}
	}

	// ParseQuery возвращает уже разобранные пары вместе с ошибкой.
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("malformed query string: %v", err))
	}
	queryParams := make(map[string]string)
	if expected == nil {
		for k, v := range query {
			queryParams[k] = v[0]
		}
	} else {
		for _, k := range expected {
			v, ok := query[k]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("query parameter %q not found in URL", k))
				continue
			}
			queryParams[k] = v[0]
		}
	}

	return &ParsedURL{
		URL:         u.String(),
		Origin:      u.Scheme + "://" + u.Host,
		Host:        u.Host,
		Path:        u.Path,
		PathParams:  pathParams,
		QueryParams: queryParams,
	}, warnings, nil
}

// projectParsedURL выбирает часть результата по outputType.
func projectParsedURL(p *ParsedURL, params domain.HTTPParseParams) (string, error) {
	switch params.OutputType {
	case "", domain.OutputTypeJSON:
		return encodeJSON(p)

	case domain.OutputTypePathParams:
		return encodeJSON(p.PathParams)

	case domain.OutputTypeQueryParams:
		return encodeJSON(p.QueryParams)

	case domain.OutputTypeField:
		if params.OutputField == "" {
			return "", fmt.Errorf("%w: outputField is required for outputType %q", ErrInvalidParams, params.OutputType)
		}
		doc, err := encodeJSON(p)
		if err != nil {
			return "", err
		}
		return engine.ExtractJSONPath(doc, params.OutputField)

	case domain.OutputTypeParam:
		if params.OutputParam == "" {
			return "", fmt.Errorf("%w: outputParam is required for outputType %q", ErrInvalidParams, params.OutputType)
		}
		if v, ok := p.PathParams[params.OutputParam]; ok {
			return v, nil
		}
		if v, ok := p.QueryParams[params.OutputParam]; ok {
			return v, nil
		}
		return "", fmt.Errorf("parameter %q not found in path or query", params.OutputParam)

	default:
		return "", fmt.Errorf("%w: unknown outputType %q", ErrInvalidParams, params.OutputType)
	}
}

// HTTPBuildStep — сборка URL из базового адреса, шаблона пути и маппингов.
//
// Параметры (domain.HTTPBuildParams):
//
//	{
//	    "baseUrl": "https://api.example.com",
//	    "pathTemplate": "/users/:userId",
//	    "paramMappings": {"userId": {"source": "auto"}},
//	    "queryMappings": {"page": {"source": "fixed", "value": "2"}}
//	}
//
// Источники значений: auto — выход предыдущего шага, field — JSON path
// по выходу предыдущего шага, fixed — литерал. Без baseUrl базой
// служит сам вход.
type HTTPBuildStep struct{}

// NewHTTPBuildStep создаёт новый HTTPBuildStep.
func NewHTTPBuildStep() *HTTPBuildStep {
	return &HTTPBuildStep{}
}

// Type возвращает тип шага.
func (s *HTTPBuildStep) Type() domain.StepType {
	return domain.StepTypeHTTPBuild
}

// Execute собирает URL.
func (s *HTTPBuildStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	params := req.Step.HTTPBuild()

	base := strings.TrimSpace(params.BaseURL)
	if base == "" {
		base = strings.TrimSpace(req.Input)
	}
	if _, err := engine.ParseURL(base); err != nil {
		return nil, fmt.Errorf("base URL: %w", err)
	}

	placeholders := engine.PlaceholderNames(params.PathTemplate)
	known := make(map[string]bool, len(placeholders))
	values := make(map[string]string, len(placeholders))

	for _, name := range placeholders {
		known[name] = true
		m, ok := params.ParamMappings[name]
		if !ok {
			continue
		}
		v, err := resolveMapping(m, req.Input)
		if err != nil {
			return nil, fmt.Errorf("path parameter %s: %w", name, err)
		}
		values[name] = v
	}

	path, err := engine.FillPathTemplate(params.PathTemplate, values)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	for _, name := range sortedKeys(params.QueryMappings) {
		v, err := resolveMapping(params.QueryMappings[name], req.Input)
		if err != nil {
			return nil, fmt.Errorf("query parameter %s: %w", name, err)
		}
		query.Set(name, v)
	}

	var warnings []string
	for _, name := range sortedKeys(params.ParamMappings) {
		if !known[name] {
			warnings = append(warnings, fmt.Sprintf("paramMappings entry %q has no placeholder in pathTemplate", name))
		}
	}

	return NewResponse(engine.JoinURL(base, path, query), warnings...), nil
}

// resolveMapping вычисляет значение параметра по источнику.
func resolveMapping(m domain.ParamMapping, prev string) (string, error) {
	switch m.Source {
	case "", domain.MappingAuto:
		return prev, nil
	case domain.MappingField:
		return engine.ExtractJSONPath(prev, m.Value)
	case domain.MappingFixed:
		return m.Value, nil
	default:
		return "", fmt.Errorf("%w: unknown mapping source %q", ErrInvalidParams, m.Source)
	}
}

func sortedKeys(m map[string]domain.ParamMapping) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// encodeJSON сериализует значение без HTML-экранирования (URL содержат &).
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
