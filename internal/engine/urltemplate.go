package engine

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jinzhu/inflection"
)

// SegmentKind — результат классификации сегмента пути.
type SegmentKind string

const (
	SegmentStatic   SegmentKind = "static"
	SegmentUUID     SegmentKind = "uuid"
	SegmentObjectID SegmentKind = "objectid"
	SegmentNumber   SegmentKind = "number"
	SegmentOpaque   SegmentKind = "opaque"
)

// opaqueMinLen — сегмент длиннее 20 символов считается непрозрачным идентификатором.
const opaqueMinLen = 21

var (
	uuidPattern        = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	objectIDPattern    = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	numberPattern      = regexp.MustCompile(`^[0-9]{2,}$`)
	placeholderPattern = regexp.MustCompile(`^(?::([A-Za-z_][A-Za-z0-9_]*)|\{([A-Za-z_][A-Za-z0-9_]*)\})$`)
)

// PathSegment — сегмент пути с результатом классификации.
type PathSegment struct {
	Index   int         `json:"index"`
	Value   string      `json:"value"`
	Kind    SegmentKind `json:"type"`
	Dynamic bool        `json:"dynamic"`
	Name    string      `json:"name,omitempty"`
}

// QueryParam — query параметр исходного URL.
// Все query параметры считаются потенциально динамическими.
type QueryParam struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Dynamic bool   `json:"dynamic"`
}

// URLAnalysis — предложение шаблона для URL.
//
// Это эвристика: вызывающий может принять, изменить или отбросить
// предложенные шаблоны.
type URLAnalysis struct {
	URL                    string        `json:"url"`
	Origin                 string        `json:"origin"`
	Segments               []PathSegment `json:"segments"`
	QueryParams            []QueryParam  `json:"queryParams"`
	SuggestedPathTemplate  string        `json:"suggestedPathTemplate"`
	SuggestedQueryTemplate string        `json:"suggestedQueryTemplate"`
	DynamicCount           int           `json:"dynamicCount"`
	DynamicQueryCount      int           `json:"dynamicQueryCount"`
}

// AnalyzeURL классифицирует сегменты пути и query параметры URL
// и предлагает pathTemplate / queryTemplate.
//
// Сегмент динамический, если это UUID, ObjectID (24 hex), число из
// двух и более цифр или строка длиннее 20 символов. Имя параметра:
//   - uuid → "uuid"
//   - число / ObjectID → единственное число предыдущего сегмента + "Id"
//     (users → userId), без предыдущего статического сегмента → "id"
//   - длинная строка → "param"
//
// Повторяющиеся имена получают числовой суффикс.
// Нераспознаваемый URL → ErrInvalidURL.
func AnalyzeURL(raw string) (*URLAnalysis, error) {
	u, err := ParseURL(raw)
	if err != nil {
		return nil, err
	}

	names := make(map[string]int)
	uniqueName := func(base string) string {
		names[base]++
		if n := names[base]; n > 1 {
			return fmt.Sprintf("%s%d", base, n)
		}
		return base
	}

	// Делим экранированный путь, чтобы %2F внутри сегмента не давал новый сегмент.
	rawSegments := splitPath(u.EscapedPath())
	segments := make([]PathSegment, 0, len(rawSegments))
	tmpl := make([]string, 0, len(rawSegments))
	dynamic := 0

	for i, raw := range rawSegments {
		value, err := url.PathUnescape(raw)
		if err != nil {
			value = raw
		}
		seg := PathSegment{Index: i, Value: value, Kind: classifySegment(value)}

		if seg.Kind != SegmentStatic {
			seg.Dynamic = true
			seg.Name = uniqueName(segmentName(seg.Kind, segments))
			dynamic++
			tmpl = append(tmpl, ":"+seg.Name)
		} else {
			tmpl = append(tmpl, raw)
		}

		segments = append(segments, seg)
	}

	query := orderedQuery(u.RawQuery)
	keys := make([]string, 0, len(query))
	for _, q := range query {
		keys = append(keys, q.Key)
	}

	queryTemplate := ""
	if len(keys) > 0 {
		b, err := json.Marshal(keys)
		if err != nil {
			return nil, fmt.Errorf("marshal query template: %w", err)
		}
		queryTemplate = string(b)
	}

	return &URLAnalysis{
		URL:                    raw,
		Origin:                 u.Scheme + "://" + u.Host,
		Segments:               segments,
		QueryParams:            query,
		SuggestedPathTemplate:  "/" + strings.Join(tmpl, "/"),
		SuggestedQueryTemplate: queryTemplate,
		DynamicCount:           dynamic,
		DynamicQueryCount:      len(query),
	}, nil
}

// ParseURL разбирает абсолютный URL (scheme://host...).
func ParseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidURL, trimmed)
	}
	return u, nil
}

// classifySegment определяет тип сегмента. Порядок проверок важен:
// UUID и ObjectID длиннее 20 символов.
func classifySegment(s string) SegmentKind {
	switch {
	case uuidPattern.MatchString(s):
		return SegmentUUID
	case objectIDPattern.MatchString(s):
		return SegmentObjectID
	case numberPattern.MatchString(s):
		return SegmentNumber
	case len(s) >= opaqueMinLen:
		return SegmentOpaque
	default:
		return SegmentStatic
	}
}

// segmentName возвращает базовое имя параметра для динамического сегмента.
func segmentName(kind SegmentKind, prev []PathSegment) string {
	switch kind {
	case SegmentUUID:
		return "uuid"
	case SegmentOpaque:
		return "param"
	}

	if n := len(prev); n > 0 && !prev[n-1].Dynamic {
		if base := camelCase(singular(prev[n-1].Value)); base != "" {
			return base + "Id"
		}
	}
	return "id"
}

// singular приводит английское существительное к единственному числу
// (users → user, categories → category, people → person).
func singular(word string) string {
	return inflection.Singular(word)
}

func init() {
	// /data/42 → dataId, а не datumId.
	inflection.AddUncountable("data", "metadata")
}

// camelCase: user-groups → userGroups, order_items → orderItems.
func camelCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})

	var b strings.Builder
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		if i == 0 {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		b.WriteString(p[size:])
	}
	return b.String()
}

// orderedQuery разбирает query строку, сохраняя порядок первых вхождений ключей.
func orderedQuery(raw string) []QueryParam {
	out := make([]QueryParam, 0)
	seen := make(map[string]bool)

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		if key == "" || seen[key] {
			continue
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			value = v
		}
		seen[key] = true
		out = append(out, QueryParam{Key: key, Value: value, Dynamic: true})
	}
	return out
}

// splitPath делит путь на непустые сегменты.
func splitPath(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// placeholderName возвращает имя плейсхолдера (:name или {name}).
func placeholderName(segment string) (string, bool) {
	m := placeholderPattern.FindStringSubmatch(segment)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

// PlaceholderNames возвращает имена плейсхолдеров шаблона пути по порядку.
func PlaceholderNames(template string) []string {
	var names []string
	for _, seg := range splitPath(template) {
		if name, ok := placeholderName(seg); ok {
			names = append(names, name)
		}
	}
	return names
}

// ExtractPathParams сопоставляет сегменты шаблона и пути по позиции.
//
// Статические сегменты не сверяются: это подсказка, а не маршрутизатор.
// Плейсхолдер без соответствующего сегмента пропускается.
func ExtractPathParams(template, path string) map[string]string {
	params := make(map[string]string)
	tmplSegs := splitPath(template)
	pathSegs := splitPath(path)

	for i, seg := range tmplSegs {
		name, ok := placeholderName(seg)
		if !ok || i >= len(pathSegs) {
			continue
		}
		value, err := url.PathUnescape(pathSegs[i])
		if err != nil {
			value = pathSegs[i]
		}
		params[name] = value
	}
	return params
}

// ParseQueryTemplate разбирает queryTemplate — JSON-массив ключей.
// Пустая строка → nil (извлекать все параметры).
func ParseQueryTemplate(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	var keys []string
	if err := json.Unmarshal([]byte(trimmed), &keys); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of strings: %v", ErrInvalidQueryTemplate, err)
	}
	return keys, nil
}

// FillPathTemplate подставляет значения в плейсхолдеры шаблона пути.
// Значения экранируются как сегменты пути. Плейсхолдер без значения →
// ErrUnmappedPlaceholder.
func FillPathTemplate(template string, values map[string]string) (string, error) {
	parts := strings.Split(template, "/")
	for i, seg := range parts {
		name, ok := placeholderName(seg)
		if !ok {
			continue
		}
		value, ok := values[name]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnmappedPlaceholder, name)
		}
		parts[i] = url.PathEscape(value)
	}
	return strings.Join(parts, "/"), nil
}

// JoinURL соединяет базовый URL и путь ровно одним слэшем и добавляет query.
// Query и фрагмент базового URL сохраняются, новые параметры дописываются
// после существующих. path ожидается уже экранированным.
func JoinURL(base, path string, query url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return joinURLString(base, path, query)
	}

	if path != "" {
		raw := strings.TrimRight(u.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			return joinURLString(base, path, query)
		}
		u.Path = decoded
		u.RawPath = raw
	}

	if len(query) > 0 {
		if u.RawQuery != "" {
			u.RawQuery += "&" + query.Encode()
		} else {
			u.RawQuery = query.Encode()
		}
	}
	return u.String()
}

// joinURLString — запасной вариант для base, который не разбирается url.Parse.
func joinURLString(base, path string, query url.Values) string {
	out := base
	if path != "" {
		out = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(out, "?") {
			sep = "&"
		}
		out += sep + query.Encode()
	}
	return out
}
