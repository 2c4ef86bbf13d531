package steps

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shaiso/Cipherchain/internal/domain"
)

const upperHex = "0123456789ABCDEF"

// URLEncodeStep — percent-encoding компонента URI.
//
// Без изменений остаются A–Z a–z 0–9 и - _ . ! ~ * ' ( ),
// остальные байты UTF-8 кодируются как %XX.
type URLEncodeStep struct{}

// NewURLEncodeStep создаёт новый URLEncodeStep.
func NewURLEncodeStep() *URLEncodeStep {
	return &URLEncodeStep{}
}

// Type возвращает тип шага.
func (s *URLEncodeStep) Type() domain.StepType {
	return domain.StepTypeURLEncode
}

// Execute кодирует вход.
func (s *URLEncodeStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return NewResponse(EncodeURIComponent(req.Input)), nil
}

// URLDecodeStep — обратное преобразование %XX.
// '+' остаётся '+', как в decodeURIComponent.
type URLDecodeStep struct{}

// NewURLDecodeStep создаёт новый URLDecodeStep.
func NewURLDecodeStep() *URLDecodeStep {
	return &URLDecodeStep{}
}

// Type возвращает тип шага.
func (s *URLDecodeStep) Type() domain.StepType {
	return domain.StepTypeURLDecode
}

// Execute декодирует вход.
func (s *URLDecodeStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	out, err := DecodeURIComponent(req.Input)
	if err != nil {
		return nil, err
	}
	return NewResponse(out), nil
}

// Base64EncodeStep — стандартный Base64 с дополнением.
type Base64EncodeStep struct{}

// NewBase64EncodeStep создаёт новый Base64EncodeStep.
func NewBase64EncodeStep() *Base64EncodeStep {
	return &Base64EncodeStep{}
}

// Type возвращает тип шага.
func (s *Base64EncodeStep) Type() domain.StepType {
	return domain.StepTypeBase64Encode
}

// Execute кодирует байты UTF-8 входа.
func (s *Base64EncodeStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return NewResponse(base64.StdEncoding.EncodeToString([]byte(req.Input))), nil
}

// Base64DecodeStep — декодирование стандартного Base64.
type Base64DecodeStep struct{}

// NewBase64DecodeStep создаёт новый Base64DecodeStep.
func NewBase64DecodeStep() *Base64DecodeStep {
	return &Base64DecodeStep{}
}

// Type возвращает тип шага.
func (s *Base64DecodeStep) Type() domain.StepType {
	return domain.StepTypeBase64Decode
}

// Execute декодирует вход. Пробелы по краям игнорируются.
// Если результат не UTF-8, шаг успешен, но добавляет предупреждение.
func (s *Base64DecodeStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(req.Input))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}

	if !utf8.Valid(data) {
		return NewResponse(string(data), "decoded data is not valid UTF-8 text"), nil
	}
	return NewResponse(string(data)), nil
}

// EncodeURIComponent кодирует строку по правилам encodeURIComponent.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

// DecodeURIComponent раскодирует %XX последовательности.
// Некорректная последовательность или результат не в UTF-8 → ErrMalformedPercentEncoding.
func DecodeURIComponent(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPercentEncoding, err)
	}
	if !utf8.ValidString(out) {
		return "", fmt.Errorf("%w: decoded bytes are not valid UTF-8", ErrMalformedPercentEncoding)
	}
	return out, nil
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
