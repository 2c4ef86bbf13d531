package rsacrypto

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind — категория ошибки расшифровки.
type ErrorKind string

const (
	KindDecode            ErrorKind = "decode"
	KindKeyMismatch       ErrorKind = "key-mismatch"
	KindAlgorithmMismatch ErrorKind = "algorithm-mismatch"
	KindGeneric           ErrorKind = "generic"
)

// DecryptError — классифицированная ошибка расшифровки с подсказкой.
type DecryptError struct {
	Kind ErrorKind
	Hint string
	Err  error
}

func (e *DecryptError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (%s)", e.Err, e.Hint)
}

func (e *DecryptError) Unwrap() error {
	return e.Err
}

// Подсказки пользователю по категориям.
var hints = map[ErrorKind]string{
	KindDecode:            "check that the input is standard Base64 with padding",
	KindKeyMismatch:       "the data was probably encrypted with a different key",
	KindAlgorithmMismatch: "try the other algorithm (RSA-OAEP or RSA-PKCS1)",
	KindGeneric:           "check the key, the algorithm and the input",
}

// Classify относит ошибку провайдера к одной из категорий.
// Сначала проверяются sentinel-ошибки, затем текст сообщения
// (ошибки внешних бэкендов не всегда обёрнуты). nil → nil.
func Classify(err error) *DecryptError {
	if err == nil {
		return nil
	}

	var de *DecryptError
	if errors.As(err, &de) {
		return de
	}

	kind := classifyKind(err)
	return &DecryptError{Kind: kind, Hint: hints[kind], Err: err}
}

func classifyKind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrBase64Validation):
		return KindDecode
	case errors.Is(err, ErrAlgorithmMismatch):
		return KindAlgorithmMismatch
	case errors.Is(err, ErrKeyMismatch):
		return KindKeyMismatch
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "base64", "illegal character", "invalid character", "decode"):
		return KindDecode
	case containsAny(msg, "padding", "oaep", "pkcs1", "algorithm"):
		return KindAlgorithmMismatch
	case containsAny(msg, "key", "modulus", "size", "length"):
		return KindKeyMismatch
	default:
		return KindGeneric
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
