package rsacrypto

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"
)

// ValidateBase64 проверяет, что s — корректный стандартный Base64 с
// дополнением, и возвращает его без пробельных символов.
//
// Проверки (в этом порядке):
//   - непустой ввод
//   - длина кратна 4
//   - не более двух '=' и только в конце
//   - все остальные символы из стандартного алфавита
func ValidateBase64(s string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if clean == "" {
		return "", fmt.Errorf("%w: input is empty", ErrBase64Validation)
	}

	if len(clean)%4 != 0 {
		return "", fmt.Errorf("%w: length %d is not a multiple of 4", ErrBase64Validation, len(clean))
	}

	body := strings.TrimRight(clean, "=")
	if padding := len(clean) - len(body); padding > 2 {
		return "", fmt.Errorf("%w: %d padding characters (at most 2 allowed)", ErrBase64Validation, padding)
	}

	for i := 0; i < len(body); i++ {
		if !isBase64Char(body[i]) {
			if body[i] == '=' {
				return "", fmt.Errorf("%w: padding character at position %d before the end", ErrBase64Validation, i)
			}
			return "", fmt.Errorf("%w: invalid character %q at position %d", ErrBase64Validation, body[i], i)
		}
	}

	return clean, nil
}

// DecodeBase64 проверяет и декодирует стандартный Base64.
func DecodeBase64(s string) ([]byte, error) {
	clean, err := ValidateBase64(s)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBase64Validation, err)
	}
	return data, nil
}

func isBase64Char(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '+', c == '/':
		return true
	default:
		return false
	}
}
