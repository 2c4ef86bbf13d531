package rsacrypto

import "errors"

// Ошибки криптопровайдера.
var (
	// ErrBase64Validation — шифртекст не является корректным Base64.
	// Проверяется до любой криптографической операции.
	ErrBase64Validation = errors.New("Base64 validation failed")

	// ErrInvalidKey — PEM не содержит пригодного RSA ключа.
	ErrInvalidKey = errors.New("invalid RSA key")

	// ErrInvalidKeySize — недопустимый размер ключа для генерации.
	ErrInvalidKeySize = errors.New("invalid RSA key size")

	// ErrUnsupportedAlgorithm — провайдер не поддерживает схему дополнения.
	ErrUnsupportedAlgorithm = errors.New("unsupported RSA algorithm")

	// ErrKeyMismatch — шифртекст не соответствует ключу (другой размер модуля).
	ErrKeyMismatch = errors.New("ciphertext does not match key")

	// ErrAlgorithmMismatch — данные зашифрованы другой схемой дополнения.
	ErrAlgorithmMismatch = errors.New("algorithm mismatch")

	// ErrDecryptionFailed — расшифровка не удалась по неустановленной причине.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrEncryptionFailed — шифрование не удалось.
	ErrEncryptionFailed = errors.New("encryption failed")
)
