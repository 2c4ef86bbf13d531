// Package rsacrypto — криптопровайдер для RSA шагов цепочки.
//
// Сама криптография делегируется стандартной библиотеке (crypto/rsa):
//   - RSA-OAEP с SHA-256
//   - RSAES-PKCS1-v1_5
//
// Провайдер добавляет поверх неё то, что нужно цепочке: PEM разбор,
// Base64 шифртекста, проверку Base64 до расшифровки, распознавание
// несовпадения ключа/алгоритма и классификацию ошибок с подсказками.
package rsacrypto

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// Допустимые размеры ключей для генерации.
var allowedKeySizes = map[int]bool{
	1024: true,
	2048: true,
	3072: true,
	4096: true,
}

// DefaultKeySize — размер ключа по умолчанию.
const DefaultKeySize = 2048

// EncryptResult — результат шифрования.
type EncryptResult struct {
	// Ciphertext — шифртекст в стандартном Base64.
	Ciphertext string

	// KeySizeBits — размер модуля ключа.
	KeySizeBits int

	// Algorithm — фактически использованная схема.
	Algorithm domain.Algorithm
}

// DecryptResult — результат расшифровки.
type DecryptResult struct {
	Plaintext string
	Algorithm domain.Algorithm
}

// KeyPair — сгенерированная пара ключей в PEM.
type KeyPair struct {
	PublicKeyPEM  string
	PrivateKeyPEM string
	Bits          int
}

// Capability — то, что RSA шагам нужно от провайдера.
type Capability interface {
	Supports(alg domain.Algorithm) bool
	Encrypt(ctx context.Context, plaintext, publicKeyPEM string, alg domain.Algorithm) (*EncryptResult, error)
	Decrypt(ctx context.Context, ciphertext, privateKeyPEM string, alg domain.Algorithm) (*DecryptResult, error)
	GenerateKeyPair(ctx context.Context, bits int) (*KeyPair, error)
}

// Provider — реализация Capability на crypto/rsa.
type Provider struct {
	pkcs1  bool
	random io.Reader
}

// Option настраивает Provider.
type Option func(*Provider)

// WithoutPKCS1 отключает PKCS1 — так ведут себя бэкенды без поддержки
// RSAES-PKCS1-v1_5 (например, WebCrypto).
func WithoutPKCS1() Option {
	return func(p *Provider) {
		p.pkcs1 = false
	}
}

// WithRandom задаёт источник случайности (для тестов).
func WithRandom(r io.Reader) Option {
	return func(p *Provider) {
		p.random = r
	}
}

// NewProvider создаёт провайдер с поддержкой OAEP и PKCS1.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		pkcs1:  true,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Supports сообщает, поддерживается ли схема дополнения.
func (p *Provider) Supports(alg domain.Algorithm) bool {
	switch alg {
	case domain.AlgorithmOAEP:
		return true
	case domain.AlgorithmPKCS1:
		return p.pkcs1
	default:
		return false
	}
}

// Encrypt шифрует plaintext публичным ключом и возвращает Base64.
func (p *Provider) Encrypt(ctx context.Context, plaintext, publicKeyPEM string, alg domain.Algorithm) (*EncryptResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.Supports(alg) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	msg := []byte(plaintext)
	if limit := maxMessageLen(pub, alg); len(msg) > limit {
		return nil, fmt.Errorf("%w: message is %d bytes, %s with a %d-bit key allows at most %d",
			ErrEncryptionFailed, len(msg), alg, pub.N.BitLen(), limit)
	}

	var ct []byte
	switch alg {
	case domain.AlgorithmPKCS1:
		ct, err = rsa.EncryptPKCS1v15(p.random, pub, msg)
	default:
		ct, err = rsa.EncryptOAEP(sha256.New(), p.random, pub, msg, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	return &EncryptResult{
		Ciphertext:  base64.StdEncoding.EncodeToString(ct),
		KeySizeBits: pub.N.BitLen(),
		Algorithm:   alg,
	}, nil
}

// Decrypt расшифровывает Base64 шифртекст приватным ключом.
//
// Base64 проверяется до расшифровки. При неудаче провайдер пытается
// уточнить причину:
//   - длина шифртекста не равна размеру модуля → ErrKeyMismatch
//   - другая схема дополнения расшифровывает данные → ErrAlgorithmMismatch
//   - иначе → ErrDecryptionFailed
func (p *Provider) Decrypt(ctx context.Context, ciphertext, privateKeyPEM string, alg domain.Algorithm) (*DecryptResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.Supports(alg) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	ct, err := DecodeBase64(ciphertext)
	if err != nil {
		return nil, err
	}

	priv, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}

	if len(ct) != priv.Size() {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes but the %d-bit key expects %d",
			ErrKeyMismatch, len(ct), priv.N.BitLen(), priv.Size())
	}

	plain, err := p.decrypt(priv, ct, alg)
	if err == nil {
		return &DecryptResult{Plaintext: string(plain), Algorithm: alg}, nil
	}

	if other := otherAlgorithm(alg); p.Supports(other) {
		if _, otherErr := p.decrypt(priv, ct, other); otherErr == nil {
			return nil, fmt.Errorf("%w: data was encrypted with %s, not %s", ErrAlgorithmMismatch, other, alg)
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
}

func (p *Provider) decrypt(priv *rsa.PrivateKey, ct []byte, alg domain.Algorithm) ([]byte, error) {
	if alg == domain.AlgorithmPKCS1 {
		return rsa.DecryptPKCS1v15(nil, priv, ct)
	}
	return rsa.DecryptOAEP(sha256.New(), nil, priv, ct, nil)
}

// GenerateKeyPair генерирует пару ключей: PKIX публичный и PKCS#8 приватный PEM.
func (p *Provider) GenerateKeyPair(ctx context.Context, bits int) (*KeyPair, error) {
	if bits == 0 {
		bits = DefaultKeySize
	}
	if !allowedKeySizes[bits] {
		return nil, fmt.Errorf("%w: %d (allowed: 1024, 2048, 3072, 4096)", ErrInvalidKeySize, bits)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priv, err := rsa.GenerateKey(p.random, bits)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}

	return &KeyPair{
		PublicKeyPEM:  encodePEM("PUBLIC KEY", pubDER),
		PrivateKeyPEM: encodePEM("PRIVATE KEY", privDER),
		Bits:          bits,
	}, nil
}

// maxMessageLen возвращает максимальную длину сообщения для ключа и схемы.
func maxMessageLen(pub *rsa.PublicKey, alg domain.Algorithm) int {
	k := pub.Size()
	if alg == domain.AlgorithmPKCS1 {
		return k - 11
	}
	return k - 2*sha256.Size - 2
}

func otherAlgorithm(alg domain.Algorithm) domain.Algorithm {
	if alg == domain.AlgorithmPKCS1 {
		return domain.AlgorithmOAEP
	}
	return domain.AlgorithmPKCS1
}

// IsUnsupported проверяет, что ошибка вызвана неподдерживаемым алгоритмом.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedAlgorithm)
}
