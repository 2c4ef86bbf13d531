package rsacrypto

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shaiso/Cipherchain/internal/domain"
)

var (
	testPairOnce sync.Once
	testPair     *KeyPair
	testPairErr  error
)

// pair возвращает общую 1024-битную пару для всех тестов пакета.
func pair(t *testing.T) *KeyPair {
	t.Helper()
	testPairOnce.Do(func() {
		testPair, testPairErr = NewProvider().GenerateKeyPair(context.Background(), 1024)
	})
	if testPairErr != nil {
		t.Fatalf("generate key pair: %v", testPairErr)
	}
	return testPair
}

func TestProvider_RoundTrip(t *testing.T) {
	p := NewProvider()
	kp := pair(t)
	ctx := context.Background()

	for _, alg := range []domain.Algorithm{domain.AlgorithmOAEP, domain.AlgorithmPKCS1} {
		t.Run(string(alg), func(t *testing.T) {
			enc, err := p.Encrypt(ctx, "hello, мир", kp.PublicKeyPEM, alg)
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}
			if enc.KeySizeBits != 1024 {
				t.Errorf("expected 1024-bit key, got %d", enc.KeySizeBits)
			}
			if _, err := ValidateBase64(enc.Ciphertext); err != nil {
				t.Errorf("ciphertext is not valid base64: %v", err)
			}

			dec, err := p.Decrypt(ctx, enc.Ciphertext, kp.PrivateKeyPEM, alg)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if dec.Plaintext != "hello, мир" {
				t.Errorf("expected round trip, got %q", dec.Plaintext)
			}
		})
	}
}

func TestProvider_AlgorithmMismatch(t *testing.T) {
	p := NewProvider()
	kp := pair(t)
	ctx := context.Background()

	enc, err := p.Encrypt(ctx, "secret", kp.PublicKeyPEM, domain.AlgorithmPKCS1)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	_, err = p.Decrypt(ctx, enc.Ciphertext, kp.PrivateKeyPEM, domain.AlgorithmOAEP)
	if !errors.Is(err, ErrAlgorithmMismatch) {
		t.Fatalf("expected ErrAlgorithmMismatch, got %v", err)
	}
	if got := Classify(err).Kind; got != KindAlgorithmMismatch {
		t.Errorf("expected %s, got %s", KindAlgorithmMismatch, got)
	}
}

func TestProvider_KeyMismatch(t *testing.T) {
	p := NewProvider()
	kp := pair(t)

	// 16 байт вместо 128 — шифртекст явно не от этого ключа
	_, err := p.Decrypt(context.Background(), "AAAAAAAAAAAAAAAAAAAAAA==", kp.PrivateKeyPEM, domain.AlgorithmOAEP)
	if !errors.Is(err, ErrKeyMismatch) {
		t.Fatalf("expected ErrKeyMismatch, got %v", err)
	}
	if got := Classify(err).Kind; got != KindKeyMismatch {
		t.Errorf("expected %s, got %s", KindKeyMismatch, got)
	}
}

func TestProvider_DecryptValidatesBase64First(t *testing.T) {
	p := NewProvider()

	// ключ невалиден, но ошибка должна быть про Base64
	_, err := p.Decrypt(context.Background(), "abc", "not a key", domain.AlgorithmOAEP)
	if !errors.Is(err, ErrBase64Validation) {
		t.Fatalf("expected ErrBase64Validation, got %v", err)
	}
	if !strings.Contains(err.Error(), "Base64 validation failed") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestProvider_WithoutPKCS1(t *testing.T) {
	p := NewProvider(WithoutPKCS1())
	kp := pair(t)

	if p.Supports(domain.AlgorithmPKCS1) {
		t.Error("PKCS1 should not be supported")
	}
	if !p.Supports(domain.AlgorithmOAEP) {
		t.Error("OAEP should be supported")
	}

	_, err := p.Encrypt(context.Background(), "x", kp.PublicKeyPEM, domain.AlgorithmPKCS1)
	if !IsUnsupported(err) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestProvider_MessageTooLong(t *testing.T) {
	p := NewProvider()
	kp := pair(t)

	// OAEP SHA-256 с 1024-битным ключом: максимум 128 - 66 = 62 байта
	_, err := p.Encrypt(context.Background(), strings.Repeat("a", 63), kp.PublicKeyPEM, domain.AlgorithmOAEP)
	if !errors.Is(err, ErrEncryptionFailed) {
		t.Errorf("expected ErrEncryptionFailed, got %v", err)
	}
}

func TestProvider_GenerateKeyPair_InvalidSize(t *testing.T) {
	_, err := NewProvider().GenerateKeyPair(context.Background(), 1000)
	if !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestPEM_Helpers(t *testing.T) {
	kp := pair(t)

	bits, err := KeySize(kp.PublicKeyPEM)
	if err != nil {
		t.Fatalf("KeySize: %v", err)
	}
	if bits != 1024 {
		t.Errorf("expected 1024, got %d", bits)
	}

	if err := CheckPair(kp.PublicKeyPEM, kp.PrivateKeyPEM); err != nil {
		t.Errorf("CheckPair: %v", err)
	}

	if _, err := ParsePublicKey(kp.PrivateKeyPEM); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey for private PEM as public, got %v", err)
	}
	if _, err := ParsePrivateKey("garbage"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}
