package rsacrypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
)

// ParsePublicKey разбирает PEM с публичным ключом.
// Поддерживаются "PUBLIC KEY" (PKIX) и "RSA PUBLIC KEY" (PKCS#1).
// Сертификат тоже принимается — из него берётся ключ.
func ParsePublicKey(data string) (*rsa.PublicKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA public key (%T)", ErrInvalidKey, key)
		}
		return rsaKey, nil

	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return key, nil

	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: certificate does not hold an RSA key", ErrInvalidKey)
		}
		return rsaKey, nil

	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q for a public key", ErrInvalidKey, block.Type)
	}
}

// ParsePrivateKey разбирает PEM с приватным ключом.
// Поддерживаются "PRIVATE KEY" (PKCS#8) и "RSA PRIVATE KEY" (PKCS#1).
func ParsePrivateKey(data string) (*rsa.PrivateKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA private key (%T)", ErrInvalidKey, key)
		}
		return rsaKey, nil

	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q for a private key", ErrInvalidKey, block.Type)
	}
}

// KeySize возвращает размер ключа в битах по публичному PEM.
func KeySize(publicKeyPEM string) (int, error) {
	key, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return 0, err
	}
	return key.N.BitLen(), nil
}

// CheckPair проверяет, что публичный и приватный ключ образуют пару.
func CheckPair(publicKeyPEM, privateKeyPEM string) error {
	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return err
	}
	priv, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return err
	}
	if !pub.Equal(&priv.PublicKey) {
		return fmt.Errorf("%w: public and private keys are not a pair", ErrInvalidKey)
	}
	return nil
}

func decodePEM(data string) (*pem.Block, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty PEM", ErrInvalidKey)
	}

	block, _ := pem.Decode([]byte(trimmed))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}
	return block, nil
}

func encodePEM(blockType string, der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}))
}
