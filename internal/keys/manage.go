package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/rsacrypto"
)

// ErrNameRequired — у ключа должно быть имя.
var ErrNameRequired = errors.New("key name is required")

// Generator генерирует пары ключей (rsacrypto.Provider подходит).
type Generator interface {
	GenerateKeyPair(ctx context.Context, bits int) (*rsacrypto.KeyPair, error)
}

// Import проверяет PEM и собирает новый SavedKey.
// Приватный ключ необязателен, но если задан, должен составлять пару
// с публичным.
func Import(name, publicKeyPEM, privateKeyPEM string, preferred domain.Algorithm) (*domain.SavedKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if preferred != "" {
		if _, err := domain.ParseAlgorithm(string(preferred)); err != nil {
			return nil, err
		}
	}

	size, err := rsacrypto.KeySize(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}

	if strings.TrimSpace(privateKeyPEM) != "" {
		if err := rsacrypto.CheckPair(publicKeyPEM, privateKeyPEM); err != nil {
			return nil, err
		}
	}

	return &domain.SavedKey{
		ID:                 uuid.NewString(),
		Name:               name,
		PublicKey:          publicKeyPEM,
		PrivateKey:         privateKeyPEM,
		KeySize:            size,
		PreferredAlgorithm: preferred,
		Created:            time.Now().UTC(),
	}, nil
}

// Generate создаёт новую пару через gen и оборачивает её в SavedKey.
// bits == 0 — размер по умолчанию.
func Generate(ctx context.Context, gen Generator, name string, bits int, preferred domain.Algorithm) (*domain.SavedKey, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if _, err := domain.ParseAlgorithm(string(preferred)); err != nil {
		return nil, err
	}

	pair, err := gen.GenerateKeyPair(ctx, bits)
	if err != nil {
		return nil, err
	}
	return Import(name, pair.PublicKeyPEM, pair.PrivateKeyPEM, preferred)
}
