package steps

import (
	"context"
	"fmt"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/rsacrypto"
)

// RSAEncryptStep — шифрование публичным ключом сохранённой пары.
//
// Параметры (domain.RSAParams):
//
//	{"keyId": "…", "algorithm": "RSA-OAEP"}
//
// Выход — шифртекст в Base64.
type RSAEncryptStep struct {
	provider rsacrypto.Capability
}

// NewRSAEncryptStep создаёт новый RSAEncryptStep.
func NewRSAEncryptStep(provider rsacrypto.Capability) *RSAEncryptStep {
	return &RSAEncryptStep{provider: provider}
}

// Type возвращает тип шага.
func (s *RSAEncryptStep) Type() domain.StepType {
	return domain.StepTypeRSAEncrypt
}

// Execute шифрует вход.
func (s *RSAEncryptStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	key, alg, warnings, err := prepareRSA(req, s.provider)
	if err != nil {
		return nil, err
	}

	res, err := s.provider.Encrypt(ctx, req.Input, key.PublicKey, alg)
	if err != nil {
		return nil, fmt.Errorf("encrypt with key %s: %w", key.ID, err)
	}

	return NewResponse(res.Ciphertext, warnings...), nil
}

// RSADecryptStep — расшифровка приватным ключом сохранённой пары.
//
// Вход обязан быть корректным Base64: это проверяется до обращения к
// провайдеру. Ошибки провайдера классифицируются (rsacrypto.Classify)
// и несут подсказку для пользователя.
type RSADecryptStep struct {
	provider rsacrypto.Capability
}

// NewRSADecryptStep создаёт новый RSADecryptStep.
func NewRSADecryptStep(provider rsacrypto.Capability) *RSADecryptStep {
	return &RSADecryptStep{provider: provider}
}

// Type возвращает тип шага.
func (s *RSADecryptStep) Type() domain.StepType {
	return domain.StepTypeRSADecrypt
}

// Execute расшифровывает вход.
func (s *RSADecryptStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	key, alg, warnings, err := prepareRSA(req, s.provider)
	if err != nil {
		return nil, err
	}
	if !key.HasPrivateKey() {
		return nil, fmt.Errorf("%w: key %s has no private key", ErrInvalidParams, key.ID)
	}

	if _, err := rsacrypto.ValidateBase64(req.Input); err != nil {
		return nil, rsacrypto.Classify(err)
	}

	res, err := s.provider.Decrypt(ctx, req.Input, key.PrivateKey, alg)
	if err != nil {
		return nil, rsacrypto.Classify(err)
	}

	return NewResponse(res.Plaintext, warnings...), nil
}

// prepareRSA разрешает ключ и выбирает алгоритм.
//
// Алгоритм: params.algorithm → предпочтительный алгоритм ключа → OAEP.
// Если провайдер не поддерживает PKCS1, используется OAEP и
// возвращается предупреждение.
func prepareRSA(req *Request, provider rsacrypto.Capability) (domain.SavedKey, domain.Algorithm, []string, error) {
	params := req.Step.RSA()
	if params.KeyID == "" {
		return domain.SavedKey{}, "", nil, ErrMissingKeyID
	}

	key, err := req.Keys.Resolve(params.KeyID)
	if err != nil {
		return domain.SavedKey{}, "", nil, err
	}

	requested := params.Algorithm
	if requested == "" {
		requested = key.PreferredAlgorithm
	}

	alg, err := domain.ParseAlgorithm(string(requested))
	if err != nil {
		return domain.SavedKey{}, "", nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	var warnings []string
	if !provider.Supports(alg) {
		if alg != domain.AlgorithmPKCS1 || !provider.Supports(domain.AlgorithmOAEP) {
			return domain.SavedKey{}, "", nil, fmt.Errorf("%w: %s", rsacrypto.ErrUnsupportedAlgorithm, alg)
		}
		warnings = append(warnings, fmt.Sprintf(
			"%s is not supported by the crypto backend, %s was used instead",
			domain.AlgorithmPKCS1, domain.AlgorithmOAEP))
		alg = domain.AlgorithmOAEP
	}

	return key, alg, warnings, nil
}
