package api

import (
	"time"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// Chain DTOs

// ExecuteChainRequest — запрос на выполнение цепочки.
type ExecuteChainRequest struct {
	Steps        []domain.Step `json:"steps"`
	Input        string        `json:"input"`
	TemplateID   string        `json:"templateId,omitempty"`
	TemplateName string        `json:"templateName,omitempty"`
}

// ValidateChainRequest — запрос на проверку цепочки.
type ValidateChainRequest struct {
	Steps []domain.Step `json:"steps"`
}

// AnalyzeURLRequest — запрос на анализ URL.
type AnalyzeURLRequest struct {
	URL string `json:"url"`
}

// Key DTOs

// CreateKeyRequest — импорт существующей пары.
type CreateKeyRequest struct {
	Name               string           `json:"name"`
	PublicKey          string           `json:"publicKey"`
	PrivateKey         string           `json:"privateKey,omitempty"`
	PreferredAlgorithm domain.Algorithm `json:"preferredAlgorithm,omitempty"`
}

// GenerateKeyRequest — генерация новой пары.
type GenerateKeyRequest struct {
	Name               string           `json:"name"`
	KeySize            int              `json:"keySize,omitempty"`
	PreferredAlgorithm domain.Algorithm `json:"preferredAlgorithm,omitempty"`
}

// KeyResponse — ключ без приватной части.
type KeyResponse struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	PublicKey          string           `json:"publicKey"`
	KeySize            int              `json:"keySize"`
	PreferredAlgorithm domain.Algorithm `json:"preferredAlgorithm,omitempty"`
	HasPrivateKey      bool             `json:"hasPrivateKey"`
	Created            time.Time        `json:"created"`
}

// KeyFromDomain конвертирует domain.SavedKey в KeyResponse.
func KeyFromDomain(k domain.SavedKey) KeyResponse {
	return KeyResponse{
		ID:                 k.ID,
		Name:               k.Name,
		PublicKey:          k.PublicKey,
		KeySize:            k.KeySize,
		PreferredAlgorithm: k.PreferredAlgorithm,
		HasPrivateKey:      k.HasPrivateKey(),
		Created:            k.Created,
	}
}

// Template DTOs

// TemplateRequest — создание или полная замена шаблона.
type TemplateRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Steps       []domain.Step `json:"steps"`
	Tags        []string      `json:"tags,omitempty"`
}

// RunTemplateRequest — вход для запуска шаблона.
type RunTemplateRequest struct {
	Input string `json:"input"`
}
