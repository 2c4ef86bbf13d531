package domain

import (
	"time"
)

// ChainTemplate — сохранённая цепочка шагов.
//
// Создаётся пустой, изменяется добавлением/удалением/перестановкой шагов
// и сохраняется явно.
type ChainTemplate struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Steps       []Step     `json:"steps"`
	Created     time.Time  `json:"created"`
	LastUsed    *time.Time `json:"lastUsed,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// EnabledSteps возвращает включённые шаги шаблона.
func (t *ChainTemplate) EnabledSteps() []Step {
	return EnabledSteps(t.Steps)
}

// Touch отмечает использование шаблона.
func (t *ChainTemplate) Touch(now time.Time) {
	t.LastUsed = &now
}

// SavedKey — сохранённая пара RSA ключей.
//
// Принадлежит коллекции ключей; шаги ссылаются на неё через keyId
// и никогда не встраивают ключ в себя.
type SavedKey struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	PublicKey          string    `json:"publicKey"`
	PrivateKey         string    `json:"privateKey,omitempty"`
	KeySize            int       `json:"keySize"`
	PreferredAlgorithm Algorithm `json:"preferredAlgorithm,omitempty"`
	Created            time.Time `json:"created"`
}

// HasPrivateKey возвращает true, если ключ пригоден для расшифровки.
func (k *SavedKey) HasPrivateKey() bool {
	return k.PrivateKey != ""
}

// Public возвращает копию ключа без приватной части.
func (k SavedKey) Public() SavedKey {
	k.PrivateKey = ""
	return k
}
