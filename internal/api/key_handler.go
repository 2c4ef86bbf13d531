package api

import (
	"errors"
	"net/http"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/keys"
	"github.com/shaiso/Cipherchain/internal/rsacrypto"
)

// ListKeys возвращает ключи без приватных частей.
// GET /api/v1/keys
func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	list, err := h.keys.List(r.Context())
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	result := make([]KeyResponse, len(list))
	for i, k := range list {
		result[i] = KeyFromDomain(k)
	}

	List(w, result, len(result))
}

// CreateKey импортирует существующую пару (PEM).
// POST /api/v1/keys
func (h *Handler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req CreateKeyRequest
	if !decode(w, r, &req) {
		return
	}

	key, err := keys.Import(req.Name, req.PublicKey, req.PrivateKey, req.PreferredAlgorithm)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	h.saveKey(w, r, key)
}

// GenerateKey генерирует и сохраняет новую пару.
// POST /api/v1/keys/generate
func (h *Handler) GenerateKey(w http.ResponseWriter, r *http.Request) {
	var req GenerateKeyRequest
	if !decode(w, r, &req) {
		return
	}

	if _, err := domain.ParseAlgorithm(string(req.PreferredAlgorithm)); err != nil {
		BadRequest(w, err.Error())
		return
	}

	key, err := keys.Generate(r.Context(), h.generator, req.Name, req.KeySize, req.PreferredAlgorithm)
	if err != nil {
		if errors.Is(err, keys.ErrNameRequired) || errors.Is(err, rsacrypto.ErrInvalidKeySize) {
			BadRequest(w, err.Error())
			return
		}
		InternalError(w, h.log(r), err)
		return
	}

	h.saveKey(w, r, key)
}

func (h *Handler) saveKey(w http.ResponseWriter, r *http.Request, key *domain.SavedKey) {
	if err := h.keys.Create(r.Context(), key); err != nil {
		HandleRepoError(w, h.log(r), err, "")
		return
	}

	h.log(r).Info("key saved", "key_id", key.ID, "key_size", key.KeySize)
	Created(w, KeyFromDomain(*key))
}

// GetKey возвращает ключ по ID.
// GET /api/v1/keys/{id}
func (h *Handler) GetKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.keys.Get(r.Context(), r.PathValue("id"))
	if HandleRepoError(w, h.log(r), err, "key not found") {
		return
	}

	Success(w, KeyFromDomain(*key))
}

// DeleteKey удаляет ключ. Шаблоны, ссылающиеся на него, не меняются:
// валидатор сообщит об устаревшей ссылке.
// DELETE /api/v1/keys/{id}
func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	if err := h.keys.Delete(r.Context(), r.PathValue("id")); err != nil {
		HandleRepoError(w, h.log(r), err, "key not found")
		return
	}

	NoContent(w)
}
