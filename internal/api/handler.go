package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shaiso/Cipherchain/internal/chain"
	"github.com/shaiso/Cipherchain/internal/keys"
	"github.com/shaiso/Cipherchain/internal/repo"
	"github.com/shaiso/Cipherchain/internal/telemetry"
)

// maxBodyBytes — предел размера тела запроса.
const maxBodyBytes = 4 << 20

// Handler — обработчик API со всеми зависимостями.
type Handler struct {
	service   *chain.Service
	keys      repo.KeyStore
	templates repo.TemplateStore
	history   repo.HistoryStore
	generator keys.Generator
	logger    *slog.Logger
}

// Config — зависимости Handler.
type Config struct {
	Service   *chain.Service
	Keys      repo.KeyStore
	Templates repo.TemplateStore
	History   repo.HistoryStore

	// Generator — генерация пар ключей (обычно rsacrypto.Provider).
	Generator keys.Generator

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service:   cfg.Service,
		keys:      cfg.Keys,
		templates: cfg.Templates,
		history:   cfg.History,
		generator: cfg.Generator,
		logger:    logger,
	}
}

// log возвращает логгер запроса (с request_id, если есть).
func (h *Handler) log(r *http.Request) *slog.Logger {
	return telemetry.FromContextOr(r.Context(), h.logger)
}

// decode читает JSON тело запроса. При ошибке отвечает 400 и возвращает false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
