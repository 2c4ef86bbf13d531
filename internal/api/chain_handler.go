package api

import (
	"net/http"

	"github.com/shaiso/Cipherchain/internal/chain"
	"github.com/shaiso/Cipherchain/internal/engine"
)

// ExecuteChain выполняет переданную цепочку.
// POST /api/v1/chains/execute
//
// Ошибки шагов не меняют статус ответа: результат с success=false
// возвращается с 200. 500 означает недоступность хранилища ключей.
func (h *Handler) ExecuteChain(w http.ResponseWriter, r *http.Request) {
	var req ExecuteChainRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Run(r.Context(), req.Steps, req.Input, chain.RunOptions{
		TemplateID:   req.TemplateID,
		TemplateName: req.TemplateName,
	})
	if err != nil {
		InternalError(w, h.log(r), err)
		return
	}

	Success(w, res)
}

// ValidateChain проверяет цепочку без выполнения.
// POST /api/v1/chains/validate
func (h *Handler) ValidateChain(w http.ResponseWriter, r *http.Request) {
	var req ValidateChainRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Validate(r.Context(), req.Steps)
	if err != nil {
		InternalError(w, h.log(r), err)
		return
	}

	Success(w, res)
}

// AnalyzeURL разбирает URL и предлагает шаблоны пути и query.
// POST /api/v1/urls/analyze
func (h *Handler) AnalyzeURL(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeURLRequest
	if !decode(w, r, &req) {
		return
	}

	analysis, err := engine.AnalyzeURL(req.URL)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	Success(w, analysis)
}
