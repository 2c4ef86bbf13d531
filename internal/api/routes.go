package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		RequestLogger(h.logger),
		Logging(h.logger),
	)

	// Chains
	mux.Handle("POST /api/v1/chains/execute", chain(http.HandlerFunc(h.ExecuteChain)))
	mux.Handle("POST /api/v1/chains/validate", chain(http.HandlerFunc(h.ValidateChain)))
	mux.Handle("POST /api/v1/urls/analyze", chain(http.HandlerFunc(h.AnalyzeURL)))

	// Keys
	mux.Handle("GET /api/v1/keys", chain(http.HandlerFunc(h.ListKeys)))
	mux.Handle("POST /api/v1/keys", chain(http.HandlerFunc(h.CreateKey)))
	mux.Handle("POST /api/v1/keys/generate", chain(http.HandlerFunc(h.GenerateKey)))
	mux.Handle("GET /api/v1/keys/{id}", chain(http.HandlerFunc(h.GetKey)))
	mux.Handle("DELETE /api/v1/keys/{id}", chain(http.HandlerFunc(h.DeleteKey)))

	// Templates
	mux.Handle("GET /api/v1/templates", chain(http.HandlerFunc(h.ListTemplates)))
	mux.Handle("POST /api/v1/templates", chain(http.HandlerFunc(h.CreateTemplate)))
	mux.Handle("GET /api/v1/templates/{id}", chain(http.HandlerFunc(h.GetTemplate)))
	mux.Handle("PUT /api/v1/templates/{id}", chain(http.HandlerFunc(h.UpdateTemplate)))
	mux.Handle("DELETE /api/v1/templates/{id}", chain(http.HandlerFunc(h.DeleteTemplate)))
	mux.Handle("POST /api/v1/templates/{id}/run", chain(http.HandlerFunc(h.RunTemplate)))

	// History
	mux.Handle("GET /api/v1/history", chain(http.HandlerFunc(h.ListHistory)))
	mux.Handle("DELETE /api/v1/history", chain(http.HandlerFunc(h.ClearHistory)))
	mux.Handle("DELETE /api/v1/history/{id}", chain(http.HandlerFunc(h.DeleteHistoryEntry)))
}
