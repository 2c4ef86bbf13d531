package api

import (
	"net/http"
	"strconv"
)

// ListHistory возвращает последние выполнения, новые первыми.
// GET /api/v1/history?limit=
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	list, err := h.history.List(r.Context(), limit)
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	List(w, list, len(list))
}

// ClearHistory удаляет всю историю.
// DELETE /api/v1/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(r.Context()); err != nil {
		InternalError(w, h.log(r), err)
		return
	}

	NoContent(w)
}

// DeleteHistoryEntry удаляет одну запись.
// DELETE /api/v1/history/{id}
func (h *Handler) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Delete(r.Context(), r.PathValue("id")); err != nil {
		HandleRepoError(w, h.log(r), err, "history entry not found")
		return
	}

	NoContent(w)
}
