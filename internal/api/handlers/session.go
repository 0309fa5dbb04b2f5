// session.go — обработчики /api/v1/session: вход, текущая сессия, выход.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/zntax/portal-module/internal/api/errors"
)

// Login — POST /api/v1/session.
// Обменивает email и пароль на токен backend и открывает сессию.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err, "Не удалось выполнить вход")
		return
	}

	writeJSON(w, http.StatusCreated, mapSession(s))
}

// GetSession — GET /api/v1/session.
// 401, если сессии нет.
func (h *APIHandler) GetSession(w http.ResponseWriter, _ *http.Request) {
	s := h.sessions.Current()
	if s == nil {
		apierrors.Unauthorized(w, "Войдите, чтобы продолжить")
		return
	}
	writeJSON(w, http.StatusOK, mapSession(s))
}

// Logout — DELETE /api/v1/session.
// Идемпотентен: выход без сессии тоже 204.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.writeServiceError(w, err, "Не удалось выйти")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
