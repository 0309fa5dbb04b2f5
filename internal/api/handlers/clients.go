// clients.go — обработчики справочника клиентов дашборда администратора.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/zntax/portal-module/internal/apiclient"
)

// ListClients — GET /api/v1/views/{view_id}/clients.
// Только дашборд администратора.
func (h *APIHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	clients, err := v.Clients()
	if err != nil {
		h.writeServiceError(w, err, "Справочник клиентов недоступен")
		return
	}

	items := make([]clientResponse, len(clients))
	for i, c := range clients {
		items[i] = mapClient(c)
	}
	writeJSON(w, http.StatusOK, clientListResponse{Items: items, Total: len(items)})
}

// CreateClient — POST /api/v1/views/{view_id}/clients.
// После создания справочник перезагружается; ответ — обновлённое состояние дашборда.
func (h *APIHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := v.CreateClient(r.Context(), apiclient.ClientCreate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		PAN:      req.PAN,
		GSTIN:    req.GSTIN,
		Address:  req.Address,
	})
	if err != nil {
		h.writeServiceError(w, err, "Не удалось создать клиента")
		return
	}

	writeJSON(w, http.StatusCreated, mapView(v.Status()))
}

// UpdateClient — PUT /api/v1/views/{view_id}/clients/{client_id}.
func (h *APIHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := v.UpdateClient(r.Context(), chi.URLParam(r, "client_id"), apiclient.ClientUpdate{
		Name:    req.Name,
		Email:   req.Email,
		PAN:     req.PAN,
		GSTIN:   req.GSTIN,
		Address: req.Address,
	})
	if err != nil {
		h.writeServiceError(w, err, "Не удалось изменить клиента")
		return
	}

	writeJSON(w, http.StatusOK, mapView(v.Status()))
}

// DeleteClient — DELETE /api/v1/views/{view_id}/clients/{client_id}.
// Документы клиента остаются в каталоге с пометкой owner_orphaned.
func (h *APIHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	if err := v.DeleteClient(r.Context(), chi.URLParam(r, "client_id")); err != nil {
		h.writeServiceError(w, err, "Не удалось удалить клиента")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
