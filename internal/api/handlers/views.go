// views.go — обработчики /api/v1/views: монтирование дашбордов,
// состояние, перезагрузка и фильтр по финансовому году.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/zntax/portal-module/internal/api/errors"
	"github.com/bigkaa/zntax/portal-module/internal/service"
)

// MountView — POST /api/v1/views.
// Монтирует дашборд вида admin или client; начальная загрузка идёт в фоне.
func (h *APIHandler) MountView(w http.ResponseWriter, r *http.Request) {
	var req mountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind, ok := service.ParseKind(req.Kind)
	if !ok {
		apierrors.ValidationError(w, "kind должен быть admin или client")
		return
	}

	v, err := h.views.Mount(kind)
	if err != nil {
		h.writeServiceError(w, err, "Не удалось открыть дашборд")
		return
	}

	w.Header().Set("Location", "/api/v1/views/"+v.ID())
	writeJSON(w, http.StatusCreated, mapView(v.Status()))
}

// GetView — GET /api/v1/views/{view_id}.
func (h *APIHandler) GetView(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapView(v.Status()))
}

// UnmountView — DELETE /api/v1/views/{view_id}.
func (h *APIHandler) UnmountView(w http.ResponseWriter, r *http.Request) {
	if !h.views.Unmount(chi.URLParam(r, "view_id")) {
		apierrors.NotFound(w, "Дашборд не найден или истёк")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshView — POST /api/v1/views/{view_id}/refresh.
// Синхронно перезагружает каталоги. Ошибка загрузки отражается и в ответе,
// и в статусе каталога; прежние данные сохраняются.
func (h *APIHandler) RefreshView(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	if err := v.Refresh(r.Context()); err != nil {
		h.writeServiceError(w, err, "Не удалось загрузить документы")
		return
	}
	writeJSON(w, http.StatusOK, mapView(v.Status()))
}

// SetViewFilter — PUT /api/v1/views/{view_id}/filter.
// Пустой год снимает фильтр.
func (h *APIHandler) SetViewFilter(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	var req filterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v.SetFilter(req.Year)
	writeJSON(w, http.StatusOK, mapView(v.Status()))
}

// --- Вспомогательные функции ---

// view находит дашборд по {view_id} и продлевает его TTL.
// При ошибке пишет ответ и возвращает false.
func (h *APIHandler) view(w http.ResponseWriter, r *http.Request) (*service.View, bool) {
	v, err := h.views.Get(chi.URLParam(r, "view_id"))
	if err != nil {
		h.writeServiceError(w, err, "Дашборд не найден")
		return nil, false
	}
	return v, true
}

// yearParam возвращает ?year= (nil — параметр не задан, используется
// активный фильтр дашборда).
func yearParam(r *http.Request) *string {
	q := r.URL.Query()
	if !q.Has("year") {
		return nil
	}
	year := q.Get("year")
	return &year
}

// effectiveFilter — фильтр, применённый к выдаче.
func effectiveFilter(v *service.View, year *string) string {
	if year != nil {
		return *year
	}
	return v.Status().Filter
}
