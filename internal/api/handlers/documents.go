// documents.go — обработчики каталога документов дашборда:
// список, группы, открытие файла, выгрузка XLSX, удаление.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// xlsxContentType — MIME-тип выгрузки.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListDocuments — GET /api/v1/views/{view_id}/documents.
// Плоский список, отфильтрованный по году (?year= переопределяет активный фильтр).
func (h *APIHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	year := yearParam(r)
	items := mapDocuments(v.Documents(year), h.opener)

	writeJSON(w, http.StatusOK, documentListResponse{
		Items:  items,
		Total:  len(items),
		Filter: effectiveFilter(v, year),
	})
}

// ListGroups — GET /api/v1/views/{view_id}/groups.
// Всегда четыре категории в каноническом порядке, включая пустые:
// скрывать пустые категории решает клиент.
func (h *APIHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	year := yearParam(r)
	groups := v.Groups(year)

	resp := groupListResponse{
		Groups: make([]groupResponse, len(groups)),
		Filter: effectiveFilter(v, year),
	}
	for i, g := range groups {
		docs := mapDocuments(g.Documents, h.opener)
		resp.Groups[i] = groupResponse{
			Type:      string(g.Type),
			Code:      g.Type.Code(),
			Count:     len(docs),
			Documents: docs,
		}
		resp.Total += len(docs)
	}

	writeJSON(w, http.StatusOK, resp)
}

// OpenDocument — GET /api/v1/views/{view_id}/documents/{document_id}/open.
// 307 на URL файла или 422, если URL нельзя открыть.
func (h *APIHandler) OpenDocument(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	d, err := v.Document(chi.URLParam(r, "document_id"))
	if err != nil {
		h.writeServiceError(w, err, "Документ не найден")
		return
	}

	target, err := h.opener.Open(d.FileURL)
	if err != nil {
		h.logger.Warn("URL документа не открывается",
			slog.String("document_id", d.ID),
			slog.String("error", err.Error()),
		)
		h.writeServiceError(w, err, "Не удаётся открыть файл")
		return
	}

	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// ExportDocuments — GET /api/v1/views/{view_id}/export.
// XLSX с отфильтрованным каталогом, строки по категориям.
func (h *APIHandler) ExportDocuments(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	data, err := h.export.Workbook(v, yearParam(r))
	if err != nil {
		h.writeServiceError(w, err, "Не удалось сформировать выгрузку")
		return
	}

	filename := "documents-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteDocument — DELETE /api/v1/views/{view_id}/documents/{document_id}.
// Только администратор. После удаления каталог перезагружается.
func (h *APIHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	if err := v.DeleteFile(r.Context(), chi.URLParam(r, "document_id")); err != nil {
		h.writeServiceError(w, err, "Не удалось удалить документ")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
