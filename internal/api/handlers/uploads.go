// uploads.go — обработчик загрузки документа клиенту (только администратор).
package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	apierrors "github.com/bigkaa/zntax/portal-module/internal/api/errors"
	"github.com/bigkaa/zntax/portal-module/internal/upload"
)

// multipartMemory — часть multipart-тела, держимая в памяти; остальное на диске.
const multipartMemory = 8 << 20

// UploadDocument — POST /api/v1/views/{view_id}/uploads.
// multipart/form-data с полями clientId, file, financialYear, fileType.
// Незаполненные поля — 400 со списком missing; сеть при этом не используется.
func (h *APIHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	if r.ContentLength > h.uploadMaxSize {
		h.tooLarge(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(w)
			return
		}
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	fields := upload.Fields{
		ClientID:      r.FormValue(upload.FieldClientID),
		FinancialYear: r.FormValue(upload.FieldFinancialYear),
		FileType:      r.FormValue(upload.FieldFileType),
	}

	file, header, err := r.FormFile(upload.FieldFile)
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		fields.File = fileFromPart(file, header)
	case errors.Is(err, http.ErrMissingFile):
		// файл не выбран: сообщит NewRequest
	default:
		apierrors.ValidationError(w, "Некорректный файл: "+err.Error())
		return
	}

	if err := v.Upload(r.Context(), fields); err != nil {
		h.writeServiceError(w, err, "Не удалось загрузить документ")
		return
	}

	writeJSON(w, http.StatusCreated, mapView(v.Status()))
}

// tooLarge — 413 для тела больше ZP_UPLOAD_MAX_SIZE.
func (h *APIHandler) tooLarge(w http.ResponseWriter) {
	apierrors.WriteError(w, http.StatusRequestEntityTooLarge, apierrors.CodeValidationError,
		fmt.Sprintf("Файл больше допустимого размера (%d байт)", h.uploadMaxSize))
}

// fileFromPart собирает upload.File из части multipart-формы.
func fileFromPart(file multipart.File, header *multipart.FileHeader) *upload.File {
	return &upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}
}
