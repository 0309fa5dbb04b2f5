// handler.go — основной обработчик локального API портала.
// Объединяет health и доменные обработчики и делегирует запросы
// в сервисный слой (сессия, реестр дашбордов, выгрузка, открытие файлов).
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/zntax/portal-module/internal/api/errors"
	"github.com/bigkaa/zntax/portal-module/internal/apiclient"
	"github.com/bigkaa/zntax/portal-module/internal/opener"
	"github.com/bigkaa/zntax/portal-module/internal/service"
	"github.com/bigkaa/zntax/portal-module/internal/session"
	"github.com/bigkaa/zntax/portal-module/internal/upload"
)

// SessionService — операции сессии, используемые API (реализуется session.Manager).
type SessionService interface {
	Current() *session.Session
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Logout(ctx context.Context) error
}

// APIHandler — основной обработчик API портала.
type APIHandler struct {
	health        *HealthHandler
	sessions      SessionService
	views         *service.ViewRegistry
	export        *service.ExportService
	opener        *opener.Opener
	uploadMaxSize int64
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// uploadMaxSize — предельный размер multipart-запроса загрузки (ZP_UPLOAD_MAX_SIZE).
func NewAPIHandler(
	health *HealthHandler,
	sessions SessionService,
	views *service.ViewRegistry,
	export *service.ExportService,
	fileOpener *opener.Opener,
	uploadMaxSize int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		sessions:      sessions,
		views:         views,
		export:        export,
		opener:        fileOpener,
		uploadMaxSize: uploadMaxSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса. При ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return false
	}
	return true
}

// writeServiceError преобразует ошибку сервисного слоя в HTTP-ответ.
// message — текст уведомления, если backend не прислал своего.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, message string) {
	var (
		incomplete *upload.IncompleteError
		fields     *service.FieldsError
		statusErr  *apiclient.StatusError
	)

	switch {
	case errors.As(err, &incomplete):
		apierrors.MissingFields(w, "Заполните все поля формы загрузки", incomplete.Missing)
	case errors.As(err, &fields):
		apierrors.MissingFields(w, "Некорректно заполнены поля формы", fields.Fields)
	case errors.Is(err, session.ErrInvalidCredentials):
		apierrors.ValidationError(w, "Введите email и пароль")
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNoSession):
		apierrors.Unauthorized(w, "Войдите, чтобы продолжить")
	case errors.Is(err, apiclient.ErrAuth):
		apierrors.Unauthorized(w, apiclient.UserMessage(err, "Неверный email или пароль"))
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, "Операция доступна только администратору")
	case errors.Is(err, service.ErrViewNotFound):
		apierrors.NotFound(w, "Дашборд не найден или истёк")
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Запись не найдена")
	case errors.Is(err, opener.ErrUnsupported):
		apierrors.UnsupportedURL(w, "Не удаётся открыть файл")
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized:
		apierrors.Unauthorized(w, apiclient.UserMessage(err, "Сессия backend недействительна"))
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusForbidden:
		apierrors.Forbidden(w, apiclient.UserMessage(err, "Backend отклонил операцию"))
	case errors.Is(err, apiclient.ErrNetwork), errors.Is(err, apiclient.ErrUnsuccessful):
		h.logger.Warn("Ошибка обращения к backend", slog.String("error", err.Error()))
		apierrors.BackendUnavailable(w, apiclient.UserMessage(err, message))
	default:
		h.logger.Error("Внутренняя ошибка", slog.String("error", err.Error()))
		apierrors.InternalError(w, message)
	}
}
