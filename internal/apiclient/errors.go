// errors.go — таксономия ошибок обращения к backend.
package apiclient

import (
	"errors"
	"fmt"
)

// Sentinel-ошибки клиента backend.
var (
	// ErrNetwork — транспортная ошибка, статус не 2xx или некорректный JSON.
	ErrNetwork = errors.New("backend недоступен")
	// ErrAuth — backend отклонил учётные данные при входе.
	ErrAuth = errors.New("неверные учётные данные")
	// ErrUnsuccessful — ответ 2xx, но success != true или data не массив.
	ErrUnsuccessful = errors.New("backend вернул неуспешный ответ")
)

// StatusError — ответ backend с неуспешным HTTP-статусом.
// Message — поле message из тела ответа (если есть).
type StatusError struct {
	StatusCode int
	Message    string

	kind error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend вернул статус %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend вернул статус %d", e.StatusCode)
}

// Unwrap возвращает категорию ошибки (ErrNetwork или ErrAuth).
func (e *StatusError) Unwrap() error {
	if e.kind == nil {
		return ErrNetwork
	}
	return e.kind
}

// UserMessage возвращает текст для уведомления пользователя:
// сообщение backend, если оно есть, иначе fallback.
func UserMessage(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
