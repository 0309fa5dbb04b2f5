// Пакет apiclient — HTTP-клиент к REST backend портала ZN Tax.
// models.go — модели запросов и ответов backend.
package apiclient

import "encoding/json"

// envelope — общий формат ответа backend: {success, data, message}.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// loginRequest — тело POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: поле формы входа
}

// loginResponse — ответ на вход.
type loginResponse struct {
	Token   string `json:"token"` //nolint:gosec // G117: JWT из ответа backend
	Message string `json:"message"`
}

// ClientCreate — данные нового клиента (POST /api/admin/create-user).
type ClientCreate struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"` //nolint:gosec // G117: пароль нового клиента
	PAN      string `json:"pan,omitempty"`
	GSTIN    string `json:"gstin,omitempty"`
	Address  string `json:"address,omitempty"`
}

// ClientUpdate — изменяемые поля клиента (PUT /api/admin/client/{id}).
type ClientUpdate struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	PAN     string `json:"pan"`
	GSTIN   string `json:"gstin"`
	Address string `json:"address"`
}
