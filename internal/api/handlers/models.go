// models.go — JSON-модели запросов и ответов локального API и маппинг
// из моделей сервисного слоя.
package handlers

import (
	"time"

	"github.com/bigkaa/zntax/portal-module/internal/domain/model"
	"github.com/bigkaa/zntax/portal-module/internal/opener"
	"github.com/bigkaa/zntax/portal-module/internal/service"
	"github.com/bigkaa/zntax/portal-module/internal/session"
)

// --- Запросы ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: поле запроса входа
}

type mountRequest struct {
	Kind string `json:"kind"`
}

type filterRequest struct {
	Year string `json:"year"`
}

// clientRequest — форма клиента (создание и изменение).
// Password используется только при создании.
type clientRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"` //nolint:gosec // G117: пароль нового клиента
	PAN      string `json:"pan,omitempty"`
	GSTIN    string `json:"gstin,omitempty"`
	Address  string `json:"address,omitempty"`
}

// --- Ответы ---

type sessionResponse struct {
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	ExpiresAt *string `json:"expires_at,omitempty"`
}

type catalogStateResponse struct {
	Status    string  `json:"status"`
	Loading   bool    `json:"loading"`
	Loaded    bool    `json:"loaded"`
	Count     int     `json:"count"`
	Error     string  `json:"error,omitempty"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}

type viewResponse struct {
	ID        string                `json:"id"`
	Kind      string                `json:"kind"`
	Filter    string                `json:"filter"`
	CreatedAt string                `json:"created_at"`
	Documents catalogStateResponse  `json:"documents"`
	Clients   *catalogStateResponse `json:"clients,omitempty"`
}

type ownerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type documentResponse struct {
	ID            string        `json:"id"`
	FileName      string        `json:"file_name"`
	FileType      string        `json:"file_type"`
	FileTypeCode  string        `json:"file_type_code,omitempty"`
	FinancialYear string        `json:"financial_year"`
	Owner         ownerResponse `json:"owner"`
	OwnerOrphaned bool          `json:"owner_orphaned"`
	FileURL       string        `json:"file_url"`
	CanOpen       bool          `json:"can_open"`
	CreatedAt     *string       `json:"created_at,omitempty"`
}

type documentListResponse struct {
	Items  []documentResponse `json:"items"`
	Total  int                `json:"total"`
	Filter string             `json:"filter"`
}

type groupResponse struct {
	Type      string             `json:"type"`
	Code      string             `json:"code"`
	Count     int                `json:"count"`
	Documents []documentResponse `json:"documents"`
}

type groupListResponse struct {
	Groups []groupResponse `json:"groups"`
	Total  int             `json:"total"`
	Filter string          `json:"filter"`
}

type clientResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	PAN     string `json:"pan,omitempty"`
	GSTIN   string `json:"gstin,omitempty"`
	Address string `json:"address,omitempty"`
}

type clientListResponse struct {
	Items []clientResponse `json:"items"`
	Total int              `json:"total"`
}

// --- Маппинг ---

// formatTime форматирует время в RFC3339 (nil для нулевого значения).
func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func mapSession(s *session.Session) sessionResponse {
	return sessionResponse{
		Email:     s.Email,
		Role:      s.Role,
		ExpiresAt: formatTime(s.ExpiresAt),
	}
}

func mapCatalogState(st service.CatalogState) catalogStateResponse {
	return catalogStateResponse{
		Status:    string(st.Status),
		Loading:   st.Loading,
		Loaded:    st.Loaded,
		Count:     st.Count,
		Error:     st.Error,
		UpdatedAt: formatTime(st.UpdatedAt),
	}
}

func mapView(st service.ViewStatus) viewResponse {
	resp := viewResponse{
		ID:        st.ID,
		Kind:      string(st.Kind),
		Filter:    st.Filter,
		CreatedAt: st.CreatedAt.UTC().Format(time.RFC3339),
		Documents: mapCatalogState(st.Documents),
	}
	if st.Clients != nil {
		clients := mapCatalogState(*st.Clients)
		resp.Clients = &clients
	}
	return resp
}

func mapDocument(d service.DocumentView, o *opener.Opener) documentResponse {
	return documentResponse{
		ID:            d.ID,
		FileName:      d.FileName,
		FileType:      string(d.FileType),
		FileTypeCode:  d.FileType.Code(),
		FinancialYear: d.FinancialYear,
		Owner: ownerResponse{
			ID:    d.Owner.ID,
			Name:  d.Owner.Name,
			Email: d.Owner.Email,
		},
		OwnerOrphaned: d.OwnerOrphaned,
		FileURL:       d.FileURL,
		CanOpen:       o.CanOpen(d.FileURL),
		CreatedAt:     formatTime(d.CreatedAt),
	}
}

func mapDocuments(docs []service.DocumentView, o *opener.Opener) []documentResponse {
	items := make([]documentResponse, len(docs))
	for i, d := range docs {
		items[i] = mapDocument(d, o)
	}
	return items
}

func mapClient(c model.ClientRecord) clientResponse {
	return clientResponse{
		ID:      c.ID,
		Name:    c.Name,
		Email:   c.Email,
		PAN:     c.PAN,
		GSTIN:   c.GSTIN,
		Address: c.Address,
	}
}
