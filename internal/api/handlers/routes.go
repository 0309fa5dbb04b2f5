// routes.go — таблица маршрутов локального API.
package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes регистрирует все маршруты API на роутере.
func RegisterRoutes(r chi.Router, h *APIHandler) {
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Get("/metrics", h.GetMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", h.Login)
		r.Get("/session", h.GetSession)
		r.Delete("/session", h.Logout)

		r.Post("/views", h.MountView)
		r.Route("/views/{view_id}", func(r chi.Router) {
			r.Get("/", h.GetView)
			r.Delete("/", h.UnmountView)
			r.Post("/refresh", h.RefreshView)
			r.Put("/filter", h.SetViewFilter)

			r.Get("/documents", h.ListDocuments)
			r.Get("/groups", h.ListGroups)
			r.Get("/documents/{document_id}/open", h.OpenDocument)
			r.Delete("/documents/{document_id}", h.DeleteDocument)
			r.Get("/export", h.ExportDocuments)

			r.Get("/clients", h.ListClients)
			r.Post("/clients", h.CreateClient)
			r.Put("/clients/{client_id}", h.UpdateClient)
			r.Delete("/clients/{client_id}", h.DeleteClient)

			r.Post("/uploads", h.UploadDocument)
		})
	})
}
