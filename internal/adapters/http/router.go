package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/application"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Get("/reputation/me/hints", handler.getMyHints)

			r.Route("/internal", func(r chi.Router) {
				r.Get("/users/{user_id}/eligibility/{feature}", handler.checkEligibility)
				r.Post("/ranking/adjust", handler.adjustRanking)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users/{user_id}/reputation", handler.adminGetReputation)
			})
		})

		r.Post("/webhooks/moderation-event", handler.handleModerationEvent)
	})
	return r
}
