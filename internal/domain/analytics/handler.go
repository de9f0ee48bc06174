package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"crm-backend/internal/middleware"
	"crm-backend/internal/platform/httpx"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/analytics", func(ar chi.Router) {
		ar.Get("/overview", overviewHandler(svc))
		ar.Get("/dashboard", dashboardHandler(svc))
	})
}

// overviewHandler godoc
// @Summary Resumen de leads y actividad
// @Description Totales por etapa, top de dueños y últimos cambios, acotados al alcance del actor. ADMIN además recibe totales globales.
// @Tags analytics
// @Produce json
// @Success 200 {object} Overview
// @Router /analytics/overview [get]
func overviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		out, err := svc.Overview(r.Context(), actor)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// dashboardHandler godoc
// @Summary Tablero comercial
// @Description Contactos, pipeline, ingresos ganados y tareas pendientes del alcance del actor.
// @Tags analytics
// @Produce json
// @Success 200 {object} Dashboard
// @Router /analytics/dashboard [get]
func dashboardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		out, err := svc.Dashboard(r.Context(), actor)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}
