package systemlog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/middleware"
	"crm-backend/internal/platform/httpx"
)

// RegisterRoutes monta la superficie admin: el log de sistema y la limpieza
// puntual del historial de cambios. Todo acá es ADMIN-only (lo valida la
// capa de servicio, el router no necesita middleware extra).
func RegisterRoutes(r chi.Router, svc *Service, hist *audit.Service) {
	r.Route("/admin/events", func(er chi.Router) {
		er.Get("/", listEventsHandler(svc))
		er.Delete("/", deleteEventsHandler(svc))
		er.Delete("/all", deleteAllEventsHandler(svc))
		er.Post("/cleanup", cleanupEventsHandler(svc))
	})

	r.Delete("/admin/history", deleteHistoryHandler(hist))
}

type eventResponse struct {
	ID          string    `json:"id"`
	ActorID     string    `json:"actor_id"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entity_type,omitempty"`
	EntityID    string    `json:"entity_id,omitempty"`
	Description string    `json:"description,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type pageResponse struct {
	Records    []eventResponse `json:"records"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

// listEventsHandler godoc
// @Summary Log de sistema (solo ADMIN)
// @Description Listado paginado con filtros por actor, acción, tipo de entidad y búsqueda libre.
// @Tags admin
// @Produce json
// @Param actor_id query string false "Filtrar por actor"
// @Param action query string false "Filtrar por acción"
// @Param entity_type query string false "Filtrar por tipo de entidad"
// @Param search query string false "Búsqueda case-insensitive"
// @Param page query int false "Página (desde 1)"
// @Param page_size query int false "Tamaño de página (máx 100)"
// @Param sort query string false "asc para cronológico"
// @Success 200 {object} pageResponse
// @Failure 403 {string} string "forbidden"
// @Router /admin/events [get]
func listEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		pageSize, _ := strconv.Atoi(q.Get("page_size"))

		p, err := svc.List(r.Context(), actor, ListFilter{
			ActorID:    q.Get("actor_id"),
			Action:     q.Get("action"),
			EntityType: q.Get("entity_type"),
			Search:     q.Get("search"),
			Page:       page,
			PageSize:   pageSize,
			SortAsc:    q.Get("sort") == "asc",
		})
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		out := pageResponse{
			Records:    make([]eventResponse, 0, len(p.Records)),
			Total:      p.Total,
			Page:       p.Page,
			TotalPages: p.TotalPages,
		}
		for _, e := range p.Records {
			out.Records = append(out.Records, toEventResponse(e))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func deleteEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		var req idsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		n, err := svc.DeleteByIDs(r.Context(), actor, req.IDs)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]int{"deleted": n})
	}
}

func deleteAllEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		if err := svc.DeleteAll(r.Context(), actor); err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "all events deleted"})
	}
}

// cleanupEventsHandler godoc
// @Summary Purga por retención (solo ADMIN)
// @Description Borra eventos más viejos que retention_days (default 90) y devuelve cuántos se fueron.
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]int
// @Router /admin/events/cleanup [post]
func cleanupEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		var req struct {
			RetentionDays int `json:"retention_days"`
		}
		// body vacío = retención default
		_ = json.NewDecoder(r.Body).Decode(&req)

		n, err := svc.Cleanup(r.Context(), actor, req.RetentionDays)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]int{"deleted": n})
	}
}

func deleteHistoryHandler(hist *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		var req idsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		n, err := hist.DeleteByIDs(r.Context(), actor, req.IDs)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]int{"deleted": n})
	}
}

func toEventResponse(e Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		ActorID:     e.ActorID,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Description: e.Description,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		Timestamp:   e.Timestamp,
	}
}
