package leads

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"crm-backend/internal/domain/activities"
	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/systemlog"
	"crm-backend/internal/middleware"
	"crm-backend/internal/platform/httpx"
)

func RegisterRoutes(r chi.Router, svc *Service, hist *audit.Service, feed *activities.Service, trail *systemlog.Service) {
	r.Route("/leads", func(lr chi.Router) {
		lr.Post("/", createLeadHandler(svc, trail))
		lr.Get("/", listLeadsHandler(svc))

		lr.Get("/{leadID}", getLeadHandler(svc))
		lr.Patch("/{leadID}", updateLeadHandler(svc))
		lr.Delete("/{leadID}", deleteLeadHandler(svc, trail))

		lr.Get("/{leadID}/history", leadHistoryHandler(svc, hist))
		lr.Get("/{leadID}/activities", leadActivitiesHandler(svc, feed))
		lr.Post("/{leadID}/notes", leadNoteHandler(svc, feed))
	})
}

type createLeadRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Stage   string `json:"stage"`
	OwnerID string `json:"owner_id"` // opcional, solo ADMIN/manager de equipo
}

type leadResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type updateLeadResponse struct {
	Lead    leadResponse           `json:"lead"`
	Changes []changeRecordResponse `json:"changes"`
}

type changeRecordResponse struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	ChangedBy string    `json:"changed_by"`
	Field     string    `json:"field"`
	OldValue  *string   `json:"old_value"`
	NewValue  *string   `json:"new_value"`
	Timestamp time.Time `json:"timestamp"`
}

// createLeadHandler godoc
// @Summary Crear lead
// @Description Crea un lead propiedad del actor autenticado (u otro dueño si el actor puede asignarlo).
// @Tags leads
// @Accept json
// @Produce json
// @Param payload body createLeadRequest true "Datos del lead"
// @Success 201 {object} leadResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Router /leads [post]
func createLeadHandler(svc *Service, trail *systemlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		var req createLeadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		l, err := svc.Create(r.Context(), actor, CreateInput{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Stage:   req.Stage,
			OwnerID: req.OwnerID,
		})
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		recordTrail(r, trail, actor.ID, systemlog.ActionCreate, l.ID, "created lead: "+l.Name)
		httpx.WriteJSON(w, http.StatusCreated, toLeadResponse(l))
	}
}

func listLeadsHandler(svc *Service) http.HandlerFunc {
	// Alcance por rol: ADMIN todo, MANAGER su equipo, SALES lo propio.
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		items, err := svc.List(r.Context(), actor, ListFilter{
			Stage: r.URL.Query().Get("stage"),
		})
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		out := make([]leadResponse, 0, len(items))
		for _, l := range items {
			out = append(out, toLeadResponse(l))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func getLeadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		l, err := svc.Get(r.Context(), actor, chi.URLParam(r, "leadID"))
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toLeadResponse(l))
	}
}

// updateLeadHandler godoc
// @Summary Actualizar lead (PATCH)
// @Description Aplica un patch parcial. Cada campo que realmente cambia genera un ChangeRecord en el historial, en el orden del JSON recibido. Un patch sin cambios responde 200 sin tocar nada.
// @Tags leads
// @Accept json
// @Produce json
// @Param leadID path string true "ID del lead"
// @Param payload body createLeadRequest true "Campos a cambiar (name, email, phone, stage)"
// @Success 200 {object} updateLeadResponse
// @Failure 400 {string} string "patch inválido"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "lead not found"
// @Router /leads/{leadID} [patch]
func updateLeadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		patch, err := audit.ParsePatch(r.Body, AuditableFields())
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		l, recs, err := svc.Update(r.Context(), actor, chi.URLParam(r, "leadID"), patch)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, updateLeadResponse{
			Lead:    toLeadResponse(l),
			Changes: toChangeResponses(recs),
		})
	}
}

func deleteLeadHandler(svc *Service, trail *systemlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "leadID")
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		recordTrail(r, trail, actor.ID, systemlog.ActionDelete, id, "deleted lead")
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "lead deleted"})
	}
}

func leadHistoryHandler(svc *Service, hist *audit.Service) http.HandlerFunc {
	// mismo criterio de visibilidad que el lead; el historial de un lead
	// borrado queda accesible solo vía el log admin
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "leadID")
		if _, err := svc.Get(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		recs, err := hist.ListByEntity(r.Context(), audit.KindLead, id)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toChangeResponses(recs))
	}
}

func leadActivitiesHandler(svc *Service, feed *activities.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "leadID")
		if _, err := svc.Get(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := feed.ListByEntity(r.Context(), audit.KindLead, id, limit)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func leadNoteHandler(svc *Service, feed *activities.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "leadID")
		if _, err := svc.Get(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		a, err := feed.Log(r.Context(), audit.KindLead, id, actor.ID, activities.TypeNote, req.Content)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, a)
	}
}

func recordTrail(r *http.Request, trail *systemlog.Service, actorID, action, entityID, desc string) {
	if trail == nil {
		return
	}
	_ = trail.Record(r.Context(), systemlog.Entry{
		ActorID:     actorID,
		Action:      action,
		EntityType:  string(audit.KindLead),
		EntityID:    entityID,
		Description: desc,
		IPAddress:   r.RemoteAddr,
		UserAgent:   r.UserAgent(),
	})
}

func toLeadResponse(l Lead) leadResponse {
	return leadResponse{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		Stage:     l.Stage,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func toChangeResponses(recs []audit.ChangeRecord) []changeRecordResponse {
	out := make([]changeRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, changeRecordResponse{
			ID:        rec.ID,
			EntityID:  rec.EntityID,
			ChangedBy: rec.ChangedBy,
			Field:     rec.Field,
			OldValue:  rec.OldValue,
			NewValue:  rec.NewValue,
			Timestamp: rec.Timestamp,
		})
	}
	return out
}
