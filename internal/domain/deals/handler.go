package deals

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
	r.Route("/deals", func(dr chi.Router) {
		dr.Post("/", createDealHandler(svc, trail))
		dr.Get("/", listDealsHandler(svc))

		dr.Get("/{dealID}", getDealHandler(svc))
		dr.Patch("/{dealID}", updateDealHandler(svc))
		dr.Delete("/{dealID}", deleteDealHandler(svc, trail))

		dr.Get("/{dealID}/history", dealHistoryHandler(svc, hist))
		dr.Get("/{dealID}/activities", dealActivitiesHandler(svc, feed))
		dr.Post("/{dealID}/notes", dealNoteHandler(svc, feed))
	})
}

type createDealRequest struct {
	Title       string  `json:"title"`
	Value       float64 `json:"value"`
	Stage       string  `json:"stage"`
	Description string  `json:"description"`
	ContactID   string  `json:"contact_id"`
	OwnerID     string  `json:"owner_id"` // opcional, solo ADMIN/manager de equipo
}

type dealResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Value       float64   `json:"value"`
	Stage       string    `json:"stage"`
	Description string    `json:"description,omitempty"`
	ContactID   string    `json:"contact_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type updateDealResponse struct {
	Deal    dealResponse           `json:"deal"`
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

// createDealHandler godoc
// @Summary Crear deal
// @Tags deals
// @Accept json
// @Produce json
// @Param payload body createDealRequest true "Datos del deal"
// @Success 201 {object} dealResponse
// @Failure 400 {string} string "invalid json / value negativo"
// @Router /deals [post]
func createDealHandler(svc *Service, trail *systemlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		var req createDealRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		d, err := svc.Create(r.Context(), actor, CreateInput{
			Title:       req.Title,
			Value:       req.Value,
			Stage:       req.Stage,
			Description: req.Description,
			ContactID:   req.ContactID,
			OwnerID:     req.OwnerID,
		})
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		recordTrail(r, trail, actor.ID, systemlog.ActionCreate, d.ID, "created deal: "+d.Title)
		httpx.WriteJSON(w, http.StatusCreated, toDealResponse(d))
	}
}

func listDealsHandler(svc *Service) http.HandlerFunc {
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

		out := make([]dealResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDealResponse(d))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func getDealHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		d, err := svc.Get(r.Context(), actor, chi.URLParam(r, "dealID"))
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toDealResponse(d))
	}
}

// updateDealHandler godoc
// @Summary Actualizar deal (PATCH)
// @Description Patch parcial con historial por campo. "value" acepta número JSON y se guarda en el historial como texto normalizado.
// @Tags deals
// @Accept json
// @Produce json
// @Param dealID path string true "ID del deal"
// @Param payload body createDealRequest true "Campos a cambiar"
// @Success 200 {object} updateDealResponse
// @Failure 400 {string} string "patch inválido"
// @Failure 404 {string} string "deal not found"
// @Router /deals/{dealID} [patch]
func updateDealHandler(svc *Service) http.HandlerFunc {
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

		d, recs, err := svc.Update(r.Context(), actor, chi.URLParam(r, "dealID"), patch)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, updateDealResponse{
			Deal:    toDealResponse(d),
			Changes: toChangeResponses(recs),
		})
	}
}

func deleteDealHandler(svc *Service, trail *systemlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "dealID")
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		recordTrail(r, trail, actor.ID, systemlog.ActionDelete, id, "deleted deal")
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "deal deleted"})
	}
}

func dealHistoryHandler(svc *Service, hist *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "dealID")
		if _, err := svc.Get(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		recs, err := hist.ListByEntity(r.Context(), audit.KindDeal, id)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toChangeResponses(recs))
	}
}

func dealActivitiesHandler(svc *Service, feed *activities.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "dealID")
		if _, err := svc.Get(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := feed.ListByEntity(r.Context(), audit.KindDeal, id, limit)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func dealNoteHandler(svc *Service, feed *activities.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "dealID")
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

		a, err := feed.Log(r.Context(), audit.KindDeal, id, actor.ID, activities.TypeNote, req.Content)
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
		EntityType:  string(audit.KindDeal),
		EntityID:    entityID,
		Description: desc,
		IPAddress:   r.RemoteAddr,
		UserAgent:   r.UserAgent(),
	})
}

func toDealResponse(d Deal) dealResponse {
	return dealResponse{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Value:       d.Value,
		Stage:       d.Stage,
		Description: d.Description,
		ContactID:   d.ContactID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
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
