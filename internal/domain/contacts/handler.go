package contacts

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
	r.Route("/contacts", func(cr chi.Router) {
		cr.Post("/", createContactHandler(svc, trail))
		cr.Get("/", listContactsHandler(svc))

		cr.Get("/{contactID}", getContactHandler(svc))
		cr.Patch("/{contactID}", updateContactHandler(svc))
		cr.Delete("/{contactID}", deleteContactHandler(svc, trail))

		cr.Get("/{contactID}/history", contactHistoryHandler(svc, hist))
		cr.Get("/{contactID}/activities", contactActivitiesHandler(svc, feed))
		cr.Post("/{contactID}/notes", contactNoteHandler(svc, feed))
	})
}

type createContactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Position string `json:"position"`
	Notes    string `json:"notes"`
}

type contactResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Position  string    `json:"position,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type updateContactResponse struct {
	Contact contactResponse        `json:"contact"`
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

// createContactHandler godoc
// @Summary Crear contacto
// @Tags contacts
// @Accept json
// @Produce json
// @Param payload body createContactRequest true "Datos del contacto"
// @Success 201 {object} contactResponse
// @Failure 400 {string} string "invalid json"
// @Router /contacts [post]
func createContactHandler(svc *Service, trail *systemlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		var req createContactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		c, err := svc.Create(r.Context(), actor, CreateInput{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Company:  req.Company,
			Position: req.Position,
			Notes:    req.Notes,
		})
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		recordTrail(r, trail, actor.ID, systemlog.ActionCreate, c.ID, "created contact: "+c.Name)
		httpx.WriteJSON(w, http.StatusCreated, toContactResponse(c))
	}
}

func listContactsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		items, err := svc.List(r.Context(), actor)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		out := make([]contactResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toContactResponse(c))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func getContactHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		c, err := svc.Get(r.Context(), actor, chi.URLParam(r, "contactID"))
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toContactResponse(c))
	}
}

// updateContactHandler godoc
// @Summary Actualizar contacto (PATCH)
// @Description Patch parcial con historial por campo, en el orden del JSON recibido.
// @Tags contacts
// @Accept json
// @Produce json
// @Param contactID path string true "ID del contacto"
// @Param payload body createContactRequest true "Campos a cambiar"
// @Success 200 {object} updateContactResponse
// @Failure 400 {string} string "patch inválido"
// @Failure 404 {string} string "contact not found"
// @Router /contacts/{contactID} [patch]
func updateContactHandler(svc *Service) http.HandlerFunc {
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

		c, recs, err := svc.Update(r.Context(), actor, chi.URLParam(r, "contactID"), patch)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, updateContactResponse{
			Contact: toContactResponse(c),
			Changes: toChangeResponses(recs),
		})
	}
}

func deleteContactHandler(svc *Service, trail *systemlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "contactID")
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		recordTrail(r, trail, actor.ID, systemlog.ActionDelete, id, "deleted contact")
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "contact deleted"})
	}
}

func contactHistoryHandler(svc *Service, hist *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "contactID")
		if _, err := svc.Get(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		recs, err := hist.ListByEntity(r.Context(), audit.KindContact, id)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toChangeResponses(recs))
	}
}

func contactActivitiesHandler(svc *Service, feed *activities.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "contactID")
		if _, err := svc.Get(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := feed.ListByEntity(r.Context(), audit.KindContact, id, limit)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func contactNoteHandler(svc *Service, feed *activities.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "contactID")
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

		a, err := feed.Log(r.Context(), audit.KindContact, id, actor.ID, activities.TypeNote, req.Content)
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
		EntityType:  string(audit.KindContact),
		EntityID:    entityID,
		Description: desc,
		IPAddress:   r.RemoteAddr,
		UserAgent:   r.UserAgent(),
	})
}

func toContactResponse(c Contact) contactResponse {
	return contactResponse{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Position:  c.Position,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
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
