package tasks

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
	r.Route("/tasks", func(tr chi.Router) {
		tr.Post("/", createTaskHandler(svc, trail))
		tr.Get("/", listTasksHandler(svc))

		tr.Get("/{taskID}", getTaskHandler(svc))
		tr.Patch("/{taskID}", updateTaskHandler(svc))
		tr.Delete("/{taskID}", deleteTaskHandler(svc, trail))

		tr.Get("/{taskID}/history", taskHistoryHandler(svc, hist))
		tr.Get("/{taskID}/activities", taskActivitiesHandler(svc, feed))
	})
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"` // RFC3339
	ContactID   string `json:"contact_id"`
	DealID      string `json:"deal_id"`
	OwnerID     string `json:"owner_id"` // opcional, solo ADMIN/manager de equipo
}

type taskResponse struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ContactID   string     `json:"contact_id,omitempty"`
	DealID      string     `json:"deal_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type updateTaskResponse struct {
	Task    taskResponse           `json:"task"`
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

// createTaskHandler godoc
// @Summary Crear tarea
// @Tags tasks
// @Accept json
// @Produce json
// @Param payload body createTaskRequest true "Datos de la tarea"
// @Success 201 {object} taskResponse
// @Failure 400 {string} string "invalid json / due_date inválido"
// @Router /tasks [post]
func createTaskHandler(svc *Service, trail *systemlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		t, err := svc.Create(r.Context(), actor, CreateInput{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			DueDate:     req.DueDate,
			ContactID:   req.ContactID,
			DealID:      req.DealID,
			OwnerID:     req.OwnerID,
		})
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		recordTrail(r, trail, actor.ID, systemlog.ActionCreate, t.ID, "created task: "+t.Title)
		httpx.WriteJSON(w, http.StatusCreated, toTaskResponse(t))
	}
}

func listTasksHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		items, err := svc.List(r.Context(), actor, ListFilter{
			Status:   r.URL.Query().Get("status"),
			Priority: r.URL.Query().Get("priority"),
		})
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		out := make([]taskResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toTaskResponse(t))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func getTaskHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		t, err := svc.Get(r.Context(), actor, chi.URLParam(r, "taskID"))
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toTaskResponse(t))
	}
}

// updateTaskHandler godoc
// @Summary Actualizar tarea (PATCH)
// @Description Patch parcial con historial por campo. "due_date" acepta RFC3339 o null para quitar el vencimiento.
// @Tags tasks
// @Accept json
// @Produce json
// @Param taskID path string true "ID de la tarea"
// @Param payload body createTaskRequest true "Campos a cambiar"
// @Success 200 {object} updateTaskResponse
// @Failure 400 {string} string "patch inválido"
// @Failure 404 {string} string "task not found"
// @Router /tasks/{taskID} [patch]
func updateTaskHandler(svc *Service) http.HandlerFunc {
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

		t, recs, err := svc.Update(r.Context(), actor, chi.URLParam(r, "taskID"), patch)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, updateTaskResponse{
			Task:    toTaskResponse(t),
			Changes: toChangeResponses(recs),
		})
	}
}

func deleteTaskHandler(svc *Service, trail *systemlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "taskID")
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		recordTrail(r, trail, actor.ID, systemlog.ActionDelete, id, "deleted task")
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
	}
}

func taskHistoryHandler(svc *Service, hist *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "taskID")
		if _, err := svc.Get(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		recs, err := hist.ListByEntity(r.Context(), audit.KindTask, id)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toChangeResponses(recs))
	}
}

func taskActivitiesHandler(svc *Service, feed *activities.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}

		id := chi.URLParam(r, "taskID")
		if _, err := svc.Get(r.Context(), actor, id); err != nil {
			httpx.DomainError(w, err)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := feed.ListByEntity(r.Context(), audit.KindTask, id, limit)
		if err != nil {
			httpx.DomainError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

func recordTrail(r *http.Request, trail *systemlog.Service, actorID, action, entityID, desc string) {
	if trail == nil {
		return
	}
	_ = trail.Record(r.Context(), systemlog.Entry{
		ActorID:     actorID,
		Action:      action,
		EntityType:  string(audit.KindTask),
		EntityID:    entityID,
		Description: desc,
		IPAddress:   r.RemoteAddr,
		UserAgent:   r.UserAgent(),
	})
}

func toTaskResponse(t Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		ContactID:   t.ContactID,
		DealID:      t.DealID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
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
