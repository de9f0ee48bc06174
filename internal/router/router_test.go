package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crm-backend/internal/config"
)

// Los tests corren el router completo en modo dev: repos en memoria y auth
// por header X-Debug-User-ID (AuthVerifier nil).
func newTestApp(t *testing.T) *App {
	t.Helper()
	return New(Options{
		Cfg: config.Config{
			JWTSecret:     "test-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    24 * time.Hour,
			RetentionDays: 90,
		},
	})
}

func doJSON(t *testing.T, app *App, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

type userPayload struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	TeamID string `json:"team_id"`
}

type sessionPayload struct {
	User         userPayload `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

func register(t *testing.T, app *App, name, email, role, teamID string) sessionPayload {
	t.Helper()

	rec := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"role":     role,
		"team_id":  teamID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, rec.Code, rec.Body.String())
	}
	return decode[sessionPayload](t, rec)
}

type leadPayload struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Stage   string `json:"stage"`
}

type changePayload struct {
	ID       string  `json:"id"`
	EntityID string  `json:"entity_id"`
	Field    string  `json:"field"`
	OldValue *string `json:"old_value"`
	NewValue *string `json:"new_value"`
}

type updateLeadPayload struct {
	Lead    leadPayload     `json:"lead"`
	Changes []changePayload `json:"changes"`
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)

	sess := register(t, app, "Ana", "ana@acme.test", "", "")
	if sess.User.Role != "SALES" {
		t.Fatalf("default role = %q, want SALES", sess.User.Role)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatal("register did not return a token pair")
	}

	// email duplicado
	rec := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ana2", "email": "ana@acme.test", "password": "secret123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ana@acme.test", "password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	login := decode[sessionPayload](t, rec)

	rec = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ana@acme.test", "password": "wrong-pass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status = %d, want 401", rec.Code)
	}

	// refresh rota el token: el par nuevo sirve, el viejo ya no
	rec = doJSON(t, app, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, app, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("stale refresh token: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, app, http.MethodGet, "/auth/me", sess.User.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d", rec.Code)
	}
	me := decode[userPayload](t, rec)
	if me.Email != "ana@acme.test" {
		t.Fatalf("me.email = %q", me.Email)
	}

	// sin credenciales no hay actor
	rec = doJSON(t, app, http.MethodGet, "/leads", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: status = %d, want 401", rec.Code)
	}
}

func TestLeadLifecycleWithHistory(t *testing.T) {
	app := newTestApp(t)

	admin := register(t, app, "Root", "root@acme.test", "ADMIN", "")
	sales := register(t, app, "Vendedor", "v1@acme.test", "SALES", "alpha")

	rec := doJSON(t, app, http.MethodPost, "/leads", sales.User.ID, map[string]string{
		"name": "Empresa Uno", "email": "contacto@uno.test", "stage": "new",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create lead: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	lead := decode[leadPayload](t, rec)
	if lead.OwnerID != sales.User.ID {
		t.Fatalf("owner = %q, want creator", lead.OwnerID)
	}

	// patch con dos campos: dos ChangeRecords en el orden del JSON
	patch := `{"name":"Empresa Uno SA","stage":"contacted"}`
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+lead.ID, bytes.NewBufferString(patch))
	req.Header.Set("X-Debug-User-ID", sales.User.ID)
	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	upd := decode[updateLeadPayload](t, rr)
	if len(upd.Changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(upd.Changes))
	}
	if upd.Changes[0].Field != "name" || upd.Changes[1].Field != "stage" {
		t.Fatalf("change order = [%s, %s], want wire order [name, stage]",
			upd.Changes[0].Field, upd.Changes[1].Field)
	}
	if upd.Changes[0].OldValue == nil || *upd.Changes[0].OldValue != "Empresa Uno" {
		t.Fatalf("old_value = %v", upd.Changes[0].OldValue)
	}

	// patch sin cambios reales: 200 y cero registros
	rec = doJSON(t, app, http.MethodPatch, "/leads/"+lead.ID, sales.User.ID, map[string]string{
		"stage": "contacted",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("no-op patch: status = %d", rec.Code)
	}
	if got := decode[updateLeadPayload](t, rec); len(got.Changes) != 0 {
		t.Fatalf("no-op patch produced %d changes", len(got.Changes))
	}

	// campo fuera de la lista auditable
	rec = doJSON(t, app, http.MethodPatch, "/leads/"+lead.ID, sales.User.ID, map[string]string{
		"owner_id": admin.User.ID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field patch: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, app, http.MethodGet, "/leads/"+lead.ID+"/history", sales.User.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status = %d", rec.Code)
	}
	if hist := decode[[]changePayload](t, rec); len(hist) != 2 {
		t.Fatalf("history = %d records, want 2", len(hist))
	}

	// delete deja registro terminal y el lead desaparece
	rec = doJSON(t, app, http.MethodDelete, "/leads/"+lead.ID, sales.User.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, app, http.MethodGet, "/leads/"+lead.ID, sales.User.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d, want 404", rec.Code)
	}

	// el historial sobrevive: visible en el resumen admin
	rec = doJSON(t, app, http.MethodGet, "/analytics/overview", admin.User.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview: status = %d", rec.Code)
	}
	var overview struct {
		RecentChanges []struct {
			EntityID string `json:"entity_id"`
			Field    string `json:"field"`
		} `json:"recent_changes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	foundTerminal := false
	for _, c := range overview.RecentChanges {
		if c.EntityID == lead.ID && c.Field == "deleted" {
			foundTerminal = true
		}
	}
	if !foundTerminal {
		t.Fatal("terminal delete record missing from recent changes")
	}
}

func TestLeadVisibilityScopes(t *testing.T) {
	app := newTestApp(t)

	admin := register(t, app, "Root", "root@acme.test", "ADMIN", "")
	manager := register(t, app, "Jefa", "jefa@acme.test", "MANAGER", "alpha")
	salesA := register(t, app, "A", "a@acme.test", "SALES", "alpha")
	salesB := register(t, app, "B", "b@acme.test", "SALES", "beta")

	rec := doJSON(t, app, http.MethodPost, "/leads", salesA.User.ID, map[string]string{"name": "Lead Alpha"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	leadA := decode[leadPayload](t, rec)

	rec = doJSON(t, app, http.MethodPost, "/leads", salesB.User.ID, map[string]string{"name": "Lead Beta"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}

	cases := []struct {
		name   string
		userID string
		want   int
	}{
		{"admin sees all", admin.User.ID, 2},
		{"manager sees own team only", manager.User.ID, 1},
		{"sales sees own only", salesA.User.ID, 1},
	}
	for _, tc := range cases {
		rec := doJSON(t, app, http.MethodGet, "/leads", tc.userID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tc.name, rec.Code)
		}
		if got := decode[[]leadPayload](t, rec); len(got) != tc.want {
			t.Fatalf("%s: %d leads, want %d", tc.name, len(got), tc.want)
		}
	}

	// cruce de equipos: ni ver ni tocar
	rec = doJSON(t, app, http.MethodGet, "/leads/"+leadA.ID, salesB.User.ID, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-team get: status = %d, want 403", rec.Code)
	}
	rec = doJSON(t, app, http.MethodPatch, "/leads/"+leadA.ID, salesB.User.ID, map[string]string{"name": "hack"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-team patch: status = %d, want 403", rec.Code)
	}

	// manager del equipo sí puede mutar lo de su gente
	rec = doJSON(t, app, http.MethodPatch, "/leads/"+leadA.ID, manager.User.ID, map[string]string{"stage": "qualified"})
	if rec.Code != http.StatusOK {
		t.Fatalf("manager patch: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAssignmentNotification(t *testing.T) {
	app := newTestApp(t)

	manager := register(t, app, "Jefa", "jefa@acme.test", "MANAGER", "alpha")
	sales := register(t, app, "A", "a@acme.test", "SALES", "alpha")

	rec := doJSON(t, app, http.MethodPost, "/leads", manager.User.ID, map[string]string{
		"name": "Asignado", "owner_id": sales.User.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("assign on create: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, app, http.MethodGet, "/notifications?unread=true", sales.User.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("notifications: status = %d", rec.Code)
	}
	var notifs []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Read bool   `json:"read"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(notifs) != 1 || notifs[0].Type != "ASSIGNMENT" {
		t.Fatalf("notifications = %+v, want one assignment", notifs)
	}

	rec = doJSON(t, app, http.MethodPatch, "/notifications/"+notifs[0].ID+"/read", sales.User.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: status = %d", rec.Code)
	}
	rec = doJSON(t, app, http.MethodGet, "/notifications?unread=true", sales.User.ID, nil)
	if got := decode[[]json.RawMessage](t, rec); len(got) != 0 {
		t.Fatalf("unread after mark read = %d, want 0", len(got))
	}
}

func TestAdminSurface(t *testing.T) {
	app := newTestApp(t)

	admin := register(t, app, "Root", "root@acme.test", "ADMIN", "")
	sales := register(t, app, "A", "a@acme.test", "SALES", "")

	// el registro y la creación dejan rastro en el log
	rec := doJSON(t, app, http.MethodPost, "/leads", sales.User.ID, map[string]string{"name": "Uno"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}

	rec = doJSON(t, app, http.MethodGet, "/admin/events", sales.User.ID, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("events as sales: status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, app, http.MethodGet, "/admin/events?action=create", admin.User.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("events as admin: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var page struct {
		Records []struct {
			Action  string `json:"action"`
			ActorID string `json:"actor_id"`
		} `json:"records"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if page.Total == 0 {
		t.Fatal("no CREATE events recorded")
	}
	for _, e := range page.Records {
		if e.Action != "create" {
			t.Fatalf("filter leaked action %q", e.Action)
		}
	}

	// cleanup con body vacío usa la retención default y no borra lo de hoy
	req := httptest.NewRequest(http.MethodPost, "/admin/events/cleanup", nil)
	req.Header.Set("X-Debug-User-ID", admin.User.ID)
	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("cleanup: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if got := decode[map[string]int](t, rr); got["deleted"] != 0 {
		t.Fatalf("cleanup deleted %d fresh events", got["deleted"])
	}

	// cambio de rol aplica en el siguiente request (el actor sale del store)
	rec = doJSON(t, app, http.MethodPatch, "/users/"+sales.User.ID+"/role", admin.User.ID, map[string]string{"role": "MANAGER"})
	if rec.Code != http.StatusOK {
		t.Fatalf("role update: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, app, http.MethodGet, "/auth/me", sales.User.ID, nil)
	if me := decode[userPayload](t, rec); me.Role != "MANAGER" {
		t.Fatalf("role after update = %q, want MANAGER", me.Role)
	}
}

func TestAnalyticsDashboard(t *testing.T) {
	app := newTestApp(t)

	sales := register(t, app, "A", "a@acme.test", "SALES", "")

	rec := doJSON(t, app, http.MethodPost, "/contacts", sales.User.ID, map[string]string{"name": "Contacto"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create contact: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, app, http.MethodPost, "/deals", sales.User.ID, map[string]any{
		"title": "Ganado", "value": 1000.0, "stage": "closed_won",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create deal: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, app, http.MethodPost, "/deals", sales.User.ID, map[string]any{
		"title": "Abierto", "value": 500.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create deal: status = %d", rec.Code)
	}

	rec = doJSON(t, app, http.MethodPost, "/tasks", sales.User.ID, map[string]string{"title": "Llamar"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, app, http.MethodGet, "/analytics/dashboard", sales.User.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var dash struct {
		TotalContacts  int     `json:"total_contacts"`
		TotalDeals     int     `json:"total_deals"`
		ActiveDeals    int     `json:"active_deals"`
		WonRevenue     float64 `json:"won_revenue"`
		PipelineValue  float64 `json:"pipeline_value"`
		PendingTasks   int     `json:"pending_tasks"`
		ConversionRate float64 `json:"conversion_rate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.TotalContacts != 1 || dash.TotalDeals != 2 || dash.ActiveDeals != 1 {
		t.Fatalf("dashboard counts = %+v", dash)
	}
	if dash.WonRevenue != 1000 || dash.PipelineValue != 500 {
		t.Fatalf("dashboard money = %+v", dash)
	}
	if dash.PendingTasks != 1 {
		t.Fatalf("pending tasks = %d, want 1", dash.PendingTasks)
	}
	if dash.ConversionRate != 1 {
		t.Fatalf("conversion rate = %v, want 1 (one closed, one won)", dash.ConversionRate)
	}
}
