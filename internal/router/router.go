package router

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "crm-backend/docs"
	"crm-backend/internal/adapters/auth/jwtauth"
	"crm-backend/internal/adapters/realtime/ws"
	mem "crm-backend/internal/adapters/storage/memory"
	pg "crm-backend/internal/adapters/storage/postgres"
	"crm-backend/internal/config"
	"crm-backend/internal/domain/activities"
	"crm-backend/internal/domain/analytics"
	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/contacts"
	"crm-backend/internal/domain/deals"
	"crm-backend/internal/domain/identity"
	"crm-backend/internal/domain/leads"
	"crm-backend/internal/domain/notifications"
	"crm-backend/internal/domain/systemlog"
	"crm-backend/internal/domain/tasks"
	"crm-backend/internal/domain/visibility"
	"crm-backend/internal/middleware"
	"crm-backend/internal/platform/logger"
	"crm-backend/internal/ports/auth"
	"crm-backend/internal/ports/realtime"
)

type Options struct {
	Cfg config.Config
	Log logger.Logger

	// nil = modo dev: header X-Debug-User-ID en lugar de Bearer token.
	AuthVerifier auth.AuthVerifier

	// Opcional: si viene, usa Postgres. Si no, intenta por DSN y cae a
	// repos en memoria.
	DB *sql.DB

	// Transporte de eventos de dominio. nil = Noop.
	Publisher realtime.Publisher

	// Si viene, monta /ws con auth propia.
	Hub *ws.Hub
}

// App expone el handler más los servicios que main necesita fuera del
// ciclo request/response (barrido de vencimientos, limpieza por retención).
type App struct {
	Handler http.Handler

	Tasks *tasks.Service
	Trail *systemlog.Service
}

func New(opts Options) *App {
	log := opts.Log
	if log == nil {
		log = logger.Nop{}
	}
	pub := opts.Publisher
	if pub == nil {
		pub = realtime.Noop{}
	}

	// Repos: Postgres si hay DB (explícita o por DSN), memoria si no.
	db := opts.DB
	if db == nil && opts.Cfg.DatabaseDSN != "" {
		opened, err := pg.Open(opts.Cfg.DatabaseDSN)
		if err != nil {
			log.Error("postgres unavailable, falling back to memory", map[string]any{"err": err.Error()})
		} else {
			db = opened
		}
	}

	var (
		usersRepo    identity.Repository
		leadsRepo    leads.Repository
		contactsRepo contacts.Repository
		dealsRepo    deals.Repository
		tasksRepo    tasks.Repository
		historyRepo  audit.HistoryRepository
		feedRepo     activities.Repository
		notifRepo    notifications.Repository
		eventsRepo   systemlog.Repository
	)

	if db != nil {
		usersRepo = pg.NewUsersRepo(db)
		leadsRepo = pg.NewLeadsRepo(db)
		contactsRepo = pg.NewContactsRepo(db)
		dealsRepo = pg.NewDealsRepo(db)
		tasksRepo = pg.NewTasksRepo(db)
		historyRepo = pg.NewHistoryRepo(db)
		feedRepo = pg.NewActivitiesRepo(db)
		notifRepo = pg.NewNotificationsRepo(db)
		eventsRepo = pg.NewSystemLogRepo(db)
	} else {
		store := mem.New()
		usersRepo = store.Users()
		leadsRepo = store.Leads()
		contactsRepo = store.Contacts()
		dealsRepo = store.Deals()
		tasksRepo = store.Tasks()
		historyRepo = store.History()
		feedRepo = store.Activities()
		notifRepo = store.Notifications()
		eventsRepo = store.SystemLog()
	}

	// Services por módulo
	trail := systemlog.NewService(eventsRepo)
	issuer := jwtauth.NewIssuer(opts.Cfg.JWTSecret, opts.Cfg.AccessTTL, opts.Cfg.RefreshTTL)
	identitySvc := identity.NewService(usersRepo, issuer, trail)
	hist := audit.NewService(historyRepo)
	feed := activities.NewService(feedRepo)
	notifSvc := notifications.NewService(notifRepo, pub)

	leadsSvc := leads.NewService(leadsRepo, feed, notifSvc, identitySvc, pub)
	contactsSvc := contacts.NewService(contactsRepo, feed, identitySvc, pub)
	dealsSvc := deals.NewService(dealsRepo, feed, notifSvc, identitySvc, pub)
	tasksSvc := tasks.NewService(tasksRepo, feed, notifSvc, identitySvc, pub)
	analyticsSvc := analytics.NewService(leadsRepo, contactsRepo, dealsRepo, tasksRepo, hist, identitySvc, trail)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.ActorContext(opts.AuthVerifier, identitySvc))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.Handler())

	// Rutas por módulo
	identity.RegisterRoutes(r, identitySvc)
	leads.RegisterRoutes(r, leadsSvc, hist, feed, trail)
	contacts.RegisterRoutes(r, contactsSvc, hist, feed, trail)
	deals.RegisterRoutes(r, dealsSvc, hist, feed, trail)
	tasks.RegisterRoutes(r, tasksSvc, hist, feed, trail)
	notifications.RegisterRoutes(r, notifSvc)
	systemlog.RegisterRoutes(r, trail, hist)
	analytics.RegisterRoutes(r, analyticsSvc)

	if opts.Hub != nil {
		r.Get("/ws", opts.Hub.Handler(wsAuth(opts.AuthVerifier, identitySvc)))
	}

	return &App{
		Handler: r,
		Tasks:   tasksSvc,
		Trail:   trail,
	}
}

// wsAuth acepta el access token por query (?token=) porque los websockets
// del browser no mandan headers; en modo dev usa el header de debug.
func wsAuth(verifier auth.AuthVerifier, identitySvc *identity.Service) ws.AuthFunc {
	return func(r *http.Request) (visibility.Actor, error) {
		userID := ""
		if verifier == nil {
			userID = r.Header.Get("X-Debug-User-ID")
			if userID == "" {
				userID = r.URL.Query().Get("debug_user_id")
			}
		} else {
			claims, err := verifier.Verify(r.Context(), r.URL.Query().Get("token"))
			if err != nil {
				return visibility.Actor{}, err
			}
			userID = claims.UserID
		}
		if userID == "" {
			return visibility.Actor{}, errors.New("missing credentials")
		}
		return identitySvc.Resolve(r.Context(), userID)
	}
}
