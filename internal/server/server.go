package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/perchwood/curbside/internal/assistant"
	"github.com/perchwood/curbside/internal/backup"
	"github.com/perchwood/curbside/internal/config"
	"github.com/perchwood/curbside/internal/geocode"
	"github.com/perchwood/curbside/internal/handler"
	"github.com/perchwood/curbside/internal/lifecycle"
	"github.com/perchwood/curbside/internal/middleware"
	"github.com/perchwood/curbside/internal/push"
	"github.com/perchwood/curbside/internal/reminder"
	"github.com/perchwood/curbside/internal/store"
	ws "github.com/perchwood/curbside/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	requestH       *handler.RequestHandler
	scheduleH      *handler.ScheduleHandler
	profileH       *handler.ProfileHandler
	assistantH     *handler.AssistantHandler
	pushH          *handler.PushHandler
	geocodeH       *handler.GeocodeHandler
	sessionStore   *store.SessionStore
	accountStore   *store.AccountStore
	reminderEngine *reminder.Engine
	backupManager  *backup.Manager
	authLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg config.Config, loc *time.Location, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	accountStore := store.NewAccountStore(db)
	sessionStore := store.NewSessionStore(db)
	requestStore := store.NewRequestStore(db)
	scheduleStore := store.NewScheduleStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	lifecycleMgr := lifecycle.NewManager(requestStore, accountStore, logger.With("component", "lifecycle"))

	pushSvc := push.NewService(push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subscriber:      cfg.PushSubscriber,
	})
	notifier := push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))

	engine := reminder.NewEngine(scheduleStore, notifier, loc, logger.With("component", "reminder"))

	assistantSvc := assistant.NewService(assistant.Config{
		APIKey: cfg.AssistantAPIKey,
		Model:  cfg.AssistantModel,
	}, logger.With("component", "assistant"))

	geocodeSvc := geocode.NewService(geocode.Config{APIKey: cfg.GeocodeAPIKey})

	backupMgr := backup.NewManager(backup.Config{
		Endpoint:   cfg.BackupEndpoint,
		Bucket:     cfg.BackupBucket,
		Region:     cfg.BackupRegion,
		AccessKey:  cfg.BackupAccessKey,
		SecretKey:  cfg.BackupSecretKey,
		Passphrase: cfg.BackupPassphrase,
		DBPath:     cfg.DBPath,
		Interval:   cfg.BackupInterval,
	}, db, backupStore, logger.With("component", "backup"))

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(accountStore, sessionStore, logger.With("component", "auth")),
		requestH:       handler.NewRequestHandler(lifecycleMgr, requestStore, hub, logger.With("component", "request")),
		scheduleH:      handler.NewScheduleHandler(scheduleStore, engine, hub, logger.With("component", "schedule")),
		profileH:       handler.NewProfileHandler(accountStore, logger.With("component", "profile")),
		assistantH:     handler.NewAssistantHandler(assistantSvc, logger.With("component", "assistant")),
		pushH:          handler.NewPushHandler(pushSvc, pushStore, logger.With("component", "push")),
		geocodeH:       handler.NewGeocodeHandler(geocodeSvc, logger.With("component", "geocode")),
		sessionStore:   sessionStore,
		accountStore:   accountStore,
		reminderEngine: engine,
		backupManager:  backupMgr,
		authLimiter:    middleware.NewRateLimiter(10, time.Minute),
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// ReminderEngine returns the reminder engine for lifecycle control.
func (s *Server) ReminderEngine() *reminder.Engine {
	return s.reminderEngine
}

// BackupManager returns the backup manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// AuthLimiter returns the login/register rate limiter for cleanup tasks.
func (s *Server) AuthLimiter() *middleware.RateLimiter {
	return s.authLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/register", s.rateLimited(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.accountStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	limited := middleware.RateLimit(s.authLimiter)(h)
	return func(w http.ResponseWriter, r *http.Request) {
		limited.ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	mux.HandleFunc("GET /api/profile", s.profileH.Get)
	mux.HandleFunc("PUT /api/profile", s.profileH.Update)

	// Pickup requests
	mux.HandleFunc("POST /api/requests", s.requestH.Create)
	mux.HandleFunc("GET /api/requests", s.requestH.List)
	mux.HandleFunc("GET /api/requests/{id}", s.requestH.Get)
	mux.Handle("POST /api/requests/{id}/accept", middleware.RequireCollector(http.HandlerFunc(s.requestH.Accept)))
	mux.Handle("POST /api/requests/{id}/complete", middleware.RequireCollector(http.HandlerFunc(s.requestH.Complete)))

	// Reminder schedules
	mux.HandleFunc("POST /api/schedules", s.scheduleH.Create)
	mux.HandleFunc("GET /api/schedules", s.scheduleH.List)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.scheduleH.Disable)

	// Assistant
	mux.HandleFunc("POST /api/assistant/chat", s.assistantH.Chat)
	mux.HandleFunc("POST /api/assistant/schedule-check", s.assistantH.ScheduleCheck)
	mux.HandleFunc("POST /api/assistant/analyze-image", s.assistantH.AnalyzeImage)

	// Push subscriptions
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDPublicKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// Geocoding
	mux.HandleFunc("GET /api/geocode", s.geocodeH.Geocode)
}
