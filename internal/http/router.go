package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Flaviohmm/mei-backend/internal/config"
	httpmiddleware "github.com/Flaviohmm/mei-backend/internal/http/middleware"
	"github.com/Flaviohmm/mei-backend/internal/invoice"
	"github.com/Flaviohmm/mei-backend/internal/service"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies reúne o que o roteador precisa para montar os handlers.
type Dependencies struct {
	Config   *config.Config
	DB       pinger
	Redis    *redis.Client
	Accounts *service.AccountService
	Invoices *invoice.Service
	Metrics  *httpmiddleware.Metrics
}

type Handler struct {
	cfg           *config.Config
	db            pinger
	redis         *redis.Client
	accounts      *service.AccountService
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	metrics := deps.Metrics
	if metrics == nil {
		metrics = httpmiddleware.NewMetrics()
	}

	h := &Handler{
		cfg:           cfg,
		db:            deps.DB,
		redis:         deps.Redis,
		accounts:      deps.Accounts,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}
	invoiceHandler := invoice.NewHandler(deps.Invoices)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(metrics.Middleware)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(chimiddleware.StripSlashes)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Post("/register", h.Register)
		public.Post("/login", h.Login)
		public.Post("/forgot-password", h.ForgotPassword)
		public.Post("/reset-password", h.ResetPassword)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.TokenAuth(deps.Accounts))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/user", h.CurrentUser)
		private.Post("/logout", h.Logout)
		invoice.Mount(private, invoiceHandler)
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e, quando configurado, Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var dbErr, redisErr error
	if h.db != nil {
		dbErr = h.db.Ping(ctx)
	}
	if h.redis != nil {
		redisErr = h.redis.Ping(ctx).Err()
	}

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
