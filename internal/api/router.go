package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"vcontest/internal/api/handler"
	"vcontest/internal/api/middleware"
	"vcontest/internal/app/service"
	"vcontest/internal/common/security"
	"vcontest/internal/platform/metrics"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth    *service.AuthService
	User    *service.UserService
	Contest *service.ContestService
	Ranking *service.RankingService
}

type RouterConfig struct {
	Tokens *security.SessionTokens
	Cookie handler.CookieConfig
}

// Paths that never look at the session cookie.
var sessionBypass = []string{
	"/internal-api/authorize",
	"/health",
	"/metrics",
}

func NewRouter(svc Services, cfg RouterConfig, m *metrics.Metrics, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.SessionPipeline(cfg.Tokens, cfg.Cookie.Name, svc.Auth, log, sessionBypass))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/internal-api", func(internal chi.Router) {
		authHandler := handler.NewAuthHandler(svc.Auth, cfg.Cookie, m, log)
		authHandler.RegisterRoutes(internal)

		userHandler := handler.NewUserHandler(svc.User, log)
		internal.Route("/user", userHandler.RegisterRoutes)

		contestHandler := handler.NewContestHandler(svc.Contest, log)
		internal.Route("/contest", contestHandler.RegisterRoutes)
	})

	rankingHandler := handler.NewRankingHandler(svc.Ranking, log)
	r.Route("/atcoder-api/v3", rankingHandler.RegisterRoutes)

	return r
}
