package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"vcontest/internal/api"
	"vcontest/internal/api/handler"
	"vcontest/internal/app/oauth"
	"vcontest/internal/app/service"
	"vcontest/internal/common/security"
	"vcontest/internal/domain/repository"
	"vcontest/internal/platform/cache"
	"vcontest/internal/platform/config"
	"vcontest/internal/platform/database"
	"vcontest/internal/platform/logger"
	"vcontest/internal/platform/metrics"
)

type repositories struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	contests repository.ContestRepository
	rankings repository.RankingRepository
}

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	log := logger.New("vcontest-api", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.WithField("environment", cfg.Environment).Info("configuration loaded")

	ctx := context.Background()

	// 2. Storage
	repos, db, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("storage initialisation failed")
	}
	if db != nil {
		defer db.Close()
	}

	// 3. Optional session cache
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Fatal("redis connection failed")
		}
		defer closeRedis(rdb, log)
		repos.sessions = repository.NewCachedSessionRepository(repos.sessions, rdb, cfg.SessionCacheTTL)
		log.WithField("addr", cfg.RedisAddr).Info("session cache enabled")
	}

	// 4. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 5. Services
	tokens := security.NewSessionTokens(cfg.JWTKey)
	provider := oauth.NewGitHubProvider(oauth.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		APIBaseURL:   cfg.OAuthAPIBaseURL,
	})
	validator := service.NewValidator()

	svc := api.Services{
		Auth:    service.NewAuthService(repos.users, repos.sessions, provider, tokens, cfg.SessionTTL),
		User:    service.NewUserService(repos.users, validator),
		Contest: service.NewContestService(repos.contests, validator, cfg.MaxProblemsPerContest, cfg.RecentContestLimit),
		Ranking: service.NewRankingService(repos.rankings, cfg.RankingMaxWindow),
	}

	// 6. Router and HTTP server
	router := api.NewRouter(svc, api.RouterConfig{
		Tokens: tokens,
		Cookie: handler.CookieConfig{
			Name:     cfg.SessionCookieName,
			Secure:   cfg.SessionCookieSecure,
			Redirect: cfg.OAuthRedirectURL,
		},
	}, m, log)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.APIPort).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("could not listen")
		}
	}()

	<-stop
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
		return
	}
	log.Info("server stopped gracefully")
}

// openStorage returns the configured repositories. The *sql.DB is nil for the
// in-memory backend.
func openStorage(ctx context.Context, cfg *config.Config, log *logrus.Entry) (repositories, *sql.DB, error) {
	if cfg.StorageBackend == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		return repositories{
			users:    store.Users(),
			sessions: store.Sessions(),
			contests: store.Contests(),
			rankings: store.Rankings(),
		}, nil, nil
	}

	db, err := database.Connect(ctx, cfg.DBConnStr)
	if err != nil {
		return repositories{}, nil, err
	}
	log.Info("database connected")

	if cfg.DBMigrateOnStart {
		if err := database.Migrate(ctx, db, log); err != nil {
			db.Close()
			return repositories{}, nil, err
		}
	}

	return repositories{
		users:    repository.NewPgUserRepository(db),
		sessions: repository.NewPgSessionRepository(db),
		contests: repository.NewPgContestRepository(db),
		rankings: repository.NewPgRankingRepository(db),
	}, db, nil
}

func closeRedis(rdb *redis.Client, log logrus.FieldLogger) {
	if err := rdb.Close(); err != nil {
		log.WithError(err).Warn("closing redis client")
	}
}
