package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"

	"perritofeliz/internal/adapter/apiclient"
	adapthttp "perritofeliz/internal/adapter/http"
	"perritofeliz/internal/adapter/memory"
	"perritofeliz/internal/adapter/mockbackend"
	"perritofeliz/internal/adapter/postgres"
	"perritofeliz/internal/adapter/redis"
	"perritofeliz/internal/app"
	"perritofeliz/internal/config"
	"perritofeliz/internal/domain"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var backend domain.Backend
	if cfg.UseMocks {
		logger.Warn("using mock backend", zap.Duration("latency", cfg.MockLatency))
		backend = mockbackend.New(cfg.MockLatency, logger.Named("mock"))
	} else {
		backend = apiclient.NewBackend(apiclient.NewClient(cfg.APIBase, cfg.BackendTimeout))
	}

	sessions, limiter, closeStores, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal("open session store", zap.Error(err))
	}
	defer closeStores()

	secret := []byte(cfg.ResetTokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			logger.Fatal("generate reset token secret", zap.Error(err))
		}
		logger.Warn("RESET_TOKEN_SECRET not set; reset links will not survive a restart")
	}

	authSvc := app.NewAuthService(backend, sessions, app.NewResetTokens(secret), app.AuthOptions{
		SessionTTL: cfg.SessionTTL,
		Limiter:    limiter,
		Logger:     logger.Named("auth"),
	})
	enrollSvc := app.NewEnrollmentService(backend, logger.Named("enrollment"))
	staffSvc := app.NewStaffService(backend, logger.Named("staff"))

	oidcCfg, err := setupOIDC(ctx, cfg.OIDC)
	if err != nil {
		logger.Fatal("oidc setup", zap.Error(err))
	}

	if cfg.RecaptchaSiteKey == "" {
		logger.Warn("RECAPTCHA_SITE_KEY not set; the login view shows a warning instead of the widget")
	}

	h := adapthttp.New(authSvc, enrollSvc, staffSvc, adapthttp.Options{
		RecaptchaSiteKey: cfg.RecaptchaSiteKey,
		UseMocks:         cfg.UseMocks,
		CookieSecure:     cfg.CookieSecure,
		OIDC:             oidcCfg,
		Logger:           logger.Named("http"),
	}).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sweepSessions(ctx, sessions, logger)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("mocks", cfg.UseMocks), zap.String("sessions", cfg.SessionStore))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// openStores returns the configured session store and, when Redis is
// reachable, the login limiter.
func openStores(cfg config.Config, logger *zap.Logger) (domain.SessionRepository, domain.LoginLimiter, func(), error) {
	var (
		sessions domain.SessionRepository
		limiter  domain.LoginLimiter
		closers  []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.RedisAddr != "" {
		rdb, err := redis.Open(cfg.RedisAddr, cfg.RedisPass)
		if err != nil {
			return nil, nil, closeAll, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		if cfg.LoginRateLimit > 0 {
			limiter = redis.NewLoginLimiter(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow)
		}
		if cfg.SessionStore == config.StoreRedis {
			sessions = redis.NewSessionRepo(rdb)
		}
	}

	switch cfg.SessionStore {
	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, nil, func() {}, err
		}
		closers = append(closers, func() { _ = db.Close() })
		sessions = postgres.NewSessionRepo(db)
	case config.StoreMemory:
		sessions = memory.NewSessionRepo()
	}
	if limiter == nil {
		logger.Info("login rate limiting disabled")
	}
	return sessions, limiter, closeAll, nil
}

func setupOIDC(ctx context.Context, c config.OIDCConfig) (adapthttp.OIDCConfig, error) {
	if !c.Enabled() {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, c.Issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func sweepSessions(ctx context.Context, sessions domain.SessionRepository, logger *zap.Logger) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := sessions.DeleteExpired(ctx); err != nil {
				logger.Warn("delete expired sessions", zap.Error(err))
			}
		}
	}
}
