package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/identity/internal/api/http/router"
	httpserver "example.com/identity/internal/api/http/server"
	"example.com/identity/internal/config"
	"example.com/identity/internal/logger"
	"example.com/identity/internal/model"
	"example.com/identity/internal/ratelimit"
	"example.com/identity/internal/repository/postgres"
	"example.com/identity/internal/server"
	"example.com/identity/internal/service"
	"example.com/identity/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	auditRepo := postgres.NewAuditLogRepository(db)

	issuer := token.NewJWT(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.TTLSeconds)*time.Second)
	refreshTTL := time.Duration(cfg.JWT.RefreshTTLSeconds) * time.Second

	identityService := service.NewIdentity(accountRepo, refreshTokenRepo, auditRepo, issuer, refreshTTL, logger)

	limiter := buildRateLimiter(ctx, cfg, logger)

	r := router.New(identityService, issuer, limiter, logger)
	apiServer := httpserver.NewHTTPServer(r.Register(), cfg.HTTP.Address)

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(apiServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", apiServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// buildRateLimiter selects the window state backend once at startup. An
// unreachable redis backend degrades to the in-memory limiter with a
// single warning; it is never re-probed per request.
func buildRateLimiter(ctx context.Context, cfg *config.Config, logger *logger.Logger) ratelimit.Limiter {
	rlCfg := ratelimit.Config{
		Requests: cfg.RateLimit.Requests,
		Window:   time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
	}

	if cfg.RateLimit.Backend == "redis" && cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn("invalid redis url, falling back to in-memory rate limiter", "error", err.Error())
			return ratelimit.NewLocal(rlCfg)
		}
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis rate limiter unavailable, falling back to in-memory", "error", err.Error())
			return ratelimit.NewLocal(rlCfg)
		}

		logger.Info("rate limiter configured for redis backend", "address", opts.Addr)
		return ratelimit.NewRedis(client, rlCfg)
	}

	logger.Info("rate limiter using in-memory backend")
	return ratelimit.NewLocal(rlCfg)
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
