package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/api-gateway/internal/api/http"
	"github.com/spec-kit/api-gateway/internal/api/http/handlers"
	"github.com/spec-kit/api-gateway/internal/auth"
	"github.com/spec-kit/api-gateway/internal/config"
	"github.com/spec-kit/api-gateway/internal/events"
	"github.com/spec-kit/api-gateway/internal/gateway"
	"github.com/spec-kit/api-gateway/internal/identity"
	"github.com/spec-kit/api-gateway/internal/observability"
	"github.com/spec-kit/api-gateway/internal/service"
	"github.com/spec-kit/api-gateway/internal/store"
	"github.com/spec-kit/api-gateway/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docStore, err := newStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to connect document store", zap.Error(err))
	}
	defer docStore.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	codec := auth.NewCodec(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	filter := auth.NewFilter(codec, logger, metrics)

	provider := identity.NewStoreProvider(docStore, cfg.Auth.BcryptCost)
	identityService := identity.NewService(provider, docStore, codec, dispatcher, logger)

	auditService := service.NewAuditService(dispatcher, docStore, logger)
	worker.StartAuditWorker(auditService)

	fallback := gateway.NewFallbackResponder()
	proxy := gateway.NewProxy(cfg.Gateway, []gateway.Route{
		{Service: "user", Prefix: "/api/users", Target: cfg.Gateway.UserServiceURL},
		{Service: "loan", Prefix: "/api/loans", Target: cfg.Gateway.LoanServiceURL},
	}, fallback, logger, metrics)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, docStore),
		Auth:   handlers.NewAuthHandler(identityService),
		Filter: filter,
		Proxy:  proxy,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func newStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg, logger)
	case "redis":
		return store.NewRedis(cfg, logger), nil
	case "memory":
		logger.Warn("using in-memory document store; data will not survive restarts")
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
