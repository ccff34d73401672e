package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusline/platform/shared/config"
	"github.com/campusline/platform/shared/credentials"
	"github.com/campusline/platform/shared/events"
	"github.com/campusline/platform/shared/httpserver"
	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/middleware"
	redisClient "github.com/campusline/platform/shared/redis"
	usercmd "github.com/campusline/platform/user-service/internal/command"
	"github.com/campusline/platform/user-service/internal/handler"
	userqry "github.com/campusline/platform/user-service/internal/query"
	"github.com/campusline/platform/user-service/internal/repository"
)

const serviceName = "user-service"

func main() {
	cfg, err := config.LoadUserService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Development(), os.Stdout).WithFields(logger.Fields{"service": serviceName})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to user store", logger.Fields{"driver": cfg.StoreDriver, "error": err})
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("Failed to close user store", logger.Fields{"error": err})
		}
	}()
	log.Info("User store connected", logger.Fields{"driver": cfg.StoreDriver})

	// Redis is optional: without it user lifecycle events are not published.
	var publisher usercmd.EventPublisher
	if cfg.Redis.Enabled() {
		redis, err := redisClient.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", logger.Fields{"error": err})
		}
		defer redis.Close()
		publisher = events.NewPublisher(redis.Client)
	} else {
		log.Warn("REDIS_ADDR not set, user events disabled", nil)
	}

	tokens := credentials.NewService(cfg.JWTSecret, cfg.JWTExpiresIn)

	// --- CQRS wiring ---
	commandSvc := usercmd.NewUserCommandService(store, tokens, publisher, log)
	authQuerySvc := userqry.NewAuthQueryService(store, tokens)
	userQuerySvc := userqry.NewUserQueryService(store)

	router := httpserver.NewRouter(serviceName, log, cfg.Development())
	handler.RegisterRoutes(router,
		handler.NewAuthHandler(commandSvc, authQuerySvc),
		handler.NewUserHandler(commandSvc, userQuerySvc),
		middleware.AuthMiddleware(tokens, store, log),
	)

	if err := httpserver.Run(ctx, ":"+cfg.Port, router, log); err != nil {
		log.Fatal("HTTP server failed", logger.Fields{"error": err})
	}
}

func openStore(ctx context.Context, cfg *config.UserServiceConfig) (repository.UserStore, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return repository.NewPostgresUserStore(ctx, cfg.DatabaseURL)
	case config.StoreMemory:
		return repository.NewMemoryUserStore(), nil
	default:
		return repository.NewMongoUserStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
}
