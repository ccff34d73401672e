package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/campusline/platform/api-gateway/internal/gateway"
	"github.com/campusline/platform/shared/config"
	"github.com/campusline/platform/shared/httpserver"
	"github.com/campusline/platform/shared/logger"
)

const serviceName = "api-gateway"

func main() {
	cfg, err := config.LoadGateway()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Development(), os.Stdout).WithFields(logger.Fields{"service": serviceName})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := httpserver.NewRouter(serviceName, log, cfg.Development())
	gateway.RegisterRoutes(router, cfg, gateway.NewClient(), log)

	log.Info("Routing upstream services", logger.Fields{
		"userService":         cfg.UserServiceURL,
		"notificationService": cfg.NotificationServiceURL,
	})
	if err := httpserver.Run(ctx, ":"+cfg.Port, router, log); err != nil {
		log.Fatal("HTTP server failed", logger.Fields{"error": err})
	}
}
