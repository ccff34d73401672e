package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/campusline/platform/notification-service/internal/broker"
	notifycmd "github.com/campusline/platform/notification-service/internal/command"
	"github.com/campusline/platform/notification-service/internal/consumer"
	"github.com/campusline/platform/notification-service/internal/handler"
	"github.com/campusline/platform/notification-service/internal/provider"
	"github.com/campusline/platform/notification-service/internal/subscriber"
	"github.com/campusline/platform/shared/config"
	"github.com/campusline/platform/shared/events"
	"github.com/campusline/platform/shared/httpserver"
	"github.com/campusline/platform/shared/logger"
	redisClient "github.com/campusline/platform/shared/redis"
)

const (
	serviceName   = "notification-service"
	consumerGroup = "notification-service-group"
)

func main() {
	cfg, err := config.LoadNotificationService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Development(), os.Stdout).WithFields(logger.Fields{"service": serviceName})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- providers ---
	email := provider.NewEmail(cfg.ResendAPIKey, cfg.FromEmail)
	if !email.Configured() {
		log.Warn("RESEND_API_KEY or FROM_EMAIL not set, email sending disabled", nil)
	}
	sms := provider.NewSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	if !sms.Configured() {
		log.Warn("Twilio credentials not set, SMS sending disabled", nil)
	}
	push, err := provider.NewPush(ctx, cfg.FirebaseCredentials)
	if err != nil {
		log.Error("Failed to initialize Firebase Admin SDK, push sending disabled", logger.Fields{"error": err})
	} else if !push.Configured() {
		log.Warn("FIREBASE_SERVICE_ACCOUNT_PATH not set, push sending disabled", nil)
	}

	commandSvc := notifycmd.NewNotificationCommandService(email, sms, push, log)

	var wg sync.WaitGroup

	// --- queue consumer ---
	rabbit := broker.NewRabbitMQ(broker.Config{
		URL:            cfg.RabbitMQURL,
		Queue:          config.NotificationQueue,
		Prefetch:       cfg.Prefetch,
		ReconnectDelay: cfg.ReconnectDelay,
	}, log)
	jobs := consumer.New(commandSvc, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := rabbit.Run(ctx, jobs.Consume); err != nil {
			log.Error("RabbitMQ consumer stopped", logger.Fields{"error": err})
		}
	}()

	// --- user events (optional) ---
	if cfg.Redis.Enabled() && cfg.WelcomeEmailEnabled {
		redis, err := redisClient.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", logger.Fields{"error": err})
		}
		defer redis.Close()

		welcome := subscriber.NewWelcome(commandSvc, subscriber.NewRedisDeliveryLog(redis.Client, log), cfg.WelcomeEmailSubject, log)
		sub := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    consumerGroup,
			Consumer: consumerName(),
			Stream:   events.UserEventsStream,
			Handler:  welcome.HandleUserEvent,
		}, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sub.Start(ctx); err != nil {
				log.Error("User event subscriber stopped", logger.Fields{"error": err})
			}
		}()
	} else if cfg.WelcomeEmailEnabled {
		log.Warn("WELCOME_EMAIL_ENABLED set without REDIS_ADDR, welcome emails disabled", nil)
	}

	router := httpserver.NewRouter(serviceName, log, cfg.Development())
	handler.RegisterRoutes(router, handler.NewNotificationHandler(commandSvc), cfg.HTTPSendEnabled)

	if err := httpserver.Run(ctx, ":"+cfg.Port, router, log); err != nil {
		log.Error("HTTP server failed", logger.Fields{"error": err})
		stop()
	}
	wg.Wait()
	log.Info("Notification service stopped", nil)
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return serviceName
	}
	return serviceName + "-" + host
}
