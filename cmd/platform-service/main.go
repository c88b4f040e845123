package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/1code1day/platform-service/config"
	"github.com/1code1day/platform-service/internal/api/rest"
	"github.com/1code1day/platform-service/internal/db"
	"github.com/1code1day/platform-service/internal/email"
	openaiint "github.com/1code1day/platform-service/internal/integration/openai"
	stripeint "github.com/1code1day/platform-service/internal/integration/stripe"
	"github.com/1code1day/platform-service/internal/kafka"
	"github.com/1code1day/platform-service/internal/metrics"
	"github.com/1code1day/platform-service/internal/repository"
	"github.com/1code1day/platform-service/internal/service"
	"github.com/1code1day/platform-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.INFO).Fatal("Failed to load configuration: %v", err)
	}

	log := logger.New(logger.ParseLevel(cfg.App.LogLevel))
	log.Infow("1code1day platform service starting up...")

	if cfg.Auth.JWTSecret == "" {
		log.Warnw("JWT secret is not set, admin endpoints will reject all tokens")
	}
	if cfg.Stripe.SecretKey == "" {
		log.Warnw("Stripe secret key is not set")
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// База данных и миграции
	database, err := db.Connect(cfg.Database.DSN, log)
	if err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Errorw("Error closing database connection", "error", err)
		}
	}()

	if err := db.RunMigrations(database, cfg.App.MigrationsPath, log); err != nil {
		log.Fatalw("Failed to apply migrations", "error", err)
	}

	// Redis кэш зеркал профиля: недоступность не фатальна
	var profileCache *repository.ProfileCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warnw("Redis unavailable, continuing without profile cache", "error", err)
		} else {
			profileCache = repository.NewProfileCache(redisClient, log)
			defer func() {
				if err := redisClient.Close(); err != nil {
					log.Errorw("Error closing Redis connection", "error", err)
				}
			}()
		}
		pingCancel()
	}

	// Kafka producer: недоступность не фатальна
	var producer kafka.SubscriptionProducer
	if len(cfg.Kafka.Brokers) > 0 {
		syncProducer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Errorw("Failed to initialize Kafka producer, continuing without event publishing", "error", err)
		} else {
			producer = kafka.NewSubscriptionProducer(syncProducer, log)
			defer func() {
				if err := producer.Close(); err != nil {
					log.Errorw("Error closing Kafka producer", "error", err)
				}
			}()
		}
	}

	// Репозитории
	subscriptionRepo := repository.NewSubscriptionRepository(database, log)
	profileRepo := repository.NewProfileRepository(database, log)
	siteConfigRepo := repository.NewSiteConfigRepository(database, log)
	securityRepo := repository.NewSecurityRepository(database, log)
	challengeRepo := repository.NewChallengeRepository(database, log)

	// Внешние интеграции
	stripeClient := stripeint.NewClient(cfg.Stripe.SecretKey, log)
	generator := openaiint.NewGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model, log)

	var sender email.Sender
	if cfg.Email.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, log)
	} else {
		sender = &email.NoopSender{Log: log}
	}

	// Метрики
	registry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(registry, log)

	// Сервисы
	securityService := service.NewSecurityService(securityRepo, log)
	var cache service.ProfileCacher
	if profileCache != nil {
		cache = profileCache
	}
	subscriptionService := service.NewSubscriptionService(
		subscriptionRepo, profileRepo, cache, stripeClient, producer, billingMetrics, sender,
		cfg.Stripe.PriceID,
		service.CheckoutURLs{
			SuccessURL: cfg.App.SiteURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:  cfg.App.SiteURL + "/pricing",
		},
		log,
	)
	challengeService := service.NewChallengeService(challengeRepo, generator, securityService, log)
	siteConfigService := service.NewSiteConfigService(siteConfigRepo, securityService, log)

	// HTTP сервер
	router := rest.SetupRouter(rest.Deps{
		Subscriptions: subscriptionService,
		Challenges:    challengeService,
		SiteConfig:    siteConfigService,
		Security:      securityService,
		EmailSender:   sender,
	}, cfg, registry, log)

	server := rest.NewServer(router, cfg, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalw("Failed to start HTTP server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Infow("HTTP server gracefully stopped")
	}

	log.Infow("Cleanup finished. Goodbye!")
}
