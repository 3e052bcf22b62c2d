package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carpool/internal/config"
	"carpool/internal/handlers"
	"carpool/internal/middleware"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/repositories/mongodb"
	"carpool/internal/services"
	"carpool/pkg/cache"
	"carpool/pkg/database"
	"carpool/pkg/logger"
	"carpool/pkg/messaging"
	"carpool/pkg/push"
	"carpool/pkg/websocket"
	"carpool/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  cfg.App.LogOutput,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	mongoDB, err := database.NewMongoDB(&database.Config{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoDB.Close()

	if cfg.Database.RunMigrations {
		if err := database.NewMigrator(mongoDB.Database, appLogger).Up(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	// Repositories
	rideRepo := mongodb.NewRideRepository(mongoDB.Database)
	chatRepo := mongodb.NewChatRepository(mongoDB.Database, cfg.Database.Transactions)
	userRepo := mongodb.NewUserRepository(mongoDB.Database)

	// Real-time delivery
	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)
	hubNotifier := services.NewHubNotifier(hub)

	healthChecks := map[string]handlers.Pinger{"mongodb": mongoDB}

	cacheService := services.NewNoopCacheService()
	var notifiers services.NotifierGroup
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()

		cacheService = services.NewCacheService(redisCache, appLogger)
		healthChecks["redis"] = redisCache

		redisNotifier := services.NewRedisNotifier(redisCache, cfg.WebSocket.EventsChannel, hubNotifier, appLogger)
		go func() {
			if err := redisNotifier.Listen(ctx); err != nil {
				appLogger.WithError(err).Error("Chat event listener stopped")
			}
		}()
		notifiers = append(notifiers, redisNotifier)
	} else {
		appLogger.Warn("Redis disabled: caching off, chat events delivered to this instance only")
		notifiers = append(notifiers, hubNotifier)
	}

	if pushNotifier := newPushNotifier(ctx, cfg.Push, userRepo, appLogger); pushNotifier != nil {
		notifiers = append(notifiers, pushNotifier)
	}

	// Ride events
	events := services.NewNoopEventPublisher()
	if cfg.Messaging.Enabled() {
		publisher, err := messaging.NewPublisher(messaging.Config{
			URL:            cfg.Messaging.URL,
			Exchange:       cfg.Messaging.RideExchange,
			ConnectRetries: cfg.Messaging.ConnectRetries,
			RetryInterval:  cfg.Messaging.RetryInterval,
			DialTimeout:    cfg.Messaging.DialTimeout,
		}, appLogger)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to connect to RabbitMQ")
		}
		defer publisher.Close()
		events = publisher
	}

	if cfg.Chat.MatchMode == config.ChatMatchSuperset {
		appLogger.Warn("CHAT_MATCH_MODE=superset: starting a chat may return an existing group chat that contains the requested participants")
	}

	// Services
	authService := services.NewAuthService(userRepo, services.AuthServiceConfig{
		JWTSecret:         cfg.Security.JWTSecret,
		AccessTokenTTL:    cfg.Security.JWTAccessTokenTTL,
		PasswordMinLength: cfg.Security.PasswordMinLength,
	}, appLogger)
	userService := services.NewUserService(userRepo, appLogger)
	rideService := services.NewRideService(rideRepo, cacheService, events, services.RideServiceConfig{
		AllowDriverJoin: cfg.Rides.AllowDriverJoin,
		FeaturedLimit:   cfg.Rides.FeaturedLimit,
		SummaryCacheTTL: cfg.Rides.SummaryCacheTTL,
	}, appLogger)
	chatService := services.NewChatService(chatRepo, notifiers, services.ChatServiceConfig{
		MatchMode:        cfg.Chat.MatchMode,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	}, appLogger)

	// Initialize handlers
	wsHandler := websocket.NewHandler(hub, websocket.Config{
		ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		PongTimeout:      cfg.WebSocket.PongTimeout,
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
	}, appLogger)

	h := &routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, appLogger),
		Ride:      handlers.NewRideHandler(rideService, appLogger),
		User:      handlers.NewUserHandler(userService, appLogger),
		Chat:      handlers.NewChatHandler(chatService, appLogger),
		Message:   handlers.NewMessageHandler(chatService, appLogger),
		Health:    handlers.NewHealthHandler(cfg.App.Version, healthChecks),
		WebSocket: wsHandler.HandleWebSocket,
	}

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RateLimitMiddleware(cacheService, cfg.Security.RateLimitPerMinute, appLogger))

	routes.Setup(router, h, cfg.Security.JWTSecret)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Graceful shutdown failed")
	}
	if err := rideService.DrainEvents(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("Ride events still in flight at shutdown")
	}
}

// newPushNotifier returns nil when no push platform is configured.
func newPushNotifier(ctx context.Context, cfg *config.PushConfig, users interfaces.UserRepository, appLogger *logger.Logger) *services.PushNotifier {
	var fcm, apns push.PushProvider

	if cfg.FCMEnabled() {
		provider, err := push.NewFCMProvider(ctx, cfg.FCM.Credentials)
		if err != nil {
			appLogger.WithError(err).Error("FCM disabled: failed to initialise")
		} else {
			fcm = provider
		}
	}
	if cfg.APNSEnabled() {
		provider, err := push.NewAPNSProvider(cfg.APNS.KeyFile, cfg.APNS.KeyID, cfg.APNS.TeamID, cfg.APNS.BundleID, cfg.APNS.Production)
		if err != nil {
			appLogger.WithError(err).Error("APNs disabled: failed to initialise")
		} else {
			apns = provider
		}
	}

	if fcm == nil && apns == nil {
		return nil
	}
	return services.NewPushNotifier(users, fcm, apns, appLogger)
}
