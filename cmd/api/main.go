package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ItsBenaYT/starryevents/internal/config"
	"github.com/ItsBenaYT/starryevents/internal/handler"
	"github.com/ItsBenaYT/starryevents/internal/middleware"
	pgRepo "github.com/ItsBenaYT/starryevents/internal/repository/postgres"
	redisRepo "github.com/ItsBenaYT/starryevents/internal/repository/redis"
	"github.com/ItsBenaYT/starryevents/internal/service"
	ws "github.com/ItsBenaYT/starryevents/internal/websocket"
	"github.com/ItsBenaYT/starryevents/pkg/auth"
	"github.com/ItsBenaYT/starryevents/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	eventRepo := pgRepo.NewEventRepo(db)
	participantRepo := pgRepo.NewParticipantRepo(db)
	winnerRepo := pgRepo.NewWinnerRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode

	// Сессионные куки
	sessions, err := auth.NewSessionService(
		cfg.Session.SigningKey,
		cfg.Session.LifetimeHrs,
		cfg.Session.CookieName,
		isProduction,
	)
	if err != nil {
		log.Printf("Failed to initialize SessionService: %v", err)
		os.Exit(1)
	}

	// Контекст для фоновых горутин (hub уведомлений)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket hub для живых уведомлений
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Email-уведомления о наградах: без API-ключа работает заглушка
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.Enabled {
		resendService, errEmail := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if errEmail != nil {
			log.Printf("Email-уведомления отключены: %v", errEmail)
		} else {
			emailService = resendService
		}
	}

	// Инициализируем сервисы
	userService := service.NewUserService(userRepo)
	eventService := service.NewEventService(eventRepo, participantRepo, hub)
	winnerService := service.NewWinnerService(winnerRepo, eventRepo, userRepo, emailService, hub)

	oidcService, err := service.NewOIDCService(cfg.OIDC, userRepo, cacheRepo)
	if err != nil {
		log.Printf("Failed to initialize OIDCService: %v", err)
		os.Exit(1)
	}

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(oidcService, userService, sessions)
	eventHandler := handler.NewEventHandler(eventService, winnerService)
	rankingHandler := handler.NewRankingHandler(userService)
	wsHandler := handler.NewWSHandler(hub)

	authMiddleware := middleware.NewAuthMiddleware(sessions, userRepo)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Логин через внешнего провайдера
		api.GET("/login", rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()), authHandler.Login)
		api.GET("/callback", rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()), authHandler.Callback)
		api.GET("/logout", authHandler.Logout)

		authGroup := api.Group("/auth")
		authGroup.Use(authMiddleware.RequireAuth())
		{
			authGroup.GET("/user", authHandler.GetCurrentUser)
		}

		// Рейтинг игроков (публичный маршрут)
		api.GET("/rankings", rankingHandler.GetRankings)

		// Ивенты
		events := api.Group("/events")
		{
			events.GET("", eventHandler.ListEvents)
			events.GET("/active", eventHandler.ListActiveEvents)
			events.GET("/scheduled", eventHandler.ListScheduledEvents)

			// Группа маршрутов, требующих eventID
			eventWithID := events.Group("/:id")
			eventWithID.Use(middleware.ExtractUUIDParam("id", "eventID"))
			{
				eventWithID.GET("", eventHandler.GetEvent)
				eventWithID.GET("/participants", eventHandler.GetEventParticipants)
				eventWithID.GET("/winners", eventHandler.GetEventWinners)

				// Маршруты для аутентифицированных пользователей
				authedEvents := eventWithID.Group("")
				authedEvents.Use(authMiddleware.RequireAuth())
				{
					authedEvents.PUT("", eventHandler.UpdateEvent)
					authedEvents.DELETE("", eventHandler.DeleteEvent)
					authedEvents.POST("/join",
						rateLimiter.Limit(middleware.JoinRateLimitConfig()),
						eventHandler.JoinEvent)
				}

				// Маршруты для администраторов
				adminEvents := eventWithID.Group("")
				adminEvents.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
				{
					adminEvents.POST("/winners", eventHandler.AwardWinner)
					adminEvents.GET("/participants/export", eventHandler.ExportParticipants)
				}
			}

			// Маршрут создания ивента (не требует ID)
			authedCreateEvent := events.Group("")
			authedCreateEvent.Use(authMiddleware.RequireAuth())
			{
				authedCreateEvent.POST("", eventHandler.CreateEvent)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Healthcheck
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ждём сигнал остановки, затем завершаем горутины и сервер
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
