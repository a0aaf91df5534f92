package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/handlers"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/logger"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/sending"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/smtp"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/storage"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/websocket"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB       *gorm.DB
	Logger   *slog.Logger
	Security *logger.SecurityLogger
	Avatars  storage.AvatarStorage
	// Scheduler interprets requested times; nil uses UTC and the wall clock
	Scheduler *sending.Scheduler
	Trigger   handlers.DispatchTrigger
	Hub       *websocket.Hub
	// Outbox exposes the capture server's mail; nil leaves the dev routes out
	Outbox       *smtp.Outbox
	HealthChecks map[string]handlers.HealthCheck

	// Security configuration
	APIKey         string   // API key for authentication (empty = disabled)
	AllowedOrigins []string // Allowed CORS and websocket origins
	AppEnv         string
	RateLimiter    *middleware.IPRateLimiter // nil disables rate limiting
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware order: recover, headers, CORS, rate limit, logging
	e.Use(middleware.Recover())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.AppEnv))
	if cfg.RateLimiter != nil {
		e.Use(middleware.RateLimiter(cfg.RateLimiter, cfg.Security))
	}
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(cfg.DB)
	recipientRepo := repository.NewRecipientRepository(cfg.DB)
	messageRepo := repository.NewMessageRepository(cfg.DB)
	sendingRepo := repository.NewSendingRepository(cfg.DB)
	eventRepo := repository.NewEventRepository(cfg.DB)

	service := sending.NewService(sendingRepo, userRepo, cfg.Scheduler, cfg.Logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	for name, check := range cfg.HealthChecks {
		healthHandler.AddCheck(name, check)
	}
	userHandler := handlers.NewUserHandler(userRepo, cfg.Avatars, cfg.Security)
	recipientHandler := handlers.NewRecipientHandler(recipientRepo)
	messageHandler := handlers.NewMessageHandler(messageRepo)
	sendingHandler := handlers.NewSendingHandler(handlers.SendingHandlerConfig{
		Sendings:   sendingRepo,
		Messages:   messageRepo,
		Recipients: recipientRepo,
		Events:     eventRepo,
		Service:    service,
		Trigger:    cfg.Trigger,
		Security:   cfg.Security,
	})

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Live feed; browsers cannot send the API key, origin is checked instead
	if cfg.Hub != nil {
		upgrader := websocket.NewSecureUpgrader(cfg.AllowedOrigins, cfg.Security)
		wsHandler := handlers.NewWebSocketHandler(cfg.Hub, upgrader, cfg.Logger)
		e.GET("/ws", wsHandler.Connect)
	}

	// API routes
	api := e.Group("/api")
	api.Use(middleware.APIKeyAuth(cfg.APIKey, cfg.Security))

	// User routes
	users := api.Group("/users")
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.PATCH("/:id/active", userHandler.SetActive)
	users.PUT("/:id/avatar", userHandler.UploadAvatar)
	users.GET("/:id/avatar", userHandler.GetAvatar)
	users.DELETE("/:id", userHandler.Delete)

	// Recipient routes
	recipients := api.Group("/recipients")
	recipients.POST("", recipientHandler.Create)
	recipients.GET("", recipientHandler.List)
	recipients.GET("/:id", recipientHandler.Get)
	recipients.PUT("/:id", recipientHandler.Update)
	recipients.DELETE("/:id", recipientHandler.Delete)

	// Message routes
	messages := api.Group("/messages")
	messages.POST("", messageHandler.Create)
	messages.GET("", messageHandler.List)
	messages.GET("/:id", messageHandler.Get)
	messages.PUT("/:id", messageHandler.Update)
	messages.DELETE("/:id", messageHandler.Delete)

	// Sending routes
	sendings := api.Group("/sendings")
	sendings.POST("", sendingHandler.Create)
	sendings.GET("", sendingHandler.List)
	sendings.POST("/dispatch-due", sendingHandler.DispatchDue)
	sendings.GET("/:id", sendingHandler.Get)
	sendings.PUT("/:id", sendingHandler.Update)
	sendings.DELETE("/:id", sendingHandler.Delete)
	sendings.PUT("/:id/recipients", sendingHandler.ReplaceRecipients)
	sendings.PATCH("/:id/status", sendingHandler.UpdateStatus)
	sendings.PATCH("/:id/active", sendingHandler.SetActive)
	sendings.POST("/:id/dispatch", sendingHandler.Dispatch)
	sendings.GET("/:id/events", sendingHandler.Events)
	sendings.GET("/:id/report", sendingHandler.Report)

	// Captured mail from the development SMTP server
	if cfg.Outbox != nil {
		outboxHandler := handlers.NewOutboxHandler(cfg.Outbox)
		dev := api.Group("/dev/outbox")
		dev.GET("", outboxHandler.List)
		dev.GET("/:id", outboxHandler.Get)
		dev.DELETE("", outboxHandler.Clear)
	}

	return e
}
