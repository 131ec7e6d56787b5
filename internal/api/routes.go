package api

import (
	"net/http"

	"github.com/FRI2020/talk-trace/internal/auth"
	"github.com/FRI2020/talk-trace/internal/config"
	"github.com/FRI2020/talk-trace/internal/database"
	"github.com/FRI2020/talk-trace/internal/email"
	"github.com/FRI2020/talk-trace/internal/logger"
	"github.com/FRI2020/talk-trace/internal/metrics"
	"github.com/FRI2020/talk-trace/internal/middleware"
	"github.com/FRI2020/talk-trace/internal/responder"
	"github.com/FRI2020/talk-trace/internal/store"
	"github.com/FRI2020/talk-trace/internal/transcribe"
	"github.com/FRI2020/talk-trace/internal/whatsapp"
	"github.com/FRI2020/talk-trace/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(router *gin.Engine, db *database.Database, cfg *config.Config, log *logger.Logger) {
	contactStore := store.NewContactStore(db)
	messageStore := store.NewMessageStore(db)
	contextStore := store.NewContextStore(db)

	waClient := whatsapp.NewClient(cfg.WhatsApp)
	replyGen := responder.New(cfg.LLM, contextStore)
	transcriber := transcribe.New(cfg.LLM, cfg.Speech)
	alerts := email.NewAlertSender(cfg)
	m := metrics.New(prometheus.DefaultRegisterer)

	// Operator auth is optional: without a configured password hash the
	// dashboard endpoints stay open.
	var jwtManager *auth.JWTManager
	if cfg.Operator.PasswordHash != "" {
		jwtManager = auth.NewJWTManager(cfg)
	}

	webhookHandler := NewWebhookHandler(
		contactStore, messageStore, replyGen, transcriber, waClient,
		alerts, m, log, cfg.WhatsApp.VerifyToken,
	)
	chatHandler := NewChatHandler(contactStore, messageStore, waClient, log)
	authHandler := NewAuthHandler(cfg, jwtManager)

	router.Use(middleware.CORSSpecific(cfg.GetCORSOrigins()))
	router.Use(middleware.RequestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "talktrace",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Operator dashboard, a single embedded page polling the endpoints
	// below.
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
	})

	// WhatsApp webhook surface.
	router.GET("/webhook", webhookHandler.Verify)
	router.POST("/webhook", middleware.VerifySignature(cfg.WhatsApp.AppSecret), webhookHandler.Handle)

	router.POST("/auth/login", authHandler.Login)

	dashboard := router.Group("")
	dashboard.Use(middleware.OperatorAuth(jwtManager))
	{
		dashboard.POST("/history", chatHandler.GetHistory)
		dashboard.POST("/sending", chatHandler.SendAdminMessage)
		dashboard.POST("/toggle-human-chat", chatHandler.ToggleHumanChat)
		dashboard.GET("/contacts", chatHandler.GetContacts)
	}
}
