package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"support-chat-service/internal/auth"
	"support-chat-service/internal/config"
	"support-chat-service/internal/db"
	"support-chat-service/internal/handlers"
	"support-chat-service/internal/middleware"
	"support-chat-service/internal/observability"
	"support-chat-service/internal/presence"
	"support-chat-service/internal/rabbitmq"
	"support-chat-service/internal/repositories"
	"support-chat-service/internal/telemetry"
	"support-chat-service/internal/ws"
)

const serviceName = "support-chat-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	logger, err := config.InitLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer logger.Sync()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		zap.S().Fatalw("connect to db failed", "error", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	zap.S().Infow("audit publisher ready",
		"mode", rabbitmq.PublisherMode(publisher),
		"reason", rabbitmq.PublisherNoopReason(publisher))
	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, serviceName, cfg.Environment)

	shutdownTracing, err := observability.InitTracing(context.Background(), serviceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		zap.S().Fatalw("init tracing failed", "error", err)
	}

	userRepo := repositories.NewUserRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	tracker := presence.NewTracker(userRepo)
	hub := ws.NewHub()

	chatHandler := handlers.NewChatHandler(userRepo, conversationRepo, messageRepo, verifier, tracker, hub, audit)
	gateway := ws.NewGateway(hub, chatHandler, cfg.CORSOrigins, audit)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	startedAt := time.Now()
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": serviceName, "status": "running"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"uptime":      time.Since(startedAt).String(),
			"environment": cfg.Environment,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", gateway.Handle)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zap.S().Infow("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalw("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zap.S().Errorw("server shutdown failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		zap.S().Warnw("publisher close failed", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		zap.S().Warnw("tracing shutdown failed", "error", err)
	}
	zap.S().Info("shutdown complete")
}
