package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-tracker/config"
	"order-tracker/internal/api"
	"order-tracker/internal/broker"
	"order-tracker/internal/notify"
	"order-tracker/internal/service"
	"order-tracker/internal/store"
	"order-tracker/internal/util"
	"order-tracker/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting order tracker service")

	tp, err := util.InitTracer("order-tracker", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	broadcaster, err := broker.NewRedisBroadcaster(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer broadcaster.Close()
	log.Println("Broadcast transport connected")

	auditProducer := broker.NewAuditProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAudit)
	defer auditProducer.Close()
	log.Println("Audit producer initialized")

	emailClient := notify.NewEmailClient(cfg.Notify.EmailBaseURL, cfg.Notify.EmailAPIKey, cfg.Notify.EmailFrom)
	smsClient := notify.NewSMSClient(cfg.Notify.SMSBaseURL, cfg.Notify.SMSAPIKey, cfg.Notify.SMSFrom)
	dispatcher := notify.NewDispatcher(emailClient, smsClient)

	orderService := service.NewOrderService(db, broadcaster, auditProducer, cfg.Orders.ShortIDPrefix)
	transitionService := service.NewTransitionService(db, broadcaster, auditProducer, dispatcher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	auditConsumer := broker.NewAuditConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicAudit, cfg.Kafka.ConsumerGroup)
	auditWorker := worker.NewAuditWorker(auditConsumer, db)
	go func() {
		if err := auditWorker.Start(workerCtx); err != nil {
			log.Printf("Audit worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	identities := make([]api.Identity, 0, len(cfg.Auth.Tokens))
	for _, t := range cfg.Auth.Tokens {
		identities = append(identities, api.Identity{Name: t.Name, Role: t.Role, Token: t.Token})
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, transitionService, db, api.NewAuthenticator(identities))
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	auditWorker.Stop()

	log.Println("Server exited")
}
