package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskdeck/broker"
	"taskdeck/config"
	"taskdeck/database"
	"taskdeck/middleware"
	"taskdeck/routes"
	"taskdeck/services"
	"taskdeck/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db, err := database.Setup(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize NATS producer with better error handling
	natsAvailable := true
	err = broker.InitProducer(cfg)
	if err != nil {
		log.Printf("Warning: Failed to initialize NATS producer: %v", err)
		log.Println("The application will continue, but live updates fall back to in-process delivery")
		natsAvailable = false
	} else {
		defer broker.CloseProducer()
	}

	// Attachment storage on a JetStream object store bucket. Without NATS the
	// server falls back to in-memory storage so task CRUD keeps working;
	// attachments do not survive a restart in that mode.
	attachmentStore := setupAttachmentStore(cfg, natsAvailable)

	// Initialize task service with the attachment store
	taskService := services.NewTaskService(attachmentStore)
	services.TaskServiceInstance = taskService

	// Task stream: the live-query layer behind websocket subscriptions
	taskStreamService := services.NewTaskStreamService(db, taskService)
	services.TaskStreamServiceInstance = taskStreamService
	taskStreamService.Start(cfg)
	defer taskStreamService.Stop()

	// Create and initialize the WebSocket service
	webSocketService := services.NewWebSocketService(taskStreamService)
	services.WebSocketServiceInstance = webSocketService
	webSocketService.Start()
	defer webSocketService.Stop()

	// Outbox dispatcher: publishes committed events, or notifies the task
	// stream directly when NATS is down
	eventDispatcherService := services.NewEventDispatcherService(db, taskStreamService)
	services.EventDispatcherServiceInstance = eventDispatcherService
	eventDispatcherService.Start()
	defer eventDispatcherService.Stop()

	// Initialize authentication service
	authService := services.NewAuthService(cfg.JWTSecret, cfg.JWTExpirationHours, services.UserServiceInstance)
	services.AuthServiceInstance = authService

	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	// Register authentication routes
	routes.RegisterAuthRoutes(router, db, authService)

	// Everything else requires a valid token
	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(authService))
	routes.RegisterUserRoutes(protected, db, services.UserServiceInstance)
	routes.RegisterTaskRoutes(protected, db, taskService)
	routes.RegisterAttachmentRoutes(protected, attachmentStore)

	// WebSocket endpoint carries its token in the query string
	routes.RegisterWebSocketRoutes(router, authService, webSocketService)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down server...")
		taskStreamService.Stop()
		os.Exit(0)
	}()

	log.Printf("API server is running on port %s", cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupAttachmentStore(cfg config.Config, natsAvailable bool) storage.AttachmentStore {
	if natsAvailable {
		store, err := storage.NewJetStreamAttachmentStore(cfg.NatsURL, cfg.AttachmentBucket)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err = store.Init(ctx); err == nil {
				return store
			}
			store.Close()
		}
		log.Printf("Warning: Failed to initialize attachment store: %v", err)
	}

	log.Println("Using in-memory attachment storage")
	return storage.NewMemoryAttachmentStore()
}
