package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"campus-connect-go/internal/dispatch"
	"campus-connect-go/internal/handlers"
	"campus-connect-go/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	// Redis Configuration (change-event fan-out)
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	bus := store.NewRedisBus(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// PostgreSQL Configuration (users, subscriptions, notification records)
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pgStore, err := store.NewPostgresStore(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	ctx := context.Background()
	if err := pgStore.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	dispatcher := dispatch.NewFromEnv(pgStore)

	h := handlers.NewHandler(pgStore, bus, dispatcher)
	h.SeedAdmin(ctx)

	// Auth
	http.HandleFunc("/api/login", h.LoginHandler)
	http.HandleFunc("/api/login/2fa", h.Verify2FALoginHandler)
	http.HandleFunc("/api/logout", h.LogoutHandler)
	http.HandleFunc("/api/2fa/generate", handlers.AuthMiddleware(h.Generate2FAHandler))
	http.HandleFunc("/api/2fa/enable", handlers.AuthMiddleware(h.Enable2FAHandler))

	// Push subscriptions and dispatch
	http.HandleFunc("/api/push/vapid-key", h.VAPIDKeyHandler)
	http.HandleFunc("/api/push/subscribe", handlers.AuthMiddleware(h.SubscribePushHandler))
	http.HandleFunc("/api/push/unsubscribe", handlers.AuthMiddleware(h.UnsubscribePushHandler))
	http.HandleFunc("/api/push/send", h.DispatchHandler)

	// Notification records and realtime feed
	http.HandleFunc("/api/notify", handlers.AuthMiddleware(h.NotifyHandler))
	http.HandleFunc("/api/notifications", handlers.AuthMiddleware(h.ListNotificationsHandler))
	http.HandleFunc("/api/notifications/read", handlers.AuthMiddleware(h.MarkReadHandler))
	http.HandleFunc("/api/notifications/read-all", handlers.AuthMiddleware(h.MarkAllReadHandler))
	http.HandleFunc("/api/notifications/clear", handlers.AuthMiddleware(h.ClearNotificationsHandler))
	http.HandleFunc("/api/notifications/events", handlers.AuthMiddleware(h.EventsHandler))
	http.HandleFunc("/api/notifications/", handlers.AuthMiddleware(h.DeleteNotificationHandler))

	http.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Listening on :" + port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}
