package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"roomchat/internal/ai"
	"roomchat/internal/chat"
	"roomchat/internal/config"
	"roomchat/internal/db"
	myMiddleware "roomchat/internal/middleware"
	"roomchat/internal/user"
)

func main() {
	cfg := config.Load()

	// Platform layer: Postgres + migrations.
	database, err := db.NewDatabase(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	defer database.Close()
	log.Println("connected to PostgreSQL")

	if err := database.Migrate(context.Background()); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("database schema up to date")

	// Redis backs the admission-control counters.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("connected to Redis")

	// User feature.
	userRepo := user.NewRepository(database.Conn)
	userService := user.NewService(userRepo, cfg.JWTSecret, cfg.AccessPasswordHash, cfg.TokenTTL)

	// Chat feature: hub fans out what the coalescer flushes.
	hub := chat.NewHub(userService)
	go hub.Run()
	coalescer := chat.NewCoalescer(cfg.FlushInterval, hub)

	chatRepo := chat.NewRepository(database.Conn, cfg.HistoryLimit, cfg.HistoryLimitMax)
	chatService := chat.NewService(chatRepo, userRepo, coalescer, cfg.MaxAttachmentBytes)
	chatHandler := chat.NewHandler(hub, chatService)

	userHandler := user.NewHandler(userService, coalescer)

	// AI feature.
	openaiConnector := ai.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	geminiConnector := ai.NewGemini(cfg.GeminiAPIKey)
	aiService := ai.NewService(chatService, openaiConnector, geminiConnector)
	aiHandler := ai.NewHandler(aiService, openaiConnector)

	authMiddleware := myMiddleware.NewAuthMiddleware(userService)
	rateLimiter := myMiddleware.NewRateLimiter(redisClient)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(myMiddleware.SecurityHeaders)

	// Public routes.
	r.With(rateLimiter.Limit("login", 40, time.Minute)).Post("/api/login", userHandler.Login)
	r.Get("/api/users", userHandler.ListUsers)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})

	// Protected routes.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)

		r.Get("/ws", chatHandler.ServeWs)

		r.Get("/api/me", userHandler.Me)
		r.Get("/api/history", chatHandler.GetHistory)
		r.Post("/api/message", chatHandler.SendMessage)
		r.Delete("/api/message/{id}", chatHandler.DeleteMessage)

		r.With(rateLimiter.Limit("ai-send", 60, time.Minute)).Post("/api/ai/send", aiHandler.Send)
		r.Get("/api/ai/openai-model", aiHandler.OpenAIModel)
	})

	// Static SPA.
	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	log.Printf("server starting on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}
