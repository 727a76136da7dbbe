package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"chat-relay/internal/bus"
	"chat-relay/internal/call"
	"chat-relay/internal/db"
	"chat-relay/internal/message"
	relaymw "chat-relay/internal/middleware"
	"chat-relay/internal/presence"
	"chat-relay/internal/room"
	"chat-relay/internal/user"
	"chat-relay/internal/ws"
)

func main() {
	// 1. Config & Flags
	addr := flag.String("addr", ":8080", "http service address")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("❌ DB_DSN is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("❌ JWT_SECRET is not set")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	missedTimeout := 30 * time.Second
	if v := os.Getenv("CALL_MISSED_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			log.Fatalf("❌ Bad CALL_MISSED_TIMEOUT %q", v)
		}
		missedTimeout = time.Duration(secs) * time.Second
	}

	enforceOwnership := false
	if v := os.Getenv("RELAY_ENFORCE_OWNERSHIP"); v == "1" || v == "true" {
		enforceOwnership = true
	}

	// 2. Connect to Database (Platform Layer)
	database, err := db.NewDatabase("pgx", dsn)
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database Schema Initialized")

	// 3. Connect to Redis (global broadcast bus)
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")
	eventBus := bus.NewRedisBus(redisClient)

	// 4. Repositories
	userRepo := user.NewRepository(database)
	roomRepo := room.NewRepository(database)
	messageRepo := message.NewRepository(database)
	callRepo := call.NewRepository(database)

	// 5. Relay core: presence + hub + call lifecycle
	registry := presence.NewRegistry()
	hub := ws.NewHub(registry, eventBus)
	go hub.RunBusFanout(context.Background())

	callService := call.NewService(callRepo, hub, missedTimeout)

	relay := ws.NewRelay(hub, messageRepo, callService)
	relay.EnforceOwnership = enforceOwnership

	// 6. HTTP feature handlers
	userHandler := user.NewHandler(userRepo)
	roomHandler := room.NewHandler(roomRepo, messageRepo)
	messageHandler := message.NewHandler(messageRepo, userRepo, roomNames{repo: roomRepo})
	callHandler := call.NewHandler(callService, callRepo)

	authMiddleware := relaymw.NewAuthMiddleware(jwtSecret)

	// 7. Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)

		// WebSocket (Real-time)
		r.Get("/ws", relay.ServeWs)

		r.Post("/api/users/profile", userHandler.SaveProfile)
		r.Get("/api/users/profile", userHandler.GetProfile)
		r.Get("/api/users/{id}", userHandler.GetByID)

		r.Get("/api/messages/private/{id}", messageHandler.PrivateHistory)
		r.Get("/api/messages/room/{id}", messageHandler.RoomHistory)

		r.Post("/api/rooms", roomHandler.Create)
		r.Get("/api/rooms/my", roomHandler.MyRooms)
		r.Get("/api/rooms/{id}", roomHandler.GetByID)

		r.Post("/api/calls", callHandler.Create)
		r.Get("/api/calls/{userId}", callHandler.History)
		r.Put("/api/calls/{id}", callHandler.Update)
	})

	log.Printf("🚀 Server starting on %s", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal(err)
	}
}

// roomNames adapts the room repository to the message handler's
// RoomResolver.
type roomNames struct {
	repo *room.Repository
}

func (rn roomNames) RoomName(ctx context.Context, roomID string) (string, error) {
	rm, err := rn.repo.GetByID(ctx, roomID)
	if err != nil || rm == nil {
		return "", err
	}
	return rm.Name, nil
}
