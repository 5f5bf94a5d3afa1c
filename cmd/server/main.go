package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yliang/taskboard/internal/handlers"
	"github.com/yliang/taskboard/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var kv services.KV
	if os.Getenv("MEMORY_STORE") == "1" {
		log.Println("Using in-memory store, data will not survive a restart")
		kv = services.NewMemoryKV()
	} else {
		projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
		if projectID == "" {
			log.Fatal("GOOGLE_CLOUD_PROJECT environment variable is required")
		}

		collection := os.Getenv("KV_COLLECTION")
		if collection == "" {
			collection = "kv"
		}

		firestoreKV, err := services.NewFirestoreKV(projectID, collection)
		if err != nil {
			log.Fatalf("Failed to create Firestore store: %v", err)
		}
		defer firestoreKV.Close()
		kv = firestoreKV
	}

	todos := services.NewTodoStore(kv, "todos")
	resources := services.NewCollectionStore(kv, "resources")
	mailboxes := services.NewCollectionStore(kv, "mailboxes")

	// Expired todos are compacted once per process, before serving; per-request
	// reads only filter, they never write.
	if err := todos.Init(context.Background()); err != nil {
		log.Fatalf("Failed to compact todos: %v", err)
	}

	actionHandler := handlers.NewActionHandler(todos, resources, mailboxes)
	snapshotHandler := handlers.NewSnapshotHandler(todos, resources, mailboxes)
	streamHandler := handlers.NewStreamHandler(
		todos,
		intervalEnv("STREAM_POLL_INTERVAL"),
		intervalEnv("STREAM_HEARTBEAT_INTERVAL"),
	)
	listsHandler := handlers.NewListsHandler(kv)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.POST("/", actionHandler.HandleAction)
	e.GET("/pooling", snapshotHandler.HandleSnapshot)
	e.GET("/stream", streamHandler.HandleStream)
	e.GET("/lists", listsHandler.HandleIndex)
	e.GET("/lists/:id", listsHandler.HandleList)
	e.POST("/lists/:id", listsHandler.HandleAction)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// intervalEnv reads an optional duration from the environment; zero means
// "use the handler default".
func intervalEnv(name string) time.Duration {
	value := os.Getenv(name)
	if value == "" {
		return 0
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid %s: %v", name, err)
	}

	return d
}
