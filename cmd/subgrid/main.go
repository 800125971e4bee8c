package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subgrid/internal/api/rest"
	"subgrid/internal/config"
	"subgrid/internal/events"
	"subgrid/internal/logging"
	"subgrid/internal/query"
	"subgrid/internal/storage"
	"subgrid/internal/storage/memory"
	"subgrid/internal/storage/mongo"
)

func main() {
	configPath := flag.String("config", "config/config.yml", "path to configuration file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Logging error: %v", err)
	}
	log.Printf("Starting subgrid on %s (storage=%s)...", cfg.Server.Addr, cfg.Storage.Backend)

	ctx := context.Background()

	// 2. Build the record store
	var store storage.SubscriptionStore
	switch cfg.Storage.Backend {
	case "mongo":
		mongoStore, err := mongo.NewStore(ctx, cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database)
		if err != nil {
			log.Fatalf("Storage error: %v", err)
		}
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Storage error: %v", err)
		}
		store = mongoStore
	default:
		store = memory.NewStore()
	}

	// 3. Event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		publisher, err = events.NewNATSPublisher(cfg.Events.URL)
		if err != nil {
			log.Fatalf("Events error: %v", err)
		}
	}

	// 4. Query engine and HTTP server
	engine := query.NewEngine(store, query.FilterOptions{
		IgnoreUnknownFields: cfg.Query.IgnoreUnknownFilters,
	})

	mux := http.NewServeMux()
	rest.NewHandler(engine, store, publisher).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownSec)*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	publisher.Close()
	if err := store.Close(ctxShutdown); err != nil {
		log.Printf("Storage close error: %v", err)
	}

	log.Println("Server exiting")
}
