package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boss-timer-api/internal/config"
	"boss-timer-api/internal/events"
	httpapi "boss-timer-api/internal/http"
	"boss-timer-api/internal/service"
	"boss-timer-api/internal/store"
)

func main() {
	cfg := config.Load()

	seed, err := service.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}

	st := store.NewFile(cfg.DataFile)
	if err := st.Initialize(seed); err != nil {
		log.Fatalf("store init: %v", err)
	}

	svc := service.New(st, events.NewBus())
	r := httpapi.NewRouter(svc, httpapi.NewPage(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("boss-timer-api listening on http://localhost:%s", cfg.Port)
		log.Printf("data file: %s", st.Path())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("Server stopped")
}
