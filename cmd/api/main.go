package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/stackitdev/stackit/backend/internal/database"
	"github.com/stackitdev/stackit/backend/internal/server"
)

func main() {
	db, err := database.New(database.FromEnv())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	srv := server.NewServer(db)

	go func() {
		log.Printf("🚀 Server starting on %s\n", srv.Addr)
		fmt.Println("📝 Press Ctrl+C to stop the server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}
