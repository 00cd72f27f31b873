/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave administration engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Wire domain services (leave, onboarding, scholarship, reconciler)
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port        HTTP server port (default: 8080)
  -db          SQLite database path (default: leave.db)
               Use ":memory:" for an in-memory database
  -year-start  First month of the academic year, 1-12 (default: 7)
  -demo        Enable scenario loading endpoints (default: false)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the month-close scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/leave.db"

  # Run with in-memory database and demo scenarios
  ./server -db=":memory:" -demo

  # Calendar-year institutions
  ./server -year-start=1

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuskit/leave-engine/academic"
	"github.com/campuskit/leave-engine/api"
	"github.com/campuskit/leave-engine/leave"
	"github.com/campuskit/leave-engine/onboarding"
	"github.com/campuskit/leave-engine/reconcile"
	"github.com/campuskit/leave-engine/scholarship"
	"github.com/campuskit/leave-engine/store/memstore"
	"github.com/campuskit/leave-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "leave.db", "SQLite database path")
	yearStart := flag.Int("year-start", 7, "first month of the academic year (1-12)")
	demo := flag.Bool("demo", false, "enable scenario loading endpoints")
	flag.Parse()

	if *yearStart < 1 || *yearStart > 12 {
		log.Fatalf("Invalid -year-start %d: must be 1-12", *yearStart)
	}
	years := academic.YearConfig{StartMonth: time.Month(*yearStart)}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire domain services
	drafts := memstore.NewDrafts()

	leaves := leave.NewService(store)
	leaves.Drafts = drafts
	leaves.Audit = store
	leaves.Years = years

	onboard := onboarding.NewService(store)
	onboard.Audit = store
	onboard.Years = years

	calc := scholarship.NewCalculator(store)
	calc.Cache = store
	calc.Years = years

	reconciler := reconcile.New(leaves)
	reconciler.Audit = store

	handler := &api.Handler{
		Leaves:      leaves,
		Onboarding:  onboard,
		Scholarship: calc,
		Reconciler:  reconciler,
		Drafts:      drafts,
		Audit:       store,
	}
	if *demo {
		handler.Resetter = store
	}

	// Month-close scheduler keeps closed-month payouts precomputed.
	scheduler := api.NewMonthCloseScheduler(handler)
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
