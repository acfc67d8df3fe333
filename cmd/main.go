package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/okhomenko/library-server/internal/config"
	"github.com/okhomenko/library-server/internal/logger"
	"github.com/okhomenko/library-server/internal/model"
	"github.com/okhomenko/library-server/internal/repository/memory"
	"github.com/okhomenko/library-server/internal/repository/postgres"
	"github.com/okhomenko/library-server/internal/service"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	var (
		bookStore        model.BookStore
		userStore        model.UserStore
		reservationStore model.ReservationStore
		txRunner         model.TxRunner
	)

	switch cfg.Store.Backend {
	case "postgres":
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
		defer db.Close()

		bookStore = postgres.NewBookRepository(db)
		userStore = postgres.NewUserRepository(db)
		reservationStore = postgres.NewReservationRepository(db)
		txRunner = db
	case "memory":
		store := memory.NewStore()
		bookStore = store.Books()
		userStore = store.Users()
		reservationStore = store.Reservations()
		txRunner = store
	default:
		logger.Fatal("unknown store backend", "backend", cfg.Store.Backend)
	}

	engine := service.NewEngine(bookStore, userStore, reservationStore, txRunner, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runReminderLoop(ctx, logger.WithComponent("reminder"), engine.Reminders, cfg.Reminder)
	}()

	logAppVersion()
	logger.Info("library server started", "backend", cfg.Store.Backend)

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	wg.Wait()
	logger.Info("shutdown complete")
}

// runReminderLoop periodically scans for due-soon reservations and logs a
// notice for each. Actual delivery (email, SMS) is external to this process.
func runReminderLoop(ctx context.Context, logger *logger.Logger, reminders *service.Reminders, cfg config.Reminder) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scanCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			notices, err := reminders.ScanDueSoon(scanCtx, cfg.ThresholdDays)
			cancel()
			if err != nil {
				logger.Error("reminder scan failed", "error", err)
				continue
			}

			for _, n := range notices {
				logger.Info("due-date reminder",
					"reservation_id", n.ReservationID,
					"book_title", n.BookTitle,
					"user_email", n.UserEmail,
					"days_left", n.DaysLeft)
			}
		}
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
