package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/sheikh-saqib/piggy-bank-ledger/internal/config"
	kafkaevents "github.com/sheikh-saqib/piggy-bank-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/ledger"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/schedule"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/storage/postgres"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg := config.FromEnv()

	// Postgres when DATABASE_URL is set, in-memory otherwise.
	var store interfaces.LedgerStore
	if dsn := config.DatabaseURL(); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			log.Fatalf("ping postgres: %v", err)
		}

		pg := postgres.NewPostgresLedgerStore(db)
		if err := pg.Init(context.Background()); err != nil {
			log.Fatalf("init ledger table: %v", err)
		}
		store = pg
		log.Println("using postgres ledger store")
	} else {
		store = memory.NewMemoryLedgerStore()
		log.Println("using in-memory ledger store")
	}

	var opts []ledger.Option
	if brokers := config.KafkaBrokers(); len(brokers) > 0 {
		publisher := kafkaevents.NewPublisher(brokers, config.KafkaTopic())
		defer publisher.Close()
		opts = append(opts, ledger.WithPublisher(publisher))
		log.Printf("publishing row events to %q", config.KafkaTopic())
	}

	ledgerService := ledger.New(store, cfg, opts...)

	hour, err := config.InterestHour()
	if err != nil {
		log.Fatalf("interest schedule: %v", err)
	}
	scheduler, err := schedule.New(config.InterestDay(), hour, ledgerService)
	if err != nil {
		log.Fatalf("interest schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	env := &web.Env{Ledger: ledgerService, Cfg: cfg}
	srv := &http.Server{
		Addr:    config.Addr(),
		Handler: env.Handler(),
	}

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("Server exited")
}
